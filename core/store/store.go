// Package store defines the port to the persistence collaborator. The core
// never talks to a database directly; it exchanges collections and mutations
// with the platform API through this interface.
package store

import (
	"context"
	"errors"

	"github.com/greenroute/dispatch/core/model"
)

// ErrUnauthorized is returned when the session token is expired or invalid.
// Any sync cycle hitting it must force a logout.
var ErrUnauthorized = errors.New("store: unauthorized")

// MutationError carries the user-displayable message returned by a failed
// mutation. Mutations are never retried automatically.
type MutationError struct {
	Message string
}

func (e *MutationError) Error() string { return e.Message }

// Collections is one logical refresh of all shared state.
type Collections struct {
	Users       []model.User
	Requests    []model.Request
	Ads         []model.Ad
	Connections []model.Connection
	Messages    []model.Message
}

// Store exposes the five collection reads and the mutations the core needs.
type Store interface {
	Users(ctx context.Context) ([]model.User, error)
	Requests(ctx context.Context) ([]model.Request, error)
	Ads(ctx context.Context) ([]model.Ad, error)
	Connections(ctx context.Context) ([]model.Connection, error)
	Messages(ctx context.Context) ([]model.Message, error)

	// PullAll performs one logical refresh of every collection. A failure of
	// any single pull fails the whole refresh.
	PullAll(ctx context.Context) (Collections, error)

	CreateRequest(ctx context.Context, r model.Request) error
	UpdateRequest(ctx context.Context, r model.Request) error
	DeleteRequest(ctx context.Context, id string) error

	CreateConnection(ctx context.Context, c model.Connection) error
	UpdateConnection(ctx context.Context, c model.Connection) error
	DeleteConnection(ctx context.Context, id string) error

	UpdateUser(ctx context.Context, u model.User) error

	// CreateConsolidatedDelivery stores a delivered_basket request built by
	// the consolidation engine.
	CreateConsolidatedDelivery(ctx context.Context, delivery model.Request) error

	// RejectConsolidatedDelivery marks a delivered_basket request rejected
	// with the mandatory reason.
	RejectConsolidatedDelivery(ctx context.Context, id, reason string) error
}
