// Package consolidation folds a driver's completed full-basket missions
// into a single delivery-to-sorting-center mission, with a compensating
// rollback when the center rejects the batch.
package consolidation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/greenroute/dispatch/core/logger"
	"github.com/greenroute/dispatch/core/model"
	"github.com/greenroute/dispatch/core/store"
)

var (
	// ErrDriverBusy means the driver still has an active mission.
	ErrDriverBusy = errors.New("consolidation: driver has an active mission")
	// ErrNoConnection and ErrMultipleConnections are kept distinct: the
	// exactly-one-connection rule fails differently for zero and for many.
	ErrNoConnection        = errors.New("consolidation: driver has no approved connection")
	ErrMultipleConnections = errors.New("consolidation: driver has more than one approved connection")
	// ErrNotUnloaded means the driver still holds baskets in either mode.
	ErrNotUnloaded = errors.New("consolidation: driver has not fully unloaded")
	// ErrReasonRequired rejects a delivery rejection without a reason.
	ErrReasonRequired = errors.New("consolidation: rejection reason is required")
	// ErrNotInTransit means the delivery is not awaiting the sorting center.
	ErrNotInTransit = errors.New("consolidation: delivery is not in progress to sorting")
	ErrNotFound     = errors.New("consolidation: delivery not found")
)

// Engine creates and settles delivered_basket missions.
type Engine struct {
	store store.Store
	log   logger.Logger
	now   func() time.Time
	newID func() string
}

// NewEngine creates an Engine.
func NewEngine(st store.Store, log logger.Logger) (*Engine, error) {
	if st == nil || log == nil {
		return nil, fmt.Errorf("consolidation: nil parameter provided to NewEngine")
	}
	return &Engine{store: st, log: log, now: time.Now, newID: func() string { return uuid.NewString() }}, nil
}

// Consolidate gathers the driver's completed, unconsolidated full-basket
// missions into one delivered_basket mission addressed to the driver's
// connected sorting center. Zero eligible missions is an informational
// no-op, reported through the bool, not an error.
func (e *Engine) Consolidate(ctx context.Context, driverID string) (model.Request, bool, error) {
	requests, err := e.store.Requests(ctx)
	if err != nil {
		return model.Request{}, false, fmt.Errorf("pull requests: %w", err)
	}
	for _, r := range requests {
		if r.DriverID == driverID && r.Status.Active() {
			return model.Request{}, false, ErrDriverBusy
		}
	}

	connections, err := e.store.Connections(ctx)
	if err != nil {
		return model.Request{}, false, fmt.Errorf("pull connections: %w", err)
	}
	var active []model.Connection
	for _, c := range connections {
		if c.Active() && (c.SourceID == driverID || c.TargetID == driverID) {
			active = append(active, c)
		}
	}
	switch len(active) {
	case 0:
		return model.Request{}, false, ErrNoConnection
	case 1:
	default:
		return model.Request{}, false, ErrMultipleConnections
	}
	centerID := active[0].TargetID
	if centerID == driverID {
		centerID = active[0].SourceID
	}

	users, err := e.store.Users(ctx)
	if err != nil {
		return model.Request{}, false, fmt.Errorf("pull users: %w", err)
	}
	for _, u := range users {
		if u.ID == driverID {
			if !u.Unloaded() {
				return model.Request{}, false, ErrNotUnloaded
			}
			break
		}
	}

	var batch []model.Request
	quantity := 0
	for _, r := range requests {
		if r.DriverID == driverID && r.Consolidatable() {
			batch = append(batch, r)
			quantity += r.Quantity
		}
	}
	if len(batch) == 0 {
		e.log.Infof("driver %s has no missions to consolidate", driverID)
		return model.Request{}, false, nil
	}

	ids := make([]string, len(batch))
	for i, r := range batch {
		ids[i] = r.ID
	}
	delivery := model.Request{
		ID:              e.newID(),
		Type:            model.RequestDeliveredBasket,
		Status:          model.StatusInProgressToSorting,
		RequesterID:     driverID,
		SortingCenterID: centerID,
		DriverID:        driverID,
		Quantity:        quantity,
		ConsolidatedIDs: ids,
		CreatedAt:       e.now(),
	}

	for _, r := range batch {
		r.IsConsolidated = true
		if err := e.store.UpdateRequest(ctx, r); err != nil {
			return model.Request{}, false, fmt.Errorf("mark mission %s consolidated: %w", r.ID, err)
		}
	}
	if err := e.store.CreateConsolidatedDelivery(ctx, delivery); err != nil {
		return model.Request{}, false, fmt.Errorf("create consolidated delivery: %w", err)
	}
	e.log.Infof("driver %s consolidated %d missions into delivery %s", driverID, len(batch), delivery.ID)
	return delivery, true, nil
}

// Confirm records the sorting center's receipt of the batch.
func (e *Engine) Confirm(ctx context.Context, deliveryID string) (model.Request, error) {
	delivery, err := e.delivery(ctx, deliveryID)
	if err != nil {
		return model.Request{}, err
	}
	delivery.Status = model.StatusCompleted
	delivery.CompletedAt = e.now()
	if err := e.store.UpdateRequest(ctx, delivery); err != nil {
		return model.Request{}, fmt.Errorf("confirm delivery %s: %w", deliveryID, err)
	}
	return delivery, nil
}

// Reject is a compensating transaction: the delivery becomes rejected
// (terminal, never back to pending) with the reason stored verbatim, and
// every referenced mission's consolidation flag reverts so it can be
// consolidated again.
func (e *Engine) Reject(ctx context.Context, deliveryID, reason string) (model.Request, error) {
	if reason == "" {
		return model.Request{}, ErrReasonRequired
	}
	delivery, err := e.delivery(ctx, deliveryID)
	if err != nil {
		return model.Request{}, err
	}
	if err := e.store.RejectConsolidatedDelivery(ctx, deliveryID, reason); err != nil {
		return model.Request{}, fmt.Errorf("reject delivery %s: %w", deliveryID, err)
	}

	requests, err := e.store.Requests(ctx)
	if err != nil {
		return model.Request{}, fmt.Errorf("pull requests: %w", err)
	}
	referenced := make(map[string]bool, len(delivery.ConsolidatedIDs))
	for _, id := range delivery.ConsolidatedIDs {
		referenced[id] = true
	}
	for _, r := range requests {
		if referenced[r.ID] && r.IsConsolidated {
			r.IsConsolidated = false
			if err := e.store.UpdateRequest(ctx, r); err != nil {
				return model.Request{}, fmt.Errorf("revert mission %s: %w", r.ID, err)
			}
		}
	}

	delivery.Status = model.StatusRejected
	delivery.RejectionReason = reason
	e.log.Infof("delivery %s rejected: %s", deliveryID, reason)
	return delivery, nil
}

func (e *Engine) delivery(ctx context.Context, id string) (model.Request, error) {
	requests, err := e.store.Requests(ctx)
	if err != nil {
		return model.Request{}, fmt.Errorf("pull requests: %w", err)
	}
	for _, r := range requests {
		if r.ID == id {
			if r.Type != model.RequestDeliveredBasket || r.Status != model.StatusInProgressToSorting {
				return model.Request{}, ErrNotInTransit
			}
			return r, nil
		}
	}
	return model.Request{}, ErrNotFound
}
