package dispatch

import (
	"time"

	"github.com/greenroute/dispatch/core/model"
)

// DriverFilter computes the set of drivers eligible for a pending request.
type DriverFilter interface {
	Eligible(req model.Request, centerID string, drivers []model.User,
		connections []model.Connection, requests []model.Request) ([]model.User, error)
}

// Event is published on the bus after every successful assignment.
type Event struct {
	RequestID  string
	DriverID   string
	CenterID   string
	Type       model.RequestType
	Quantity   int
	AssignedAt time.Time
}
