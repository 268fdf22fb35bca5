package mission

import (
	"context"
	"time"

	"github.com/greenroute/dispatch/core/model"
)

// Route is the output of the routing collaborator: an ordered polyline plus
// a summary.
type Route struct {
	Path       []model.LatLng
	DistanceKm float64
	Duration   time.Duration
}

// RoutePlanner fetches a route between two points. Implementations live in
// infra/routing; failures are non-fatal because the engine substitutes a
// straight-line path.
type RoutePlanner interface {
	Route(ctx context.Context, from, to model.LatLng) (Route, error)
}

// Navigator owns the live-position watcher for the driver's current
// mission. The engine starts it on acceptance and stops it on completion.
type Navigator interface {
	StartMission(req model.Request)
	StopMission(requestID string)
}

// NopNavigator ignores all watcher transitions.
type NopNavigator struct{}

func (NopNavigator) StartMission(model.Request) {}
func (NopNavigator) StopMission(string)         {}

// Event reports a mission transition on the bus so panels and badges can
// refresh.
type Event struct {
	RequestID string
	Status    model.RequestStatus
	DriverID  string
	Time      time.Time
}
