// Package mission advances a request through its lifecycle: acceptance,
// the two-sided confirmation handshake and the terminal transitions.
package mission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/greenroute/dispatch/core/geo"
	"github.com/greenroute/dispatch/core/logger"
	"github.com/greenroute/dispatch/core/model"
	"github.com/greenroute/dispatch/core/store"
	"github.com/greenroute/dispatch/internal/eventbus"
)

var (
	ErrNotFound   = errors.New("mission: request not found")
	ErrNotPending = errors.New("mission: request is not pending")
	// ErrNotAssigned means the driver acted on a request that is not
	// currently assigned to anyone.
	ErrNotAssigned   = errors.New("mission: request is not assigned")
	ErrNotInProgress = errors.New("mission: request is not in progress")
	// ErrPickupNotConfirmed rejects the second confirmation step before the
	// first has landed. The request is left unchanged.
	ErrPickupNotConfirmed = errors.New("mission: first confirmation step has not been recorded yet")
	// ErrAlreadyConfirmed rejects a repeated first confirmation step.
	ErrAlreadyConfirmed = errors.New("mission: pickup already confirmed")
	// ErrNoConfirmationFlow rejects confirmations on request types that have
	// no two-sided handshake. Consolidated deliveries settle through the
	// consolidation engine instead.
	ErrNoConfirmationFlow = errors.New("mission: request type has no confirmation flow")
)

// Engine is the per-request state machine.
type Engine struct {
	store    store.Store
	planner  RoutePlanner
	nav      Navigator
	bus      *eventbus.Bus[Event]
	log      logger.Logger
	speedKmh float64
	now      func() time.Time
}

// NewEngine creates an Engine. planner and bus may be nil; nav falls back to
// NopNavigator. speedKmh is used to synthesize a duration for straight-line
// fallback routes.
func NewEngine(st store.Store, planner RoutePlanner, nav Navigator, bus *eventbus.Bus[Event], log logger.Logger, speedKmh float64) (*Engine, error) {
	if st == nil || log == nil {
		return nil, fmt.Errorf("mission: nil parameter provided to NewEngine")
	}
	if nav == nil {
		nav = NopNavigator{}
	}
	if speedKmh <= 0 {
		speedKmh = 40
	}
	return &Engine{store: st, planner: planner, nav: nav, bus: bus, log: log, speedKmh: speedKmh, now: time.Now}, nil
}

func (e *Engine) request(ctx context.Context, id string) (model.Request, error) {
	requests, err := e.store.Requests(ctx)
	if err != nil {
		return model.Request{}, fmt.Errorf("pull requests: %w", err)
	}
	for _, r := range requests {
		if r.ID == id {
			return r, nil
		}
	}
	return model.Request{}, ErrNotFound
}

func (e *Engine) save(ctx context.Context, req model.Request) error {
	if err := e.store.UpdateRequest(ctx, req); err != nil {
		return fmt.Errorf("update request %s: %w", req.ID, err)
	}
	if e.bus != nil {
		e.bus.Publish(Event{RequestID: req.ID, Status: req.Status, DriverID: req.DriverID, Time: e.now()})
	}
	return nil
}

// Accept moves an assigned request to in_progress: the driver's capacity is
// decremented by the request quantity, a route is computed and navigation
// starts.
func (e *Engine) Accept(ctx context.Context, requestID string) (model.Request, error) {
	req, err := e.request(ctx, requestID)
	if err != nil {
		return model.Request{}, err
	}
	if req.Status != model.StatusAssigned {
		return model.Request{}, ErrNotAssigned
	}

	users, err := e.store.Users(ctx)
	if err != nil {
		return model.Request{}, fmt.Errorf("pull users: %w", err)
	}
	var driver model.User
	found := false
	for _, u := range users {
		if u.ID == req.DriverID {
			driver, found = u, true
			break
		}
	}
	if !found {
		return model.Request{}, fmt.Errorf("mission: assigned driver %s not found", req.DriverID)
	}

	switch req.Type {
	case model.RequestEmpty:
		driver.EmptyBaskets -= req.Quantity
	case model.RequestFull:
		driver.LoadCapacity -= req.Quantity
	}
	if err := e.store.UpdateUser(ctx, driver); err != nil {
		return model.Request{}, fmt.Errorf("decrement capacity for %s: %w", driver.ID, err)
	}

	route := e.route(ctx, driver, req)
	req.RoutePath = route.Path
	req.RouteDistanceKm = route.DistanceKm
	req.RouteDuration = route.Duration
	req.RouteIndex = 0
	req.CurrentPosition = nil
	req.Status = model.StatusInProgress
	req.AcceptedAt = e.now()

	if err := e.save(ctx, req); err != nil {
		return model.Request{}, err
	}
	e.nav.StartMission(req)
	e.log.Infof("driver %s accepted request %s", driver.ID, req.ID)
	return req, nil
}

// route asks the planner for a polyline and falls back to a direct two-point
// path so a mission is never left without a route.
func (e *Engine) route(ctx context.Context, driver model.User, req model.Request) Route {
	from := req.Location
	if driver.Location != nil {
		from = *driver.Location
	}
	if e.planner != nil {
		r, err := e.planner.Route(ctx, from, req.Location)
		if err == nil && len(r.Path) >= 2 {
			return r
		}
		if err != nil {
			e.log.Warnf("route for request %s failed, using straight line: %v", req.ID, err)
		}
	}
	dist := geo.Distance(from, req.Location)
	return Route{
		Path:       []model.LatLng{from, req.Location},
		DistanceKm: dist,
		Duration:   time.Duration(dist / e.speedKmh * float64(time.Hour)),
	}
}

// Reject returns an assigned request to the pending pool, clearing the
// driver snapshot and the assignment timestamp.
func (e *Engine) Reject(ctx context.Context, requestID string) (model.Request, error) {
	req, err := e.request(ctx, requestID)
	if err != nil {
		return model.Request{}, err
	}
	if req.Status != model.StatusAssigned {
		return model.Request{}, ErrNotAssigned
	}
	driverID := req.DriverID
	req.ClearDriver()
	req.Status = model.StatusPending
	if err := e.save(ctx, req); err != nil {
		return model.Request{}, err
	}
	e.log.Infof("driver %s rejected request %s", driverID, req.ID)
	return req, nil
}

// ConfirmByDriver records the driver's confirmation. For full-basket
// missions the driver confirms first (cargo picked up); for empty-basket
// missions the driver confirms second (baskets delivered) and completes the
// mission.
func (e *Engine) ConfirmByDriver(ctx context.Context, requestID string) (model.Request, error) {
	req, err := e.request(ctx, requestID)
	if err != nil {
		return model.Request{}, err
	}
	if req.Status != model.StatusInProgress {
		return model.Request{}, ErrNotInProgress
	}
	switch req.Type {
	case model.RequestFull:
		return e.confirmFirst(ctx, req)
	case model.RequestEmpty:
		return e.confirmSecond(ctx, req)
	default:
		return model.Request{}, ErrNoConfirmationFlow
	}
}

// ConfirmByRequester records the grower's confirmation. For full-basket
// missions the grower confirms second (delivery accepted); for empty-basket
// missions the grower confirms first (baskets received).
func (e *Engine) ConfirmByRequester(ctx context.Context, requestID string) (model.Request, error) {
	req, err := e.request(ctx, requestID)
	if err != nil {
		return model.Request{}, err
	}
	if req.Status != model.StatusInProgress {
		return model.Request{}, ErrNotInProgress
	}
	switch req.Type {
	case model.RequestEmpty:
		return e.confirmFirst(ctx, req)
	case model.RequestFull:
		return e.confirmSecond(ctx, req)
	default:
		return model.Request{}, ErrNoConfirmationFlow
	}
}

func (e *Engine) confirmFirst(ctx context.Context, req model.Request) (model.Request, error) {
	if req.IsPickupConfirmed {
		return model.Request{}, ErrAlreadyConfirmed
	}
	req.IsPickupConfirmed = true
	if err := e.save(ctx, req); err != nil {
		return model.Request{}, err
	}
	return req, nil
}

func (e *Engine) confirmSecond(ctx context.Context, req model.Request) (model.Request, error) {
	if !req.IsPickupConfirmed {
		return model.Request{}, ErrPickupNotConfirmed
	}
	req.Status = model.StatusCompleted
	req.CompletedAt = e.now()
	if req.Type == model.RequestFull {
		// Explicitly unconsolidated: the mission is now eligible for a later
		// delivered_basket batch.
		req.IsConsolidated = false
	}
	req.RoutePath = nil
	req.RouteIndex = 0
	req.CurrentPosition = nil
	if err := e.save(ctx, req); err != nil {
		return model.Request{}, err
	}
	e.nav.StopMission(req.ID)
	e.log.Infof("request %s completed", req.ID)
	return req, nil
}

// Cancel removes a pending request. Any other status is a precondition
// error; the requester cancels, the sorting center rejects, both land here.
func (e *Engine) Cancel(ctx context.Context, requestID string) error {
	req, err := e.request(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status != model.StatusPending {
		return ErrNotPending
	}
	if err := e.store.DeleteRequest(ctx, requestID); err != nil {
		return fmt.Errorf("cancel request %s: %w", requestID, err)
	}
	if e.bus != nil {
		e.bus.Publish(Event{RequestID: requestID, Status: model.StatusCancelled, Time: e.now()})
	}
	return nil
}
