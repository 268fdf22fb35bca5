// Package dispatch matches pending transport requests to eligible drivers
// and performs the assignment transition.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/greenroute/dispatch/core/geo"
	"github.com/greenroute/dispatch/core/logger"
	"github.com/greenroute/dispatch/core/metrics"
	"github.com/greenroute/dispatch/core/model"
	"github.com/greenroute/dispatch/core/store"
	"github.com/greenroute/dispatch/internal/eventbus"
)

var (
	// ErrRequestNotFound means the request ID is unknown to the store.
	ErrRequestNotFound = errors.New("dispatch: request not found")
	// ErrRequestNotPending means the request already left the pending state.
	ErrRequestNotPending = errors.New("dispatch: request is not pending")
)

// Manager runs the dispatch flow: eligibility filtering, proximity
// selection and the pending to assigned transition.
type Manager struct {
	filter DriverFilter
	store  store.Store
	bus    *eventbus.Bus[Event]
	log    logger.Logger
	sink   metrics.Sink
	now    func() time.Time
}

// NewManager creates a Manager. The bus and sink may be nil.
func NewManager(filter DriverFilter, st store.Store, bus *eventbus.Bus[Event], log logger.Logger, sink metrics.Sink) (*Manager, error) {
	if filter == nil || st == nil || log == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewManager")
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Manager{
		filter: filter,
		store:  st,
		bus:    bus,
		log:    log,
		sink:   sink,
		now:    time.Now,
	}, nil
}

// Assign picks the closest eligible driver for the pending request and
// records the assignment. The driver's display fields are snapshotted onto
// the request so the mission card survives later driver edits.
func (m *Manager) Assign(ctx context.Context, requestID, centerID string) (model.Request, error) {
	requests, err := m.store.Requests(ctx)
	if err != nil {
		return model.Request{}, fmt.Errorf("pull requests: %w", err)
	}
	var req model.Request
	found := false
	for _, r := range requests {
		if r.ID == requestID {
			req, found = r, true
			break
		}
	}
	if !found {
		return model.Request{}, ErrRequestNotFound
	}
	if req.Status != model.StatusPending {
		return model.Request{}, ErrRequestNotPending
	}

	users, err := m.store.Users(ctx)
	if err != nil {
		return model.Request{}, fmt.Errorf("pull users: %w", err)
	}
	connections, err := m.store.Connections(ctx)
	if err != nil {
		return model.Request{}, fmt.Errorf("pull connections: %w", err)
	}

	eligible, err := m.filter.Eligible(req, centerID, users, connections, requests)
	if err != nil {
		m.log.Warnf("no driver for request %s: %v", req.ID, err)
		return model.Request{}, err
	}

	driver, ok := geo.Closest(eligible, func(u model.User) model.LatLng { return *u.Location }, req.Location)
	if !ok {
		return model.Request{}, ErrNoLocatedDriver
	}

	req.DriverID = driver.ID
	req.DriverName = driver.Name
	req.DriverPhone = driver.Phone
	req.DriverPlate = driver.LicensePlate
	req.SortingCenterID = centerID
	req.Status = model.StatusAssigned
	req.AssignedAt = m.now()

	if err := m.store.UpdateRequest(ctx, req); err != nil {
		return model.Request{}, fmt.Errorf("assign request %s: %w", req.ID, err)
	}
	m.log.Infof("assigned driver %s to request %s (%d candidates)", driver.ID, req.ID, len(eligible))

	if m.bus != nil {
		m.bus.Publish(Event{
			RequestID:  req.ID,
			DriverID:   driver.ID,
			CenterID:   centerID,
			Type:       req.Type,
			Quantity:   req.Quantity,
			AssignedAt: req.AssignedAt,
		})
	}
	if err := m.sink.RecordAssignment(metrics.AssignmentEvent{
		RequestID:   req.ID,
		RequestType: req.Type,
		DriverID:    driver.ID,
		Candidates:  len(eligible),
		DistanceKm:  geo.Distance(*driver.Location, req.Location),
		Time:        req.AssignedAt,
	}); err != nil {
		m.log.Errorf("assignment metrics error: %v", err)
	}
	return req, nil
}
