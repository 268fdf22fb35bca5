package mission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenroute/dispatch/core/model"
	"github.com/greenroute/dispatch/core/store"
	"github.com/greenroute/dispatch/infra/logger"
)

type plannerFunc func(ctx context.Context, from, to model.LatLng) (Route, error)

func (f plannerFunc) Route(ctx context.Context, from, to model.LatLng) (Route, error) {
	return f(ctx, from, to)
}

type spyNavigator struct {
	started []string
	stopped []string
}

func (n *spyNavigator) StartMission(req model.Request) { n.started = append(n.started, req.ID) }
func (n *spyNavigator) StopMission(id string)          { n.stopped = append(n.stopped, id) }

func seedMission(t model.RequestType, status model.RequestStatus) *store.Memory {
	st := store.NewMemory()
	st.Seed(store.Collections{
		Users: []model.User{
			{ID: "d1", Name: "Driver One", Role: model.RoleDriver,
				EmptyBaskets: 20, LoadCapacity: 15,
				Location: &model.LatLng{Lat: 35.70, Lng: 51.40}},
		},
		Requests: []model.Request{
			{ID: "r1", Type: t, Status: status, RequesterID: "g1", DriverID: "d1",
				Quantity: 5, Location: model.LatLng{Lat: 35.69, Lng: 51.389}},
		},
	})
	return st
}

func newEngine(t *testing.T, st *store.Memory, planner RoutePlanner, nav Navigator) *Engine {
	t.Helper()
	eng, err := NewEngine(st, planner, nav, nil, logger.NopLogger{}, 40)
	require.NoError(t, err)
	return eng
}

func TestAccept_DecrementsCapacityAndStartsNavigation(t *testing.T) {
	st := seedMission(model.RequestFull, model.StatusAssigned)
	nav := &spyNavigator{}
	eng := newEngine(t, st, nil, nav)

	req, err := eng.Accept(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, req.Status)
	assert.False(t, req.AcceptedAt.IsZero())

	driver, ok := st.User("d1")
	require.True(t, ok)
	assert.Equal(t, 10, driver.LoadCapacity, "full pickup consumes load capacity")
	assert.Equal(t, 20, driver.EmptyBaskets, "empty-basket mode untouched")

	assert.Equal(t, []string{"r1"}, nav.started)
}

func TestAccept_EmptyRequestConsumesEmptyBaskets(t *testing.T) {
	st := seedMission(model.RequestEmpty, model.StatusAssigned)
	eng := newEngine(t, st, nil, &spyNavigator{})

	_, err := eng.Accept(context.Background(), "r1")
	require.NoError(t, err)

	driver, _ := st.User("d1")
	assert.Equal(t, 15, driver.EmptyBaskets)
	assert.Equal(t, 15, driver.LoadCapacity)
}

func TestAccept_UsesPlannerRoute(t *testing.T) {
	st := seedMission(model.RequestFull, model.StatusAssigned)
	planned := Route{
		Path: []model.LatLng{
			{Lat: 35.70, Lng: 51.40},
			{Lat: 35.695, Lng: 51.395},
			{Lat: 35.69, Lng: 51.389},
		},
		DistanceKm: 2.4,
		Duration:   4 * time.Minute,
	}
	planner := plannerFunc(func(context.Context, model.LatLng, model.LatLng) (Route, error) {
		return planned, nil
	})
	eng := newEngine(t, st, planner, &spyNavigator{})

	req, err := eng.Accept(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, planned.Path, req.RoutePath)
	assert.Equal(t, planned.DistanceKm, req.RouteDistanceKm)
	assert.Equal(t, planned.Duration, req.RouteDuration)
	assert.Equal(t, 0, req.RouteIndex)
}

func TestAccept_FallsBackToStraightLine(t *testing.T) {
	st := seedMission(model.RequestFull, model.StatusAssigned)
	planner := plannerFunc(func(context.Context, model.LatLng, model.LatLng) (Route, error) {
		return Route{}, errors.New("routing service down")
	})
	eng := newEngine(t, st, planner, &spyNavigator{})

	req, err := eng.Accept(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, req.RoutePath, 2)
	assert.Equal(t, model.LatLng{Lat: 35.70, Lng: 51.40}, req.RoutePath[0])
	assert.Equal(t, model.LatLng{Lat: 35.69, Lng: 51.389}, req.RoutePath[1])
	assert.Greater(t, req.RouteDistanceKm, 0.0)
	assert.Greater(t, req.RouteDuration, time.Duration(0))
}

func TestAccept_NotAssigned(t *testing.T) {
	st := seedMission(model.RequestFull, model.StatusPending)
	eng := newEngine(t, st, nil, &spyNavigator{})

	_, err := eng.Accept(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrNotAssigned)
}

func TestReject_ReturnsToPendingPool(t *testing.T) {
	st := seedMission(model.RequestFull, model.StatusAssigned)
	r, _ := st.Request("r1")
	r.DriverName = "Driver One"
	r.DriverPhone = "0912"
	r.AssignedAt = time.Now()
	require.NoError(t, st.UpdateRequest(context.Background(), r))

	eng := newEngine(t, st, nil, &spyNavigator{})
	req, err := eng.Reject(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, req.Status)
	assert.Empty(t, req.DriverID)
	assert.Empty(t, req.DriverName)
	assert.Empty(t, req.DriverPhone)
	assert.True(t, req.AssignedAt.IsZero())
}

func TestConfirm_FullBasketOrder(t *testing.T) {
	st := seedMission(model.RequestFull, model.StatusInProgress)
	nav := &spyNavigator{}
	eng := newEngine(t, st, nil, nav)
	ctx := context.Background()

	// The grower cannot confirm receipt before the driver confirms pickup.
	_, err := eng.ConfirmByRequester(ctx, "r1")
	assert.ErrorIs(t, err, ErrPickupNotConfirmed)
	stored, _ := st.Request("r1")
	assert.False(t, stored.IsPickupConfirmed, "premature confirmation must not change the request")
	assert.Equal(t, model.StatusInProgress, stored.Status)

	req, err := eng.ConfirmByDriver(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, req.IsPickupConfirmed)
	assert.Equal(t, model.StatusInProgress, req.Status)

	_, err = eng.ConfirmByDriver(ctx, "r1")
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)

	req, err = eng.ConfirmByRequester(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, req.Status)
	assert.False(t, req.CompletedAt.IsZero())
	assert.False(t, req.IsConsolidated, "completed full mission starts unconsolidated")
	assert.Nil(t, req.RoutePath)
	assert.Equal(t, []string{"r1"}, nav.stopped)
}

func TestConfirm_EmptyBasketOrder(t *testing.T) {
	st := seedMission(model.RequestEmpty, model.StatusInProgress)
	eng := newEngine(t, st, nil, &spyNavigator{})
	ctx := context.Background()

	// The driver cannot confirm delivery before the grower confirms receipt.
	_, err := eng.ConfirmByDriver(ctx, "r1")
	assert.ErrorIs(t, err, ErrPickupNotConfirmed)

	_, err = eng.ConfirmByRequester(ctx, "r1")
	require.NoError(t, err)

	req, err := eng.ConfirmByDriver(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, req.Status)
}

func TestConfirm_SortingDeliveryHasNoHandshake(t *testing.T) {
	st := seedMission(model.RequestSortingDelivery, model.StatusInProgress)
	eng := newEngine(t, st, nil, &spyNavigator{})
	ctx := context.Background()

	_, err := eng.ConfirmByDriver(ctx, "r1")
	assert.ErrorIs(t, err, ErrNoConfirmationFlow)
	_, err = eng.ConfirmByRequester(ctx, "r1")
	assert.ErrorIs(t, err, ErrNoConfirmationFlow)

	stored, _ := st.Request("r1")
	assert.Equal(t, model.StatusInProgress, stored.Status)
	assert.False(t, stored.IsPickupConfirmed)
}

func TestConfirm_RequiresInProgress(t *testing.T) {
	st := seedMission(model.RequestFull, model.StatusAssigned)
	eng := newEngine(t, st, nil, &spyNavigator{})

	_, err := eng.ConfirmByDriver(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrNotInProgress)
}

func TestCancel_PendingOnly(t *testing.T) {
	st := seedMission(model.RequestFull, model.StatusPending)
	eng := newEngine(t, st, nil, &spyNavigator{})

	require.NoError(t, eng.Cancel(context.Background(), "r1"))
	_, ok := st.Request("r1")
	assert.False(t, ok, "cancelled request should be removed")
}

func TestCancel_RejectsActiveMission(t *testing.T) {
	st := seedMission(model.RequestFull, model.StatusInProgress)
	eng := newEngine(t, st, nil, &spyNavigator{})

	err := eng.Cancel(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrNotPending)
	_, ok := st.Request("r1")
	assert.True(t, ok)
}

func TestEngine_UnknownRequest(t *testing.T) {
	eng := newEngine(t, store.NewMemory(), nil, &spyNavigator{})

	_, err := eng.Accept(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
