package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/greenroute/dispatch/core/model"
	"github.com/greenroute/dispatch/core/notify"
	"github.com/greenroute/dispatch/core/store"
)

func TestCountsFor_SortingCenter(t *testing.T) {
	center := model.User{ID: "sc", Role: model.RoleSorting}
	cols := store.Collections{
		// r1 is unrouted and visible to every center, r2 is addressed to us,
		// r3 belongs to another center and r4 is already dispatched.
		Requests: []model.Request{
			{ID: "r1", Status: model.StatusPending},
			{ID: "r2", Status: model.StatusPending, SortingCenterID: "sc"},
			{ID: "r3", Status: model.StatusPending, SortingCenterID: "other"},
			{ID: "r4", Status: model.StatusAssigned, SortingCenterID: "sc"},
		},
		Connections: []model.Connection{
			{ID: "c1", SourceID: "d1", TargetID: "sc", Status: model.ConnectionPending},
			{ID: "c2", SourceID: "d2", TargetID: "sc", Status: model.ConnectionApproved},
			{ID: "c3", SourceID: "d3", TargetID: "other", Status: model.ConnectionPending},
		},
		Messages: []model.Message{
			{ID: "m1", ToID: "sc", Read: false},
			{ID: "m2", ToID: "sc", Read: true},
			{ID: "m3", ToID: "other", Read: false},
		},
	}

	n := CountsFor(center, cols)
	assert.Equal(t, 2, n.PendingRequests)
	assert.Equal(t, 1, n.ConnectionRequests)
	assert.Equal(t, 1, n.Messages)
	assert.Equal(t, 0, n.AssignedMissions)
}

func TestCountsFor_Driver(t *testing.T) {
	driver := model.User{ID: "d1", Role: model.RoleDriver}
	cols := store.Collections{
		Requests: []model.Request{
			{ID: "r1", Status: model.StatusAssigned, DriverID: "d1"},
			{ID: "r2", Status: model.StatusInProgress, DriverID: "d1"}, // accepted, no longer a badge
			{ID: "r3", Status: model.StatusAssigned, DriverID: "d2"},
			{ID: "r4", Status: model.StatusPending},
		},
	}

	n := CountsFor(driver, cols)
	assert.Equal(t, 1, n.AssignedMissions)
	assert.Equal(t, 0, n.PendingRequests, "drivers do not see the dispatch queue")
}

func TestDiff_OneEventPerIncreasedCategory(t *testing.T) {
	center := model.User{ID: "sc", Role: model.RoleSorting}
	now := time.Now()

	events := Diff(
		notify.Counts{PendingRequests: 1, Messages: 2},
		notify.Counts{PendingRequests: 4, Messages: 2, ConnectionRequests: 1},
		center, now)

	assert.Len(t, events, 2, "three new requests collapse into one event")
	cats := map[notify.Category]bool{}
	for _, ev := range events {
		cats[ev.Category] = true
		assert.Equal(t, "sc", ev.UserID)
		assert.Equal(t, now, ev.Time)
	}
	assert.True(t, cats[notify.CategoryPendingRequests])
	assert.True(t, cats[notify.CategoryConnectionRequests])
}

func TestDiff_NoEventsOnDecreaseOrSteady(t *testing.T) {
	center := model.User{ID: "sc", Role: model.RoleSorting}
	events := Diff(
		notify.Counts{PendingRequests: 5, Messages: 3},
		notify.Counts{PendingRequests: 2, Messages: 3},
		center, time.Now())
	assert.Empty(t, events)
}

func TestDiff_RoleScopesCategories(t *testing.T) {
	driver := model.User{ID: "d1", Role: model.RoleDriver}
	events := Diff(
		notify.Counts{},
		notify.Counts{PendingRequests: 3, ConnectionRequests: 2, AssignedMissions: 1},
		driver, time.Now())

	assert.Len(t, events, 1)
	assert.Equal(t, notify.CategoryAssignedMissions, events[0].Category)
}
