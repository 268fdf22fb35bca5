package sync

import (
	"time"

	"github.com/greenroute/dispatch/core/model"
	"github.com/greenroute/dispatch/core/notify"
	"github.com/greenroute/dispatch/core/store"
)

// CountsFor computes the role-relevant notification counters from one
// pulled refresh.
func CountsFor(user model.User, c store.Collections) notify.Counts {
	var n notify.Counts
	for _, m := range c.Messages {
		if m.ToID == user.ID && !m.Read {
			n.Messages++
		}
	}
	switch user.Role {
	case model.RoleSorting:
		for _, r := range c.Requests {
			if r.Status == model.StatusPending && (r.SortingCenterID == "" || r.SortingCenterID == user.ID) {
				n.PendingRequests++
			}
		}
		for _, cn := range c.Connections {
			if cn.TargetID == user.ID && cn.Status == model.ConnectionPending {
				n.ConnectionRequests++
			}
		}
	case model.RoleDriver:
		for _, r := range c.Requests {
			if r.DriverID == user.ID && r.Status == model.StatusAssigned {
				n.AssignedMissions++
			}
		}
	}
	return n
}

// Diff compares two counter snapshots and returns one notification event
// per category whose counter increased, never one per new item. It is a
// pure function of its inputs.
func Diff(prev, cur notify.Counts, user model.User, now time.Time) []notify.Event {
	var events []notify.Event
	add := func(cat notify.Category, title, body string) {
		events = append(events, notify.Event{
			UserID:   user.ID,
			Category: cat,
			Title:    title,
			Body:     body,
			Time:     now,
		})
	}
	if cur.Messages > prev.Messages {
		add(notify.CategoryMessages, "New message", "You have unread messages")
	}
	if user.Role == model.RoleSorting {
		if cur.PendingRequests > prev.PendingRequests {
			add(notify.CategoryPendingRequests, "New transport request", "New pickup or delivery requests are waiting for dispatch")
		}
		if cur.ConnectionRequests > prev.ConnectionRequests {
			add(notify.CategoryConnectionRequests, "New connection request", "A user asked to connect with your sorting center")
		}
	}
	if user.Role == model.RoleDriver {
		if cur.AssignedMissions > prev.AssignedMissions {
			add(notify.CategoryAssignedMissions, "New mission", "A mission has been assigned to you")
		}
	}
	return events
}
