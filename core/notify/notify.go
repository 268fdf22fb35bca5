// Package notify defines the notification events emitted by the sync cycle
// and the counter snapshot they are derived from.
package notify

import "time"

// Category identifies the kind of activity a notification reports.
type Category string

const (
	CategoryMessages           Category = "messages"
	CategoryPendingRequests    Category = "pending_requests"
	CategoryConnectionRequests Category = "connection_requests"
	CategoryAssignedMissions   Category = "assigned_missions"
)

// Event is a single user-facing notification. One event covers a whole
// category per sync cycle, not one per new item.
type Event struct {
	UserID   string    `json:"userId"`
	Category Category  `json:"category"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Time     time.Time `json:"time"`
}

// Counts is the per-role snapshot of notifiable totals taken once per sync
// cycle. It is only used for diffing against the previous cycle.
type Counts struct {
	Messages           int
	PendingRequests    int
	ConnectionRequests int
	AssignedMissions   int
}

// Record is a delivered notification kept for display until it expires.
type Record struct {
	Event     Event
	CreatedAt time.Time
}

// Publisher pushes notification events to an external channel. Delivery is
// best effort; failures are logged, never retried.
type Publisher interface {
	Publish(ev Event) error
}

// NopPublisher drops all events.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) error { return nil }
