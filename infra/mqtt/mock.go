package mqtt

import (
	"fmt"
	"sync"

	"github.com/greenroute/dispatch/core/notify"
)

// MockPublisher records published events for tests.
type MockPublisher struct {
	mu     sync.Mutex
	Events []notify.Event
	Fail   bool
}

// NewMockPublisher creates a MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish stores the event or fails if configured to.
func (m *MockPublisher) Publish(ev notify.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return fmt.Errorf("publish failed")
	}
	m.Events = append(m.Events, ev)
	return nil
}

// Published returns a copy of the recorded events.
func (m *MockPublisher) Published() []notify.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notify.Event, len(m.Events))
	copy(out, m.Events)
	return out
}
