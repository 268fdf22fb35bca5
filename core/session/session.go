// Package session holds the per-login application context: the current
// user, the token, the last pulled collections and the UI guards the sync
// cycle consults. It replaces the global mutable state of the original
// client with one object created at login and torn down at logout.
package session

import (
	"sync"
	"time"

	"github.com/greenroute/dispatch/core/model"
	"github.com/greenroute/dispatch/core/notify"
	"github.com/greenroute/dispatch/core/store"
)

// Session is safe for concurrent use by the sync scheduler, the navigation
// watcher and user actions.
type Session struct {
	mu            sync.RWMutex
	user          *model.User
	token         string
	epoch         uint64
	collections   store.Collections
	notifications []notify.Record
	formActive    bool
	routing       int
	onLogout      []func()
}

// New creates an unauthenticated session.
func New() *Session { return &Session{} }

// Login installs the authenticated user and token and bumps the epoch.
func (s *Session) Login(user model.User, token string) {
	s.mu.Lock()
	u := user
	s.user = &u
	s.token = token
	s.epoch++
	s.mu.Unlock()
}

// Logout clears all session state and runs the registered teardown hooks.
// Responses from calls issued before logout observe a stale epoch and are
// dropped by their callers.
func (s *Session) Logout() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.epoch++
	s.collections = store.Collections{}
	s.notifications = nil
	hooks := s.onLogout
	s.mu.Unlock()
	for _, h := range hooks {
		h()
	}
}

// OnLogout registers a teardown hook, e.g. stopping the location watcher.
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	s.onLogout = append(s.onLogout, fn)
	s.mu.Unlock()
}

// Authenticated reports whether a user is logged in.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// User returns the current user, if any.
func (s *Session) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// Token returns the bearer token attached to platform calls.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Epoch returns the current session generation.
func (s *Session) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// StillCurrent reports whether a response captured at the given epoch may
// still be applied.
func (s *Session) StillCurrent(epoch uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.epoch == epoch
}

// SetFormActive flags that a form input has focus; the sync cycle skips
// while set to avoid clobbering in-progress edits.
func (s *Session) SetFormActive(active bool) {
	s.mu.Lock()
	s.formActive = active
	s.mu.Unlock()
}

// FormActive reports the form guard.
func (s *Session) FormActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.formActive
}

// BeginRouting marks a route fetch in flight. The sync cycle skips while
// any are outstanding.
func (s *Session) BeginRouting() {
	s.mu.Lock()
	s.routing++
	s.mu.Unlock()
}

// EndRouting releases the routing guard.
func (s *Session) EndRouting() {
	s.mu.Lock()
	if s.routing > 0 {
		s.routing--
	}
	s.mu.Unlock()
}

// RoutingInFlight reports whether a route fetch is outstanding.
func (s *Session) RoutingInFlight() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.routing > 0
}

// SetCollections replaces the cached collections after a refresh.
func (s *Session) SetCollections(c store.Collections) {
	s.mu.Lock()
	s.collections = c
	s.mu.Unlock()
}

// Collections returns the last pulled collections.
func (s *Session) Collections() store.Collections {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collections
}

// AddNotifications appends delivered notification records.
func (s *Session) AddNotifications(events []notify.Event, now time.Time) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	for _, ev := range events {
		s.notifications = append(s.notifications, notify.Record{Event: ev, CreatedAt: now})
	}
	s.mu.Unlock()
}

// Notifications returns the retained notification records.
func (s *Session) Notifications() []notify.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]notify.Record, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// PurgeNotifications drops records created before the cutoff and returns
// how many were removed.
func (s *Session) PurgeNotifications(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.notifications[:0]
	removed := 0
	for _, r := range s.notifications {
		if r.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.notifications = kept
	return removed
}
