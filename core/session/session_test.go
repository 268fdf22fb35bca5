package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/greenroute/dispatch/core/model"
	"github.com/greenroute/dispatch/core/notify"
	"github.com/greenroute/dispatch/core/store"
)

func TestLoginLogoutLifecycle(t *testing.T) {
	s := New()
	assert.False(t, s.Authenticated())

	s.Login(model.User{ID: "sc", Role: model.RoleSorting}, "token")
	assert.True(t, s.Authenticated())
	u, ok := s.User()
	assert.True(t, ok)
	assert.Equal(t, "sc", u.ID)
	assert.Equal(t, "token", s.Token())

	s.Logout()
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Token())
	_, ok = s.User()
	assert.False(t, ok)
}

func TestLogout_RunsTeardownHooksAndClearsState(t *testing.T) {
	s := New()
	hooked := false
	s.OnLogout(func() { hooked = true })

	s.Login(model.User{ID: "sc"}, "token")
	s.SetCollections(store.Collections{Users: []model.User{{ID: "sc"}}})
	s.AddNotifications([]notify.Event{{UserID: "sc"}}, time.Now())

	s.Logout()
	assert.True(t, hooked)
	assert.Empty(t, s.Collections().Users)
	assert.Empty(t, s.Notifications())
}

func TestEpoch_InvalidatesStaleResponses(t *testing.T) {
	s := New()
	s.Login(model.User{ID: "sc"}, "token")
	epoch := s.Epoch()
	assert.True(t, s.StillCurrent(epoch))

	s.Logout()
	assert.False(t, s.StillCurrent(epoch), "responses from before logout must be dropped")

	s.Login(model.User{ID: "sc"}, "token2")
	assert.False(t, s.StillCurrent(epoch), "a new login is a new generation")
	assert.True(t, s.StillCurrent(s.Epoch()))
}

func TestRoutingGuard_Counts(t *testing.T) {
	s := New()
	assert.False(t, s.RoutingInFlight())

	s.BeginRouting()
	s.BeginRouting()
	assert.True(t, s.RoutingInFlight())

	s.EndRouting()
	assert.True(t, s.RoutingInFlight(), "guard holds until every fetch returns")
	s.EndRouting()
	assert.False(t, s.RoutingInFlight())

	s.EndRouting()
	assert.False(t, s.RoutingInFlight(), "extra releases never go negative")
}

func TestFormGuard(t *testing.T) {
	s := New()
	s.SetFormActive(true)
	assert.True(t, s.FormActive())
	s.SetFormActive(false)
	assert.False(t, s.FormActive())
}

func TestPurgeNotifications(t *testing.T) {
	s := New()
	now := time.Now()
	s.AddNotifications([]notify.Event{{UserID: "a"}}, now.Add(-48*time.Hour))
	s.AddNotifications([]notify.Event{{UserID: "b"}, {UserID: "c"}}, now)

	removed := s.PurgeNotifications(now.Add(-24 * time.Hour))
	assert.Equal(t, 1, removed)
	assert.Len(t, s.Notifications(), 2)

	removed = s.PurgeNotifications(now.Add(-24 * time.Hour))
	assert.Equal(t, 0, removed)
}
