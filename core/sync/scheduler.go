// Package sync keeps every client view of shared state consistent by
// periodic full refresh and local change detection. There is no push
// transport for state changes; notifications derived here are best effort.
package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/greenroute/dispatch/core/logger"
	"github.com/greenroute/dispatch/core/metrics"
	"github.com/greenroute/dispatch/core/notify"
	"github.com/greenroute/dispatch/core/session"
	"github.com/greenroute/dispatch/core/store"
	"github.com/greenroute/dispatch/internal/eventbus"
)

// TickResult reports what a reconciliation tick did.
type TickResult string

const (
	TickApplied TickResult = "ok"
	TickSkipped TickResult = "skipped"
	TickFailed  TickResult = "failed"
)

// Scheduler runs the fixed-interval reconciliation loop and the slower
// notification retention sweep.
type Scheduler struct {
	store   store.Store
	session *session.Session
	bus     *eventbus.Bus[notify.Event]
	log     logger.Logger
	sink    metrics.Sink
	cfg     Config
	now     func() time.Time

	mu        stdsync.Mutex
	prev      notify.Counts
	prevEpoch uint64
}

// NewScheduler creates a Scheduler. The bus and sink may be nil.
func NewScheduler(st store.Store, sess *session.Session, bus *eventbus.Bus[notify.Event], log logger.Logger, sink metrics.Sink, cfg Config) (*Scheduler, error) {
	if st == nil || sess == nil || log == nil {
		return nil, fmt.Errorf("sync: nil parameter provided to NewScheduler")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Scheduler{store: st, session: sess, bus: bus, log: log, sink: sink, cfg: cfg, now: time.Now}, nil
}

// Run ticks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(s.cfg.IntervalSeconds) * time.Second)
	purge := time.NewTicker(time.Duration(s.cfg.PurgeIntervalMinutes) * time.Minute)
	defer ticker.Stop()
	defer purge.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil {
				s.log.Errorf("sync cycle failed: %v", err)
			}
		case <-purge.C:
			s.Purge()
		}
	}
}

// Tick performs one reconciliation cycle: guards, full pull, count diff,
// notification emission, snapshot update.
func (s *Scheduler) Tick(ctx context.Context) (TickResult, error) {
	start := s.now()
	if !s.session.Authenticated() || s.session.FormActive() || s.session.RoutingInFlight() {
		s.record(TickSkipped, start)
		return TickSkipped, nil
	}

	epoch := s.session.Epoch()
	cols, err := s.store.PullAll(ctx)
	if err != nil {
		// Any pull failure, including an expired token, forces a logout and
		// aborts the cycle with no partial state applied.
		s.session.Logout()
		s.record(TickFailed, start)
		return TickFailed, fmt.Errorf("refresh: %w", err)
	}
	if !s.session.StillCurrent(epoch) {
		// Stale response: the user logged out while the pull was in flight.
		s.record(TickSkipped, start)
		return TickSkipped, nil
	}

	user, _ := s.session.User()
	cur := CountsFor(user, cols)

	s.mu.Lock()
	if s.prevEpoch != epoch {
		s.prev = notify.Counts{}
		s.prevEpoch = epoch
	}
	prev := s.prev
	s.prev = cur
	s.mu.Unlock()

	events := Diff(prev, cur, user, s.now())
	nr, hasNR := s.sink.(metrics.NotificationRecorder)
	for _, ev := range events {
		if s.bus != nil {
			s.bus.Publish(ev)
		}
		if hasNR {
			if err := nr.RecordNotification(string(ev.Category)); err != nil {
				s.log.Errorf("notification metrics error: %v", err)
			}
		}
	}
	s.session.AddNotifications(events, s.now())
	s.session.SetCollections(cols)
	s.record(TickApplied, start)
	return TickApplied, nil
}

// Purge drops notification records older than the retention window.
func (s *Scheduler) Purge() {
	cutoff := s.now().Add(-time.Duration(s.cfg.RetentionHours) * time.Hour)
	if removed := s.session.PurgeNotifications(cutoff); removed > 0 {
		s.log.Debugf("purged %d expired notifications", removed)
	}
}

func (s *Scheduler) record(result TickResult, start time.Time) {
	sr, ok := s.sink.(metrics.SyncRecorder)
	if !ok {
		return
	}
	if err := sr.RecordSyncCycle(metrics.SyncCycleEvent{
		Result:   string(result),
		Duration: s.now().Sub(start),
		Time:     start,
	}); err != nil {
		s.log.Errorf("sync metrics error: %v", err)
	}
}
