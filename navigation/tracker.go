package navigation

import (
	"context"
	"sync"
	"time"

	"github.com/greenroute/dispatch/core/logger"
	"github.com/greenroute/dispatch/core/model"
)

// Kind identifies which watcher currently owns the location slot.
type Kind int

const (
	KindNone Kind = iota
	KindLive
	KindSimulated
)

// Config defines navigation parameters.
type Config struct {
	// SpeedKmh is the fixed simulated travel speed.
	SpeedKmh float64 `json:"speed_kmh"`
	// TickMS is the simulation step period in milliseconds.
	TickMS int `json:"tick_ms"`
}

// SetDefaults applies the reference speed and tick.
func (c *Config) SetDefaults() {
	if c.SpeedKmh == 0 {
		c.SpeedKmh = 40
	}
	if c.TickMS == 0 {
		c.TickMS = 1000
	}
}

// UpdateFunc receives every position fix for the active mission.
type UpdateFunc func(missionID string, pos model.LatLng, routeIndex int, simulated bool)

// FinishFunc runs when the simulated route is fully traversed.
type FinishFunc func(missionID string)

// Tracker is the single owning slot for the driver's location watcher.
// Starting either watcher type structurally stops the other, so a live GPS
// watch and a simulation can never run concurrently for the same driver.
type Tracker struct {
	mu        sync.Mutex
	kind      Kind
	cancel    context.CancelFunc
	missionID string
	gen       uint64

	cfg      Config
	log      logger.Logger
	onUpdate UpdateFunc
	onFinish FinishFunc
}

// NewTracker creates an empty Tracker.
func NewTracker(cfg Config, log logger.Logger, onUpdate UpdateFunc, onFinish FinishFunc) *Tracker {
	cfg.SetDefaults()
	if onUpdate == nil {
		onUpdate = func(string, model.LatLng, int, bool) {}
	}
	if onFinish == nil {
		onFinish = func(string) {}
	}
	return &Tracker{cfg: cfg, log: log, onUpdate: onUpdate, onFinish: onFinish}
}

// Kind returns the watcher currently holding the slot.
func (t *Tracker) Kind() Kind {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.kind
}

// MissionID returns the mission the active watcher tracks, if any.
func (t *Tracker) MissionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.missionID
}

// StartSimulated runs the route simulator for the mission. It is the
// fallback when live GPS is unavailable or denied.
func (t *Tracker) StartSimulated(ctx context.Context, req model.Request) error {
	sim, err := NewSimulator(req.RoutePath, t.cfg.SpeedKmh)
	if err != nil {
		return err
	}
	runCtx, gen := t.claim(ctx, KindSimulated, req.ID)
	go t.runSimulated(runCtx, sim, req.ID, gen)
	return nil
}

// StartLive consumes a device fix stream for the mission, replacing any
// running simulation.
func (t *Tracker) StartLive(ctx context.Context, missionID string, fixes <-chan model.LatLng) {
	runCtx, gen := t.claim(ctx, KindLive, missionID)
	go t.runLive(runCtx, missionID, fixes, gen)
}

// Stop clears the slot and cancels whichever watcher holds it.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.kind = KindNone
	t.cancel = nil
	t.missionID = ""
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// StartMission implements mission.Navigator using the simulated watcher.
func (t *Tracker) StartMission(req model.Request) {
	if err := t.StartSimulated(context.Background(), req); err != nil {
		t.log.Warnf("simulation for mission %s not started: %v", req.ID, err)
	}
}

// StopMission implements mission.Navigator.
func (t *Tracker) StopMission(missionID string) {
	if t.MissionID() == missionID {
		t.Stop()
	}
}

// claim takes ownership of the slot, cancelling the previous watcher. The
// returned generation identifies this claim: a displaced watcher restarted
// for the same mission and kind must not be able to release its successor.
func (t *Tracker) claim(ctx context.Context, kind Kind, missionID string) (context.Context, uint64) {
	t.mu.Lock()
	prev := t.cancel
	runCtx, cancel := context.WithCancel(ctx)
	t.gen++
	gen := t.gen
	t.kind = kind
	t.cancel = cancel
	t.missionID = missionID
	t.mu.Unlock()
	if prev != nil {
		prev()
	}
	return runCtx, gen
}

// release clears the slot only if the claim generation still owns it.
func (t *Tracker) release(gen uint64) {
	t.mu.Lock()
	if t.gen == gen {
		t.kind = KindNone
		t.cancel = nil
		t.missionID = ""
	}
	t.mu.Unlock()
}

func (t *Tracker) runSimulated(ctx context.Context, sim *Simulator, missionID string, gen uint64) {
	defer t.release(gen)
	ticker := time.NewTicker(time.Duration(t.cfg.TickMS) * time.Millisecond)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			pos, done := sim.Advance(now.Sub(last))
			last = now
			t.onUpdate(missionID, pos, sim.Index(), true)
			if done {
				t.onFinish(missionID)
				return
			}
		}
	}
}

func (t *Tracker) runLive(ctx context.Context, missionID string, fixes <-chan model.LatLng, gen uint64) {
	defer t.release(gen)
	for {
		select {
		case <-ctx.Done():
			return
		case fix, ok := <-fixes:
			if !ok {
				return
			}
			t.onUpdate(missionID, fix, -1, false)
		}
	}
}
