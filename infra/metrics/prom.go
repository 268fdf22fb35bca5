package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/greenroute/dispatch/core/metrics"
)

// PromSink records dispatch and sync activity in Prometheus metrics.
type PromSink struct {
	assignments   *prometheus.CounterVec
	candidates    prometheus.Gauge
	transitions   *prometheus.CounterVec
	syncCycles    *prometheus.CounterVec
	syncDuration  prometheus.Histogram
	notifications *prometheus.CounterVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The Prometheus server is started separately on cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_assignments_total",
		Help: "Total number of driver assignments",
	}, []string{"request_type"})
	candidates := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_eligible_drivers",
		Help: "Eligible driver count observed at the last assignment",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_transitions_total",
		Help: "Mission lifecycle transitions by resulting status",
	}, []string{"status"})
	syncCycles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_cycles_total",
		Help: "Total number of sync reconciliation ticks by outcome",
	}, []string{"result"})
	syncDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sync_cycle_duration_seconds",
		Help:    "Duration of one full-state refresh",
		Buckets: prometheus.DefBuckets,
	})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_emitted_total",
		Help: "Notification events emitted per category",
	}, []string{"category"})

	s := &PromSink{
		assignments:   assignments,
		candidates:    candidates,
		transitions:   transitions,
		syncCycles:    syncCycles,
		syncDuration:  syncDuration,
		notifications: notifications,
	}
	for _, c := range []prometheus.Collector{assignments, candidates, transitions, syncCycles, syncDuration, notifications} {
		if err := register(reg, c, s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector, s *PromSink) error {
	if err := reg.Register(c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return err
		}
		switch existing := are.ExistingCollector.(type) {
		case *prometheus.CounterVec:
			switch c {
			case s.assignments:
				s.assignments = existing
			case s.transitions:
				s.transitions = existing
			case s.syncCycles:
				s.syncCycles = existing
			case s.notifications:
				s.notifications = existing
			}
		case prometheus.Histogram:
			s.syncDuration = existing
		case prometheus.Gauge:
			s.candidates = existing
		}
	}
	return nil
}

// RecordAssignment increments the assignment counter and records the size of
// the eligible pool it was chosen from.
func (s *PromSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	s.assignments.WithLabelValues(string(ev.RequestType)).Inc()
	s.candidates.Set(float64(ev.Candidates))
	return nil
}

// RecordTransition counts a mission lifecycle transition.
func (s *PromSink) RecordTransition(ev coremetrics.TransitionEvent) error {
	s.transitions.WithLabelValues(string(ev.Status)).Inc()
	return nil
}

// RecordSyncCycle counts the tick outcome and observes its duration.
func (s *PromSink) RecordSyncCycle(ev coremetrics.SyncCycleEvent) error {
	s.syncCycles.WithLabelValues(ev.Result).Inc()
	s.syncDuration.Observe(ev.Duration.Seconds())
	return nil
}

// RecordNotification counts an emitted notification event.
func (s *PromSink) RecordNotification(category string) error {
	s.notifications.WithLabelValues(category).Inc()
	return nil
}
