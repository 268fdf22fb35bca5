// Package metrics defines the observability sinks fed by dispatch and sync.
// Implementations live under infra/metrics.
package metrics

import (
	"time"

	"github.com/greenroute/dispatch/core/model"
)

// AssignmentEvent is recorded every time dispatch assigns a driver.
type AssignmentEvent struct {
	RequestID   string
	RequestType model.RequestType
	DriverID    string
	Candidates  int
	DistanceKm  float64
	Time        time.Time
}

// Sink records dispatch assignments for observability purposes.
type Sink interface {
	RecordAssignment(ev AssignmentEvent) error
}

// SyncCycleEvent captures the outcome of one reconciliation tick.
type SyncCycleEvent struct {
	Result   string // "ok", "skipped" or "failed"
	Duration time.Duration
	Time     time.Time
}

// SyncRecorder records sync cycle outcomes.
type SyncRecorder interface {
	RecordSyncCycle(ev SyncCycleEvent) error
}

// NotificationRecorder counts emitted notification events by category.
type NotificationRecorder interface {
	RecordNotification(category string) error
}

// TransitionEvent is one mission lifecycle transition observed on the bus.
type TransitionEvent struct {
	RequestID string
	Status    model.RequestStatus
	Time      time.Time
}

// TransitionRecorder records mission lifecycle transitions.
type TransitionRecorder interface {
	RecordTransition(ev TransitionEvent) error
}

// LocationEvent is a driver position fix during an active mission.
type LocationEvent struct {
	DriverID  string
	MissionID string
	Position  model.LatLng
	Cell      string
	Simulated bool
	Time      time.Time
}

// LocationRecorder records driver location telemetry.
type LocationRecorder interface {
	RecordDriverLocation(ev LocationEvent) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) RecordAssignment(AssignmentEvent) error   { return nil }
func (NopSink) RecordSyncCycle(SyncCycleEvent) error     { return nil }
func (NopSink) RecordNotification(string) error          { return nil }
func (NopSink) RecordDriverLocation(LocationEvent) error { return nil }
func (NopSink) RecordTransition(TransitionEvent) error   { return nil }

// Config defines settings for metrics sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}
