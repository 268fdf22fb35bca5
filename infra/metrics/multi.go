package metrics

import coremetrics "github.com/greenroute/dispatch/core/metrics"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAssignment forwards to all sinks, returning the first error.
func (m *MultiSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordAssignment(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordTransition forwards mission transitions to sinks that record them.
func (m *MultiSink) RecordTransition(ev coremetrics.TransitionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.TransitionRecorder); ok {
			if err := rec.RecordTransition(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSyncCycle forwards sync outcomes to sinks that record them.
func (m *MultiSink) RecordSyncCycle(ev coremetrics.SyncCycleEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.SyncRecorder); ok {
			if err := rec.RecordSyncCycle(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordNotification forwards notification counts to sinks that record them.
func (m *MultiSink) RecordNotification(category string) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.NotificationRecorder); ok {
			if err := rec.RecordNotification(category); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDriverLocation forwards location fixes to sinks that record them.
func (m *MultiSink) RecordDriverLocation(ev coremetrics.LocationEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.LocationRecorder); ok {
			if err := rec.RecordDriverLocation(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
