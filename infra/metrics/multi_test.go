package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/greenroute/dispatch/core/metrics"
)

type fullSink struct {
	assignments   int
	cycles        int
	notifications int
	locations     int
	transitions   int
}

func (s *fullSink) RecordAssignment(coremetrics.AssignmentEvent) error {
	s.assignments++
	return nil
}

func (s *fullSink) RecordSyncCycle(coremetrics.SyncCycleEvent) error {
	s.cycles++
	return nil
}

func (s *fullSink) RecordNotification(string) error {
	s.notifications++
	return nil
}

func (s *fullSink) RecordDriverLocation(coremetrics.LocationEvent) error {
	s.locations++
	return nil
}

func (s *fullSink) RecordTransition(coremetrics.TransitionEvent) error {
	s.transitions++
	return nil
}

type assignmentOnlySink struct{ assignments int }

func (s *assignmentOnlySink) RecordAssignment(coremetrics.AssignmentEvent) error {
	s.assignments++
	return nil
}

func TestMultiSink_ForwardsToAll(t *testing.T) {
	a, b := &fullSink{}, &fullSink{}
	m := NewMultiSink(a, b)

	require.NoError(t, m.RecordAssignment(coremetrics.AssignmentEvent{}))
	require.NoError(t, m.RecordSyncCycle(coremetrics.SyncCycleEvent{}))
	require.NoError(t, m.RecordNotification("messages"))
	require.NoError(t, m.RecordDriverLocation(coremetrics.LocationEvent{}))
	require.NoError(t, m.RecordTransition(coremetrics.TransitionEvent{}))

	for _, s := range []*fullSink{a, b} {
		assert.Equal(t, 1, s.assignments)
		assert.Equal(t, 1, s.cycles)
		assert.Equal(t, 1, s.notifications)
		assert.Equal(t, 1, s.locations)
		assert.Equal(t, 1, s.transitions)
	}
}

func TestMultiSink_SkipsSinksWithoutCapability(t *testing.T) {
	base := &assignmentOnlySink{}
	full := &fullSink{}
	m := NewMultiSink(base, full)

	require.NoError(t, m.RecordSyncCycle(coremetrics.SyncCycleEvent{}))
	require.NoError(t, m.RecordNotification("messages"))

	assert.Equal(t, 0, base.assignments, "base sink only sees assignments")
	assert.Equal(t, 1, full.cycles)
	assert.Equal(t, 1, full.notifications)
}
