package navigation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenroute/dispatch/core/geo"
	"github.com/greenroute/dispatch/core/model"
)

var testPath = []model.LatLng{
	{Lat: 35.70, Lng: 51.40},
	{Lat: 35.695, Lng: 51.395},
	{Lat: 35.69, Lng: 51.389},
}

func TestNewSimulator_Validation(t *testing.T) {
	_, err := NewSimulator(testPath[:1], 40)
	assert.ErrorIs(t, err, ErrShortPath)

	_, err = NewSimulator(testPath, 0)
	assert.ErrorIs(t, err, ErrInvalidSpeed)

	_, err = NewSimulator(testPath, -10)
	assert.ErrorIs(t, err, ErrInvalidSpeed)
}

func TestSimulator_StartsAtFirstPoint(t *testing.T) {
	sim, err := NewSimulator(testPath, 40)
	require.NoError(t, err)
	assert.Equal(t, testPath[0], sim.Position())
	assert.Equal(t, 0, sim.Index())
	assert.False(t, sim.Done())
}

func TestSimulator_ArrivesExactlyAfterLengthOverSpeed(t *testing.T) {
	const speed = 40.0
	sim, err := NewSimulator(testPath, speed)
	require.NoError(t, err)

	total := geo.PathLength(testPath)
	travelTime := time.Duration(total / speed * float64(time.Hour))

	pos, done := sim.Advance(travelTime)
	assert.True(t, done)
	assert.Equal(t, testPath[len(testPath)-1], pos, "arrival must land exactly on the final coordinate")
	assert.True(t, sim.Done())
}

func TestSimulator_NeverOvershoots(t *testing.T) {
	sim, err := NewSimulator(testPath, 40)
	require.NoError(t, err)

	pos, done := sim.Advance(10 * time.Hour)
	assert.True(t, done)
	assert.Equal(t, testPath[len(testPath)-1], pos)

	// Further advances stay pinned at the endpoint.
	pos, done = sim.Advance(time.Hour)
	assert.True(t, done)
	assert.Equal(t, testPath[len(testPath)-1], pos)
}

func TestSimulator_InterpolatesWithinSegment(t *testing.T) {
	// Equator path keeps the arithmetic simple: 1 degree of longitude is a
	// constant-length segment there.
	path := []model.LatLng{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}}
	segment := geo.PathLength(path)
	speed := segment * 2 // traverses the whole segment in 30 minutes

	sim, err := NewSimulator(path, speed)
	require.NoError(t, err)

	pos, done := sim.Advance(15 * time.Minute)
	assert.False(t, done)
	assert.Equal(t, 0.0, pos.Lat)
	assert.InDelta(t, 0.5, pos.Lng, 1e-6, "halfway in time means halfway along the segment")
	assert.Equal(t, 0, sim.Index())
}

func TestSimulator_ConsumesWholeSegments(t *testing.T) {
	path := []model.LatLng{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 0, Lng: 2},
	}
	total := geo.PathLength(path)
	speed := total // whole path in one hour

	sim, err := NewSimulator(path, speed)
	require.NoError(t, err)

	pos, done := sim.Advance(45 * time.Minute)
	assert.False(t, done)
	assert.Equal(t, 1, sim.Index(), "first segment fully consumed")
	assert.InDelta(t, 1.5, pos.Lng, 1e-6)
}

func TestSimulator_ProgressIsMonotonic(t *testing.T) {
	sim, err := NewSimulator(testPath, 40)
	require.NoError(t, err)

	total := geo.PathLength(testPath)
	prev := 0.0
	prevIndex := 0
	for !sim.Done() {
		sim.Advance(10 * time.Second)
		assert.GreaterOrEqual(t, sim.traveled, prev)
		assert.LessOrEqual(t, sim.traveled, total)
		assert.GreaterOrEqual(t, sim.Index(), prevIndex)
		prev = sim.traveled
		prevIndex = sim.Index()
	}
	assert.Equal(t, total, sim.traveled)
}
