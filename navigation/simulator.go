// Package navigation tracks a driver's live position during a mission,
// either from a real GPS fix stream or from a simulated advance along the
// computed route. The two mechanisms share one owning watcher slot and are
// never active at the same time.
package navigation

import (
	"errors"
	"time"

	"github.com/greenroute/dispatch/core/geo"
	"github.com/greenroute/dispatch/core/model"
)

// snapKm treats a remaining distance below this as arrival, so the final
// advance lands exactly on the last coordinate despite float rounding.
const snapKm = 1e-9

var (
	ErrShortPath    = errors.New("navigation: path needs at least two points")
	ErrInvalidSpeed = errors.New("navigation: speed must be positive")
)

// Simulator walks a polyline at a fixed speed, consuming whole segments and
// interpolating linearly inside the final partial one.
type Simulator struct {
	path     []model.LatLng
	cum      []float64 // km from start to each vertex
	speedKmh float64
	traveled float64
	index    int
	pos      model.LatLng
	done     bool
}

// NewSimulator creates a Simulator positioned at the start of the path.
func NewSimulator(path []model.LatLng, speedKmh float64) (*Simulator, error) {
	if len(path) < 2 {
		return nil, ErrShortPath
	}
	if speedKmh <= 0 {
		return nil, ErrInvalidSpeed
	}
	return &Simulator{
		path:     path,
		cum:      geo.CumulativeKm(path),
		speedKmh: speedKmh,
		pos:      path[0],
	}, nil
}

// Advance moves the position forward by elapsed wall time and returns the
// new position and whether the end of the path was reached. The endpoint is
// never overshot.
func (s *Simulator) Advance(elapsed time.Duration) (model.LatLng, bool) {
	if s.done {
		return s.pos, true
	}
	s.traveled += s.speedKmh * elapsed.Hours()
	total := s.cum[len(s.cum)-1]
	if s.traveled >= total-snapKm {
		s.traveled = total
		s.index = len(s.path) - 1
		s.pos = s.path[s.index]
		s.done = true
		return s.pos, true
	}
	for s.index+1 < len(s.path) && s.cum[s.index+1] <= s.traveled {
		s.index++
	}
	a, b := s.path[s.index], s.path[s.index+1]
	segLen := s.cum[s.index+1] - s.cum[s.index]
	frac := 0.0
	if segLen > 0 {
		frac = (s.traveled - s.cum[s.index]) / segLen
	}
	s.pos = model.LatLng{
		Lat: a.Lat + (b.Lat-a.Lat)*frac,
		Lng: a.Lng + (b.Lng-a.Lng)*frac,
	}
	return s.pos, false
}

// Position returns the current interpolated position.
func (s *Simulator) Position() model.LatLng { return s.pos }

// Index returns the cursor of the last consumed vertex.
func (s *Simulator) Index() int { return s.index }

// Done reports whether the end of the path was reached.
func (s *Simulator) Done() bool { return s.done }
