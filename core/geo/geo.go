// Package geo provides the pure distance and proximity primitives used by
// dispatch and navigation.
package geo

import (
	"math"

	"github.com/mmcloughlin/geohash"
	"gonum.org/v1/gonum/floats"

	"github.com/greenroute/dispatch/core/model"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance between two points in
// kilometers using the haversine formula. It is symmetric and zero for
// identical points.
func Distance(a, b model.LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// Closest returns the candidate nearest to target. Comparison is strict
// less-than, so the first of equidistant candidates wins. The second return
// value is false for an empty candidate set.
func Closest[T any](candidates []T, position func(T) model.LatLng, target model.LatLng) (T, bool) {
	var best T
	if len(candidates) == 0 {
		return best, false
	}
	best = candidates[0]
	bestDist := Distance(position(best), target)
	for _, c := range candidates[1:] {
		if d := Distance(position(c), target); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best, true
}

// PathLength returns the total length of a polyline in kilometers.
func PathLength(path []model.LatLng) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += Distance(path[i-1], path[i])
	}
	return total
}

// CumulativeKm returns the running distance from the start of the polyline
// to each vertex. The first entry is always zero.
func CumulativeKm(path []model.LatLng) []float64 {
	if len(path) == 0 {
		return nil
	}
	segs := make([]float64, len(path))
	for i := 1; i < len(path); i++ {
		segs[i] = Distance(path[i-1], path[i])
	}
	cum := make([]float64, len(path))
	floats.CumSum(cum, segs)
	return cum
}

// Cell encodes a position into a geohash cell of the given precision, used
// to tag location telemetry and notification topics.
func Cell(p model.LatLng, precision uint) string {
	return geohash.EncodeWithPrecision(p.Lat, p.Lng, precision)
}
