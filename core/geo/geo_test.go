package geo

import (
	"math"
	"testing"

	"github.com/greenroute/dispatch/core/model"
)

func TestDistance_SymmetricAndZero(t *testing.T) {
	a := model.LatLng{Lat: 35.70, Lng: 51.40}
	b := model.LatLng{Lat: 35.68, Lng: 51.39}

	if d := Distance(a, a); d != 0 {
		t.Fatalf("distance to self should be zero, got %v", d)
	}
	if ab, ba := Distance(a, b), Distance(b, a); math.Abs(ab-ba) > 1e-12 {
		t.Fatalf("distance not symmetric: %v vs %v", ab, ba)
	}
}

func TestDistance_KnownValue(t *testing.T) {
	// Paris to London is roughly 344 km.
	paris := model.LatLng{Lat: 48.8566, Lng: 2.3522}
	london := model.LatLng{Lat: 51.5074, Lng: -0.1278}
	d := Distance(paris, london)
	if d < 330 || d > 350 {
		t.Fatalf("unexpected Paris-London distance: %v km", d)
	}
}

func TestClosest_Empty(t *testing.T) {
	_, ok := Closest(nil, func(p model.LatLng) model.LatLng { return p }, model.LatLng{})
	if ok {
		t.Fatalf("expected no candidate for empty input")
	}
}

func TestClosest_SingleCandidate(t *testing.T) {
	far := model.LatLng{Lat: -80, Lng: 100}
	got, ok := Closest([]model.LatLng{far}, func(p model.LatLng) model.LatLng { return p }, model.LatLng{})
	if !ok || got != far {
		t.Fatalf("single candidate should win regardless of distance, got %+v ok=%v", got, ok)
	}
}

func TestClosest_PicksNearerDriver(t *testing.T) {
	type driver struct {
		id  int
		pos model.LatLng
	}
	drivers := []driver{
		{id: 1, pos: model.LatLng{Lat: 35.70, Lng: 51.40}},
		{id: 2, pos: model.LatLng{Lat: 35.68, Lng: 51.39}},
	}
	target := model.LatLng{Lat: 35.69, Lng: 51.389}

	got, ok := Closest(drivers, func(d driver) model.LatLng { return d.pos }, target)
	if !ok || got.id != 2 {
		t.Fatalf("expected driver 2, got %+v ok=%v", got, ok)
	}
}

func TestClosest_FirstWinsTies(t *testing.T) {
	same := model.LatLng{Lat: 10, Lng: 10}
	type candidate struct {
		name string
		pos  model.LatLng
	}
	cands := []candidate{{"first", same}, {"second", same}}
	got, ok := Closest(cands, func(c candidate) model.LatLng { return c.pos }, model.LatLng{Lat: 11, Lng: 11})
	if !ok || got.name != "first" {
		t.Fatalf("tie should go to the first candidate, got %+v", got)
	}
}

func TestCumulativeKm(t *testing.T) {
	path := []model.LatLng{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 0, Lng: 2},
	}
	cum := CumulativeKm(path)
	if len(cum) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(cum))
	}
	if cum[0] != 0 {
		t.Fatalf("first entry must be zero, got %v", cum[0])
	}
	if math.Abs(cum[2]-PathLength(path)) > 1e-9 {
		t.Fatalf("last entry %v should equal path length %v", cum[2], PathLength(path))
	}
	if !(cum[0] < cum[1] && cum[1] < cum[2]) {
		t.Fatalf("cumulative distances must increase: %v", cum)
	}
}

func TestCell(t *testing.T) {
	p := model.LatLng{Lat: 35.69, Lng: 51.389}
	if c := Cell(p, 7); len(c) != 7 {
		t.Fatalf("expected 7-character cell, got %q", c)
	}
}
