package dispatch

import (
	"errors"

	"github.com/greenroute/dispatch/core/model"
)

// Matching failures are reported distinctly so the dispatcher can tell a
// capacity problem from a missing-location problem and retry manually.
var (
	// ErrNoConnectedDriver means no approved, non-suspended, mission-free
	// driver is connected to the requesting sorting center.
	ErrNoConnectedDriver = errors.New("dispatch: no connected driver is free")
	// ErrNoCapacityMatch means connected free drivers exist but none has the
	// capacity the request needs.
	ErrNoCapacityMatch = errors.New("dispatch: no driver has enough capacity")
	// ErrNoLocatedDriver means capacity-eligible drivers exist but none has a
	// known last location.
	ErrNoLocatedDriver = errors.New("dispatch: no eligible driver has a known location")
)

// ConnectionDriverFilter implements the sorting-center dispatch rules:
// an approved non-suspended connection to the center, no other active
// mission, a matching capacity mode, and a known location.
type ConnectionDriverFilter struct{}

func (ConnectionDriverFilter) Eligible(req model.Request, centerID string, drivers []model.User,
	connections []model.Connection, requests []model.Request) ([]model.User, error) {

	busy := make(map[string]bool)
	for _, r := range requests {
		if r.ID != req.ID && r.DriverID != "" && r.Status.Active() {
			busy[r.DriverID] = true
		}
	}

	var connected []model.User
	for _, d := range drivers {
		if d.Role != model.RoleDriver || busy[d.ID] {
			continue
		}
		for _, c := range connections {
			if c.Active() && c.Links(d.ID, centerID) {
				connected = append(connected, d)
				break
			}
		}
	}
	if len(connected) == 0 {
		return nil, ErrNoConnectedDriver
	}

	var capable []model.User
	for _, d := range connected {
		if d.CanCarry(req.Type, req.Quantity) {
			capable = append(capable, d)
		}
	}
	if len(capable) == 0 {
		return nil, ErrNoCapacityMatch
	}

	var located []model.User
	for _, d := range capable {
		if d.HasLocation() {
			located = append(located, d)
		}
	}
	if len(located) == 0 {
		return nil, ErrNoLocatedDriver
	}
	return located, nil
}
