// Package routing talks to the external directions API. Routing failures
// are non-fatal: the mission engine substitutes a straight-line path.
package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/greenroute/dispatch/core/logger"
	"github.com/greenroute/dispatch/core/mission"
	"github.com/greenroute/dispatch/core/model"
)

// Config defines the directions API endpoint.
type Config struct {
	URL            string `json:"url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults applies a sane request timeout.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 10
	}
}

// Client implements mission.RoutePlanner against the directions API.
type Client struct {
	url  string
	http *http.Client
	log  logger.Logger
}

// NewClient creates a Client.
func NewClient(cfg Config, log logger.Logger) *Client {
	cfg.SetDefaults()
	return &Client{
		url:  cfg.URL,
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:  log,
	}
}

type directionsRequest struct {
	From model.LatLng `json:"from"`
	To   model.LatLng `json:"to"`
}

type directionsResponse struct {
	Path            []model.LatLng `json:"path"`
	DistanceKm      float64        `json:"distanceKm"`
	DurationSeconds float64        `json:"durationSeconds"`
}

// Route fetches a polyline and summary between two points.
func (c *Client) Route(ctx context.Context, from, to model.LatLng) (mission.Route, error) {
	body, err := json.Marshal(directionsRequest{From: from, To: to})
	if err != nil {
		return mission.Route{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return mission.Route{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return mission.Route{}, fmt.Errorf("directions: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return mission.Route{}, fmt.Errorf("directions: unexpected status %d", resp.StatusCode)
	}
	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return mission.Route{}, fmt.Errorf("directions: decode: %w", err)
	}
	if len(dr.Path) < 2 {
		return mission.Route{}, fmt.Errorf("directions: empty route")
	}
	return mission.Route{
		Path:       dr.Path,
		DistanceKm: dr.DistanceKm,
		Duration:   time.Duration(dr.DurationSeconds * float64(time.Second)),
	}, nil
}

// RouteGuard marks a route fetch as in flight so the sync cycle will not
// overwrite state mid-navigation.
type RouteGuard interface {
	BeginRouting()
	EndRouting()
}

// GuardedPlanner wraps a planner with the routing-in-flight guard.
type GuardedPlanner struct {
	Planner mission.RoutePlanner
	Guard   RouteGuard
}

func (g GuardedPlanner) Route(ctx context.Context, from, to model.LatLng) (mission.Route, error) {
	g.Guard.BeginRouting()
	defer g.Guard.EndRouting()
	return g.Planner.Route(ctx, from, to)
}
