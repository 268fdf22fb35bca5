// Package platform implements the store port against the platform HTTP API.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/greenroute/dispatch/core/logger"
	"github.com/greenroute/dispatch/core/model"
	"github.com/greenroute/dispatch/core/store"
)

// Config defines the connection parameters for the platform API.
type Config struct {
	BaseURL        string `json:"base_url"`
	Token          string `json:"token"`
	UserID         string `json:"user_id"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults applies a sane request timeout.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 10
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("platform: base_url is required")
	}
	return nil
}

// TokenSource supplies the bearer token attached to every call. The session
// implements it so token rotation is picked up without reconfiguration.
type TokenSource interface {
	Token() string
}

// staticToken adapts a fixed token string.
type staticToken string

func (t staticToken) Token() string { return string(t) }

// envelope is the mutation/read response shape of the platform API.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client implements store.Store over HTTP.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
	log    logger.Logger
}

// NewClient creates a Client. tokens may be nil, in which case the
// configured static token is used.
func NewClient(cfg Config, tokens TokenSource, log logger.Logger) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tokens == nil {
		tokens = staticToken(cfg.Token)
	}
	return &Client{
		base:   cfg.BaseURL,
		http:   &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		tokens: tokens,
		log:    log,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return store.ErrUnauthorized
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	if !env.Success {
		return &store.MutationError{Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s %s: decode data: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Requests(ctx context.Context) ([]model.Request, error) {
	var out []model.Request
	if err := c.do(ctx, http.MethodGet, "/requests", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Ads(ctx context.Context) ([]model.Ad, error) {
	var out []model.Ad
	if err := c.do(ctx, http.MethodGet, "/ads", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Connections(ctx context.Context) ([]model.Connection, error) {
	var out []model.Connection
	if err := c.do(ctx, http.MethodGet, "/connections", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Messages(ctx context.Context) ([]model.Message, error) {
	var out []model.Message
	if err := c.do(ctx, http.MethodGet, "/messages", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PullAll refreshes every collection; the first failing pull aborts the
// whole refresh.
func (c *Client) PullAll(ctx context.Context) (store.Collections, error) {
	var cols store.Collections
	var err error
	if cols.Users, err = c.Users(ctx); err != nil {
		return store.Collections{}, err
	}
	if cols.Requests, err = c.Requests(ctx); err != nil {
		return store.Collections{}, err
	}
	if cols.Ads, err = c.Ads(ctx); err != nil {
		return store.Collections{}, err
	}
	if cols.Connections, err = c.Connections(ctx); err != nil {
		return store.Collections{}, err
	}
	if cols.Messages, err = c.Messages(ctx); err != nil {
		return store.Collections{}, err
	}
	return cols, nil
}

func (c *Client) CreateRequest(ctx context.Context, r model.Request) error {
	return c.do(ctx, http.MethodPost, "/requests", r, nil)
}

func (c *Client) UpdateRequest(ctx context.Context, r model.Request) error {
	return c.do(ctx, http.MethodPut, "/requests/"+r.ID, r, nil)
}

func (c *Client) DeleteRequest(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/requests/"+id, nil, nil)
}

func (c *Client) CreateConnection(ctx context.Context, cn model.Connection) error {
	return c.do(ctx, http.MethodPost, "/connections", cn, nil)
}

func (c *Client) UpdateConnection(ctx context.Context, cn model.Connection) error {
	return c.do(ctx, http.MethodPut, "/connections/"+cn.ID, cn, nil)
}

func (c *Client) DeleteConnection(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/connections/"+id, nil, nil)
}

func (c *Client) UpdateUser(ctx context.Context, u model.User) error {
	return c.do(ctx, http.MethodPut, "/users/"+u.ID, u, nil)
}

func (c *Client) CreateConsolidatedDelivery(ctx context.Context, delivery model.Request) error {
	return c.do(ctx, http.MethodPost, "/deliveries", delivery, nil)
}

func (c *Client) RejectConsolidatedDelivery(ctx context.Context, id, reason string) error {
	body := map[string]string{"reason": reason}
	return c.do(ctx, http.MethodPost, "/deliveries/"+id+"/reject", body, nil)
}
