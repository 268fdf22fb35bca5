package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/greenroute/dispatch/core/model"
)

// Memory is an in-memory Store used by tests and the one-shot CLI commands.
type Memory struct {
	mu          sync.RWMutex
	users       map[string]model.User
	requests    map[string]model.Request
	ads         map[string]model.Ad
	connections map[string]model.Connection
	messages    map[string]model.Message

	// FailPull, when set, makes every read return the configured error.
	FailPull error
	// FailMutation, when set, makes every mutation return it.
	FailMutation error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:       make(map[string]model.User),
		requests:    make(map[string]model.Request),
		ads:         make(map[string]model.Ad),
		connections: make(map[string]model.Connection),
		messages:    make(map[string]model.Message),
	}
}

// Seed loads a set of collections, replacing existing entries by ID.
func (m *Memory) Seed(c Collections) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range c.Users {
		m.users[u.ID] = u
	}
	for _, r := range c.Requests {
		m.requests[r.ID] = r
	}
	for _, a := range c.Ads {
		m.ads[a.ID] = a
	}
	for _, cn := range c.Connections {
		m.connections[cn.ID] = cn
	}
	for _, msg := range c.Messages {
		m.messages[msg.ID] = msg
	}
}

func (m *Memory) Users(context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailPull != nil {
		return nil, m.FailPull
	}
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *Memory) Requests(context.Context) ([]model.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailPull != nil {
		return nil, m.FailPull
	}
	out := make([]model.Request, 0, len(m.requests))
	for _, r := range m.requests {
		out = append(out, r)
	}
	return out, nil
}

func (m *Memory) Ads(context.Context) ([]model.Ad, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailPull != nil {
		return nil, m.FailPull
	}
	out := make([]model.Ad, 0, len(m.ads))
	for _, a := range m.ads {
		out = append(out, a)
	}
	return out, nil
}

func (m *Memory) Connections(context.Context) ([]model.Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailPull != nil {
		return nil, m.FailPull
	}
	out := make([]model.Connection, 0, len(m.connections))
	for _, c := range m.connections {
		out = append(out, c)
	}
	return out, nil
}

func (m *Memory) Messages(context.Context) ([]model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailPull != nil {
		return nil, m.FailPull
	}
	out := make([]model.Message, 0, len(m.messages))
	for _, msg := range m.messages {
		out = append(out, msg)
	}
	return out, nil
}

func (m *Memory) PullAll(ctx context.Context) (Collections, error) {
	var c Collections
	var err error
	if c.Users, err = m.Users(ctx); err != nil {
		return Collections{}, err
	}
	if c.Requests, err = m.Requests(ctx); err != nil {
		return Collections{}, err
	}
	if c.Ads, err = m.Ads(ctx); err != nil {
		return Collections{}, err
	}
	if c.Connections, err = m.Connections(ctx); err != nil {
		return Collections{}, err
	}
	if c.Messages, err = m.Messages(ctx); err != nil {
		return Collections{}, err
	}
	return c, nil
}

func (m *Memory) CreateRequest(_ context.Context, r model.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailMutation != nil {
		return m.FailMutation
	}
	if _, ok := m.requests[r.ID]; ok {
		return &MutationError{Message: fmt.Sprintf("request %s already exists", r.ID)}
	}
	m.requests[r.ID] = r
	return nil
}

func (m *Memory) UpdateRequest(_ context.Context, r model.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailMutation != nil {
		return m.FailMutation
	}
	if _, ok := m.requests[r.ID]; !ok {
		return &MutationError{Message: fmt.Sprintf("request %s not found", r.ID)}
	}
	m.requests[r.ID] = r
	return nil
}

func (m *Memory) DeleteRequest(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailMutation != nil {
		return m.FailMutation
	}
	if _, ok := m.requests[id]; !ok {
		return &MutationError{Message: fmt.Sprintf("request %s not found", id)}
	}
	delete(m.requests, id)
	return nil
}

func (m *Memory) CreateConnection(_ context.Context, c model.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailMutation != nil {
		return m.FailMutation
	}
	m.connections[c.ID] = c
	return nil
}

func (m *Memory) UpdateConnection(_ context.Context, c model.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailMutation != nil {
		return m.FailMutation
	}
	if _, ok := m.connections[c.ID]; !ok {
		return &MutationError{Message: fmt.Sprintf("connection %s not found", c.ID)}
	}
	m.connections[c.ID] = c
	return nil
}

func (m *Memory) DeleteConnection(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailMutation != nil {
		return m.FailMutation
	}
	delete(m.connections, id)
	return nil
}

func (m *Memory) UpdateUser(_ context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailMutation != nil {
		return m.FailMutation
	}
	if _, ok := m.users[u.ID]; !ok {
		return &MutationError{Message: fmt.Sprintf("user %s not found", u.ID)}
	}
	m.users[u.ID] = u
	return nil
}

func (m *Memory) CreateConsolidatedDelivery(ctx context.Context, delivery model.Request) error {
	return m.CreateRequest(ctx, delivery)
}

func (m *Memory) RejectConsolidatedDelivery(_ context.Context, id, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailMutation != nil {
		return m.FailMutation
	}
	r, ok := m.requests[id]
	if !ok {
		return &MutationError{Message: fmt.Sprintf("delivery %s not found", id)}
	}
	r.Status = model.StatusRejected
	r.RejectionReason = reason
	m.requests[id] = r
	return nil
}

// Request returns a request by ID for test assertions.
func (m *Memory) Request(id string) (model.Request, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	return r, ok
}

// User returns a user by ID for test assertions.
func (m *Memory) User(id string) (model.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok
}
