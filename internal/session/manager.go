package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/terra-clan/academy-console/internal/models"
)

// EventType tells listeners what changed
type EventType string

const (
	EventLogin       EventType = "login"
	EventUserUpdated EventType = "user_updated"
	EventLogout      EventType = "logout"
)

// Event is the "auth changed" signal broadcast to a session's listeners
type Event struct {
	Key     string          `json:"-"`
	Type    EventType       `json:"type"`
	Session *models.Session `json:"session,omitempty"`
}

// Listener receives auth-changed events
type Listener func(Event)

// Manager is the single access point to persisted sessions.
// Every write goes through it so listeners always hear about changes.
type Manager struct {
	store Store

	mu        sync.Mutex
	listeners map[string]map[int]Listener
	nextID    int
}

// NewManager creates a session manager over store
func NewManager(store Store) *Manager {
	return &Manager{
		store:     store,
		listeners: make(map[string]map[int]Listener),
	}
}

// Get returns the session stored under key, or nil when there is none
func (m *Manager) Get(ctx context.Context, key string) (*models.Session, error) {
	if key == "" {
		return nil, nil
	}
	return m.store.Load(ctx, key)
}

// Set stores the session and broadcasts a login event
func (m *Manager) Set(ctx context.Context, key string, s *models.Session) error {
	if s == nil {
		return m.Clear(ctx, key)
	}
	s.UpdatedAt = time.Now().UTC()
	if s.LoginAt.IsZero() {
		s.LoginAt = s.UpdatedAt
	}
	if err := m.store.Save(ctx, key, s); err != nil {
		return err
	}
	m.broadcast(Event{Key: key, Type: EventLogin, Session: s.Clone()})
	return nil
}

// UpdateUser mutates the cached user of a session in place and broadcasts the change.
// The role is re-derived from the updated user record when it carries one.
func (m *Manager) UpdateUser(ctx context.Context, key string, fn func(u *models.User)) (*models.Session, error) {
	s, err := m.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if !s.IsAuthenticated() {
		return nil, fmt.Errorf("no session for key")
	}
	if s.User == nil {
		s.User = &models.User{}
	}
	fn(s.User)
	if r := models.ParseRole(s.User.Role); r != models.RoleUnknown {
		s.Role = r
	}
	s.UpdatedAt = time.Now().UTC()

	if err := m.store.Save(ctx, key, s); err != nil {
		return nil, err
	}
	m.broadcast(Event{Key: key, Type: EventUserUpdated, Session: s.Clone()})
	return s, nil
}

// Clear removes the session and broadcasts a logout event
func (m *Manager) Clear(ctx context.Context, key string) error {
	if err := m.store.Delete(ctx, key); err != nil {
		return err
	}
	m.broadcast(Event{Key: key, Type: EventLogout})
	return nil
}

// OnChange registers a listener for key. The returned function unregisters it.
func (m *Manager) OnChange(key string, l Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	if m.listeners[key] == nil {
		m.listeners[key] = make(map[int]Listener)
	}
	m.listeners[key][id] = l

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners[key], id)
		if len(m.listeners[key]) == 0 {
			delete(m.listeners, key)
		}
	}
}

func (m *Manager) broadcast(ev Event) {
	m.mu.Lock()
	ls := make([]Listener, 0, len(m.listeners[ev.Key]))
	for _, l := range m.listeners[ev.Key] {
		ls = append(ls, l)
	}
	m.mu.Unlock()

	slog.Debug("auth changed", "type", ev.Type, "listeners", len(ls))
	for _, l := range ls {
		l(ev)
	}
}

// Provider returns a view of the manager bound to one session key
func (m *Manager) Provider(key string) *Provider {
	return &Provider{m: m, key: key}
}

// Provider exposes Get/Set/OnChange for a single session
type Provider struct {
	m   *Manager
	key string
}

func (p *Provider) Key() string {
	return p.key
}

func (p *Provider) Get(ctx context.Context) (*models.Session, error) {
	return p.m.Get(ctx, p.key)
}

func (p *Provider) Set(ctx context.Context, s *models.Session) error {
	return p.m.Set(ctx, p.key, s)
}

func (p *Provider) Clear(ctx context.Context) error {
	return p.m.Clear(ctx, p.key)
}

func (p *Provider) OnChange(l Listener) func() {
	return p.m.OnChange(p.key, l)
}
