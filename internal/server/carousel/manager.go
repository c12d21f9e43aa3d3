// Package carousel keeps one rotation controller per connected storefront
// page and fans its selections out to event subscribers.
package carousel

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/izzyreal/stitch/internal/catalog"
	"github.com/izzyreal/stitch/internal/rotation"
)

var (
	ErrNotFound     = errors.New("carousel session not found")
	ErrInvalidIndex = errors.New("carousel index out of range")
)

const subscriberBuffer = 16

type Options struct {
	Cadence        time.Duration
	CooldownFactor int
	IdleTimeout    time.Duration
	Clock          rotation.Clock
	Logger         *slog.Logger
}

// Event is one selection published by a session's controller.
type Event struct {
	SessionID string
	Seq       int64
	Index     int
	Count     int
	Game      catalog.Game
}

type Manager struct {
	opts Options

	mu       sync.Mutex
	items    []catalog.Game
	sessions map[string]*Session
}

func NewManager(items []catalog.Game, opts Options) *Manager {
	if opts.Cadence <= 0 {
		opts.Cadence = rotation.DefaultCadence
	}
	if opts.CooldownFactor <= 0 {
		opts.CooldownFactor = rotation.DefaultCooldownFactor
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 2 * time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = rotation.RealClock
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		opts:     opts,
		items:    append([]catalog.Game(nil), items...),
		sessions: map[string]*Session{},
	}
}

func (m *Manager) Options() Options {
	return m.opts
}

// Create starts a new session over the current items.
func (m *Manager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Session{
		id:        uuid.NewString(),
		subs:      map[int]chan Event{},
		lastSeen:  m.opts.Clock.Now(),
		clock:     m.opts.Clock,
		itemCount: len(m.items),
	}
	s.ctrl = rotation.New(m.items, s.publish,
		rotation.WithClock(m.opts.Clock),
		rotation.WithCadence(m.opts.Cadence),
		rotation.WithCooldownFactor(m.opts.CooldownFactor),
		rotation.WithLogger(m.opts.Logger.With("session_id", s.id)),
	)
	m.sessions[s.id] = s
	m.opts.Logger.Debug("carousel session created", "session_id", s.id, "items", len(m.items))
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close tears the session down and closes its subscriber channels.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.close()
	m.opts.Logger.Debug("carousel session closed", "session_id", id)
	return nil
}

// Reap closes sessions with no subscribers that were idle longer than the
// idle timeout. It returns the number of sessions closed.
func (m *Manager) Reap(now time.Time) int {
	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.idleSince(now) > m.opts.IdleTimeout {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.close()
	}
	if len(stale) > 0 {
		m.opts.Logger.Info("reaped idle carousel sessions", "count", len(stale))
	}
	return len(stale)
}

// SetItems swaps the item list for new sessions and re-validates every live
// one.
func (m *Manager) SetItems(items []catalog.Game) {
	m.mu.Lock()
	m.items = append([]catalog.Game(nil), items...)
	live := m.liveLocked()
	m.mu.Unlock()

	for _, s := range live {
		s.setItems(items)
	}
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	live := m.liveLocked()
	m.sessions = map[string]*Session{}
	m.mu.Unlock()

	for _, s := range live {
		s.close()
	}
}

func (m *Manager) liveLocked() []*Session {
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
