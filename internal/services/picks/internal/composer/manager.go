package composer

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultWeeklyLimit = 4
	DefaultIdleTTL     = 30 * time.Minute
)

// Manager hands out one session per user and evicts sessions nobody has
// touched for the idle TTL.
type Manager struct {
	env     *env
	idleTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

type ManagerOption func(*Manager)

func WithIdleTTL(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.idleTTL = d
		}
	}
}

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.env.now = now
	}
}

func NewManager(d Deps, cfg Config, opts ...ManagerOption) *Manager {
	if cfg.WeeklyLimit <= 0 {
		cfg.WeeklyLimit = DefaultWeeklyLimit
	}
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = 20 * time.Second
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = time.Minute
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	m := &Manager{
		env:      &env{Deps: d, cfg: cfg, now: time.Now},
		idleTTL:  DefaultIdleTTL,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session returns the user's session, creating it with the user's weekly
// pick count on first use.
func (m *Manager) Session(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	m.mu.Unlock()

	if !ok {
		created, err := newSession(ctx, m.env, userID)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		if s, ok = m.sessions[userID]; !ok {
			s = created
			m.sessions[userID] = s
		}
		m.mu.Unlock()
	}

	if err := s.rollover(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Drop resets and forgets the user's session. Called on sign-out.
func (m *Manager) Drop(ctx context.Context, userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if ok {
		s.Reset(ctx)
	}
}

// Recount reloads the weekly pick count of the user's live session, if
// there is one. Called after the user deletes a pick.
func (m *Manager) Recount(ctx context.Context, userID string) error {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return s.recount(ctx)
}

// Evict drops sessions idle for longer than the TTL and reports how many
// went.
func (m *Manager) Evict(ctx context.Context) int {
	cutoff := m.env.now().Add(-m.idleTTL)

	var idle []*Session
	m.mu.Lock()
	for uid, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, uid)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.Reset(ctx)
	}
	return len(idle)
}

// Run evicts idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	t := time.NewTicker(max(m.idleTTL/2, time.Second))
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Evict(ctx); n > 0 {
				m.env.Logger.Info("evicted idle composer sessions", "count", n)
			}
		}
	}
}

// Wait blocks until background work in every live session has finished.
func (m *Manager) Wait() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Wait()
	}
}
