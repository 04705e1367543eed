// Package session implements the MCP session manager (spec §4.4): creation,
// lookup, activity tracking, expiry and termination of server-side session
// identities, independent of any particular transport.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// State is the lifecycle state of a Record.
type State int

const (
	// StateActive is the only state from which a session can transition to Terminated.
	StateActive State = iota
	// StateTerminated is a terminal state; a terminated session never becomes active again.
	StateTerminated
)

// Record is the data the manager owns for a single session, per spec §3.
type Record struct {
	ID             string
	CreatedAt      time.Time
	LastActivity   time.Time
	TimeoutSeconds int
	State          State
}

// expired reports whether the record is past its inactivity timeout as of now.
func (r *Record) expired(now time.Time) bool {
	if r.TimeoutSeconds <= 0 {
		return false
	}
	return now.After(r.LastActivity.Add(time.Duration(r.TimeoutSeconds) * time.Second))
}

// Manager creates, tracks, expires and terminates sessions. All public
// operations hold a single mutex; Get is the fast path (map lookup plus a
// timestamp comparison) per spec §4.4.
type Manager struct {
	mu             sync.Mutex
	sessions       map[string]*Record
	defaultTimeout int
	// store, when set, externalizes records to a shared backend (e.g. Redis)
	// so several Manager instances can see sessions created by one another.
	store Store
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore externalizes session records to store: Create/Terminate write
// through to it, and Get falls back to it on a local miss (e.g. after this
// process restarted or the session was created by a peer).
func WithStore(store Store) Option {
	return func(m *Manager) { m.store = store }
}

// NewManager creates a Manager whose sessions default to defaultTimeoutSeconds
// when Create is called with timeoutSeconds <= 0.
func NewManager(defaultTimeoutSeconds int, opts ...Option) *Manager {
	if defaultTimeoutSeconds <= 0 {
		defaultTimeoutSeconds = 1800
	}
	m := &Manager{
		sessions:       make(map[string]*Record),
		defaultTimeout: defaultTimeoutSeconds,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Create allocates a new session with a 32-character hex id drawn from a
// cryptographically strong RNG and returns it.
func (m *Manager) Create(timeoutSeconds int) (*Record, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = m.defaultTimeout
	}
	now := time.Now()
	rec := &Record{
		ID:             id,
		CreatedAt:      now,
		LastActivity:   now,
		TimeoutSeconds: timeoutSeconds,
		State:          StateActive,
	}
	m.mu.Lock()
	m.sessions[id] = rec
	m.mu.Unlock()
	if m.store != nil {
		if err := m.store.Put(context.Background(), rec); err != nil {
			return rec, fmt.Errorf("session store put: %w", err)
		}
	}
	return rec, nil
}

// Get returns the session if it exists, is active, and has not expired.
// An expired-but-not-yet-swept session is treated as absent (lazily evicted).
// On a local miss, falls back to the configured Store (e.g. a session
// created by a peer process sharing the same Redis-backed store).
func (m *Manager) Get(id string) (*Record, bool) {
	m.mu.Lock()
	rec, ok := m.sessions[id]
	if ok {
		if rec.State == StateTerminated {
			m.mu.Unlock()
			return nil, false
		}
		if rec.expired(time.Now()) {
			delete(m.sessions, id)
			m.mu.Unlock()
			return nil, false
		}
		cp := *rec
		m.mu.Unlock()
		return &cp, true
	}
	m.mu.Unlock()

	if m.store == nil {
		return nil, false
	}
	rec, err := m.store.Get(context.Background(), id)
	if err != nil || rec == nil || rec.State == StateTerminated || rec.expired(time.Now()) {
		return nil, false
	}
	m.mu.Lock()
	m.sessions[id] = rec
	m.mu.Unlock()
	cp := *rec
	return &cp, true
}

// Touch bumps last-activity for id; it is a no-op if id is unknown or terminated.
func (m *Manager) Touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.sessions[id]; ok && rec.State == StateActive {
		rec.LastActivity = time.Now()
	}
}

// Terminate marks id terminated and reports whether it was found active.
// Once Terminate(id) returns true, subsequent Get(id) calls return false forever.
func (m *Manager) Terminate(id string) bool {
	m.mu.Lock()
	rec, ok := m.sessions[id]
	if !ok || rec.State == StateTerminated {
		m.mu.Unlock()
		return false
	}
	rec.State = StateTerminated
	delete(m.sessions, id)
	m.mu.Unlock()

	if m.store != nil {
		_ = m.store.Delete(context.Background(), id)
	}
	return true
}

// CleanupExpired removes sessions that are terminated or whose inactivity
// timeout has elapsed, and returns the count removed. It collects the ids in
// one pass and deletes them in a second, holding the manager's mutex across
// both; the scan is not split into batches.
func (m *Manager) CleanupExpired() int {
	now := time.Now()
	m.mu.Lock()
	var expired []string
	for id, rec := range m.sessions {
		if rec.State == StateTerminated || rec.expired(now) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(m.sessions, id)
	}
	count := len(expired)
	m.mu.Unlock()
	return count
}

// ActiveCount returns the number of sessions currently tracked as active.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, rec := range m.sessions {
		if rec.State == StateActive {
			count++
		}
	}
	return count
}

func newID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
