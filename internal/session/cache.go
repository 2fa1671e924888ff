// Package session holds per-session server-side state with an explicit
// lifecycle: initialized at login, dropped at logout or expiry. It replaces
// the process-global cache the mobile client used to survive screen
// remounts.
package session

import (
	"sync"
	"time"

	"github.com/courtyard-app/server/internal/metrics"
)

// Entry is the cached state for one authenticated session.
type Entry struct {
	UserID      string
	BuildingID  string
	Role        string
	StartedAt   time.Time
	LastSeen    time.Time
	UnreadCount int

	mu     sync.RWMutex
	values map[string]any
}

// Get returns a session-scoped value.
func (e *Entry) Get(key string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	value, ok := e.values[key]
	return value, ok
}

// Set stores a session-scoped value (directory snapshots, draft state).
func (e *Entry) Set(key string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.values == nil {
		e.values = make(map[string]any)
	}
	e.values[key] = value
}

// Store tracks active sessions keyed by user id.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	ttl     time.Duration
	now     func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]*Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Init creates (or resets) the session entry for a user. Called at login so
// a fresh login never inherits stale cached state.
func (s *Store) Init(userID, buildingID, role string) *Entry {
	now := s.now()
	entry := &Entry{
		UserID:     userID,
		BuildingID: buildingID,
		Role:       role,
		StartedAt:  now,
		LastSeen:   now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = entry
	metrics.ActiveSessions.Set(float64(len(s.entries)))
	return entry
}

// Get returns the live session for a user, refreshing its last-seen time.
// Expired sessions are dropped and reported as absent.
func (s *Store) Get(userID string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[userID]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.ttl > 0 && now.Sub(entry.LastSeen) > s.ttl {
		delete(s.entries, userID)
		metrics.ActiveSessions.Set(float64(len(s.entries)))
		return nil, false
	}
	entry.LastSeen = now
	return entry, true
}

// Clear drops the session entry for a user. Called at logout.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
	metrics.ActiveSessions.Set(float64(len(s.entries)))
}

// Sweep removes every expired session and returns how many were dropped.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, entry := range s.entries {
		if entry.LastSeen.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.entries)))
	return removed
}
