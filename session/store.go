// Package session provides thread-safe in-memory storage of wizard sessions.
// Sessions are never persisted; idle sessions are removed by Sweep.
package session

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/giygas/medsafe/interfaces"
	"github.com/giygas/medsafe/logging"
	"github.com/giygas/medsafe/wizard"
	"github.com/google/uuid"
)

// ErrNotFound is returned by Update for unknown or expired session ids
var ErrNotFound = errors.New("session not found")

// Compile-time check to ensure Store implements SessionStore
var _ interfaces.SessionStore = (*Store)(nil)

// Store holds wizard sessions keyed by id
type Store struct {
	mu        sync.Mutex
	sessions  map[string]*interfaces.SessionEntry
	ttl       time.Duration
	lastSweep atomic.Value // time.Time
}

// NewStore creates an empty store whose sessions expire after ttl of inactivity
func NewStore(ttl time.Duration) *Store {
	s := &Store{
		sessions: make(map[string]*interfaces.SessionEntry),
		ttl:      ttl,
	}
	s.lastSweep.Store(time.Time{})
	return s
}

// Create starts a new session in the initial wizard state
func (s *Store) Create() interfaces.SessionEntry {
	now := time.Now()
	entry := &interfaces.SessionEntry{
		ID:        uuid.NewString(),
		State:     wizard.NewState(),
		CreatedAt: now,
		LastSeen:  now,
	}

	s.mu.Lock()
	s.sessions[entry.ID] = entry
	s.mu.Unlock()

	return copyEntry(entry)
}

// Get returns a copy of the session and marks it as seen
func (s *Store) Get(id string) (interfaces.SessionEntry, bool) {
	if !isValidID(id) {
		return interfaces.SessionEntry{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return interfaces.SessionEntry{}, false
	}
	if s.expired(entry, time.Now()) {
		delete(s.sessions, id)
		return interfaces.SessionEntry{}, false
	}

	entry.LastSeen = time.Now()
	return copyEntry(entry), true
}

// Update runs fn on a working copy of the session under the store lock.
// The copy is stored only when fn returns nil.
func (s *Store) Update(id string, fn func(entry *interfaces.SessionEntry) error) error {
	if !isValidID(id) {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok || s.expired(entry, time.Now()) {
		delete(s.sessions, id)
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	working := copyEntry(entry)
	if err := fn(&working); err != nil {
		return err
	}

	// The id and creation time belong to the store
	working.ID = entry.ID
	working.CreatedAt = entry.CreatedAt
	working.LastSeen = time.Now()
	s.sessions[id] = &working

	return nil
}

// Delete removes a session; unknown ids are ignored
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Sweep removes every session idle for longer than the TTL as of now
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	removed := 0
	for id, entry := range s.sessions {
		if s.expired(entry, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	s.mu.Unlock()

	s.lastSweep.Store(now)
	return removed
}

// Len returns the number of stored sessions, expired or not
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// LastSweep returns the time of the last Sweep call
func (s *Store) LastSweep() time.Time {
	if v := s.lastSweep.Load(); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}

	logging.Warn("Could not get the last sweep value")
	return time.Time{}
}

// TTL returns the idle timeout
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// expired reports whether entry has been idle longer than the TTL (caller must hold the lock)
func (s *Store) expired(entry *interfaces.SessionEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(entry.LastSeen) > s.ttl
}

func isValidID(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func copyEntry(entry *interfaces.SessionEntry) interfaces.SessionEntry {
	c := *entry
	c.State.Names = cloneStrings(entry.State.Names)
	c.Drafts = cloneStrings(entry.Drafts)
	return c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
