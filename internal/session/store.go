// Package session implements the in-memory store for in-flight payment
// attempts. Each browser session owns at most one attempt, keyed by an opaque
// session id and bounded by a TTL. The store is the only shared mutable
// resource in the service: every mutation for a given session id is an atomic
// read-modify-write under a per-session lock, and a caller may hold that lock
// across its gateway round-trip so concurrent submissions for the same
// attempt are serialized.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopkit/shopkit-payments/internal/domain"
)

// DefaultTTL bounds how long an abandoned attempt survives. Kept short: the
// session carries card details until the gateway authorizes.
const DefaultTTL = 15 * time.Minute

type entry struct {
	mu        sync.Mutex
	attempt   *domain.PaymentAttempt
	expiresAt time.Time
}

// Store holds one PaymentAttempt per session id.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	stopped sync.Once
}

// New creates a store with the given TTL and starts the expiry sweeper.
// A non-positive ttl falls back to DefaultTTL.
func New(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Create stores a new attempt and returns the opaque session id for it.
func (s *Store) Create(attempt *domain.PaymentAttempt) string {
	id := uuid.New().String()
	s.Put(id, attempt)
	return id
}

// Put replaces the attempt for the session, creating the session if it does
// not exist or has expired. The TTL restarts from now.
func (s *Store) Put(sessionID string, attempt *domain.PaymentAttempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = &entry{
		attempt:   attempt,
		expiresAt: s.now().Add(s.ttl),
	}
}

// Get returns a snapshot of the attempt for the session, or nil if the
// session does not exist or is past its TTL.
func (s *Store) Get(sessionID string) *domain.PaymentAttempt {
	e := s.lookup(sessionID)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := *e.attempt
	return &snapshot
}

// Update runs fn against the session's attempt under the per-session lock.
// fn may perform the gateway round-trip for the step: holding the lock for
// the full step is what guarantees that, for one attempt, a duplicate
// submission observes the advanced state instead of racing a second gateway
// mutation. Returns domain.ErrSessionNotFound if the session is missing or
// expired; fn's error is returned as-is.
func (s *Store) Update(sessionID string, fn func(*domain.PaymentAttempt) error) error {
	e := s.lookup(sessionID)
	if e == nil {
		return domain.ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.attempt)
}

// Clear removes the session and its attempt.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
}

// Close stops the expiry sweeper.
func (s *Store) Close() {
	s.stopped.Do(func() { close(s.stop) })
}

// lookup returns the live entry for the session, expiring it lazily.
func (s *Store) lookup(sessionID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sessionID]
	if !ok {
		return nil
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, sessionID)
		return nil
	}
	return e
}

// sweep drops expired sessions in the background so abandoned attempts do
// not pin card data in memory until the next access.
func (s *Store) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for id, e := range s.entries {
				if !now.After(e.expiresAt) {
					continue
				}
				// Skip entries mid-step; lazy expiry catches them later.
				if !e.mu.TryLock() {
					continue
				}
				delete(s.entries, id)
				e.mu.Unlock()
			}
			s.mu.Unlock()
		}
	}
}
