// Package ratelimit implements in-memory request throttling for the
// security core: a fixed-window per-key limiter and a login-lockout
// tracker. Denials are ordinary return values, never errors.
package ratelimit

import (
	"math/rand"
	"sync"
	"time"
)

// cleanupProbability is the chance that a Check call sweeps expired
// entries. Opportunistic cleanup bounds memory growth from abandoned keys
// without a dedicated background task.
const cleanupProbability = 0.1

// Config holds the per-call-site limiting policy
type Config struct {
	MaxRequests int           `validate:"gt=0"`
	Window      time.Duration `validate:"gt=0"`
	KeyPrefix   string
}

// Result is the outcome of a limit check
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds until the window resets; set only on denial
}

type entry struct {
	count   int
	resetAt time.Time
}

// Store holds rate-limit entries for a set of keys. Construct one per
// process (or per test) and share it across Limiter instances; operations
// on a single key are atomic under the store mutex.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
	chance  func() float64
}

// NewStore creates an empty rate-limit store
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
		chance:  rand.Float64,
	}
}

// Check records a request against key and reports whether it is allowed.
// A fresh window starts when no entry exists or the stored window has
// expired.
func (s *Store) Check(key string, cfg Config) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chance() < cleanupProbability {
		s.sweepLocked()
	}

	now := s.now()

	e, ok := s.entries[key]
	if !ok || !e.resetAt.After(now) {
		e = &entry{count: 1, resetAt: now.Add(cfg.Window)}
		s.entries[key] = e
		return Result{
			Allowed:   true,
			Remaining: cfg.MaxRequests - 1,
			ResetAt:   e.resetAt,
		}
	}

	if e.count >= cfg.MaxRequests {
		return Result{
			Allowed:    false,
			Remaining:  0,
			ResetAt:    e.resetAt,
			RetryAfter: ceilSeconds(e.resetAt.Sub(now)),
		}
	}

	e.count++
	return Result{
		Allowed:   true,
		Remaining: cfg.MaxRequests - e.count,
		ResetAt:   e.resetAt,
	}
}

// Status applies the same window logic as Check without mutating the
// stored entry. Intended for display; two consecutive calls yield
// identical results.
func (s *Store) Status(key string, cfg Config) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	e, ok := s.entries[key]
	if !ok || !e.resetAt.After(now) {
		return Result{
			Allowed:   true,
			Remaining: cfg.MaxRequests,
			ResetAt:   now.Add(cfg.Window),
		}
	}

	if e.count >= cfg.MaxRequests {
		return Result{
			Allowed:    false,
			Remaining:  0,
			ResetAt:    e.resetAt,
			RetryAfter: ceilSeconds(e.resetAt.Sub(now)),
		}
	}

	return Result{
		Allowed:   true,
		Remaining: cfg.MaxRequests - e.count,
		ResetAt:   e.resetAt,
	}
}

// Reset deletes the entry for key unconditionally
func (s *Store) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// sweepLocked drops entries whose window has passed. Caller holds s.mu.
func (s *Store) sweepLocked() {
	now := s.now()
	for key, e := range s.entries {
		if !e.resetAt.After(now) {
			delete(s.entries, key)
		}
	}
}

// Key builds the store key for a caller and endpoint. Anonymous callers
// (empty userID) share a single bucket per endpoint; per-IP fairness for
// anonymous traffic is handled at the HTTP edge, not here.
func Key(userID, endpoint, prefix string) string {
	caller := userID
	if caller == "" {
		caller = "anonymous"
	}
	if prefix != "" {
		return prefix + ":" + caller + ":" + endpoint
	}
	return caller + ":" + endpoint
}

// Limiter binds a store and config to the key-generation convention for
// ergonomic per-endpoint use
type Limiter struct {
	store *Store
	cfg   Config
}

// New creates a Limiter over store with the given config
func New(store *Store, cfg Config) *Limiter {
	return &Limiter{store: store, cfg: cfg}
}

// Check records a request for the caller against endpoint
func (l *Limiter) Check(userID, endpoint string) Result {
	return l.store.Check(Key(userID, endpoint, l.cfg.KeyPrefix), l.cfg)
}

// Status reports the caller's current standing without recording a request
func (l *Limiter) Status(userID, endpoint string) Result {
	return l.store.Status(Key(userID, endpoint, l.cfg.KeyPrefix), l.cfg)
}

// Reset clears the caller's window for endpoint
func (l *Limiter) Reset(userID, endpoint string) {
	l.store.Reset(Key(userID, endpoint, l.cfg.KeyPrefix))
}

// Config returns the limiter's policy
func (l *Limiter) Config() Config {
	return l.cfg
}

func ceilSeconds(d time.Duration) int {
	secs := int(d / time.Second)
	if d%time.Second > 0 {
		secs++
	}
	return secs
}
