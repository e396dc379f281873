package ratelimit

import (
	"sync"
	"time"
)

// LockoutPolicy holds the consecutive-failure policy for login attempts.
// These are policy constants, not derived values.
type LockoutPolicy struct {
	MaxAttempts     int           `validate:"gt=0"`
	LockoutDuration time.Duration `validate:"gt=0"`
	AttemptWindow   time.Duration `validate:"gt=0"`
}

// DefaultLockoutPolicy locks an identifier for 15 minutes after 5 failures
// inside a 5-minute window
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxAttempts:     5,
		LockoutDuration: 15 * time.Minute,
		AttemptWindow:   5 * time.Minute,
	}
}

// LockoutStatus reports an identifier's standing after a recorded failure
// or a read-only query
type LockoutStatus struct {
	Locked            bool
	AttemptsRemaining int
	LockedUntil       *time.Time
}

type loginTracker struct {
	attempts    int
	lastAttempt time.Time
	lockedUntil time.Time // zero when not locked
}

// LockoutTracker tracks consecutive authentication failures per identifier
// (an email, or an IP+email composite) and enforces timed lockout.
//
// Per identifier the states are: fresh (no tracker), accumulating
// (1..MaxAttempts-1 failures inside the window), locked (lockedUntil set).
// A lock is sticky until it expires; the attempt window elapsing with no
// lock active resets the counter.
type LockoutTracker struct {
	mu       sync.Mutex
	policy   LockoutPolicy
	trackers map[string]*loginTracker
	now      func() time.Time
}

// NewLockoutTracker creates a tracker with the given policy
func NewLockoutTracker(policy LockoutPolicy) *LockoutTracker {
	return &LockoutTracker{
		policy:   policy,
		trackers: make(map[string]*loginTracker),
		now:      time.Now,
	}
}

// RecordFailure records a failed login for identifier and returns the
// resulting status
func (t *LockoutTracker) RecordFailure(identifier string) LockoutStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()

	tr, ok := t.trackers[identifier]
	if !ok {
		tr = &loginTracker{}
		t.trackers[identifier] = tr
	}

	// Sticky lock: further failures while locked do not extend it
	if tr.lockedUntil.After(now) {
		until := tr.lockedUntil
		return LockoutStatus{Locked: true, AttemptsRemaining: 0, LockedUntil: &until}
	}

	switch {
	case !tr.lockedUntil.IsZero():
		// Expired lock: back to fresh accumulation
		tr.attempts = 1
	case tr.attempts > 0 && now.Sub(tr.lastAttempt) > t.policy.AttemptWindow:
		// Window elapsed with no lock active: treat as fresh
		tr.attempts = 1
	default:
		tr.attempts++
	}
	tr.lastAttempt = now
	tr.lockedUntil = time.Time{}

	if tr.attempts >= t.policy.MaxAttempts {
		tr.lockedUntil = now.Add(t.policy.LockoutDuration)
		until := tr.lockedUntil
		return LockoutStatus{Locked: true, AttemptsRemaining: 0, LockedUntil: &until}
	}

	return LockoutStatus{
		Locked:            false,
		AttemptsRemaining: t.policy.MaxAttempts - tr.attempts,
	}
}

// IsLockedOut reports identifier's standing without recording a failure
func (t *LockoutTracker) IsLockedOut(identifier string) LockoutStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()

	tr, ok := t.trackers[identifier]
	if !ok {
		return LockoutStatus{Locked: false, AttemptsRemaining: t.policy.MaxAttempts}
	}

	if tr.lockedUntil.After(now) {
		until := tr.lockedUntil
		return LockoutStatus{Locked: true, AttemptsRemaining: 0, LockedUntil: &until}
	}

	// Expired lock or elapsed window counts as fresh
	if !tr.lockedUntil.IsZero() || now.Sub(tr.lastAttempt) > t.policy.AttemptWindow {
		return LockoutStatus{Locked: false, AttemptsRemaining: t.policy.MaxAttempts}
	}

	return LockoutStatus{
		Locked:            false,
		AttemptsRemaining: t.policy.MaxAttempts - tr.attempts,
	}
}

// Clear deletes the tracker for identifier. Called on successful
// authentication.
func (t *LockoutTracker) Clear(identifier string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.trackers, identifier)
}

// Policy returns the tracker's lockout policy
func (t *LockoutTracker) Policy() LockoutPolicy {
	return t.policy
}
