package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(start time.Time) (*LockoutTracker, *time.Time) {
	now := start
	tr := NewLockoutTracker(DefaultLockoutPolicy())
	tr.now = func() time.Time { return now }
	return tr, &now
}

func TestLockoutTracker_LocksAfterMaxAttempts(t *testing.T) {
	tr, _ := newTestTracker(time.Unix(1700000000, 0))

	for i := 1; i <= 4; i++ {
		status := tr.RecordFailure("member@repclub.fit")
		assert.False(t, status.Locked)
		assert.Equal(t, 5-i, status.AttemptsRemaining)
	}

	status := tr.RecordFailure("member@repclub.fit")
	assert.True(t, status.Locked)
	assert.Equal(t, 0, status.AttemptsRemaining)
	require.NotNil(t, status.LockedUntil)
	assert.Equal(t, time.Unix(1700000000, 0).Add(15*time.Minute), *status.LockedUntil)
}

func TestLockoutTracker_LockIsSticky(t *testing.T) {
	tr, now := newTestTracker(time.Unix(1700000000, 0))

	for i := 0; i < 5; i++ {
		tr.RecordFailure("id")
	}

	lockedUntil := *tr.IsLockedOut("id").LockedUntil

	// Further failures while locked do not extend the lock
	*now = now.Add(5 * time.Minute)
	status := tr.RecordFailure("id")
	assert.True(t, status.Locked)
	assert.Equal(t, 0, status.AttemptsRemaining)
	assert.Equal(t, lockedUntil, *status.LockedUntil)
}

func TestLockoutTracker_UnlocksAfterDuration(t *testing.T) {
	tr, now := newTestTracker(time.Unix(1700000000, 0))

	for i := 0; i < 5; i++ {
		tr.RecordFailure("id")
	}

	*now = now.Add(15*time.Minute + time.Second)

	status := tr.IsLockedOut("id")
	assert.False(t, status.Locked)
	assert.Equal(t, 5, status.AttemptsRemaining)

	// A failure after the lock expires starts fresh accumulation
	recorded := tr.RecordFailure("id")
	assert.False(t, recorded.Locked)
	assert.Equal(t, 4, recorded.AttemptsRemaining)
}

func TestLockoutTracker_WindowExpiryResetsCount(t *testing.T) {
	tr, now := newTestTracker(time.Unix(1700000000, 0))

	tr.RecordFailure("id")
	tr.RecordFailure("id")
	tr.RecordFailure("id")

	// The attempt window elapses with no further failures
	*now = now.Add(5*time.Minute + time.Second)

	status := tr.RecordFailure("id")
	assert.False(t, status.Locked)
	assert.Equal(t, 4, status.AttemptsRemaining)
}

func TestLockoutTracker_IsLockedOut_SideEffectFree(t *testing.T) {
	tr, _ := newTestTracker(time.Unix(1700000000, 0))

	tr.RecordFailure("id")

	for i := 0; i < 10; i++ {
		tr.IsLockedOut("id")
	}

	status := tr.RecordFailure("id")
	assert.Equal(t, 3, status.AttemptsRemaining)
}

func TestLockoutTracker_UnknownIdentifierIsFresh(t *testing.T) {
	tr, _ := newTestTracker(time.Unix(1700000000, 0))

	status := tr.IsLockedOut("never-seen")
	assert.False(t, status.Locked)
	assert.Equal(t, 5, status.AttemptsRemaining)
	assert.Nil(t, status.LockedUntil)
}

func TestLockoutTracker_ClearDeletesTracker(t *testing.T) {
	tr, _ := newTestTracker(time.Unix(1700000000, 0))

	for i := 0; i < 5; i++ {
		tr.RecordFailure("id")
	}
	require.True(t, tr.IsLockedOut("id").Locked)

	tr.Clear("id")

	status := tr.IsLockedOut("id")
	assert.False(t, status.Locked)
	assert.Equal(t, 5, status.AttemptsRemaining)
}

func TestLockoutTracker_IdentifiersAreIndependent(t *testing.T) {
	tr, _ := newTestTracker(time.Unix(1700000000, 0))

	for i := 0; i < 5; i++ {
		tr.RecordFailure("locked@repclub.fit")
	}

	assert.True(t, tr.IsLockedOut("locked@repclub.fit").Locked)
	assert.False(t, tr.IsLockedOut("fine@repclub.fit").Locked)
}

func TestDefaultLockoutPolicy(t *testing.T) {
	policy := DefaultLockoutPolicy()
	assert.Equal(t, 5, policy.MaxAttempts)
	assert.Equal(t, 15*time.Minute, policy.LockoutDuration)
	assert.Equal(t, 5*time.Minute, policy.AttemptWindow)
}
