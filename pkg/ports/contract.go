package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunLockerContract runs a suite of tests to verify that a Locker
// implementation adheres to the defined interface contract.
func RunLockerContract(t *testing.T, locker Locker) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Acquire and Release", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err, "Lock should not return error")
		require.NotNil(t, unlock)
		require.NoError(t, unlock(ctx), "Unlock should not return error")
	})

	t.Run("Mutual Exclusion", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)

		// A second acquisition must not succeed while the lock is held.
		blockedCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(blockedCtx, key, 5*time.Second)
		assert.Error(t, err, "second Lock should block until context timeout")

		require.NoError(t, unlock(ctx))
	})

	t.Run("Reacquire After Release", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))

		unlock2, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err, "Lock after Unlock should succeed")
		require.NoError(t, unlock2(ctx))
	})

	t.Run("Independent Keys", func(t *testing.T) {
		unlockA, err := locker.Lock(ctx, key+"-a", 5*time.Second)
		require.NoError(t, err)
		defer func() { _ = unlockA(ctx) }()

		// A different key must be acquirable immediately.
		otherCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		unlockB, err := locker.Lock(otherCtx, key+"-b", 5*time.Second)
		require.NoError(t, err, "different key should not be blocked")
		require.NoError(t, unlockB(ctx))
	})
}
