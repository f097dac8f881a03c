package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemorySessionStore()
	uid := uuid.New()

	_, err := s.Get(ctx, uid)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Store(ctx, uid, "h0"))
	sess, err := s.Get(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "h0", sess.TokenHash)
	assert.False(t, sess.Revoked)

	// A new login overwrites the previous record.
	require.NoError(t, s.Store(ctx, uid, "h1"))
	sess, err = s.Get(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "h1", sess.TokenHash)
}

func TestSessionReplace_Rotation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemorySessionStore()
	uid := uuid.New()
	require.NoError(t, s.Store(ctx, uid, "h0"))

	require.NoError(t, s.Replace(ctx, uid, "h0", "h1"))

	// Replaying the rotated-out hash is a mismatch, not a rotation.
	assert.ErrorIs(t, s.Replace(ctx, uid, "h0", "h2"), ErrSessionMismatch)

	require.NoError(t, s.Replace(ctx, uid, "h1", "h2"))
	sess, err := s.Get(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "h2", sess.TokenHash)
}

func TestSessionReplace_RevokedOrAbsent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemorySessionStore()
	uid := uuid.New()

	assert.ErrorIs(t, s.Replace(ctx, uid, "h0", "h1"), ErrSessionRevoked)

	require.NoError(t, s.Store(ctx, uid, "h0"))
	require.NoError(t, s.Revoke(ctx, uid))
	assert.ErrorIs(t, s.Replace(ctx, uid, "h0", "h1"), ErrSessionRevoked)
}

func TestSessionReplace_ConcurrentOneWinner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemorySessionStore()
	uid := uuid.New()
	require.NoError(t, s.Store(ctx, uid, "h0"))

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Replace(ctx, uid, "h0", fmt.Sprintf("h%d", i+1))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrSessionMismatch)
		}
	}
	assert.Equal(t, 1, wins)
}
