package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/social-feed-api/internal/model"
)

func newUser(handle, email string) *model.User {
	now := time.Now().UTC()
	return &model.User{
		ID:        uuid.New(),
		Handle:    handle,
		Email:     email,
		Role:      model.RoleUser,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		Followers: make(map[uuid.UUID]struct{}),
		Following: make(map[uuid.UUID]struct{}),
	}
}

func TestCreate_DuplicateHandleOrEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemoryUserStore()

	require.NoError(t, s.Create(ctx, newUser("alice", "alice@example.com")))
	assert.ErrorIs(t, s.Create(ctx, newUser("alice", "other@example.com")), ErrConflict)
	assert.ErrorIs(t, s.Create(ctx, newUser("other", "alice@example.com")), ErrConflict)
}

func TestGetByHandleOrEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemoryUserStore()
	require.NoError(t, s.Create(ctx, newUser("alice", "alice@example.com")))

	byHandle, err := s.GetByHandleOrEmail(ctx, "alice")
	require.NoError(t, err)
	byEmail, err := s.GetByHandleOrEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, byHandle.ID, byEmail.ID)

	// Matching is case-sensitive and exact.
	_, err = s.GetByHandleOrEmail(ctx, "Alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFollow_SymmetryAndIdempotence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemoryUserStore()
	alice := newUser("alice", "a@example.com")
	bob := newUser("bob", "b@example.com")
	require.NoError(t, s.Create(ctx, alice))
	require.NoError(t, s.Create(ctx, bob))

	require.NoError(t, s.Follow(ctx, alice.ID, bob.ID))
	// Re-following is not an error and does not duplicate the edge.
	require.NoError(t, s.Follow(ctx, alice.ID, bob.ID))

	a, err := s.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	b, err := s.GetByID(ctx, bob.ID)
	require.NoError(t, err)

	assert.Contains(t, a.Following, bob.ID)
	assert.Contains(t, b.Followers, alice.ID)
	assert.Len(t, a.Following, 1)
	assert.Len(t, b.Followers, 1)
	assert.NotContains(t, a.Followers, alice.ID)

	ok, err := s.IsFollower(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.IsFollower(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollow_Self(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemoryUserStore()
	alice := newUser("alice", "a@example.com")
	require.NoError(t, s.Create(ctx, alice))

	assert.ErrorIs(t, s.Follow(ctx, alice.ID, alice.ID), ErrSelfFollow)
}

func TestUnfollow_RestoresPriorState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemoryUserStore()
	alice := newUser("alice", "a@example.com")
	bob := newUser("bob", "b@example.com")
	require.NoError(t, s.Create(ctx, alice))
	require.NoError(t, s.Create(ctx, bob))

	require.NoError(t, s.Follow(ctx, alice.ID, bob.ID))
	require.NoError(t, s.Unfollow(ctx, alice.ID, bob.ID))

	a, err := s.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	b, err := s.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, a.Following)
	assert.Empty(t, b.Followers)

	// A second unfollow has no edge to remove.
	assert.ErrorIs(t, s.Unfollow(ctx, alice.ID, bob.ID), ErrNotFollowing)
}

func TestListFollowers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemoryUserStore()
	alice := newUser("alice", "a@example.com")
	bob := newUser("bob", "b@example.com")
	carol := newUser("carol", "c@example.com")
	for _, u := range []*model.User{alice, bob, carol} {
		require.NoError(t, s.Create(ctx, u))
	}
	require.NoError(t, s.Follow(ctx, bob.ID, alice.ID))
	require.NoError(t, s.Follow(ctx, carol.ID, alice.ID))

	followers, err := s.ListFollowers(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, followers, 2)

	following, err := s.ListFollowing(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, alice.ID, following[0].ID)
}
