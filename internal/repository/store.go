package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/social-feed-api/internal/model"
)

// UserStore owns account records and the follower graph.  Mutations
// that touch two accounts (follow, unfollow) are atomic with respect
// to each other and to reads.
type UserStore interface {
	// Create inserts a new account. It fails with ErrConflict when the
	// handle or email is already taken (case-sensitive exact match).
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByHandle(ctx context.Context, handle string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetByHandleOrEmail matches either unique column, for login.
	GetByHandleOrEmail(ctx context.Context, v string) (*model.User, error)
	// UpdateProfile persists display name, bio, avatar and updated_at.
	UpdateProfile(ctx context.Context, u *model.User) error
	// SetEmailVerified stamps the verification flag and timestamp.
	// Calling it on an already verified account re-stamps the time.
	SetEmailVerified(ctx context.Context, id uuid.UUID, at time.Time) error
	// SetPassword replaces the stored password hash.
	SetPassword(ctx context.Context, id uuid.UUID, hash string) error

	// Follow inserts the edge actor→target as one atomic dual update:
	// target joins actor.Following and actor joins target.Followers.
	// Re-following is not an error and leaves state unchanged apart
	// from the updated_at stamps. Fails with ErrSelfFollow when actor
	// equals target.
	Follow(ctx context.Context, actorID, targetID uuid.UUID) error
	// Unfollow removes both sides of the edge. Fails with
	// ErrNotFollowing when no edge exists.
	Unfollow(ctx context.Context, actorID, targetID uuid.UUID) error
	// IsFollower reports whether viewer is in owner's follower set.
	IsFollower(ctx context.Context, ownerID, viewerID uuid.UUID) (bool, error)
	ListFollowers(ctx context.Context, id uuid.UUID) ([]*model.User, error)
	ListFollowing(ctx context.Context, id uuid.UUID) ([]*model.User, error)
}

// SessionStore owns the one-per-account refresh session records.
type SessionStore interface {
	// Store saves the hash as the account's sole live record, replacing
	// any previous one (a new login invalidates the prior credential).
	Store(ctx context.Context, userID uuid.UUID, tokenHash string) error
	// Get returns the record or ErrNotFound.
	Get(ctx context.Context, userID uuid.UUID) (*model.RefreshSession, error)
	// Replace rotates the stored hash in one compare-and-replace step.
	// It fails with ErrSessionRevoked when the record is revoked or
	// absent and with ErrSessionMismatch when oldHash does not match
	// the stored value. Of two concurrent calls with the same oldHash
	// exactly one succeeds; the other observes ErrSessionMismatch.
	Replace(ctx context.Context, userID uuid.UUID, oldHash, newHash string) error
	// Revoke marks the account's record revoked and removes it, so
	// subsequent Get/Replace calls see no live session.
	Revoke(ctx context.Context, userID uuid.UUID) error
}

// PostFilter narrows and orders a post listing.  Page is 1-based; a
// zero Limit disables pagination.  Total results before pagination are
// reported alongside the page.
type PostFilter struct {
	AuthorIDs    []uuid.UUID       // only these authors (nil = all)
	AuthorHandle string            // only this author handle
	Visibility   *model.Visibility // only this tier (nil = all)
	Query        string            // case-insensitive substring of title/content
	Sort         string            // "created_at" (default) or "likes_count"
	Page         int
	Limit        int
}

// PostStore owns posts, likes and comments.  The visibility controller
// consults it only through Get; it never filters by viewer itself.
type PostStore interface {
	Create(ctx context.Context, p *model.Post) error
	Get(ctx context.Context, id uuid.UUID) (*model.Post, error)
	Update(ctx context.Context, p *model.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f PostFilter) ([]*model.Post, int, error)

	// Like records that user likes the post and returns the new count.
	// Liking twice is not an error and does not double-count.
	Like(ctx context.Context, postID, userID uuid.UUID) (int, error)
	Unlike(ctx context.Context, postID, userID uuid.UUID) (int, error)
	ListLikers(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error)

	AddComment(ctx context.Context, c *model.Comment) error
	GetComment(ctx context.Context, id uuid.UUID) (*model.Comment, error)
	ListComments(ctx context.Context, postID uuid.UUID, page, limit int) ([]*model.Comment, int, error)
	DeleteComment(ctx context.Context, id uuid.UUID) error
}
