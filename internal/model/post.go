package model

import (
	"time"

	"github.com/google/uuid"
)

// Visibility classifies who may read a post.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"    // readable by anyone, including guests
	VisibilityFollowers Visibility = "followers" // readable by the author's followers
	VisibilityPrivate   Visibility = "private"   // readable by the author (and admins) only
)

// ParseVisibility validates a raw visibility string.  The empty string
// maps to public, matching the create-post form default.
func ParseVisibility(s string) (Visibility, bool) {
	switch Visibility(s) {
	case VisibilityPublic, "":
		return VisibilityPublic, true
	case VisibilityFollowers:
		return VisibilityFollowers, true
	case VisibilityPrivate:
		return VisibilityPrivate, true
	}
	return "", false
}

// Post is a content item.  AuthorHandle is denormalized so listings do
// not need a user lookup per row.  LikesCount and CommentsCount are
// maintained by the post store.
type Post struct {
	ID            uuid.UUID
	AuthorID      uuid.UUID
	AuthorHandle  string
	Title         string
	Content       string
	ImageURL      string
	Visibility    Visibility
	LikesCount    int
	CommentsCount int
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

// Clone returns a copy safe to hand out after the store lock is released.
func (p *Post) Clone() *Post {
	cp := *p
	if p.UpdatedAt != nil {
		at := *p.UpdatedAt
		cp.UpdatedAt = &at
	}
	return &cp
}

// Comment belongs to a post.  AuthorHandle is denormalized like on Post.
type Comment struct {
	ID           uuid.UUID
	PostID       uuid.UUID
	AuthorID     uuid.UUID
	AuthorHandle string
	Content      string
	CreatedAt    time.Time
}
