package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles assigned to accounts.  Admins bypass visibility checks and may
// edit or delete any post.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account record held by the credential store.  Handle and
// Email are unique (case-sensitive exact match).  Followers and
// Following hold account ids; the two sets are kept symmetric by the
// store: B is in A's Following iff A is in B's Followers, and neither
// set ever contains the account's own id.
//
// Fields:
//  ID              – opaque unique identifier of the account.
//  Handle          – unique public name used in URLs.
//  Email           – unique address; verification links go here.
//  PasswordHash    – argon2id encoded password, never the raw value.
//  Role            – "user" or "admin".
//  IsActive        – whether the account may authenticate.
//  EmailVerified   – whether the address was confirmed via token.
//  EmailVerifiedAt – when the address was confirmed (nil if never).
//  DisplayName     – optional profile name shown instead of the handle.
//  Bio             – optional profile text.
//  AvatarURL       – reference to an uploaded avatar image.
type User struct {
	ID              uuid.UUID
	Handle          string
	Email           string
	PasswordHash    string
	Role            string
	IsActive        bool
	EmailVerified   bool
	EmailVerifiedAt *time.Time
	DisplayName     string
	Bio             string
	AvatarURL       string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Followers map[uuid.UUID]struct{}
	Following map[uuid.UUID]struct{}
}

// Clone returns a deep copy so callers can read follower sets without
// holding the store lock.
func (u *User) Clone() *User {
	cp := *u
	if u.EmailVerifiedAt != nil {
		at := *u.EmailVerifiedAt
		cp.EmailVerifiedAt = &at
	}
	cp.Followers = make(map[uuid.UUID]struct{}, len(u.Followers))
	for id := range u.Followers {
		cp.Followers[id] = struct{}{}
	}
	cp.Following = make(map[uuid.UUID]struct{}, len(u.Following))
	for id := range u.Following {
		cp.Following[id] = struct{}{}
	}
	return &cp
}

// IsAdmin reports whether the account carries the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// RefreshSession is the single live refresh-credential record of an
// account.  Only the SHA-256 hash of the credential is kept; the raw
// value goes back to the client once and is never stored.  At most one
// non-revoked record exists per account: login and refresh both replace
// the stored hash, which permanently invalidates the previous value.
type RefreshSession struct {
	UserID    uuid.UUID
	TokenHash string
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
