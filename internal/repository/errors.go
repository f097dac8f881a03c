// Package repository defines the store interfaces behind which all
// account, session and post state lives, together with the sentinel
// errors shared by its implementations. Sentinels let the service and
// handler layers distinguish failure scenarios with errors.Is without
// knowing which backend produced them.
package repository

import "errors"

// ErrNotFound is returned when an account, post or comment does not
// exist. Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when registration would duplicate an existing
// handle or email. The duplicate check and the insert happen under one
// lock (or one unique index) so two concurrent registrations cannot
// both succeed. Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrSessionRevoked is returned by refresh rotation when the account's
// refresh record is revoked or absent (logged out).
var ErrSessionRevoked = errors.New("refresh session revoked")

// ErrSessionMismatch is returned by refresh rotation when the presented
// credential does not match the stored one, i.e. a superseded value is
// being replayed.
var ErrSessionMismatch = errors.New("refresh session mismatch")

// ErrSelfFollow is returned when an account tries to follow itself.
var ErrSelfFollow = errors.New("cannot follow self")

// ErrNotFollowing is returned by unfollow when no edge exists.
var ErrNotFollowing = errors.New("not following")
