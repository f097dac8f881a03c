// Package service implements the application core: the session
// lifecycle, the visibility access controller, the follow-graph
// mutator and post management. Handlers call these operations as
// plain functions and translate the returned sentinels to HTTP.
package service

import "errors"

// ErrInvalidCredentials covers both "no such account" and "wrong
// password" so login failures cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailUnverified rejects login until the address is confirmed.
var ErrEmailUnverified = errors.New("email not verified")

// ErrAuthRequired denies access to non-public content for anonymous
// viewers, and to any protected operation when the presented access
// credential belongs to a revoked session.
var ErrAuthRequired = errors.New("authentication required")

// ErrForbidden denies access to content the viewer may not read or
// operations on resources the viewer does not own.
var ErrForbidden = errors.New("forbidden")

// ErrInactiveAccount rejects authentication for deactivated accounts.
var ErrInactiveAccount = errors.New("inactive account")
