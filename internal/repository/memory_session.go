package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/social-feed-api/internal/model"
)

// MemorySessionStore keeps refresh session records in process memory,
// keyed by account id. The map plus one mutex gives the rotation its
// read-compare-replace atomicity.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.RefreshSession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[uuid.UUID]*model.RefreshSession)}
}

func (s *MemorySessionStore) Store(_ context.Context, userID uuid.UUID, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	s.sessions[userID] = &model.RefreshSession{
		UserID:    userID,
		TokenHash: tokenHash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, userID uuid.UUID) (*model.RefreshSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *MemorySessionStore) Replace(_ context.Context, userID uuid.UUID, oldHash, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok || sess.Revoked {
		return ErrSessionRevoked
	}
	if sess.TokenHash != oldHash {
		return ErrSessionMismatch
	}
	sess.TokenHash = newHash
	sess.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemorySessionStore) Revoke(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		sess.Revoked = true
		delete(s.sessions, userID)
	}
	return nil
}
