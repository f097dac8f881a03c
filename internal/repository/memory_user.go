package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/social-feed-api/internal/model"
)

// MemoryUserStore keeps accounts and the follower graph in process
// memory behind a single mutex. One lock over the whole store is
// enough here: the critical sections are short and the coarse grain
// makes the check-then-insert and dual-set edits trivially atomic.
type MemoryUserStore struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*model.User
	byHandle map[string]uuid.UUID
	byEmail  map[string]uuid.UUID
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:     make(map[uuid.UUID]*model.User),
		byHandle: make(map[string]uuid.UUID),
		byEmail:  make(map[string]uuid.UUID),
	}
}

func (s *MemoryUserStore) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byHandle[u.Handle]; ok {
		return ErrConflict
	}
	if _, ok := s.byEmail[u.Email]; ok {
		return ErrConflict
	}
	cp := u.Clone()
	if cp.Followers == nil {
		cp.Followers = make(map[uuid.UUID]struct{})
	}
	if cp.Following == nil {
		cp.Following = make(map[uuid.UUID]struct{})
	}
	s.byID[cp.ID] = cp
	s.byHandle[cp.Handle] = cp.ID
	s.byEmail[cp.Email] = cp.ID
	return nil
}

func (s *MemoryUserStore) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (s *MemoryUserStore) GetByHandle(_ context.Context, handle string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookupHandle(handle)
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

// GetByHandleOrEmail tries the handle index first, then the email
// index, matching the login contract.
func (s *MemoryUserStore) GetByHandleOrEmail(_ context.Context, v string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, err := s.lookupHandle(v); err == nil {
		return u, nil
	}
	if id, ok := s.byEmail[v]; ok {
		return s.byID[id].Clone(), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) lookupHandle(handle string) (*model.User, error) {
	id, ok := s.byHandle[handle]
	if !ok {
		return nil, ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *MemoryUserStore) UpdateProfile(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[u.ID]
	if !ok {
		return ErrNotFound
	}
	cur.DisplayName = u.DisplayName
	cur.Bio = u.Bio
	cur.AvatarURL = u.AvatarURL
	cur.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryUserStore) SetEmailVerified(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.EmailVerified = true
	u.EmailVerifiedAt = &at
	u.UpdatedAt = at
	return nil
}

func (s *MemoryUserStore) SetPassword(_ context.Context, id uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryUserStore) Follow(_ context.Context, actorID, targetID uuid.UUID) error {
	if actorID == targetID {
		return ErrSelfFollow
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	actor, ok := s.byID[actorID]
	if !ok {
		return ErrNotFound
	}
	target, ok := s.byID[targetID]
	if !ok {
		return ErrNotFound
	}
	// Both sides of the edge change under the same lock.
	actor.Following[targetID] = struct{}{}
	target.Followers[actorID] = struct{}{}
	now := time.Now().UTC()
	actor.UpdatedAt = now
	target.UpdatedAt = now
	return nil
}

func (s *MemoryUserStore) Unfollow(_ context.Context, actorID, targetID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	actor, ok := s.byID[actorID]
	if !ok {
		return ErrNotFound
	}
	target, ok := s.byID[targetID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := actor.Following[targetID]; !ok {
		return ErrNotFollowing
	}
	delete(actor.Following, targetID)
	delete(target.Followers, actorID)
	now := time.Now().UTC()
	actor.UpdatedAt = now
	target.UpdatedAt = now
	return nil
}

func (s *MemoryUserStore) IsFollower(_ context.Context, ownerID, viewerID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.byID[ownerID]
	if !ok {
		return false, ErrNotFound
	}
	_, ok = owner.Followers[viewerID]
	return ok, nil
}

func (s *MemoryUserStore) ListFollowers(_ context.Context, id uuid.UUID) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.collect(u.Followers), nil
}

func (s *MemoryUserStore) ListFollowing(_ context.Context, id uuid.UUID) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.collect(u.Following), nil
}

func (s *MemoryUserStore) collect(ids map[uuid.UUID]struct{}) []*model.User {
	out := make([]*model.User, 0, len(ids))
	for id := range ids {
		if u, ok := s.byID[id]; ok {
			out = append(out, u.Clone())
		}
	}
	return out
}
