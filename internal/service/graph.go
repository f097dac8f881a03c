package service

import (
	"context"

	"github.com/iliyamo/social-feed-api/internal/model"
	"github.com/iliyamo/social-feed-api/internal/repository"
)

// GraphService applies follow-edge changes. The store performs each
// dual-set edit atomically and keeps the two sides symmetric; this
// layer only resolves handles.
type GraphService struct {
	users repository.UserStore
}

func NewGraphService(users repository.UserStore) *GraphService {
	return &GraphService{users: users}
}

// Follow makes actor follow the account behind targetHandle and
// returns the target's refreshed record. Following an already followed
// account succeeds and changes nothing; following yourself fails with
// repository.ErrSelfFollow.
func (g *GraphService) Follow(ctx context.Context, actor *model.User, targetHandle string) (*model.User, error) {
	target, err := g.users.GetByHandle(ctx, targetHandle)
	if err != nil {
		return nil, err
	}
	if err := g.users.Follow(ctx, actor.ID, target.ID); err != nil {
		return nil, err
	}
	return g.users.GetByID(ctx, target.ID)
}

// Unfollow removes the edge; a missing edge fails with
// repository.ErrNotFollowing.
func (g *GraphService) Unfollow(ctx context.Context, actor *model.User, targetHandle string) (*model.User, error) {
	target, err := g.users.GetByHandle(ctx, targetHandle)
	if err != nil {
		return nil, err
	}
	if err := g.users.Unfollow(ctx, actor.ID, target.ID); err != nil {
		return nil, err
	}
	return g.users.GetByID(ctx, target.ID)
}
