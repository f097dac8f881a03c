package service

import (
	"context"

	"github.com/iliyamo/social-feed-api/internal/model"
	"github.com/iliyamo/social-feed-api/internal/repository"
)

// AccessController decides whether a viewer may read a post. The rules
// run in a fixed order: the owner/admin bypass comes before the
// tier-specific graph check, so an author always sees their own
// non-public posts whatever the follower graph says.
type AccessController struct {
	users repository.UserStore
}

func NewAccessController(users repository.UserStore) *AccessController {
	return &AccessController{users: users}
}

// CanView returns nil when the viewer (nil = anonymous) may read the
// post, ErrAuthRequired when a viewer is needed and absent, and
// ErrForbidden when the tier denies this viewer.
func (a *AccessController) CanView(ctx context.Context, viewer *model.User, post *model.Post) error {
	if post.Visibility == model.VisibilityPublic {
		return nil
	}
	if viewer == nil {
		return ErrAuthRequired
	}
	if viewer.ID == post.AuthorID || viewer.IsAdmin() {
		return nil
	}
	if post.Visibility == model.VisibilityFollowers {
		ok, err := a.users.IsFollower(ctx, post.AuthorID, viewer.ID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrForbidden
}
