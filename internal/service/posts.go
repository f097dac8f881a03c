package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/social-feed-api/internal/model"
	"github.com/iliyamo/social-feed-api/internal/repository"
)

// PostService manages post publishing, reading through the access
// controller, likes and comments.
type PostService struct {
	posts  repository.PostStore
	users  repository.UserStore
	access *AccessController
}

func NewPostService(posts repository.PostStore, users repository.UserStore, access *AccessController) *PostService {
	return &PostService{posts: posts, users: users, access: access}
}

// CreatePostInput carries the already validated fields from the
// transport layer. ImageURL points at an uploaded file; saving the
// file itself is the handler's business.
type CreatePostInput struct {
	Title      string
	Content    string
	ImageURL   string
	Visibility model.Visibility
}

func (s *PostService) Create(ctx context.Context, author *model.User, in CreatePostInput) (*model.Post, error) {
	p := &model.Post{
		ID:           uuid.New(),
		AuthorID:     author.ID,
		AuthorHandle: author.Handle,
		Title:        in.Title,
		Content:      in.Content,
		ImageURL:     in.ImageURL,
		Visibility:   in.Visibility,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get fetches a post and gates it through the visibility rules for the
// given viewer (nil = anonymous).
func (s *PostService) Get(ctx context.Context, viewer *model.User, id uuid.UUID) (*model.Post, error) {
	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanView(ctx, viewer, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePostInput updates only the fields that are non-nil.
type UpdatePostInput struct {
	Title      *string
	Content    *string
	ImageURL   *string
	Visibility *model.Visibility
}

// Update mutates a post. Only the author or an admin may do so.
func (s *PostService) Update(ctx context.Context, actor *model.User, id uuid.UUID, in UpdatePostInput) (*model.Post, error) {
	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.AuthorID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Content != nil {
		p.Content = *in.Content
	}
	if in.ImageURL != nil {
		p.ImageURL = *in.ImageURL
	}
	if in.Visibility != nil {
		p.Visibility = *in.Visibility
	}
	if err := s.posts.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.posts.Get(ctx, id)
}

// Delete removes a post. Only the author or an admin may do so.
func (s *PostService) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.AuthorID != actor.ID && !actor.IsAdmin() {
		return ErrForbidden
	}
	return s.posts.Delete(ctx, id)
}

// ListPublic lists public posts only, with the caller's author/query
// filters, sort and pagination applied by the store.
func (s *PostService) ListPublic(ctx context.Context, f repository.PostFilter) ([]*model.Post, int, error) {
	vis := model.VisibilityPublic
	f.Visibility = &vis
	return s.posts.List(ctx, f)
}

// Feed assembles the viewer's personalized feed: posts authored by
// accounts the viewer follows, newest first, visibility-filtered (so a
// private post of a followed author stays hidden), then paginated.
func (s *PostService) Feed(ctx context.Context, viewer *model.User, page, limit int) ([]*model.Post, int, error) {
	authors := make([]uuid.UUID, 0, len(viewer.Following))
	for id := range viewer.Following {
		authors = append(authors, id)
	}
	if len(authors) == 0 {
		return []*model.Post{}, 0, nil
	}
	all, _, err := s.posts.List(ctx, repository.PostFilter{AuthorIDs: authors})
	if err != nil {
		return nil, 0, err
	}
	visible := make([]*model.Post, 0, len(all))
	for _, p := range all {
		if err := s.access.CanView(ctx, viewer, p); err == nil {
			visible = append(visible, p)
		}
	}
	total := len(visible)
	if limit > 0 {
		if page < 1 {
			page = 1
		}
		start := (page - 1) * limit
		if start >= len(visible) {
			return []*model.Post{}, total, nil
		}
		end := start + limit
		if end > len(visible) {
			end = len(visible)
		}
		visible = visible[start:end]
	}
	return visible, total, nil
}

// Like records the viewer's like and returns the new count. The viewer
// must be able to see the post.
func (s *PostService) Like(ctx context.Context, viewer *model.User, id uuid.UUID) (int, error) {
	if _, err := s.Get(ctx, viewer, id); err != nil {
		return 0, err
	}
	return s.posts.Like(ctx, id, viewer.ID)
}

func (s *PostService) Unlike(ctx context.Context, viewer *model.User, id uuid.UUID) (int, error) {
	if _, err := s.Get(ctx, viewer, id); err != nil {
		return 0, err
	}
	return s.posts.Unlike(ctx, id, viewer.ID)
}

// Likers resolves the accounts that liked a visible post. Accounts
// deleted since their like are skipped.
func (s *PostService) Likers(ctx context.Context, viewer *model.User, id uuid.UUID) ([]*model.User, error) {
	if _, err := s.Get(ctx, viewer, id); err != nil {
		return nil, err
	}
	ids, err := s.posts.ListLikers(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]*model.User, 0, len(ids))
	for _, uid := range ids {
		if u, err := s.users.GetByID(ctx, uid); err == nil {
			out = append(out, u)
		}
	}
	return out, nil
}

// AddComment attaches a comment to a visible post.
func (s *PostService) AddComment(ctx context.Context, viewer *model.User, postID uuid.UUID, content string) (*model.Comment, error) {
	if _, err := s.Get(ctx, viewer, postID); err != nil {
		return nil, err
	}
	c := &model.Comment{
		ID:           uuid.New(),
		PostID:       postID,
		AuthorID:     viewer.ID,
		AuthorHandle: viewer.Handle,
		Content:      content,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.posts.AddComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListComments pages through a visible post's comments, oldest first.
func (s *PostService) ListComments(ctx context.Context, viewer *model.User, postID uuid.UUID, page, limit int) ([]*model.Comment, int, error) {
	if _, err := s.Get(ctx, viewer, postID); err != nil {
		return nil, 0, err
	}
	return s.posts.ListComments(ctx, postID, page, limit)
}

// DeleteComment removes a comment. The comment author, the post author
// and admins may delete.
func (s *PostService) DeleteComment(ctx context.Context, actor *model.User, id uuid.UUID) error {
	c, err := s.posts.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if c.AuthorID != actor.ID && !actor.IsAdmin() {
		p, err := s.posts.Get(ctx, c.PostID)
		if err != nil {
			return err
		}
		if p.AuthorID != actor.ID {
			return ErrForbidden
		}
	}
	return s.posts.DeleteComment(ctx, id)
}
