package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/social-feed-api/internal/model"
)

// MemoryPostStore keeps posts, likes and comments in process memory.
// Likes are a per-post set of account ids so a double like cannot
// inflate the counter.
type MemoryPostStore struct {
	mu       sync.RWMutex
	posts    map[uuid.UUID]*model.Post
	likes    map[uuid.UUID]map[uuid.UUID]struct{}
	comments map[uuid.UUID]*model.Comment
}

func NewMemoryPostStore() *MemoryPostStore {
	return &MemoryPostStore{
		posts:    make(map[uuid.UUID]*model.Post),
		likes:    make(map[uuid.UUID]map[uuid.UUID]struct{}),
		comments: make(map[uuid.UUID]*model.Comment),
	}
}

func (s *MemoryPostStore) Create(_ context.Context, p *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.ID] = p.Clone()
	s.likes[p.ID] = make(map[uuid.UUID]struct{})
	return nil
}

func (s *MemoryPostStore) Get(_ context.Context, id uuid.UUID) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *MemoryPostStore) Update(_ context.Context, p *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.posts[p.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Title = p.Title
	cur.Content = p.Content
	cur.ImageURL = p.ImageURL
	cur.Visibility = p.Visibility
	now := time.Now().UTC()
	cur.UpdatedAt = &now
	return nil
}

func (s *MemoryPostStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return ErrNotFound
	}
	delete(s.posts, id)
	delete(s.likes, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

func (s *MemoryPostStore) List(_ context.Context, f PostFilter) ([]*model.Post, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var authors map[uuid.UUID]struct{}
	if f.AuthorIDs != nil {
		authors = make(map[uuid.UUID]struct{}, len(f.AuthorIDs))
		for _, id := range f.AuthorIDs {
			authors[id] = struct{}{}
		}
	}
	q := strings.ToLower(f.Query)

	items := make([]*model.Post, 0)
	for _, p := range s.posts {
		if f.Visibility != nil && p.Visibility != *f.Visibility {
			continue
		}
		if f.AuthorHandle != "" && p.AuthorHandle != f.AuthorHandle {
			continue
		}
		if authors != nil {
			if _, ok := authors[p.AuthorID]; !ok {
				continue
			}
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Content), q) &&
			!strings.Contains(strings.ToLower(p.Title), q) {
			continue
		}
		items = append(items, p.Clone())
	}

	if f.Sort == "likes_count" {
		sort.Slice(items, func(i, j int) bool { return items[i].LikesCount > items[j].LikesCount })
	} else {
		sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	}

	total := len(items)
	return paginate(items, f.Page, f.Limit), total, nil
}

func (s *MemoryPostStore) Like(_ context.Context, postID, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return 0, ErrNotFound
	}
	s.likes[postID][userID] = struct{}{}
	p.LikesCount = len(s.likes[postID])
	return p.LikesCount, nil
}

func (s *MemoryPostStore) Unlike(_ context.Context, postID, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return 0, ErrNotFound
	}
	delete(s.likes[postID], userID)
	p.LikesCount = len(s.likes[postID])
	return p.LikesCount, nil
}

func (s *MemoryPostStore) ListLikers(_ context.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.likes[postID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out, nil
}

func (s *MemoryPostStore) AddComment(_ context.Context, c *model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[c.PostID]
	if !ok {
		return ErrNotFound
	}
	cp := *c
	s.comments[c.ID] = &cp
	p.CommentsCount++
	return nil
}

func (s *MemoryPostStore) GetComment(_ context.Context, id uuid.UUID) (*model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryPostStore) ListComments(_ context.Context, postID uuid.UUID, page, limit int) ([]*model.Comment, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.posts[postID]; !ok {
		return nil, 0, ErrNotFound
	}
	items := make([]*model.Comment, 0)
	for _, c := range s.comments {
		if c.PostID == postID {
			cp := *c
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	total := len(items)
	return paginate(items, page, limit), total, nil
}

func (s *MemoryPostStore) DeleteComment(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.comments, id)
	if p, ok := s.posts[c.PostID]; ok && p.CommentsCount > 0 {
		p.CommentsCount--
	}
	return nil
}

// paginate slices one 1-based page out of items; limit 0 disables
// pagination.
func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
