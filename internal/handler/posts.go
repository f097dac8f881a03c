package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/social-feed-api/internal/middleware"
	"github.com/iliyamo/social-feed-api/internal/model"
	"github.com/iliyamo/social-feed-api/internal/repository"
	"github.com/iliyamo/social-feed-api/internal/service"
)

// PostHandler serves post CRUD, the public listing, likes, comments
// and the personalized feed.
type PostHandler struct {
	Posts     *service.PostService
	UploadDir string
}

func NewPostHandler(posts *service.PostService, uploadDir string) *PostHandler {
	return &PostHandler{Posts: posts, UploadDir: uploadDir}
}

// ----- DTOs -----

type postResp struct {
	ID            uuid.UUID  `json:"id"`
	AuthorID      uuid.UUID  `json:"author_id"`
	AuthorHandle  string     `json:"author_handle"`
	Title         string     `json:"title,omitempty"`
	Content       string     `json:"content"`
	ImageURL      string     `json:"image_url,omitempty"`
	Visibility    string     `json:"visibility"`
	LikesCount    int        `json:"likes_count"`
	CommentsCount int        `json:"comments_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

type commentResp struct {
	ID           uuid.UUID `json:"id"`
	PostID       uuid.UUID `json:"post_id"`
	AuthorID     uuid.UUID `json:"author_id"`
	AuthorHandle string    `json:"author_handle"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}

func toPostResp(p *model.Post) postResp {
	return postResp{
		ID:            p.ID,
		AuthorID:      p.AuthorID,
		AuthorHandle:  p.AuthorHandle,
		Title:         p.Title,
		Content:       p.Content,
		ImageURL:      p.ImageURL,
		Visibility:    string(p.Visibility),
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toPostResps(posts []*model.Post) []postResp {
	out := make([]postResp, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResp(p))
	}
	return out
}

func toCommentResp(cm *model.Comment) commentResp {
	return commentResp{
		ID:           cm.ID,
		PostID:       cm.PostID,
		AuthorID:     cm.AuthorID,
		AuthorHandle: cm.AuthorHandle,
		Content:      cm.Content,
		CreatedAt:    cm.CreatedAt,
	}
}

// Create publishes a post from a multipart form: content is required,
// title, image and visibility (default public) are optional.
func (h *PostHandler) Create(c echo.Context) error {
	viewer := middleware.Viewer(c)
	content := c.FormValue("content")
	if content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}
	vis, ok := model.ParseVisibility(c.FormValue("visibility"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid visibility"})
	}
	imageURL := ""
	if fh, err := c.FormFile("image"); err == nil {
		url, err := h.saveImage(fh)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store image failed"})
		}
		imageURL = url
	}
	p, err := h.Posts.Create(c.Request().Context(), viewer, service.CreatePostInput{
		Title:      c.FormValue("title"),
		Content:    content,
		ImageURL:   imageURL,
		Visibility: vis,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toPostResp(p))
}

// List returns public posts with optional author/search filters,
// sorted by created_at (default) or likes_count.
func (h *PostHandler) List(c echo.Context) error {
	page, limit := pageParams(c, 10)
	posts, _, err := h.Posts.ListPublic(c.Request().Context(), repository.PostFilter{
		AuthorHandle: c.QueryParam("username"),
		Query:        c.QueryParam("q"),
		Sort:         c.QueryParam("sort"),
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toPostResps(posts))
}

// GetOne returns a single post, gated by the visibility rules for the
// optional viewer.
func (h *PostHandler) GetOne(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	p, err := h.Posts.Get(c.Request().Context(), middleware.Viewer(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toPostResp(p))
}

// Update patches title/content/visibility/image from form fields;
// absent fields stay untouched. Author or admin only.
func (h *PostHandler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	var in service.UpdatePostInput
	if v, ok := formValue(c, "title"); ok {
		in.Title = &v
	}
	if v, ok := formValue(c, "content"); ok {
		in.Content = &v
	}
	if v, ok := formValue(c, "visibility"); ok {
		vis, valid := model.ParseVisibility(v)
		if !valid {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid visibility"})
		}
		in.Visibility = &vis
	}
	if fh, err := c.FormFile("image"); err == nil {
		url, err := h.saveImage(fh)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store image failed"})
		}
		in.ImageURL = &url
	}
	p, err := h.Posts.Update(c.Request().Context(), middleware.Viewer(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toPostResp(p))
}

// Delete removes a post. Author or admin only.
func (h *PostHandler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	if err := h.Posts.Delete(c.Request().Context(), middleware.Viewer(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Like records a like and returns the new count.
func (h *PostHandler) Like(c echo.Context) error {
	return h.likeChange(c, h.Posts.Like)
}

// Unlike removes the caller's like.
func (h *PostHandler) Unlike(c echo.Context) error {
	return h.likeChange(c, h.Posts.Unlike)
}

func (h *PostHandler) likeChange(c echo.Context, op func(ctx context.Context, viewer *model.User, id uuid.UUID) (int, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	count, err := op(c.Request().Context(), middleware.Viewer(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"likes_count": count})
}

// Likers lists accounts that liked the post.
func (h *PostHandler) Likers(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	users, err := h.Posts.Likers(c.Request().Context(), middleware.Viewer(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": toSummaries(users)})
}

// AddComment attaches a comment to a visible post.
func (h *PostHandler) AddComment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	content := c.FormValue("content")
	if content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}
	cm, err := h.Posts.AddComment(c.Request().Context(), middleware.Viewer(c), id, content)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toCommentResp(cm))
}

// ListComments pages through a post's comments.
func (h *PostHandler) ListComments(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	page, limit := pageParams(c, 10)
	comments, total, err := h.Posts.ListComments(c.Request().Context(), middleware.Viewer(c), id, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]commentResp, 0, len(comments))
	for _, cm := range comments {
		out = append(out, toCommentResp(cm))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"comments": out, "page": page, "limit": limit, "total": total,
	})
}

// DeleteComment removes a comment (comment author, post author or
// admin).
func (h *PostHandler) DeleteComment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}
	if err := h.Posts.DeleteComment(c.Request().Context(), middleware.Viewer(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Feed returns the viewer's personalized feed envelope.
func (h *PostHandler) Feed(c echo.Context) error {
	page, limit := pageParams(c, 10)
	posts, total, err := h.Posts.Feed(c.Request().Context(), middleware.Viewer(c), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"feed": toPostResps(posts), "page": page, "limit": limit, "total": total,
	})
}

func (h *PostHandler) saveImage(fh *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return "", err
	}
	name := uuid.New().String() + filepath.Ext(fh.Filename)
	dst, err := os.Create(filepath.Join(h.UploadDir, name))
	if err != nil {
		return "", err
	}
	defer func() { _ = dst.Close() }()
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = src.Close() }()
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return "/uploads/" + name, nil
}

// pageParams reads 1-based page and clamped limit query parameters.
func pageParams(c echo.Context, defLimit int) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = defLimit
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
