package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/social-feed-api/internal/middleware"
	"github.com/iliyamo/social-feed-api/internal/model"
	"github.com/iliyamo/social-feed-api/internal/repository"
	"github.com/iliyamo/social-feed-api/internal/service"
)

// UserHandler serves profiles, profile updates and follow management.
type UserHandler struct {
	Users     repository.UserStore
	Graph     *service.GraphService
	UploadDir string
}

func NewUserHandler(users repository.UserStore, graph *service.GraphService, uploadDir string) *UserHandler {
	return &UserHandler{Users: users, Graph: graph, UploadDir: uploadDir}
}

// ----- DTOs -----

type profileResp struct {
	Handle         string     `json:"handle"`
	DisplayName    string     `json:"display_name,omitempty"`
	Bio            string     `json:"bio,omitempty"`
	AvatarURL      string     `json:"avatar_url,omitempty"`
	FollowersCount int        `json:"followers_count"`
	FollowingCount int        `json:"following_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

type followerSummary struct {
	ID          uuid.UUID `json:"id"`
	Handle      string    `json:"handle"`
	DisplayName string    `json:"display_name,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
}

func toProfile(u *model.User) profileResp {
	p := profileResp{
		Handle:         u.Handle,
		DisplayName:    u.DisplayName,
		Bio:            u.Bio,
		AvatarURL:      u.AvatarURL,
		FollowersCount: len(u.Followers),
		FollowingCount: len(u.Following),
		CreatedAt:      u.CreatedAt,
	}
	if !u.UpdatedAt.Equal(u.CreatedAt) {
		at := u.UpdatedAt
		p.UpdatedAt = &at
	}
	return p
}

func toSummaries(users []*model.User) []followerSummary {
	out := make([]followerSummary, 0, len(users))
	for _, u := range users {
		out = append(out, followerSummary{
			ID:          u.ID,
			Handle:      u.Handle,
			DisplayName: u.DisplayName,
			AvatarURL:   u.AvatarURL,
		})
	}
	return out
}

// GetProfile returns the public profile behind a handle.
func (h *UserHandler) GetProfile(c echo.Context) error {
	u, err := h.Users.GetByHandle(c.Request().Context(), c.Param("handle"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toProfile(u))
}

// UpdateMe patches the caller's display name, bio and avatar. Fields
// absent from the multipart form stay untouched. The avatar file is
// stored under UPLOAD_DIR/avatars and referenced by URL.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	viewer := middleware.Viewer(c)
	u, err := h.Users.GetByID(c.Request().Context(), viewer.ID)
	if err != nil {
		return writeError(c, err)
	}

	if v, ok := formValue(c, "display_name"); ok {
		u.DisplayName = v
	}
	if v, ok := formValue(c, "bio"); ok {
		u.Bio = v
	}
	if fh, err := c.FormFile("avatar"); err == nil {
		url, err := h.saveAvatar(fh, u.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store avatar failed"})
		}
		u.AvatarURL = url
	}

	if err := h.Users.UpdateProfile(c.Request().Context(), u); err != nil {
		return writeError(c, err)
	}
	u, err = h.Users.GetByID(c.Request().Context(), viewer.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toProfile(u))
}

// Follow adds the caller to the target's followers.
func (h *UserHandler) Follow(c echo.Context) error {
	target, err := h.Graph.Follow(c.Request().Context(), middleware.Viewer(c), c.Param("handle"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toProfile(target))
}

// Unfollow removes the edge.
func (h *UserHandler) Unfollow(c echo.Context) error {
	target, err := h.Graph.Unfollow(c.Request().Context(), middleware.Viewer(c), c.Param("handle"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toProfile(target))
}

// Followers lists accounts following the handle.
func (h *UserHandler) Followers(c echo.Context) error {
	handle := c.Param("handle")
	u, err := h.Users.GetByHandle(c.Request().Context(), handle)
	if err != nil {
		return writeError(c, err)
	}
	users, err := h.Users.ListFollowers(c.Request().Context(), u.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"handle": handle, "followers": toSummaries(users)})
}

// Following lists accounts the handle follows.
func (h *UserHandler) Following(c echo.Context) error {
	handle := c.Param("handle")
	u, err := h.Users.GetByHandle(c.Request().Context(), handle)
	if err != nil {
		return writeError(c, err)
	}
	users, err := h.Users.ListFollowing(c.Request().Context(), u.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"handle": handle, "following": toSummaries(users)})
}

func (h *UserHandler) saveAvatar(fh *multipart.FileHeader, id uuid.UUID) (string, error) {
	dir := filepath.Join(h.UploadDir, "avatars")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := id.String() + filepath.Ext(fh.Filename)
	dst, err := os.Create(filepath.Join(dir, name))
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
	return "/uploads/avatars/" + name, nil
}

// formValue distinguishes "field absent" from "field set to empty".
func formValue(c echo.Context, key string) (string, bool) {
	if form, err := c.MultipartForm(); err == nil {
		if vs, ok := form.Value[key]; ok && len(vs) > 0 {
			return vs[0], true
		}
		return "", false
	}
	if err := c.Request().ParseForm(); err != nil {
		return "", false
	}
	if vs, ok := c.Request().PostForm[key]; ok && len(vs) > 0 {
		return vs[0], true
	}
	return "", false
}
