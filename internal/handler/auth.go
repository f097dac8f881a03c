package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/social-feed-api/internal/middleware"
	"github.com/iliyamo/social-feed-api/internal/model"
	"github.com/iliyamo/social-feed-api/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(a *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: a}
}

// ----- DTOs -----

type registerReq struct {
	Handle   string `json:"handle"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	HandleOrEmail string `json:"handle_or_email"`
	Password      string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type resetRequestReq struct {
	Email string `json:"email"`
}
type resetConfirmReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID            uuid.UUID `json:"id"`
	Handle        string    `json:"handle"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUserPart(u *model.User) userPart {
	return userPart{
		ID:            u.ID,
		Handle:        u.Handle,
		Email:         u.Email,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

func toAuthResp(u *model.User, pair service.TokenPair) authResp {
	return authResp{
		User:    toUserPart(u),
		Access:  tokenPart{Token: pair.Access.Value, Expires: pair.Access.ExpiresAt},
		Refresh: tokenPart{Token: pair.Refresh.Value, Expires: pair.Refresh.ExpiresAt},
	}
}

// Register creates the account and tells the client to verify the
// email before logging in. No tokens are returned yet.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Handle = strings.TrimSpace(req.Handle)
	req.Email = strings.TrimSpace(req.Email)
	if req.Handle == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "handle/email/password required"})
	}
	u, err := h.Auth.Register(c.Request().Context(), req.Handle, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"user":    toUserPart(u),
		"message": "verification link sent",
	})
}

// Login verifies credentials and returns a fresh access+refresh pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.HandleOrEmail = strings.TrimSpace(req.HandleOrEmail)
	if req.HandleOrEmail == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "handle_or_email/password required"})
	}
	u, pair, err := h.Auth.Login(c.Request().Context(), req.HandleOrEmail, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAuthResp(u, pair))
}

// Refresh rotates the refresh credential and returns a new pair. A
// superseded or revoked credential yields 401.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	u, pair, err := h.Auth.Refresh(c.Request().Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAuthResp(u, pair))
}

// Logout revokes the caller's refresh session. The account is taken
// from the Authorization header when present, otherwise from a
// refresh_token in the body, so a session can be ended even after the
// access token was discarded.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw := ""
	if h := c.Request().Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		raw = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if raw == "" {
		var req refreshReq
		_ = c.Bind(&req)
		raw = strings.TrimSpace(req.RefreshToken)
	}
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
	}
	if err := h.Auth.Logout(c.Request().Context(), raw); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// VerifyEmail consumes the emailed token. Tokens of any other kind are
// rejected even when cryptographically valid.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	if err := h.Auth.VerifyEmail(c.Request().Context(), token); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified"})
}

// RequestPasswordReset acknowledges identically whether or not the
// email matches an account.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req resetRequestReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	_ = h.Auth.RequestPasswordReset(c.Request().Context(), strings.TrimSpace(req.Email))
	return c.JSON(http.StatusOK, echo.Map{"message": "if the email exists, a reset link has been sent"})
}

// ConfirmPasswordReset consumes the reset token and stores the new
// password.
func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
	var req resetConfirmReq
	if err := c.Bind(&req); err != nil || req.Token == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token/new_password required"})
	}
	if err := h.Auth.ConfirmPasswordReset(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password reset successful"})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c echo.Context) error {
	u := middleware.Viewer(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}
