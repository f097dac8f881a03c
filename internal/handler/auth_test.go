package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/social-feed-api/internal/config"
	"github.com/iliyamo/social-feed-api/internal/handler"
	"github.com/iliyamo/social-feed-api/internal/model"
	"github.com/iliyamo/social-feed-api/internal/repository"
	"github.com/iliyamo/social-feed-api/internal/router"
	"github.com/iliyamo/social-feed-api/internal/service"
)

// linkRecorder stands in for the notification publisher and keeps the
// issued links where the test can read them.
type linkRecorder struct {
	links []string
}

func (r *linkRecorder) EmailVerificationIssued(_ context.Context, _ *model.User, link string) {
	r.links = append(r.links, link)
}

func (r *linkRecorder) PasswordResetIssued(_ context.Context, _ *model.User, link string) {
	r.links = append(r.links, link)
}

func newTestServer(t *testing.T) (*echo.Echo, *linkRecorder) {
	t.Helper()
	cfg := config.Config{
		Env:            "test",
		JWTSecret:      "test-secret",
		AccessTTLMin:   30,
		RefreshTTLDays: 7,
		EmailTTLHours:  24,
		ResetTTLMin:    30,
		BaseURL:        "http://localhost:8000",
		UploadDir:      t.TempDir(),
	}

	users := repository.NewMemoryUserStore()
	sessions := repository.NewMemorySessionStore()
	posts := repository.NewMemoryPostStore()

	rec := &linkRecorder{}
	auth := service.NewAuthService(cfg, users, sessions, rec)
	access := service.NewAccessController(users)
	graph := service.NewGraphService(users)
	postSvc := service.NewPostService(posts, users, access)

	e := echo.New()
	router.Register(e, router.Handlers{
		Auth:  handler.NewAuthHandler(auth),
		Users: handler.NewUserHandler(users, graph, cfg.UploadDir),
		Posts: handler.NewPostHandler(postSvc, cfg.UploadDir),
	}, auth, nil)
	return e, rec
}

func doJSON(e *echo.Echo, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func lastToken(t *testing.T, rec *linkRecorder) string {
	t.Helper()
	require.NotEmpty(t, rec.links)
	u, err := url.Parse(rec.links[len(rec.links)-1])
	require.NoError(t, err)
	tok := u.Query().Get("token")
	require.NotEmpty(t, tok)
	return tok
}

func TestAuthFlow(t *testing.T) {
	e, links := newTestServer(t)

	res := doJSON(e, http.MethodPost, "/v1/auth/register",
		`{"handle":"alice","email":"alice@example.com","password":"s3cret-pass"}`, "")
	require.Equal(t, http.StatusCreated, res.Code)

	// Login is refused until the emailed link is consumed.
	res = doJSON(e, http.MethodPost, "/v1/auth/login",
		`{"handle_or_email":"alice","password":"s3cret-pass"}`, "")
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = doJSON(e, http.MethodGet, "/v1/auth/verify-email?token="+lastToken(t, links), "", "")
	require.Equal(t, http.StatusOK, res.Code)

	res = doJSON(e, http.MethodPost, "/v1/auth/login",
		`{"handle_or_email":"alice","password":"s3cret-pass"}`, "")
	require.Equal(t, http.StatusOK, res.Code)

	var login struct {
		User struct {
			Handle        string `json:"handle"`
			EmailVerified bool   `json:"email_verified"`
		} `json:"user"`
		Access  struct{ Token string } `json:"access"`
		Refresh struct{ Token string } `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &login))
	assert.Equal(t, "alice", login.User.Handle)
	assert.True(t, login.User.EmailVerified)
	require.NotEmpty(t, login.Access.Token)
	require.NotEmpty(t, login.Refresh.Token)

	res = doJSON(e, http.MethodGet, "/v1/auth/me", "", login.Access.Token)
	require.Equal(t, http.StatusOK, res.Code)
	var me struct {
		Handle string `json:"handle"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &me))
	assert.Equal(t, "alice", me.Handle)

	// Refresh tokens are not accepted where an access token is due.
	res = doJSON(e, http.MethodGet, "/v1/auth/me", "", login.Refresh.Token)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = doJSON(e, http.MethodPost, "/v1/auth/refresh",
		`{"refresh_token":"`+login.Refresh.Token+`"}`, "")
	require.Equal(t, http.StatusOK, res.Code)
	var rotated struct {
		Refresh struct{ Token string } `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &rotated))

	// The rotated-out refresh token is spent.
	res = doJSON(e, http.MethodPost, "/v1/auth/refresh",
		`{"refresh_token":"`+login.Refresh.Token+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = doJSON(e, http.MethodPost, "/v1/auth/logout",
		`{"refresh_token":"`+rotated.Refresh.Token+`"}`, "")
	require.Equal(t, http.StatusNoContent, res.Code)

	res = doJSON(e, http.MethodPost, "/v1/auth/refresh",
		`{"refresh_token":"`+rotated.Refresh.Token+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRegister_DuplicateHandle(t *testing.T) {
	e, _ := newTestServer(t)

	res := doJSON(e, http.MethodPost, "/v1/auth/register",
		`{"handle":"alice","email":"alice@example.com","password":"s3cret-pass"}`, "")
	require.Equal(t, http.StatusCreated, res.Code)

	res = doJSON(e, http.MethodPost, "/v1/auth/register",
		`{"handle":"alice","email":"second@example.com","password":"s3cret-pass"}`, "")
	assert.Equal(t, http.StatusConflict, res.Code)
}

func TestLogin_BadCredentialsIndistinguishable(t *testing.T) {
	e, links := newTestServer(t)

	res := doJSON(e, http.MethodPost, "/v1/auth/register",
		`{"handle":"alice","email":"alice@example.com","password":"s3cret-pass"}`, "")
	require.Equal(t, http.StatusCreated, res.Code)
	res = doJSON(e, http.MethodGet, "/v1/auth/verify-email?token="+lastToken(t, links), "", "")
	require.Equal(t, http.StatusOK, res.Code)

	wrongPass := doJSON(e, http.MethodPost, "/v1/auth/login",
		`{"handle_or_email":"alice","password":"nope"}`, "")
	noUser := doJSON(e, http.MethodPost, "/v1/auth/login",
		`{"handle_or_email":"ghost","password":"nope"}`, "")

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, noUser.Code)
	assert.JSONEq(t, wrongPass.Body.String(), noUser.Body.String())
}

func TestPasswordResetEndpoints(t *testing.T) {
	e, links := newTestServer(t)

	res := doJSON(e, http.MethodPost, "/v1/auth/register",
		`{"handle":"alice","email":"alice@example.com","password":"old-pass-123"}`, "")
	require.Equal(t, http.StatusCreated, res.Code)
	res = doJSON(e, http.MethodGet, "/v1/auth/verify-email?token="+lastToken(t, links), "", "")
	require.Equal(t, http.StatusOK, res.Code)

	// The ack never reveals whether the address is registered.
	known := doJSON(e, http.MethodPost, "/v1/auth/password-reset/request",
		`{"email":"alice@example.com"}`, "")
	unknown := doJSON(e, http.MethodPost, "/v1/auth/password-reset/request",
		`{"email":"ghost@example.com"}`, "")
	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, http.StatusOK, unknown.Code)
	assert.JSONEq(t, known.Body.String(), unknown.Body.String())

	res = doJSON(e, http.MethodPost, "/v1/auth/password-reset/confirm",
		`{"token":"`+lastToken(t, links)+`","new_password":"new-pass-456"}`, "")
	require.Equal(t, http.StatusOK, res.Code)

	res = doJSON(e, http.MethodPost, "/v1/auth/login",
		`{"handle_or_email":"alice","password":"old-pass-123"}`, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	res = doJSON(e, http.MethodPost, "/v1/auth/login",
		`{"handle_or_email":"alice","password":"new-pass-456"}`, "")
	assert.Equal(t, http.StatusOK, res.Code)
}
