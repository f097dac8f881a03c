package service

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/social-feed-api/internal/config"
	"github.com/iliyamo/social-feed-api/internal/model"
	"github.com/iliyamo/social-feed-api/internal/repository"
	"github.com/iliyamo/social-feed-api/internal/utils"
)

// recorderNotifier captures issued links so tests can pull the raw
// credential back out of the query string.
type recorderNotifier struct {
	verifyLinks []string
	resetLinks  []string
}

func (r *recorderNotifier) EmailVerificationIssued(_ context.Context, _ *model.User, link string) {
	r.verifyLinks = append(r.verifyLinks, link)
}

func (r *recorderNotifier) PasswordResetIssued(_ context.Context, _ *model.User, link string) {
	r.resetLinks = append(r.resetLinks, link)
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	tok := u.Query().Get("token")
	require.NotEmpty(t, tok)
	return tok
}

func testConfig() config.Config {
	return config.Config{
		Env:            "test",
		JWTSecret:      "test-secret",
		AccessTTLMin:   30,
		RefreshTTLDays: 7,
		EmailTTLHours:  24,
		ResetTTLMin:    30,
		BaseURL:        "http://localhost:8000",
	}
}

func newAuthFixture(t *testing.T) (*AuthService, *recorderNotifier) {
	t.Helper()
	rec := &recorderNotifier{}
	svc := NewAuthService(testConfig(), repository.NewMemoryUserStore(), repository.NewMemorySessionStore(), rec)
	return svc, rec
}

// registerVerified registers an account and walks it through email
// verification so login works.
func registerVerified(t *testing.T, svc *AuthService, rec *recorderNotifier, handle, email, password string) *model.User {
	t.Helper()
	ctx := context.Background()
	u, err := svc.Register(ctx, handle, email, password)
	require.NoError(t, err)
	require.NoError(t, svc.VerifyEmail(ctx, tokenFromLink(t, rec.verifyLinks[len(rec.verifyLinks)-1])))
	return u
}

func TestRegister_Conflicts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newAuthFixture(t)

	u, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.True(t, u.IsActive)
	assert.False(t, u.EmailVerified)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)

	_, err = svc.Register(ctx, "alice", "other@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, repository.ErrConflict)
	_, err = svc.Register(ctx, "other", "alice@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestLogin_RequiresVerifiedEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, rec := newAuthFixture(t)

	_, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice", "s3cret-pass")
	assert.ErrorIs(t, err, ErrEmailUnverified)

	// A wrong password stays indistinguishable from an unknown account
	// even while the email is unverified.
	_, _, err = svc.Login(ctx, "alice", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.VerifyEmail(ctx, tokenFromLink(t, rec.verifyLinks[0])))

	u, pair, err := svc.Login(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Handle)
	assert.NotEmpty(t, pair.Access.Value)
	assert.NotEmpty(t, pair.Refresh.Value)
}

func TestLogin_UnknownAccount(t *testing.T) {
	t.Parallel()
	svc, _ := newAuthFixture(t)

	_, _, err := svc.Login(context.Background(), "nobody", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_ByEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, rec := newAuthFixture(t)
	registerVerified(t, svc, rec, "alice", "alice@example.com", "s3cret-pass")

	_, _, err := svc.Login(ctx, "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
}

func TestVerifyEmail_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := repository.NewMemoryUserStore()
	rec := &recorderNotifier{}
	svc := NewAuthService(testConfig(), users, repository.NewMemorySessionStore(), rec)

	u, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	tok := tokenFromLink(t, rec.verifyLinks[0])

	require.NoError(t, svc.VerifyEmail(ctx, tok))
	first, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, first.EmailVerified)
	require.NotNil(t, first.EmailVerifiedAt)

	// Consuming the same link again succeeds and restamps the time.
	require.NoError(t, svc.VerifyEmail(ctx, tok))
	second, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, second.EmailVerified)
	require.NotNil(t, second.EmailVerifiedAt)
	assert.False(t, second.EmailVerifiedAt.Before(*first.EmailVerifiedAt))
}

func TestVerifyEmail_WrongKindRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, rec := newAuthFixture(t)
	registerVerified(t, svc, rec, "alice", "alice@example.com", "s3cret-pass")

	_, pair, err := svc.Login(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)

	// Access and refresh tokens must not pass as verification links.
	assert.ErrorIs(t, svc.VerifyEmail(ctx, pair.Access.Value), utils.ErrWrongKind)
	assert.ErrorIs(t, svc.VerifyEmail(ctx, pair.Refresh.Value), utils.ErrWrongKind)
}

func TestRefresh_Rotation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, rec := newAuthFixture(t)
	registerVerified(t, svc, rec, "alice", "alice@example.com", "s3cret-pass")

	_, p0, err := svc.Login(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)

	_, p1, err := svc.Refresh(ctx, p0.Refresh.Value)
	require.NoError(t, err)
	assert.NotEqual(t, p0.Refresh.Value, p1.Refresh.Value)

	// The rotated-out token is spent.
	_, _, err = svc.Refresh(ctx, p0.Refresh.Value)
	assert.ErrorIs(t, err, repository.ErrSessionMismatch)

	// The freshly issued one keeps working.
	_, _, err = svc.Refresh(ctx, p1.Refresh.Value)
	require.NoError(t, err)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, rec := newAuthFixture(t)
	registerVerified(t, svc, rec, "alice", "alice@example.com", "s3cret-pass")

	_, pair, err := svc.Login(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)

	_, _, err = svc.Refresh(ctx, pair.Access.Value)
	assert.ErrorIs(t, err, utils.ErrWrongKind)
}

func TestLogout_EndsRefreshLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, rec := newAuthFixture(t)
	registerVerified(t, svc, rec, "alice", "alice@example.com", "s3cret-pass")

	_, pair, err := svc.Login(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.Access.Value))

	_, _, err = svc.Refresh(ctx, pair.Refresh.Value)
	assert.ErrorIs(t, err, repository.ErrSessionRevoked)

	// Outstanding access tokens are not recalled by logout; they run
	// out on their own expiry.
	_, err = svc.Authenticate(ctx, pair.Access.Value)
	require.NoError(t, err)
}

func TestNewLoginDisplacesOldSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, rec := newAuthFixture(t)
	registerVerified(t, svc, rec, "alice", "alice@example.com", "s3cret-pass")

	_, p0, err := svc.Login(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)
	_, p1, err := svc.Login(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)

	_, _, err = svc.Refresh(ctx, p0.Refresh.Value)
	assert.ErrorIs(t, err, repository.ErrSessionMismatch)
	_, _, err = svc.Refresh(ctx, p1.Refresh.Value)
	require.NoError(t, err)
}

func TestPasswordReset_Flow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, rec := newAuthFixture(t)
	registerVerified(t, svc, rec, "alice", "alice@example.com", "old-pass-123")

	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))
	require.Len(t, rec.resetLinks, 1)

	reset := tokenFromLink(t, rec.resetLinks[0])
	require.NoError(t, svc.ConfirmPasswordReset(ctx, reset, "new-pass-456"))

	_, _, err := svc.Login(ctx, "alice", "old-pass-123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "alice", "new-pass-456")
	require.NoError(t, err)
}

func TestPasswordReset_UnknownEmailSilent(t *testing.T) {
	t.Parallel()
	svc, rec := newAuthFixture(t)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "nobody@example.com"))
	assert.Empty(t, rec.resetLinks)
}

func TestConfirmPasswordReset_WrongKind(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, rec := newAuthFixture(t)
	registerVerified(t, svc, rec, "alice", "alice@example.com", "s3cret-pass")

	_, pair, err := svc.Login(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ConfirmPasswordReset(ctx, pair.Refresh.Value, "new-pass"), utils.ErrWrongKind)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, rec := newAuthFixture(t)
	registerVerified(t, svc, rec, "alice", "alice@example.com", "s3cret-pass")

	_, pair, err := svc.Login(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, pair.Access.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Handle)

	// Refresh tokens do not authenticate requests.
	_, err = svc.Authenticate(ctx, pair.Refresh.Value)
	assert.ErrorIs(t, err, utils.ErrWrongKind)

	_, err = svc.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, utils.ErrTokenMalformed)
}
