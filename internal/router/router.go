// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/social-feed-api/internal/config"
	"github.com/iliyamo/social-feed-api/internal/handler"
	"github.com/iliyamo/social-feed-api/internal/middleware"
	"github.com/iliyamo/social-feed-api/internal/service"
)

// Handlers groups the handler set passed to Register.
type Handlers struct {
	Auth  *handler.AuthHandler
	Users *handler.UserHandler
	Posts *handler.PostHandler
}

// Register mounts every route of the API. The auth group carries the
// rate limiter, the public post listing carries the response cache,
// and protected routes require a resolved viewer.
func Register(e *echo.Echo, h Handlers, auth *service.AuthService, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	requireAuth := middleware.RequireAuth(auth)
	optionalAuth := middleware.OptionalAuth(auth)
	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Session lifecycle. Logout takes either an Authorization header
	// or a refresh_token body, so it stays outside the protected group.
	ag := e.Group("/v1/auth", rateLimit)
	ag.POST("/register", h.Auth.Register)
	ag.POST("/login", h.Auth.Login)
	ag.POST("/refresh", h.Auth.Refresh)
	ag.POST("/logout", h.Auth.Logout)
	ag.GET("/verify-email", h.Auth.VerifyEmail)
	ag.POST("/password-reset/request", h.Auth.RequestPasswordReset)
	ag.POST("/password-reset/confirm", h.Auth.ConfirmPasswordReset)
	ag.GET("/me", h.Auth.Me, requireAuth)

	// Profiles and the follower graph.
	e.GET("/v1/users/:handle", h.Users.GetProfile)
	e.GET("/v1/users/:handle/followers", h.Users.Followers)
	e.GET("/v1/users/:handle/following", h.Users.Following)
	e.PATCH("/v1/users/me", h.Users.UpdateMe, requireAuth)
	e.POST("/v1/users/:handle/follow", h.Users.Follow, requireAuth)
	e.DELETE("/v1/users/:handle/follow", h.Users.Unfollow, requireAuth)

	// Posts. Reads resolve the viewer opportunistically so the
	// visibility rules can admit followers and owners.
	e.GET("/v1/posts", h.Posts.List, cache)
	e.GET("/v1/posts/:id", h.Posts.GetOne, optionalAuth)
	e.POST("/v1/posts", h.Posts.Create, requireAuth)
	e.PATCH("/v1/posts/:id", h.Posts.Update, requireAuth)
	e.DELETE("/v1/posts/:id", h.Posts.Delete, requireAuth)

	// Likes and comments.
	e.POST("/v1/posts/:id/like", h.Posts.Like, requireAuth)
	e.DELETE("/v1/posts/:id/like", h.Posts.Unlike, requireAuth)
	e.GET("/v1/posts/:id/likes", h.Posts.Likers, optionalAuth)
	e.POST("/v1/posts/:id/comments", h.Posts.AddComment, requireAuth)
	e.GET("/v1/posts/:id/comments", h.Posts.ListComments, optionalAuth)
	e.DELETE("/v1/comments/:id", h.Posts.DeleteComment, requireAuth)

	// Personalized feed.
	e.GET("/v1/feed", h.Posts.Feed, requireAuth)
}
