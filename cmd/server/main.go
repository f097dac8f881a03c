package main // Entry point package

import (
	"log"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/social-feed-api/internal/config"
	"github.com/iliyamo/social-feed-api/internal/database"
	"github.com/iliyamo/social-feed-api/internal/handler"
	"github.com/iliyamo/social-feed-api/internal/notify"
	"github.com/iliyamo/social-feed-api/internal/queue"
	"github.com/iliyamo/social-feed-api/internal/repository"
	"github.com/iliyamo/social-feed-api/internal/router"
	"github.com/iliyamo/social-feed-api/internal/service"
)

func main() {
	cfg := config.Load()

	var (
		users    repository.UserStore
		sessions repository.SessionStore
	)
	switch cfg.StoreDriver {
	case "mysql":
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("open mysql: %v", err)
		}
		users = repository.NewMySQLUserStore(db)
		sessions = repository.NewMySQLSessionStore(db)
	default:
		users = repository.NewMemoryUserStore()
		sessions = repository.NewMemorySessionStore()
	}
	// Posts are held in memory in every configuration; content is
	// treated as volatile.
	posts := repository.NewMemoryPostStore()

	authSvc := service.NewAuthService(cfg, users, sessions, notify.NewPublisher())
	access := service.NewAccessController(users)
	graphSvc := service.NewGraphService(users)
	postSvc := service.NewPostService(posts, users, access)

	// Background consumer that writes verification/reset links to
	// logs/notifications.log.
	go queue.StartNotificationConsumer()

	e := echo.New()
	e.Static("/uploads", cfg.UploadDir)
	router.Register(e, router.Handlers{
		Auth:  handler.NewAuthHandler(authSvc),
		Users: handler.NewUserHandler(users, graphSvc, cfg.UploadDir),
		Posts: handler.NewPostHandler(postSvc, cfg.UploadDir),
	}, authSvc, config.NewRedisClient())

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.StoreDriver)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
