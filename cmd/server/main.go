package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/kyungh/bulletin-board/internal/auth"
	"github.com/kyungh/bulletin-board/internal/config"
	"github.com/kyungh/bulletin-board/internal/database"
	"github.com/kyungh/bulletin-board/internal/handler"
	"github.com/kyungh/bulletin-board/internal/middleware"
	"github.com/kyungh/bulletin-board/internal/queue"
	"github.com/kyungh/bulletin-board/internal/repository"
	"github.com/kyungh/bulletin-board/internal/router"
	"github.com/kyungh/bulletin-board/internal/session"
	"github.com/kyungh/bulletin-board/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	members := repository.NewMemberRepo(db)
	posts := repository.NewPostRepo(db)

	files, err := storage.New(cfg.UploadDir)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting disabled, sessions in memory")
	}

	// Pick the auth strategy and matching identity resolver.
	var (
		strategy auth.Strategy
		identity echo.MiddlewareFunc
	)
	switch cfg.AuthMode {
	case config.ModeSession:
		var store session.Store
		if rdb != nil {
			store = session.NewRedisStore(rdb)
		} else {
			store = session.NewMemoryStore()
		}
		ttl := time.Duration(cfg.SessionTTLHours) * time.Hour
		strategy = auth.NewSessionStrategy(store, ttl)
		identity = middleware.SessionAuth(store, members)
	default:
		strategy = auth.NewTokenStrategy(cfg.AccessSecret, cfg.RefreshSecret,
			cfg.AccessTTLMin, cfg.RefreshTTLHours, members)
		identity = middleware.BearerAuth(cfg.AccessSecret)
	}

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	audit := queue.Publisher{}
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	authHandler := handler.NewAuthHandler(cfg, members, strategy, audit)
	memberHandler := handler.NewMemberHandler(cfg, members, audit)
	postHandler := handler.NewPostHandler(posts, files, audit)

	router.Register(e, authHandler, memberHandler, postHandler, identity, limiter, files.Dir())

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s mode=%s)", addr, cfg.Env, cfg.AuthMode)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
