package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kosench/linkpulse/internal/auth"
	"github.com/Kosench/linkpulse/internal/cache"
	"github.com/Kosench/linkpulse/internal/config"
	"github.com/Kosench/linkpulse/internal/database"
	"github.com/Kosench/linkpulse/internal/handler"
	"github.com/Kosench/linkpulse/internal/logger"
	"github.com/Kosench/linkpulse/internal/repository"
	"github.com/Kosench/linkpulse/internal/service"
)

// storage - выбранное хранилище и его проверки для /health
type storage struct {
	links   repository.LinkRepository
	clicks  repository.ClickRepository
	users   repository.UserRepository
	probe   handler.Probe
	version func(ctx context.Context) (string, error)
	close   func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	log, logCloser := logger.New(cfg.Log, cfg.IsProduction())
	defer logCloser.Close()
	slog.SetDefault(log)

	store, err := openStorage(cfg, log)
	if err != nil {
		log.Error("failed to open storage", slog.String("storage", cfg.App.Storage), slog.Any("error", err))
		os.Exit(1)
	}
	defer store.close()

	// Redis нужен только для лимитов, без него работаем на счетчике в памяти
	var limiter cache.RateLimiter = cache.NewMemoryLimiter()
	var cacheProbe handler.Probe
	keys := cache.NewKeyBuilder(cfg.Redis.Namespace)

	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Warn("failed to connect to Redis, using in-memory rate limiter", slog.Any("error", err))
		} else {
			defer redisClient.Close()
			limiter = redisClient
			cacheProbe = redisClient.HealthCheck
			keys = redisClient.GetKeyBuilder()
			log.Info("connected to Redis", slog.String("addr", cfg.Redis.Host+":"+cfg.Redis.Port))
		}
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	linkService := service.NewLinkService(store.links, store.clicks, cfg.App.ShortCodeLength, cfg.App.MaxRetries, log)
	userService := service.NewUserService(store.users, tokens, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := handler.NewRouter(handler.RouterConfig{
		TrustedProxies: cfg.Server.TrustedProxies,
		AllowedOrigins: cfg.GetAllowedOrigins(),
		RateLimit:      cfg.RateLimit.Requests,
		LoginRateLimit: cfg.RateLimit.LoginRequests,
		RateWindow:     cfg.RateLimit.Window,
	}, handler.Dependencies{
		Resolver: linkService,
		Links:    linkService,
		Users:    userService,
		Tokens:   tokens,
		Limiter:  limiter,
		Keys:     keys,
		Health:   handler.NewHealthHandler(cfg.App.Storage, store.probe, cacheProbe, store.version),
		Log:      log,
	})
	if err != nil {
		log.Error("failed to build router", slog.Any("error", err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info("server starting",
			slog.String("addr", cfg.GetServerAddress()),
			slog.String("base_url", cfg.GetBaseURL()),
			slog.String("storage", cfg.App.Storage),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", slog.Any("error", err))
		return
	}

	log.Info("server gracefully stopped")
}

func openStorage(cfg *config.Config, log *slog.Logger) (*storage, error) {
	if cfg.App.Storage == config.StorageMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		mem := repository.NewMemoryStore()
		return &storage{
			links:  mem.Links(),
			clicks: mem.Clicks(),
			users:  mem.Users(),
			close:  func() error { return nil },
		}, nil
	}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database.DSN(), log); err != nil {
			return nil, err
		}
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	log.Info("connected to database", slog.String("host", cfg.Database.Host), slog.String("db", cfg.Database.DBName))

	return &storage{
		links:   repository.NewPostgresLinkRepository(db),
		clicks:  repository.NewPostgresClickRepository(db),
		users:   repository.NewPostgresUserRepository(db),
		probe:   func(ctx context.Context) error { return database.HealthCheck(ctx, db) },
		version: func(ctx context.Context) (string, error) { return database.GetVersion(ctx, db) },
		close:   db.Close,
	}, nil
}

