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

	"campaign-platform/internal/audit"
	"campaign-platform/internal/auth"
	"campaign-platform/internal/config"
	"campaign-platform/internal/httpapi"
	"campaign-platform/internal/observability"
	"campaign-platform/internal/petitions"
	"campaign-platform/internal/schema"
	"campaign-platform/internal/session"
	"campaign-platform/internal/tenants"
	"campaign-platform/internal/users"
	"campaign-platform/pkg/logger"
	"campaign-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

const refreshTokenSweepInterval = time.Hour

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)
	rootCtx = logger.With(rootCtx, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.App.MigrateOnStart {
		if err := schema.Migrate(rootCtx, db); err != nil {
			log.Error("migration failed", "err", err)
			os.Exit(1)
		}
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Services
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	refreshTokens := session.NewRepository(db)
	sessions := session.NewService(users.NewRepository(db), refreshTokens, authManager, auditSvc)
	petitionSvc := petitions.NewService(petitions.NewRepository(db), petitions.NewRedisCounter(rdb, 0))
	tenantSvc := tenants.NewService(db, auditSvc)

	h := httpapi.Handlers{
		Sessions:  sessions,
		Petitions: petitionSvc,
		Tenants:   tenantSvc,
		Checks: []httpapi.Check{
			{Name: "postgres", Fn: db.Ping},
			{Name: "redis", Fn: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		},
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(observability.Middleware())
	r.Use(audit.ClientIP())

	registerRoutes(r, h, authManager)

	go sweepRefreshTokens(rootCtx, refreshTokens)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           withCORS(r, cfg.CORS.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

// sweepRefreshTokens purges expired refresh token rows until ctx is done.
// Expired rows are already unusable; this only bounds table growth.
func sweepRefreshTokens(ctx context.Context, repo *session.Repository) {
	t := time.NewTicker(refreshTokenSweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.DeleteExpired(ctx, now.UTC())
			if err != nil {
				logger.From(ctx).Warn("refresh token sweep failed", "err", err)
				continue
			}
			if n > 0 {
				logger.From(ctx).Info("refresh tokens swept", "deleted", n)
			}
		}
	}
}
