package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/amparo-cms/amparo-cms/internal/app"
	"github.com/amparo-cms/amparo-cms/internal/auth"
	"github.com/amparo-cms/amparo-cms/internal/authn"
	"github.com/amparo-cms/amparo-cms/internal/authz"
	"github.com/amparo-cms/amparo-cms/internal/observability"
	"github.com/amparo-cms/amparo-cms/internal/platform/cache"
	"github.com/amparo-cms/amparo-cms/internal/platform/db"
	"github.com/amparo-cms/amparo-cms/internal/rbac"
	"github.com/amparo-cms/amparo-cms/internal/token"
	"github.com/amparo-cms/amparo-cms/internal/users"
)

const shutdownGrace = 10 * time.Second

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	codec := token.NewCodec(cfg.JWTSecret, cfg.JWTTTL)
	revocations := authn.NewRevocationStore(redisClient)
	userSource := authn.NewRepository(pool)

	gate := authn.Gate{
		Codec:       codec,
		Users:       userSource,
		Revocations: revocations,
		Logger:      logger,
	}
	authzMW := authz.Middleware{
		Source: authz.NewRepository(pool),
		Logger: logger,
	}

	guard := rbac.NewAdminGuard(pool)

	authService := auth.NewService(userSource, codec, revocations)
	authHandler := auth.NewHandler(logger, authService, gate)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, guard)
	usersHandler := users.NewHandler(logger, usersService, gate, authzMW)

	rbacService := rbac.NewService(rbac.NewRepository(pool))
	rbacHandler := rbac.NewHandler(logger, rbacService, gate, authzMW)

	metrics := observability.NewMetrics()

	handler := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Gate:               gate,
		Authz:              authzMW,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		PermissionsHandler: rbacHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      handler,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
