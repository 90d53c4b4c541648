package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vitrine-atacado/api/internal/di"
	"github.com/vitrine-atacado/api/internal/handlers"
	"github.com/vitrine-atacado/api/internal/platform/config"
	"github.com/vitrine-atacado/api/internal/platform/observability"
	redisrepo "github.com/vitrine-atacado/api/internal/repositories/redis"
)

const couponRateLimitPerMinute = 10

func main() {
	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	repo, err := redisrepo.NewCartRepository(redisClient, redisrepo.Options{
		KeyPrefix: cfg.Redis.KeyPrefix,
		TTL:       cfg.Redis.CartTTL,
	})
	if err != nil {
		logger.Fatal("failed to initialise cart repository", zap.Error(err))
	}

	container, err := di.NewContainer(cfg, repo, logger)
	if err != nil {
		logger.Fatal("failed to build container", zap.Error(err))
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Warn("repository close error", zap.Error(err))
		}
	}()

	cartHandlers := handlers.NewCartHandlers(
		container.Services.Carts,
		container.Services.Coupons,
		handlers.WithCouponRateLimit(couponRateLimitPerMinute, time.Minute),
	)
	checkoutHandlers := handlers.NewCheckoutHandlers(container.Services.Carts, container.Services.Composer)
	adminHandlers := handlers.NewAdminHandlers(container.Services.Carts, cfg.Admin.MaxListLimit)

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthDependency("redis", handlers.DependencyPingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})),
	)

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
		handlers.SessionMiddleware(),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithCartRoutes(cartHandlers.Routes),
		handlers.WithCheckoutRoutes(checkoutHandlers.Routes),
		handlers.WithAdminRoutes(adminHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("vitrine-atacado api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
