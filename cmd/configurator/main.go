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

	"go.uber.org/zap"

	"apparel-configurator/internal/api"
	"apparel-configurator/internal/catalog"
	"apparel-configurator/internal/config"
	"apparel-configurator/internal/designs"
	"apparel-configurator/internal/shopify"
	"apparel-configurator/internal/storage"
	cache "apparel-configurator/internal/storage/redis"
	"apparel-configurator/pkg/logger"
	"apparel-configurator/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	if err := run(ctx, cfg, zapLogger); err != nil {
		zapLogger.Fatal("Server stopped with error", zap.Error(err))
	}

	zapLogger.Info("Server shutdown gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	redisClient := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx); err != nil {
		// Cache and rate limiting degrade; quoting keeps working.
		logger.Warn("Redis unavailable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	redisStorage := cache.New(redisClient, redisClient.TTL())

	pgStorage, err := storage.NewPostgresStorage(ctx, cfg.Database, redisClient, logger)
	if err != nil {
		return fmt.Errorf("init PostgreSQL storage: %w", err)
	}
	defer pgStorage.Close()

	if err := storage.RunMigrations(ctx, pgStorage.DB(), logger); err != nil {
		return err
	}

	shopifyClient, err := shopify.NewClient(cfg.Shopify, cfg.HTTPRequestTimeout, logger)
	if err != nil {
		return err
	}

	router := api.NewRouter(cfg, api.Services{
		Catalog: catalog.NewService(shopifyClient, redisStorage, shopifyClient, logger),
		Designs: designs.NewService(shopifyClient, logger),
		Quotes:  pgStorage,
		Limiter: redisStorage,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server is running",
			zap.String("port", cfg.Port),
			zap.String("shop", cfg.Shopify.ShopDomain),
			zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
