package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/georgemunganga/bikeshop-backend/internal/config"
	"github.com/georgemunganga/bikeshop-backend/internal/platform/cache"
	"github.com/georgemunganga/bikeshop-backend/internal/platform/docstore"
	"github.com/georgemunganga/bikeshop-backend/internal/platform/metrics"
	"github.com/georgemunganga/bikeshop-backend/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := cfg.NewLogger()

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	store, err := docstore.Open(startCtx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("document store ready", "driver", cfg.StoreDriver)

	var itemCache cache.Cache
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(startCtx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer rdb.Close()
		itemCache = cache.NewRedisCache(rdb, "bikeshop:item:", cfg.CacheTTL)
		logger.Info("item cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	}

	router := server.NewRouter(server.Deps{
		Store:     store,
		Cache:     itemCache,
		Metrics:   metrics.New(),
		Logger:    logger,
		TxTimeout: cfg.PurchaseTxTimeout,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}
