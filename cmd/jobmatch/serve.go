package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/transport/pgnotify"
	chiTransport "github.com/kailas-cloud/jobmatch/internal/transport/chi"
	"github.com/kailas-cloud/jobmatch/internal/version"
)

const badgerGCInterval = 5 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the cache invalidation listener",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, env, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting jobmatch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", zap.Error(err))
		return err
	}
	defer a.Close()

	bg, cancelBg := context.WithCancel(ctx)
	defer cancelBg()

	if ch := cfg.Postgres.NotifyChannel; ch != "" {
		go pgnotify.New(a.pg, ch, a.invalidation, logger).Run(bg)
	}
	if a.badger != nil && cfg.Cache.BadgerPath != "" {
		go a.badger.RunGC(bg, badgerGCInterval)
	}

	server := chiTransport.NewServer(a.search, a.recommend, a.invalidation, a.health, chiTransport.Config{
		APIKeys:              cfg.Auth.APIKeys,
		SearchLimits:         searchLimits(cfg),
		RecommendationLimits: recommendationLimits(cfg),
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-errCh:
		logger.Error("HTTP server error", zap.Error(err))
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
