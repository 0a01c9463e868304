package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mlozan/finrecord/internal/analytics"
	"github.com/mlozan/finrecord/internal/config"
	"github.com/mlozan/finrecord/internal/fieldcrypt"
	"github.com/mlozan/finrecord/internal/logging"
	"github.com/mlozan/finrecord/internal/metrics"
	"github.com/mlozan/finrecord/internal/repository"
	"github.com/mlozan/finrecord/internal/server"
	"github.com/mlozan/finrecord/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	cipher, err := fieldcrypt.New(cfg.Cipher.Key)
	if err != nil {
		logger.Error("failed to initialize field cipher", "error", err)
		os.Exit(1)
	}

	storeClient, err := store.NewMongo(ctx, store.Options{
		URI:            cfg.Store.URI,
		Database:       cfg.Store.Database,
		ConnectTimeout: cfg.Store.ConnectTimeout,
		MaxPoolSize:    uint64(cfg.Store.MaxPoolSize),
	})
	if err != nil {
		logger.Error("failed to connect to document store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := storeClient.Close(context.Background()); err != nil {
			logger.Warn("closing store client failed", "error", err)
		}
	}()

	users := repository.NewUsers(storeClient, cipher, cfg.Limits.ListMaxLimit)
	transactions := repository.NewTransactions(storeClient, users, cipher, cfg.Limits.AnalyticsMaxTransactions, cfg.Cache.TTL)
	analyticsSvc := analytics.NewService(transactions, cfg.Limits.AnalyticsMaxTransactions)
	apiHandlers := server.NewAPIHandlers(logger, users, transactions, analyticsSvc, cfg.Limits.ListMaxLimit)

	deps := server.RouterDependencies{
		Health:           server.StoreHealthService{Client: storeClient},
		API:              apiHandlers,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	}
	if cfg.HTTP.MetricsEnabled {
		registry := prometheus.NewRegistry()
		deps.Metrics = metrics.NewCollector(registry)
		deps.MetricsHandler = metrics.Handler(registry)
	}

	router := server.NewRouter(logger, deps)
	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
