// cmd/datawizard/serve.go
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

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/datawizard/pkg/analytics"
	"github.com/David-Botos/datawizard/pkg/api"
	"github.com/David-Botos/datawizard/pkg/catalog"
	"github.com/David-Botos/datawizard/pkg/cleaner"
	"github.com/David-Botos/datawizard/pkg/config"
	"github.com/David-Botos/datawizard/pkg/connector"
	"github.com/David-Botos/datawizard/pkg/counter"
	"github.com/David-Botos/datawizard/pkg/report"
	"github.com/David-Botos/datawizard/pkg/session"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conv := newConverter(cfg, logger)
	factory := connector.NewConnectorFactory(cfg, conv, logger)

	// Postgres is optional: it backs the run audit and the shared counter
	var pg *connector.PostgresConnector
	if cfg.Postgres != nil {
		var err error
		pg, err = factory.CreatePostgresConnector(ctx)
		if err != nil {
			logger.Warn("PostgreSQL unavailable, continuing without it", zap.Error(err))
		} else {
			defer pg.Close()
		}
	}

	var recorder cleaner.Recorder
	if pg != nil && cfg.Cleaning.AuditRuns {
		rec, err := cleaner.NewPostgresRecorder(ctx, pg.DB(), logger)
		if err != nil {
			logger.Warn("Cleaning runs will not be recorded", zap.Error(err))
		} else {
			recorder = rec
		}
	}

	dc, err := cleaner.NewDataCleaner(conv, recorder, logger)
	if err != nil {
		return fmt.Errorf("failed to create cleaner: %w", err)
	}

	store, closeStore := newCounterStore(ctx, cfg.Counter, pg)
	defer closeStore()
	visits, err := counter.New(store, logger)
	if err != nil {
		return fmt.Errorf("failed to create visit counter: %w", err)
	}

	handler := report.NewHandler(logger)
	projects, err := catalog.NewLoader(logger).LoadFile(cfg.Catalog.Path, handler)
	if err != nil {
		logger.Warn("Serving an empty catalog", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := analytics.NewMetrics(logger, registry)

	sessions := session.NewStore(cfg.Server.SessionTTL, catalog.Paging{
		PageSize:  cfg.Catalog.PageSize,
		Increment: cfg.Catalog.PageIncrement,
	}, logger)
	sessions.OnExpire(metrics.Forget)
	sessions.Start()
	defer sessions.Stop()

	srv, err := api.NewServer(api.Deps{
		Server:          cfg.Server,
		Cleaning:        cfg.Cleaning,
		Converter:       conv,
		Cleaner:         dc,
		Sessions:        sessions,
		Counter:         visits,
		Metrics:         metrics,
		Catalog:         projects,
		CatalogWarnings: handler.Warnings(),
		Registry:        registry,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening",
			zap.String("addr", cfg.Server.ListenAddr),
			zap.Int("projects", projects.Len()),
			zap.String("counter", store.Name()))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", zap.Error(err))
		}
	}

	logger.Info("Usage report", zap.String("report", metrics.GenerateReport()))
	return nil
}

// newCounterStore opens the configured counter backend. A backend that cannot
// be reached falls back to the file store so visits keep being counted.
func newCounterStore(ctx context.Context, cc config.CounterConfig, pg *connector.PostgresConnector) (counter.Store, func()) {
	noop := func() {}
	fallback := func(err error) (counter.Store, func()) {
		logger.Warn("Counter backend unavailable, using file store",
			zap.String("backend", cc.Backend),
			zap.String("path", cc.FilePath),
			zap.Error(err))
		return counter.NewFileStore(cc.FilePath), noop
	}

	switch cc.Backend {
	case config.CounterBackendRedis:
		client, err := counter.NewRedisClient(ctx, cc.RedisAddr, cc.RedisPassword, cc.RedisDB)
		if err != nil {
			return fallback(err)
		}
		return counter.NewRedisStore(client, cc.RedisKey), closeRedis(client)
	case config.CounterBackendPostgres:
		if pg == nil {
			return fallback(errors.New("postgreSQL connection is not available"))
		}
		store, err := counter.NewPostgresStore(ctx, pg.SQLX(), cc.PostgresName)
		if err != nil {
			return fallback(err)
		}
		return store, noop
	default:
		return counter.NewFileStore(cc.FilePath), noop
	}
}

func closeRedis(client *redis.Client) func() {
	return func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
}
