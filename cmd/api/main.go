package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SaicoBys/airbnb-manager/internal/api"
	"github.com/SaicoBys/airbnb-manager/internal/config"
	"github.com/SaicoBys/airbnb-manager/internal/database"
	"github.com/SaicoBys/airbnb-manager/internal/engine"
	"github.com/SaicoBys/airbnb-manager/internal/inventory"
	"github.com/SaicoBys/airbnb-manager/internal/logging"
	"github.com/SaicoBys/airbnb-manager/internal/metrics"
	"github.com/SaicoBys/airbnb-manager/internal/models"
	"github.com/SaicoBys/airbnb-manager/internal/repository"
	"github.com/SaicoBys/airbnb-manager/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const spendingCacheTTL = 15 * time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	spendingCache := initSpendingCache(cfg, &logger)

	searchEngine := engine.New(db, spendingCache, &logger)
	inventoryService := inventory.New(db, &logger)
	exportWorker := worker.NewExportWorker(db, cfg.Exports, worker.RetryPolicy{}, &logger)

	httpServer := api.NewHTTPServer(cfg.API, db, searchEngine, inventoryService, exportWorker, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go exportWorker.Start(ctx)
	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	packages := make(map[int64][]models.PackageItem, len(cfg.Packages))
	for _, pkg := range cfg.Packages {
		packages[pkg.RoomID] = pkg.Items
	}

	if err := db.SyncCatalogue(context.Background(), cfg.Rooms, cfg.Supplies, packages); err != nil {
		logger.Error().Err(err).Msg("sync catalogue")
		return nil, err
	}
	return db, nil
}

// initSpendingCache builds the spending cache: Redis with in-memory failover
// when Redis is configured, plain in-memory otherwise.
func initSpendingCache(cfg *config.Config, logger *zerolog.Logger) *repository.FailoverSpendingCache {
	memory := repository.NewMemorySpendingCache(spendingCacheTTL)

	if !cfg.Redis.Enabled || cfg.Redis.Address == "" {
		return repository.NewFailoverSpendingCache(memory, memory, logger)
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, using in-memory cache")
		return repository.NewFailoverSpendingCache(memory, memory, logger)
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	redisCache := repository.NewRedisSpendingCache(redisClient, spendingCacheTTL)
	return repository.NewFailoverSpendingCache(redisCache, memory, logger)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
