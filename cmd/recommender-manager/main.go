// cmd/recommender-manager/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"menu-recommender/internal/catalog"
	"menu-recommender/internal/common/camunda"
	"menu-recommender/internal/common/config"
	"menu-recommender/internal/common/database"
	"menu-recommender/internal/common/errors"
	"menu-recommender/internal/common/logger"
	"menu-recommender/internal/common/observability"
	"menu-recommender/internal/feedback"
	"menu-recommender/internal/history"
	"menu-recommender/internal/models"
	"menu-recommender/internal/recommend"

	gh "menu-recommender/internal/workers/recommendation/get-recommendation-history"
	gt "menu-recommender/internal/workers/recommendation/get-top-rated-menus"
	rm "menu-recommender/internal/workers/recommendation/recommend-menu"
	rf "menu-recommender/internal/workers/recommendation/record-menu-feedback"
	rc "menu-recommender/internal/workers/recommendation/reload-menu-catalog"
)

// retryWithBackoff attempts to execute a function with exponential backoff.
// A coded error whose code is not retryable ends the attempts at once.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}
		if stdErr, ok := errors.AsStandardError(err); ok && !errors.IsRetryableErrorCode(stdErr.Code) {
			return fmt.Errorf("%s failed: %w", operationName, err)
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.NewFromConfig(cfg.Logging)
	if err != nil {
		zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting recommender manager",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("catalogSource", cfg.Catalog.Source),
		zap.String("historyBackend", cfg.History.Backend),
	)

	obs, err := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint)
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, camunda.ConfigFrom(cfg.Camunda))
	if err != nil {
		zapLog.Fatal("zeebe connection failed", zap.Error(err))
	}
	zapLog.Info("zeebe client connected", zap.String("gateway", cfg.Camunda.BrokerAddress))

	// --- PostgreSQL: feedback always, history and catalog when selected ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		if pg, err = database.NewPostgres(cfg.Database.Postgres); err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected")

	schema := append([]string{}, feedback.Schema...)
	if cfg.History.Backend == config.HistoryBackendPostgres {
		schema = append(schema, history.PostgresSchema...)
	}
	if cfg.Catalog.Source == config.CatalogSourcePostgres && cfg.Catalog.Table == "menu_catalog" {
		schema = append(schema, catalog.MenuCatalogSchema)
	}
	if err := pg.ExecSchema(ctx, schema...); err != nil {
		zapLog.Fatal("schema setup failed", zap.Error(err))
	}

	checks := map[string]func(context.Context) error{
		"postgres": pg.Ping,
		"zeebe":    zeebe.HealthCheck,
	}

	// --- Redis ---
	var rdb *database.RedisClient
	if cfg.History.Backend == config.HistoryBackendRedis {
		err = retryWithBackoff(func() error {
			var err error
			if rdb, err = database.NewRedis(cfg.Database.Redis); err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		checks["redis"] = rdb.Ping
		zapLog.Info("Redis connected")
	}

	// --- Elasticsearch ---
	var esClient *database.ElasticsearchClient
	if cfg.Catalog.Source == config.CatalogSourceElasticsearch {
		err = retryWithBackoff(func() error {
			var err error
			if esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch); err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		checks["elasticsearch"] = esClient.Ping
		zapLog.Info("Elasticsearch connected")
	}

	// --- Catalog ---
	source, err := newCatalogSource(cfg.Catalog, pg, esClient)
	if err != nil {
		zapLog.Fatal("catalog source setup failed", zap.Error(err))
	}
	loader := catalog.NewLoader(source, catalog.NewHolder(nil), log)
	err = retryWithBackoff(func() error {
		_, err := loader.Reload(ctx)
		return err
	}, 5, 2*time.Second, zapLog, "catalog load")
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeDataIntegrity) {
			zapLog.Fatal("catalog rejected", zap.Error(err))
		}
		zapLog.Fatal("catalog load failed", zap.Error(err))
	}

	// --- Engine ---
	historyStore := newHistoryStore(cfg.History, pg, rdb)
	engine := recommend.NewEngine(loader.Holder(), recommend.RulesFromConfig(cfg.Rules), historyStore, log,
		recommend.WithObservability(obs),
		recommend.WithHistoryLimits(cfg.History.DefaultLimit, cfg.History.MaxLimit),
		recommend.WithStageObserver(func(stage models.Stage, remaining int) {
			zapLog.Debug("filter stage", zap.String("stage", string(stage)), zap.Int("remaining", remaining))
		}),
	)

	// --- Workers ---
	workers := camunda.NewWorkers(zeebe.GetClient(), log)

	recommendHandler, err := rm.NewHandler(rm.HandlerOptions{AppConfig: cfg, Engine: engine, Observability: obs, Logger: log})
	if err != nil {
		zapLog.Fatal("recommend-menu handler", zap.Error(err))
	}
	workers.Start(rm.TaskType, config.GetWorkerConfig(cfg, rm.TaskType), recommendHandler.Handle)

	historyHandler, err := gh.NewHandler(gh.HandlerOptions{AppConfig: cfg, Reader: engine, Observability: obs, Logger: log})
	if err != nil {
		zapLog.Fatal("get-recommendation-history handler", zap.Error(err))
	}
	workers.Start(gh.TaskType, config.GetWorkerConfig(cfg, gh.TaskType), historyHandler.Handle)

	feedbackStore := feedback.NewStore(pg.DB)
	feedbackHandler, err := rf.NewHandler(rf.HandlerOptions{AppConfig: cfg, Store: feedbackStore, Observability: obs, Logger: log})
	if err != nil {
		zapLog.Fatal("record-menu-feedback handler", zap.Error(err))
	}
	workers.Start(rf.TaskType, config.GetWorkerConfig(cfg, rf.TaskType), feedbackHandler.Handle)

	topHandler, err := gt.NewHandler(gt.HandlerOptions{AppConfig: cfg, Ranker: feedbackStore, Observability: obs, Logger: log})
	if err != nil {
		zapLog.Fatal("get-top-rated-menus handler", zap.Error(err))
	}
	workers.Start(gt.TaskType, config.GetWorkerConfig(cfg, gt.TaskType), topHandler.Handle)

	reloadHandler, err := rc.NewHandler(rc.HandlerOptions{AppConfig: cfg, Loader: loader, Observability: obs, Logger: log})
	if err != nil {
		zapLog.Fatal("reload-menu-catalog handler", zap.Error(err))
	}
	workers.Start(rc.TaskType, config.GetWorkerConfig(cfg, rc.TaskType), reloadHandler.Handle)

	zapLog.Info("workers registered", zap.Strings("taskTypes", workers.Running()))

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Observability.HTTPPort),
		Handler:           newStatusMux(checks, loader.Holder(), log),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("health/metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("health/metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("shutdown signal received, stopping workers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("health/metrics server shutdown", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("telemetry flush failed", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("zeebe close failed", zap.Error(err))
	}
	if rdb != nil {
		rdb.Close()
	}
	pg.Close()

	zapLog.Info("recommender manager stopped")
}
