package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mapsearch/internal/config"
	"github.com/kailas-cloud/mapsearch/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/mapsearch/internal/db/redis"
	logpkg "github.com/kailas-cloud/mapsearch/internal/logger"
	"github.com/kailas-cloud/mapsearch/internal/metrics"
	indexrepo "github.com/kailas-cloud/mapsearch/internal/repository/index"
	playlistrepo "github.com/kailas-cloud/mapsearch/internal/repository/playlist"
	searchrepo "github.com/kailas-cloud/mapsearch/internal/repository/search"
	chiTransport "github.com/kailas-cloud/mapsearch/internal/transport/chi"
	healthuc "github.com/kailas-cloud/mapsearch/internal/usecase/health"
	listinguc "github.com/kailas-cloud/mapsearch/internal/usecase/listing"
	searchuc "github.com/kailas-cloud/mapsearch/internal/usecase/search"
	"github.com/kailas-cloud/mapsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting mapsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("index_addrs", cfg.Index.Addrs),
		zap.String("index_name", cfg.Index.Name),
	)

	ctx := context.Background()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Index.Addrs,
		Password: cfg.Index.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create index store", zap.Error(err))
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Index.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Index store not ready", zap.Error(err))
	}
	logger.Info("Connected to index store")

	pg, err := postgres.Open(ctx, postgres.Config{
		DSN:            cfg.Postgres.DSN,
		MaxConns:       cfg.Postgres.MaxConns,
		ConnectTimeout: time.Duration(cfg.Postgres.ConnectTimeout) * time.Second,
		MigrationsPath: cfg.Postgres.MigrationsPath,
	})
	if err != nil {
		logger.Fatal("Failed to connect to postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.MigrateOnStartup {
		if err := pg.MigrateToLatest(ctx); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
		logger.Info("Migrations applied")
	}

	// The API only reads the index; an empty one is created so queries do not fail.
	indexRepo := indexrepo.New(store, indexrepo.Config{IndexName: cfg.Index.Name, KeyPrefix: cfg.Index.KeyPrefix})
	created, err := indexRepo.EnsureIndex(ctx, false)
	if err != nil {
		logger.Fatal("Failed to ensure index", zap.Error(err))
	}
	if created {
		logger.Warn("Index created empty, run mapsearch-reindex to populate it", zap.String("index", cfg.Index.Name))
	}

	metrics.RegisterSearchMetrics()

	playlists := playlistrepo.New(pg)
	searchRepo := searchrepo.New(store, searchrepo.Config{
		IndexName:    cfg.Index.Name,
		QueryTimeout: cfg.Search.QueryTimeout(),
	})

	searchSvc := searchuc.New(searchRepo, playlists, pg)
	listingSvc := listinguc.New(playlists)
	healthSvc := healthuc.New(store, pg)

	server := chiTransport.NewServer(searchSvc, listingSvc, healthSvc, logger)
	handler := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
