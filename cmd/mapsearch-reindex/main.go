package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mapsearch/internal/config"
	"github.com/kailas-cloud/mapsearch/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/mapsearch/internal/db/redis"
	logpkg "github.com/kailas-cloud/mapsearch/internal/logger"
	"github.com/kailas-cloud/mapsearch/internal/metrics"
	indexrepo "github.com/kailas-cloud/mapsearch/internal/repository/index"
	playlistrepo "github.com/kailas-cloud/mapsearch/internal/repository/playlist"
	reindexuc "github.com/kailas-cloud/mapsearch/internal/usecase/reindex"
	"github.com/kailas-cloud/mapsearch/internal/version"
)

var (
	recreate  bool
	prune     bool
	migrate   bool
	batchSize int
)

var rootCmd = &cobra.Command{
	Use:     "mapsearch-reindex",
	Short:   "Rebuild the playlist search index from PostgreSQL",
	Long:    `Streams every playlist from PostgreSQL by id and writes it into the search index, removing deleted playlists.`,
	Version: version.String(),
	Args:    cobra.NoArgs,
	RunE:    runReindex,
}

func init() {
	rootCmd.Flags().BoolVar(&recreate, "recreate", false, "Drop and recreate the index schema first")
	rootCmd.Flags().BoolVar(&prune, "prune", true, "Remove index documents whose playlist no longer exists")
	rootCmd.Flags().BoolVar(&migrate, "migrate", false, "Apply database migrations before reindexing")
	rootCmd.Flags().IntVar(&batchSize, "batch-size", 0, "Playlists per batch (default from config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runReindex(cmd *cobra.Command, _ []string) error {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logpkg.ContextWithLogger(ctx, logger)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.Index.Addrs,
		Password:   cfg.Index.Password,
		ClientName: "mapsearch-reindex",
	})
	if err != nil {
		return fmt.Errorf("create index store: %w", err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Index.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("index store not ready: %w", err)
	}

	pg, err := postgres.Open(ctx, postgres.Config{
		DSN:            cfg.Postgres.DSN,
		MaxConns:       cfg.Postgres.MaxConns,
		ConnectTimeout: time.Duration(cfg.Postgres.ConnectTimeout) * time.Second,
		MigrationsPath: cfg.Postgres.MigrationsPath,
	})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	if migrate {
		if err := pg.MigrateToLatest(ctx); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}

	metrics.RegisterSearchMetrics()

	size := cfg.Reindex.BatchSize
	if batchSize > 0 {
		size = batchSize
	}

	svc := reindexuc.New(
		playlistrepo.New(pg),
		indexrepo.New(store, indexrepo.Config{IndexName: cfg.Index.Name, KeyPrefix: cfg.Index.KeyPrefix}),
	).WithBatchSize(size)

	logger.Info("Starting reindex",
		zap.String("index", cfg.Index.Name),
		zap.Int("batch_size", size),
		zap.Bool("recreate", recreate),
		zap.Bool("prune", prune),
	)

	start := time.Now()
	rep, err := svc.Run(ctx, reindexuc.Options{Recreate: recreate, Prune: prune})
	if err != nil {
		logger.Error("Reindex failed", zap.Error(err), zap.Int("upserted", rep.Upserted))
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "upserted %d, deleted %d, pruned %d in %s\n",
		rep.Upserted, rep.Deleted, rep.Pruned, time.Since(start).Round(time.Millisecond))
	return nil
}
