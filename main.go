package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dealmungchi/xidmetlercrawler/config"
	"github.com/dealmungchi/xidmetlercrawler/internal"
	"github.com/dealmungchi/xidmetlercrawler/internal/crawler"
	"github.com/dealmungchi/xidmetlercrawler/logger"
	"github.com/dealmungchi/xidmetlercrawler/services/cache"
	"github.com/dealmungchi/xidmetlercrawler/services/exporter"
	"github.com/dealmungchi/xidmetlercrawler/services/publisher"
	"github.com/dealmungchi/xidmetlercrawler/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	if err := newRootCmd(config.LoadConfig()).Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// newRootCmd builds the CLI. Flags override cfg only when set explicitly
func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		delaySeconds float64
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:           "xidmetler-crawler",
		Short:         "Crawl xidmetler.az service listings into JSON and CSV",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if logger.Default == nil {
				logger.Init(cfg.IsProduction())
			}
			logger.SetVerbose(verbose)

			if cmd.Flags().Changed("delay") {
				cfg.Delay = config.SecondsToDuration(delaySeconds)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, err := run(ctx, cfg)
			return err
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&cfg.StartPage, "start", cfg.StartPage, "first listing page offset (>= 0)")
	flags.IntVar(&cfg.EndPage, "end", cfg.EndPage, "listing page offset to stop before (> start)")
	flags.Float64Var(&delaySeconds, "delay", cfg.Delay.Seconds(), "seconds to wait before every request (>= 0.5)")
	flags.StringVar(&cfg.JSONPath, "json", cfg.JSONPath, "JSON output file")
	flags.StringVar(&cfg.CSVPath, "csv", cfg.CSVPath, "CSV output file")
	flags.StringVar(&cfg.SQLitePath, "sqlite", cfg.SQLitePath, "optional SQLite output file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

// run crawls the configured range and exports whatever was accumulated,
// including a partial set when ctx is cancelled. cfg must be valid
func run(ctx context.Context, cfg *config.Config) (*worker.Result, error) {
	log := logger.ForComponent("main")
	runID := uuid.NewString()

	log.Info().
		Str("environment", cfg.Environment).
		Str("run_id", runID).
		Str("base_url", cfg.BaseURL).
		Msg("Starting application")

	deps := initializeServices(cfg, runID)
	defer deps.Close()

	c := crawler.CreateCrawler(cfg)
	w := worker.NewWorker(c, deps.Dedupe, deps.Publisher, cfg.Delay)

	result := w.Run(ctx, cfg.StartPage, cfg.EndPage)

	if err := exporter.ExportAll(result.Records, deps.Exporters...); err != nil {
		logger.LogError("main", err, "Failed to export %d records", len(result.Records))
		return result, err
	}

	if deps.Publisher != nil {
		if err := deps.Publisher.TrimStreams(); err != nil {
			log.Warn().Err(err).Msg("Failed to trim streams")
		}
	}

	log.Info().
		Int("records", len(result.Records)).
		Bool("interrupted", result.Interrupted).
		Dur("elapsed", result.Elapsed).
		Msg("Run complete")

	return result, nil
}

// initializeServices picks the dedupe store, the optional publisher and the exporters
func initializeServices(cfg *config.Config, runID string) *internal.Dependencies {
	log := logger.ForComponent("main")
	deps := &internal.Dependencies{}

	// Initialize cache service
	deps.Cache = cache.NewMemoryCache()
	if cfg.MemcacheAddr != "" {
		memcacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := memcacheService.Ping(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unavailable, using in-memory dedupe")
		} else {
			deps.Cache = memcacheService
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}
	deps.Dedupe = cache.NewDedupe(deps.Cache, runID)

	// Initialize publisher; the stream outlives an interrupted crawl
	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			context.Background(),
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, records will not be published")
			redisPublisher.Close()
		} else {
			deps.Publisher = redisPublisher
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
				cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	deps.Exporters = []exporter.Exporter{
		exporter.NewJSONExporter(cfg.JSONPath),
		exporter.NewCSVExporter(cfg.CSVPath),
	}
	if cfg.SQLitePath != "" {
		deps.Exporters = append(deps.Exporters, exporter.NewSQLiteExporter(cfg.SQLitePath))
	}

	return deps
}
