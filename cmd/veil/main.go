package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/veilbot/veil/internal/config"
	"github.com/veilbot/veil/internal/logger"
	"github.com/veilbot/veil/internal/quota"
	"github.com/veilbot/veil/internal/scan"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	// Parse command line flags
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		actorID     = flag.String("actor", "cli", "Actor identifier for quota accounting")
		destID      = flag.String("destination", "stdin", "Destination identifier for quota accounting")
	)
	flag.Parse()

	// Show version and exit
	if *showVersion {
		fmt.Printf("Veil %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}

	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled:  cfg.Logging.File.Enabled,
			Path:     cfg.Logging.File.Path,
			MaxSize:  cfg.Logging.File.MaxSize,
			MaxAge:   cfg.Logging.File.MaxAge,
			Compress: cfg.Logging.File.Compress,
		}
	}

	log, err := logger.New(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting Veil",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_date", date),
	)

	// Select the counter store: shared Redis when configured, in-process
	// otherwise. A Redis connection failure degrades to fail-open rather
	// than blocking scanning.
	var store quota.CounterStore
	if cfg.Quota.Enabled {
		if cfg.Quota.Redis.URL != "" {
			redisStore, err := quota.NewRedisStore(cfg.Quota.Redis, log.Logger)
			if err != nil {
				log.Warn("Counter store unavailable, quota enforcement degraded", zap.Error(err))
			} else {
				store = redisStore
				defer redisStore.Close()
			}
		} else {
			local := quota.NewLocalStore()
			local.StartCleanupRoutine(30*time.Minute, time.Hour)
			store = local
		}
	}

	// Create scan pipeline
	pipeline, err := scan.New(cfg, store, log)
	if err != nil {
		log.Fatal("Failed to create scan pipeline", zap.Error(err))
	}

	// Hot-reload scanner settings on config change
	if err := config.Watch(cfg, pipeline.Reconfigure); err != nil {
		log.Warn("Config watch unavailable", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Scan stdin lines until EOF or shutdown
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, pipeline, *actorID, *destID)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-done:
		if err != nil {
			log.Error("Scan loop error", zap.Error(err))
			os.Exit(1)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}

	log.Info("Veil shutdown complete")
}

// run scans one message per stdin line and prints one JSON result per line.
func run(ctx context.Context, pipeline *scan.Pipeline, actorID, destID string) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	out := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		result, err := pipeline.Scan(ctx, scan.Request{
			Text:          scanner.Text(),
			ActorID:       actorID,
			DestinationID: destID,
		})
		if err != nil {
			return fmt.Errorf("scanning message: %w", err)
		}

		if err := out.Encode(result); err != nil {
			return fmt.Errorf("writing result: %w", err)
		}
	}

	return scanner.Err()
}
