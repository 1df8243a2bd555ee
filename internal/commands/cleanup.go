package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/index-back/internal/cache"
	"github.com/index-back/pkg/config"
	"github.com/index-back/pkg/logger"
)

// cleanupCmd sweeps stale entries out of the shared Redis cache. The
// in-memory backend needs no external sweep; the server handles it.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Sweep stale entries from the Redis cache store",
	RunE:  runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Printf("Note: .env file not loaded: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := cache.NewRedisStore(&cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed := store.CleanupOldEntries(ctx)
	fmt.Printf("Removed %d stale cache entries\n", removed)
	return nil
}
