package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/index-back/internal/cache"
	"github.com/index-back/internal/catalog"
	"github.com/index-back/internal/indices"
	"github.com/index-back/internal/upstream"
	"github.com/index-back/pkg/config"
	"github.com/index-back/pkg/logger"
)

var (
	fetchRefresh bool
	fetchTimeout time.Duration
)

// fetchCmd aggregates the catalogue once and prints the result as JSON.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch all configured indices once and print them as JSON",
	RunE:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().BoolVar(&fetchRefresh, "refresh", false, "Bypass cache freshness and backoff")
	fetchCmd.Flags().DurationVar(&fetchTimeout, "timeout", 2*time.Minute, "Overall fetch timeout")
}

func runFetch(cmd *cobra.Command, args []string) error {
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

	client := upstream.NewClient(&cfg.Upstream, log)
	store := cache.NewMemoryStore(log)
	service := indices.NewService(catalog.Default(), client, store, log)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	var result interface{}
	if fetchRefresh {
		result = service.RefreshAllIndices(ctx)
	} else {
		result = service.GetAllIndices(ctx)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
