package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "index-back",
	Short: "Market index data service",
	Long: `A market-data acquisition service for index dashboards.

It queries a third-party financial-data API across quotes, time series,
forex, crypto, commodity and economic endpoints, normalizes the responses
into one canonical record type, caches answers with per-endpoint freshness
rules, and aggregates the full instrument catalogue concurrently with
per-instrument fallback on failure.`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
