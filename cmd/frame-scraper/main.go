package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/maltedev/frame-scraper/internal/config"
	"github.com/maltedev/frame-scraper/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config
	log *slog.Logger

	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "frame-scraper",
	Short: "Crawl the frames catalog and export product records",
	Long: `frame-scraper logs into the wholesale catalog, walks every category
listing, visits each product page and stores brand, name, UPC code and the
raw product text.

Configuration is read from the environment (and a .env file if present);
flags override it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		log = logger.New(cfg.Logging.Level, cfg.Logging.Format)
		slog.SetDefault(log)
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.AddCommand(newCrawlCmd(), newServeCmd(), newRelayCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
