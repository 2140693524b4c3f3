package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/frame-scraper/internal/catalog"
	"github.com/maltedev/frame-scraper/internal/database"
	"github.com/maltedev/frame-scraper/internal/jobs"
	"github.com/maltedev/frame-scraper/internal/report"
	"github.com/spf13/cobra"
)

func newCrawlCmd() *cobra.Command {
	var (
		replayDir string
		output    string
		headless  bool
		progress  bool
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run one crawl and write the result",
		Example: `  frame-scraper crawl
  frame-scraper crawl --output frames.json --progress
  frame-scraper crawl --replay ./testdata/site`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" {
				cfg.Output.File = output
			}
			if cmd.Flags().Changed("headless") {
				cfg.Browser.Headless = headless
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if replayDir == "" {
				if err := cfg.ValidateCredentials(); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runID := uuid.New().String()
			logger := log.With("run_id", runID)

			var frames *database.FrameSink
			if cfg.Database.Enabled {
				db, err := openDatabase(ctx, cfg)
				if err != nil {
					return err
				}
				defer db.Close()
				frames = database.NewFrameSink(db, cfg.Redis.Stream, logger)
			}

			observers := report.Multi{report.NewLogObserver(logger)}
			if progress {
				observers = append(observers, report.NewProgress(os.Stderr))
			}

			var sessions jobs.SessionFactory
			if replayDir != "" {
				sessions = replaySessions(replayDir, logger)
			} else {
				sessions = browserSessions(cfg, logger)
			}

			sess, release, err := sessions(ctx)
			if err != nil {
				return fmt.Errorf("failed to set up session: %w", err)
			}
			defer release()

			coordinator := catalog.NewCoordinator(pipelineOptions(cfg, observers), logger)
			outcome, err := coordinator.Run(ctx, sess, categoryProvider(cfg), sinks(cfg.Output.File, frames)(runID))
			if outcome != nil {
				s := outcome.Stats
				fmt.Fprintf(cmd.OutOrStdout(),
					"categories=%d products=%d records=%d page_failures=%d product_failures=%d elapsed=%s output=%s\n",
					s.Categories, s.ProductURLs, s.Records, s.PageFailures, s.ProductFailures, s.Elapsed.Round(time.Millisecond), cfg.Output.File)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&replayDir, "replay", "", "crawl saved pages from a directory with a manifest.json instead of the live site")
	cmd.Flags().StringVarP(&output, "output", "o", "", "JSON output file (default from OUTPUT_FILE)")
	cmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	cmd.Flags().BoolVar(&progress, "progress", false, "show a progress bar while extracting products")

	return cmd
}
