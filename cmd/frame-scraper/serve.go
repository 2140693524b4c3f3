package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltedev/frame-scraper/internal/api"
	"github.com/maltedev/frame-scraper/internal/catalog"
	"github.com/maltedev/frame-scraper/internal/database"
	"github.com/maltedev/frame-scraper/internal/jobs"
	"github.com/maltedev/frame-scraper/internal/report"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port      string
		replayDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API that triggers and reports crawl runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				cfg.Server.Port = port
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

			var (
				frames *database.FrameSink
				outbox api.OutboxStats
			)
			if cfg.Database.Enabled {
				db, err := openDatabase(ctx, cfg)
				if err != nil {
					return err
				}
				defer db.Close()
				frames = database.NewFrameSink(db, cfg.Redis.Stream, log)
				outbox = database.NewOutboxRepository(db)

				if cfg.Redis.Enabled && cfg.Relay.Enabled {
					client, err := openRedis(ctx, cfg)
					if err != nil {
						return err
					}
					defer client.Close()

					relay := newRelay(db, client, cfg, log)
					go func() {
						if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
							log.Error("relay stopped with error", "error", err)
						}
					}()
				}
			}

			metrics := report.NewMetrics()

			sessions := browserSessions(cfg, log)
			if replayDir != "" {
				sessions = replaySessions(replayDir, log)
			}

			manager := jobs.NewManager(jobs.Config{
				Sessions:  sessions,
				Sinks:     sinks(cfg.Output.File, frames),
				Provider:  categoryProvider(cfg),
				Pipeline:  pipelineOptions(cfg, metrics),
				Observers: []catalog.Observer{report.NewLogObserver(log)},
			}, log)

			server := &http.Server{
				Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
				Handler:      api.NewRouter(api.NewHandlers(manager, outbox, log), metrics.Registry),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("server starting", "addr", server.Addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}

			log.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error("server shutdown failed", "error", err)
			}
			if err := manager.Shutdown(shutdownCtx); err != nil {
				log.Error("active run did not finish before shutdown", "error", err)
			}

			log.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default from SERVER_PORT)")
	cmd.Flags().StringVar(&replayDir, "replay", "", "serve runs over saved pages instead of the live site")

	return cmd
}
