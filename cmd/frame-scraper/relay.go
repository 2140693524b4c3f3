package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRelayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Publish outbox events to Redis streams",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.Database.Enabled {
				return errors.New("relay requires DB_ENABLED=true")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := openDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			client, err := openRedis(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := newRelay(db, client, cfg, log).Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
