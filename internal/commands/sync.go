package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

func newShutdownContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the local mirror from the upstream services once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			logger := cli.SetupLogger()
			cfg := cli.LoadAndValidateConfig(logger)

			mirror := cli.InitSQLite(logger, cfg.SQLiteDBPath)
			defer mirror.Close()

			client, sessions := cli.NewClient(cfg)
			if !sessions.IsAuthenticated() {
				return fmt.Errorf("not logged in, run 'fintrack login' first")
			}

			refresher := worker.NewRefresher(client, mirror, sessions, cfg.SyncInterval,
				nil, log.NewComponent(log.ComponentWorker))

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.HTTPTimeout*3)
			defer cancel()

			if err := refresher.RefreshOnce(ctx); err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}

			for _, resource := range []string{storage.ResourceExpenses, storage.ResourceLendBorrow} {
				state, err := mirror.GetSyncState(ctx, resource)
				if err != nil || state == nil {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s synced at %s\n",
					resource, state.SyncedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}
