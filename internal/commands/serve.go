package commands

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local gateway and background mirror refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			logger := cli.SetupLogger()
			cfg := cli.LoadAndValidateConfig(logger)

			mirror := cli.InitSQLite(logger, cfg.SQLiteDBPath)
			defer mirror.Close()

			client, sessions := cli.NewClient(cfg)

			var refresher *worker.Refresher

			srv := apphttp.NewServer(":"+cfg.Port, client, sessions, mirror, apphttp.Options{
				CacheSize:      cfg.CacheSize,
				CacheTTL:       cfg.CacheTTL,
				SearchThrottle: cfg.SearchThrottle,
				OnMutation: func(string) {
					ctx, cancel := newShutdownContext()
					defer cancel()
					if err := refresher.RefreshOnce(ctx); err != nil {
						logger.Warn("Post-write mirror refresh failed", "error", err)
					}
				},
			})

			srv.ReadTimeout = 10 * time.Second
			srv.WriteTimeout = 10 * time.Second
			srv.IdleTimeout = 60 * time.Second
			srv.MaxHeaderBytes = 1 << 16 // 64KB

			refresher = worker.NewRefresher(client, mirror, sessions, cfg.SyncInterval,
				srv.InvalidateCaches, log.NewComponent(log.ComponentWorker))

			ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
				shutdownCtx, cancel := newShutdownContext()
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Error("Server shutdown error", "error", err)
				}
			})

			go func() {
				if err := refresher.Run(ctx); err != nil && ctx.Err() == nil {
					logger.Error("Refresh worker stopped", "error", err)
				}
			}()

			logger.Info("Starting fintrack gateway", "port", cfg.Port,
				"auth_api", cfg.AuthAPIURL,
				"expenses_api", cfg.ExpensesAPIURL,
				"lendborrow_api", cfg.LendBorrowAPIURL)

			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}

			cli.WaitForShutdown(ctx, done)
			logger.Info("Server stopped gracefully")
			return nil
		},
	}
}
