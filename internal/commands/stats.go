package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/aggregate"
	"fintrack/internal/cli"
)

// stats reads the local mirror only, so it works offline.
func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show spending and lend/borrow summaries from the local mirror",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			logger := cli.SetupLogger()
			cfg := cli.LoadAndValidateConfig(logger)

			mirror := cli.InitSQLite(logger, cfg.SQLiteDBPath)
			defer mirror.Close()

			_, sessions := cli.NewClient(cfg)
			ownerID := ""
			if sess, ok := sessions.Session(); ok && sess.User != nil {
				ownerID = sess.User.ID
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			txs, err := mirror.ListTransactions(ctx, ownerID)
			if err != nil {
				return fmt.Errorf("read mirrored expenses: %w", err)
			}

			fmt.Fprintf(out, "Expenses: %d records, total %s\n", len(txs), aggregate.Total(txs).StringFixed(2))

			if byMonth := aggregate.ByMonth(txs); len(byMonth) > 0 {
				fmt.Fprintln(out, "\nBy month:")
				for _, m := range byMonth {
					fmt.Fprintf(out, "  %-10s %12s\n", m.Month, m.Total.StringFixed(2))
				}
			}

			if byCategory := aggregate.ByCategory(txs); len(byCategory) > 0 {
				fmt.Fprintln(out, "\nBy category:")
				for _, c := range byCategory {
					fmt.Fprintf(out, "  %-20s %12s\n", c.Category, c.Total.StringFixed(2))
				}
			}

			entries, err := mirror.ListEntries(ctx, ownerID)
			if err != nil {
				return fmt.Errorf("read mirrored lend/borrow entries: %w", err)
			}

			balances := aggregate.Balances(entries)
			fmt.Fprintf(out, "\nLend/borrow: %d entries, %d unsettled\n", len(entries), balances.UnsettledCount)
			fmt.Fprintf(out, "  lent pending     %12s\n", balances.LentPending.StringFixed(2))
			fmt.Fprintf(out, "  borrowed pending %12s\n", balances.BorrowedPending.StringFixed(2))
			return nil
		},
	}
}
