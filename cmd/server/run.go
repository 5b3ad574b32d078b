package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var errEmailsFailed = errors.New("some emails failed to sync")

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one sync over the configured mail window",
		Long: `Runs a single sync and exits. The window defaults to SYNC_PERIOD_HOURS;
--since-days or --start-date/--end-date select a longer range. Exits
non-zero when any email failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			window := cfg.FetchWindow(time.Now())
			log.Info("Starting one-shot sync",
				"after", window.After.Format(time.RFC3339),
				"dry_run", cfg.DryRun)

			summary, err := a.orchestrator.Run(ctx, window)
			if err != nil {
				return err
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%w: %d of %d", errEmailsFailed, summary.Failed, summary.Emails)
			}
			return nil
		},
	}

	cmd.Flags().Int("since-hours", 0, "look back this many hours")
	cmd.Flags().Int("since-days", 0, "look back this many days")
	cmd.Flags().String("start-date", "", "first day to sync (YYYY-MM-DD)")
	cmd.Flags().String("end-date", "", "last day to sync, inclusive (YYYY-MM-DD)")
	return cmd
}
