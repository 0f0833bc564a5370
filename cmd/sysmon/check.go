package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// checkCmd runs one pass over the watch list.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check every entry once and exit",
	Long: `Check every configured hardware entry once, send any due notifications,
print one JSON line per entry and exit.

Useful from cron or for trying out a new config. Notification state is not
persisted, so every run notifies again for hardware that is available.

Example:
  sysmon check -c config/config.yml
  sysmon check --keep-going --entry-delay 2s`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	addMonitorFlags(checkCmd, "delay after each check when several entries are configured (default 0)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	setup, err := buildMonitor(cmd, 0)
	if err != nil {
		return err
	}
	defer setup.client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := setup.monitor.RunPass(ctx)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	setup.logger.Info("check complete",
		"checked", summary.Checked,
		"available", summary.Available,
		"notified", summary.Notified,
		"failed", summary.Failed,
	)
	return nil
}
