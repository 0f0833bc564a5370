package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/sysmon-dev/sysmon"
)

// watchCmd runs the availability loop until interrupted.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll availability and send notifications",
	Long: `Poll availability for every configured hardware entry and email the
entry's recipients the first time it becomes available.

The loop:
  - Checks each entry in configuration order
  - Sleeps the entry delay after each check when more than one entry is configured
  - Sleeps the pass delay (or until the next --schedule activation) and repeats

The command runs until interrupted (Ctrl+C) or it receives SIGTERM. It exits
with status 1 if the config is invalid or an email cannot be sent.

Example:
  sysmon watch -c config/config.yml
  SYSMON_DELAY=60 sysmon watch
  sysmon watch --schedule "*/10 * * * *" --entry-delay 5s`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addMonitorFlags(watchCmd, "delay after each check when several entries are configured (default same as --delay)")
	watchCmd.Flags().String("schedule", "", `cron expression or descriptor for pass times, e.g. "@every 5m" (overrides --delay between passes)`)
}

func runWatch(cmd *cobra.Command, args []string) error {
	var extra []sysmon.Option
	if spec, _ := cmd.Flags().GetString("schedule"); spec != "" {
		extra = append(extra, sysmon.WithSchedule(spec))
	}

	notifier := newSystemdNotifier()
	extra = append(extra, sysmon.WithPassHook(notifier.passComplete))

	setup, err := buildMonitor(cmd, -1, extra...)
	if err != nil {
		return err
	}
	defer setup.client.Close()
	notifier.logger = setup.logger

	// cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifier.ready()
	defer notifier.stopping()

	if err := setup.monitor.Run(ctx); err != nil {
		return fmt.Errorf("monitor stopped: %w", err)
	}
	setup.logger.Info("shutdown complete")
	return nil
}
