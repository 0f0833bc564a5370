package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/sysmon-dev/sysmon"
	"github.com/sysmon-dev/sysmon/config"
	"github.com/sysmon-dev/sysmon/internal/mailer"
	"github.com/sysmon-dev/sysmon/internal/poller"
	"github.com/sysmon-dev/sysmon/internal/report"
	"gopkg.in/gomail.v2"
)

// mailSender replaces SMTP delivery when non-nil. Tests set it.
var mailSender gomail.Sender

// newLogger creates a JSON logger for CLI use.
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})), nil
}

// addMonitorFlags registers the flags shared by watch and check.
func addMonitorFlags(cmd *cobra.Command, entryDelayHelp string) {
	cmd.Flags().StringP("config", "c", "", "path to config file (default $SYSMON_CONFIG or config/config.yml)")
	cmd.Flags().String("delay", "", "delay between passes, in seconds or as a duration (default $SYSMON_DELAY or 300)")
	cmd.Flags().String("entry-delay", "", entryDelayHelp)
	cmd.Flags().Bool("keep-going", false, "log failed availability checks and continue instead of exiting")
	cmd.Flags().Bool("verify-smtp", false, "connect and authenticate to the SMTP server before the first check")
	cmd.Flags().String("log-level", "info", "log level: debug, info, warn or error")
}

// monitorSetup is everything watch and check need to run.
type monitorSetup struct {
	monitor *sysmon.Monitor
	logger  *slog.Logger
	client  *poller.Client
}

// buildMonitor loads configuration and wires the checker, mailer and reporter
// into a Monitor. defaultEntryDelay is used when --entry-delay is not given;
// a negative value means "same as the pass delay".
func buildMonitor(cmd *cobra.Command, defaultEntryDelay time.Duration, extra ...sysmon.Option) (*monitorSetup, error) {
	logLevel, _ := cmd.Flags().GetString("log-level")
	logger, err := newLogger(logLevel)
	if err != nil {
		return nil, err
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		configFile = config.PathFromEnv()
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	hardware, err := config.BuildHardware(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build hardware list: %w", err)
	}

	delay, err := delayFlag(cmd)
	if err != nil {
		return nil, err
	}

	entryDelay := defaultEntryDelay
	if raw, _ := cmd.Flags().GetString("entry-delay"); raw != "" {
		entryDelay, err = config.ParseDelay(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid --entry-delay: %w", err)
		}
	}
	if entryDelay < 0 {
		entryDelay = delay
	}

	logger.Info("config loaded",
		"path", configFile,
		"hardware", len(hardware),
		"delay", delay.String(),
		"entry_delay", entryDelay.String(),
	)

	if err := cfg.Email.CheckSender(); err != nil {
		logger.Warn("notifications will fail", "error", err.Error())
	}

	client := poller.NewClient("sysmon/" + version)
	checker, err := poller.NewChecker(client, poller.CheckerConfig{
		APIURL:  cfg.API.URL,
		Country: cfg.API.Country,
		Timeout: cfg.API.Timeout.Duration(),
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create availability checker: %w", err)
	}

	m := mailer.New(mailer.Config{
		Host:     cfg.Email.Server,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		Sender:   mailSender,
	})
	if verify, _ := cmd.Flags().GetBool("verify-smtp"); verify {
		if err := m.Verify(); err != nil {
			client.Close()
			return nil, fmt.Errorf("smtp verification failed: %w", err)
		}
		logger.Info("smtp credentials verified", "server", cfg.Email.Server)
	}

	keepGoing, _ := cmd.Flags().GetBool("keep-going")

	opts := []sysmon.Option{
		sysmon.WithHardware(hardware...),
		sysmon.WithChecker(checker),
		sysmon.WithNotifier(m),
		sysmon.WithReporter(report.NewWriter(cmd.OutOrStdout())),
		sysmon.WithDelay(delay),
		sysmon.WithEntryDelay(entryDelay),
		sysmon.WithContinueOnCheckError(keepGoing),
		sysmon.WithLogger(logger),
	}
	opts = append(opts, extra...)

	mon, err := sysmon.New(opts...)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create monitor: %w", err)
	}

	return &monitorSetup{monitor: mon, logger: logger, client: client}, nil
}

// delayFlag returns --delay if given, else the SYSMON_DELAY setting.
func delayFlag(cmd *cobra.Command) (time.Duration, error) {
	raw, _ := cmd.Flags().GetString("delay")
	if strings.TrimSpace(raw) == "" {
		return config.DelayFromEnv()
	}
	d, err := config.ParseDelay(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid --delay: %w", err)
	}
	return d, nil
}
