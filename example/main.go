package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sysmon-dev/sysmon"
	"github.com/sysmon-dev/sysmon/internal/poller"
	"github.com/sysmon-dev/sysmon/internal/report"
)

// logNotifier prints notifications instead of sending email.
type logNotifier struct {
	logger *slog.Logger
}

func (n logNotifier) Notify(_ context.Context, hw sysmon.Hardware) error {
	n.logger.Info("would send email", "hardware", hw.Name, "to", hw.Recipients, "link", hw.OfferURL)
	return nil
}

func main() {
	// start mock server (see mock_server.go)
	go StartMockAvailabilityServer(":9999", "gra", "rbx", "bhs")
	time.Sleep(100 * time.Millisecond)

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	client := poller.NewClient("sysmon-example")
	defer client.Close()

	checker, err := poller.NewChecker(client, poller.CheckerConfig{
		APIURL:  "http://localhost:9999/availabilities",
		Timeout: 5 * time.Second,
	})
	if err != nil {
		logger.Error("failed to create checker", "error", err)
		os.Exit(1)
	}

	mon, err := sysmon.New(
		sysmon.WithHardware(
			sysmon.Hardware{Name: "1801sk12", Datacenter: "gra", Recipients: []string{"ops@example.com"}},
			sysmon.Hardware{Name: "1801sk13", Datacenter: "rbx", Recipients: []string{"ops@example.com"}},
		),
		sysmon.WithChecker(checker),
		sysmon.WithNotifier(logNotifier{logger: logger}),
		sysmon.WithReporter(report.NewWriter(os.Stdout)),
		sysmon.WithSchedule("@every 5s"),
		sysmon.WithEntryDelay(time.Second),
		sysmon.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to create monitor", "error", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, "sysmon demo: polling a mock availability API on :9999, Ctrl+C to stop")

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mon.Run(ctx); err != nil {
		logger.Error("monitor error", "error", err)
		os.Exit(1)
	}
}
