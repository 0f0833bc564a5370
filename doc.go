// Package sysmon watches dedicated-server stock and emails subscribers the
// first time a watched hardware model becomes available.
//
// A [Monitor] walks a fixed list of [Hardware] entries. For each one it asks
// an [AvailabilityChecker] for the upstream availability string in the
// configured datacenter, normalizes it to [AvailabilityAvailable] or
// [AvailabilityUnavailable], and, the first time an entry is seen as
// available, asks a [Notifier] to tell the entry's recipients. Every check
// produces a [CheckResult] that is handed to a [Reporter].
//
// # Quick Start
//
//	mon, err := sysmon.New(
//	    sysmon.WithHardware(sysmon.Hardware{
//	        Name:       "1801sk12",
//	        Datacenter: "gra",
//	        Recipients: []string{"ops@example.com"},
//	    }),
//	    sysmon.WithChecker(checker),
//	    sysmon.WithNotifier(notifier),
//	    sysmon.WithDelay(5 * time.Minute),
//	)
//	if err != nil {
//	    return err
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	return mon.Run(ctx) // blocks until ctx is cancelled or a notification fails
//
// # Notification state
//
// Each hardware name moves from unnotified to notified exactly once per
// process. The record lives in a [NotifiedStore] owned by the monitor and is
// not persisted, so restarting the process can produce a second email for
// hardware that is still in stock.
//
// # Pacing
//
// After each check the monitor sleeps the entry delay when more than one
// entry is configured, and after each pass it sleeps the pass delay (or until
// the next [WithSchedule] activation).
//
// # Architecture
//
//   - internal/poller: HTTP access to the availability API
//   - internal/store: the notified set
//   - internal/mailer: SMTP notifications
//   - internal/report: JSON-line check output
//   - config: configuration file and environment settings
package sysmon
