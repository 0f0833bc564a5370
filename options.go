package sysmon

import (
	"errors"
	"log/slog"
	"time"
)

// monitorConfig holds mutable state during Monitor construction.
type monitorConfig struct {
	hardware         []Hardware
	checker          AvailabilityChecker
	notifier         Notifier
	reporter         Reporter
	notified         NotifiedStore
	delay            time.Duration
	entryDelay       time.Duration
	entryDelaySet    bool
	schedule         Schedule
	logger           *slog.Logger
	checkCallbacks   []func(CheckResult)
	passHooks        []func(PassSummary)
	continueOnErrors bool
}

// Option is a function that configures a [Monitor] during construction.
//
// Options return an error if validation fails. [WithChecker] and
// [WithNotifier] are required; everything else has a default.
type Option func(*monitorConfig) error

// WithHardware adds hardware entries to the watch list.
//
// Entries are checked in the order they are added. At least one entry
// must be configured for [New] to succeed.
func WithHardware(hw ...Hardware) Option {
	return func(cfg *monitorConfig) error {
		cfg.hardware = append(cfg.hardware, hw...)
		return nil
	}
}

// WithChecker sets the source of availability data.
func WithChecker(c AvailabilityChecker) Option {
	return func(cfg *monitorConfig) error {
		if c == nil {
			return errors.New("checker cannot be nil")
		}
		cfg.checker = c
		return nil
	}
}

// WithNotifier sets how subscribers are told about available hardware.
func WithNotifier(n Notifier) Option {
	return func(cfg *monitorConfig) error {
		if n == nil {
			return errors.New("notifier cannot be nil")
		}
		cfg.notifier = n
		return nil
	}
}

// WithReporter sets where check results are written.
//
// Without a reporter results are only visible through check callbacks and
// debug logs.
func WithReporter(r Reporter) Option {
	return func(cfg *monitorConfig) error {
		if r == nil {
			return errors.New("reporter cannot be nil")
		}
		cfg.reporter = r
		return nil
	}
}

// WithNotifiedStore replaces the in-memory record of notified hardware.
//
// Supplying a store lets callers inspect or pre-seed the set. Defaults to a
// fresh empty set.
func WithNotifiedStore(s NotifiedStore) Option {
	return func(cfg *monitorConfig) error {
		if s == nil {
			return errors.New("notified store cannot be nil")
		}
		cfg.notified = s
		return nil
	}
}

// WithDelay sets the pause after each full pass over the hardware list.
//
// Defaults to 5 minutes. Zero is allowed and makes passes run back to back.
// Ignored when [WithSchedule] is used.
func WithDelay(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		if d < 0 {
			return errors.New("delay cannot be negative")
		}
		cfg.delay = d
		return nil
	}
}

// WithEntryDelay sets the pause after each individual check.
//
// The pause only applies when more than one entry is configured. Defaults to
// the pass delay, so a pass over N entries waits N delays before the pass
// delay itself.
func WithEntryDelay(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		if d < 0 {
			return errors.New("entry delay cannot be negative")
		}
		cfg.entryDelay = d
		cfg.entryDelaySet = true
		return nil
	}
}

// WithSchedule starts passes according to a cron expression instead of a
// fixed delay.
//
// Accepts standard five-field expressions, an optional leading seconds
// field, and descriptors such as "@hourly" or "@every 5m".
func WithSchedule(spec string) Option {
	return func(cfg *monitorConfig) error {
		sched, err := ParseSchedule(spec)
		if err != nil {
			return err
		}
		cfg.schedule = sched
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for diagnostics.
//
// If not specified, [slog.Default] is used.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *monitorConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithCheckCallback registers a function called after every successful check.
//
// Callbacks run synchronously on the polling goroutine in registration
// order, so they must not block. Panics are recovered and logged with a
// correlation ID.
//
// Nil callbacks are silently ignored.
func WithCheckCallback(cb func(CheckResult)) Option {
	return func(cfg *monitorConfig) error {
		if cb == nil {
			return nil
		}
		cfg.checkCallbacks = append(cfg.checkCallbacks, cb)
		return nil
	}
}

// WithPassHook registers a function called after every completed pass.
//
// Nil hooks are silently ignored.
func WithPassHook(fn func(PassSummary)) Option {
	return func(cfg *monitorConfig) error {
		if fn == nil {
			return nil
		}
		cfg.passHooks = append(cfg.passHooks, fn)
		return nil
	}
}

// WithContinueOnCheckError controls what happens when an availability check
// fails.
//
// By default a failed check stops [Monitor.Run] with an error wrapping
// [ErrCheck]. When enabled the failure is logged and the entry is skipped
// until the next pass. Notification failures always stop the run.
func WithContinueOnCheckError(enabled bool) Option {
	return func(cfg *monitorConfig) error {
		cfg.continueOnErrors = enabled
		return nil
	}
}
