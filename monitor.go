package sysmon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sysmon-dev/sysmon/internal/store"
)

const defaultDelay = 300 * time.Second

var (
	// ErrCheck wraps failures to obtain availability from upstream.
	ErrCheck = errors.New("availability check failed")

	// ErrNotify wraps failures to deliver a notification.
	ErrNotify = errors.New("notification failed")
)

// AvailabilityChecker looks up the upstream availability of a hardware model.
//
// found is false when no datacenter in the response matches; this is not an
// error and is reported as available.
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, hardware, datacenter string) (availability string, found bool, err error)
}

// Notifier tells subscribers that hardware has become available.
type Notifier interface {
	Notify(ctx context.Context, hw Hardware) error
}

// Reporter receives one [CheckResult] per check.
type Reporter interface {
	Report(result CheckResult) error
}

// NotifiedStore records hardware names that have already been notified.
type NotifiedStore interface {
	Contains(name string) bool
	Add(name string)
	Names() []string
	Len() int
}

var _ NotifiedStore = (*store.NotifiedSet)(nil)

// Monitor polls hardware availability and notifies subscribers once per
// hardware name when it first leaves the unavailable state.
//
// A Monitor is sequential: one check at a time, in configuration order.
// The notified record is explicit state owned by the Monitor (see
// [WithNotifiedStore]) and is never persisted.
type Monitor struct {
	hardware         []Hardware
	checker          AvailabilityChecker
	notifier         Notifier
	reporter         Reporter
	notified         NotifiedStore
	entryDelay       time.Duration
	schedule         Schedule
	logger           *slog.Logger
	checkCallbacks   []func(CheckResult)
	passHooks        []func(PassSummary)
	continueOnErrors bool

	// overridable in tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a [Monitor] with the given options.
//
// At least one hardware entry, a checker and a notifier are required.
// Defaults:
//   - Delay between passes: 5 minutes
//   - Delay between entries: same as the pass delay
//   - Notified store: empty in-memory set
//   - Logger: slog.Default()
func New(opts ...Option) (*Monitor, error) {
	cfg := &monitorConfig{
		delay: defaultDelay,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.hardware) == 0 {
		return nil, errors.New("at least one hardware entry is required")
	}
	for i, hw := range cfg.hardware {
		if hw.Name == "" {
			return nil, fmt.Errorf("hardware[%d]: name is required", i)
		}
	}
	if cfg.checker == nil {
		return nil, errors.New("a checker is required")
	}
	if cfg.notifier == nil {
		return nil, errors.New("a notifier is required")
	}

	if !cfg.entryDelaySet {
		cfg.entryDelay = cfg.delay
	}
	if cfg.schedule == nil {
		cfg.schedule = fixedDelay(cfg.delay)
	}
	if cfg.notified == nil {
		cfg.notified = store.NewNotifiedSet()
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Monitor{
		hardware:         cfg.hardware,
		checker:          cfg.checker,
		notifier:         cfg.notifier,
		reporter:         cfg.reporter,
		notified:         cfg.notified,
		entryDelay:       cfg.entryDelay,
		schedule:         cfg.schedule,
		logger:           logger,
		checkCallbacks:   cfg.checkCallbacks,
		passHooks:        cfg.passHooks,
		continueOnErrors: cfg.continueOnErrors,
		now:              time.Now,
		sleep:            sleepContext,
	}, nil
}

// Hardware returns a copy of the watched hardware entries.
func (m *Monitor) Hardware() []Hardware {
	cp := make([]Hardware, len(m.hardware))
	copy(cp, m.hardware)
	return cp
}

// Notified returns the hardware names notified so far, in notification order.
func (m *Monitor) Notified() []string {
	return m.notified.Names()
}

// Run checks every entry, waits for the next scheduled pass, and repeats
// until ctx is cancelled.
//
// Returns nil when ctx is cancelled. Returns an error wrapping [ErrNotify]
// if a notification cannot be delivered, or wrapping [ErrCheck] if an
// availability check fails and [WithContinueOnCheckError] is not set.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor starting",
		"hardware_count", len(m.hardware),
		"entry_delay", m.entryDelay.String(),
	)

	for {
		summary, err := m.RunPass(ctx)
		if ctx.Err() != nil {
			m.logger.Info("monitor stopped", "notified", m.notified.Len())
			return nil
		}
		if err != nil {
			return err
		}

		m.firePassHooks(summary)

		now := m.now()
		wait := m.schedule.Next(now).Sub(now)
		m.logger.Debug("pass complete",
			"checked", summary.Checked,
			"available", summary.Available,
			"notified", summary.Notified,
			"failed", summary.Failed,
			"next_pass_in", wait.String(),
		)
		if err := m.sleep(ctx, wait); err != nil {
			m.logger.Info("monitor stopped", "notified", m.notified.Len())
			return nil
		}
	}
}

// RunPass checks every configured entry once, in order.
//
// When more than one entry is configured, RunPass waits the entry delay
// after each check, including the last one.
func (m *Monitor) RunPass(ctx context.Context) (PassSummary, error) {
	var summary PassSummary

	for _, hw := range m.hardware {
		result, sent, err := m.check(ctx, hw)
		switch {
		case err == nil:
			summary.Checked++
			if result.Availability == AvailabilityAvailable {
				summary.Available++
			}
			if sent {
				summary.Notified++
			}
		case errors.Is(err, ErrCheck) && m.continueOnErrors && ctx.Err() == nil:
			summary.Failed++
			m.logger.Warn("availability check failed, skipping",
				"hardware", hw.Name,
				"datacenter", hw.Datacenter,
				"error", err.Error(),
			)
		default:
			return summary, err
		}

		if len(m.hardware) > 1 && m.entryDelay > 0 {
			if err := m.sleep(ctx, m.entryDelay); err != nil {
				return summary, err
			}
		}
	}

	return summary, nil
}

// Check queries availability for hw, notifies subscribers if this is the
// first time hw is seen outside the unavailable state, and emits the result.
func (m *Monitor) Check(ctx context.Context, hw Hardware) (CheckResult, error) {
	result, _, err := m.check(ctx, hw)
	return result, err
}

// check is Check plus whether an email went out during this call.
func (m *Monitor) check(ctx context.Context, hw Hardware) (CheckResult, bool, error) {
	checkedAt := m.now()

	raw, found, err := m.checker.CheckAvailability(ctx, hw.Name, hw.Datacenter)
	if err != nil {
		return CheckResult{}, false, fmt.Errorf("%w: %s: %w", ErrCheck, hw.Name, err)
	}

	result := CheckResult{
		CheckedAt:    checkedAt,
		Hardware:     hw.Name,
		Datacenter:   hw.Datacenter,
		Availability: NormalizeAvailability(raw),
		Raw:          raw,
		Found:        found,
	}

	if !found {
		m.logger.Warn("datacenter not present in availability response",
			"hardware", hw.Name,
			"datacenter", hw.Datacenter,
		)
	}

	sent := false
	if result.Availability != AvailabilityUnavailable {
		if !m.notified.Contains(hw.Name) {
			if err := m.notifier.Notify(ctx, hw); err != nil {
				return result, false, fmt.Errorf("%w: %s: %w", ErrNotify, hw.Name, err)
			}
			m.notified.Add(hw.Name)
			sent = true
			m.logger.Info("notification sent",
				"hardware", hw.Name,
				"datacenter", hw.Datacenter,
				"recipients", len(hw.Recipients),
				"availability", raw,
			)
		}
		result.NotificationSent = true
	}

	m.emit(result)
	return result, sent, nil
}

// emit hands result to the reporter and all callbacks.
func (m *Monitor) emit(result CheckResult) {
	if m.reporter != nil {
		if err := m.reporter.Report(result); err != nil {
			m.logger.Error("failed to report check result",
				"hardware", result.Hardware,
				"error", err.Error(),
			)
		}
	}

	for _, cb := range m.checkCallbacks {
		m.invokeCallbackSafe(cb, result)
	}
}

// firePassHooks runs every pass hook with panic recovery.
func (m *Monitor) firePassHooks(summary PassSummary) {
	for _, hook := range m.passHooks {
		m.recoverPanic("pass hook panicked", "", func() { hook(summary) })
	}
}

// invokeCallbackSafe calls a check callback with panic recovery.
func (m *Monitor) invokeCallbackSafe(cb func(CheckResult), result CheckResult) {
	m.recoverPanic("check callback panicked", result.Hardware, func() { cb(result) })
}

// recoverPanic runs fn and converts a panic into an error log carrying a
// correlation ID and the stack trace.
func (m *Monitor) recoverPanic(msg, hardware string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error(msg,
				"correlation_id", uuid.NewString(),
				"hardware", hardware,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
