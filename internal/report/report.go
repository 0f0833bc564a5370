// Package report writes check results as JSON lines.
//
// Each [sysmon.CheckResult] becomes one line on the configured writer:
//
//	{"datetime":"2024-05-01 12:00:00","hardware":"1801sk12","datacenter":"gra","availability":"available","notification_sent":true}
//
// notification_sent only appears when the hardware is available.
package report

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/sysmon-dev/sysmon"
)

// DateTimeLayout is the layout of the datetime field.
const DateTimeLayout = "2006-01-02 15:04:05"

// Writer implements sysmon.Reporter on top of a zerolog logger with no level
// or message fields.
type Writer struct {
	log zerolog.Logger
}

// NewWriter creates a [Writer] that emits to w. Concurrent use is safe.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		log: zerolog.New(zerolog.SyncWriter(w)),
	}
}

// Report writes result as a single JSON line.
func (w *Writer) Report(result sysmon.CheckResult) error {
	ev := w.log.Log().
		Str("datetime", result.CheckedAt.Format(DateTimeLayout)).
		Str("hardware", result.Hardware).
		Str("datacenter", result.Datacenter).
		Str("availability", result.Availability.String())
	if result.Availability == sysmon.AvailabilityAvailable {
		ev = ev.Bool("notification_sent", result.NotificationSent)
	}
	ev.Send()
	return nil
}

var _ sysmon.Reporter = (*Writer)(nil)
