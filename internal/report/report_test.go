package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sysmon-dev/sysmon"
)

func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()

	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("line %q is not JSON: %v", line, err)
		}
		lines = append(lines, m)
	}
	return lines
}

func TestWriter_Report_Available(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	err := w.Report(sysmon.CheckResult{
		CheckedAt:        time.Date(2024, 5, 1, 12, 3, 4, 0, time.Local),
		Hardware:         "X",
		Datacenter:       "Z",
		Availability:     sysmon.AvailabilityAvailable,
		Raw:              "high",
		Found:            true,
		NotificationSent: true,
	})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	lines := decodeLines(t, buf.String())
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	got := lines[0]

	want := map[string]any{
		"datetime":          "2024-05-01 12:03:04",
		"hardware":          "X",
		"datacenter":        "Z",
		"availability":      "available",
		"notification_sent": true,
	}
	if len(got) != len(want) {
		t.Errorf("fields = %v, want exactly %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
}

func TestWriter_Report_UnavailableOmitsNotificationSent(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	_ = w.Report(sysmon.CheckResult{
		CheckedAt:    time.Now(),
		Hardware:     "X",
		Datacenter:   "Z",
		Availability: sysmon.AvailabilityUnavailable,
	})

	got := decodeLines(t, buf.String())[0]
	if got["availability"] != "unavailable" {
		t.Errorf("availability = %v, want unavailable", got["availability"])
	}
	if _, ok := got["notification_sent"]; ok {
		t.Error("notification_sent present on unavailable result")
	}
	if _, ok := got["level"]; ok {
		t.Error("unexpected level field")
	}
	if _, ok := got["message"]; ok {
		t.Error("unexpected message field")
	}
}

func TestWriter_Report_OneLinePerResult(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	for i := 0; i < 3; i++ {
		_ = w.Report(sysmon.CheckResult{Hardware: "X", Availability: sysmon.AvailabilityUnavailable})
	}

	if n := strings.Count(buf.String(), "\n"); n != 3 {
		t.Errorf("got %d newlines, want 3", n)
	}
}
