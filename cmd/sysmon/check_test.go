package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sysmon-dev/sysmon/config"
	"gopkg.in/gomail.v2"
)

// availabilityServer serves body for every request and counts hits.
func availabilityServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32, *atomic.Value) {
	t.Helper()
	var hits atomic.Int32
	var lastQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		lastQuery.Store(r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits, &lastQuery
}

type capturedMail struct {
	to      []string
	subject string
}

// captureMail routes notifications to a recorder for the duration of the test.
func captureMail(t *testing.T, sendErr error) *[]capturedMail {
	t.Helper()
	var sent []capturedMail
	mailSender = gomail.SendFunc(func(from string, to []string, msg io.WriterTo) error {
		if sendErr != nil {
			return sendErr
		}
		m, ok := msg.(*gomail.Message)
		if !ok {
			return fmt.Errorf("unexpected message type %T", msg)
		}
		sent = append(sent, capturedMail{to: to, subject: strings.Join(m.GetHeader("Subject"), "")})
		return nil
	})
	t.Cleanup(func() { mailSender = nil })
	return &sent
}

func monitorConfig(apiURL string) string {
	return fmt.Sprintf(`
hardware:
  - name: X
    datacenter: Z
    notifications: [ops@example.com]
email:
  server: smtp.example.com
  port: 587
  username: alerts@example.com
  password: secret
api:
  url: %s
`, apiURL)
}

func parseLines(t *testing.T, output string) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("output line %q is not JSON: %v", line, err)
		}
		lines = append(lines, m)
	}
	return lines
}

func TestRunCheck_NotifiesAvailableHardware(t *testing.T) {
	t.Setenv(config.EnvDelay, "")
	srv, hits, lastQuery := availabilityServer(t, http.StatusOK,
		`[{"datacenters":[{"datacenter":"Z","availability":"high"}]}]`)
	sent := captureMail(t, nil)
	configPath := writeConfig(t, "config.yml", monitorConfig(srv.URL))

	output, err := executeCmd(t, "check", "-c", configPath)
	if err != nil {
		t.Fatalf("check command error = %v", err)
	}

	if hits.Load() != 1 {
		t.Errorf("api hits = %d, want 1", hits.Load())
	}
	if q, _ := lastQuery.Load().(string); q != "country=UK&hardware=X" {
		t.Errorf("query = %q, want country=UK&hardware=X", q)
	}

	if len(*sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(*sent))
	}
	mail := (*sent)[0]
	if !strings.Contains(mail.subject, "X") {
		t.Errorf("subject = %q, want it to contain X", mail.subject)
	}
	if len(mail.to) != 1 || mail.to[0] != "ops@example.com" {
		t.Errorf("to = %v, want [ops@example.com]", mail.to)
	}

	lines := parseLines(t, output)
	if len(lines) != 1 {
		t.Fatalf("got %d output lines, want 1\nGot: %s", len(lines), output)
	}
	line := lines[0]
	if line["hardware"] != "X" || line["datacenter"] != "Z" {
		t.Errorf("line = %v", line)
	}
	if line["availability"] != "available" {
		t.Errorf("availability = %v, want available", line["availability"])
	}
	if line["notification_sent"] != true {
		t.Errorf("notification_sent = %v, want true", line["notification_sent"])
	}
	datetime, _ := line["datetime"].(string)
	if !regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`).MatchString(datetime) {
		t.Errorf("datetime = %q, want YYYY-MM-DD HH:MM:SS", datetime)
	}
}

func TestRunCheck_UnavailableSendsNothing(t *testing.T) {
	srv, _, _ := availabilityServer(t, http.StatusOK,
		`[{"datacenters":[{"datacenter":"Z","availability":"unavailable"}]}]`)
	sent := captureMail(t, nil)
	configPath := writeConfig(t, "config.yml", monitorConfig(srv.URL))

	output, err := executeCmd(t, "check", "-c", configPath)
	if err != nil {
		t.Fatalf("check command error = %v", err)
	}

	if len(*sent) != 0 {
		t.Errorf("sent %d emails, want 0", len(*sent))
	}
	lines := parseLines(t, output)
	if len(lines) != 1 {
		t.Fatalf("got %d output lines, want 1", len(lines))
	}
	if lines[0]["availability"] != "unavailable" {
		t.Errorf("availability = %v, want unavailable", lines[0]["availability"])
	}
	if _, ok := lines[0]["notification_sent"]; ok {
		t.Errorf("notification_sent present on unavailable line: %v", lines[0])
	}
}

func TestRunCheck_MissingHardwareMakesNoRequests(t *testing.T) {
	srv, hits, _ := availabilityServer(t, http.StatusOK, `[]`)
	sent := captureMail(t, nil)
	configPath := writeConfig(t, "config.yml", fmt.Sprintf(`
email:
  server: smtp.example.com
api:
  url: %s
`, srv.URL))

	output, err := executeCmd(t, "check", "-c", configPath)
	if err == nil {
		t.Fatal("check command expected error for missing hardware, got nil")
	}
	if !strings.Contains(err.Error(), "no hardware provided") {
		t.Errorf("error should mention 'no hardware provided', got: %v", err)
	}
	if hits.Load() != 0 {
		t.Errorf("api hits = %d, want 0", hits.Load())
	}
	if len(*sent) != 0 || strings.TrimSpace(output) != "" {
		t.Errorf("expected no output and no mail, got %q and %d emails", output, len(*sent))
	}
}

func TestRunCheck_SMTPFailure(t *testing.T) {
	srv, _, _ := availabilityServer(t, http.StatusOK,
		`[{"datacenters":[{"datacenter":"Z","availability":"1H-low"}]}]`)
	captureMail(t, errors.New("535 authentication failed"))
	configPath := writeConfig(t, "config.yml", monitorConfig(srv.URL))

	output, err := executeCmd(t, "check", "-c", configPath)
	if err == nil {
		t.Fatal("check command expected error for SMTP failure, got nil")
	}
	if !strings.Contains(err.Error(), "notification failed") {
		t.Errorf("error should mention 'notification failed', got: %v", err)
	}
	if strings.TrimSpace(output) != "" {
		t.Errorf("expected no result line, got %q", output)
	}
}

func TestRunCheck_APIErrorStops(t *testing.T) {
	srv, _, _ := availabilityServer(t, http.StatusInternalServerError, `oops`)
	captureMail(t, nil)
	configPath := writeConfig(t, "config.yml", monitorConfig(srv.URL))

	_, err := executeCmd(t, "check", "-c", configPath)
	if err == nil {
		t.Fatal("check command expected error for api failure, got nil")
	}
	if !strings.Contains(err.Error(), "unexpected status 500") {
		t.Errorf("error should mention the status, got: %v", err)
	}
}

func TestRunCheck_APIErrorKeepGoing(t *testing.T) {
	srv, _, _ := availabilityServer(t, http.StatusInternalServerError, `oops`)
	captureMail(t, nil)
	configPath := writeConfig(t, "config.yml", monitorConfig(srv.URL))

	output, err := executeCmd(t, "check", "-c", configPath, "--keep-going")
	if err != nil {
		t.Fatalf("check command error = %v", err)
	}
	if strings.TrimSpace(output) != "" {
		t.Errorf("expected no result line, got %q", output)
	}
}

func TestRunCheck_InvalidFlags(t *testing.T) {
	srv, hits, _ := availabilityServer(t, http.StatusOK, `[]`)
	configPath := writeConfig(t, "config.yml", monitorConfig(srv.URL))

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"negative delay", []string{"--delay=-5"}, "invalid --delay"},
		{"bad entry delay", []string{"--entry-delay", "soon"}, "invalid --entry-delay"},
		{"bad log level", []string{"--log-level", "loud"}, "invalid --log-level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"check", "-c", configPath}, tt.args...)
			_, err := executeCmd(t, args...)
			if err == nil {
				t.Fatal("check command expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}

	if hits.Load() != 0 {
		t.Errorf("api hits = %d, want 0", hits.Load())
	}
}

func TestRunCheck_InvalidDelayEnv(t *testing.T) {
	t.Setenv(config.EnvDelay, "never")
	configPath := writeConfig(t, "config.yml", monitorConfig("http://127.0.0.1:1"))

	_, err := executeCmd(t, "check", "-c", configPath)
	if err == nil {
		t.Fatal("check command expected error, got nil")
	}
	if !strings.Contains(err.Error(), config.EnvDelay) {
		t.Errorf("error should mention %s, got: %v", config.EnvDelay, err)
	}
}
