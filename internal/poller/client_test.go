package poller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/http/httptrace"
	"strings"
	"testing"
	"time"
)

// TestClient_ConnectionReuse verifies that sequential requests to the same
// host reuse pooled connections.
func TestClient_ConnectionReuse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := NewClient("")

	var reusedCount int
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			if info.Reused {
				reusedCount++
			}
		},
	}

	const numRequests = 5

	for i := 0; i < numRequests; i++ {
		ctx := httptrace.WithClientTrace(context.Background(), trace)
		resp := client.Get(ctx, server.URL, 5*time.Second)
		if resp.Error != nil {
			t.Fatalf("request %d failed: %v", i, resp.Error)
		}
	}

	// all requests after the first should reuse the connection
	expectedMinReuse := numRequests - 2 // allow some tolerance
	if reusedCount < expectedMinReuse {
		t.Errorf("expected at least %d reused connections, got %d out of %d requests",
			expectedMinReuse, reusedCount, numRequests)
	}
}

func TestClient_SendsHeaders(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := NewClient("sysmon/test")
	resp := client.Get(context.Background(), server.URL, 0)
	if resp.Error != nil {
		t.Fatalf("Get() error = %v", resp.Error)
	}

	if gotUA != "sysmon/test" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "sysmon/test")
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q, want %q", gotAccept, "application/json")
	}
}

// TestClient_Timeout verifies that a positive timeout cancels slow requests.
func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient("")
	resp := client.Get(context.Background(), server.URL, 50*time.Millisecond)
	if resp.Error == nil {
		t.Fatal("Get() expected timeout error, got nil")
	}
	if !errors.Is(resp.Error, context.DeadlineExceeded) {
		t.Errorf("Get() error = %v, want context.DeadlineExceeded", resp.Error)
	}
}

func TestClient_LimitsBodySize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", maxResponseBodySize+100)))
	}))
	defer server.Close()

	client := NewClient("")
	resp := client.Get(context.Background(), server.URL, time.Second)
	if resp.Error != nil {
		t.Fatalf("Get() error = %v", resp.Error)
	}
	if len(resp.Body) != maxResponseBodySize {
		t.Errorf("len(Body) = %d, want %d", len(resp.Body), maxResponseBodySize)
	}
}

func TestClient_InvalidURL(t *testing.T) {
	client := NewClient("")
	resp := client.Get(context.Background(), "://bad", time.Second)
	if resp.Error == nil {
		t.Fatal("Get() expected error for invalid URL, got nil")
	}
	if !strings.Contains(resp.Error.Error(), "failed to create request") {
		t.Errorf("error should mention 'failed to create request', got: %v", resp.Error)
	}
}

// TestClient_Close verifies that Close() is safe to call and idempotent.
func TestClient_Close(t *testing.T) {
	client := NewClient("")

	client.Close()
	client.Close()
}

// TestClient_Close_NilClient verifies that Close() handles nil receiver safely.
func TestClient_Close_NilClient(t *testing.T) {
	var client *Client

	client.Close()
}
