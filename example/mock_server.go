package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/sysmon-dev/sysmon/internal/poller"
)

// mockStock tracks the stock level and next change time for one hardware model.
type mockStock struct {
	levelIdx     int
	nextChangeAt time.Time
}

// StartMockAvailabilityServer runs a mock availability API whose stock
// levels cycle for every requested hardware model. Each model changes level
// every 10-30 seconds. Call this in a goroutine before starting the monitor.
func StartMockAvailabilityServer(addr string, datacenters ...string) {
	var (
		stock = make(map[string]*mockStock)
		mu    sync.Mutex
	)
	levels := []string{"unavailable", "unavailable", "1H-low", "1H-high"}

	http.HandleFunc("/availabilities", func(w http.ResponseWriter, r *http.Request) {
		hardware := r.URL.Query().Get("hardware")

		// simulate small latency variance
		time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

		mu.Lock()
		s, exists := stock[hardware]
		if !exists {
			s = &mockStock{
				nextChangeAt: time.Now().Add(time.Duration(10+rand.Intn(21)) * time.Second),
			}
			stock[hardware] = s
		}

		if time.Now().After(s.nextChangeAt) {
			old := levels[s.levelIdx]
			s.levelIdx = (s.levelIdx + 1) % len(levels)
			s.nextChangeAt = time.Now().Add(time.Duration(10+rand.Intn(21)) * time.Second)
			slog.Info("stock change", "hardware", hardware, "from", old, "to", levels[s.levelIdx])
		}
		level := levels[s.levelIdx]
		mu.Unlock()

		dcs := make([]poller.DatacenterAvailability, 0, len(datacenters))
		for _, dc := range datacenters {
			dcs = append(dcs, poller.DatacenterAvailability{Datacenter: dc, Availability: level})
		}

		w.Header().Set("Content-Type", "application/json")
		resp := []poller.Region{{Hardware: hardware, Datacenters: dcs}}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	if err := http.ListenAndServe(addr, nil); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
