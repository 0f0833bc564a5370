package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// EnvConfigPath names the variable holding the config file path.
	EnvConfigPath = "SYSMON_CONFIG"

	// EnvDelay names the variable holding the poll delay in seconds.
	EnvDelay = "SYSMON_DELAY"

	// DefaultPath is used when EnvConfigPath is unset.
	DefaultPath = "config/config.yml"

	// DefaultDelay is used when EnvDelay is unset.
	DefaultDelay = 300 * time.Second
)

// maxDelaySeconds is the largest whole-second delay a time.Duration can hold.
const maxDelaySeconds = math.MaxInt64 / int64(time.Second)

// PathFromEnv returns the config file path from the environment, or
// DefaultPath.
func PathFromEnv() string {
	if p, ok := os.LookupEnv(EnvConfigPath); ok && p != "" {
		return p
	}
	return DefaultPath
}

// DelayFromEnv returns the poll delay from the environment, or DefaultDelay.
//
// The value is a whole number of seconds ("300"); a Go duration string
// ("5m") is accepted as well.
func DelayFromEnv() (time.Duration, error) {
	raw, ok := os.LookupEnv(EnvDelay)
	if !ok || strings.TrimSpace(raw) == "" {
		return DefaultDelay, nil
	}
	d, err := ParseDelay(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", EnvDelay, err)
	}
	return d, nil
}

// ParseDelay parses a delay given in seconds or as a Go duration string.
func ParseDelay(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)

	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("delay must not be negative, got %d", secs)
		}
		if secs > maxDelaySeconds {
			return 0, fmt.Errorf("delay too large, got %d seconds (max %d)", secs, maxDelaySeconds)
		}
		return time.Duration(secs) * time.Second, nil
	} else if errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("delay too large: %q", raw)
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid delay %q: expected seconds or a duration like 5m", raw)
	}
	if d < 0 {
		return 0, fmt.Errorf("delay must not be negative, got %s", d)
	}
	return d, nil
}
