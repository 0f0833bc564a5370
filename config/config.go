// Package config loads the sysmon configuration file.
//
// YAML is the primary format; JSON files are read through the same YAML
// decoder and files ending in .toml are decoded as TOML.
//
// Example configuration:
//
//	hardware:
//	  - name: 1801sk12
//	    datacenter: gra
//	    notifications:
//	      - ops@example.com
//
//	email:
//	  server: smtp.gmail.com
//	  port: 587
//	  username: alerts@example.com
//	  password: ${SMTP_PASSWORD}
//
// Only the hardware list is mandatory. String values in the email and api
// blocks, and notification addresses, support ${VAR} and ${VAR:-default}
// environment substitution.
//
// Mail is sent from email.from, or from email.username when from is empty,
// and that value must be an email address. Relays that log in with a
// token-style username such as "apikey" need an explicit from.
package config

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sysmon-dev/sysmon/internal/poller"
	"gopkg.in/yaml.v3"
)

// DefaultOfferURL is the order page template linked from notification emails.
const DefaultOfferURL = "https://www.soyoustart.com/en/offers/{{.Name}}.xml"

// ErrNoHardware is returned when the configuration lists no hardware.
var ErrNoHardware = errors.New("error loading configuration: no hardware provided")

// Config is the root configuration structure.
type Config struct {
	// Hardware is the watch list. Required.
	Hardware []HardwareConfig `yaml:"hardware" toml:"hardware"`

	// Email holds SMTP settings used for notifications.
	Email EmailConfig `yaml:"email" toml:"email"`

	// API overrides the availability endpoint. Optional.
	API APIConfig `yaml:"api" toml:"api"`

	// OfferURL is a text/template rendering the order link for a hardware
	// entry; {{.Name}} and {{.Datacenter}} are available.
	// Defaults to DefaultOfferURL.
	OfferURL string `yaml:"offer_url" toml:"offer_url"`
}

// HardwareConfig is one watched hardware model.
type HardwareConfig struct {
	// Name is the hardware reference (e.g. "1801sk12").
	Name string `yaml:"name" toml:"name"`

	// Datacenter is matched as a substring of upstream datacenter names.
	Datacenter string `yaml:"datacenter" toml:"datacenter"`

	// Notifications are the email addresses to notify.
	Notifications []string `yaml:"notifications" toml:"notifications"`
}

// EmailConfig holds SMTP connection settings.
type EmailConfig struct {
	Server   string `yaml:"server" toml:"server"`
	Port     int    `yaml:"port" toml:"port"`
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`

	// From overrides the sender address. Defaults to Username.
	From string `yaml:"from" toml:"from"`
}

// Sender returns the address notifications are sent from: From, or Username
// when From is empty.
func (e EmailConfig) Sender() string {
	if e.From != "" {
		return e.From
	}
	return e.Username
}

// CheckSender reports whether [EmailConfig.Sender] is a usable address.
//
// It is not part of load-time validation; callers surface it as a warning.
func (e EmailConfig) CheckSender() error {
	sender := e.Sender()
	if sender == "" {
		return errors.New("no sender address: set email.from or email.username")
	}
	if _, err := mail.ParseAddress(sender); err != nil {
		field := "email.from"
		if e.From == "" {
			field = "email.username"
		}
		return fmt.Errorf("%s %q is not an email address; set email.from: %w", field, sender, err)
	}
	return nil
}

// APIConfig configures access to the availability API.
type APIConfig struct {
	// URL is the endpoint without query string.
	URL string `yaml:"url" toml:"url"`

	// Country is the catalogue queried. Defaults to "UK".
	Country string `yaml:"country" toml:"country"`

	// Timeout bounds each request. Zero means no timeout.
	Timeout Duration `yaml:"timeout" toml:"timeout"`
}

// Duration wraps time.Duration for YAML and TOML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler, used by the TOML decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a configuration file.
//
// Files ending in .toml are decoded as TOML; anything else as YAML (which
// also accepts JSON). Returns [ErrNoHardware] if no hardware is listed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOML(data)
	}
	return Parse(data)
}

// Parse parses YAML (or JSON) configuration data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return finish(&cfg)
}

// ParseTOML parses TOML configuration data.
func ParseTOML(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return finish(&cfg)
}

// finish applies defaults, expands environment variables and validates.
func finish(cfg *Config) (*Config, error) {
	if cfg.OfferURL == "" {
		cfg.OfferURL = DefaultOfferURL
	}
	if cfg.API.URL == "" {
		cfg.API.URL = poller.DefaultAPIURL
	}
	if cfg.API.Country == "" {
		cfg.API.Country = poller.DefaultCountry
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandAndValidate expands environment variables and performs presence checks.
func (c *Config) expandAndValidate() error {
	if len(c.Hardware) == 0 {
		return ErrNoHardware
	}

	for i := range c.Hardware {
		hw := &c.Hardware[i]
		if hw.Name == "" {
			return fmt.Errorf("hardware[%d]: name is required", i)
		}
		for j, addr := range hw.Notifications {
			expanded, err := expandEnvVars(addr)
			if err != nil {
				return fmt.Errorf("hardware[%d] (%s): notifications[%d]: %w", i, hw.Name, j, err)
			}
			hw.Notifications[j] = expanded
		}
	}

	fields := []struct {
		name string
		val  *string
	}{
		{"email.server", &c.Email.Server},
		{"email.username", &c.Email.Username},
		{"email.password", &c.Email.Password},
		{"email.from", &c.Email.From},
		{"api.url", &c.API.URL},
	}
	for _, f := range fields {
		expanded, err := expandEnvVars(*f.val)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.val = expanded
	}

	if c.API.Timeout.Duration() < 0 {
		return fmt.Errorf("api.timeout cannot be negative, got %s", c.API.Timeout.Duration())
	}

	// fail fast before the first notification tries to render it
	if _, err := template.New("").Parse(c.OfferURL); err != nil {
		return fmt.Errorf("invalid offer_url: %w", err)
	}

	return nil
}
