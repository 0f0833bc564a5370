package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultAPIURL is the dedicated-server availability endpoint.
	DefaultAPIURL = "https://www.ovh.com/engine/api/dedicated/server/availabilities"

	// DefaultCountry is the subsidiary whose catalogue is queried.
	DefaultCountry = "UK"
)

// DatacenterAvailability is one datacenter entry within a [Region].
type DatacenterAvailability struct {
	Datacenter   string `json:"datacenter"`
	Availability string `json:"availability"`
}

// Region is one element of the availability API response.
//
// Only Datacenters is used for matching; the remaining fields are decoded for
// debug logging.
type Region struct {
	Region      string                   `json:"region"`
	Hardware    string                   `json:"hardware"`
	Datacenters []DatacenterAvailability `json:"datacenters"`
}

// CheckerConfig configures a [Checker].
type CheckerConfig struct {
	// APIURL is the availability endpoint without query string.
	// Defaults to [DefaultAPIURL].
	APIURL string

	// Country is sent as the "country" query parameter. Defaults to [DefaultCountry].
	Country string

	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
}

// Checker looks up the availability of a hardware model in a datacenter.
type Checker struct {
	client  *Client
	apiURL  *url.URL
	country string
	timeout time.Duration
}

// NewChecker creates a [Checker] that issues requests through client.
//
// Returns an error if the configured API URL cannot be parsed.
func NewChecker(client *Client, cfg CheckerConfig) (*Checker, error) {
	if client == nil {
		return nil, fmt.Errorf("client is required")
	}
	raw := cfg.APIURL
	if raw == "" {
		raw = DefaultAPIURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url scheme must be http or https, got %q", u.Scheme)
	}

	country := cfg.Country
	if country == "" {
		country = DefaultCountry
	}

	return &Checker{
		client:  client,
		apiURL:  u,
		country: country,
		timeout: cfg.Timeout,
	}, nil
}

// URL returns the request URL for hardware.
func (c *Checker) URL(hardware string) string {
	u := *c.apiURL
	q := u.Query()
	q.Set("country", c.country)
	q.Set("hardware", hardware)
	u.RawQuery = q.Encode()
	return u.String()
}

// CheckAvailability returns the availability string reported for hardware in
// the first datacenter matching datacenter.
//
// found is false when no datacenter in the response matches; that case is
// not an error. Transport failures, non-2xx responses and bodies that do not
// decode as a region list are returned as errors.
func (c *Checker) CheckAvailability(ctx context.Context, hardware, datacenter string) (availability string, found bool, err error) {
	resp := c.client.Get(ctx, c.URL(hardware), c.timeout)
	if resp.Error != nil {
		return "", false, resp.Error
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false, fmt.Errorf("unexpected status %d from availability api", resp.StatusCode)
	}

	regions, err := DecodeRegions(resp.Body)
	if err != nil {
		return "", false, err
	}

	availability, found = MatchDatacenter(regions, datacenter)
	return availability, found, nil
}

// DecodeRegions decodes an availability API response body.
func DecodeRegions(body []byte) ([]Region, error) {
	var regions []Region
	if err := json.Unmarshal(body, &regions); err != nil {
		return nil, fmt.Errorf("failed to decode availability response: %w", err)
	}
	return regions, nil
}

// MatchDatacenter returns the availability of the first datacenter whose
// name contains code, scanning regions in order.
func MatchDatacenter(regions []Region, code string) (string, bool) {
	for _, region := range regions {
		for _, dc := range region.Datacenters {
			if strings.Contains(dc.Datacenter, code) {
				return dc.Availability, true
			}
		}
	}
	return "", false
}
