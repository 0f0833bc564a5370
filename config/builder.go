package config

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/sysmon-dev/sysmon"
)

// BuildHardware converts parsed configuration into SDK Hardware values.
//
// The offer URL template is rendered once per entry.
func BuildHardware(cfg *Config) ([]sysmon.Hardware, error) {
	// use missingkey=error to fail fast on unknown template variables
	tmpl, err := template.New("offer_url").Option("missingkey=error").Parse(cfg.OfferURL)
	if err != nil {
		return nil, fmt.Errorf("invalid offer_url: %w", err)
	}

	hardware := make([]sysmon.Hardware, 0, len(cfg.Hardware))
	for i, hc := range cfg.Hardware {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, hc); err != nil {
			return nil, fmt.Errorf("hardware[%d] (%s): offer_url template execution failed: %w", i, hc.Name, err)
		}

		recipients := make([]string, len(hc.Notifications))
		copy(recipients, hc.Notifications)

		hardware = append(hardware, sysmon.Hardware{
			Name:       hc.Name,
			Datacenter: hc.Datacenter,
			Recipients: recipients,
			OfferURL:   buf.String(),
		})
	}

	return hardware, nil
}
