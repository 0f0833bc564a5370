package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sysmon-dev/sysmon/config"
)

// validateCmd validates a config file without contacting any server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a sysmon configuration file without polling or sending mail.

This command parses the file, expands environment variables, and renders the
offer link of every hardware entry. It's useful for CI/CD pipelines or
pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  sysmon validate -c config/config.yml
  SYSMON_CONFIG=/etc/sysmon/config.yml sysmon validate`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (default $SYSMON_CONFIG or config/config.yml)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		configFile = config.PathFromEnv()
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	hardware, err := config.BuildHardware(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]bool)
	var datacenters []string
	recipients := 0
	for _, hw := range hardware {
		recipients += len(hw.Recipients)
		if hw.Datacenter != "" && !seen[hw.Datacenter] {
			seen[hw.Datacenter] = true
			datacenters = append(datacenters, hw.Datacenter)
		}
	}
	sort.Strings(datacenters)

	smtp := "(not configured)"
	if cfg.Email.Server != "" {
		smtp = fmt.Sprintf("%s:%d", cfg.Email.Server, cfg.Email.Port)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Hardware:    %d (%d recipients)\n", len(hardware), recipients)
	fmt.Printf("  Datacenters: %s\n", strings.Join(datacenters, ", "))
	fmt.Printf("  SMTP server: %s\n", smtp)
	fmt.Printf("  API:         %s?country=%s\n", cfg.API.URL, cfg.API.Country)
	if err := cfg.Email.CheckSender(); err != nil {
		fmt.Printf("  Warning:     %v\n", err)
	}

	return nil
}
