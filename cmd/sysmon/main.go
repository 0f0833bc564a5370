// Package main is the entry point for the sysmon CLI.
//
// Usage:
//
//	sysmon watch -c config.yml    # Poll and notify until interrupted
//	sysmon check -c config.yml    # Run a single pass and exit
//	sysmon validate -c config.yml # Validate configuration
//	sysmon version                # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "sysmon",
	Short: "Watch dedicated server stock and email when hardware is available",
	Long: `sysmon polls the OVH availability API for a list of hardware models and
sends one email per model the first time it shows up in the configured
datacenter.

Every check is written to stdout as a JSON line:
  {"datetime":"2024-05-01 12:00:00","hardware":"1801sk12","datacenter":"gra","availability":"available","notification_sent":true}

Environment:
  SYSMON_CONFIG  config file path (default config/config.yml)
  SYSMON_DELAY   seconds to sleep between checks (default 300)

Example config:
  hardware:
    - name: 1801sk12
      datacenter: gra
      notifications: [ops@example.com]
  email:
    server: smtp.gmail.com
    port: 587
    username: alerts@example.com
    password: ${SMTP_PASSWORD}`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this sysmon binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sysmon %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
