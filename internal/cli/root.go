// Package cli implements the openclaw command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

// SetBuildInfo sets version info injected at build time.
func SetBuildInfo(v, date, commit string) {
	version = v
	buildDate = date
	gitCommit = commit
}

var (
	flagURL     string
	flagToken   string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "openclaw",
	Short: "OpenClaw — gateway client for agent sessions",
	Long: `OpenClaw — command line client for an OpenClaw gateway.

Talk to a running gateway over its WebSocket control plane: send chat
messages, stream agent events, and manage sessions, models and settings.

Default gateway: ws://127.0.0.1:18789`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("openclaw %s\n", version)
		fmt.Printf("  build:  %s\n", buildDate)
		fmt.Printf("  commit: %s\n", gitCommit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "Gateway WebSocket URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "Gateway auth token (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(channelsCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(configCmdGroup)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(onboardCmd)
}

// Execute runs the root cobra command.
func Execute() error {
	return rootCmd.Execute()
}
