package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	logLevel  string
	logFormat string

	rootCmd = &cobra.Command{
		Use:   "server",
		Short: "Courtyard server - residential community backend",
		Long: `Courtyard server is the backend for a residential community app.

It provides:
- Building events with recurring schedules and RSVPs
- Manager announcements with email fan-out
- Package room tracking with pickup reminders
- Marketplace listings with likes
- Resident directory and direct messages`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand means serve.
			return serveCmd.RunE(cmd, args)
		},
	}
)

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console) (default: json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createManagerCmd)
	rootCmd.AddCommand(versionCmd)
}
