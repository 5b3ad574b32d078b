package main

import (
	"fmt"
	"os"

	"booking-calendar-sync/pkg/logger"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "booking-calendar-sync",
	Short: "Sync booking emails into Google Calendar",
	Long: `Reads flight and car-share booking emails from Gmail, extracts the
booking details and keeps one calendar event per flight segment and per
car-share reservation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().Bool("dry-run", false, "plan calendar changes without applying them or labeling emails")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newServeCmd(), newRunCmd(), newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.NewLoggerWithOptions(logger.Options{Level: "info", Format: "console"})
		log.Error("Command failed", "error", err)
		_ = log.Sync()
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "booking-calendar-sync %s\n", Version)
		},
	}
}
