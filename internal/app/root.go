package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	dbPath    string
	configDir string
	logLevel  string

	// RootCmd is the root command for plexus
	RootCmd = &cobra.Command{
		Use:   "plexus",
		Short: "Check how Android apps work without Google Play Services",
		Long: `plexus keeps a local copy of the Plexus community ratings and matches them
against the apps installed on your Android device.

Each app carries two scores: how well it runs on a de-Googled phone and how
well it runs with microG. Scores map to Gold, Silver, Bronze, Unusable or
Not tested.

Quick Start:
  1. plexus sync             # download ratings and scan the device (adb)
  2. plexus list installed   # see how your apps fare
  3. plexus watch --daemon   # keep the ratings fresh

Examples:
  # Only refresh the ratings, no device needed
  plexus sync --remote

  # Gold-rated apps on de-Googled phones, Z to A
  plexus list available --dg gold --order z_a

  # Save a filter for every future list
  plexus prefs set installed_from fdroid

  # Details and individual ratings for one app
  plexus show org.briarproject.briar.android --ratings`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return loadConfig() },
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "plexus: de-Googled app compatibility ratings")
			fmt.Fprintln(out)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Fprintln(out, "Run 'plexus sync' to get started.")
			} else {
				fmt.Fprintln(out, "Tip: Run 'plexus list installed' to rate your apps.")
				fmt.Fprintln(out, "     Run 'plexus status' to check the database.")
			}
			fmt.Fprintln(out, "     Run 'plexus --help' for all commands.")
			return nil
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.plexus/plexus.db)")
	RootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default: ~/.config/plexus)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return RootCmd.ExecuteContext(ctx)
}
