package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/plexus/internal/output"
	"github.com/blackwell-systems/plexus/internal/repository"
)

var (
	syncRemote    bool
	syncInstalled bool

	syncCmd = &cobra.Command{
		Use:   "sync",
		Short: "Download ratings and scan installed apps",
		Long: `Refresh the local database.

By default both passes run concurrently:
  • Remote: download the Plexus dataset and update every app's scores
  • Installed: list third-party apps on the device over adb

A pass that fails, for example with no device attached, does not stop the
other one.

Apps uninstalled since the last scan are kept when Plexus rates them and
removed otherwise. Apps that left the Plexus dataset are removed unless
they are installed.`,
		Example: `  # Full sync
  plexus sync

  # Ratings only, no device needed
  plexus sync --remote

  # Device only
  plexus sync --installed`,
		RunE: runSync,
	}
)

func init() {
	syncCmd.Flags().BoolVar(&syncRemote, "remote", false, "only download ratings")
	syncCmd.Flags().BoolVar(&syncInstalled, "installed", false, "only scan the device")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	st, err := openStore(true)
	if err != nil {
		return err
	}
	defer st.Close()

	icons, err := openIcons()
	if err != nil {
		return err
	}
	defer icons.Wait()

	syncer, err := newSyncer(st, icons)
	if err != nil {
		return err
	}

	remote, installed := syncRemote, syncInstalled
	if !remote && !installed {
		remote, installed = true, true
	}

	spinner := output.NewSpinner("Syncing")
	spinner.SetWriter(out)
	spinner.Start()

	var report repository.SyncReport
	switch {
	case remote && installed:
		report, err = syncer.SyncAll(ctx)
	case remote:
		report, err = syncer.SyncRemoteRatings(ctx)
	default:
		report, err = syncer.SyncInstalledApps(ctx)
	}
	spinner.Stop()

	// A full sync runs the passes independently, so report what did land.
	if err != nil && !(remote && installed) {
		return fmt.Errorf("sync failed: %w", err)
	}
	fmt.Fprint(out, output.RenderSyncReport(report, remote, installed))
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}
