package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/plexus/internal/android"
	"github.com/blackwell-systems/plexus/internal/output"
	"github.com/blackwell-systems/plexus/internal/repository"
	"github.com/blackwell-systems/plexus/internal/store"
	"github.com/blackwell-systems/plexus/internal/watcher"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database, cache and watcher status",
	Long: `Display where plexus keeps its data and how much of it there is.

Shows:
  • Database location and size
  • Number of apps rated, installed and favorited
  • Icon cache size
  • Attached devices (adb)
  • Whether the background watcher is running`,
	Example: `  plexus status`,
	Args:    cobra.NoArgs,
	RunE:    runStatus,
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	st, err := openStore(false)
	if errors.Is(err, store.ErrNotInitialized) {
		fmt.Fprintln(out, "plexus is not set up. Run 'plexus sync' to get started.")
		return nil
	}
	if err != nil {
		return err
	}
	defer st.Close()

	counts, err := repository.NewSummary(st).Counts(cmd.Context())
	if errors.Is(err, store.ErrNotInitialized) {
		fmt.Fprintln(out, "plexus is not set up. Run 'plexus sync' to get started.")
		return nil
	}
	if err != nil {
		return err
	}

	info := output.StatusInfo{
		DBPath:     cfg.DBPath,
		Counts:     counts,
		ConfigFile: cfg.ConfigFile(),
		Device:     deviceStatus(cmd.Context()),
		Daemon:     daemonStatus(),
	}
	if fi, err := os.Stat(cfg.DBPath); err == nil {
		info.DBBytes = fi.Size()
	}
	if icons, err := openIcons(); err == nil {
		if stats, err := icons.Stats(); err == nil {
			info.Icons = stats.String()
		}
	}

	fmt.Fprint(out, output.RenderStatus(info))
	return nil
}

func deviceStatus(ctx context.Context) string {
	scanner := android.NewScanner(cfg.ADBPath, android.WithLogger(logger))
	serials, err := scanner.Devices(ctx)
	switch {
	case err != nil:
		logger.Debug("device lookup failed", "error", err)
		return "unknown (adb unavailable)"
	case len(serials) == 0:
		return "none attached"
	case cfg.ADBSerial != "":
		for _, s := range serials {
			if s == cfg.ADBSerial {
				return s
			}
		}
		return fmt.Sprintf("%s not attached (%d other)", cfg.ADBSerial, len(serials))
	default:
		return strings.Join(serials, ", ")
	}
}

func daemonStatus() string {
	pidFile, err := getPIDFile()
	if err != nil {
		return "unknown"
	}
	running, err := watcher.IsDaemonRunning(pidFile)
	if err != nil || !running {
		return "stopped (run 'plexus watch --daemon')"
	}
	pid, err := watcher.ReadPID(pidFile)
	if err != nil {
		return "running"
	}
	return fmt.Sprintf("running (PID %d, every %s)", pid, cfg.SyncInterval)
}
