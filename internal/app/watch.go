package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/plexus/internal/watcher"
)

var (
	watchDaemon      bool
	watchDaemonChild bool
	watchPIDFile     string
	watchLogFile     string
	watchStop        bool
	watchNow         bool

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Sync periodically in the background",
		Long: `Run 'plexus sync' now and then every sync.interval (default 6h).

Watch modes:
  • Foreground (default): run in the current terminal, Ctrl+C to stop
  • Daemon: run detached, PID in ~/.plexus/watch.pid
  • Stop: stop a running daemon
  • Now: ask a running daemon to sync immediately

A failed sync, for example with no device attached, is logged and retried
on the next tick.`,
		Example: `  # Run in foreground (Ctrl+C to stop)
  plexus watch

  # Run as background daemon
  plexus watch --daemon

  # Sync the daemon right away
  plexus watch --now

  # Stop running daemon
  plexus watch --stop`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().StringVar(&watchPIDFile, "pid-file", "", "PID file path (default: ~/.plexus/watch.pid)")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "log file path (default: ~/.plexus/watch.log)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")
	watchCmd.Flags().BoolVar(&watchNow, "now", false, "make a running daemon sync immediately")

	watchCmd.Flags().MarkHidden("daemon-child")
	watchCmd.MarkFlagsMutuallyExclusive("daemon", "stop", "now")

	RootCmd.AddCommand(watchCmd)
}

func getPIDFile() (string, error) {
	if watchPIDFile != "" {
		return watchPIDFile, nil
	}
	return dataFile("watch.pid")
}

func getLogFile() (string, error) {
	if watchLogFile != "" {
		return watchLogFile, nil
	}
	return dataFile("watch.log")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	pidFile, err := getPIDFile()
	if err != nil {
		return err
	}

	switch {
	case watchStop:
		if err := watcher.StopDaemon(pidFile); err != nil {
			return err
		}
		fmt.Fprintln(out, "Watcher stopped")
		return nil

	case watchNow:
		if err := watcher.SignalSync(pidFile); err != nil {
			return fmt.Errorf("failed to reach watcher: %w", err)
		}
		fmt.Fprintln(out, "Sync requested")
		return nil

	case watchDaemon:
		logFile, err := getLogFile()
		if err != nil {
			return err
		}
		childArgs := []string{"--db", cfg.DBPath, "--pid-file", pidFile}
		if configDir != "" {
			childArgs = append(childArgs, "--config-dir", configDir)
		}
		if logLevel != "" {
			childArgs = append(childArgs, "--log-level", logLevel)
		}
		if err := watcher.StartDaemon(pidFile, logFile, childArgs...); err != nil {
			return err
		}
		fmt.Fprintf(out, "Watcher started, syncing every %s\n", cfg.SyncInterval)
		fmt.Fprintf(out, "Logs: %s\n", logFile)
		return nil
	}

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

	w, err := watcher.New(syncer.SyncAll, cfg.SyncInterval, logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if watchDaemonChild {
		return w.RunDaemon(ctx, pidFile)
	}

	if err := w.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "Syncing every %s. Press Ctrl+C to stop.\n", cfg.SyncInterval)
	<-ctx.Done()
	return w.Stop()
}
