// Package watcher keeps the plexus database fresh in the background.
//
// A Watcher runs a sync function immediately and then on a fixed interval
// until stopped. Failed syncs are logged and retried on the next tick. Kick
// requests an extra run without waiting for the ticker.
//
// The watcher can run in the foreground or as a detached daemon that records
// its PID in ~/.plexus/watch.pid. A daemon stops on SIGTERM or SIGINT and
// syncs immediately on SIGHUP.
//
// Example usage:
//
//	w, err := watcher.New(syncer.SyncAll, 6*time.Hour, slog.Default())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Foreground
//	w.Start(ctx)
//	defer w.Stop()
//
//	// Or detached
//	if err := watcher.StartDaemon("/tmp/plexus.pid", "/tmp/plexus.log"); err != nil {
//		log.Fatal(err)
//	}
package watcher
