package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/blackwell-systems/plexus/internal/repository"
)

// SyncFunc performs one sync pass.
type SyncFunc func(ctx context.Context) (repository.SyncReport, error)

// Watcher runs a SyncFunc periodically.
type Watcher struct {
	sync     SyncFunc
	interval time.Duration
	logger   *slog.Logger

	kick   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	started  bool
	lastRun  time.Time
	lastErr  error
	runCount int
}

// New creates a Watcher that calls fn every interval.
func New(fn SyncFunc, interval time.Duration, logger *slog.Logger) (*Watcher, error) {
	if fn == nil {
		return nil, fmt.Errorf("sync function cannot be nil")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", interval)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		sync:     fn,
		interval: interval,
		logger:   logger,
		kick:     make(chan struct{}, 1),
	}, nil
}

// Start syncs once right away and then on every tick until Stop is called or
// ctx is done. Calling Start twice returns an error.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return errors.New("watcher already started")
	}
	w.started = true

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop(ctx)

	w.logger.Info("watcher started", "interval", w.interval)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(ctx)
		case <-w.kick:
			w.runOnce(ctx)
			ticker.Reset(w.interval)
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context) {
	start := time.Now()
	report, err := w.sync(ctx)

	w.mu.Lock()
	w.lastRun = start
	w.lastErr = err
	w.runCount++
	w.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("sync failed", "run_id", report.RunID, "error", err)
		return
	}
	w.logger.Info("sync complete",
		"run_id", report.RunID,
		"duration", time.Since(start).Round(time.Millisecond),
		"fetched", report.Fetched,
		"scanned", report.Scanned)
}

// Kick asks for an immediate sync. Requests made while one is pending are
// merged.
func (w *Watcher) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// RunInfo describes the most recent sync.
type RunInfo struct {
	At    time.Time
	Err   error
	Count int
}

// LastRun reports the most recent sync and how many have run.
func (w *Watcher) LastRun() RunInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	return RunInfo{At: w.lastRun, Err: w.lastErr, Count: w.runCount}
}

// Stop cancels the running sync, if any, and waits for the loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()

	if cancel == nil {
		return errors.New("watcher not started")
	}
	cancel()
	w.wg.Wait()

	w.logger.Info("watcher stopped")
	return nil
}
