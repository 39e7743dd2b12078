package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/plexus/internal/plexusapi"
	"github.com/blackwell-systems/plexus/internal/store"
)

// ErrMalformedScore is returned when a remote score is missing or is not a
// number. The sync pass stops at the offending entry.
var ErrMalformedScore = errors.New("malformed score")

// ErrAppNotFound is returned when an operation needs a stored app that does
// not exist.
var ErrAppNotFound = errors.New("app not found")

// InstalledScanner lists the apps currently on the device.
type InstalledScanner interface {
	ListInstalled(ctx context.Context) ([]*store.App, error)
}

// IconPreloader fetches icons in the background.
type IconPreloader interface {
	Preload(ctx context.Context, url string)
}

// SyncOptions configures a Sync. The zero value disables icon preloading and
// pruning.
type SyncOptions struct {
	PreloadIcons bool
	PruneRemote  bool
	Logger       *slog.Logger
}

// SyncReport counts what a sync pass changed.
type SyncReport struct {
	RunID string

	// Remote pass.
	Fetched   int
	Upserted  int
	Unflagged int // installed apps no longer in the dataset
	Deleted   int // dataset-only apps no longer in the dataset

	// Installed pass.
	Scanned    int
	Downgraded int // uninstalled apps kept because they are in the dataset
	Removed    int // uninstalled apps dropped
}

// Sync reconciles the store with the remote dataset and the device.
type Sync struct {
	store   *store.Store
	client  plexusapi.Client
	scanner InstalledScanner
	icons   IconPreloader
	opts    SyncOptions
	logger  *slog.Logger
}

// NewSync creates a Sync. icons may be nil, in which case nothing is
// preloaded.
func NewSync(st *store.Store, client plexusapi.Client, scanner InstalledScanner, icons IconPreloader, opts SyncOptions) *Sync {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Sync{
		store:   st,
		client:  client,
		scanner: scanner,
		icons:   icons,
		opts:    opts,
		logger:  logger,
	}
}

// SyncRemoteRatings downloads the dataset and upserts every entry. Nothing is
// written when the download fails. A malformed score aborts the pass; entries
// before it stay written.
func (s *Sync) SyncRemoteRatings(ctx context.Context) (SyncReport, error) {
	report := SyncReport{RunID: uuid.NewString()}
	return report, s.syncRemote(ctx, &report)
}

func (s *Sync) syncRemote(ctx context.Context, report *SyncReport) error {
	logger := s.logger.With("run_id", report.RunID, "pass", "remote")
	logger.Debug("fetching remote dataset")

	data, err := s.client.ListApps(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch remote ratings: %w", err)
	}
	report.Fetched = len(data)

	// Preloads outlive the pass; the icon cache's Wait drains them.
	preloadCtx := context.WithoutCancel(ctx)

	seen := make(map[string]struct{}, len(data))
	for _, entry := range data {
		app, err := appFromRemote(entry)
		if err != nil {
			logger.Error("aborting remote sync", "package", entry.PackageName, "error", err)
			return err
		}

		if s.opts.PreloadIcons && s.icons != nil && app.IconURL != "" {
			s.icons.Preload(preloadCtx, app.IconURL)
		}

		if err := s.store.UpsertFromRemote(ctx, app); err != nil {
			return fmt.Errorf("failed to store %s: %w", app.PackageName, err)
		}
		seen[app.PackageName] = struct{}{}
		report.Upserted++
	}

	if s.opts.PruneRemote {
		if len(data) == 0 {
			logger.Warn("remote dataset is empty, skipping prune")
		} else if err := s.pruneRemote(ctx, seen, report); err != nil {
			return err
		}
	}

	logger.Info("remote sync finished",
		"fetched", report.Fetched,
		"upserted", report.Upserted,
		"unflagged", report.Unflagged,
		"deleted", report.Deleted)
	return nil
}

// pruneRemote handles apps that dropped out of the dataset: installed ones lose
// the dataset flag, the rest are deleted.
func (s *Sync) pruneRemote(ctx context.Context, seen map[string]struct{}, report *SyncReport) error {
	return s.store.InTx(ctx, func(tx *store.Store) error {
		apps, err := tx.ListInPlexusData(ctx)
		if err != nil {
			return fmt.Errorf("failed to list stored dataset apps: %w", err)
		}

		for _, app := range apps {
			if _, ok := seen[app.PackageName]; ok {
				continue
			}
			if app.IsInstalled {
				app.IsInPlexusData = false
				if err := tx.Update(ctx, app); err != nil {
					return err
				}
				report.Unflagged++
				continue
			}
			if err := tx.Delete(ctx, app); err != nil {
				return err
			}
			report.Deleted++
		}
		return nil
	})
}

// SyncInstalledApps scans the device and reconciles installed state in one
// transaction. Apps that disappeared from the device are downgraded when the
// dataset still lists them and deleted otherwise.
func (s *Sync) SyncInstalledApps(ctx context.Context) (SyncReport, error) {
	report := SyncReport{RunID: uuid.NewString()}
	return report, s.syncInstalled(ctx, &report)
}

func (s *Sync) syncInstalled(ctx context.Context, report *SyncReport) error {
	logger := s.logger.With("run_id", report.RunID, "pass", "installed")
	logger.Debug("scanning device")

	scanned, err := s.scanner.ListInstalled(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan installed apps: %w", err)
	}
	report.Scanned = len(scanned)

	current := make(map[string]struct{}, len(scanned))
	for _, app := range scanned {
		current[app.PackageName] = struct{}{}
	}

	err = s.store.InTx(ctx, func(tx *store.Store) error {
		stored, err := tx.ListInstalled(ctx)
		if err != nil {
			return fmt.Errorf("failed to list stored installed apps: %w", err)
		}

		for _, app := range stored {
			if _, ok := current[app.PackageName]; ok {
				continue
			}
			if app.IsInPlexusData {
				app.IsInstalled = false
				app.InstalledVersion = ""
				app.InstalledBuild = 0
				app.InstalledFrom = store.InstalledFromUnset
				if err := tx.Update(ctx, app); err != nil {
					return err
				}
				report.Downgraded++
				continue
			}
			if err := tx.Delete(ctx, app); err != nil {
				return err
			}
			report.Removed++
		}

		for _, app := range scanned {
			app.IsInstalled = true
			if err := tx.UpsertFromInstalledScan(ctx, app); err != nil {
				return fmt.Errorf("failed to store %s: %w", app.PackageName, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("installed sync finished",
		"scanned", report.Scanned,
		"downgraded", report.Downgraded,
		"removed", report.Removed)
	return nil
}

// SyncAll runs the remote and installed passes concurrently. A failing pass
// does not stop the other; the errors of both are joined. Both passes share
// one run id.
func (s *Sync) SyncAll(ctx context.Context) (SyncReport, error) {
	var remote, installed SyncReport
	runID := uuid.NewString()
	remote.RunID = runID
	installed.RunID = runID

	var remoteErr, installedErr error
	var g errgroup.Group
	g.Go(func() error {
		remoteErr = s.syncRemote(ctx, &remote)
		return nil
	})
	g.Go(func() error {
		installedErr = s.syncInstalled(ctx, &installed)
		return nil
	})
	g.Wait()
	err := errors.Join(remoteErr, installedErr)

	return SyncReport{
		RunID:      runID,
		Fetched:    remote.Fetched,
		Upserted:   remote.Upserted,
		Unflagged:  remote.Unflagged,
		Deleted:    remote.Deleted,
		Scanned:    installed.Scanned,
		Downgraded: installed.Downgraded,
		Removed:    installed.Removed,
	}, err
}

// SyncAppRatings downloads the individual ratings of a stored app and saves
// them on its record.
func (s *Sync) SyncAppRatings(ctx context.Context, packageName string) ([]store.Rating, error) {
	remote, err := s.client.ListRatings(ctx, packageName)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ratings for %s: %w", packageName, err)
	}

	ratings := make([]store.Rating, len(remote))
	for i, r := range remote {
		ratings[i] = store.Rating{
			Version:        r.Version,
			BuildNumber:    r.BuildNumber,
			AndroidVersion: r.AndroidVersion,
			ROMName:        r.ROMName,
			ROMBuild:       r.ROMBuild,
			InstalledFrom:  r.InstalledFrom,
			GoogleLib:      r.GoogleLib,
			Score:          r.Score,
			Notes:          r.Notes,
		}
	}

	found, err := s.store.SetRatings(ctx, packageName, ratings)
	if err != nil {
		return nil, fmt.Errorf("failed to store ratings for %s: %w", packageName, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrAppNotFound, packageName)
	}

	s.logger.Debug("ratings synced", "package", packageName, "count", len(ratings))
	return ratings, nil
}

func appFromRemote(entry plexusapi.AppData) (*store.App, error) {
	if len(entry.Scores) < 2 {
		return nil, fmt.Errorf("%w: %s has %d scores", ErrMalformedScore, entry.PackageName, len(entry.Scores))
	}

	dg := entry.Scores[plexusapi.ScoreDeGoogled]
	mg := entry.Scores[plexusapi.ScoreMicroG]

	dgScore, err := truncateScore(dg.Value)
	if err != nil {
		return nil, fmt.Errorf("%s de-Googled: %w", entry.PackageName, err)
	}
	mgScore, err := truncateScore(mg.Value)
	if err != nil {
		return nil, fmt.Errorf("%s microG: %w", entry.PackageName, err)
	}

	app := &store.App{
		Name:           entry.Name,
		PackageName:    entry.PackageName,
		DgScore:        dgScore,
		TotalDgRatings: dg.TotalCount,
		MgScore:        mgScore,
		TotalMgRatings: mg.TotalCount,
		IsInPlexusData: true,
	}
	if entry.IconURL != nil {
		app.IconURL = *entry.IconURL
	}
	return app, nil
}

// truncateScore keeps one decimal by cutting the decimal text, so 7.489
// becomes 7.4 and not 7.5. Integers pass through unchanged.
func truncateScore(n json.Number) (float64, error) {
	text := strings.TrimSpace(n.String())

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedScore, text)
	}

	if strings.ContainsAny(text, "eE") {
		text = strconv.FormatFloat(f, 'f', -1, 64)
	}
	if dot := strings.IndexByte(text, '.'); dot >= 0 && len(text) > dot+2 {
		text = text[:dot+2]
	}

	f, err = strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedScore, text)
	}
	return f, nil
}
