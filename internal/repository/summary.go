// Package repository sits between the store and the CLI. Summary serves the
// list views, Sync merges the remote dataset and the device scan into the
// store.
package repository

import (
	"context"
	"fmt"

	"github.com/blackwell-systems/plexus/internal/config"
	"github.com/blackwell-systems/plexus/internal/status"
	"github.com/blackwell-systems/plexus/internal/store"
)

// MinimalApp is the reduced view of an app shown in lists. It is derived on
// every query and never stored.
type MinimalApp struct {
	Name          string
	PackageName   string
	IconURL       string
	InstalledFrom string
	DgStatus      string
	MgStatus      string
	IsInstalled   bool
	IsFav         bool
}

// Minimal projects a stored app onto its list view.
func Minimal(app *store.App) MinimalApp {
	return MinimalApp{
		Name:          app.Name,
		PackageName:   app.PackageName,
		IconURL:       app.IconURL,
		InstalledFrom: app.InstalledFrom,
		DgStatus:      status.Label(app.DgScore),
		MgStatus:      status.Label(app.MgScore),
		IsInstalled:   app.IsInstalled,
		IsFav:         app.IsFav,
	}
}

func minimalAll(apps []*store.App) []MinimalApp {
	out := make([]MinimalApp, len(apps))
	for i, app := range apps {
		out[i] = Minimal(app)
	}
	return out
}

// FilterFromPreferences turns saved preferences into a store filter. Only the
// dimension picked by the status radio is filtered; the other one matches any
// score.
func FilterFromPreferences(p config.Preferences) store.Filter {
	f := store.DefaultFilter()

	switch p.StatusRadio {
	case config.RadioDg:
		f.Dg = status.Range(p.DgStatus)
	case config.RadioMg:
		f.Mg = status.Range(p.MgStatus)
	}

	f.Ascending = p.Order != config.OrderZA

	switch p.InstalledFrom {
	case store.InstalledFromGooglePlay, store.InstalledFromFDroid, store.InstalledFromOther:
		f.InstalledFrom = p.InstalledFrom
	default:
		f.InstalledFrom = ""
	}

	return f
}

// Summary serves the available, installed and favorite lists.
type Summary struct {
	store *store.Store
}

// NewSummary creates a Summary over st.
func NewSummary(st *store.Store) *Summary {
	return &Summary{store: st}
}

// NotInstalled lists apps in the dataset that are not on the device. The
// installed-from preference does not apply to them.
func (s *Summary) NotInstalled(ctx context.Context, p config.Preferences) ([]MinimalApp, error) {
	f := FilterFromPreferences(p)
	f.InstalledFrom = ""
	apps, err := s.store.ListSortedNotInstalled(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list available apps: %w", err)
	}
	return minimalAll(apps), nil
}

// Installed lists apps found on the device.
func (s *Summary) Installed(ctx context.Context, p config.Preferences) ([]MinimalApp, error) {
	apps, err := s.store.ListSortedInstalled(ctx, FilterFromPreferences(p))
	if err != nil {
		return nil, fmt.Errorf("failed to list installed apps: %w", err)
	}
	return minimalAll(apps), nil
}

// Favorites lists favorited apps.
func (s *Summary) Favorites(ctx context.Context, p config.Preferences) ([]MinimalApp, error) {
	apps, err := s.store.ListSortedFavorites(ctx, FilterFromPreferences(p))
	if err != nil {
		return nil, fmt.Errorf("failed to list favorite apps: %w", err)
	}
	return minimalAll(apps), nil
}

// Search matches query against app names and package names.
func (s *Summary) Search(ctx context.Context, query string) ([]MinimalApp, error) {
	apps, err := s.store.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search apps: %w", err)
	}
	return minimalAll(apps), nil
}

// App returns the full record for packageName, or nil if it is not stored.
func (s *Summary) App(ctx context.Context, packageName string) (*store.App, error) {
	app, err := s.store.GetAppByPackage(ctx, packageName)
	if err != nil {
		return nil, fmt.Errorf("failed to get app %s: %w", packageName, err)
	}
	return app, nil
}

// UpdateFavorite stores app.IsFav on the record with the same package name.
// Nothing is written when that record no longer exists.
func (s *Summary) UpdateFavorite(ctx context.Context, app MinimalApp) error {
	err := s.store.SetFavorite(ctx, &store.App{PackageName: app.PackageName, IsFav: app.IsFav})
	if err != nil {
		return fmt.Errorf("failed to update favorite %s: %w", app.PackageName, err)
	}
	return nil
}

// Counts summarizes the stored apps.
func (s *Summary) Counts(ctx context.Context) (store.Counts, error) {
	return s.store.Counts(ctx)
}
