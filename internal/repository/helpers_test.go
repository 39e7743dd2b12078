package repository

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/blackwell-systems/plexus/internal/plexusapi"
	"github.com/blackwell-systems/plexus/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	if err := st.CreateSchema(); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustInsert(t *testing.T, st *store.Store, apps ...*store.App) {
	t.Helper()
	for _, app := range apps {
		if err := st.Insert(context.Background(), app); err != nil {
			t.Fatalf("Insert(%s) failed: %v", app.PackageName, err)
		}
	}
}

func getApp(t *testing.T, st *store.Store, pkg string) *store.App {
	t.Helper()
	app, err := st.GetAppByPackage(context.Background(), pkg)
	if err != nil {
		t.Fatalf("GetAppByPackage(%s) failed: %v", pkg, err)
	}
	return app
}

func packages(apps []MinimalApp) []string {
	out := make([]string, len(apps))
	for i, app := range apps {
		out[i] = app.PackageName
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// remoteEntry builds a dataset entry with the de-Googled and microG scores in
// their wire positions.
func remoteEntry(pkg, name, dg, mg string) plexusapi.AppData {
	return plexusapi.AppData{
		Name:        name,
		PackageName: pkg,
		Scores: []plexusapi.Score{
			plexusapi.ScoreMicroG:    {Value: json.Number(mg), TotalCount: 3},
			plexusapi.ScoreDeGoogled: {Value: json.Number(dg), TotalCount: 5},
		},
	}
}

type fakeClient struct {
	apps       []plexusapi.AppData
	appsErr    error
	ratings    map[string][]plexusapi.Rating
	ratingsErr error
}

func (f *fakeClient) ListApps(ctx context.Context) ([]plexusapi.AppData, error) {
	if f.appsErr != nil {
		return nil, f.appsErr
	}
	return f.apps, nil
}

func (f *fakeClient) ListRatings(ctx context.Context, packageName string) ([]plexusapi.Rating, error) {
	if f.ratingsErr != nil {
		return nil, f.ratingsErr
	}
	ratings, ok := f.ratings[packageName]
	if !ok {
		return nil, plexusapi.ErrNotFound
	}
	return ratings, nil
}

type fakeScanner struct {
	apps []*store.App
	err  error
}

func (f *fakeScanner) ListInstalled(ctx context.Context) ([]*store.App, error) {
	if f.err != nil {
		return nil, f.err
	}
	// Hand out copies so repeated scans start from the same input.
	out := make([]*store.App, len(f.apps))
	for i, app := range f.apps {
		cp := *app
		out[i] = &cp
	}
	return out, nil
}

type fakePreloader struct {
	mu   sync.Mutex
	urls []string
}

func (f *fakePreloader) Preload(ctx context.Context, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
}

func (f *fakePreloader) URLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}
