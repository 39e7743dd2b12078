package plexusapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewHTTPClient(srv.URL+"/api/v1", 3*time.Second, quietLogger())
	if err != nil {
		t.Fatalf("create http client: %v", err)
	}
	return client
}

func TestNewHTTPClient_RejectsRelativeURL(t *testing.T) {
	if _, err := NewHTTPClient("plexus.local/api", time.Second, nil); err == nil {
		t.Error("NewHTTPClient() should reject a URL without scheme and host")
	}
}

func TestListApps_FollowsPages(t *testing.T) {
	pages := map[int]string{
		1: `{"data":[{"name":"Signal","package":"org.signal","icon_url":"https://x/icon.png",
			"scores":[{"score":7.489,"total_count":10},{"score":3,"total_count":2}]}],
			"meta":{"current_page":1,"last_page":2}}`,
		2: `{"data":[{"name":"Maps","package":"org.maps","icon_url":null,
			"scores":[{"score":0,"total_count":0},{"score":9.95,"total_count":4}]}],
			"meta":{"current_page":2,"last_page":2}}`,
	}

	var seen []int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/apps" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("scores") != "true" {
			t.Error("scores=true should be requested")
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		seen = append(seen, page)
		fmt.Fprint(w, pages[page])
	}))

	apps, err := client.ListApps(context.Background())
	if err != nil {
		t.Fatalf("ListApps() failed: %v", err)
	}

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("pages requested = %v, want [1 2]", seen)
	}
	if len(apps) != 2 {
		t.Fatalf("got %d apps, want 2", len(apps))
	}

	signal := apps[0]
	if signal.PackageName != "org.signal" || signal.IconURL == nil || *signal.IconURL != "https://x/icon.png" {
		t.Errorf("unexpected first app: %+v", signal)
	}
	if signal.Scores[ScoreMicroG].Value.String() != "7.489" {
		t.Errorf("raw microG score = %q, want 7.489", signal.Scores[ScoreMicroG].Value)
	}
	if signal.Scores[ScoreDeGoogled].TotalCount != 2 {
		t.Errorf("de-Googled total = %d, want 2", signal.Scores[ScoreDeGoogled].TotalCount)
	}
	if apps[1].IconURL != nil {
		t.Errorf("null icon_url should decode to nil, got %q", *apps[1].IconURL)
	}
}

func TestListApps_StatusError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))

	_, err := client.ListApps(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("ListApps() error = %v, want *StatusError", err)
	}
	if statusErr.Code != http.StatusServiceUnavailable {
		t.Errorf("Code = %d, want 503", statusErr.Code)
	}
}

func TestListApps_BadJSON(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [`)
	}))

	if _, err := client.ListApps(context.Background()); err == nil {
		t.Error("ListApps() should fail on truncated JSON")
	}
}

func TestListRatings(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/apps/org.signal/ratings":
			fmt.Fprint(w, `{"data":[{"version":"6.40","build_number":1370,"google_lib":"micro_g",
				"score":4,"notes":"all good"}],"meta":{"current_page":1,"last_page":1}}`)
		default:
			http.NotFound(w, r)
		}
	}))

	ratings, err := client.ListRatings(context.Background(), "org.signal")
	if err != nil {
		t.Fatalf("ListRatings() failed: %v", err)
	}
	if len(ratings) != 1 || ratings[0].Score != 4 || ratings[0].Notes != "all good" {
		t.Errorf("unexpected ratings: %+v", ratings)
	}

	if _, err := client.ListRatings(context.Background(), "org.unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ListRatings() on unknown app error = %v, want ErrNotFound", err)
	}
}

func TestListRatings_EscapesPackageName(t *testing.T) {
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		fmt.Fprint(w, `{"data":[],"meta":{"current_page":1,"last_page":1}}`)
	}))

	if _, err := client.ListRatings(context.Background(), "org.evil/../admin?x=1"); err != nil {
		t.Fatalf("ListRatings() failed: %v", err)
	}
	if want := "/api/v1/apps/org.evil%2F..%2Fadmin%3Fx=1/ratings"; gotPath != want {
		t.Errorf("request path = %q, want %q", gotPath, want)
	}
}

func TestListApps_ContextCanceled(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[],"meta":{"current_page":1,"last_page":1}}`)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.ListApps(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("ListApps() error = %v, want context.Canceled", err)
	}
}
