// Package plexusapi is a client for the Plexus community ratings API.
package plexusapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public Plexus API.
const DefaultBaseURL = "https://plexus.techlore.tech/api/v1"

// ErrNotFound is returned when the API does not know the requested app.
var ErrNotFound = errors.New("plexusapi: not found")

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("plexusapi: %s returned %d", e.URL, e.Code)
}

// Score indexes within AppData.Scores.
const (
	ScoreMicroG    = 0
	ScoreDeGoogled = 1
)

const defaultPageSize = 100

// Score is one aggregated community score. Value keeps the raw JSON text so
// callers can truncate it without a float round trip.
type Score struct {
	Value      json.Number `json:"score"`
	TotalCount int         `json:"total_count"`
}

// AppData is one entry of the ratings dataset.
type AppData struct {
	Name        string  `json:"name"`
	PackageName string  `json:"package"`
	IconURL     *string `json:"icon_url"`
	Scores      []Score `json:"scores"`
}

// Rating is a single submitted rating.
type Rating struct {
	Version        string `json:"version"`
	BuildNumber    int64  `json:"build_number"`
	AndroidVersion string `json:"android_version"`
	ROMName        string `json:"rom_name"`
	ROMBuild       string `json:"rom_build"`
	InstalledFrom  string `json:"installed_from"`
	GoogleLib      string `json:"google_lib"`
	Score          int    `json:"score"`
	Notes          string `json:"notes"`
}

// Client defines the contract for querying the ratings API.
type Client interface {
	ListApps(ctx context.Context) ([]AppData, error)
	ListRatings(ctx context.Context, packageName string) ([]Rating, error)
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL  *url.URL
	client   *http.Client
	logger   *slog.Logger
	pageSize int
}

// NewHTTPClient constructs a new HTTP-backed ratings client.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse plexus api url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse plexus api url: %q is not absolute", baseURL)
	}
	return &HTTPClient{
		baseURL: parsed,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger:   logger,
		pageSize: defaultPageSize,
	}, nil
}

type appsPage struct {
	Data []AppData `json:"data"`
	Meta pageMeta  `json:"meta"`
}

type pageMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
}

type ratingsPage struct {
	Data []Rating `json:"data"`
	Meta pageMeta `json:"meta"`
}

// ListApps fetches every app with its scores, following pagination.
func (c *HTTPClient) ListApps(ctx context.Context) ([]AppData, error) {
	var apps []AppData
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("scores", "true")
		q.Set("limit", strconv.Itoa(c.pageSize))
		q.Set("page", strconv.Itoa(page))

		var payload appsPage
		if err := c.get(ctx, "apps", q, &payload); err != nil {
			return nil, err
		}
		apps = append(apps, payload.Data...)

		if payload.Meta.LastPage <= page || len(payload.Data) == 0 {
			break
		}
	}
	c.logger.Debug("fetched apps", "count", len(apps))
	return apps, nil
}

// ListRatings fetches the submitted ratings of one app, following pagination.
func (c *HTTPClient) ListRatings(ctx context.Context, packageName string) ([]Rating, error) {
	var ratings []Rating
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(c.pageSize))
		q.Set("page", strconv.Itoa(page))

		var payload ratingsPage
		err := c.get(ctx, "apps/"+url.PathEscape(packageName)+"/ratings", q, &payload)
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, payload.Data...)

		if payload.Meta.LastPage <= page || len(payload.Data) == 0 {
			break
		}
	}
	return ratings, nil
}

// get fetches path, which must already be escaped, relative to the base URL.
func (c *HTTPClient) get(ctx context.Context, path string, q url.Values, out any) error {
	escaped := strings.TrimSuffix(c.baseURL.EscapedPath(), "/") + "/" + path
	unescaped, err := url.PathUnescape(escaped)
	if err != nil {
		return fmt.Errorf("invalid request path %q: %w", path, err)
	}

	endpoint := *c.baseURL
	endpoint.Path = unescaped
	endpoint.RawPath = escaped
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("plexusapi: unexpected status", "status", resp.StatusCode, "path", path)
		return &StatusError{Code: resp.StatusCode, URL: endpoint.Path}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
