// Package iconcache keeps app icons on disk so lists can render them without
// network access.
//
// Icons are fetched ahead of time with Preload, which never blocks and never
// fails the caller. Readers use Get, which only consults the cache and returns
// ErrNotCached on a miss; callers fall back to a placeholder.
package iconcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// ErrNotCached is returned by Get when the icon has not been fetched yet.
var ErrNotCached = errors.New("icon not cached")

// maxIconBytes caps a single download.
const maxIconBytes = 2 << 20

// Options configures a Cache. Zero values select defaults.
type Options struct {
	MemoryEntries int          // LRU size, default 256
	RatePerSecond float64      // download rate, default 8
	Client        *http.Client // default: 15s timeout
	Logger        *slog.Logger
}

// Cache is a disk-backed icon cache fronted by an in-memory LRU.
type Cache struct {
	dir     string
	client  *http.Client
	memory  *lru.Cache[string, []byte]
	limiter *rate.Limiter
	logger  *slog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

// New creates a cache rooted at dir, creating the directory if needed.
func New(dir string, opts Options) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create icon cache directory: %w", err)
	}

	if opts.MemoryEntries <= 0 {
		opts.MemoryEntries = 256
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 8
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	memory, err := lru.New[string, []byte](opts.MemoryEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create icon memory cache: %w", err)
	}

	return &Cache{
		dir:      dir,
		client:   opts.Client,
		memory:   memory,
		limiter:  rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1),
		logger:   opts.Logger,
		inflight: make(map[string]struct{}),
	}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

func (c *Cache) pathFor(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:]))
}

// Get returns the cached icon bytes for url without touching the network.
func (c *Cache) Get(url string) ([]byte, error) {
	if url == "" {
		return nil, ErrNotCached
	}
	if data, ok := c.memory.Get(url); ok {
		return data, nil
	}

	data, err := os.ReadFile(c.pathFor(url))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached icon: %w", err)
	}

	c.memory.Add(url, data)
	return data, nil
}

// Path returns the on-disk location of a cached icon, or ErrNotCached.
func (c *Cache) Path(url string) (string, error) {
	if url == "" {
		return "", ErrNotCached
	}
	path := c.pathFor(url)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotCached
		}
		return "", fmt.Errorf("failed to stat cached icon: %w", err)
	}
	return path, nil
}

// Preload fetches url into the cache in the background. It returns
// immediately; failures are logged at debug level and otherwise ignored.
// Already cached or in-flight URLs are skipped.
func (c *Cache) Preload(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if _, err := c.Path(url); err == nil {
		return
	}

	c.mu.Lock()
	if _, busy := c.inflight[url]; busy {
		c.mu.Unlock()
		return
	}
	c.inflight[url] = struct{}{}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.inflight, url)
			c.mu.Unlock()
		}()

		if err := c.fetch(ctx, url); err != nil {
			c.logger.Debug("icon preload failed", "url", url, "error", err)
		}
	}()
}

// Wait blocks until every in-flight preload has finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

func (c *Cache) fetch(ctx context.Context, url string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxIconBytes+1))
	if err != nil {
		return err
	}
	if len(data) > maxIconBytes {
		return fmt.Errorf("icon larger than %s", humanize.IBytes(maxIconBytes))
	}

	// Write to a temp file and rename so readers never see a partial icon.
	path := c.pathFor(url)
	tmp, err := os.CreateTemp(c.dir, ".icon-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	c.memory.Add(url, data)
	return nil
}

// Stats describes the disk cache.
type Stats struct {
	Entries int
	Bytes   int64
}

func (s Stats) String() string {
	return fmt.Sprintf("%d icons, %s", s.Entries, humanize.Bytes(uint64(s.Bytes)))
}

// Stats walks the cache directory.
func (c *Cache) Stats() (Stats, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read icon cache directory: %w", err)
	}

	var s Stats
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		s.Entries++
		s.Bytes += info.Size()
	}
	return s, nil
}

// Clear removes every cached icon from disk and memory.
func (c *Cache) Clear() error {
	c.Wait()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("failed to read icon cache directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
	}

	c.memory.Purge()
	return nil
}
