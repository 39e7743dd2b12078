package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/blackwell-systems/plexus/internal/android"
	"github.com/blackwell-systems/plexus/internal/config"
	"github.com/blackwell-systems/plexus/internal/iconcache"
	"github.com/blackwell-systems/plexus/internal/plexusapi"
	"github.com/blackwell-systems/plexus/internal/repository"
	"github.com/blackwell-systems/plexus/internal/store"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

// loadConfig resolves configuration and installs the logger. Flags override
// the config file and environment.
func loadConfig() error {
	dir, err := getConfigDir()
	if err != nil {
		return err
	}

	c, err := config.Load(dir)
	if err != nil {
		return err
	}
	if dbPath != "" {
		c.DBPath = dbPath
	}
	if logLevel != "" {
		c.LogLevel = config.ParseLevel(logLevel)
	}

	cfg = c
	logger = config.SetupLog(os.Stderr, c.LogLevel)
	logger.Debug("config loaded", "file", c.ConfigFile(), "db", c.DBPath)
	return nil
}

func getConfigDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return dir, nil
}

// openStore opens the database. With create set the schema is created;
// otherwise a missing database file is reported as store.ErrNotInitialized.
func openStore(create bool) (*store.Store, error) {
	if create {
		if err := cfg.EnsureDataDirs(); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		return nil, store.ErrNotInitialized
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if create {
		if err := st.CreateSchema(); err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to create database schema: %w", err)
		}
	}
	return st, nil
}

func openIcons() (*iconcache.Cache, error) {
	return iconcache.New(cfg.IconDir, iconcache.Options{
		RatePerSecond: cfg.IconRate,
		Logger:        logger,
	})
}

func loadPreferences() (*config.PreferenceStore, error) {
	dir, err := getConfigDir()
	if err != nil {
		return nil, err
	}
	return config.LoadPreferences(dir)
}

func newSyncer(st *store.Store, icons *iconcache.Cache) (*repository.Sync, error) {
	client, err := plexusapi.NewHTTPClient(cfg.APIBaseURL, cfg.APITimeout, logger)
	if err != nil {
		return nil, err
	}
	scanner := android.NewScanner(cfg.ADBPath,
		android.WithSerial(cfg.ADBSerial),
		android.WithLogger(logger))

	return repository.NewSync(st, client, scanner, icons, repository.SyncOptions{
		PreloadIcons: cfg.IconPreload,
		PruneRemote:  cfg.PruneRemote,
		Logger:       logger,
	}), nil
}

// dataFile returns a path next to the database, creating the directory.
func dataFile(name string) (string, error) {
	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return filepath.Join(dir, name), nil
}
