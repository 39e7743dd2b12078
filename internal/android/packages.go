// Package android reads the list of user-installed apps from a device over adb.
package android

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/plexus/internal/store"
)

// Runner executes a command and returns its stdout.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Output runs name with args and returns stdout. Stderr is folded into the
// error on failure.
func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s %s failed: %w (stderr: %s)", name, strings.Join(args, " "), err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s %s failed: %w", name, strings.Join(args, " "), err)
	}
	return output, nil
}

// Installer package names grouped by the source tag they map to.
var installers = map[string]string{
	"com.android.vending":     store.InstalledFromGooglePlay,
	"com.aurora.store":        store.InstalledFromGooglePlay,
	"org.fdroid.fdroid":       store.InstalledFromFDroid,
	"org.fdroid.basic":        store.InstalledFromFDroid,
	"com.looker.droidify":     store.InstalledFromFDroid,
	"com.machiav3lli.fdroid":  store.InstalledFromFDroid,
	"in.sunilpaulmathew.izzy": store.InstalledFromFDroid,
}

// InstalledFrom maps an installer package name to a source tag.
func InstalledFrom(installer string) string {
	if tag, ok := installers[installer]; ok {
		return tag
	}
	return store.InstalledFromOther
}

// Scanner lists user-installed apps on a device.
type Scanner struct {
	runner      Runner
	adbPath     string
	serial      string
	concurrency int
	logger      *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithRunner replaces the command runner.
func WithRunner(r Runner) Option {
	return func(s *Scanner) { s.runner = r }
}

// WithSerial targets a specific device when several are attached.
func WithSerial(serial string) Option {
	return func(s *Scanner) { s.serial = serial }
}

// WithLogger sets the logger used for per-package lookup failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// NewScanner creates a Scanner that calls the adb binary at adbPath.
func NewScanner(adbPath string, opts ...Option) *Scanner {
	if adbPath == "" {
		adbPath = "adb"
	}
	s := &Scanner{
		runner:      ExecRunner{},
		adbPath:     adbPath,
		concurrency: 4,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scanner) shell(ctx context.Context, args ...string) ([]byte, error) {
	full := make([]string, 0, len(args)+3)
	if s.serial != "" {
		full = append(full, "-s", s.serial)
	}
	full = append(full, "shell")
	full = append(full, args...)
	return s.runner.Output(ctx, s.adbPath, full...)
}

// ListInstalled returns every third-party app on the device as an installed
// App. Name falls back to the package name since pm does not expose labels.
// A failed versionName lookup is logged and leaves the version empty.
func (s *Scanner) ListInstalled(ctx context.Context) ([]*store.App, error) {
	output, err := s.shell(ctx, "pm", "list", "packages", "-3", "-i", "--show-versioncode")
	if err != nil {
		return nil, fmt.Errorf("failed to list device packages: %w", err)
	}

	apps, err := parsePackageList(string(output))
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, app := range apps {
		app := app
		g.Go(func() error {
			version, err := s.versionName(gctx, app.PackageName)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn("version lookup failed", "package", app.PackageName, "error", err)
				return nil
			}
			app.InstalledVersion = version
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to read package versions: %w", err)
	}

	return apps, nil
}

func (s *Scanner) versionName(ctx context.Context, pkg string) (string, error) {
	output, err := s.shell(ctx, "dumpsys", "package", pkg)
	if err != nil {
		return "", err
	}
	return parseVersionName(string(output), pkg)
}

// parsePackageList parses `pm list packages -i --show-versioncode` output:
//
//	package:org.example versionCode:42 installer=com.android.vending
func parsePackageList(output string) ([]*store.App, error) {
	var apps []*store.App

	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "package:") {
			continue
		}

		app := &store.App{IsInstalled: true, InstalledFrom: store.InstalledFromOther}
		for _, field := range strings.Fields(line) {
			switch {
			case strings.HasPrefix(field, "package:"):
				app.PackageName = strings.TrimPrefix(field, "package:")
			case strings.HasPrefix(field, "versionCode:"):
				code, err := strconv.ParseInt(strings.TrimPrefix(field, "versionCode:"), 10, 64)
				if err != nil {
					return nil, fmt.Errorf("failed to parse version code in %q: %w", line, err)
				}
				app.InstalledBuild = code
			case strings.HasPrefix(field, "installer="):
				app.InstalledFrom = InstalledFrom(strings.TrimPrefix(field, "installer="))
			}
		}

		if app.PackageName == "" {
			continue
		}
		app.Name = app.PackageName
		apps = append(apps, app)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read package list: %w", err)
	}
	return apps, nil
}

// parseVersionName extracts the first versionName from `dumpsys package`.
func parseVersionName(output, pkg string) (string, error) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "versionName="); ok {
			return v, nil
		}
	}
	return "", fmt.Errorf("package %s not found on device", pkg)
}

// Devices returns the serials of attached devices in the "device" state.
func (s *Scanner) Devices(ctx context.Context) ([]string, error) {
	output, err := s.runner.Output(ctx, s.adbPath, "devices")
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	var serials []string
	for _, line := range strings.Split(string(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[1] == "device" {
			serials = append(serials, fields[0])
		}
	}
	return serials, nil
}
