// Package output renders plexus data for the terminal.
//
// Tables use plain text and ANSI colors, the latter only when stdout is a
// terminal and NO_COLOR is unset.
package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/plexus/internal/repository"
	"github.com/blackwell-systems/plexus/internal/status"
	"github.com/blackwell-systems/plexus/internal/store"
)

// ANSI color codes for status labels
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

func statusColor(label string) string {
	switch label {
	case status.LabelGold:
		return colorGreen
	case status.LabelSilver:
		return colorCyan
	case status.LabelBronze:
		return colorYellow
	case status.LabelUnusable:
		return colorRed
	default:
		return colorGray
	}
}

// padStatus pads before coloring so escape codes don't break alignment.
func padStatus(label string, width int) string {
	return colorize(statusColor(label), fmt.Sprintf("%-*s", width, label))
}

// InstalledFromLabel returns the display name of an install source.
func InstalledFromLabel(from string) string {
	switch from {
	case store.InstalledFromGooglePlay:
		return "Google Play"
	case store.InstalledFromFDroid:
		return "F-Droid"
	case store.InstalledFromOther:
		return "Other"
	default:
		return "-"
	}
}

// RenderAppTable renders a list view. Rows keep the order they were given in.
func RenderAppTable(apps []repository.MinimalApp) string {
	if len(apps) == 0 {
		return "No apps found.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-24s %-36s %-11s %-11s %-12s %s\n",
		"Name", "Package", "de-Googled", "microG", "Source", ""))
	sb.WriteString(strings.Repeat("─", 100))
	sb.WriteString("\n")

	for _, app := range apps {
		source := "-"
		if app.IsInstalled {
			source = InstalledFromLabel(app.InstalledFrom)
		}
		fav := ""
		if app.IsFav {
			fav = "★"
		}
		sb.WriteString(fmt.Sprintf("%-24s %-36s %s %s %-12s %s\n",
			truncate(app.Name, 24),
			truncate(app.PackageName, 36),
			padStatus(app.DgStatus, 11),
			padStatus(app.MgStatus, 11),
			source,
			fav))
	}

	sb.WriteString(fmt.Sprintf("\n%d apps\n", len(apps)))
	return sb.String()
}

// RenderAppDetail renders one app. iconPath is shown when the icon is
// cached; an empty path shows a placeholder.
func RenderAppDetail(app *store.App, iconPath string) string {
	var sb strings.Builder

	fav := ""
	if app.IsFav {
		fav = " ★"
	}
	sb.WriteString(fmt.Sprintf("%s%s\n", app.Name, fav))
	sb.WriteString(fmt.Sprintf("  Package:     %s\n", app.PackageName))

	dg := status.Label(app.DgScore)
	mg := status.Label(app.MgScore)
	sb.WriteString(fmt.Sprintf("  de-Googled:  %s %s\n",
		colorize(statusColor(dg), dg), scoreDetail(app.DgScore, app.TotalDgRatings)))
	sb.WriteString(fmt.Sprintf("  microG:      %s %s\n",
		colorize(statusColor(mg), mg), scoreDetail(app.MgScore, app.TotalMgRatings)))

	if app.IsInstalled {
		version := app.InstalledVersion
		if version == "" {
			version = "unknown"
		}
		sb.WriteString(fmt.Sprintf("  Installed:   %s (build %d) from %s\n",
			version, app.InstalledBuild, InstalledFromLabel(app.InstalledFrom)))
	} else {
		sb.WriteString("  Installed:   no\n")
	}

	if !app.IsInPlexusData {
		sb.WriteString("  Not in the Plexus dataset\n")
	}

	switch {
	case iconPath != "":
		sb.WriteString(fmt.Sprintf("  Icon:        %s\n", iconPath))
	case app.IconURL != "":
		sb.WriteString("  Icon:        [not cached]\n")
	}

	if app.Notes != nil && *app.Notes != "" {
		sb.WriteString(fmt.Sprintf("  Notes:       %s\n", *app.Notes))
	}

	return sb.String()
}

func scoreDetail(score float64, total int) string {
	if total == 0 {
		return "(no ratings)"
	}
	return fmt.Sprintf("(%.1f/10, %s)", score, pluralRatings(total))
}

func pluralRatings(n int) string {
	if n == 1 {
		return "1 rating"
	}
	return humanize.Comma(int64(n)) + " ratings"
}

// RenderRatings renders submitted ratings in the order given. Notes are shown
// only when present.
func RenderRatings(ratings []store.Rating) string {
	if len(ratings) == 0 {
		return "No ratings yet.\n"
	}

	var sb strings.Builder
	for i, r := range ratings {
		if i > 0 {
			sb.WriteString("\n")
		}
		label := status.RatingLabel(r.Score)
		sb.WriteString(fmt.Sprintf("%s  %s  v%s (%d)\n",
			colorize(statusColor(label), fmt.Sprintf("%-9s", label)),
			fmt.Sprintf("%-10s", status.GoogleLibLabel(r.GoogleLib)),
			r.Version, r.BuildNumber))

		var device []string
		if r.ROMName != "" {
			rom := r.ROMName
			if r.ROMBuild != "" {
				rom += " " + r.ROMBuild
			}
			device = append(device, rom)
		}
		if r.AndroidVersion != "" {
			device = append(device, "Android "+r.AndroidVersion)
		}
		if r.InstalledFrom != "" {
			device = append(device, "via "+InstalledFromLabel(r.InstalledFrom))
		}
		if len(device) > 0 {
			sb.WriteString("  " + strings.Join(device, " · ") + "\n")
		}

		if notes := strings.TrimSpace(r.Notes); notes != "" {
			sb.WriteString("  " + notes + "\n")
		}
	}
	return sb.String()
}

// RenderSyncReport summarizes a sync. remote and installed select which
// passes ran.
func RenderSyncReport(r repository.SyncReport, remote, installed bool) string {
	var sb strings.Builder
	if remote {
		sb.WriteString(fmt.Sprintf("Remote:    %s apps fetched, %s updated",
			humanize.Comma(int64(r.Fetched)), humanize.Comma(int64(r.Upserted))))
		if r.Unflagged > 0 || r.Deleted > 0 {
			sb.WriteString(fmt.Sprintf(", %d dropped from dataset (%d removed)", r.Unflagged+r.Deleted, r.Deleted))
		}
		sb.WriteString("\n")
	}
	if installed {
		sb.WriteString(fmt.Sprintf("Installed: %d apps on device", r.Scanned))
		if r.Downgraded > 0 || r.Removed > 0 {
			sb.WriteString(fmt.Sprintf(", %d uninstalled (%d removed)", r.Downgraded+r.Removed, r.Removed))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// StatusInfo is what the status command reports.
type StatusInfo struct {
	DBPath     string
	DBBytes    int64
	Counts     store.Counts
	Icons      string
	ConfigFile string
	Device     string
	Daemon     string
}

// RenderStatus renders the status summary.
func RenderStatus(info StatusInfo) string {
	var sb strings.Builder
	c := info.Counts

	sb.WriteString(fmt.Sprintf("Database:  %s (%s)\n", info.DBPath, humanize.Bytes(uint64(info.DBBytes))))
	sb.WriteString(fmt.Sprintf("Apps:      %s total · %s in dataset · %d installed · %d favorites\n",
		humanize.Comma(int64(c.Total)), humanize.Comma(int64(c.InPlexus)), c.Installed, c.Favorites))
	if c.InstallOnly > 0 {
		sb.WriteString(fmt.Sprintf("           %d installed apps have no ratings yet\n", c.InstallOnly))
	}
	if info.Icons != "" {
		sb.WriteString(fmt.Sprintf("Icons:     %s\n", info.Icons))
	}
	config := info.ConfigFile
	if config == "" {
		config = "defaults"
	}
	sb.WriteString(fmt.Sprintf("Config:    %s\n", config))
	if info.Device != "" {
		sb.WriteString(fmt.Sprintf("Device:    %s\n", info.Device))
	}
	if info.Daemon != "" {
		sb.WriteString(fmt.Sprintf("Watcher:   %s\n", info.Daemon))
	}
	return sb.String()
}

// truncate shortens s to maxLen runes, ending in "..." when cut.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
