package app

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/plexus/internal/config"
	"github.com/blackwell-systems/plexus/internal/output"
	"github.com/blackwell-systems/plexus/internal/repository"
)

const (
	viewAvailable = "available"
	viewInstalled = "installed"
	viewFavorites = "favorites"
)

var (
	listDg     string
	listMg     string
	listOrder  string
	listFrom   string
	listFollow bool

	listCmd = &cobra.Command{
		Use:   "list [available|installed|favorites]",
		Short: "List apps with their ratings",
		Long: `List apps from the local database.

Views:
  • available: rated apps that are not installed (default)
  • installed: apps on the device
  • favorites: apps marked with 'plexus fav'

Filters and sort order come from your saved preferences ('plexus prefs');
flags override them for this run. A status filter applies to one score at a
time: de-Googled (--dg) or microG (--mg).`,
		Example: `  # Installed apps rated Gold with microG
  plexus list installed --mg gold

  # Favorites installed from F-Droid, Z to A
  plexus list favorites --from fdroid --order z_a

  # Re-render whenever preferences.yaml changes
  plexus list --follow`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{viewAvailable, viewInstalled, viewFavorites},
		RunE:      runList,
	}
)

func init() {
	listCmd.Flags().StringVar(&listDg, "dg", "", "filter by de-Googled status: any, not_tested, unusable, bronze, silver, gold")
	listCmd.Flags().StringVar(&listMg, "mg", "", "filter by microG status: any, not_tested, unusable, bronze, silver, gold")
	listCmd.Flags().StringVar(&listOrder, "order", "", "name order: a_z or z_a")
	listCmd.Flags().StringVar(&listFrom, "from", "", "install source: any, google_play, fdroid, other")
	listCmd.Flags().BoolVar(&listFollow, "follow", false, "keep running and re-render when preferences change")

	RootCmd.AddCommand(listCmd)
}

// applyListFlags overlays command-line filters on saved preferences.
func applyListFlags(p config.Preferences) (config.Preferences, error) {
	if listDg != "" && listMg != "" {
		return p, fmt.Errorf("--dg and --mg cannot be combined")
	}

	var err error
	set := func(key, value string) {
		if err == nil && value != "" {
			p, err = p.With(key, value)
		}
	}
	if listDg != "" {
		set(config.KeyStatusRadio, string(config.RadioDg))
		set(config.KeyDgStatusSort, listDg)
	}
	if listMg != "" {
		set(config.KeyStatusRadio, string(config.RadioMg))
		set(config.KeyMgStatusSort, listMg)
	}
	set(config.KeyOrder, listOrder)
	set(config.KeyInstalledFrom, listFrom)
	return p, err
}

func listView(ctx context.Context, s *repository.Summary, view string, p config.Preferences) ([]repository.MinimalApp, error) {
	switch view {
	case viewAvailable:
		return s.NotInstalled(ctx, p)
	case viewInstalled:
		return s.Installed(ctx, p)
	case viewFavorites:
		return s.Favorites(ctx, p)
	default:
		return nil, fmt.Errorf("unknown view %q (want available, installed or favorites)", view)
	}
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	view := viewAvailable
	if len(args) == 1 {
		view = args[0]
	}

	prefs, err := loadPreferences()
	if err != nil {
		return err
	}
	p, err := applyListFlags(prefs.Get())
	if err != nil {
		return err
	}

	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()
	summary := repository.NewSummary(st)

	render := func(w io.Writer, p config.Preferences) error {
		apps, err := listView(ctx, summary, view, p)
		if err != nil {
			return err
		}
		fmt.Fprint(w, output.RenderAppTable(apps))
		return nil
	}

	if err := render(out, p); err != nil {
		return err
	}
	if !listFollow {
		return nil
	}

	var mu sync.Mutex
	err = prefs.Watch(func(updated config.Preferences) {
		mu.Lock()
		defer mu.Unlock()

		p, err := applyListFlags(updated)
		if err != nil {
			logger.Warn("ignoring preference change", "error", err)
			return
		}
		fmt.Fprintln(out)
		if err := render(out, p); err != nil {
			logger.Error("failed to refresh list", "error", err)
		}
	})
	if err != nil {
		return err
	}

	logger.Info("following preferences", "path", prefs.Path())
	<-ctx.Done()
	return nil
}
