package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/plexus/internal/output"
	"github.com/blackwell-systems/plexus/internal/plexusapi"
	"github.com/blackwell-systems/plexus/internal/repository"
)

var (
	showRatings bool

	showCmd = &cobra.Command{
		Use:   "show <package>",
		Short: "Show one app in detail",
		Long: `Show scores, install details and notes for one app.

With --ratings the individual community ratings are downloaded and stored
first; without it any ratings stored earlier are shown.`,
		Example: `  plexus show org.thoughtcrime.securesms
  plexus show org.thoughtcrime.securesms --ratings`,
		Args: cobra.ExactArgs(1),
		RunE: runShow,
	}
)

func init() {
	showCmd.Flags().BoolVar(&showRatings, "ratings", false, "download individual ratings")

	RootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	pkg := args[0]

	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()

	icons, err := openIcons()
	if err != nil {
		return err
	}
	defer icons.Wait()

	summary := repository.NewSummary(st)
	app, err := summary.App(ctx, pkg)
	if err != nil {
		return err
	}
	if app == nil {
		return fmt.Errorf("%w: %s (try 'plexus search')", repository.ErrAppNotFound, pkg)
	}

	if showRatings {
		syncer, err := newSyncer(st, icons)
		if err != nil {
			return err
		}
		ratings, err := syncer.SyncAppRatings(ctx, pkg)
		switch {
		case errors.Is(err, plexusapi.ErrNotFound):
			app.Ratings = nil
		case err != nil:
			return err
		default:
			app.Ratings = ratings
		}
	}

	iconPath, _ := icons.Path(app.IconURL)
	fmt.Fprint(out, output.RenderAppDetail(app, iconPath))

	if showRatings || len(app.Ratings) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Ratings (%d):\n", len(app.Ratings))
		fmt.Fprint(out, output.RenderRatings(app.Ratings))
	}
	return nil
}
