package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/plexus/internal/repository"
)

var (
	favCmd = &cobra.Command{
		Use:     "fav <package>",
		Short:   "Mark an app as favorite",
		Example: `  plexus fav org.briarproject.briar.android`,
		Args:    cobra.ExactArgs(1),
		RunE:    func(cmd *cobra.Command, args []string) error { return runFav(cmd, args[0], true) },
	}

	unfavCmd = &cobra.Command{
		Use:     "unfav <package>",
		Short:   "Remove an app from favorites",
		Example: `  plexus unfav org.briarproject.briar.android`,
		Args:    cobra.ExactArgs(1),
		RunE:    func(cmd *cobra.Command, args []string) error { return runFav(cmd, args[0], false) },
	}
)

func init() {
	RootCmd.AddCommand(favCmd)
	RootCmd.AddCommand(unfavCmd)
}

func runFav(cmd *cobra.Command, pkg string, fav bool) error {
	ctx := cmd.Context()

	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()

	summary := repository.NewSummary(st)
	app, err := summary.App(ctx, pkg)
	if err != nil {
		return err
	}
	if app == nil {
		return fmt.Errorf("%w: %s (try 'plexus search')", repository.ErrAppNotFound, pkg)
	}

	m := repository.Minimal(app)
	m.IsFav = fav
	if err := summary.UpdateFavorite(ctx, m); err != nil {
		return err
	}

	if fav {
		fmt.Fprintf(cmd.OutOrStdout(), "★ %s added to favorites\n", app.Name)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s removed from favorites\n", app.Name)
	}
	return nil
}
