package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/plexus/internal/output"
	"github.com/blackwell-systems/plexus/internal/repository"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find apps by name or package",
	Long: `Search every stored app, installed or not, by name or package name.
Matching is case-insensitive and ignores saved filters.`,
	Example: `  plexus search signal
  plexus search org.mozilla`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	RootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()

	apps, err := repository.NewSummary(st).Search(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), output.RenderAppTable(apps))
	return nil
}
