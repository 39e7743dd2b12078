package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the icon cache",
		Long: `App icons are downloaded during 'plexus sync' and kept on disk so
lists never wait for the network.`,
		Example: `  plexus cache stats
  plexus cache clear`,
	}

	cacheStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show icon cache size",
		Args:  cobra.NoArgs,
		RunE:  runCacheStats,
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached icons",
		Args:  cobra.NoArgs,
		RunE:  runCacheClear,
	}
)

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	RootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	icons, err := openIcons()
	if err != nil {
		return err
	}
	stats, err := icons.Stats()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s in %s\n", stats, icons.Dir())
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	icons, err := openIcons()
	if err != nil {
		return err
	}
	before, err := icons.Stats()
	if err != nil {
		return err
	}
	if err := icons.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", before)
	return nil
}
