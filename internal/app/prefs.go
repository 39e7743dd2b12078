package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/plexus/internal/config"
)

var (
	prefsCmd = &cobra.Command{
		Use:   "prefs",
		Short: "Show or change saved list preferences",
		Long: `Preferences set the default filters and order for 'plexus list'.

Keys:
  status_radio     none, dg or mg: which score the status filter applies to
  dg_status_sort   status for the de-Googled filter
  mg_status_sort   status for the microG filter
  order            a_z or z_a
  installed_from   any, google_play, fdroid or other

Invalid values in preferences.yaml fall back to the defaults.`,
		Example: `  plexus prefs
  plexus prefs get order
  plexus prefs set status_radio dg
  plexus prefs set dg_status_sort gold`,
		Args: cobra.NoArgs,
		RunE: runPrefsShow,
	}

	prefsGetCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Print one or all preferences",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPrefsGet,
	}

	prefsSetCmd = &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a preference",
		Args:  cobra.ExactArgs(2),
		RunE:  runPrefsSet,
	}
)

func init() {
	prefsCmd.AddCommand(prefsGetCmd)
	prefsCmd.AddCommand(prefsSetCmd)

	RootCmd.AddCommand(prefsCmd)
}

func runPrefsShow(cmd *cobra.Command, args []string) error {
	return runPrefsGet(cmd, nil)
}

func runPrefsGet(cmd *cobra.Command, args []string) error {
	prefs, err := loadPreferences()
	if err != nil {
		return err
	}
	p := prefs.Get()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		value, err := p.Get(args[0])
		if err != nil {
			return fmt.Errorf("%w (want one of %s)", err, strings.Join(config.PreferenceKeys(), ", "))
		}
		fmt.Fprintln(out, value)
		return nil
	}

	for _, key := range config.PreferenceKeys() {
		value, _ := p.Get(key)
		fmt.Fprintf(out, "%-16s %s\n", key, value)
	}
	return nil
}

func runPrefsSet(cmd *cobra.Command, args []string) error {
	prefs, err := loadPreferences()
	if err != nil {
		return err
	}
	if err := prefs.Set(args[0], args[1]); err != nil {
		return err
	}

	value, _ := prefs.Get().Get(args[0])
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], value)
	return nil
}
