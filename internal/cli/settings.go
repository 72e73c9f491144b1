package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/postguard/internal/config"
	"github.com/dshills/postguard/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage classifier settings (strictness, custom instruction)",
}

// openSettings opens the settings file named by the effective config.
func openSettings() (*settings.File, error) {
	cfg, err := config.Load(nil)
	if err != nil {
		return nil, err
	}
	path := cfg.SettingsFile
	if path == "" {
		path = settings.DefaultPath()
	}
	return settings.Open(path)
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openSettings()
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(f.Settings())
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "# %s\n%s", f.Path(), data)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <strictness|customInstruction> <value>",
	Short: "Set a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openSettings()
		if err != nil {
			return err
		}
		if err := f.Set(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Set %s = %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}
