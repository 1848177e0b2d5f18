package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var overwriteConfig bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current settings to the config file",
	Long: `Writes the settings in effect (defaults, environment and flags) to the
file named by --config, so they can be edited by hand.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !overwriteConfig {
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}
		}
		if err := cfg.Save(configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&overwriteConfig, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
}
