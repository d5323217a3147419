// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"fmt"

	"release-manager/internal/config"
	"release-manager/internal/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// dimColor is used for secondary text in the CLI output
var dimColor = color.New(color.Faint)

var configInitForce bool

// configCmd is the parent command for configuration subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the release configuration",
	Long: `Provides subcommands to work with the release configuration file.
Settings are read from ./` + config.DefaultFileName + ` unless --config points elsewhere;
values not present in the file fall back to built-in defaults.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Prints the configuration the release pipeline would use, after defaults,
the configuration file and command-line overrides have been applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		source := flags.configPath
		if source == "" {
			source = config.DefaultFileName
		}
		dimColor.Fprintf(cmd.OutOrStdout(), "# source: %s\n", source)
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	Long: `Writes the default configuration to ./` + config.DefaultFileName + ` (or the path given
with --config). An existing file is only replaced when --force is set.`,
	Args: cobra.NoArgs,
	// The file may not exist yet, so the root hook's Load is bypassed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flags.noColor {
			color.NoColor = true
		}
		logger.InitLogger(logger.Options{Level: "info", Stderr: flags.verbose})
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := flags.configPath
		if path == "" {
			path = config.DefaultFileName
		}
		if err := config.Save(path, config.Default(), configInitForce); err != nil {
			return err
		}
		logger.Info("configuration file written", "path", path)
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", identifierColor.Sprint(path))
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing configuration file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(configCmd)
}
