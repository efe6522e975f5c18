/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"harvestsync/config"
)

const configBaseName = ".harvestsync"

var (
	cfgFile string
	// configReadErr holds a parse or permission failure of an existing config file.
	configReadErr error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "harvestsync",
	Short: "Copy closed Harvest time entries into Jira work logs.",
	Long: `
**********************************************
*              HARVEST -> JIRA               *
**********************************************

This CLI reads one week of Harvest time entries, finds the Jira issue mentioned in each
entry's notes and creates a matching Jira work log. Entries that were already logged are
recognized from the work-log comment and skipped, so running it twice is safe.

Only closed entries of the configured user are logged. Every Harvest project needs a
mapping to a Jira project key, site and API token in the config file.
`,
	Example: `
  # Create configuration file
  harvestsync config create

  # Preview the current week without writing to Jira
  harvestsync sync --dry-run

  # Sync the week starting on a given Monday
  harvestsync sync --from 2026-10-05

  # Sync and write a daily summary report
  harvestsync sync --report ./week.xlsx --report-mode daily
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()
	config.BindEnv()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.harvestsync.yaml, then ./.harvestsync.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(configBaseName)
	}

	configReadErr = nil
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(os.Stderr, "No config file found. Create one first with: harvestsync config create")
			return
		}
		configReadErr = fmt.Errorf("read config file: %w", err)
	}
}

// loadConfig returns the validated configuration of the active config file.
func loadConfig() (*config.Config, error) {
	if configReadErr != nil {
		return nil, configReadErr
	}
	if path := viper.ConfigFileUsed(); path != "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, config.ErrNoConfig
		}
	}
	return config.LoadAndValidate()
}
