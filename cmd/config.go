package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the harvestsync configuration file.",
	Long: `Create, edit, display, and delete the harvestsync configuration file.

The configuration holds the Harvest credentials and one mapping per Harvest project:
- harvest.url, http.timeout, log.level, log.format
- user.id / user.harvest_account_id / user.harvest_access_token
- projects[].harvest_project_id / jira_project_key / jira_domain / jira_email / jira_token

Every value can be overridden with an environment variable, for example
HARVESTSYNC_USER_HARVEST_ACCESS_TOKEN.`,
	Example: `
  # Create default config in $HOME/.harvestsync.yaml
  harvestsync config create

  # Show active config and source file
  harvestsync config show

  # Open active config in editor (creates example if missing)
  harvestsync config edit

  # Delete active config file
  harvestsync config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
