package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"harvestsync/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values. Tokens are masked.`,
	Example: `
  # Show active configuration
  harvestsync config show
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Config file loaded from:", viper.ConfigFileUsed())
		fmt.Fprintln(out, "Configuration:")
		printConfig(out, cfg)
		return nil
	},
}

func printConfig(out io.Writer, cfg *config.Config) {
	fmt.Fprintf(out, "harvest.url: %s\n", cfg.Harvest.URL)
	fmt.Fprintf(out, "http.timeout: %s\n", cfg.HTTP.Timeout)
	fmt.Fprintf(out, "log.level: %s\n", cfg.Log.Level)
	fmt.Fprintf(out, "log.format: %s\n", cfg.Log.Format)
	userID := fmt.Sprintf("%d", cfg.User.ID)
	if cfg.User.ID == 0 {
		userID = "0 (any user)"
	}
	fmt.Fprintf(out, "user.id: %s\n", userID)
	fmt.Fprintf(out, "user.harvest_account_id: %s\n", cfg.User.HarvestAccountID)
	fmt.Fprintf(out, "user.harvest_access_token: %s\n", config.MaskSecret(cfg.User.HarvestAccessToken))
	fmt.Fprintf(out, "projects: %d\n", len(cfg.Projects))
	for i, project := range cfg.Projects {
		fmt.Fprintf(out, "projects[%d].harvest_project_id: %d\n", i, project.HarvestProjectID)
		fmt.Fprintf(out, "projects[%d].jira_project_key: %s\n", i, project.JiraProjectKey)
		fmt.Fprintf(out, "projects[%d].jira_domain: %s\n", i, project.JiraDomain)
		fmt.Fprintf(out, "projects[%d].jira_email: %s\n", i, project.JiraEmail)
		fmt.Fprintf(out, "projects[%d].jira_token: %s\n", i, config.MaskSecret(project.JiraToken))
	}
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
