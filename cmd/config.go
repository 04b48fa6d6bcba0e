package cmd

import (
	"github.com/habedi/folio/config"
	"github.com/spf13/cobra"
)

func configCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show settings",
	}
	cmd.AddCommand(configShowCmd(a), configEnvCmd())
	return cmd
}

// configShowCmd prints the effective settings. Secrets are masked.
func configShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective settings after files, environment and flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return fail(cmd, err)
			}
			password := ""
			if cfg.Redis.Password != "" {
				password = "********"
			}

			table := newTable(cmd.OutOrStdout(), []string{"Setting", "Value"})
			table.AppendBulk([][]string{
				{"api_url", cfg.APIURL},
				{"timeout", cfg.Timeout.String()},
				{"metrics_file", cfg.MetricsFile},
				{"home", cfg.Home},
				{"session.backend", cfg.Session.Backend},
				{"session.access_ttl", cfg.Session.AccessTTL.String()},
				{"session.refresh_ttl", cfg.Session.RefreshTTL.String()},
				{"session.path", cfg.Session.Path},
				{"redis.addr", cfg.Redis.Addr},
				{"redis.password", password},
				{"redis.prefix", cfg.Redis.Prefix},
			})
			table.Render()
			return nil
		},
	}
}

func configEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Describe the environment variables folio reads",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(config.Usage())
		},
	}
}
