package cmd

import (
	"time"

	"github.com/habedi/folio/session"
	"github.com/spf13/cobra"
)

func sessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or renew the stored session",
	}
	cmd.AddCommand(sessionStatusCmd(a), sessionRefreshCmd(a))
	return cmd
}

func sessionStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which tokens are held and when they expire",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			access, hasAccess, err := a.session.AccessToken(ctx)
			if err != nil {
				return err
			}
			refresh, hasRefresh, err := a.session.RefreshToken(ctx)
			if err != nil {
				return err
			}

			table := newTable(cmd.OutOrStdout(), []string{"Token", "Held", "Expires"})
			table.Append([]string{session.AccessTokenName, yesNo(hasAccess), tokenExpiry(access, hasAccess)})
			table.Append([]string{session.RefreshTokenName, yesNo(hasRefresh), tokenExpiry(refresh, hasRefresh)})
			table.Render()

			cmd.Println("Backend:", a.cfg.Session.Backend)
			if hasAccess {
				cmd.Println("Authenticated: yes")
			} else {
				cmd.Println("Authenticated: no")
			}
			return nil
		}),
	}
}

func sessionRefreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.auth.Refresh(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("Session refreshed.")
			return nil
		}),
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// tokenExpiry reads the exp claim for display. Opaque tokens show as unknown.
func tokenExpiry(raw string, held bool) string {
	if !held {
		return "-"
	}
	claims, err := session.Inspect(raw)
	if err != nil || claims.ExpiresAt.IsZero() {
		return "unknown"
	}
	return claims.ExpiresAt.Local().Format(time.RFC1123)
}
