package cmd

import (
	"github.com/habedi/folio/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// loginCmd prompts for credentials and starts a session.
func loginCmd(a *app) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the blog",
		Long:  "Log in with your username and password. The password is never echoed.",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd)
			var err error
			if username == "" {
				if username, err = p.promptForInput("Username: "); err != nil {
					return err
				}
			}
			password, err := p.promptForPassword("Password: ")
			if err != nil {
				return err
			}

			form := validation.LoginForm{Username: username, Password: password}
			if err := a.auth.Login(cmd.Context(), form); err != nil {
				return err
			}
			cmd.Printf("Logged in as %s.\n", username)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted for when empty)")
	return cmd
}

// registerCmd creates an account and starts a session for it.
func registerCmd(a *app) *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd)
			var err error
			if username == "" {
				if username, err = p.promptForInput("Username: "); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("email") {
				if email, err = p.promptForInput("Email (optional): "); err != nil {
					return err
				}
			}
			password1, err := p.promptForPassword("Password: ")
			if err != nil {
				return err
			}
			password2, err := p.promptForPassword("Confirm password: ")
			if err != nil {
				return err
			}

			form := validation.RegisterForm{
				Username:  username,
				Email:     email,
				Password1: password1,
				Password2: password2,
			}
			if err := a.auth.Register(cmd.Context(), form); err != nil {
				return err
			}
			cmd.Printf("Account %s created. You are now logged in.\n", username)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted for when empty)")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Email address")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("Logged out.")
			return nil
		}),
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			st, err := a.auth.Status(cmd.Context())
			if err != nil {
				return err
			}
			switch {
			case !st.Authenticated:
				cmd.Println("Not logged in. Use `folio login` to log in.")
			case st.User != nil:
				cmd.Printf("Logged in as %s (ID %d).\n", st.User.Username, st.User.ID)
			default:
				log.Debug().Err(st.UserErr).Msg("User details unavailable")
				cmd.Println("Logged in, but the user details could not be fetched.")
			}
			return nil
		}),
	}
}
