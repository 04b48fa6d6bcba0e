package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/habedi/folio/pkg/clierr"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the folio CLI and exits with the code matching the error type.
func Execute(ctx context.Context) {
	rootCmd := createRootCmd()
	rootCmd.PersistentFlags().BoolP("help", "h", false, "Show help for a command")

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var ce *clierr.Error
		if !errors.As(err, &ce) {
			// flag and argument errors from cobra itself
			ce = clierr.New(clierr.Validation, err.Error(), err)
			printError(rootCmd, ce)
		}
		log.Error().Err(err).Msg("Command execution failed.")
		os.Exit(ce.Type.ExitCode())
	}
}

func createRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "folio",
		Short:         "A command-line client for the blog API",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.opts.configPath, "config", "c", "", "Path to a YAML config file")
	flags.StringVar(&a.opts.apiURL, "api-url", "", "Base URL of the blog API (overrides FOLIO_API_URL)")
	flags.BoolVar(&a.opts.ephemeral, "ephemeral", false, "Keep the session in memory only for this run")

	rootCmd.AddCommand(
		loginCmd(a),
		registerCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		sessionCmd(a),
		postCmd(a),
		commentCmd(a),
		categoryCmd(a),
		configCmd(a),
		versionCmd(),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	return rootCmd
}
