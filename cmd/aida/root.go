package main

import (
	"log/slog"

	"github.com/Baryonic/aida/pkg/config"
	"github.com/Baryonic/aida/pkg/logger"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags and what PersistentPreRunE derives from
// them.
type RootOptions struct {
	EnvFile string

	Config *config.Config
	Log    *slog.Logger
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "aida",
		Short:         "Aida children's-book storefront",
		Long:          "Serves the Aida book catalog, server cart and contact form API, and manages a local cart.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.Config = config.Load(opts.EnvFile)
			opts.Log = logger.New(cmd.ErrOrStderr(), opts.Config.Env, opts.Config.LogLevel)
			slog.SetDefault(opts.Log)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file to load before reading the environment")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewCartCommand(opts))

	return cmd
}
