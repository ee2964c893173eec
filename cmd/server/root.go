package main

import (
	"github.com/rpggio/scopeguard/internal/config"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCommand() *cobra.Command {
	var configFlag string

	loadConfig := func() (config.Config, error) {
		if configFlag != "" {
			return config.LoadFrom(configFlag)
		}
		return config.Load()
	}

	serveCmd := newServeCommand(loadConfig)

	rootCmd := &cobra.Command{
		Use:           "scopeguard",
		Short:         "Scope creep detection for freelance projects",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running without a subcommand serves.
		RunE: serveCmd.RunE,
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default $SCOPEGUARD_CONFIG_PATH)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newAPIKeyCommand(loadConfig))

	return rootCmd
}
