package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ticketdrop/ticketdrop/internal/creds"
)

// newCheckCmd validates the effective configuration and credential key
// material without starting the server. Useful in deployment pipelines to
// fail fast on a broken environment.
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger := buildLogger(cfg)

			if _, err := creds.NewProvider(cfg.Drive.CredentialsPath, logger); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "configuration OK (port %d, drive root %s, tracker %s)\n",
				cfg.Server.Port, cfg.Drive.RootID, cfg.Tracker.BaseURL)

			return nil
		},
	}
}
