package cli

import (
	"github.com/spf13/cobra"

	"github.com/skosovsky/modelsync/internal/config"
)

func (a *app) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Register the system models, then poll the registry until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg)
			if err := register(cmd.Context(), cmd.OutOrStdout(), cfg, logger); err != nil {
				return err
			}
			return poll(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().String("manifests", "", "directory of extra model manifests (*.yaml)")
	cmd.Flags().Float64("interval", config.DefaultPollInterval, "seconds between polls")
	return cmd
}
