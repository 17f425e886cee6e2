package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/skosovsky/modelsync/internal/config"
	"github.com/skosovsky/modelsync/systemmodels"
)

func (a *app) newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register the system models, plus any manifest models, as new model versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg)
			return register(cmd.Context(), cmd.OutOrStdout(), cfg, logger)
		},
	}
	cmd.Flags().String("manifests", "", "directory of extra model manifests (*.yaml)")
	return cmd
}

func register(ctx context.Context, out io.Writer, cfg *config.Config, logger log.Interface) error {
	extra, err := newCatalog(cfg.Manifests).Manifests(ctx)
	if err != nil {
		return err
	}
	reg, err := newRegistry(cfg, logger)
	if err != nil {
		return err
	}
	if _, err := systemmodels.Register(ctx, reg,
		systemmodels.WithLogger(logger),
		systemmodels.WithExtra(extra...),
	); err != nil {
		return err
	}
	fmt.Fprintf(out, "registered %d models\n", len(systemmodels.Descriptors())+len(extra))
	return nil
}
