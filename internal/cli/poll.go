package cli

import (
	"context"
	"errors"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/skosovsky/modelsync/internal/config"
	"github.com/skosovsky/modelsync/poller"
)

func (a *app) newPollCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Poll the model registry for changes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load(cmd)
			if err != nil {
				return err
			}
			return poll(cmd.Context(), cfg, newLogger(cmd.ErrOrStderr(), cfg))
		},
	}
	cmd.Flags().Float64("interval", config.DefaultPollInterval, "seconds between polls")
	return cmd
}

// poll runs the poller; cancellation is a clean exit.
func poll(ctx context.Context, cfg *config.Config, logger log.Interface) error {
	p, err := poller.New(poller.WithInterval(cfg.Interval()), poller.WithLogger(logger))
	if err != nil {
		return err
	}
	logger.WithField("interval", p.Interval()).Info("watching model registry")
	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
