package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) newPreviewCmd() *cobra.Command {
	var vars []string
	cmd := &cobra.Command{
		Use:   "preview NAME",
		Short: "Print a model's messages with placeholders filled in",
		Long: `preview renders a registered model's template locally, the way the serving side
fills it. NAME is a system model (querytime, chat, embeddings) or a manifest model.`,
		Example: `  modelsync preview querytime --var query="What happened yesterday?"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load(cmd)
			if err != nil {
				return err
			}
			values, err := parseVars(vars)
			if err != nil {
				return err
			}
			d, err := newCatalog(cfg.Manifests).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s (%s)\n", d.RegisteredName, d.Model, d.Task)
			msgs, err := d.Format(cmd.Context(), values)
			if err != nil {
				return err
			}
			for _, m := range msgs {
				fmt.Fprintf(out, "\n[%s]\n%s\n", m.Role, m.Content)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&vars, "var", nil, "placeholder value as key=value (repeatable)")
	cmd.Flags().String("manifests", "", "directory of extra model manifests (*.yaml)")
	return cmd
}

func parseVars(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --var %q: want key=value", p)
		}
		out[k] = v
	}
	return out, nil
}
