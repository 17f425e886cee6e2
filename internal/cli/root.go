package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	clihandler "github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skosovsky/modelsync"
	"github.com/skosovsky/modelsync/catalog"
	"github.com/skosovsky/modelsync/internal/config"
	"github.com/skosovsky/modelsync/mlflow"
)

// flagKeys maps command-line flags to config keys; a flag is bound only on commands that define it.
var flagKeys = map[string]string{
	"tracking-uri": config.KeyTrackingURI,
	"experiment":   config.KeyExperimentName,
	"log-level":    config.KeyLogLevel,
	"manifests":    config.KeyManifests,
	"interval":     config.KeyPollInterval,
}

type buildInfo struct {
	version string
	commit  string
	date    string
}

// app carries state shared by the commands of one root.
type app struct {
	v       *viper.Viper
	cfgFile string
	build   buildInfo
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root := NewRootCmd(version, commit, date)
	if err := root.ExecuteContext(ctx); err != nil {
		root.PrintErrln("Error:", err)
		return err
	}
	return nil
}

// NewRootCmd builds the command tree with its own config instance.
func NewRootCmd(version, commit, date string) *cobra.Command {
	a := &app{
		v:     config.New(),
		build: buildInfo{version: version, commit: commit, date: date},
	}
	root := &cobra.Command{
		Use:   "modelsync",
		Short: "Register the assistant's system models in MLflow",
		Long: `modelsync registers the assistant's fixed prompt models (querytime, chat, embeddings)
with an MLflow tracking server and watches the model registry for changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./modelsync.yaml)")
	pf.String("tracking-uri", "", "MLflow tracking server URI (env MLFLOW_TRACKING_URI)")
	pf.String("experiment", "", "MLflow experiment name (env MLFLOW_EXPERIMENT_NAME)")
	pf.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")

	root.AddCommand(
		a.newRegisterCmd(),
		a.newPollCmd(),
		a.newServeCmd(),
		a.newPreviewCmd(),
		a.newVersionCmd(),
	)
	return root
}

// load binds the flags cmd defines and resolves the configuration.
func (a *app) load(cmd *cobra.Command) (*config.Config, error) {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}
	return config.Load(a.v, a.cfgFile)
}

func newLogger(w io.Writer, cfg *config.Config) *log.Logger {
	return &log.Logger{
		Handler: clihandler.New(w),
		Level:   cfg.Level(),
	}
}

func newRegistry(cfg *config.Config, logger log.Interface) (modelsync.Registry, error) {
	if err := cfg.RequireTrackingURI(); err != nil {
		return nil, err
	}
	opts := []mlflow.Option{
		mlflow.WithLogger(logger),
		mlflow.WithExperimentName(cfg.ExperimentName),
	}
	if cfg.TrackingToken != "" {
		opts = append(opts, mlflow.WithAuthToken(cfg.TrackingToken))
	}
	if cfg.Username != "" || cfg.Password != "" {
		opts = append(opts, mlflow.WithBasicAuth(cfg.Username, cfg.Password))
	}
	return mlflow.New(cfg.TrackingURI, opts...)
}

// newCatalog resolves names against the system models and, when dir is set, its manifests.
func newCatalog(dir string) *catalog.Catalog {
	if dir == "" {
		return catalog.New()
	}
	return catalog.New(catalog.WithManifests(os.DirFS(dir), "."))
}
