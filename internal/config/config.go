package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every key when read from the environment (MODELSYNC_TRACKING_URI, ...).
	EnvPrefix = "MODELSYNC"

	fileName = "modelsync"
	fileType = "yaml"
)

// Defaults used when no source sets a value.
const (
	DefaultPollInterval = 10.0 // seconds
	DefaultLogLevel     = "info"
)

// maxPollInterval bounds the interval in seconds so it converts to a time.Duration without overflow.
const maxPollInterval = math.MaxInt64 / float64(time.Second)

// Keys understood by Load.
const (
	KeyTrackingURI    = "tracking_uri"
	KeyTrackingToken  = "tracking_token"
	KeyUsername       = "username"
	KeyPassword       = "password"
	KeyExperimentName = "experiment_name"
	KeyPollInterval   = "poll_interval"
	KeyLogLevel       = "log_level"
	KeyManifests      = "manifests"
)

// Sentinel errors for configuration loading. Callers should use errors.Is to check.
var (
	ErrInvalidConfig      = errors.New("config: invalid configuration")
	ErrMissingTrackingURI = errors.New("config: tracking URI is not set (MLFLOW_TRACKING_URI)")
)

// mlflowEnv maps keys to the environment variables the MLflow client libraries read.
// The MODELSYNC_ form is checked first.
var mlflowEnv = map[string]string{
	KeyTrackingURI:    "MLFLOW_TRACKING_URI",
	KeyTrackingToken:  "MLFLOW_TRACKING_TOKEN",
	KeyUsername:       "MLFLOW_TRACKING_USERNAME",
	KeyPassword:       "MLFLOW_TRACKING_PASSWORD",
	KeyExperimentName: "MLFLOW_EXPERIMENT_NAME",
}

// Config is the resolved configuration.
type Config struct {
	TrackingURI    string
	TrackingToken  string
	Username       string
	Password       string
	ExperimentName string
	// PollInterval is in seconds.
	PollInterval float64
	LogLevel     string
	Manifests    string
}

// New returns a viper instance with defaults and environment bindings set.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType(fileType)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetDefault(KeyPollInterval, DefaultPollInterval)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	for key, env := range mlflowEnv {
		// BindEnv only errors without a key.
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key), env)
	}
	return v
}

// Load reads file (or ./modelsync.yaml when file is empty and it exists) into v
// and returns the validated result.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
	} else {
		v.SetConfigName(fileName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}
	cfg := &Config{
		TrackingURI:    v.GetString(KeyTrackingURI),
		TrackingToken:  v.GetString(KeyTrackingToken),
		Username:       v.GetString(KeyUsername),
		Password:       v.GetString(KeyPassword),
		ExperimentName: v.GetString(KeyExperimentName),
		PollInterval:   v.GetFloat64(KeyPollInterval),
		LogLevel:       v.GetString(KeyLogLevel),
		Manifests:      v.GetString(KeyManifests),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that every command depends on.
func (c *Config) Validate() error {
	if !(c.PollInterval > 0) {
		return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfig, KeyPollInterval, c.PollInterval)
	}
	if c.PollInterval >= maxPollInterval {
		return fmt.Errorf("%w: %s must be below %.0f seconds, got %v", ErrInvalidConfig, KeyPollInterval, maxPollInterval, c.PollInterval)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %s %q", ErrInvalidConfig, KeyLogLevel, c.LogLevel)
	}
	return nil
}

// RequireTrackingURI reports ErrMissingTrackingURI for commands that talk to MLflow.
func (c *Config) RequireTrackingURI() error {
	if c.TrackingURI == "" {
		return ErrMissingTrackingURI
	}
	return nil
}

// Interval converts PollInterval to a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.PollInterval * float64(time.Second))
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
