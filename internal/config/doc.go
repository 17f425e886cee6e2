// Package config loads modelsync settings from a config file, the environment and
// command-line flags through viper.
package config
