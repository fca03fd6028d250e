package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hebrew-tools/nakdan/internal/config"
)

var (
	// Global flags.
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "nakdan",
	Short: "Add nikud to Hebrew text",
	Long: `Nakdan adds vowel pointing (nikud) to Hebrew text using the Dicta
Nakdan service, caching results to avoid repeated calls.

Examples:
  # Annotate a phrase
  nakdan annotate "שלום עולם"

  # Annotate every line of a compressed file in GCS
  nakdan batch gs://my-bucket/texts/day1.txt.zst

  # Run the HTTP service
  nakdan serve --config nakdan.yaml`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// loadConfig returns the file configuration, or defaults when no file is set.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// newLogger builds a development logger with --verbose and a production
// logger otherwise.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if verbose || cfg.Log.Development {
		return zap.NewDevelopment()
	}

	zc := zap.NewProductionConfig()
	if cfg.Log.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = level
	}
	return zc.Build()
}
