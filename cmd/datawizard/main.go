// cmd/datawizard/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/David-Botos/datawizard/pkg/config"
	"github.com/David-Botos/datawizard/pkg/converter"
)

var (
	verbose bool
	envFile string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "datawizard",
	Short: "Clean tabular data and browse a catalog of data science projects",
	Long: `datawizard cleans uploaded tables (missing values, duplicates, text casing,
column types), reports what it changed, and serves a filterable catalog of
project ideas.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}

		var err error
		cfg, err = config.LoadConfig(files...)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logger, err = newLogger(cfg, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Env file to load (default .env)")

	rootCmd.AddCommand(serveCmd, cleanCmd, projectsCmd)
}

// newLogger builds the process logger from the production preset
func newLogger(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	if cfg.LogFormat == "console" {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	return zc.Build()
}

// newConverter builds the type converter shared by every command
func newConverter(cfg *config.Config, logger *zap.Logger) *converter.TypeConverter {
	conf := converter.DefaultConfig()
	conf.DefaultTimezone = cfg.Cleaning.DefaultTimezone
	return converter.NewTypeConverterWithConfig(logger, conf)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
