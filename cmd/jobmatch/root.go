package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/config"
	logpkg "github.com/kailas-cloud/jobmatch/internal/logger"
)

var (
	envName  string
	envFiles []string

	rootCmd = &cobra.Command{
		Use:          "jobmatch",
		Short:        "Semantic job search and personalized recommendations",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadEnvFiles(envFiles)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", "",
		"config environment, selects config/<env>.yaml (default $ENV or local)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil,
		"dotenv files to load before reading config (default .env if present)")
}

// loadEnvFiles populates the process environment from dotenv files.
// Variables already set are kept. A missing default .env is not an error.
func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

func resolveEnv() string {
	if envName != "" {
		return envName
	}
	return config.GetEnv()
}

// bootstrap loads config and builds the logger for the selected environment.
func bootstrap() (config.Config, *zap.Logger, string, error) {
	env := resolveEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return config.Config{}, nil, env, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, env, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, env, nil
}
