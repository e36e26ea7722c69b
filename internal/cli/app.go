// Package cli wires the relay's command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/tile_relay/pkg/logger"
)

const (
	appName        = "tile-relay"
	defaultEnvFile = ".env"
)

// NewApp returns the tile-relay CLI. Running it without a command starts the
// relay.
func NewApp() *cli.App {
	return &cli.App{
		Name:           appName,
		Usage:          "Relay a setting description to an LLM and return a 10x10 tile grid",
		Version:        "1.0.0",
		DefaultCommand: "serve",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "json",
				Usage:   "Log format (json, text)",
				EnvVars: []string{"LOG_FORMAT"},
			},
			&cli.StringFlag{
				Name:    "config-file",
				Value:   "",
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{"CONFIG_FILE"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: defaultEnvFile,
				Usage: "Path to a dotenv file loaded before configuration; a missing default file is ignored",
			},
		},
		Before: before,
		Commands: []*cli.Command{
			ServeCommand(),
			ConfigCommand(),
			PromptCommand(),
		},
	}
}

// before loads the dotenv file and stores the logger in the app metadata.
func before(ctx *cli.Context) error {
	if err := loadEnvFile(ctx.String("env-file"), ctx.IsSet("env-file")); err != nil {
		return err
	}

	log := logger.NewLogger(logger.Config{
		Level:   logger.ParseLevel(envOrFlag(ctx, "log-level", "LOG_LEVEL")),
		Format:  envOrFlag(ctx, "log-format", "LOG_FORMAT"),
		Service: appName,
		Output:  ctx.App.ErrWriter,
	})

	if ctx.App.Metadata == nil {
		ctx.App.Metadata = map[string]interface{}{}
	}
	ctx.App.Metadata["logger"] = log
	return nil
}

// loadEnvFile never overrides variables already present in the environment.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load env file %s: %w", path, err)
}

// envOrFlag prefers an explicit flag, then a variable that only appeared after
// the dotenv file was loaded, then the flag default.
func envOrFlag(ctx *cli.Context, flag, env string) string {
	if ctx.IsSet(flag) {
		return ctx.String(flag)
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return ctx.String(flag)
}

// getLogger retrieves the logger from the CLI context metadata
func getLogger(ctx *cli.Context) logger.Logger {
	if ctx.App.Metadata != nil {
		if log, ok := ctx.App.Metadata["logger"].(logger.Logger); ok {
			return log
		}
	}

	return logger.NewLogger(logger.Config{
		Level:   logger.InfoLevel,
		Format:  "json",
		Service: appName,
	})
}
