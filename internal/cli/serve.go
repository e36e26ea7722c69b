package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	appconfig "github.com/lewisedginton/tile_relay/internal/config"
	"github.com/lewisedginton/tile_relay/internal/providers"
	"github.com/lewisedginton/tile_relay/internal/server"
	"github.com/lewisedginton/tile_relay/pkg/logger"
)

// ServeCommand returns the command that runs the relay until SIGINT/SIGTERM.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the relay HTTP server",
		Action:  serveAction,
	}
}

func serveAction(ctx *cli.Context) error {
	log := getLogger(ctx)

	cfg, err := appconfig.Load(ctx.String("config-file"))
	if err != nil {
		log.Error("Failed to load configuration", logger.ErrorField(err))
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log = configuredLogger(ctx, cfg).WithFields(logger.StringField("environment", cfg.Environment))
	cfg.LogConfig(log)

	s := server.New(cfg, log, providers.FromConfig(cfg, nil))
	return s.Run(ctx.Context)
}

// configuredLogger rebuilds the logger from the loaded configuration. Explicit
// --log-level and --log-format flags still win over the configuration file.
func configuredLogger(ctx *cli.Context, cfg *appconfig.AppConfig) logger.Logger {
	level := cfg.GetLogLevel()
	if ctx.IsSet("log-level") {
		level = logger.ParseLevel(ctx.String("log-level"))
	}
	format := cfg.Logging.Format
	if ctx.IsSet("log-format") {
		format = ctx.String("log-format")
	}

	return logger.NewLogger(logger.Config{
		Level:   level,
		Format:  format,
		Service: cfg.ServiceName,
		Output:  ctx.App.ErrWriter,
	})
}
