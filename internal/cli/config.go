package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	appconfig "github.com/lewisedginton/tile_relay/internal/config"
	"github.com/lewisedginton/tile_relay/pkg/logger"
)

// ConfigCommand returns a command for configuration operations
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Configuration operations",
		Subcommands: []*cli.Command{
			{
				Name:   "validate",
				Usage:  "Validate configuration and report which provider keys are set",
				Action: configValidateAction,
			},
		},
	}
}

func configValidateAction(ctx *cli.Context) error {
	log := getLogger(ctx)

	log.Info("Validating configuration")

	cfg, err := appconfig.Load(ctx.String("config-file"))
	if err != nil {
		log.Error("Configuration validation failed", logger.ErrorField(err))
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("Configuration validation passed")

	out := ctx.App.Writer
	fmt.Fprintln(out, "Configuration is valid")
	fmt.Fprintf(out, "  port:      %d\n", cfg.Port)
	fmt.Fprintf(out, "  openai:    %s (%s)\n", keyState(cfg.OpenAI.APIKey), cfg.OpenAI.Model)
	fmt.Fprintf(out, "  anthropic: %s (%s)\n", keyState(cfg.Anthropic.APIKey), cfg.Anthropic.Model)
	fmt.Fprintf(out, "  groq:      %s (%s)\n", keyState(cfg.Groq.APIKey), cfg.Groq.Model)
	return nil
}

func keyState(key string) string {
	if key == "" {
		return "key missing"
	}
	return "key set"
}
