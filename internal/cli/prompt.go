package cli

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/tile_relay/internal/prompt"
)

// PromptCommand prints the prompt that would be sent for a setting.
func PromptCommand() *cli.Command {
	return &cli.Command{
		Name:      "prompt",
		Aliases:   []string{"p"},
		Usage:     "Print the prompt built for a setting",
		ArgsUsage: "<setting>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "ceiling",
				Value: prompt.DefaultCeiling,
				Usage: "Highest tile value the model may use",
			},
			&cli.BoolFlag{
				Name:  "legend",
				Usage: "Print the tile legend instead of the prompt",
			},
		},
		Action: promptAction,
	}
}

func promptAction(ctx *cli.Context) error {
	out := ctx.App.Writer

	if ctx.Bool("legend") {
		for i, name := range prompt.Legend() {
			fmt.Fprintf(out, "%2d  %s\n", i, name)
		}
		return nil
	}

	setting := strings.TrimSpace(strings.Join(ctx.Args().Slice(), " "))
	if setting == "" {
		return cli.Exit("a setting is required", 1)
	}

	fmt.Fprintln(out, prompt.Build(setting, ctx.Int("ceiling")))
	return nil
}
