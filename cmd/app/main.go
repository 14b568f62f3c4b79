package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/asterism/internal"
	pkgconfig "github.com/starford/asterism/pkg/config"
)

type runFunc func(ctx context.Context, opts ...internal.Option) error

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if v := cmd.String("input"); v != "" {
		cfg.Source.Input = v
	}
	if v := cmd.String("output"); v != "" {
		cfg.Output.Path = v
	}
	if v := cmd.String("format"); v != "" {
		cfg.Output.Format = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func action(name string, fn runFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithForce(cmd.Bool("force")),
		}

		if err := fn(ctx, opts...); err != nil {
			return fmt.Errorf("%s error: %w", name, err)
		}
		return nil
	}
}

func main() {
	passFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "input",
			Usage: "Source file, relative to source.dir",
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "Output file, relative to source.dir",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format (js or json)",
		},
		&cli.BoolFlag{
			Name:  "force",
			Usage: "Reconvert even if the catalog shows the output is current",
		},
	}

	cmd := &cli.Command{
		Name:   "asterism",
		Usage:  "Convert stroke-based constellation drawings into deduplicated stars and connections",
		Action: action("convert", internal.Convert),
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		}, passFlags...),
		Commands: []*cli.Command{
			{
				Name:   "convert",
				Usage:  "Run one conversion pass",
				Action: action("convert", internal.Convert),
			},
			{
				Name:   "watch",
				Usage:  "Convert, then reconvert whenever the source file changes",
				Action: action("watch", internal.Watch),
			},
			{
				Name:   "serve",
				Usage:  "Watch the source and serve the catalog over HTTP with an event stream",
				Action: action("serve", internal.Run),
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: action("mcp", internal.ServeMCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
