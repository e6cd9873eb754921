package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/foamlinks/internal"
	pkgconfig "github.com/starford/foamlinks/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runBuild(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The report goes to stdout, logs to stderr.
	rep, err := internal.Build(ctx,
		internal.WithConfig(cfg),
		internal.WithLogWriter(os.Stderr),
	)
	if err != nil {
		return fmt.Errorf("build error: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.ServeMCP(ctx,
		internal.WithConfig(cfg),
		internal.WithLogWriter(os.Stderr),
		internal.WithVersion(version),
	); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "foamlinks",
		Usage:   "Rewrite wikilinks, embeds, tags and mentions into reference-style Markdown links",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Rewrite every note of the vault into the output directory",
				Action: runBuild,
			},
			{
				Name:   "serve",
				Usage:  "Build, then serve the HTTP API",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Build, then serve MCP tools over stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
