package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/getlost/portal/internal"
	"github.com/getlost/portal/internal/assetstore"
	"github.com/getlost/portal/internal/bundler"
	"github.com/getlost/portal/internal/contentservice"
	"github.com/getlost/portal/internal/contentstore"
	"github.com/getlost/portal/internal/mcpserver"
	pkgconfig "github.com/getlost/portal/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runServer(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

// runMCP serves portal tools over stdio for MCP clients. It shares the
// content store and asset directory with the HTTP server.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := contentstore.Open(cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("init content store: %w", err)
	}
	defer db.Close()

	assets, err := assetstore.NewFS(cfg.Storage.AssetsDir, cfg.Storage.AssetsBaseURL)
	if err != nil {
		return fmt.Errorf("init asset store: %w", err)
	}

	b := bundler.New(bundler.WithVideoStore(assets))
	svc := contentservice.NewService(db, assets, b, cfg.Storage.ReportsDir, nil, nil)

	return mcpserver.New(svc).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "getlost-portal",
		Usage:  "Author content portal: report bundling, seeded content matching, and hosted media",
		Action: runServer,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Serve portal tools over stdio for MCP clients",
				Action: runMCP,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
