// Package main runs the AWS Cost MCP server: Athena query tools for Cost and
// Usage Report analysis over stdio or streamable HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/kaizen-ai-systems/athena-mcp-server/internal/athena"
	"github.com/kaizen-ai-systems/athena-mcp-server/internal/config"
	"github.com/kaizen-ai-systems/athena-mcp-server/internal/logging"
	"github.com/kaizen-ai-systems/athena-mcp-server/internal/mcp"
	"github.com/kaizen-ai-systems/athena-mcp-server/internal/metrics"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultEnvFile = ".env"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "path to a TOML config file")
	envFileFlag := flag.String("env-file", "", "path to a dotenv file (default .env when present)")
	transportFlag := flag.String("transport", "", "transport to serve: stdio or http (or set MCP_TRANSPORT)")
	hostFlag := flag.String("host", "", "HTTP transport bind host (or set MCP_SERVER_HOST)")
	portFlag := flag.Int("port", 0, "HTTP transport bind port (or set MCP_SERVER_PORT)")
	logLevelFlag := flag.String("log-level", "", "log level: DEBUG, INFO, WARNING, ERROR (or set MCP_LOG_LEVEL)")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("athena-mcp-server %s (commit %s, built %s)\n", version, commit, date)
		return nil
	}

	if err := loadEnvFile(*envFileFlag); err != nil {
		return err
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}
	cfg.ApplyOverrides(*hostFlag, *transportFlag, *logLevelFlag, *portFlag)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// stdout carries the stdio transport, so logs always go to stderr.
	log := logging.New(os.Stderr, cfg.Level())
	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api, err := athena.NewAWSAPI(ctx, log, athena.AWSConfig{
		Region:      cfg.Athena.Region,
		EndpointURL: cfg.Athena.EndpointURL,
	})
	if err != nil {
		return err
	}

	client, err := athena.New(athena.Config{
		Logger: log,
		API:    api,
		Defaults: athena.Defaults{
			Database:       cfg.Athena.Database,
			Workgroup:      cfg.Athena.Workgroup,
			OutputLocation: cfg.Athena.OutputLocation,
			Catalog:        cfg.Athena.Catalog,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create athena client: %w", err)
	}

	server, err := mcp.New(mcp.Config{
		Logger:         log,
		Client:         client,
		Version:        version,
		Transport:      cfg.Server.Transport,
		ListenAddr:     cfg.ListenAddr(),
		MetricsAddr:    cfg.Server.MetricsAddr,
		ResourcePath:   cfg.Server.ResourcePath,
		TemplateValues: cfg.Athena.TemplateValues(),
		Stdin:          os.Stdin,
		Stdout:         os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Info("server: starting",
		"version", version,
		"transport", cfg.Server.Transport,
		"database", cfg.Athena.Database,
		"workgroup", cfg.Athena.Workgroup,
		"region", cfg.Athena.Region,
	)
	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	log.Info("server: stopped")
	return nil
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. The default .env is optional.
func loadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", defaultEnvFile, err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}
