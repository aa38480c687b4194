// Package config loads the server configuration from defaults, an optional TOML
// file and the process environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultHost      = "127.0.0.1"
	DefaultPort      = 6543
	DefaultLogLevel  = "INFO"
	DefaultTransport = TransportStdio

	TransportStdio = "stdio"
	TransportHTTP  = "http"

	// Fallbacks shown in the reference document when nothing is configured.
	FallbackDatabase       = "your_cur_database"
	FallbackTable          = "your_cur_table"
	FallbackWorkgroup      = "primary"
	FallbackOutputLocation = "s3://your-bucket/athena-results/"
)

// Config is populated once at startup and not mutated afterwards.
type Config struct {
	Server ServerConfig `toml:"server"`
	Athena AthenaConfig `toml:"athena"`
}

type ServerConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	LogLevel     string `toml:"log_level"`
	Transport    string `toml:"transport"`
	MetricsAddr  string `toml:"metrics_addr"`
	ResourcePath string `toml:"resource_path"`
}

// AthenaConfig holds only explicitly configured values. Empty means unset; the
// client then leaves the corresponding request field absent.
type AthenaConfig struct {
	Database       string `toml:"database"`
	Table          string `toml:"table"`
	Workgroup      string `toml:"workgroup"`
	OutputLocation string `toml:"output_location"`
	Catalog        string `toml:"catalog"`
	Region         string `toml:"region"`
	EndpointURL    string `toml:"endpoint_url"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      DefaultHost,
			Port:      DefaultPort,
			LogLevel:  DefaultLogLevel,
			Transport: DefaultTransport,
		},
	}
}

// Load reads the TOML file at path when path is non-empty, then applies
// environment overrides on top of it.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Host = getEnv("MCP_SERVER_HOST", c.Server.Host)
	if v := getEnv("MCP_SERVER_PORT", ""); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MCP_SERVER_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	c.Server.LogLevel = getEnv("MCP_LOG_LEVEL", c.Server.LogLevel)
	c.Server.Transport = getEnv("MCP_TRANSPORT", c.Server.Transport)
	c.Server.MetricsAddr = getEnv("MCP_METRICS_ADDR", c.Server.MetricsAddr)
	c.Server.ResourcePath = getEnv("MCP_RESOURCE_PATH", c.Server.ResourcePath)

	c.Athena.Database = getEnv("ATHENA_DATABASE", c.Athena.Database)
	c.Athena.Table = getEnv("ATHENA_TABLE", c.Athena.Table)
	c.Athena.Workgroup = getEnv("ATHENA_WORKGROUP", c.Athena.Workgroup)
	c.Athena.OutputLocation = getEnv("ATHENA_OUTPUT_LOCATION", c.Athena.OutputLocation)
	c.Athena.Catalog = getEnv("ATHENA_CATALOG", c.Athena.Catalog)
	c.Athena.Region = getEnv("ATHENA_REGION", c.Athena.Region)
	c.Athena.EndpointURL = getEnv("ATHENA_ENDPOINT_URL", c.Athena.EndpointURL)
	return nil
}

// ApplyOverrides applies CLI flag overrides. Empty strings and zero ports are
// ignored.
func (c *Config) ApplyOverrides(host, transport, logLevel string, port int) {
	if host != "" {
		c.Server.Host = host
	}
	if transport != "" {
		c.Server.Transport = transport
	}
	if logLevel != "" {
		c.Server.LogLevel = logLevel
	}
	if port != 0 {
		c.Server.Port = port
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if _, err := ParseLogLevel(c.Server.LogLevel); err != nil {
		return err
	}
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("invalid transport: %s. Must be '%s' or '%s'", c.Server.Transport, TransportStdio, TransportHTTP)
	}
	if c.Athena.OutputLocation != "" && !strings.HasPrefix(c.Athena.OutputLocation, "s3://") {
		return fmt.Errorf("athena output location must be an s3:// URI: %s", c.Athena.OutputLocation)
	}
	return nil
}

// ListenAddr is the bind address of the HTTP transport.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Level returns the parsed log level. Call Validate first.
func (c *Config) Level() slog.Level {
	level, _ := ParseLogLevel(c.Server.LogLevel)
	return level
}

// TemplateValues maps reference document placeholders to their configured
// values, falling back to the documented defaults.
func (a AthenaConfig) TemplateValues() map[string]string {
	output := fallback(a.OutputLocation, FallbackOutputLocation)
	bucket := strings.TrimPrefix(strings.TrimRight(output, "/"), "s3://")
	return map[string]string{
		"${ATHENA_DATABASE}":      fallback(a.Database, FallbackDatabase),
		"${ATHENA_TABLE}":         fallback(a.Table, FallbackTable),
		"${ATHENA_WORKGROUP}":     fallback(a.Workgroup, FallbackWorkgroup),
		"${ATHENA_OUTPUT_BUCKET}": bucket,
	}
}

// ParseLogLevel accepts slog names plus WARNING and CRITICAL.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR", "CRITICAL":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level: %s", s)
}

func fallback(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
