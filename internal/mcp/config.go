package mcp

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	appconfig "github.com/kaizen-ai-systems/athena-mcp-server/internal/config"
)

const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultShutdownTimeout   = 5 * time.Second
)

type Config struct {
	Logger *slog.Logger
	Client QueryClient

	Version   string
	Transport string

	// ListenAddr serves the streamable HTTP transport. MetricsAddr, when set,
	// exposes /metrics alongside the stdio transport.
	ListenAddr  string
	MetricsAddr string

	// ResourcePath replaces the embedded reference document and is re-read on
	// every fetch. TemplateValues fill its ${NAME} placeholders.
	ResourcePath   string
	TemplateValues map[string]string

	// Stdin and Stdout carry the stdio transport.
	Stdin  io.Reader
	Stdout io.Writer

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}
	switch c.Transport {
	case "":
		c.Transport = appconfig.TransportStdio
	case appconfig.TransportStdio, appconfig.TransportHTTP:
	default:
		return fmt.Errorf("unsupported transport %q", c.Transport)
	}
	if c.Transport == appconfig.TransportHTTP && c.ListenAddr == "" {
		return fmt.Errorf("listen address is required for the http transport")
	}
	if c.Transport == appconfig.TransportStdio && (c.Stdin == nil || c.Stdout == nil) {
		return fmt.Errorf("stdin and stdout are required for the stdio transport")
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	return nil
}
