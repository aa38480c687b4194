// Package mcp exposes the Athena client as MCP tools plus the cost analysis
// reference document, over stdio or streamable HTTP.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appconfig "github.com/kaizen-ai-systems/athena-mcp-server/internal/config"
	"github.com/kaizen-ai-systems/athena-mcp-server/internal/metrics"
)

const serverName = "AWS Cost MCP Server"

const instructions = `Use these tools to analyze AWS Cost and Usage Report data with Amazon Athena.
Read the file:///aws-cost-analysis resource first for the table layout and example queries.
Prefer run_query for short queries; use start_query_execution with get_query_execution and
get_query_results for long-running ones. Results are paginated: pass NextToken back as next_token.`

type Server struct {
	log    *slog.Logger
	cfg    Config
	mcp    *mcp.Server
	client QueryClient
	tools  map[string]toolDefinition
}

func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		log:    cfg.Logger,
		cfg:    cfg,
		client: cfg.Client,
		tools:  make(map[string]toolDefinition),
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: cfg.Version,
		}, &mcp.ServerOptions{
			Instructions: instructions,
			Logger:       cfg.Logger,
		}),
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	s.registerResources()

	return s, nil
}

// Run serves the configured transport until ctx is done or the peer goes away.
func (s *Server) Run(ctx context.Context) error {
	switch s.cfg.Transport {
	case appconfig.TransportHTTP:
		return s.runHTTP(ctx)
	default:
		return s.runStdio(ctx)
	}
}

func (s *Server) runStdio(ctx context.Context) error {
	if s.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer := s.newHTTPServer(s.cfg.MetricsAddr, mux)
		go func() {
			s.log.Info("server: metrics listening", "address", s.cfg.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("server: metrics server error", "error", err)
			}
		}()
		defer s.shutdown(metricsServer)
	}

	s.log.Info("server: mcp stdio transport ready", "tools", len(s.tools))
	transport := &FramedTransport{Reader: s.cfg.Stdin, Writer: s.cfg.Stdout, Logger: s.log}
	err := s.mcp.Run(ctx, transport)
	if err != nil && (errors.Is(err, io.EOF) || errors.Is(err, context.Canceled)) {
		return nil
	}
	return err
}

func (s *Server) runHTTP(ctx context.Context) error {
	httpServer := s.newHTTPServer(s.cfg.ListenAddr, s.httpHandler())

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server: http server error", "error", err)
			serveErrCh <- fmt.Errorf("failed to listen and serve: %w", err)
		}
	}()

	s.log.Info("server: mcp streamable http listening", "listenAddr", s.cfg.ListenAddr)

	select {
	case <-ctx.Done():
		s.log.Info("server: stopping", "reason", ctx.Err(), "listenAddr", s.cfg.ListenAddr)
		if err := s.shutdown(httpServer); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		s.log.Info("server: HTTP server shutdown complete")
		return nil
	case err := <-serveErrCh:
		return err
	}
}

func (s *Server) httpHandler() http.Handler {
	mux := http.NewServeMux()
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.mcp
	}, &mcp.StreamableHTTPOptions{
		Stateless: true,
	})
	mux.Handle("/", s.metricsMiddleware(handler))
	mux.Handle("/healthz", s.metricsMiddleware(http.HandlerFunc(s.healthzHandler)))
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// newHTTPServer leaves WriteTimeout unset: run_query responses may take up to
// the caller's max_wait_time.
func (s *Server) newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

func (s *Server) shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

func (s *Server) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok\n")); err != nil {
		s.log.Error("failed to write healthz response", "error", err)
	}
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, fmt.Sprintf("%d", wrapped.statusCode)).Inc()
		metrics.HTTPRequestDuration.Observe(time.Since(startTime).Seconds())
	})
}

// responseWriter captures the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Flush keeps streamed responses working through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
