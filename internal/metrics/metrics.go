package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "athena_mcp_build_info",
			Help: "Build information of the Athena MCP server",
		},
		[]string{"version", "commit", "date"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athena_mcp_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "athena_mcp_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 16), // 0.01s to ~5m
		},
	)

	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athena_mcp_tool_calls_total",
			Help: "Total number of tool calls",
		},
		[]string{"tool_name", "status"},
	)

	ToolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "athena_mcp_tool_call_duration_seconds",
			Help:    "Duration of tool calls",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 16), // 0.01s to ~5m
		},
		[]string{"tool_name"},
	)

	QueryStatusChecksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "athena_mcp_query_status_checks_total",
			Help: "Total number of status checks performed while waiting for queries",
		},
	)

	QueryWaitOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athena_mcp_query_wait_outcomes_total",
			Help: "Outcomes of bounded waits on query executions",
		},
		[]string{"outcome"},
	)
)
