package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kaizen-ai-systems/athena-mcp-server/internal/athena"
	"github.com/kaizen-ai-systems/athena-mcp-server/internal/metrics"
)

type toolDefinition struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	call        func(ctx context.Context, client QueryClient, raw json.RawMessage) (map[string]any, error)
}

func newTool[In any](name, description string, call func(ctx context.Context, client QueryClient, in In) (map[string]any, error)) (toolDefinition, error) {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return toolDefinition{}, fmt.Errorf("failed to create %s input schema: %w", name, err)
	}
	return toolDefinition{
		Name:        name,
		Description: description,
		InputSchema: schema,
		call: func(ctx context.Context, client QueryClient, raw json.RawMessage) (map[string]any, error) {
			var in In
			if len(bytes.TrimSpace(raw)) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
				if err := json.Unmarshal(raw, &in); err != nil {
					return nil, &athena.Error{Kind: athena.KindValidation, Err: fmt.Errorf("invalid arguments: %w", err)}
				}
			}
			return call(ctx, client, in)
		},
	}, nil
}

func toolDefinitions() ([]toolDefinition, error) {
	var (
		defs []toolDefinition
		errs []error
	)
	add := func(def toolDefinition, err error) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		defs = append(defs, def)
	}

	add(newTool("start_query_execution",
		"Starts a query execution using Athena. Returns the QueryExecutionId without waiting for the query to finish.",
		func(ctx context.Context, c QueryClient, in StartQueryExecutionArgs) (map[string]any, error) {
			return c.StartQueryExecution(ctx, in.input())
		}))
	add(newTool("get_query_execution",
		"Gets information about a single execution of a query: state, state change reason, statistics and timestamps.",
		func(ctx context.Context, c QueryClient, in QueryExecutionIDArgs) (map[string]any, error) {
			return c.GetQueryExecution(ctx, in.QueryExecutionID)
		}))
	add(newTool("get_query_results",
		"Returns one page of results of a query execution specified by query execution ID. Pass NextToken back as next_token to fetch the next page.",
		func(ctx context.Context, c QueryClient, in GetQueryResultsArgs) (map[string]any, error) {
			return c.GetQueryResults(ctx, in.input())
		}))
	add(newTool("stop_query_execution",
		"Stops a query execution.",
		func(ctx context.Context, c QueryClient, in QueryExecutionIDArgs) (map[string]any, error) {
			return c.StopQueryExecution(ctx, in.QueryExecutionID)
		}))
	add(newTool("list_query_executions",
		"Returns a list of query execution IDs, one page at a time.",
		func(ctx context.Context, c QueryClient, in ListQueryExecutionsArgs) (map[string]any, error) {
			return c.ListQueryExecutions(ctx, in.input())
		}))
	add(newTool("list_databases",
		"Lists the databases in the specified data catalog.",
		func(ctx context.Context, c QueryClient, in ListDatabasesArgs) (map[string]any, error) {
			return c.ListDatabases(ctx, in.input())
		}))
	add(newTool("list_table_metadata",
		"Lists the tables in the specified data catalog database.",
		func(ctx context.Context, c QueryClient, in ListTableMetadataArgs) (map[string]any, error) {
			return c.ListTableMetadata(ctx, in.input())
		}))
	add(newTool("run_query",
		"Runs a query and optionally waits for its completion, polling every poll_interval seconds for up to max_wait_time seconds. Results are included when the query succeeds; Timeout is set when the wait ran out.",
		func(ctx context.Context, c QueryClient, in RunQueryArgs) (map[string]any, error) {
			input, err := in.input()
			if err != nil {
				return nil, err
			}
			return c.RunQuery(ctx, input)
		}))

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return defs, nil
}

func (s *Server) registerTools() error {
	defs, err := toolDefinitions()
	if err != nil {
		return err
	}
	for _, def := range defs {
		s.tools[def.Name] = def
		s.mcp.AddTool(&mcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, s.toolHandler(def))
	}
	return nil
}

func (s *Server) toolHandler(def toolDefinition) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var raw json.RawMessage
		if req != nil && req.Params != nil {
			raw = req.Params.Arguments
		}
		return s.callTool(ctx, def, raw), nil
	}
}

// callTool never fails at the protocol level: operation errors become tool
// results flagged with IsError.
func (s *Server) callTool(ctx context.Context, def toolDefinition, raw json.RawMessage) *mcp.CallToolResult {
	startTime := time.Now()
	s.log.Debug("mcp/tool: handling call", "tool", def.Name)

	data, err := def.call(ctx, s.client, raw)
	metrics.ToolCallDuration.WithLabelValues(def.Name).Observe(time.Since(startTime).Seconds())

	if err != nil {
		metrics.ToolCallsTotal.WithLabelValues(def.Name, "error").Inc()
		s.log.Error("mcp/tool: call failed", "tool", def.Name, "error", err)
		return errorResult(err)
	}
	metrics.ToolCallsTotal.WithLabelValues(def.Name, "success").Inc()
	return successResult(data)
}

func successResult(data map[string]any) *mcp.CallToolResult {
	pretty, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("failed to encode result: %w", err))
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: string(pretty)}},
		StructuredContent: data,
	}
}

// errorResult keeps the plain "Error: <message>" text for clients that only
// read content, and tags the structured content with the error kind.
func errorResult(err error) *mcp.CallToolResult {
	detail := map[string]any{
		"kind":    "internal",
		"message": err.Error(),
	}
	var athenaErr *athena.Error
	if errors.As(err, &athenaErr) {
		detail["kind"] = string(athenaErr.Kind)
		if athenaErr.Code != "" {
			detail["code"] = athenaErr.Code
		}
		if athenaErr.QueryExecutionID != "" {
			detail["query_execution_id"] = athenaErr.QueryExecutionID
		}
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: "Error: " + err.Error()}},
		StructuredContent: map[string]any{"error": detail},
		IsError:           true,
	}
}
