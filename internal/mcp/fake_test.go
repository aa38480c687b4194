package mcp

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaizen-ai-systems/athena-mcp-server/internal/athena"
	appconfig "github.com/kaizen-ai-systems/athena-mcp-server/internal/config"
	"github.com/kaizen-ai-systems/athena-mcp-server/internal/logging"
)

// fakeClient records the last input per operation and returns err, when set,
// from every call.
type fakeClient struct {
	mu  sync.Mutex
	err error

	start     *athena.StartQueryInput
	execID    string
	results   *athena.GetQueryResultsInput
	stopID    string
	listExec  *athena.ListQueryExecutionsInput
	listDB    *athena.ListDatabasesInput
	listTable *athena.ListTableMetadataInput
	run       *athena.RunQueryInput
}

func (f *fakeClient) respond(data map[string]any) (map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return data, nil
}

func (f *fakeClient) StartQueryExecution(_ context.Context, in athena.StartQueryInput) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.start = &in
	return f.respond(map[string]any{"QueryExecutionId": "exec-1"})
}

func (f *fakeClient) GetQueryExecution(_ context.Context, id string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execID = id
	return f.respond(map[string]any{"QueryExecution": map[string]any{"QueryExecutionId": id}})
}

func (f *fakeClient) GetQueryResults(_ context.Context, in athena.GetQueryResultsInput) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = &in
	return f.respond(map[string]any{"ResultSet": map[string]any{"Rows": []any{}}})
}

func (f *fakeClient) StopQueryExecution(_ context.Context, id string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopID = id
	return f.respond(map[string]any{})
}

func (f *fakeClient) ListQueryExecutions(_ context.Context, in athena.ListQueryExecutionsInput) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listExec = &in
	return f.respond(map[string]any{"QueryExecutionIds": []any{"a", "b"}})
}

func (f *fakeClient) ListDatabases(_ context.Context, in athena.ListDatabasesInput) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listDB = &in
	return f.respond(map[string]any{"DatabaseList": []any{map[string]any{"Name": "cur"}}})
}

func (f *fakeClient) ListTableMetadata(_ context.Context, in athena.ListTableMetadataInput) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listTable = &in
	return f.respond(map[string]any{"TableMetadataList": []any{}})
}

func (f *fakeClient) RunQuery(_ context.Context, in athena.RunQueryInput) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.run = &in
	return f.respond(map[string]any{"QueryExecutionId": "exec-1", "Status": "SUCCEEDED"})
}

func newTestServer(t *testing.T, client QueryClient, mutate ...func(*Config)) *Server {
	t.Helper()
	cfg := Config{
		Logger:         logging.Discard(),
		Client:         client,
		Version:        "test",
		Transport:      appconfig.TransportHTTP,
		ListenAddr:     "127.0.0.1:0",
		TemplateValues: appconfig.AthenaConfig{}.TemplateValues(),
	}
	for _, m := range mutate {
		m(&cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}
