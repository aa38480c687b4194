package athena

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/kaizen-ai-systems/athena-mcp-server/internal/logging"
)

// fakeAPI records every forwarded input and replays scripted responses.
type fakeAPI struct {
	mu sync.Mutex

	executionID string
	states      []types.QueryExecutionState
	statusCalls int

	startInputs     []*awsathena.StartQueryExecutionInput
	getExecInputs   []*awsathena.GetQueryExecutionInput
	resultsInputs   []*awsathena.GetQueryResultsInput
	stopInputs      []*awsathena.StopQueryExecutionInput
	listExecInputs  []*awsathena.ListQueryExecutionsInput
	listDBInputs    []*awsathena.ListDatabasesInput
	listTableInputs []*awsathena.ListTableMetadataInput

	startErr   error
	getExecErr error
	resultsErr error
	err        error
}

func (f *fakeAPI) StartQueryExecution(_ context.Context, in *awsathena.StartQueryExecutionInput, _ ...func(*awsathena.Options)) (*awsathena.StartQueryExecutionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startInputs = append(f.startInputs, in)
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &awsathena.StartQueryExecutionOutput{QueryExecutionId: aws.String(f.executionID)}, nil
}

func (f *fakeAPI) GetQueryExecution(_ context.Context, in *awsathena.GetQueryExecutionInput, _ ...func(*awsathena.Options)) (*awsathena.GetQueryExecutionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getExecInputs = append(f.getExecInputs, in)
	if f.getExecErr != nil {
		return nil, f.getExecErr
	}
	idx := f.statusCalls
	if idx >= len(f.states) {
		idx = len(f.states) - 1
	}
	f.statusCalls++
	return &awsathena.GetQueryExecutionOutput{
		QueryExecution: &types.QueryExecution{
			QueryExecutionId: in.QueryExecutionId,
			Query:            aws.String("SELECT 1"),
			Status: &types.QueryExecutionStatus{
				State:              f.states[idx],
				SubmissionDateTime: aws.Time(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)),
			},
		},
	}, nil
}

func (f *fakeAPI) GetQueryResults(_ context.Context, in *awsathena.GetQueryResultsInput, _ ...func(*awsathena.Options)) (*awsathena.GetQueryResultsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resultsInputs = append(f.resultsInputs, in)
	if f.resultsErr != nil {
		return nil, f.resultsErr
	}
	return &awsathena.GetQueryResultsOutput{
		ResultSet: &types.ResultSet{
			Rows: []types.Row{
				{Data: []types.Datum{{VarCharValue: aws.String("total")}}},
				{Data: []types.Datum{{VarCharValue: aws.String("42")}}},
			},
			ResultSetMetadata: &types.ResultSetMetadata{
				ColumnInfo: []types.ColumnInfo{{Name: aws.String("total"), Type: aws.String("bigint")}},
			},
		},
		NextToken: aws.String("next-page"),
	}, nil
}

func (f *fakeAPI) StopQueryExecution(_ context.Context, in *awsathena.StopQueryExecutionInput, _ ...func(*awsathena.Options)) (*awsathena.StopQueryExecutionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopInputs = append(f.stopInputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &awsathena.StopQueryExecutionOutput{}, nil
}

func (f *fakeAPI) ListQueryExecutions(_ context.Context, in *awsathena.ListQueryExecutionsInput, _ ...func(*awsathena.Options)) (*awsathena.ListQueryExecutionsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listExecInputs = append(f.listExecInputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &awsathena.ListQueryExecutionsOutput{QueryExecutionIds: []string{"a", "b"}}, nil
}

func (f *fakeAPI) ListDatabases(_ context.Context, in *awsathena.ListDatabasesInput, _ ...func(*awsathena.Options)) (*awsathena.ListDatabasesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listDBInputs = append(f.listDBInputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &awsathena.ListDatabasesOutput{
		DatabaseList: []types.Database{{Name: aws.String("cur")}},
		NextToken:    aws.String("db-next"),
	}, nil
}

func (f *fakeAPI) ListTableMetadata(_ context.Context, in *awsathena.ListTableMetadataInput, _ ...func(*awsathena.Options)) (*awsathena.ListTableMetadataOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listTableInputs = append(f.listTableInputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &awsathena.ListTableMetadataOutput{
		TableMetadataList: []types.TableMetadata{{Name: aws.String("cur_table")}},
	}, nil
}

func (f *fakeAPI) statusChecks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.getExecInputs)
}

func newTestClient(t *testing.T, api API, clock clockwork.Clock, defaults Defaults) *Client {
	t.Helper()
	c, err := New(Config{
		Logger:   logging.Discard(),
		API:      api,
		Clock:    clock,
		Defaults: defaults,
	})
	require.NoError(t, err)
	return c
}
