package mcp

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kaizen-ai-systems/athena-mcp-server/internal/athena"
)

// QueryClient is the Athena façade the tools forward to. *athena.Client
// satisfies it.
type QueryClient interface {
	StartQueryExecution(ctx context.Context, in athena.StartQueryInput) (map[string]any, error)
	GetQueryExecution(ctx context.Context, queryExecutionID string) (map[string]any, error)
	GetQueryResults(ctx context.Context, in athena.GetQueryResultsInput) (map[string]any, error)
	StopQueryExecution(ctx context.Context, queryExecutionID string) (map[string]any, error)
	ListQueryExecutions(ctx context.Context, in athena.ListQueryExecutionsInput) (map[string]any, error)
	ListDatabases(ctx context.Context, in athena.ListDatabasesInput) (map[string]any, error)
	ListTableMetadata(ctx context.Context, in athena.ListTableMetadataInput) (map[string]any, error)
	RunQuery(ctx context.Context, in athena.RunQueryInput) (map[string]any, error)
}

var _ QueryClient = (*athena.Client)(nil)

// Tool arguments. Optional values are pointers so an omitted argument stays
// absent all the way to the SDK request.

type StartQueryExecutionArgs struct {
	QueryString           string                        `json:"query_string" jsonschema:"SQL query to run"`
	Database              *string                       `json:"database,omitempty" jsonschema:"database the query runs against"`
	Catalog               *string                       `json:"catalog,omitempty" jsonschema:"data catalog the query runs against"`
	OutputLocation        *string                       `json:"output_location,omitempty" jsonschema:"S3 location for query results, e.g. s3://bucket/prefix/"`
	WorkGroup             *string                       `json:"work_group,omitempty" jsonschema:"workgroup the query runs in"`
	QueryExecutionContext *athena.QueryExecutionContext `json:"query_execution_context,omitempty" jsonschema:"Athena QueryExecutionContext (Database, Catalog)"`
	ResultConfiguration   *athena.ResultConfiguration   `json:"result_configuration,omitempty" jsonschema:"Athena ResultConfiguration (OutputLocation, ExpectedBucketOwner, EncryptionConfiguration)"`
	ExecutionParameters   []string                      `json:"execution_parameters,omitempty" jsonschema:"values for ? placeholders in the query, in order"`
	ClientRequestToken    *string                       `json:"client_request_token,omitempty" jsonschema:"idempotency token for the submission"`
}

func (a StartQueryExecutionArgs) input() athena.StartQueryInput {
	return athena.StartQueryInput{
		QueryString:           a.QueryString,
		Database:              a.Database,
		Catalog:               a.Catalog,
		OutputLocation:        a.OutputLocation,
		WorkGroup:             a.WorkGroup,
		ClientRequestToken:    a.ClientRequestToken,
		QueryExecutionContext: a.QueryExecutionContext,
		ResultConfiguration:   a.ResultConfiguration,
		ExecutionParameters:   a.ExecutionParameters,
	}
}

type QueryExecutionIDArgs struct {
	QueryExecutionID string `json:"query_execution_id" jsonschema:"ID of the query execution"`
}

type GetQueryResultsArgs struct {
	QueryExecutionID string  `json:"query_execution_id" jsonschema:"ID of the query execution"`
	NextToken        *string `json:"next_token,omitempty" jsonschema:"continuation token from a previous page"`
	MaxResults       *int32  `json:"max_results,omitempty" jsonschema:"maximum number of rows to return in this page"`
}

func (a GetQueryResultsArgs) input() athena.GetQueryResultsInput {
	return athena.GetQueryResultsInput{
		QueryExecutionID: a.QueryExecutionID,
		NextToken:        a.NextToken,
		MaxResults:       a.MaxResults,
	}
}

type ListQueryExecutionsArgs struct {
	WorkGroup  *string `json:"work_group,omitempty" jsonschema:"workgroup to list executions for"`
	NextToken  *string `json:"next_token,omitempty" jsonschema:"continuation token from a previous page"`
	MaxResults *int32  `json:"max_results,omitempty" jsonschema:"maximum number of execution IDs to return"`
}

func (a ListQueryExecutionsArgs) input() athena.ListQueryExecutionsInput {
	return athena.ListQueryExecutionsInput{
		WorkGroup:  a.WorkGroup,
		NextToken:  a.NextToken,
		MaxResults: a.MaxResults,
	}
}

type ListDatabasesArgs struct {
	CatalogName *string `json:"catalog_name,omitempty" jsonschema:"data catalog to list databases from"`
	NextToken   *string `json:"next_token,omitempty" jsonschema:"continuation token from a previous page"`
	MaxResults  *int32  `json:"max_results,omitempty" jsonschema:"maximum number of databases to return"`
}

func (a ListDatabasesArgs) input() athena.ListDatabasesInput {
	return athena.ListDatabasesInput{
		CatalogName: a.CatalogName,
		NextToken:   a.NextToken,
		MaxResults:  a.MaxResults,
	}
}

type ListTableMetadataArgs struct {
	DatabaseName string  `json:"database_name" jsonschema:"database to list tables from"`
	CatalogName  *string `json:"catalog_name,omitempty" jsonschema:"data catalog containing the database"`
	Expression   *string `json:"expression,omitempty" jsonschema:"regex filter on table names"`
	NextToken    *string `json:"next_token,omitempty" jsonschema:"continuation token from a previous page"`
	MaxResults   *int32  `json:"max_results,omitempty" jsonschema:"maximum number of tables to return"`
}

func (a ListTableMetadataArgs) input() athena.ListTableMetadataInput {
	return athena.ListTableMetadataInput{
		DatabaseName: a.DatabaseName,
		CatalogName:  a.CatalogName,
		Expression:   a.Expression,
		NextToken:    a.NextToken,
		MaxResults:   a.MaxResults,
	}
}

type RunQueryArgs struct {
	QueryString       string  `json:"query_string" jsonschema:"SQL query to run"`
	Database          *string `json:"database,omitempty" jsonschema:"database the query runs against"`
	OutputLocation    *string `json:"output_location,omitempty" jsonschema:"S3 location for query results"`
	WorkGroup         *string `json:"work_group,omitempty" jsonschema:"workgroup the query runs in"`
	WaitForCompletion *bool   `json:"wait_for_completion,omitempty" jsonschema:"wait for the query to finish (default true)"`
	PollInterval      *int    `json:"poll_interval,omitempty" jsonschema:"seconds between status checks (default 1)"`
	MaxWaitTime       *int    `json:"max_wait_time,omitempty" jsonschema:"maximum seconds to wait before returning with a timeout (default 300)"`
}

// maxDurationSeconds is the largest second count a time.Duration can hold.
const maxDurationSeconds = math.MaxInt64 / int64(time.Second)

func (a RunQueryArgs) input() (athena.RunQueryInput, error) {
	in := athena.RunQueryInput{
		QueryString:       a.QueryString,
		Database:          a.Database,
		OutputLocation:    a.OutputLocation,
		WorkGroup:         a.WorkGroup,
		WaitForCompletion: true,
		PollInterval:      athena.DefaultPollInterval,
		MaxWaitTime:       athena.DefaultMaxWaitTime,
	}
	if a.WaitForCompletion != nil {
		in.WaitForCompletion = *a.WaitForCompletion
	}
	var err error
	if a.PollInterval != nil {
		if in.PollInterval, err = seconds("poll_interval", *a.PollInterval); err != nil {
			return athena.RunQueryInput{}, err
		}
	}
	if a.MaxWaitTime != nil {
		if in.MaxWaitTime, err = seconds("max_wait_time", *a.MaxWaitTime); err != nil {
			return athena.RunQueryInput{}, err
		}
	}
	return in, nil
}

// seconds converts a tool argument to a duration. Sign checks are left to the
// client; only values a Duration cannot represent are rejected here.
func seconds(name string, v int) (time.Duration, error) {
	if int64(v) > maxDurationSeconds {
		return 0, &athena.Error{
			Kind: athena.KindValidation,
			Err:  fmt.Errorf("%s must be at most %d seconds, got %d", name, maxDurationSeconds, v),
		}
	}
	return time.Duration(v) * time.Second, nil
}
