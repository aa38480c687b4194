package athena

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
)

// QueryExecutionContext mirrors the service's QueryExecutionContext.
type QueryExecutionContext struct {
	Database *string `json:"Database,omitempty"`
	Catalog  *string `json:"Catalog,omitempty"`
}

// ResultConfiguration mirrors the service's ResultConfiguration.
type ResultConfiguration struct {
	OutputLocation          *string                  `json:"OutputLocation,omitempty"`
	ExpectedBucketOwner     *string                  `json:"ExpectedBucketOwner,omitempty"`
	EncryptionConfiguration *EncryptionConfiguration `json:"EncryptionConfiguration,omitempty"`
}

type EncryptionConfiguration struct {
	EncryptionOption string  `json:"EncryptionOption"`
	KmsKey           *string `json:"KmsKey,omitempty"`
}

// StartQueryInput holds the parameters of StartQueryExecution. Named fields
// take precedence over the same value given inside QueryExecutionContext or
// ResultConfiguration.
type StartQueryInput struct {
	QueryString           string
	Database              *string
	Catalog               *string
	OutputLocation        *string
	WorkGroup             *string
	ClientRequestToken    *string
	QueryExecutionContext *QueryExecutionContext
	ResultConfiguration   *ResultConfiguration
	ExecutionParameters   []string
}

type GetQueryResultsInput struct {
	QueryExecutionID string
	NextToken        *string
	MaxResults       *int32
}

type ListQueryExecutionsInput struct {
	WorkGroup  *string
	NextToken  *string
	MaxResults *int32
}

type ListDatabasesInput struct {
	CatalogName *string
	NextToken   *string
	MaxResults  *int32
}

type ListTableMetadataInput struct {
	DatabaseName string
	CatalogName  *string
	Expression   *string
	NextToken    *string
	MaxResults   *int32
}

func (c *Client) StartQueryExecution(ctx context.Context, in StartQueryInput) (map[string]any, error) {
	params, err := c.startQueryParams(in)
	if err != nil {
		return nil, err
	}

	c.log.Debug("athena: starting query execution", "work_group", aws.ToString(params.WorkGroup))
	out, err := c.api.StartQueryExecution(ctx, params)
	if err != nil {
		return nil, remoteError("", fmt.Errorf("failed to start query execution: %w", err))
	}
	return result(aws.ToString(out.QueryExecutionId), out)
}

func (c *Client) GetQueryExecution(ctx context.Context, queryExecutionID string) (map[string]any, error) {
	if err := requireID("query_execution_id", queryExecutionID); err != nil {
		return nil, err
	}

	out, err := c.api.GetQueryExecution(ctx, &awsathena.GetQueryExecutionInput{
		QueryExecutionId: aws.String(queryExecutionID),
	})
	if err != nil {
		return nil, remoteError(queryExecutionID, fmt.Errorf("failed to get query execution: %w", err))
	}
	return result(queryExecutionID, out)
}

func (c *Client) GetQueryResults(ctx context.Context, in GetQueryResultsInput) (map[string]any, error) {
	if err := requireID("query_execution_id", in.QueryExecutionID); err != nil {
		return nil, err
	}
	if err := checkMaxResults(in.MaxResults); err != nil {
		return nil, err
	}

	out, err := c.api.GetQueryResults(ctx, &awsathena.GetQueryResultsInput{
		QueryExecutionId: aws.String(in.QueryExecutionID),
		NextToken:        in.NextToken,
		MaxResults:       in.MaxResults,
	})
	if err != nil {
		return nil, remoteError(in.QueryExecutionID, fmt.Errorf("failed to get query results: %w", err))
	}
	return result(in.QueryExecutionID, out)
}

func (c *Client) StopQueryExecution(ctx context.Context, queryExecutionID string) (map[string]any, error) {
	if err := requireID("query_execution_id", queryExecutionID); err != nil {
		return nil, err
	}

	c.log.Info("athena: stopping query execution", "query_execution_id", queryExecutionID)
	out, err := c.api.StopQueryExecution(ctx, &awsathena.StopQueryExecutionInput{
		QueryExecutionId: aws.String(queryExecutionID),
	})
	if err != nil {
		return nil, remoteError(queryExecutionID, fmt.Errorf("failed to stop query execution: %w", err))
	}
	return result(queryExecutionID, out)
}

func (c *Client) ListQueryExecutions(ctx context.Context, in ListQueryExecutionsInput) (map[string]any, error) {
	if err := checkMaxResults(in.MaxResults); err != nil {
		return nil, err
	}

	out, err := c.api.ListQueryExecutions(ctx, &awsathena.ListQueryExecutionsInput{
		WorkGroup:  pick(in.WorkGroup, c.defaults.Workgroup),
		NextToken:  in.NextToken,
		MaxResults: in.MaxResults,
	})
	if err != nil {
		return nil, remoteError("", fmt.Errorf("failed to list query executions: %w", err))
	}
	return result("", out)
}

func (c *Client) ListDatabases(ctx context.Context, in ListDatabasesInput) (map[string]any, error) {
	if err := checkMaxResults(in.MaxResults); err != nil {
		return nil, err
	}

	out, err := c.api.ListDatabases(ctx, &awsathena.ListDatabasesInput{
		CatalogName: pick(in.CatalogName, c.defaults.Catalog),
		NextToken:   in.NextToken,
		MaxResults:  in.MaxResults,
	})
	if err != nil {
		return nil, remoteError("", fmt.Errorf("failed to list databases: %w", err))
	}
	return result("", out)
}

func (c *Client) ListTableMetadata(ctx context.Context, in ListTableMetadataInput) (map[string]any, error) {
	if err := requireID("database_name", in.DatabaseName); err != nil {
		return nil, err
	}
	if err := checkMaxResults(in.MaxResults); err != nil {
		return nil, err
	}

	out, err := c.api.ListTableMetadata(ctx, &awsathena.ListTableMetadataInput{
		DatabaseName: aws.String(in.DatabaseName),
		CatalogName:  pick(in.CatalogName, c.defaults.Catalog),
		Expression:   in.Expression,
		NextToken:    in.NextToken,
		MaxResults:   in.MaxResults,
	})
	if err != nil {
		return nil, remoteError("", fmt.Errorf("failed to list table metadata: %w", err))
	}
	return result("", out)
}

func (c *Client) startQueryParams(in StartQueryInput) (*awsathena.StartQueryExecutionInput, error) {
	if strings.TrimSpace(in.QueryString) == "" {
		return nil, validationError("query_string is required")
	}

	params := &awsathena.StartQueryExecutionInput{
		QueryString:        aws.String(in.QueryString),
		WorkGroup:          pick(in.WorkGroup, c.defaults.Workgroup),
		ClientRequestToken: pick(in.ClientRequestToken, ""),
	}
	if len(in.ExecutionParameters) > 0 {
		params.ExecutionParameters = in.ExecutionParameters
	}

	var qctx QueryExecutionContext
	if in.QueryExecutionContext != nil {
		qctx = *in.QueryExecutionContext
	}
	database := pick(in.Database, "")
	if database == nil {
		database = pick(qctx.Database, c.defaults.Database)
	}
	catalog := pick(in.Catalog, "")
	if catalog == nil {
		catalog = pick(qctx.Catalog, c.defaults.Catalog)
	}
	if database != nil || catalog != nil {
		params.QueryExecutionContext = &types.QueryExecutionContext{
			Database: database,
			Catalog:  catalog,
		}
	}

	var rcfg ResultConfiguration
	if in.ResultConfiguration != nil {
		rcfg = *in.ResultConfiguration
	}
	output := pick(in.OutputLocation, "")
	if output == nil {
		output = pick(rcfg.OutputLocation, c.defaults.OutputLocation)
	}
	owner := pick(rcfg.ExpectedBucketOwner, "")
	var encryption *types.EncryptionConfiguration
	if enc := rcfg.EncryptionConfiguration; enc != nil {
		if strings.TrimSpace(enc.EncryptionOption) == "" {
			return nil, validationError("result_configuration.EncryptionConfiguration.EncryptionOption is required")
		}
		encryption = &types.EncryptionConfiguration{
			EncryptionOption: types.EncryptionOption(enc.EncryptionOption),
			KmsKey:           pick(enc.KmsKey, ""),
		}
	}
	if output != nil || owner != nil || encryption != nil {
		params.ResultConfiguration = &types.ResultConfiguration{
			OutputLocation:          output,
			ExpectedBucketOwner:     owner,
			EncryptionConfiguration: encryption,
		}
	}

	return params, nil
}

// pick returns v when it holds a non-empty value, otherwise the fallback, or
// nil when both are empty.
func pick(v *string, fallback string) *string {
	if v != nil && strings.TrimSpace(*v) != "" {
		return v
	}
	if fallback != "" {
		return aws.String(fallback)
	}
	return nil
}

func requireID(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return validationError("%s is required", name)
	}
	return nil
}

func checkMaxResults(v *int32) error {
	if v != nil && *v <= 0 {
		return validationError("max_results must be positive, got %d", *v)
	}
	return nil
}

func result(executionID string, out any) (map[string]any, error) {
	p, err := payload(out)
	if err != nil {
		return nil, remoteError(executionID, err)
	}
	return p, nil
}
