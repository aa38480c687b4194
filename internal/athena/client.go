// Package athena is a thin façade over the Amazon Athena API. Every method
// forwards only the parameters the caller supplied and returns the service
// response as a JSON-ready payload.
package athena

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/jonboulle/clockwork"
)

// API is the subset of the Athena SDK client used here. *athena.Client
// satisfies it.
type API interface {
	StartQueryExecution(ctx context.Context, params *awsathena.StartQueryExecutionInput, optFns ...func(*awsathena.Options)) (*awsathena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *awsathena.GetQueryExecutionInput, optFns ...func(*awsathena.Options)) (*awsathena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *awsathena.GetQueryResultsInput, optFns ...func(*awsathena.Options)) (*awsathena.GetQueryResultsOutput, error)
	StopQueryExecution(ctx context.Context, params *awsathena.StopQueryExecutionInput, optFns ...func(*awsathena.Options)) (*awsathena.StopQueryExecutionOutput, error)
	ListQueryExecutions(ctx context.Context, params *awsathena.ListQueryExecutionsInput, optFns ...func(*awsathena.Options)) (*awsathena.ListQueryExecutionsOutput, error)
	ListDatabases(ctx context.Context, params *awsathena.ListDatabasesInput, optFns ...func(*awsathena.Options)) (*awsathena.ListDatabasesOutput, error)
	ListTableMetadata(ctx context.Context, params *awsathena.ListTableMetadataInput, optFns ...func(*awsathena.Options)) (*awsathena.ListTableMetadataOutput, error)
}

var _ API = (*awsathena.Client)(nil)

// Defaults are applied to a request only when the caller left the field out.
// They hold explicitly configured values only: the placeholder fallbacks shown
// in the reference document (your_cur_database, primary, ...) are never used
// as call defaults. Empty values are never forwarded.
type Defaults struct {
	Database       string
	Workgroup      string
	OutputLocation string
	Catalog        string
}

type Config struct {
	Logger   *slog.Logger
	API      API
	Clock    clockwork.Clock
	Defaults Defaults
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.API == nil {
		return fmt.Errorf("athena api is required")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return nil
}

type Client struct {
	log      *slog.Logger
	api      API
	clock    clockwork.Clock
	defaults Defaults
}

func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		log:      cfg.Logger,
		api:      cfg.API,
		clock:    cfg.Clock,
		defaults: cfg.Defaults,
	}, nil
}

// AWSConfig selects the region and endpoint of the SDK client. Credentials
// always come from the SDK default chain.
type AWSConfig struct {
	Region      string
	EndpointURL string
}

// NewAWSAPI builds an Athena SDK client from the default AWS configuration.
func NewAWSAPI(ctx context.Context, log *slog.Logger, cfg AWSConfig) (*awsathena.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if cfg.EndpointURL != "" {
		log.Info("athena: using custom endpoint", "endpoint", cfg.EndpointURL)
		return awsathena.NewFromConfig(awsCfg, func(o *awsathena.Options) {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}), nil
	}
	return awsathena.NewFromConfig(awsCfg), nil
}
