package athena

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"

	"github.com/kaizen-ai-systems/athena-mcp-server/internal/metrics"
)

const (
	DefaultPollInterval = 1 * time.Second
	DefaultMaxWaitTime  = 300 * time.Second

	// StatusSubmitted is reported when the caller does not wait for completion.
	StatusSubmitted = "SUBMITTED"
)

type RunQueryInput struct {
	QueryString       string
	Database          *string
	OutputLocation    *string
	WorkGroup         *string
	WaitForCompletion bool
	PollInterval      time.Duration
	MaxWaitTime       time.Duration
}

func isTerminal(state types.QueryExecutionState) bool {
	switch state {
	case types.QueryExecutionStateSucceeded, types.QueryExecutionStateFailed, types.QueryExecutionStateCancelled:
		return true
	}
	return false
}

// RunQuery submits a query and, when WaitForCompletion is set, polls its status
// until it reaches a terminal state or the next poll would land at or past
// MaxWaitTime. The first status check happens right after submission. Results
// are fetched only for succeeded queries; a timeout is reported as a normal
// result with Timeout set.
func (c *Client) RunQuery(ctx context.Context, in RunQueryInput) (map[string]any, error) {
	if in.PollInterval <= 0 {
		return nil, validationError("poll_interval must be positive")
	}
	if in.MaxWaitTime <= 0 {
		return nil, validationError("max_wait_time must be positive")
	}

	params, err := c.startQueryParams(StartQueryInput{
		QueryString:    in.QueryString,
		Database:       in.Database,
		OutputLocation: in.OutputLocation,
		WorkGroup:      in.WorkGroup,
	})
	if err != nil {
		return nil, err
	}

	out, err := c.api.StartQueryExecution(ctx, params)
	if err != nil {
		return nil, remoteError("", fmt.Errorf("failed to start query execution: %w", err))
	}
	id := aws.ToString(out.QueryExecutionId)
	res := map[string]any{"QueryExecutionId": id}

	if !in.WaitForCompletion {
		c.log.Debug("athena: query submitted", "query_execution_id", id)
		res["Status"] = StatusSubmitted
		return res, nil
	}

	exec, timedOut, err := c.wait(ctx, id, in.PollInterval, in.MaxWaitTime)
	if err != nil {
		return nil, err
	}

	res["Status"] = string(exec.Status.State)
	execPayload, err := payload(exec)
	if err != nil {
		return nil, remoteError(id, err)
	}
	res["QueryExecution"] = execPayload

	if timedOut {
		metrics.QueryWaitOutcomesTotal.WithLabelValues("timeout").Inc()
		c.log.Info("athena: query still running at max wait time", "query_execution_id", id, "state", exec.Status.State, "max_wait_time", in.MaxWaitTime)
		res["Timeout"] = true
		return res, nil
	}
	metrics.QueryWaitOutcomesTotal.WithLabelValues(string(exec.Status.State)).Inc()

	if exec.Status.State != types.QueryExecutionStateSucceeded {
		return res, nil
	}

	results, err := c.api.GetQueryResults(ctx, &awsathena.GetQueryResultsInput{
		QueryExecutionId: aws.String(id),
	})
	if err != nil {
		return nil, remoteError(id, fmt.Errorf("failed to get query results: %w", err))
	}
	resultsPayload, err := payload(results)
	if err != nil {
		return nil, remoteError(id, err)
	}
	res["Results"] = resultsPayload
	return res, nil
}

func (c *Client) wait(ctx context.Context, id string, interval, maxWait time.Duration) (*types.QueryExecution, bool, error) {
	start := c.clock.Now()
	for {
		out, err := c.api.GetQueryExecution(ctx, &awsathena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(id),
		})
		metrics.QueryStatusChecksTotal.Inc()
		if err != nil {
			return nil, false, remoteError(id, fmt.Errorf("failed to get query execution status: %w", err))
		}
		if out.QueryExecution == nil || out.QueryExecution.Status == nil {
			return nil, false, remoteError(id, fmt.Errorf("query execution status missing from response"))
		}

		exec := out.QueryExecution
		if isTerminal(exec.Status.State) {
			return exec, false, nil
		}
		if c.clock.Since(start)+interval >= maxWait {
			return exec, true, nil
		}

		c.log.Debug("athena: waiting for query", "query_execution_id", id, "state", exec.Status.State)
		select {
		case <-ctx.Done():
			return nil, false, &Error{
				Kind:             KindCanceled,
				QueryExecutionID: id,
				Err:              fmt.Errorf("wait for query execution interrupted: %w", ctx.Err()),
			}
		case <-c.clock.After(interval):
		}
	}
}
