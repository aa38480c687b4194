package athena

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

type ErrorKind string

const (
	// KindValidation errors are raised before any remote call.
	KindValidation ErrorKind = "validation"
	// KindRemote errors come from the Athena service or the SDK.
	KindRemote ErrorKind = "remote"
	// KindCanceled means the caller's context ended while waiting.
	KindCanceled ErrorKind = "canceled"
)

// Error is returned by every Client method. Once a query has been submitted
// its execution id is always attached so the caller can inspect or stop it.
type Error struct {
	Kind             ErrorKind
	Code             string
	QueryExecutionID string
	Err              error
}

func (e *Error) Error() string {
	if e.QueryExecutionID == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (query execution id: %s)", e.Err.Error(), e.QueryExecutionID)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func validationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Err: fmt.Errorf(format, args...)}
}

func remoteError(executionID string, err error) error {
	e := &Error{Kind: KindRemote, QueryExecutionID: executionID, Err: err}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		e.Code = apiErr.ErrorCode()
	}
	return e
}
