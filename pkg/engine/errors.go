package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrAccessDenied is wrapped by engine adapters when the engine or the
	// storage behind it rejects a call for lack of permissions.
	ErrAccessDenied = errors.New("access denied")

	// ErrLocationNotFound is wrapped by engine adapters when a storage
	// location does not exist.
	ErrLocationNotFound = errors.New("location not found")

	errEmptyQuery = errors.New("query text is empty")
)

// SubmissionError is returned when the engine rejects a query at submit
// time.
type SubmissionError struct {
	Query string
	Err   error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("query submission rejected: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ExecutionFailure is returned when an execution reaches FAILED or
// CANCELLED. Reason is the engine's reason string, unmodified.
type ExecutionFailure struct {
	ExecutionID string
	State       State
	Reason      string
}

func (e *ExecutionFailure) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("query %s %s", e.ExecutionID, strings.ToLower(string(e.State)))
	}
	return fmt.Sprintf("query %s %s: %s", e.ExecutionID, strings.ToLower(string(e.State)), e.Reason)
}

// TimeoutError is returned when polling exceeds the wait budget.
type TimeoutError struct {
	ExecutionID string
	Waited      time.Duration
	Attempts    int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for query %s after %s (%d status checks)", e.ExecutionID, e.Waited.Round(time.Millisecond), e.Attempts)
}

// ResultFetchError is returned when fetching results of a succeeded
// execution fails.
type ResultFetchError struct {
	ExecutionID string
	Err         error
}

func (e *ResultFetchError) Error() string {
	return fmt.Sprintf("failed to fetch results for query %s: %v", e.ExecutionID, e.Err)
}

func (e *ResultFetchError) Unwrap() error { return e.Err }

// StatusError is returned when the status endpoint keeps failing while a
// query is being polled.
type StatusError struct {
	ExecutionID string
	Err         error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to get status of query %s: %v", e.ExecutionID, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

var accessDeniedPatterns = []string{
	"access denied",
	"accessdenied",
	"not authorized",
	"unauthorized",
	"permission denied",
	"insufficient permissions",
	"insufficient lake formation permission",
	"forbidden",
}

// IsAccessDenied reports whether err is an access denial, either wrapped
// with ErrAccessDenied or an ExecutionFailure whose reason reads like one.
func IsAccessDenied(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAccessDenied) {
		return true
	}
	var failure *ExecutionFailure
	if errors.As(err, &failure) {
		return ReasonIndicatesAccessDenied(failure.Reason)
	}
	return false
}

// ReasonIndicatesAccessDenied matches engine failure reasons that are
// caused by missing permissions.
func ReasonIndicatesAccessDenied(reason string) bool {
	reason = strings.ToLower(reason)
	for _, p := range accessDeniedPatterns {
		if strings.Contains(reason, p) {
			return true
		}
	}
	return false
}

// Class returns a short label for err used in metrics.
func Class(err error) string {
	var (
		submission *SubmissionError
		failure    *ExecutionFailure
		timeout    *TimeoutError
		fetch      *ResultFetchError
		status     *StatusError
	)
	switch {
	case err == nil:
		return ""
	case IsAccessDenied(err):
		return "permission"
	case errors.As(err, &submission):
		return "submission"
	case errors.As(err, &failure):
		return "execution"
	case errors.As(err, &timeout):
		return "timeout"
	case errors.As(err, &fetch):
		return "fetch"
	case errors.As(err, &status):
		return "status"
	default:
		return "other"
	}
}
