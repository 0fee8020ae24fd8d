package explorer

import (
	"errors"
	"net/http"

	"github.com/kube-reporting/cost-explorer/pkg/engine"
	"github.com/kube-reporting/cost-explorer/pkg/provision"
	"github.com/kube-reporting/cost-explorer/pkg/targets"
)

var (
	// ErrNoData is returned when a new target's billing location holds no
	// data. Nothing is saved.
	ErrNoData = errors.New("no billing data found at the target's input location")
	// ErrNoSelection is returned for dashboard reads before any target was
	// selected.
	ErrNoSelection = errors.New("no target is selected")
	// ErrPending is returned while the selected target's pipeline runs.
	ErrPending = errors.New("the selected target's billing data is still loading")
)

// invalidError marks errors caused by the request content.
type invalidError struct {
	err error
}

func (e *invalidError) Error() string { return e.err.Error() }

func (e *invalidError) Unwrap() error { return e.err }

// statusCode maps service errors onto HTTP status codes.
func statusCode(err error) int {
	var (
		invalid    *invalidError
		permission *provision.PermissionError
		setup      *provision.SetupError
		submission *engine.SubmissionError
		failure    *engine.ExecutionFailure
		timeout    *engine.TimeoutError
		fetch      *engine.ResultFetchError
		status     *engine.StatusError
	)
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.Is(err, targets.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, targets.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNoSelection):
		return http.StatusConflict
	case errors.Is(err, ErrPending):
		return http.StatusAccepted
	case errors.As(err, &permission), engine.IsAccessDenied(err):
		return http.StatusForbidden
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &setup), errors.As(err, &submission), errors.As(err, &failure),
		errors.As(err, &fetch), errors.As(err, &status):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
