package engine

import (
	"context"
	"fmt"
	"strings"
)

// State is the lifecycle state of a query execution as reported by the
// query engine.
type State string

const (
	StateQueued    State = "QUEUED"
	StateRunning   State = "RUNNING"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
	StateCancelled State = "CANCELLED"
)

// Terminal reports whether the engine will not transition out of s.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// ParseState maps an engine reported state onto a State. Engines spell
// cancellation differently, so both CANCELLED and CANCELED are accepted.
func ParseState(s string) (State, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "QUEUED":
		return StateQueued, nil
	case "RUNNING":
		return StateRunning, nil
	case "SUCCEEDED":
		return StateSucceeded, nil
	case "FAILED":
		return StateFailed, nil
	case "CANCELLED", "CANCELED":
		return StateCancelled, nil
	default:
		return "", fmt.Errorf("unknown query state %q", s)
	}
}

// Status is one observation of an execution's state.
type Status struct {
	State  State
	Reason string
}

// Cell is a single result value. A nil Cell is an engine null.
type Cell *string

// ResultSet is the raw tabular result of a query. Rows[0] is the header
// row; the engine does not separate header and data.
type ResultSet struct {
	Rows [][]Cell
}

// Header returns the column names of the result set, or nil if the result
// set is empty.
func (rs *ResultSet) Header() []string {
	if rs == nil || len(rs.Rows) == 0 {
		return nil
	}
	header := make([]string, len(rs.Rows[0]))
	for i, c := range rs.Rows[0] {
		if c != nil {
			header[i] = *c
		}
	}
	return header
}

// DataRows returns every row after the header.
func (rs *ResultSet) DataRows() [][]Cell {
	if rs == nil || len(rs.Rows) < 2 {
		return nil
	}
	return rs.Rows[1:]
}

// NewCell returns a non-null cell holding s.
func NewCell(s string) Cell {
	return &s
}

// Engine is an external batch query service with submit/poll/fetch
// semantics.
type Engine interface {
	StartQuery(ctx context.Context, query, outputLocation string) (string, error)
	GetQueryStatus(ctx context.Context, executionID string) (Status, error)
	GetQueryResults(ctx context.Context, executionID string) (*ResultSet, error)
	StopQuery(ctx context.Context, executionID string) error
}

// Releaser is implemented by engines that hold executions in memory until
// their outcome is collected. Client releases an execution whose results
// are not fetched.
type Releaser interface {
	ReleaseQuery(executionID string)
}

// Handle identifies one submitted query.
type Handle struct {
	ID             string
	Query          string
	OutputLocation string
}

// QueryExecution is the poller's view of a submitted query.
type QueryExecution struct {
	Handle   Handle
	Status   Status
	Attempts int
}
