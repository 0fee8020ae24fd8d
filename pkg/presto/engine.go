package presto

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/cost-explorer/pkg/db"
	"github.com/kube-reporting/cost-explorer/pkg/engine"
)

var errUnknownExecution = errors.New("unknown query execution")

type execution struct {
	status engine.Status
	result *engine.ResultSet
	cancel context.CancelFunc
	// stopped and released executions are forgotten once they finish.
	stopped bool
}

// Engine runs queries against Presto. Presto answers queries synchronously,
// so each submitted query runs in its own goroutine and the engine keeps
// its state until the caller has observed the outcome.
type Engine struct {
	queryer db.Queryer
	logger  log.FieldLogger

	mu         sync.Mutex
	executions map[string]*execution
	wg         sync.WaitGroup
}

var (
	_ engine.Engine   = (*Engine)(nil)
	_ engine.Releaser = (*Engine)(nil)
)

func NewEngine(logger log.FieldLogger, queryer db.Queryer) *Engine {
	return &Engine{
		queryer:    queryer,
		logger:     logger.WithField("component", "presto"),
		executions: make(map[string]*execution),
	}
}

// StartQuery runs query in the background. Presto returns results
// directly, so outputLocation is ignored.
func (e *Engine) StartQuery(ctx context.Context, query, outputLocation string) (string, error) {
	id := uuid.New().String()
	runCtx, cancel := context.WithCancel(context.Background())
	exec := &execution{
		status: engine.Status{State: engine.StateQueued},
		cancel: cancel,
	}

	e.mu.Lock()
	e.executions[id] = exec
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()
		e.setStatus(id, engine.Status{State: engine.StateRunning}, nil)

		rs, err := ExecuteSelect(runCtx, e.queryer, query)
		switch {
		case err == nil:
			e.setStatus(id, engine.Status{State: engine.StateSucceeded}, rs)
		case runCtx.Err() != nil:
			e.setStatus(id, engine.Status{State: engine.StateCancelled, Reason: "query was stopped"}, nil)
		default:
			e.setStatus(id, engine.Status{State: engine.StateFailed, Reason: err.Error()}, nil)
		}
	}()
	return id, nil
}

func (e *Engine) setStatus(id string, status engine.Status, rs *engine.ResultSet) {
	e.mu.Lock()
	defer e.mu.Unlock()
	exec, ok := e.executions[id]
	if !ok || exec.status.State.Terminal() {
		return
	}
	exec.status = status
	exec.result = rs
	if exec.stopped && status.State.Terminal() {
		delete(e.executions, id)
	}
	e.logger.WithFields(log.Fields{"executionID": id, "state": status.State}).Debugf("query state changed")
}

// GetQueryStatus returns the state of an execution. Failed and cancelled
// executions are forgotten once their status has been returned.
func (e *Engine) GetQueryStatus(ctx context.Context, executionID string) (engine.Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	exec, ok := e.executions[executionID]
	if !ok {
		return engine.Status{}, fmt.Errorf("%w %s", errUnknownExecution, executionID)
	}
	status := exec.status
	if status.State == engine.StateFailed || status.State == engine.StateCancelled {
		delete(e.executions, executionID)
	}
	return status, nil
}

// GetQueryResults returns the results of a succeeded execution and
// forgets it.
func (e *Engine) GetQueryResults(ctx context.Context, executionID string) (*engine.ResultSet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	exec, ok := e.executions[executionID]
	if !ok {
		return nil, fmt.Errorf("%w %s", errUnknownExecution, executionID)
	}
	if exec.status.State != engine.StateSucceeded {
		return nil, fmt.Errorf("query %s has not succeeded, state is %s", executionID, exec.status.State)
	}
	delete(e.executions, executionID)
	return exec.result, nil
}

// ReleaseQuery forgets a finished execution. A running execution is
// forgotten as soon as it finishes.
func (e *Engine) ReleaseQuery(executionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	exec, ok := e.executions[executionID]
	if !ok {
		return
	}
	if exec.status.State.Terminal() {
		delete(e.executions, executionID)
		return
	}
	exec.stopped = true
}

func (e *Engine) StopQuery(ctx context.Context, executionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	exec, ok := e.executions[executionID]
	if !ok {
		return fmt.Errorf("%w %s", errUnknownExecution, executionID)
	}
	exec.stopped = true
	exec.cancel()
	return nil
}

// Close stops every running query and closes the connection.
func (e *Engine) Close() error {
	e.mu.Lock()
	for _, exec := range e.executions {
		exec.cancel()
	}
	e.mu.Unlock()
	e.wg.Wait()
	return e.queryer.Close()
}
