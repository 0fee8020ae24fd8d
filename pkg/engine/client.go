package engine

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Client runs queries end to end: submit, wait for a terminal state and
// optionally fetch the results.
type Client struct {
	engine   Engine
	executor *Executor
	poller   *Poller
	logger   log.FieldLogger
}

// NewClient returns a Client running queries on engine, polled with policy.
func NewClient(logger log.FieldLogger, engine Engine, policy Policy, logQueries bool) *Client {
	return &Client{
		engine:   engine,
		executor: NewExecutor(logger, engine, logQueries),
		poller:   NewPoller(logger, engine, policy),
		logger:   logger,
	}
}

// Exec submits query and waits for it to succeed. It is used for
// statements whose results are not needed, such as DDL.
func (c *Client) Exec(ctx context.Context, query, outputLocation string) (*QueryExecution, error) {
	exec, err := c.run(ctx, query, outputLocation)
	if err != nil {
		return nil, err
	}
	c.release(exec.Handle.ID)
	return exec, nil
}

func (c *Client) run(ctx context.Context, query, outputLocation string) (*QueryExecution, error) {
	h, err := c.executor.Submit(ctx, query, outputLocation)
	if err != nil {
		return nil, err
	}
	return c.poller.Wait(ctx, h)
}

func (c *Client) release(executionID string) {
	if r, ok := c.engine.(Releaser); ok {
		r.ReleaseQuery(executionID)
	}
}

// Query submits query, waits for it to succeed and fetches its results.
// Results are only fetched for SUCCEEDED executions.
func (c *Client) Query(ctx context.Context, query, outputLocation string) (*ResultSet, error) {
	exec, err := c.run(ctx, query, outputLocation)
	if err != nil {
		return nil, err
	}
	rs, err := c.engine.GetQueryResults(ctx, exec.Handle.ID)
	if err != nil {
		c.release(exec.Handle.ID)
		fetchErr := &ResultFetchError{ExecutionID: exec.Handle.ID, Err: err}
		recordFailure(fetchErr)
		return nil, fetchErr
	}
	if rs == nil {
		rs = &ResultSet{}
	}
	c.logger.WithField("executionID", exec.Handle.ID).Debugf("fetched %d result rows", len(rs.DataRows()))
	return rs, nil
}
