package engine

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Executor submits queries to an Engine without waiting for them.
type Executor struct {
	engine     Engine
	logger     log.FieldLogger
	logQueries bool
}

// NewExecutor returns an Executor submitting to engine.
func NewExecutor(logger log.FieldLogger, engine Engine, logQueries bool) *Executor {
	return &Executor{
		engine:     engine,
		logger:     logger.WithField("component", "executor"),
		logQueries: logQueries,
	}
}

// Submit starts query and returns its handle. Any rejection by the engine
// is returned as a *SubmissionError. Submit does not retry.
func (e *Executor) Submit(ctx context.Context, query, outputLocation string) (Handle, error) {
	if strings.TrimSpace(query) == "" {
		err := &SubmissionError{Query: query, Err: errEmptyQuery}
		recordFailure(err)
		return Handle{}, err
	}
	if e.logQueries {
		e.logger.Debugf("QUERY: %s [output: %s]", query, outputLocation)
	}
	id, err := e.engine.StartQuery(ctx, query, outputLocation)
	if err != nil {
		subErr := &SubmissionError{Query: query, Err: err}
		recordFailure(subErr)
		return Handle{}, subErr
	}
	queriesSubmittedCounter.Inc()
	e.logger.WithField("executionID", id).Debugf("query submitted")
	return Handle{
		ID:             id,
		Query:          query,
		OutputLocation: outputLocation,
	}, nil
}
