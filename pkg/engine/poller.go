package engine

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/wait"
)

const (
	DefaultPollInterval    = time.Second
	DefaultMaxWait         = 5 * time.Minute
	DefaultMaxStatusErrors = 3

	stopQueryTimeout = 10 * time.Second
)

var errAttemptsExceeded = errors.New("maximum status checks exceeded")

// Policy bounds how long a Poller waits for a query.
type Policy struct {
	// Interval between status checks.
	Interval time.Duration
	// MaxWait is the wall-clock budget for one query. Zero means no limit.
	MaxWait time.Duration
	// MaxAttempts limits the number of status checks. Zero means no limit.
	MaxAttempts int
	// MaxStatusErrors is how many consecutive status call failures are
	// tolerated before giving up.
	MaxStatusErrors int
	// StopOnCancel asks the engine to stop a query whose wait was
	// cancelled or timed out.
	StopOnCancel bool
}

// DefaultPolicy polls every second for up to five minutes.
func DefaultPolicy() Policy {
	return Policy{
		Interval:        DefaultPollInterval,
		MaxWait:         DefaultMaxWait,
		MaxStatusErrors: DefaultMaxStatusErrors,
		StopOnCancel:    true,
	}
}

// Poller waits for submitted queries to reach a terminal state.
type Poller struct {
	engine Engine
	policy Policy
	logger log.FieldLogger
}

// NewPoller returns a Poller checking engine according to policy.
func NewPoller(logger log.FieldLogger, engine Engine, policy Policy) *Poller {
	if policy.Interval <= 0 {
		policy.Interval = DefaultPollInterval
	}
	if policy.MaxStatusErrors < 0 {
		policy.MaxStatusErrors = 0
	}
	return &Poller{
		engine: engine,
		policy: policy,
		logger: logger.WithField("component", "poller"),
	}
}

// Wait polls the execution identified by h until it is terminal.
//
// A SUCCEEDED execution is returned with a nil error. FAILED and CANCELLED
// executions return an *ExecutionFailure carrying the engine's reason.
// Exceeding the policy's budget returns a *TimeoutError. If ctx is
// cancelled, ctx.Err() is returned.
func (p *Poller) Wait(ctx context.Context, h Handle) (*QueryExecution, error) {
	logger := p.logger.WithField("executionID", h.ID)
	exec := &QueryExecution{Handle: h}
	start := time.Now()

	var (
		waitCtx context.Context
		cancel  context.CancelFunc
	)
	if p.policy.MaxWait > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, p.policy.MaxWait)
	} else {
		waitCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	statusErrs := 0
	cond := func() (bool, error) {
		if p.policy.MaxAttempts > 0 && exec.Attempts >= p.policy.MaxAttempts {
			return false, errAttemptsExceeded
		}
		exec.Attempts++
		status, err := p.engine.GetQueryStatus(waitCtx, h.ID)
		if err != nil {
			if waitCtx.Err() != nil {
				// the stop channel is closed, let wait return
				return false, nil
			}
			statusErrs++
			if statusErrs > p.policy.MaxStatusErrors {
				return false, &StatusError{ExecutionID: h.ID, Err: err}
			}
			logger.WithError(err).Debugf("error getting query status, retrying (%d/%d)", statusErrs, p.policy.MaxStatusErrors)
			return false, nil
		}
		statusErrs = 0
		exec.Status = status
		logger.Debugf("query state: %s", status.State)
		switch status.State {
		case StateSucceeded:
			return true, nil
		case StateFailed, StateCancelled:
			return false, &ExecutionFailure{
				ExecutionID: h.ID,
				State:       status.State,
				Reason:      status.Reason,
			}
		default:
			return false, nil
		}
	}

	err := wait.PollImmediateUntil(p.policy.Interval, cond, waitCtx.Done())
	waited := time.Since(start)
	queryWaitDurationHistogram.WithLabelValues(string(exec.Status.State)).Observe(waited.Seconds())

	switch {
	case err == nil:
		return exec, nil
	case err == errAttemptsExceeded:
		p.stop(logger, h)
		err = &TimeoutError{ExecutionID: h.ID, Waited: waited, Attempts: exec.Attempts}
	case err == wait.ErrWaitTimeout:
		p.stop(logger, h)
		if ctxErr := ctx.Err(); ctxErr != nil {
			logger.Debugf("stopped waiting for query: %v", ctxErr)
			return exec, ctxErr
		}
		err = &TimeoutError{ExecutionID: h.ID, Waited: waited, Attempts: exec.Attempts}
	}
	if failure, ok := err.(*ExecutionFailure); ok {
		logger.Errorf("query %s with reason: %s", failure.State, failure.Reason)
	}
	recordFailure(err)
	return exec, err
}

func (p *Poller) stop(logger log.FieldLogger, h Handle) {
	if !p.policy.StopOnCancel {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopQueryTimeout)
	defer cancel()
	if err := p.engine.StopQuery(ctx, h.ID); err != nil {
		logger.WithError(err).Warnf("unable to stop query")
	}
}
