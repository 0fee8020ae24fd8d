package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kube-reporting/cost-explorer/pkg/engine"
	mockengine "github.com/kube-reporting/cost-explorer/pkg/engine/mock"
)

func status(s engine.State) engine.Status {
	return engine.Status{State: s}
}

func testPolicy() engine.Policy {
	return engine.Policy{
		Interval:        time.Millisecond,
		MaxWait:         5 * time.Second,
		MaxStatusErrors: 2,
	}
}

func TestPollerWait(t *testing.T) {
	const id = "exec-1"
	statusErr := errors.New("throttled")

	tests := map[string]struct {
		policy   engine.Policy
		statuses []engine.Status
		errs     []error
		// stopped is true when StopQuery is expected
		stopped bool

		expectedState    engine.State
		expectedAttempts int
		check            func(t *testing.T, err error)
	}{
		"queued running running succeeded returns the execution": {
			policy:           testPolicy(),
			statuses:         []engine.Status{status(engine.StateQueued), status(engine.StateRunning), status(engine.StateRunning), status(engine.StateSucceeded)},
			expectedState:    engine.StateSucceeded,
			expectedAttempts: 4,
		},
		"failed surfaces the engine reason verbatim": {
			policy:           testPolicy(),
			statuses:         []engine.Status{status(engine.StateRunning), {State: engine.StateFailed, Reason: "X"}},
			expectedState:    engine.StateFailed,
			expectedAttempts: 2,
			check: func(t *testing.T, err error) {
				var failure *engine.ExecutionFailure
				require.True(t, errors.As(err, &failure))
				assert.Equal(t, engine.StateFailed, failure.State)
				assert.Equal(t, "X", failure.Reason)
				assert.Equal(t, id, failure.ExecutionID)
			},
		},
		"cancelled is an execution failure": {
			policy:           testPolicy(),
			statuses:         []engine.Status{{State: engine.StateCancelled, Reason: "user cancelled"}},
			expectedState:    engine.StateCancelled,
			expectedAttempts: 1,
			check: func(t *testing.T, err error) {
				var failure *engine.ExecutionFailure
				require.True(t, errors.As(err, &failure))
				assert.Equal(t, "user cancelled", failure.Reason)
			},
		},
		"access denied reason is classified as a permission failure": {
			policy:           testPolicy(),
			statuses:         []engine.Status{{State: engine.StateFailed, Reason: "Access denied when writing output to url: s3://out/"}},
			expectedState:    engine.StateFailed,
			expectedAttempts: 1,
			check: func(t *testing.T, err error) {
				assert.True(t, engine.IsAccessDenied(err))
				assert.Equal(t, "permission", engine.Class(err))
			},
		},
		"exceeding max attempts is a timeout": {
			policy: engine.Policy{
				Interval:    time.Millisecond,
				MaxAttempts: 3,
			},
			statuses:         []engine.Status{status(engine.StateRunning), status(engine.StateRunning), status(engine.StateRunning)},
			expectedState:    engine.StateRunning,
			expectedAttempts: 3,
			check: func(t *testing.T, err error) {
				var timeout *engine.TimeoutError
				require.True(t, errors.As(err, &timeout))
				assert.Equal(t, 3, timeout.Attempts)
			},
		},
		"exceeding max attempts stops the query when configured": {
			policy: engine.Policy{
				Interval:     time.Millisecond,
				MaxAttempts:  2,
				StopOnCancel: true,
			},
			statuses:         []engine.Status{status(engine.StateQueued), status(engine.StateRunning)},
			stopped:          true,
			expectedState:    engine.StateRunning,
			expectedAttempts: 2,
			check: func(t *testing.T, err error) {
				assert.Equal(t, "timeout", engine.Class(err))
			},
		},
		"transient status errors are retried": {
			policy:           testPolicy(),
			statuses:         []engine.Status{{}, {}, status(engine.StateSucceeded)},
			errs:             []error{statusErr, statusErr, nil},
			expectedState:    engine.StateSucceeded,
			expectedAttempts: 3,
		},
		"too many consecutive status errors is a status error": {
			policy:           testPolicy(),
			statuses:         []engine.Status{{}, {}, {}},
			errs:             []error{statusErr, statusErr, statusErr},
			expectedAttempts: 3,
			check: func(t *testing.T, err error) {
				var se *engine.StatusError
				require.True(t, errors.As(err, &se))
				assert.True(t, errors.Is(err, statusErr))
				assert.Equal(t, "status", engine.Class(err))
			},
		},
	}

	for testName, tt := range tests {
		testName := testName
		tt := tt
		t.Run(testName, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mock := mockengine.NewMockEngine(ctrl)
			var calls []*gomock.Call
			for i, s := range tt.statuses {
				var err error
				if i < len(tt.errs) {
					err = tt.errs[i]
				}
				calls = append(calls, mock.EXPECT().GetQueryStatus(gomock.Any(), id).Return(s, err))
			}
			gomock.InOrder(calls...)
			if tt.stopped {
				mock.EXPECT().StopQuery(gomock.Any(), id).Return(nil)
			}

			poller := engine.NewPoller(logrus.New(), mock, tt.policy)
			exec, err := poller.Wait(context.Background(), engine.Handle{ID: id})
			require.NotNil(t, exec)
			assert.Equal(t, tt.expectedState, exec.Status.State)
			assert.Equal(t, tt.expectedAttempts, exec.Attempts)
			if tt.check == nil {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				tt.check(t, err)
			}
		})
	}
}

func TestPollerWaitMaxWait(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := mockengine.NewMockEngine(ctrl)
	mock.EXPECT().GetQueryStatus(gomock.Any(), "slow").Return(status(engine.StateRunning), nil).MinTimes(1)
	mock.EXPECT().StopQuery(gomock.Any(), "slow").Return(nil)

	poller := engine.NewPoller(logrus.New(), mock, engine.Policy{
		Interval:     5 * time.Millisecond,
		MaxWait:      50 * time.Millisecond,
		StopOnCancel: true,
	})
	_, err := poller.Wait(context.Background(), engine.Handle{ID: "slow"})

	var timeout *engine.TimeoutError
	require.True(t, errors.As(err, &timeout), "expected a timeout, got %v", err)
	assert.Equal(t, "slow", timeout.ExecutionID)
	assert.True(t, timeout.Waited >= 50*time.Millisecond)
}

func TestPollerWaitContextCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mock := mockengine.NewMockEngine(ctrl)
	mock.EXPECT().GetQueryStatus(gomock.Any(), "superseded").DoAndReturn(func(context.Context, string) (engine.Status, error) {
		cancel()
		return status(engine.StateRunning), nil
	})
	mock.EXPECT().GetQueryStatus(gomock.Any(), "superseded").Return(status(engine.StateRunning), nil).AnyTimes()
	mock.EXPECT().StopQuery(gomock.Any(), "superseded").Return(errors.New("already finished"))

	poller := engine.NewPoller(logrus.New(), mock, engine.Policy{
		Interval:     time.Millisecond,
		MaxWait:      time.Minute,
		StopOnCancel: true,
	})
	_, err := poller.Wait(ctx, engine.Handle{ID: "superseded"})
	assert.Equal(t, context.Canceled, err)
}
