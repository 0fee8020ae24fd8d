package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kube-reporting/cost-explorer/pkg/engine"
	mockengine "github.com/kube-reporting/cost-explorer/pkg/engine/mock"
)

func TestExecutorSubmit(t *testing.T) {
	rejected := errors.New("InvalidRequestException: line 1:8: mismatched input")

	tests := map[string]struct {
		query     string
		startID   string
		startErr  error
		expectRPC bool

		expectedErr string
	}{
		"valid query returns a handle": {
			query:     "SELECT 1",
			startID:   "exec-1",
			expectRPC: true,
		},
		"empty query is rejected without calling the engine": {
			query:       "  ",
			expectedErr: "query submission rejected: query text is empty",
		},
		"engine rejection is a submission error": {
			query:       "SELEC 1",
			startErr:    rejected,
			expectRPC:   true,
			expectedErr: fmt.Sprintf("query submission rejected: %v", rejected),
		},
	}

	for testName, tt := range tests {
		testName := testName
		tt := tt
		t.Run(testName, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mock := mockengine.NewMockEngine(ctrl)
			if tt.expectRPC {
				mock.EXPECT().StartQuery(gomock.Any(), tt.query, "s3://out/").Return(tt.startID, tt.startErr)
			}

			executor := engine.NewExecutor(logrus.New(), mock, true)
			h, err := executor.Submit(context.Background(), tt.query, "s3://out/")
			if tt.expectedErr == "" {
				require.NoError(t, err)
				assert.Equal(t, engine.Handle{ID: tt.startID, Query: tt.query, OutputLocation: "s3://out/"}, h)
				return
			}
			assert.EqualError(t, err, tt.expectedErr)
			var subErr *engine.SubmissionError
			assert.True(t, errors.As(err, &subErr), "expected a *SubmissionError")
			if tt.startErr != nil {
				assert.True(t, errors.Is(err, tt.startErr))
			}
		})
	}
}

func TestClientQuery(t *testing.T) {
	policy := engine.Policy{Interval: time.Millisecond, MaxWait: time.Second}
	results := &engine.ResultSet{Rows: [][]engine.Cell{
		{engine.NewCell("region")},
		{engine.NewCell("us-east-1")},
		{nil},
	}}

	t.Run("succeeded query fetches results", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mock := mockengine.NewMockEngine(ctrl)
		gomock.InOrder(
			mock.EXPECT().StartQuery(gomock.Any(), "SELECT region", "s3://out/").Return("q1", nil),
			mock.EXPECT().GetQueryStatus(gomock.Any(), "q1").Return(engine.Status{State: engine.StateRunning}, nil),
			mock.EXPECT().GetQueryStatus(gomock.Any(), "q1").Return(engine.Status{State: engine.StateSucceeded}, nil),
			mock.EXPECT().GetQueryResults(gomock.Any(), "q1").Return(results, nil),
		)

		client := engine.NewClient(logrus.New(), mock, policy, false)
		rs, err := client.Query(context.Background(), "SELECT region", "s3://out/")
		require.NoError(t, err)
		assert.Equal(t, []string{"region"}, rs.Header())
		require.Len(t, rs.DataRows(), 2)
		assert.Nil(t, rs.DataRows()[1][0])
	})

	t.Run("failed query never fetches results", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mock := mockengine.NewMockEngine(ctrl)
		mock.EXPECT().StartQuery(gomock.Any(), gomock.Any(), gomock.Any()).Return("q2", nil)
		mock.EXPECT().GetQueryStatus(gomock.Any(), "q2").Return(engine.Status{State: engine.StateFailed, Reason: "X"}, nil)
		mock.EXPECT().GetQueryResults(gomock.Any(), gomock.Any()).Times(0)

		client := engine.NewClient(logrus.New(), mock, policy, false)
		_, err := client.Query(context.Background(), "SELECT 1", "s3://out/")
		var failure *engine.ExecutionFailure
		require.True(t, errors.As(err, &failure))
		assert.Equal(t, "X", failure.Reason)
	})

	t.Run("fetch failure is a result fetch error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		fetchErr := errors.New("connection reset")
		mock := mockengine.NewMockEngine(ctrl)
		mock.EXPECT().StartQuery(gomock.Any(), gomock.Any(), gomock.Any()).Return("q3", nil)
		mock.EXPECT().GetQueryStatus(gomock.Any(), "q3").Return(engine.Status{State: engine.StateSucceeded}, nil)
		mock.EXPECT().GetQueryResults(gomock.Any(), "q3").Return(nil, fetchErr)

		client := engine.NewClient(logrus.New(), mock, policy, false)
		_, err := client.Query(context.Background(), "SELECT 1", "s3://out/")
		var rfe *engine.ResultFetchError
		require.True(t, errors.As(err, &rfe))
		assert.Equal(t, "q3", rfe.ExecutionID)
		assert.True(t, errors.Is(err, fetchErr))
		assert.Equal(t, "fetch", engine.Class(err))
	})
}

func TestParseState(t *testing.T) {
	tests := map[string]struct {
		in          string
		expected    engine.State
		expectedErr bool
	}{
		"queued":                 {in: "QUEUED", expected: engine.StateQueued},
		"lower case running":     {in: "running", expected: engine.StateRunning},
		"american cancellation":  {in: "CANCELED", expected: engine.StateCancelled},
		"british cancellation":   {in: "CANCELLED", expected: engine.StateCancelled},
		"unknown state is error": {in: "PAUSED", expectedErr: true},
	}
	for testName, tt := range tests {
		tt := tt
		t.Run(testName, func(t *testing.T) {
			s, err := engine.ParseState(tt.in)
			if tt.expectedErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s)
		})
	}
	assert.True(t, engine.StateFailed.Terminal())
	assert.False(t, engine.StateQueued.Terminal())
}

// releasingEngine records the executions a Client releases.
type releasingEngine struct {
	*mockengine.MockEngine
	released []string
}

func (r *releasingEngine) ReleaseQuery(executionID string) {
	r.released = append(r.released, executionID)
}

func TestClientReleasesUnfetchedExecutions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := mockengine.NewMockEngine(ctrl)
	e := &releasingEngine{MockEngine: mock}
	gomock.InOrder(
		mock.EXPECT().StartQuery(gomock.Any(), "CREATE DATABASE db", "").Return("q1", nil),
		mock.EXPECT().GetQueryStatus(gomock.Any(), "q1").Return(engine.Status{State: engine.StateSucceeded}, nil),
		mock.EXPECT().StartQuery(gomock.Any(), "SELECT 1", "").Return("q2", nil),
		mock.EXPECT().GetQueryStatus(gomock.Any(), "q2").Return(engine.Status{State: engine.StateSucceeded}, nil),
		mock.EXPECT().GetQueryResults(gomock.Any(), "q2").Return(&engine.ResultSet{}, nil),
	)

	client := engine.NewClient(logrus.New(), e, engine.Policy{Interval: time.Millisecond, MaxWait: time.Second}, false)
	_, err := client.Exec(context.Background(), "CREATE DATABASE db", "")
	require.NoError(t, err)
	_, err = client.Query(context.Background(), "SELECT 1", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"q1"}, e.released, "fetched executions are not released again")
}
