package aws

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/athena"
	"github.com/aws/aws-sdk-go/service/athena/athenaiface"
	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/cost-explorer/pkg/engine"
)

// maxResultsPerPage is the largest page GetQueryResults accepts.
const maxResultsPerPage = 1000

// Athena runs queries with Amazon Athena.
type Athena struct {
	api       athenaiface.AthenaAPI
	workGroup string
	logger    log.FieldLogger
}

var _ engine.Engine = (*Athena)(nil)

func NewAthena(logger log.FieldLogger, api athenaiface.AthenaAPI, workGroup string) *Athena {
	return &Athena{
		api:       api,
		workGroup: workGroup,
		logger:    logger.WithField("component", "athena"),
	}
}

func (a *Athena) StartQuery(ctx context.Context, query, outputLocation string) (string, error) {
	input := &athena.StartQueryExecutionInput{
		QueryString: aws.String(query),
		ResultConfiguration: &athena.ResultConfiguration{
			OutputLocation: aws.String(outputLocation),
		},
	}
	if a.workGroup != "" {
		input.WorkGroup = aws.String(a.workGroup)
	}
	out, err := a.api.StartQueryExecutionWithContext(ctx, input)
	if err != nil {
		return "", wrapError("start query execution", err)
	}
	return aws.StringValue(out.QueryExecutionId), nil
}

func (a *Athena) GetQueryStatus(ctx context.Context, executionID string) (engine.Status, error) {
	out, err := a.api.GetQueryExecutionWithContext(ctx, &athena.GetQueryExecutionInput{
		QueryExecutionId: aws.String(executionID),
	})
	if err != nil {
		return engine.Status{}, wrapError("get query execution", err)
	}
	if out.QueryExecution == nil || out.QueryExecution.Status == nil {
		return engine.Status{}, wrapError("get query execution", errMissingStatus)
	}
	status := out.QueryExecution.Status
	state, err := engine.ParseState(aws.StringValue(status.State))
	if err != nil {
		return engine.Status{}, err
	}
	return engine.Status{State: state, Reason: aws.StringValue(status.StateChangeReason)}, nil
}

// GetQueryResults reads every page of the results. Athena returns the
// header as the first row of SELECT results.
func (a *Athena) GetQueryResults(ctx context.Context, executionID string) (*engine.ResultSet, error) {
	rs := &engine.ResultSet{}
	err := a.api.GetQueryResultsPagesWithContext(ctx, &athena.GetQueryResultsInput{
		QueryExecutionId: aws.String(executionID),
		MaxResults:       aws.Int64(maxResultsPerPage),
	}, func(page *athena.GetQueryResultsOutput, lastPage bool) bool {
		if page.ResultSet == nil {
			return true
		}
		for _, row := range page.ResultSet.Rows {
			cells := make([]engine.Cell, len(row.Data))
			for i, datum := range row.Data {
				if datum != nil && datum.VarCharValue != nil {
					cells[i] = engine.NewCell(*datum.VarCharValue)
				}
			}
			rs.Rows = append(rs.Rows, cells)
		}
		return true
	})
	if err != nil {
		return nil, wrapError("get query results", err)
	}
	a.logger.WithField("executionID", executionID).Debugf("fetched %d result rows", len(rs.Rows))
	return rs, nil
}

func (a *Athena) StopQuery(ctx context.Context, executionID string) error {
	_, err := a.api.StopQueryExecutionWithContext(ctx, &athena.StopQueryExecutionInput{
		QueryExecutionId: aws.String(executionID),
	})
	return wrapError("stop query execution", err)
}
