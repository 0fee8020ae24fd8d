package pipeline

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/cost-explorer/pkg/billing"
	"github.com/kube-reporting/cost-explorer/pkg/engine"
	"github.com/kube-reporting/cost-explorer/pkg/hive"
	"github.com/kube-reporting/cost-explorer/pkg/provision"
	"github.com/kube-reporting/cost-explorer/pkg/targets"
)

// Config parameterizes the billing query pipeline.
type Config struct {
	Database string
	Columns  billing.ColumnMapping
	// Lookback limits the query to records ending within this long before
	// now. Zero queries everything.
	Lookback time.Duration
	// Limit caps the number of rows fetched. Zero means no limit.
	Limit int
}

// QueryRunner runs a query and returns its results.
type QueryRunner interface {
	Query(ctx context.Context, query, outputLocation string) (*engine.ResultSet, error)
}

// RunnerFactory returns a QueryRunner using the credentials of a target.
type RunnerFactory func(t targets.Target) (QueryRunner, error)

// Pipeline queries the billing table of a target and materializes the
// results.
type Pipeline struct {
	newRunner    RunnerFactory
	materializer *billing.Materializer
	cfg          Config
	logger       log.FieldLogger
	now          func() time.Time
}

func NewPipeline(logger log.FieldLogger, newRunner RunnerFactory, cfg Config) *Pipeline {
	if cfg.Database == "" {
		cfg.Database = provision.DefaultDatabase
	}
	cfg.Columns = cfg.Columns.WithDefaults()
	return &Pipeline{
		newRunner:    newRunner,
		materializer: billing.NewMaterializer(logger, cfg.Columns),
		cfg:          cfg,
		logger:       logger.WithField("component", "pipeline"),
		now:          time.Now,
	}
}

// Query returns the billing query for t.
func (p *Pipeline) Query(t targets.Target) (string, error) {
	params := billing.QueryParameters{
		Table:   hive.TableName(hive.SanitizeIdentifier(p.cfg.Database), provision.TableName(t)),
		Columns: p.cfg.Columns,
		Limit:   p.cfg.Limit,
	}
	if p.cfg.Lookback > 0 {
		start := p.now().Add(-p.cfg.Lookback).UTC().Truncate(24 * time.Hour)
		params.Start = &start
	}
	return billing.RenderCostQuery(params)
}

// Run queries the billing records of t. Run blocks until the query
// finishes or ctx is done.
func (p *Pipeline) Run(ctx context.Context, t targets.Target) ([]billing.Record, billing.Diagnostics, error) {
	logger := p.logger.WithFields(log.Fields{"project": t.ProjectID, "target": t.Name})
	query, err := p.Query(t)
	if err != nil {
		return nil, billing.Diagnostics{}, err
	}
	runner, err := p.newRunner(t)
	if err != nil {
		return nil, billing.Diagnostics{}, fmt.Errorf("unable to create query engine for target %s: %w", t.Name, err)
	}

	start := p.now()
	rs, err := runner.Query(ctx, query, t.OutputLocation)
	if err != nil {
		return nil, billing.Diagnostics{}, err
	}
	records, diag := p.materializer.Materialize(rs)
	logger.Infof("materialized %d billing records in %s", len(records), p.now().Sub(start))
	return records, diag, nil
}
