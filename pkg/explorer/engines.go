package explorer

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/cost-explorer/pkg/aws"
	"github.com/kube-reporting/cost-explorer/pkg/db"
	"github.com/kube-reporting/cost-explorer/pkg/engine"
	"github.com/kube-reporting/cost-explorer/pkg/pipeline"
	"github.com/kube-reporting/cost-explorer/pkg/presto"
	"github.com/kube-reporting/cost-explorer/pkg/provision"
	"github.com/kube-reporting/cost-explorer/pkg/targets"
)

// EngineFactory builds the query clients used for one target.
type EngineFactory interface {
	// Client returns a query client authenticated as t.
	Client(t targets.Target) (*engine.Client, error)
	// Checker returns the storage location checker of t, or nil when
	// locations are not checked.
	Checker(t targets.Target) (provision.LocationChecker, error)
}

// FactoryFunc adapts a function returning an engine to an EngineFactory
// without location checks.
type FactoryFunc func(t targets.Target) (engine.Engine, error)

type funcFactory struct {
	newEngine  FactoryFunc
	policy     engine.Policy
	logQueries bool
	logger     log.FieldLogger
}

// NewEngineFactory returns an EngineFactory polling engines from
// newEngine with policy.
func NewEngineFactory(logger log.FieldLogger, newEngine FactoryFunc, policy engine.Policy, logQueries bool) EngineFactory {
	return &funcFactory{newEngine: newEngine, policy: policy, logQueries: logQueries, logger: logger}
}

func (f *funcFactory) Client(t targets.Target) (*engine.Client, error) {
	e, err := f.newEngine(t)
	if err != nil {
		return nil, err
	}
	return engine.NewClient(f.logger, e, f.policy, f.logQueries), nil
}

func (f *funcFactory) Checker(targets.Target) (provision.LocationChecker, error) {
	return nil, nil
}

type athenaFactory struct {
	opts       aws.Options
	check      bool
	policy     engine.Policy
	logQueries bool
	logger     log.FieldLogger
}

func (f *athenaFactory) Client(t targets.Target) (*engine.Client, error) {
	clients, err := aws.NewClients(f.logger, t, f.opts)
	if err != nil {
		return nil, err
	}
	return engine.NewClient(f.logger, clients.Athena, f.policy, f.logQueries), nil
}

func (f *athenaFactory) Checker(t targets.Target) (provision.LocationChecker, error) {
	if !f.check {
		return nil, nil
	}
	clients, err := aws.NewClients(f.logger, t, f.opts)
	if err != nil {
		return nil, err
	}
	return clients.Checker, nil
}

// newEngineFactory builds the factory for cfg.Engine. The returned close
// function releases shared connections.
func newEngineFactory(ctx context.Context, logger log.FieldLogger, cfg Config) (EngineFactory, func() error, error) {
	switch cfg.Engine {
	case EngineAthena:
		return &athenaFactory{
			opts:       aws.Options{WorkGroup: cfg.AthenaWorkGroup, Endpoint: cfg.AWSEndpoint},
			check:      cfg.CheckLocations,
			policy:     cfg.Poll,
			logQueries: cfg.LogQueries,
			logger:     logger,
		}, func() error { return nil }, nil
	case EnginePresto:
		connStr := fmt.Sprintf("http://%s@%s?catalog=hive&schema=default", cfg.PrestoUser, cfg.PrestoHost)
		conn, err := presto.NewPrestoConnWithRetry(ctx, logger, connStr, connBackoff, maxConnRetries)
		if err != nil {
			return nil, nil, err
		}
		// Presto credentials are configured on the server, so every target
		// shares one engine.
		prestoEngine := presto.NewEngine(logger, db.NewLoggingQueryer(conn, logger, cfg.LogQueries))
		factory := NewEngineFactory(logger, func(targets.Target) (engine.Engine, error) {
			return prestoEngine, nil
		}, cfg.Poll, cfg.LogQueries)
		return factory, prestoEngine.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown engine %q", cfg.Engine)
	}
}

// runnerFactory adapts f for the pipeline.
func runnerFactory(f EngineFactory) pipeline.RunnerFactory {
	return func(t targets.Target) (pipeline.QueryRunner, error) {
		client, err := f.Client(t)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
