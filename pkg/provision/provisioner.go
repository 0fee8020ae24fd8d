package provision

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/cost-explorer/pkg/billing"
	"github.com/kube-reporting/cost-explorer/pkg/engine"
	"github.com/kube-reporting/cost-explorer/pkg/hive"
	"github.com/kube-reporting/cost-explorer/pkg/targets"
)

// DefaultDatabase is the database holding every billing table.
const DefaultDatabase = "cur_billing_data"

// verifyRowLimit bounds the verification query.
const verifyRowLimit = 3

type Mode string

const (
	// ModeAdd provisions a target for the first time.
	ModeAdd Mode = "add"
	// ModeEdit replaces the table of an existing target.
	ModeEdit Mode = "edit"
)

type Outcome string

const (
	OutcomeProvisioned Outcome = "provisioned"
	// OutcomeNoData means a new table was created but held no rows, so it
	// was dropped again.
	OutcomeNoData Outcome = "no_data"
)

var provisionsCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "cost_explorer",
		Name:      "provisions_total",
		Help:      "Number of target provisioning attempts, by result.",
	},
	[]string{"mode", "result"},
)

func init() {
	prometheus.MustRegister(provisionsCounter)
}

// QueryRunner runs a statement to completion. *engine.Client implements it.
type QueryRunner interface {
	Exec(ctx context.Context, query, outputLocation string) (*engine.QueryExecution, error)
	Query(ctx context.Context, query, outputLocation string) (*engine.ResultSet, error)
}

// LocationChecker verifies storage locations before any DDL runs.
type LocationChecker interface {
	CheckInput(ctx context.Context, location string) error
	CheckOutput(ctx context.Context, location string) error
}

// Provisioner creates the billing database and table for targets.
type Provisioner struct {
	runner   QueryRunner
	checker  LocationChecker
	database string
	logger   log.FieldLogger
}

// NewProvisioner returns a Provisioner that runs statements through runner.
// checker may be nil to skip location checks.
func NewProvisioner(logger log.FieldLogger, runner QueryRunner, checker LocationChecker, database string) *Provisioner {
	if database == "" {
		database = DefaultDatabase
	}
	return &Provisioner{
		runner:   runner,
		checker:  checker,
		database: hive.SanitizeIdentifier(database),
		logger:   logger.WithField("component", "provisioner"),
	}
}

// TableName returns the database qualified billing table of t.
func (p *Provisioner) TableName(t targets.Target) string {
	return hive.TableName(p.database, TableName(t))
}

// TableName returns the unqualified billing table name of t.
func TableName(t targets.Target) string {
	return hive.SanitizeIdentifier(t.Name)
}

// Provision ensures the billing database and the table of t exist. In
// edit mode the table is always dropped and recreated. A failing step
// aborts provisioning with a *PermissionError or *SetupError.
func (p *Provisioner) Provision(ctx context.Context, t targets.Target, mode Mode) (Outcome, error) {
	outcome, err := p.provision(ctx, t, mode)
	result := string(outcome)
	switch err.(type) {
	case nil:
	case *PermissionError:
		result = "permission_error"
	default:
		result = "setup_error"
	}
	provisionsCounter.WithLabelValues(string(mode), result).Inc()
	return outcome, err
}

func (p *Provisioner) provision(ctx context.Context, t targets.Target, mode Mode) (Outcome, error) {
	table := TableName(t)
	logger := p.logger.WithFields(log.Fields{"target": t.Name, "table": hive.TableName(p.database, table), "mode": mode})
	output := t.OutputLocation

	location, err := hive.NormalizeS3Location(t.InputLocation)
	if err != nil {
		return "", &SetupError{Step: StepCheckLocations, Err: err}
	}
	if p.checker != nil {
		if err := p.checker.CheckInput(ctx, location); err != nil {
			return "", classify(StepCheckLocations, err)
		}
		if err := p.checker.CheckOutput(ctx, output); err != nil {
			return "", classify(StepCheckLocations, err)
		}
		logger.Debugf("storage locations are reachable")
	}

	exec := func(step Step, query string) error {
		if _, err := p.runner.Exec(ctx, query, output); err != nil {
			return classify(step, err)
		}
		logger.Debugf("%s done", step)
		return nil
	}

	if err := exec(StepCheckDatabase, hive.GenerateShowDatabasesLikeSQL(p.database)); err != nil {
		return "", err
	}
	if err := exec(StepCreateDatabase, hive.GenerateCreateDatabaseSQL(hive.DatabaseParameters{Name: p.database}, true)); err != nil {
		return "", err
	}
	if mode == ModeEdit {
		if err := exec(StepDropTable, hive.GenerateDropTableSQL(p.database, table, true, false)); err != nil {
			return "", err
		}
	}

	params := hive.ParquetTable(p.database, table, location, billing.TableColumns())
	params.TableProperties = billing.TableProperties()
	if err := exec(StepCreateTable, hive.GenerateCreateTableSQL(params, false)); err != nil {
		return "", err
	}
	if err := exec(StepLoadPartitions, hive.GenerateRepairTableSQL(p.database, table)); err != nil {
		return "", err
	}

	rs, err := p.runner.Query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", hive.TableName(p.database, table), verifyRowLimit), output)
	if err != nil {
		return "", classify(StepVerifyData, err)
	}
	if len(rs.DataRows()) == 0 && mode == ModeAdd {
		logger.Warnf("no billing data found at %s, dropping table", location)
		if err := exec(StepDropTable, hive.GenerateDropTableSQL(p.database, table, true, false)); err != nil {
			return "", err
		}
		return OutcomeNoData, nil
	}
	logger.Infof("billing table provisioned")
	return OutcomeProvisioned, nil
}

func classify(step Step, err error) error {
	if engine.IsAccessDenied(err) {
		return &PermissionError{Step: step, RequiredPermissions: step.RequiredPermissions(), Err: err}
	}
	return &SetupError{Step: step, Err: err}
}
