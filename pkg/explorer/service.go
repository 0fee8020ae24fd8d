package explorer

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/kube-reporting/cost-explorer/pkg/aggregate"
	"github.com/kube-reporting/cost-explorer/pkg/billing"
	"github.com/kube-reporting/cost-explorer/pkg/pipeline"
	"github.com/kube-reporting/cost-explorer/pkg/provision"
	"github.com/kube-reporting/cost-explorer/pkg/targets"
)

// DashboardResult is the dashboard of the selected target.
type DashboardResult struct {
	ProjectID   string              `json:"projectId"`
	TargetName  string              `json:"targetName"`
	Generation  uint64              `json:"generation"`
	CompletedAt time.Time           `json:"completedAt"`
	Diagnostics billing.Diagnostics `json:"diagnostics"`
	aggregate.Dashboard
}

// Service manages targets and serves the dashboard of the selected one.
type Service struct {
	repo     *targets.Repository
	engines  EngineFactory
	database string
	pipeline *pipeline.Pipeline
	selector *pipeline.Selector
	loc      *time.Location
	logger   log.FieldLogger

	dashboards singleflight.Group
}

func NewService(logger log.FieldLogger, repo *targets.Repository, engines EngineFactory, cfg Config) *Service {
	cfg.setDefaults()
	p := pipeline.NewPipeline(logger, runnerFactory(engines), cfg.pipelineConfig())
	return &Service{
		repo:     repo,
		engines:  engines,
		database: cfg.Database,
		pipeline: p,
		selector: pipeline.NewSelector(logger, p.Run),
		loc:      cfg.Location,
		logger:   logger.WithField("component", "service"),
	}
}

func (s *Service) provisioner(t targets.Target) (*provision.Provisioner, error) {
	client, err := s.engines.Client(t)
	if err != nil {
		return nil, fmt.Errorf("unable to create query engine for target %s: %w", t.Name, err)
	}
	checker, err := s.engines.Checker(t)
	if err != nil {
		return nil, fmt.Errorf("unable to create location checker for target %s: %w", t.Name, err)
	}
	return provision.NewProvisioner(s.logger, client, checker, s.database), nil
}

func (s *Service) ListTargets(ctx context.Context, projectID string) ([]targets.Target, error) {
	return s.repo.List(ctx, projectID)
}

// RegisterTarget provisions the billing table of a new target and stores
// it. A target whose input location holds no data is not stored and
// ErrNoData is returned.
func (s *Service) RegisterTarget(ctx context.Context, projectID string, t targets.Target) (targets.Target, error) {
	t.ProjectID = projectID
	if err := t.Validate(); err != nil {
		return targets.Target{}, &invalidError{err}
	}
	if _, err := s.repo.Lookup(ctx, projectID, t.Name); err == nil {
		return targets.Target{}, fmt.Errorf("%w: %s in project %s", targets.ErrAlreadyExists, t.Name, projectID)
	} else if !errors.Is(err, targets.ErrNotFound) {
		return targets.Target{}, err
	}

	p, err := s.provisioner(t)
	if err != nil {
		return targets.Target{}, err
	}
	outcome, err := p.Provision(ctx, t, provision.ModeAdd)
	if err != nil {
		return targets.Target{}, err
	}
	if outcome == provision.OutcomeNoData {
		return targets.Target{}, ErrNoData
	}
	if err := s.repo.Save(ctx, projectID, t); err != nil {
		return targets.Target{}, err
	}
	return t, nil
}

// EditTarget applies u to a target and rebuilds its billing table. When
// provisioning fails the table is rebuilt from the previous configuration
// and the stored target is left unchanged.
func (s *Service) EditTarget(ctx context.Context, projectID, name string, u targets.Update) (targets.Target, error) {
	if u.Empty() {
		return targets.Target{}, &invalidError{errors.New("no fields to update")}
	}
	prev, err := s.repo.Lookup(ctx, projectID, name)
	if err != nil {
		return targets.Target{}, err
	}
	next := prev.Apply(u)
	if err := next.Validate(); err != nil {
		return targets.Target{}, &invalidError{err}
	}

	logger := s.logger.WithFields(log.Fields{"project": projectID, "target": name})
	p, err := s.provisioner(next)
	if err != nil {
		return targets.Target{}, err
	}
	if _, err := p.Provision(ctx, next, provision.ModeEdit); err != nil {
		logger.WithError(err).Warnf("provisioning the new configuration failed, restoring the previous one")
		s.restore(ctx, logger, prev)
		return targets.Target{}, err
	}
	if err := s.repo.Update(ctx, projectID, name, u); err != nil {
		return targets.Target{}, err
	}

	if selected, _, ok := s.selector.Selected(); ok && selected.ProjectID == projectID && selected.Name == name {
		s.selector.Select(next)
	}
	return next, nil
}

func (s *Service) restore(ctx context.Context, logger log.FieldLogger, prev targets.Target) {
	p, err := s.provisioner(prev)
	if err == nil {
		_, err = p.Provision(ctx, prev, provision.ModeEdit)
	}
	if err != nil {
		logger.WithError(err).Errorf("unable to restore the billing table of the previous configuration")
	}
}

// DeleteTarget removes a target from the store. Its billing table is kept.
func (s *Service) DeleteTarget(ctx context.Context, projectID, name string) error {
	if err := s.repo.Delete(ctx, projectID, name); err != nil {
		return err
	}
	s.selector.Deselect(projectID, name)
	return nil
}

// SelectTarget starts loading the billing records of a target, replacing
// any previous selection. It returns the selection's generation.
func (s *Service) SelectTarget(ctx context.Context, projectID, name string) (uint64, error) {
	t, err := s.repo.Lookup(ctx, projectID, name)
	if err != nil {
		return 0, err
	}
	return s.selector.Select(t), nil
}

// WaitForSelection blocks until the current selection has a result or ctx
// is done.
func (s *Service) WaitForSelection(ctx context.Context) {
	if _, gen, ok := s.selector.Selected(); ok {
		s.selector.Wait(ctx, gen)
	}
}

// Refresh reloads the selected target.
func (s *Service) Refresh() {
	if gen, ok := s.selector.Refresh(); ok {
		s.logger.WithField("generation", gen).Infof("refreshing the selected target")
	}
}

// Dashboard returns the views of the selected target's records filtered
// by criteria. It returns ErrNoSelection or ErrPending when there is
// nothing to show yet, and the pipeline's error when it failed.
func (s *Service) Dashboard(ctx context.Context, criteria aggregate.Criteria) (*DashboardResult, error) {
	res, selected, ready := s.selector.State()
	if !selected {
		return nil, ErrNoSelection
	}
	if !ready {
		return nil, ErrPending
	}
	if res.Err != nil {
		return nil, res.Err
	}

	key := fmt.Sprintf("%d/%+v", res.Generation, criteria)
	v, _, _ := s.dashboards.Do(key, func() (interface{}, error) {
		return aggregate.Build(res.Records, criteria, s.loc), nil
	})
	return &DashboardResult{
		ProjectID:   res.ProjectID,
		TargetName:  res.TargetName,
		Generation:  res.Generation,
		CompletedAt: res.CompletedAt,
		Diagnostics: res.Diagnostics,
		Dashboard:   v.(aggregate.Dashboard),
	}, nil
}

// Ready reports whether the credential store can be read.
func (s *Service) Ready(ctx context.Context) error {
	_, err := s.repo.List(ctx, "")
	return err
}

// Close cancels the running pipeline.
func (s *Service) Close() {
	s.selector.Close()
}
