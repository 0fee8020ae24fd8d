package pipeline

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/cost-explorer/pkg/billing"
	"github.com/kube-reporting/cost-explorer/pkg/targets"
)

// RunFunc produces the records of a target. *Pipeline.Run is one.
type RunFunc func(ctx context.Context, t targets.Target) ([]billing.Record, billing.Diagnostics, error)

// Result is the outcome of one selection.
type Result struct {
	Generation  uint64
	ProjectID   string
	TargetName  string
	Records     []billing.Record
	Diagnostics billing.Diagnostics
	Err         error
	CompletedAt time.Time
}

// Selector runs the pipeline for the selected target. Each selection gets
// a new generation; selecting again cancels the previous run and any
// result that arrives for an older generation is discarded.
type Selector struct {
	run    RunFunc
	logger log.FieldLogger

	mu         sync.Mutex
	generation uint64
	selected   *targets.Target
	cancel     context.CancelFunc
	current    *Result
	// done is closed when the current generation has a result or is
	// superseded.
	done       chan struct{}
	doneClosed bool

	wg sync.WaitGroup
}

func NewSelector(logger log.FieldLogger, run RunFunc) *Selector {
	return &Selector{
		run:    run,
		logger: logger.WithField("component", "selector"),
	}
}

// Select makes t the current selection and starts its pipeline. It returns
// the generation of the new selection.
func (s *Selector) Select(t targets.Target) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.finish()
	s.generation++
	gen := s.generation
	s.selected = &t
	s.current = nil
	s.done = make(chan struct{})
	s.doneClosed = false

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.logger.WithFields(log.Fields{"project": t.ProjectID, "target": t.Name, "generation": gen}).Debugf("target selected")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		records, diag, err := s.run(ctx, t)
		s.deliver(Result{
			Generation:  gen,
			ProjectID:   t.ProjectID,
			TargetName:  t.Name,
			Records:     records,
			Diagnostics: diag,
			Err:         err,
			CompletedAt: time.Now(),
		})
	}()
	return gen
}

// Refresh re-runs the pipeline of the current selection.
func (s *Selector) Refresh() (uint64, bool) {
	s.mu.Lock()
	selected := s.selected
	s.mu.Unlock()
	if selected == nil {
		return 0, false
	}
	return s.Select(*selected), true
}

func (s *Selector) deliver(res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res.Generation != s.generation {
		s.logger.WithFields(log.Fields{"target": res.TargetName, "generation": res.Generation, "current": s.generation}).Debugf("discarding stale result")
		return
	}
	s.current = &res
	s.finish()
}

// finish wakes the waiters of the current generation. s.mu must be held.
func (s *Selector) finish() {
	if s.done != nil && !s.doneClosed {
		close(s.done)
		s.doneClosed = true
	}
}

// Current returns the result of the latest selection once it is
// available.
func (s *Selector) Current() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.Generation != s.generation {
		return Result{}, false
	}
	return *s.current, true
}

// State returns the selection and its result under one lock. selected is
// false without a selection and ready is false while its run is pending.
func (s *Selector) State() (res Result, selected, ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return Result{}, false, false
	}
	if s.current == nil || s.current.Generation != s.generation {
		return Result{}, true, false
	}
	return *s.current, true, true
}

// Selected returns the selected target and its generation.
func (s *Selector) Selected() (targets.Target, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return targets.Target{}, 0, false
	}
	return *s.selected, s.generation, true
}

// Deselect clears the selection if it is the given target, cancelling its
// pipeline.
func (s *Selector) Deselect(projectID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil || s.selected.ProjectID != projectID || s.selected.Name != name {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.finish()
	s.generation++
	s.selected = nil
	s.current = nil
	s.done = nil
}

// Wait blocks until the result of generation gen is available, a newer
// selection supersedes it, or ctx is done.
func (s *Selector) Wait(ctx context.Context, gen uint64) (Result, bool) {
	s.mu.Lock()
	if gen != s.generation || s.done == nil {
		s.mu.Unlock()
		return Result{}, false
	}
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return Result{}, false
	}
	res, ok := s.Current()
	if !ok || res.Generation != gen {
		return Result{}, false
	}
	return res, true
}

// Close cancels the running pipeline and waits for every run to return.
func (s *Selector) Close() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}
