// Package pipeline runs the photo triage stages in dependency order,
// executing independent stages concurrently and aggregating their
// validation summaries and usage accounting into a run report.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bkyoung/phototriage/internal/usecase/accounting"
	"github.com/bkyoung/phototriage/internal/usecase/agent"
)

// StageState tracks the lifecycle of one pipeline stage.
type StageState string

const (
	StagePending   StageState = "pending"
	StageRunning   StageState = "running"
	StageSucceeded StageState = "succeeded"
	StageFailed    StageState = "failed"
	StageSkipped   StageState = "skipped" // an upstream dependency failed
)

// Stage is one pipeline step. Stages run concurrently when their
// declared dependencies allow it.
type Stage interface {
	// Name identifies the stage; dependencies reference it.
	Name() string

	// DependsOn lists stages that must succeed before this one runs.
	DependsOn() []string

	// Run executes the stage against the shared state. A returned error
	// marks the stage failed; per-item problems belong in the stage's
	// validation summary instead.
	Run(ctx context.Context, st *State) error
}

// UsageReporter is implemented by stages that call the vision model and
// carry a cost ledger.
type UsageReporter interface {
	UsageSummary() accounting.Summary
}

// Options tunes the orchestrator.
type Options struct {
	// ContinueOnError keeps the pipeline running after a stage fails:
	// downstream stages still run, seeing no results from the failed
	// stage. When false the first failure halts the run and everything
	// not yet finished is marked skipped.
	ContinueOnError bool
}

// Orchestrator drives the stage graph.
type Orchestrator struct {
	stages []Stage
	opts   Options
	logger agent.Logger // optional
}

// New creates an orchestrator over the given stages.
func New(stages []Stage, opts Options, logger agent.Logger) *Orchestrator {
	return &Orchestrator{stages: stages, opts: opts, logger: logger}
}

// Run executes all stages and returns their final states. Stage names
// must be unique and dependencies must reference known stages; either
// problem fails the run before any stage starts.
func (o *Orchestrator) Run(ctx context.Context, st *State) (map[string]StageState, error) {
	byName := make(map[string]Stage, len(o.stages))
	states := make(map[string]StageState, len(o.stages))
	for _, s := range o.stages {
		if _, dup := byName[s.Name()]; dup {
			return nil, fmt.Errorf("duplicate stage %q", s.Name())
		}
		byName[s.Name()] = s
		states[s.Name()] = StagePending
	}
	for _, s := range o.stages {
		for _, dep := range s.DependsOn() {
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("stage %q depends on unknown stage %q", s.Name(), dep)
			}
		}
	}

	var mu sync.Mutex
	var firstErr error

	for {
		ready := o.readyStages(states, &mu)
		if len(ready) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, stage := range ready {
			mu.Lock()
			states[stage.Name()] = StageRunning
			mu.Unlock()

			g.Go(func() error {
				err := o.runStage(gctx, stage, st)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					states[stage.Name()] = StageFailed
					if firstErr == nil {
						firstErr = fmt.Errorf("stage %s: %w", stage.Name(), err)
					}
					if !o.opts.ContinueOnError {
						return err
					}
					return nil
				}
				states[stage.Name()] = StageSucceeded
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			o.markRemainingSkipped(states, &mu)
			return states, firstErr
		}
	}

	// Anything still pending has an unsatisfiable dependency chain.
	mu.Lock()
	for name, state := range states {
		if state == StagePending {
			states[name] = StageSkipped
		}
	}
	mu.Unlock()

	return states, firstErr
}

// readyStages returns pending stages whose dependencies have settled.
// A failed dependency blocks its dependents unless ContinueOnError is
// set, in which case the dependent runs with that stage's results
// simply absent from the shared state.
func (o *Orchestrator) readyStages(states map[string]StageState, mu *sync.Mutex) []Stage {
	mu.Lock()
	defer mu.Unlock()

	var ready []Stage
	for _, s := range o.stages {
		if states[s.Name()] != StagePending {
			continue
		}
		ok := true
		for _, dep := range s.DependsOn() {
			settled := states[dep] == StageSucceeded ||
				(o.opts.ContinueOnError && states[dep] == StageFailed)
			if !settled {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, s)
		}
	}
	return ready
}

func (o *Orchestrator) runStage(ctx context.Context, stage Stage, st *State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage panicked: %v", r)
		}
	}()

	if o.logger != nil {
		o.logger.LogInfo(ctx, "stage starting", map[string]interface{}{"stage": stage.Name()})
	}

	if err := stage.Run(ctx, st); err != nil {
		if o.logger != nil {
			o.logger.LogWarning(ctx, "stage failed", map[string]interface{}{
				"stage": stage.Name(),
				"error": err.Error(),
			})
		}
		return err
	}

	if reporter, ok := stage.(UsageReporter); ok {
		st.AddUsage(stage.Name(), reporter.UsageSummary())
	}
	return nil
}

func (o *Orchestrator) markRemainingSkipped(states map[string]StageState, mu *sync.Mutex) {
	mu.Lock()
	defer mu.Unlock()
	for name, state := range states {
		if state == StagePending || state == StageRunning {
			states[name] = StageSkipped
		}
	}
}
