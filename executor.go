package prana

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/prana-run/prana/internal/engine"
	"github.com/prana-run/prana/internal/evaluator"
	"github.com/prana-run/prana/internal/graph"
	"github.com/prana-run/prana/internal/middleware"
	"github.com/prana-run/prana/internal/storage"
)

// Outcome is the tagged result of Start/Resume/Cancel: exactly one of
// Completed, Suspended or Failed is true (spec.md §4.5).
type Outcome struct {
	ExecutionID string
	Completed   bool
	Suspended   bool
	Failed      bool
	Output      map[string]any
	Error       error
}

// Executor runs compiled workflows against a Store, owning the
// compile-once/run-many lifecycle the Graph Executor expects (spec.md
// §4.4/§4.9): every Start/Resume persists the resulting Execution
// envelope before returning.
type Executor struct {
	store   Store
	ev      evaluator.Evaluator
	mw      *middleware.Pipeline
	maxIter int
}

// ExecutorOption configures an Executor at construction time.
type ExecutorOption func(*Executor)

// WithMaxLoopIterations overrides the default loop-guard (spec.md §4.5,
// default 1000) applied to every Execution the Executor starts.
func WithMaxLoopIterations(n int) ExecutorOption {
	return func(e *Executor) { e.maxIter = n }
}

// WithMiddleware attaches a Middleware Pipeline that observes every
// lifecycle event fired by executions this Executor runs.
func WithMiddleware(mw *middleware.Pipeline) ExecutorOption {
	return func(e *Executor) { e.mw = mw }
}

// NewExecutor builds an Executor backed by store, evaluating expressions
// with expr-lang/expr.
func NewExecutor(store Store, opts ...ExecutorOption) *Executor {
	e := &Executor{store: store, ev: evaluator.New(), mw: middleware.New()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins a fresh Execution against an already-compiled graph (see
// Compile) with the given initial input and the workflow's variables,
// persisting the resulting envelope to the Store before returning.
func (e *Executor) Start(ctx context.Context, g *graph.ExecutionGraph, mode ExecutionMode, vars, input map[string]any) (Outcome, error) {
	execID := uuid.NewString()
	if vars == nil {
		vars = map[string]any{}
	}
	exec := engine.New(execID, g, vars, map[string]any{}, mode)

	sched := engine.NewScheduler(exec, e.ev, e.mw)
	opts := engine.Options{InitialInput: input}
	if e.maxIter > 0 {
		opts.MaxLoopIterations = e.maxIter
	}

	out := sched.Start(ctx, opts)
	return e.finish(ctx, out)
}

// Resume re-enters a suspended Execution previously persisted by Start or
// Resume, dispatching caller-supplied resumeData to the suspended node's
// handler (or, for a retry suspension, re-running Execute).
func (e *Executor) Resume(ctx context.Context, g *graph.ExecutionGraph, executionID string, resumeData map[string]any) (Outcome, error) {
	rec, err := e.store.LoadExecution(ctx, executionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("loading execution %s: %w", executionID, err)
	}

	exec := storage.FromRecord(rec, g)
	sched := engine.NewScheduler(exec, e.ev, e.mw)

	out := sched.Resume(ctx, resumeData)
	return e.finish(ctx, out)
}

func (e *Executor) finish(ctx context.Context, out engine.Outcome) (Outcome, error) {
	if err := e.store.SaveExecution(ctx, storage.ToRecord(out.Exec)); err != nil {
		return Outcome{}, fmt.Errorf("persisting execution %s: %w", out.Exec.ID, err)
	}

	return Outcome{
		ExecutionID: out.Exec.ID,
		Completed:   out.Completed,
		Suspended:   out.Suspended,
		Failed:      out.Failed,
		Output:      out.Output,
		Error:       out.Error,
	}, nil
}
