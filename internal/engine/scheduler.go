package engine

import (
	"context"

	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/evaluator"
	"github.com/prana-run/prana/internal/middleware"
	"github.com/prana-run/prana/internal/params"
)

const (
	eventExecutionStarted   = middleware.EventExecutionStarted
	eventExecutionCompleted = middleware.EventExecutionCompleted
	eventExecutionFailed    = middleware.EventExecutionFailed
	eventExecutionSuspended = middleware.EventExecutionSuspended
	eventNodeStarted        = middleware.EventNodeStarted
	eventNodeCompleted      = middleware.EventNodeCompleted
	eventNodeFailed         = middleware.EventNodeFailed
	eventSubWorkflowRequested = middleware.EventSubWorkflowRequested
)

// defaultMaxLoopIterations bounds a node's run_index before
// max_iterations_exceeded fires (spec.md §4.5 "Loops").
const defaultMaxLoopIterations = 1000

// Options configures one Start call.
type Options struct {
	InitialInput      map[string]any
	MaxLoopIterations int // 0 means defaultMaxLoopIterations
}

// Outcome is the tagged result returned by Start, Resume and Cancel
// (spec.md §4.5's three-shape return).
type Outcome struct {
	Exec      *Execution
	Completed bool
	Suspended bool
	Failed    bool
	Output    map[string]any
	Error     error
}

// Scheduler is the Graph Executor: it owns exactly one Execution for the
// duration of a scheduling loop invocation (spec.md §5 "single-threaded
// cooperative per Execution").
type Scheduler struct {
	exec       *Execution
	ev         evaluator.Evaluator
	mw         *middleware.Pipeline
	rank       map[string]int
	paramTrees map[string]params.Tree
	maxIter    int
}

// NewScheduler constructs a Graph Executor bound to exec, which may be a
// fresh, not-yet-started Execution or a suspended one rebuilt for Resume.
func NewScheduler(exec *Execution, ev evaluator.Evaluator, mw *middleware.Pipeline) *Scheduler {
	if mw == nil {
		mw = middleware.New()
	}
	return &Scheduler{
		exec:       exec,
		ev:         ev,
		mw:         mw,
		rank:       ranks(exec.Graph),
		paramTrees: make(map[string]params.Tree),
		maxIter:    defaultMaxLoopIterations,
	}
}

// Start seeds the trigger and runs the scheduling loop to completion,
// suspension, or failure (spec.md §4.5).
func (s *Scheduler) Start(ctx context.Context, opts Options) Outcome {
	if opts.MaxLoopIterations > 0 {
		s.maxIter = opts.MaxLoopIterations
	}

	triggerKey := s.exec.Graph.TriggerNodeKey
	input := opts.InitialInput
	if input == nil {
		input = map[string]any{}
	}
	s.exec.PendingInputs[triggerKey] = map[string]any{domain.DefaultSuccessPort: input}

	s.exec.Status = domain.ExecutionRunning
	if err := s.fireExecution(ctx, eventExecutionStarted, map[string]any{"input": input}); err != nil {
		return s.failExecution(ctx, triggerKey, err)
	}

	return s.run(ctx)
}

// Resume re-enters a suspended Execution (spec.md §4.8). For a retry
// suspension the last NodeExecution's stored attempt is re-run via
// Execute; for any other kind the handler's Resume is invoked with the
// caller-supplied resumeData.
func (s *Scheduler) Resume(ctx context.Context, resumeData map[string]any) Outcome {
	if s.exec.Status != domain.ExecutionSuspended || s.exec.SuspendedNodeID == "" {
		return Outcome{Exec: s.exec, Failed: true,
			Error: domain.NewError(domain.ErrAction, "execution is not suspended", nil)}
	}

	nodeKey := s.exec.SuspendedNodeID
	last, ok := s.exec.lastEntry(nodeKey)
	if !ok {
		return Outcome{Exec: s.exec, Failed: true,
			Error: domain.NewNodeError(domain.ErrAction, nodeKey, "no suspension record to resume", nil)}
	}

	s.exec.Status = domain.ExecutionRunning
	s.exec.SuspendedNodeID = ""

	var inv invocation
	if last.SuspensionType == domain.SuspensionRetry {
		attempt, _ := last.SuspensionData["attempt_number"].(int)
		if attempt == 0 {
			attempt = last.AttemptNumber + 1
		}
		inv = invocation{nodeKey: nodeKey, runIndex: last.RunIndex, attemptNumber: attempt, input: last.Input}
	} else {
		inv = invocation{nodeKey: nodeKey, runIndex: last.RunIndex, attemptNumber: last.AttemptNumber,
			input: last.Input, resumeData: resumeData, callResume: true}
	}

	out, err := s.dispatch(ctx, inv)
	switch out {
	case outcomeSuspended:
		return Outcome{Exec: s.exec, Suspended: true}
	case outcomeFailed:
		return Outcome{Exec: s.exec, Failed: true, Error: err}
	}

	return s.run(ctx)
}

// Cancel stops the loop at the next cycle boundary (spec.md §5): since
// Cancel is only ever called between cycles by construction (the loop
// never yields mid-node to the caller), this simply marks the execution
// failed with a cancellation error.
func (s *Scheduler) Cancel(ctx context.Context) Outcome {
	derr := domain.NewError(domain.ErrCancelled, "execution cancelled", nil)
	s.exec.Status = domain.ExecutionFailed
	s.exec.Error = derr
	// Best-effort: this is already the terminal failure report, so a
	// middleware error here has nothing further to escalate into.
	_ = s.fireExecution(ctx, eventExecutionFailed, map[string]any{"error": derr.Error(), "cancelled": true})
	return Outcome{Exec: s.exec, Failed: true, Error: derr}
}

func (s *Scheduler) run(ctx context.Context) Outcome {
	for s.exec.Status == domain.ExecutionRunning {
		ready := s.selectReady()
		if len(ready) == 0 {
			break
		}

		for _, nodeKey := range ready {
			runIndex := s.exec.RunIndexFor(nodeKey)
			if runIndex >= s.maxIter {
				derr := domain.NewNodeError(domain.ErrMaxIterations, nodeKey,
					"node exceeded max_loop_iterations", nil)
				s.exec.Status = domain.ExecutionFailed
				s.exec.Error = derr
				// Best-effort: already the terminal failure report.
				_ = s.fireExecution(ctx, eventExecutionFailed, map[string]any{"error": derr.Error(), "node_key": nodeKey})
				return Outcome{Exec: s.exec, Failed: true, Error: derr}
			}

			out, err := s.dispatch(ctx, invocation{nodeKey: nodeKey, runIndex: runIndex, attemptNumber: 0})
			switch out {
			case outcomeSuspended:
				return Outcome{Exec: s.exec, Suspended: true}
			case outcomeFailed:
				return Outcome{Exec: s.exec, Failed: true, Error: err}
			}
		}
	}

	s.exec.Status = domain.ExecutionCompleted
	output := s.terminalOutput()
	if err := s.fireExecution(ctx, eventExecutionCompleted, map[string]any{"output": output}); err != nil {
		return s.failExecution(ctx, "", err)
	}
	return Outcome{Exec: s.exec, Completed: true, Output: output}
}

// failExecution marks the whole execution failed from a middleware error
// raised while reporting an execution-scoped lifecycle event that has no
// node already recorded for it (spec.md §7). nodeKey is attributed on the
// resulting domain.Error when known; it may be empty.
func (s *Scheduler) failExecution(ctx context.Context, nodeKey string, cause error) Outcome {
	var derr *domain.Error
	if nodeKey != "" {
		derr = domain.NewNodeError(domain.ErrAction, nodeKey, "middleware failed", cause)
	} else {
		derr = domain.NewError(domain.ErrAction, "middleware failed", cause)
	}
	s.exec.Status = domain.ExecutionFailed
	s.exec.Error = derr
	_ = s.fireExecution(ctx, eventExecutionFailed, map[string]any{"error": derr.Error(), "node_key": nodeKey})
	return Outcome{Exec: s.exec, Failed: true, Error: derr}
}

// terminalOutput picks the output of the most recently completed leaf
// node (one with no outgoing connection from its emitted port), matching
// spec.md §8's terminal-leaf invariant.
func (s *Scheduler) terminalOutput() map[string]any {
	for i := len(s.exec.ExecutedNodes) - 1; i >= 0; i-- {
		key := s.exec.ExecutedNodes[i]
		entries := s.exec.NodeExecutions[key]
		if len(entries) == 0 {
			continue
		}
		last := entries[len(entries)-1]
		if last.Status != domain.NodeStatusCompleted {
			continue
		}
		if len(s.exec.Graph.OutgoingFrom(key, last.EmittedPort)) == 0 {
			return last.Output
		}
	}
	return nil
}

// fireExecution runs the Middleware Pipeline for an execution-scoped event
// and reports whether a middleware raised an error (spec.md §7: "Errors
// raised by middleware propagate as action_error attributed to the
// triggering node"). Callers that can attribute the error to a node
// surface it through failNode; callers reporting a terminal failure
// already (Cancel, failNode itself) treat it as best-effort, since there
// is no further failure state to escalate into.
func (s *Scheduler) fireExecution(ctx context.Context, event middleware.Event, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	data["execution_id"] = s.exec.ID
	_, err := s.mw.Fire(ctx, event, data)
	return err
}

// fireNode is fireExecution's node-scoped counterpart.
func (s *Scheduler) fireNode(ctx context.Context, event middleware.Event, nodeKey string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	data["execution_id"] = s.exec.ID
	data["node_key"] = nodeKey
	_, err := s.mw.Fire(ctx, event, data)
	return err
}
