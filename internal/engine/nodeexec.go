package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/execctx"
	"github.com/prana-run/prana/internal/params"
	"github.com/prana-run/prana/internal/registry"
	"github.com/prana-run/prana/internal/retry"
	"github.com/prana-run/prana/internal/suspend"
)

// outcome is what invoking one node resolves to, from the scheduling
// loop's point of view.
type outcome int

const (
	outcomeContinue outcome = iota
	outcomeSuspended
	outcomeFailed
)

// invocation bundles the handful of things the dispatch-to-handler core
// needs beyond the Execution/node identity, since the same core serves
// three distinct call sites (fresh dispatch, retry re-entry, resume
// re-entry) that disagree on attempt/run_index/whether to call Resume.
type invocation struct {
	nodeKey       string
	runIndex      int
	attemptNumber int
	input         map[string]any // nil for fresh dispatch: drawn from pending_inputs
	resumeData    map[string]any // non-nil only for a handler.Resume() re-entry
	callResume    bool
}

// dispatch runs one node invocation end to end: build context, resolve
// params, prepare-once, call execute or resume, classify the result,
// record history, and propagate outputs (spec.md §4.4).
func (s *Scheduler) dispatch(ctx context.Context, inv invocation) (outcome, error) {
	nodeKey := inv.nodeKey
	node, ok := s.exec.Graph.Nodes[nodeKey]
	if !ok {
		return outcomeFailed, domain.NewNodeError(domain.ErrCompile, nodeKey, "node vanished from graph", nil)
	}
	desc, _ := s.exec.Graph.Descriptor(nodeKey)

	input := inv.input
	if input == nil {
		input = s.exec.consumeInputs(nodeKey)
	}

	if err := s.fireNode(ctx, eventNodeStarted, nodeKey, nil); err != nil {
		return s.failNode(ctx, node, desc, input, inv,
			domain.NewNodeError(domain.ErrAction, nodeKey, "middleware failed", err))
	}

	if inv.runIndex == 0 && desc.Handler != nil {
		if _, done := s.exec.Preparation[nodeKey]; !done {
			prep, err := desc.Handler.Prepare(ctx, node)
			if err != nil {
				return s.failNode(ctx, node, desc, input, inv,
					domain.NewNodeError(domain.ErrAction, nodeKey, "prepare failed", err))
			}
			if prep == nil {
				prep = map[string]any{}
			}
			s.exec.Preparation[nodeKey] = prep
		}
	}

	evalCtx := s.buildContext(nodeKey, input, inv.runIndex, inv.attemptNumber)

	resolved, err := s.resolveParams(node, evalCtx)
	if err != nil {
		return s.failNode(ctx, node, desc, input, inv,
			domain.NewNodeError(domain.ErrParameter, nodeKey, "parameter resolution failed", err))
	}
	if errs := desc.Handler.ValidateParams(resolved); len(errs) > 0 {
		return s.failNode(ctx, node, desc, input, inv,
			domain.NewNodeError(domain.ErrParameter, nodeKey, fmt.Sprintf("invalid params: %v", errs), nil))
	}

	var result registry.Result
	if inv.callResume {
		result = desc.Handler.Resume(ctx, resolved, evalCtx, inv.resumeData)
	} else {
		result = desc.Handler.Execute(ctx, resolved, evalCtx)
	}

	return s.applyResult(ctx, node, desc, input, resolved, inv, result)
}

func (s *Scheduler) resolveParams(node domain.Node, evalCtx map[string]any) (map[string]any, error) {
	tree, ok := s.paramTrees[node.Key]
	if !ok {
		tree = params.Tag(map[string]any(node.Params))
		s.paramTrees[node.Key] = tree
	}
	return params.ResolveMap(tree, s.ev, evalCtx)
}

func (s *Scheduler) buildContext(nodeKey string, input map[string]any, runIndex, attempt int) map[string]any {
	nodesCtx := make(map[string]any, len(s.exec.NodeExecutions))
	for key, entries := range s.exec.NodeExecutions {
		if len(entries) == 0 {
			continue
		}
		last := entries[len(entries)-1]
		nodesCtx[key] = execctx.NodeEntry(last.Output, string(last.Status))
	}

	return execctx.Build(input, nodesCtx, s.exec.Vars, s.exec.Env, execctx.Execution{
		RunIndex:      runIndex,
		AttemptNumber: attempt,
		ExecutionID:   s.exec.ID,
		WorkflowID:    s.exec.WorkflowID,
	})
}

func (s *Scheduler) applyResult(ctx context.Context, node domain.Node, desc registry.Descriptor, input, resolved map[string]any, inv invocation, result registry.Result) (outcome, error) {
	now := time.Now()

	switch {
	case result.Suspend:
		return s.suspendNode(ctx, node, desc, input, resolved, inv, result, now)
	case result.Err != nil:
		return s.handleError(ctx, node, desc, input, resolved, inv, result, now)
	default:
		return s.completeNode(ctx, node, desc, input, resolved, inv, result, now)
	}
}

func (s *Scheduler) completeNode(ctx context.Context, node domain.Node, desc registry.Descriptor, input, resolved map[string]any, inv invocation, result registry.Result, now time.Time) (outcome, error) {
	port := result.Port
	if port == "" {
		port = desc.DefaultSuccessPort()
	}
	if !desc.AllowsPort(port) {
		return s.failNode(ctx, node, desc, input, inv,
			domain.NewNodeError(domain.ErrAction, node.Key, fmt.Sprintf("handler emitted undeclared port %q", port), nil))
	}

	ne := NodeExecution{
		NodeKey:       node.Key,
		RunIndex:      inv.runIndex,
		AttemptNumber: inv.attemptNumber,
		Status:        domain.NodeStatusCompleted,
		Input:         input,
		Output:        result.Output,
		EmittedPort:   port,
		Params:        resolved,
		FinishedAt:    now,
	}
	if inv.callResume || inv.attemptNumber > 0 {
		s.exec.replaceLastEntry(ne)
	} else {
		s.exec.appendEntry(ne)
	}

	s.exec.markExecuted(node.Key)
	s.exec.markActive(node.Key, port)
	s.exec.deliver(node.Key, port, result.Output)

	if err := s.fireNode(ctx, eventNodeCompleted, node.Key, map[string]any{"output": result.Output, "port": port}); err != nil {
		return s.failNode(ctx, node, desc, input, inv,
			domain.NewNodeError(domain.ErrAction, node.Key, "middleware failed", err))
	}
	return outcomeContinue, nil
}

func (s *Scheduler) suspendNode(ctx context.Context, node domain.Node, desc registry.Descriptor, input, resolved map[string]any, inv invocation, result registry.Result, now time.Time) (outcome, error) {
	if !desc.Suspendable {
		return s.failNode(ctx, node, desc, input, inv,
			domain.NewNodeError(domain.ErrSuspendNotPermitted, node.Key, "handler is not suspendable", nil))
	}

	ne := NodeExecution{
		NodeKey:        node.Key,
		RunIndex:       inv.runIndex,
		AttemptNumber:  inv.attemptNumber,
		Status:         domain.NodeStatusSuspended,
		Input:          input,
		SuspensionType: result.Suspension.Kind,
		SuspensionData: result.Suspension.Data,
		Params:         resolved,
		FinishedAt:     now,
	}
	if inv.callResume {
		s.exec.replaceLastEntry(ne)
	} else {
		s.exec.appendEntry(ne)
	}

	s.exec.Status = domain.ExecutionSuspended
	s.exec.SuspendedNodeID = node.Key

	if isSubWorkflowKind(result.Suspension.Kind) {
		if err := s.fireNode(ctx, eventSubWorkflowRequested, node.Key, map[string]any{"suspension_data": result.Suspension.Data}); err != nil {
			return s.failNode(ctx, node, desc, input, inv,
				domain.NewNodeError(domain.ErrAction, node.Key, "middleware failed", err))
		}
	}

	if err := s.fireExecution(ctx, eventExecutionSuspended, map[string]any{
		"node_key":   node.Key,
		"suspension": string(result.Suspension.Kind),
	}); err != nil {
		return s.failNode(ctx, node, desc, input, inv,
			domain.NewNodeError(domain.ErrAction, node.Key, "middleware failed", err))
	}
	return outcomeSuspended, nil
}

func isSubWorkflowKind(kind domain.SuspensionKind) bool {
	switch kind {
	case domain.SuspensionSubWorkflowSync, domain.SuspensionSubWorkflowAsync, domain.SuspensionSubWorkflowFireForget:
		return true
	default:
		return false
	}
}

// handleError implements spec.md §4.7/§7: retry-as-suspension first, then
// error-port recovery, then terminal failure.
func (s *Scheduler) handleError(ctx context.Context, node domain.Node, desc registry.Descriptor, input, resolved map[string]any, inv invocation, result registry.Result, now time.Time) (outcome, error) {
	policy := retry.FromSettings(node.Settings.Retry)
	if node.Settings.Retry.RetryOnFailed && inv.attemptNumber < policy.MaxAttempts {
		nextAttempt := inv.attemptNumber + 1
		delay := policy.DelayForAttempt(nextAttempt, now.UnixNano())
		ne := NodeExecution{
			NodeKey:        node.Key,
			RunIndex:       inv.runIndex,
			AttemptNumber:  inv.attemptNumber,
			Status:         domain.NodeStatusSuspended,
			Input:          input,
			SuspensionType: domain.SuspensionRetry,
			SuspensionData: suspend.RetryData{
				AttemptNumber: nextAttempt,
				MaxAttempts:   policy.MaxAttempts,
				ResumeAtUnix:  now.Add(delay).Unix(),
				OriginalError: result.Err.Error(),
			}.ToMap(),
			Params:     resolved,
			FinishedAt: now,
		}
		if inv.callResume || inv.attemptNumber > 0 {
			s.exec.replaceLastEntry(ne)
		} else {
			s.exec.appendEntry(ne)
		}
		s.exec.Status = domain.ExecutionSuspended
		s.exec.SuspendedNodeID = node.Key
		if err := s.fireExecution(ctx, eventExecutionSuspended, map[string]any{
			"node_key": node.Key, "suspension": string(domain.SuspensionRetry),
		}); err != nil {
			return s.failNode(ctx, node, desc, input, inv,
				domain.NewNodeError(domain.ErrAction, node.Key, "middleware failed", err))
		}
		return outcomeSuspended, nil
	}

	if result.ErrPort != "" && desc.AllowsPort(result.ErrPort) && len(s.exec.Graph.OutgoingFrom(node.Key, result.ErrPort)) > 0 {
		errOutput := map[string]any{"error": result.Err.Error()}
		ne := NodeExecution{
			NodeKey:       node.Key,
			RunIndex:      inv.runIndex,
			AttemptNumber: inv.attemptNumber,
			Status:        domain.NodeStatusCompleted,
			Input:         input,
			Output:        errOutput,
			EmittedPort:   result.ErrPort,
			Params:        resolved,
			FinishedAt:    now,
		}
		if inv.callResume || inv.attemptNumber > 0 {
			s.exec.replaceLastEntry(ne)
		} else {
			s.exec.appendEntry(ne)
		}
		s.exec.markExecuted(node.Key)
		s.exec.markActive(node.Key, result.ErrPort)
		s.exec.deliver(node.Key, result.ErrPort, errOutput)
		if err := s.fireNode(ctx, eventNodeCompleted, node.Key, map[string]any{"output": errOutput, "port": result.ErrPort, "recovered_error": true}); err != nil {
			return s.failNode(ctx, node, desc, input, inv,
				domain.NewNodeError(domain.ErrAction, node.Key, "middleware failed", err))
		}
		return outcomeContinue, nil
	}

	kind := domain.ErrAction
	if node.Settings.Retry.RetryOnFailed {
		kind = domain.ErrRetryExhausted
	}
	return s.failNode(ctx, node, desc, input, inv, domain.NewNodeError(kind, node.Key, "action failed", result.Err))
}

func (s *Scheduler) failNode(ctx context.Context, node domain.Node, desc registry.Descriptor, input map[string]any, inv invocation, derr *domain.Error) (outcome, error) {
	ne := NodeExecution{
		NodeKey:       node.Key,
		RunIndex:      inv.runIndex,
		AttemptNumber: inv.attemptNumber,
		Status:        domain.NodeStatusFailed,
		Input:         input,
		Error:         derr,
		FinishedAt:    time.Now(),
	}
	if inv.callResume || inv.attemptNumber > 0 {
		s.exec.replaceLastEntry(ne)
	} else {
		s.exec.appendEntry(ne)
	}

	s.exec.Status = domain.ExecutionFailed
	s.exec.Error = derr
	// Best-effort: this is already the terminal failure report for node_key,
	// so a middleware error here has nothing further to escalate into.
	_ = s.fireNode(ctx, eventNodeFailed, node.Key, map[string]any{"error": derr.Error()})
	_ = s.fireExecution(ctx, eventExecutionFailed, map[string]any{"error": derr.Error(), "node_key": node.Key})
	return outcomeFailed, derr
}
