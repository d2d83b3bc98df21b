package actions

import (
	"context"
	"fmt"

	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/registry"
	"github.com/prana-run/prana/internal/suspend"
)

// SubWorkflow suspends to invoke a child workflow (spec.md §4.8). The
// outside coordinator owns actually running the child; this handler only
// builds and reads the envelope.
type SubWorkflow struct{ base }

func (SubWorkflow) Kind() domain.NodeKind  { return domain.NodeKindAction }
func (SubWorkflow) InputPorts() []string   { return []string{domain.DefaultSuccessPort} }
func (SubWorkflow) OutputPorts() []string  { return []string{domain.DefaultSuccessPort, "error"} }
func (SubWorkflow) Suspendable() bool      { return true }
func (SubWorkflow) ParamsSchema() registry.ParamsSchema {
	return registry.ParamsSchema{
		"workflow_id":      {Type: "string", Required: true},
		"execution_mode":   {Type: "string", Default: string(domain.SubWorkflowSync)},
		"batch_mode":       {Type: "string", Default: string(domain.BatchAll)},
		"timeout_ms":       {Type: "number", Default: 0},
		"failure_strategy": {Type: "string", Default: string(domain.FailParent)},
	}
}

func (SubWorkflow) Execute(ctx context.Context, params, evalCtx map[string]any) registry.Result {
	input, _ := evalCtx["$input"].(map[string]any)
	payload, _ := input[domain.DefaultSuccessPort].(map[string]any)

	workflowID, _ := params["workflow_id"].(string)
	mode, _ := params["execution_mode"].(string)
	if mode == "" {
		mode = string(domain.SubWorkflowSync)
	}
	batch, _ := params["batch_mode"].(string)
	if batch == "" {
		batch = string(domain.BatchAll)
	}
	failureStrategy, _ := params["failure_strategy"].(string)
	if failureStrategy == "" {
		failureStrategy = string(domain.FailParent)
	}
	timeoutMs, _ := params["timeout_ms"].(int)

	kind := domain.SuspensionSubWorkflowSync
	switch domain.SubWorkflowExecutionMode(mode) {
	case domain.SubWorkflowAsync:
		kind = domain.SuspensionSubWorkflowAsync
	case domain.SubWorkflowFireForget:
		kind = domain.SuspensionSubWorkflowFireForget
	}

	return registry.Suspend(kind, suspend.SubWorkflowData{
		WorkflowID:      workflowID,
		ExecutionMode:   domain.SubWorkflowExecutionMode(mode),
		BatchMode:       domain.SubWorkflowBatchMode(batch),
		TimeoutMs:       timeoutMs,
		FailureStrategy: domain.SubWorkflowFailureStrategy(failureStrategy),
		InputData:       payload,
	}.ToMap())
}

func (SubWorkflow) Resume(ctx context.Context, params, evalCtx, resumeData map[string]any) registry.Result {
	status, _ := resumeData["status"].(string)
	switch status {
	case "completed":
		output, _ := resumeData["output"].(map[string]any)
		return registry.Ok(output)
	case "failed", "timeout":
		failureStrategy, _ := params["failure_strategy"].(string)
		errMsg, _ := resumeData["error"].(string)
		if errMsg == "" {
			errMsg = "sub-workflow " + status
		}
		if domain.SubWorkflowFailureStrategy(failureStrategy) == domain.ContinueOnFailure {
			return registry.OkPort(map[string]any{"error": errMsg}, "error")
		}
		return registry.Fail(domain.NewError(domain.ErrAction, errMsg, nil))
	default:
		return registry.Fail(domain.NewError(domain.ErrAction, fmt.Sprintf("unrecognized sub-workflow resume status %q", status), nil))
	}
}
