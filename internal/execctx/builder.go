// Package execctx is the Context Builder (spec.md §4.3): it produces the
// evaluation context handed to the expression evaluator and to action
// handlers.
package execctx

// Execution carries the run-index/attempt-number identity fields the
// context needs; the engine's own Execution aggregate satisfies this via a
// small adapter so this package stays free of an import on internal/engine.
type Execution struct {
	RunIndex      int
	AttemptNumber int
	ExecutionID   string
	WorkflowID    string
}

// Build assembles the context map described in spec.md §4.3:
//
//	{
//	  "$input":     port -> upstream value,
//	  "$nodes":     node_key -> {"output": value, "status": ...},
//	  "$vars":      name -> value,
//	  "$env":       name -> value,
//	  "$execution": {run_index, attempt_number, execution_id, workflow_id},
//	}
func Build(input map[string]any, nodes map[string]any, vars map[string]any, env map[string]any, exec Execution) map[string]any {
	return map[string]any{
		"$input": input,
		"$nodes": nodes,
		"$vars":  vars,
		"$env":   env,
		"$execution": map[string]any{
			"run_index":      exec.RunIndex,
			"attempt_number": exec.AttemptNumber,
			"execution_id":   exec.ExecutionID,
			"workflow_id":    exec.WorkflowID,
		},
	}
}

// NodeEntry builds one $nodes[node_key] entry.
func NodeEntry(output any, status string) map[string]any {
	return map[string]any{"output": output, "status": status}
}
