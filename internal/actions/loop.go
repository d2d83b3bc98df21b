package actions

import (
	"context"

	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/registry"
)

// LoopEmit is an iterative node (spec.md §4.5 "Loops"): while
// $input.main.items still has elements left to process (tracked via its own
// output feeding back as a new input on a later cycle), it emits "next"
// with the current item; once exhausted it emits "done".
type LoopEmit struct{ base }

func (LoopEmit) Kind() domain.NodeKind { return domain.NodeKindAction }
func (LoopEmit) InputPorts() []string  { return []string{domain.DefaultSuccessPort} }
func (LoopEmit) OutputPorts() []string { return []string{"next", "done"} }
func (LoopEmit) ParamsSchema() registry.ParamsSchema {
	return registry.ParamsSchema{}
}

func (LoopEmit) Execute(ctx context.Context, params, evalCtx map[string]any) registry.Result {
	input, _ := evalCtx["$input"].(map[string]any)
	payload, _ := input[domain.DefaultSuccessPort].(map[string]any)

	items, _ := payload["items"].([]any)
	if len(items) == 0 {
		return registry.OkPort(map[string]any{"result": payload["result"]}, "done")
	}

	head, rest := items[0], items[1:]
	execInfo, _ := evalCtx["$execution"].(map[string]any)
	runIndex, _ := execInfo["run_index"].(int)

	return registry.OkPort(map[string]any{
		"item":      head,
		"items":     rest,
		"run_index": runIndex,
	}, "next")
}
