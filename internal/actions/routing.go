package actions

import (
	"context"

	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/evaluator"
	"github.com/prana-run/prana/internal/registry"
)

// If evaluates a boolean condition expression and routes its input to one
// of two ports without touching the payload (spec.md §8 scenario 2).
type If struct {
	base
	Eval evaluator.Evaluator
}

func (If) Kind() domain.NodeKind { return domain.NodeKindAction }
func (If) InputPorts() []string  { return []string{domain.DefaultSuccessPort} }
func (If) OutputPorts() []string { return []string{"true", "false"} }
func (If) ParamsSchema() registry.ParamsSchema {
	return registry.ParamsSchema{"condition": {Type: "string", Required: true}}
}

func (h If) Execute(ctx context.Context, params, evalCtx map[string]any) registry.Result {
	condition, _ := params["condition"].(string)
	input, _ := evalCtx["$input"].(map[string]any)
	output, _ := input[domain.DefaultSuccessPort].(map[string]any)

	ok, err := evaluator.EvalBool(h.Eval, condition, evalCtx)
	if err != nil {
		return registry.Fail(err)
	}
	if ok {
		return registry.OkPort(output, "true")
	}
	return registry.OkPort(output, "false")
}

// MergeStrategy controls how Merge combines its two required inputs.
type MergeStrategy string

const (
	MergeAppend MergeStrategy = "append"
	MergeConcat MergeStrategy = "concat"
)

// Merge is the diamond-join node (spec.md §8 scenario 3): it declares two
// required input ports and is ready only once both have delivered a
// value, since neither is listed as optional.
type Merge struct{ base }

func (Merge) Kind() domain.NodeKind  { return domain.NodeKindAction }
func (Merge) InputPorts() []string   { return []string{"input_a", "input_b"} }
func (Merge) OutputPorts() []string  { return []string{domain.DefaultSuccessPort} }
func (Merge) ParamsSchema() registry.ParamsSchema {
	return registry.ParamsSchema{"strategy": {Type: "string", Default: string(MergeAppend),
		Enum: []any{string(MergeAppend), string(MergeConcat)}}}
}

func (Merge) Execute(ctx context.Context, params, evalCtx map[string]any) registry.Result {
	input, _ := evalCtx["$input"].(map[string]any)
	a := input["input_a"]
	b := input["input_b"]

	strategy, _ := params["strategy"].(string)
	if strategy == "" {
		strategy = string(MergeAppend)
	}

	switch MergeStrategy(strategy) {
	case MergeConcat:
		listA, _ := a.([]any)
		listB, _ := b.([]any)
		merged := append(append([]any{}, listA...), listB...)
		return registry.Ok(map[string]any{"merged": merged})
	default:
		return registry.Ok(map[string]any{"merged": []any{a, b}})
	}
}
