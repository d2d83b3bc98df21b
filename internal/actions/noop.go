package actions

import (
	"context"

	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/registry"
)

// Noop passes its single input through unchanged. Grounded on the
// teacher's identity/passthrough node used in its example pipelines.
type Noop struct{ base }

func (Noop) Kind() domain.NodeKind              { return domain.NodeKindAction }
func (Noop) InputPorts() []string               { return []string{domain.DefaultSuccessPort} }
func (Noop) OutputPorts() []string              { return []string{domain.DefaultSuccessPort} }
func (Noop) ParamsSchema() registry.ParamsSchema { return nil }

func (Noop) Execute(ctx context.Context, params, evalCtx map[string]any) registry.Result {
	input, _ := evalCtx["$input"].(map[string]any)
	output, _ := input[domain.DefaultSuccessPort].(map[string]any)
	return registry.Ok(output)
}

// SetData merges its resolved params on top of its input, the way the
// teacher's "transform" node reshapes data between steps.
type SetData struct{ base }

func (SetData) Kind() domain.NodeKind  { return domain.NodeKindAction }
func (SetData) InputPorts() []string   { return []string{domain.DefaultSuccessPort} }
func (SetData) OutputPorts() []string  { return []string{domain.DefaultSuccessPort} }
func (SetData) ParamsSchema() registry.ParamsSchema {
	return registry.ParamsSchema{"values": {Type: "object", Required: true}}
}

func (SetData) Execute(ctx context.Context, params, evalCtx map[string]any) registry.Result {
	input, _ := evalCtx["$input"].(map[string]any)
	current, _ := input[domain.DefaultSuccessPort].(map[string]any)
	values, _ := params["values"].(map[string]any)
	out := domain.MergeMaps(domain.CloneMap(current), values)
	return registry.Ok(out)
}
