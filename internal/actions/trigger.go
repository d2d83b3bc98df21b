package actions

import (
	"context"

	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/registry"
)

// ManualTrigger is the default trigger handler: it re-emits whatever
// initial input the caller supplied to Start, unchanged, on its single
// output port.
type ManualTrigger struct{ base }

func (ManualTrigger) Kind() domain.NodeKind          { return domain.NodeKindTrigger }
func (ManualTrigger) InputPorts() []string            { return []string{domain.DefaultSuccessPort} }
func (ManualTrigger) OutputPorts() []string           { return []string{domain.DefaultSuccessPort} }
func (ManualTrigger) ParamsSchema() registry.ParamsSchema { return nil }

func (ManualTrigger) Execute(ctx context.Context, params, evalCtx map[string]any) registry.Result {
	input, _ := evalCtx["$input"].(map[string]any)
	output, _ := input[domain.DefaultSuccessPort].(map[string]any)
	if output == nil {
		output = map[string]any{}
	}
	return registry.Ok(output)
}
