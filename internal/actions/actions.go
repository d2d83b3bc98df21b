// Package actions is the built-in action library (spec.md's "inventory
// of built-in actions" is explicitly out of scope for the core, but a
// reference engine needs a minimal set to be runnable end to end). Every
// handler here implements registry.Handler directly, in the same style as
// the teacher's integration adapters: small, declarative, side-effect at
// the edges.
package actions

import (
	"context"

	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/evaluator"
	"github.com/prana-run/prana/internal/registry"
)

// base supplies the zero-value defaults most handlers share, so each
// concrete handler only overrides what it actually needs.
type base struct{}

func (base) Prepare(ctx context.Context, node domain.Node) (map[string]any, error) { return nil, nil }
func (base) ValidateParams(raw map[string]any) []error                            { return nil }
func (base) Suspendable() bool                                                    { return false }
func (base) OptionalInputPorts() []string                                         { return nil }
func (base) Resume(ctx context.Context, params, evalCtx, resumeData map[string]any) registry.Result {
	panic("actions: Resume called on a non-suspendable handler")
}

// Register installs every built-in handler into reg under its
// fully-qualified type string. ev is shared by the handlers (If) that
// need to evaluate expressions themselves rather than leaving all
// evaluation to the Parameter Resolver.
func Register(reg *registry.Registry, ev evaluator.Evaluator) {
	reg.Register("core.noop", Noop{})
	reg.Register("core.set", SetData{})
	reg.Register("core.if", If{Eval: ev})
	reg.Register("core.merge", Merge{})
	reg.Register("core.loop_emit", LoopEmit{})
	reg.Register("core.http", HTTPRequest{})
	reg.Register("core.webhook_wait", WebhookWait{})
	reg.Register("core.sub_workflow", SubWorkflow{})
	reg.Register("core.schedule_wait", ScheduleWait{})
	reg.Register("core.trigger", ManualTrigger{})
}
