// Package middleware implements the Middleware Pipeline (spec.md §4.9): a
// pre-configured ordered list of synchronous lifecycle hooks, each able to
// transform event data or short-circuit by not calling next.
package middleware

import "context"

// Event identifies one lifecycle transition a middleware may observe.
type Event string

const (
	EventExecutionStarted     Event = "execution_started"
	EventExecutionCompleted   Event = "execution_completed"
	EventExecutionFailed      Event = "execution_failed"
	EventExecutionSuspended   Event = "execution_suspended"
	EventNodeStarted          Event = "node_started"
	EventNodeCompleted        Event = "node_completed"
	EventNodeFailed           Event = "node_failed"
	EventSubWorkflowRequested Event = "sub_workflow_requested"
)

// Next is what a middleware calls to continue the chain; it returns the
// (possibly further-transformed) data from the rest of the pipeline.
type Next func(ctx context.Context, data map[string]any) (map[string]any, error)

// Middleware is the three-arg call contract (spec.md §9: "as an interface
// abstraction, never inheritance").
type Middleware interface {
	Call(ctx context.Context, event Event, data map[string]any, next Next) (map[string]any, error)
}

// Func adapts a plain function to Middleware.
type Func func(ctx context.Context, event Event, data map[string]any, next Next) (map[string]any, error)

func (f Func) Call(ctx context.Context, event Event, data map[string]any, next Next) (map[string]any, error) {
	return f(ctx, event, data, next)
}

// Pipeline is an ordered, immutable-after-construction chain of middlewares.
// Ordering is configuration, not declaration: Pipeline just runs whatever
// order it was built with.
type Pipeline struct {
	chain []Middleware
}

// New builds a Pipeline from middlewares in firing order.
func New(chain ...Middleware) *Pipeline {
	return &Pipeline{chain: chain}
}

// Fire runs the full chain for one event, terminating with a no-op Next
// that returns data unchanged. A middleware that doesn't invoke next stops
// the chain there; its returned data is what Fire ultimately returns.
func (p *Pipeline) Fire(ctx context.Context, event Event, data map[string]any) (map[string]any, error) {
	return p.run(ctx, event, data, 0)
}

func (p *Pipeline) run(ctx context.Context, event Event, data map[string]any, idx int) (map[string]any, error) {
	if idx >= len(p.chain) {
		return data, nil
	}
	return p.chain[idx].Call(ctx, event, data, func(ctx context.Context, data map[string]any) (map[string]any, error) {
		return p.run(ctx, event, data, idx+1)
	})
}
