// Package registry implements the Action Registry: lookup of action
// handlers by fully-qualified type, returning the handler's capability
// descriptor (spec.md §4.2).
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/prana-run/prana/internal/domain"
)

// ParamField describes one entry of a handler's declarative params schema.
type ParamField struct {
	Type     string
	Required bool
	Default  any
	Enum     []any
}

// ParamsSchema is a declarative map of field name to ParamField.
type ParamsSchema map[string]ParamField

// Result is what Execute/Resume return: a port-tagged success, a
// suspension request, or a port-tagged error.
type Result struct {
	Output      map[string]any
	Port        string // empty means "use the handler's default success port"
	Suspend     bool
	Suspension  Suspension
	Err         error
	ErrPort     string // empty means "no error port declared/connected"
}

// Suspension is the data a handler returns when it asks to suspend.
type Suspension struct {
	Kind domain.SuspensionKind
	Data map[string]any
}

// Ok builds a success Result on the handler's default port.
func Ok(output map[string]any) Result { return Result{Output: output} }

// OkPort builds a success Result on an explicit port.
func OkPort(output map[string]any, port string) Result {
	return Result{Output: output, Port: port}
}

// Suspend builds a suspend Result.
func Suspend(kind domain.SuspensionKind, data map[string]any) Result {
	return Result{Suspend: true, Suspension: Suspension{Kind: kind, Data: data}}
}

// Fail builds an error Result with no error port; use FailPort to route it.
func Fail(err error) Result { return Result{Err: err} }

// FailPort builds an error Result routed to a declared error port.
func FailPort(err error, port string) Result { return Result{Err: err, ErrPort: port} }

// Handler is the contract every action/trigger implementation satisfies
// (spec.md §6 "Handler (action) contract").
type Handler interface {
	Kind() domain.NodeKind
	InputPorts() []string
	OutputPorts() []string
	Suspendable() bool
	ParamsSchema() ParamsSchema

	// OptionalInputPorts names the subset of InputPorts that the ready-set
	// computation must not wait on (spec.md §4.5, §9 open question (c)).
	// Every input port is required unless listed here; a merge node lists
	// none (both its inputs are required for the join), while a node with
	// a genuinely optional secondary input declares it here.
	OptionalInputPorts() []string

	// Prepare runs once per execution per node, on the first invocation
	// only (run_index == 0). May be a no-op.
	Prepare(ctx context.Context, node domain.Node) (map[string]any, error)

	Execute(ctx context.Context, params map[string]any, evalCtx map[string]any) Result

	// Resume is called instead of Execute when a non-retry suspension is
	// re-entered. Required (by convention, panics if called) on handlers
	// that are not Suspendable().
	Resume(ctx context.Context, params map[string]any, evalCtx map[string]any, resumeData map[string]any) Result

	// ValidateParams optionally validates already-resolved params; a nil
	// return from errs means validation passed.
	ValidateParams(raw map[string]any) []error
}

// Descriptor is what Resolve returns: everything the engine needs to know
// about a handler without calling into it.
type Descriptor struct {
	Type            string
	Kind            domain.NodeKind
	InputPorts      []string
	OutputPorts     []string
	OptionalPorts   map[string]bool
	Suspendable     bool
	Schema          ParamsSchema
	Handler         Handler
}

// RequiresPort reports whether the ready-set computation must wait on the
// given declared input port before dispatching the node.
func (d Descriptor) RequiresPort(port string) bool {
	return !d.OptionalPorts[port]
}

// Registry is an immutable-after-boot map from fully-qualified handler type
// ("<integration>.<action>") to its Descriptor.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Descriptor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{handlers: make(map[string]Descriptor)}
}

// Register adds a handler under the given type string. Intended to be
// called only during boot; the registry is read-only thereafter from the
// engine's perspective even though Register itself is not further guarded.
func (r *Registry) Register(handlerType string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	optional := make(map[string]bool, len(h.OptionalInputPorts()))
	for _, p := range h.OptionalInputPorts() {
		optional[p] = true
	}
	r.handlers[handlerType] = Descriptor{
		Type:          handlerType,
		Kind:          h.Kind(),
		InputPorts:    h.InputPorts(),
		OutputPorts:   h.OutputPorts(),
		OptionalPorts: optional,
		Suspendable:   h.Suspendable(),
		Schema:        h.ParamsSchema(),
		Handler:       h,
	}
}

// Resolve looks up a handler by fully-qualified type.
func (r *Registry) Resolve(handlerType string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.handlers[handlerType]
	if !ok {
		return Descriptor{}, domain.NewError(domain.ErrHandlerNotFound,
			fmt.Sprintf("no handler registered for type %q", handlerType), nil)
	}
	return d, nil
}

// AllowsPort reports whether the handler declares the given output port,
// either literally or via the wildcard.
func (d Descriptor) AllowsPort(port string) bool {
	for _, p := range d.OutputPorts {
		if p == domain.WildcardPort || p == port {
			return true
		}
	}
	return false
}

// DefaultSuccessPort is the first declared output port, or "main" if the
// handler declares none (spec.md §4.4 step 5).
func (d Descriptor) DefaultSuccessPort() string {
	if len(d.OutputPorts) > 0 && d.OutputPorts[0] != domain.WildcardPort {
		return d.OutputPorts[0]
	}
	return domain.DefaultSuccessPort
}
