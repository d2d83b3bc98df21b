// Package builder is a fluent, in-process way to assemble a
// domain.Workflow without hand-writing the nested connections map,
// grounded on the teacher's own workflow builder helper.
package builder

import "github.com/prana-run/prana/internal/domain"

// Workflow is a fluent wrapper over domain.Workflow under construction.
type Workflow struct {
	w domain.Workflow
}

// New starts a new Workflow builder.
func New(id, name string, version int) *Workflow {
	return &Workflow{w: domain.Workflow{
		ID:          id,
		Name:        name,
		Version:     version,
		Variables:   map[string]any{},
		Connections: domain.Connections{},
	}}
}

// Var sets an initial workflow variable.
func (b *Workflow) Var(name string, value any) *Workflow {
	b.w.Variables[name] = value
	return b
}

// Node appends a node with default settings (no retry, no port overrides).
func (b *Workflow) Node(key, handlerType string, params map[string]any) *Workflow {
	return b.NodeWithSettings(key, handlerType, params, domain.NodeSettings{})
}

// NodeWithSettings appends a node with explicit retry/port-override
// settings.
func (b *Workflow) NodeWithSettings(key, handlerType string, params map[string]any, settings domain.NodeSettings) *Workflow {
	b.w.Nodes = append(b.w.Nodes, domain.Node{
		Key:      key,
		Type:     handlerType,
		Params:   params,
		Settings: settings,
	})
	return b
}

// Connect wires (fromKey, fromPort) -> (toKey, toPort).
func (b *Workflow) Connect(fromKey, fromPort, toKey, toPort string) *Workflow {
	b.w.Connections.Add(domain.Connection{From: fromKey, FromPort: fromPort, To: toKey, ToPort: toPort})
	return b
}

// ConnectMain is shorthand for the common case of wiring two nodes' default
// "main" ports together.
func (b *Workflow) ConnectMain(fromKey, toKey string) *Workflow {
	return b.Connect(fromKey, domain.DefaultSuccessPort, toKey, domain.DefaultSuccessPort)
}

// Build returns the assembled Workflow.
func (b *Workflow) Build() domain.Workflow {
	return b.w
}

// WithRetry is a convenience for building a NodeSettings value inline.
func WithRetry(maxRetries, delayMs int) domain.NodeSettings {
	return domain.NodeSettings{Retry: domain.RetrySettings{
		RetryOnFailed: true, MaxRetries: maxRetries, RetryDelayMs: delayMs,
	}}
}
