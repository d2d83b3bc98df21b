// Package engine is the Graph Executor and Node Executor (spec.md §4.4,
// §4.5): the workflow-level scheduling loop and the single-node lifecycle
// it dispatches against the compiled ExecutionGraph.
package engine

import (
	"time"

	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/graph"
)

// NodeExecution is one invocation record (spec.md §3). A node may appear
// many times under loops; under retry the *last* entry for a node is
// replaced rather than appended (spec.md §9 "Per-node execution history").
type NodeExecution struct {
	NodeKey        string
	ExecutionIndex int
	RunIndex       int
	AttemptNumber  int
	Status         domain.NodeExecutionStatus
	Input          map[string]any
	Output         map[string]any
	EmittedPort    string
	Error          *domain.Error
	SuspensionType domain.SuspensionKind
	SuspensionData map[string]any
	Params         map[string]any
	StartedAt      time.Time
	FinishedAt     time.Time
}

// activePath is a (node_key, port) pair that has fired at least once.
type activePath struct {
	Node string
	Port string
}

// Execution is the mutable aggregate the Graph Executor owns exclusively
// (spec.md §3). Callers only ever observe snapshots returned from Start,
// Resume, or Cancel.
type Execution struct {
	ID              string
	WorkflowID      string
	WorkflowVersion int
	Mode            domain.ExecutionMode
	Status          domain.ExecutionStatus
	Vars            map[string]any
	Graph           *graph.ExecutionGraph
	NodeExecutions  map[string][]NodeExecution
	SuspendedNodeID string
	Error           *domain.Error

	// Runtime state (spec.md §3 "Runtime state"), rebuildable from
	// NodeExecutions by Rebuild.
	ExecutedNodes []string
	ActivePaths   map[activePath]bool
	PendingInputs map[string]map[string]any
	Env           map[string]any

	// Preparation holds each node's prepare() output, computed once per
	// execution on its first invocation (spec.md §4.4 step 4).
	Preparation map[string]map[string]any

	nextExecutionIndex int
}

// New creates a fresh, not-yet-started Execution over a compiled graph.
func New(id string, g *graph.ExecutionGraph, vars map[string]any, env map[string]any, mode domain.ExecutionMode) *Execution {
	return &Execution{
		ID:              id,
		WorkflowID:      g.WorkflowID,
		WorkflowVersion: g.WorkflowVersion,
		Mode:            mode,
		Status:          domain.ExecutionPending,
		Vars:            domain.CloneMap(vars),
		Graph:           g,
		NodeExecutions:  make(map[string][]NodeExecution),
		ActivePaths:     make(map[activePath]bool),
		PendingInputs:   make(map[string]map[string]any),
		Env:             domain.CloneMap(env),
		Preparation:     make(map[string]map[string]any),
	}
}

// RunIndexFor is the 0-based count of *completed* prior invocations of a
// node (spec.md §4.6) — retry-suspended attempts of the same invocation do
// not advance it, since they replace rather than append their entry.
func (e *Execution) RunIndexFor(nodeKey string) int {
	count := 0
	for _, ne := range e.NodeExecutions[nodeKey] {
		if ne.Status == domain.NodeStatusCompleted {
			count++
		}
	}
	return count
}

// lastEntry returns the most recent NodeExecution for a node, if any.
func (e *Execution) lastEntry(nodeKey string) (NodeExecution, bool) {
	entries := e.NodeExecutions[nodeKey]
	if len(entries) == 0 {
		return NodeExecution{}, false
	}
	return entries[len(entries)-1], true
}

// appendEntry adds a new invocation record, assigning the next
// execution_index.
func (e *Execution) appendEntry(ne NodeExecution) {
	ne.ExecutionIndex = e.nextExecutionIndex
	e.nextExecutionIndex++
	e.NodeExecutions[ne.NodeKey] = append(e.NodeExecutions[ne.NodeKey], ne)
}

// replaceLastEntry overwrites the last record for a node (the resume/retry
// re-entry path, spec.md §4.8), preserving its execution_index.
func (e *Execution) replaceLastEntry(ne NodeExecution) {
	entries := e.NodeExecutions[ne.NodeKey]
	if len(entries) == 0 {
		e.appendEntry(ne)
		return
	}
	ne.ExecutionIndex = entries[len(entries)-1].ExecutionIndex
	entries[len(entries)-1] = ne
}

// markActive records that (nodeKey, port) has fired.
func (e *Execution) markActive(nodeKey, port string) {
	e.ActivePaths[activePath{nodeKey, port}] = true
}

// markExecuted appends nodeKey to ExecutedNodes on every completion,
// including re-runs within a loop: spec.md §8's invariant is
// len(ExecutedNodes) == completed-NodeExecution count, so this is the
// ordered, possibly-repeating visit list, not a distinct-nodes set.
func (e *Execution) markExecuted(nodeKey string) {
	e.ExecutedNodes = append(e.ExecutedNodes, nodeKey)
}

// consumeInputs removes and returns a node's pending inputs, implementing
// spec.md §4.6: "upstream values are consumed at the moment a node begins
// execution".
func (e *Execution) consumeInputs(nodeKey string) map[string]any {
	in := e.PendingInputs[nodeKey]
	delete(e.PendingInputs, nodeKey)
	if in == nil {
		return map[string]any{}
	}
	return in
}

// deliver writes an emitted (node, port) value into every downstream
// node's pending_inputs, per the compiled connection map.
func (e *Execution) deliver(fromKey, fromPort string, output map[string]any) {
	for _, conn := range e.Graph.OutgoingFrom(fromKey, fromPort) {
		if e.PendingInputs[conn.To] == nil {
			e.PendingInputs[conn.To] = make(map[string]any)
		}
		e.PendingInputs[conn.To][conn.ToPort] = output
	}
}
