// Package graph implements the Graph Compiler: converting a declarative
// Workflow into an immutable ExecutionGraph with pre-computed port maps
// and dependency data (spec.md §4.1).
package graph

import (
	"fmt"

	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/registry"
)

// ExecutionGraph is the compiled, immutable form of a Workflow.
type ExecutionGraph struct {
	WorkflowID      string
	WorkflowVersion int
	TriggerNodeKey  string

	// Nodes is key-indexed for O(1) lookup, but NodeOrder preserves the
	// workflow's declared node order for deterministic ready-set scans.
	Nodes    map[string]domain.Node
	NodeOrder []string

	// ConnectionMap is (from_key, from_port) -> []Connection.
	ConnectionMap map[portKey][]domain.Connection

	// ReverseConnectionMap is to_key -> []Connection (every inbound edge,
	// regardless of source port).
	ReverseConnectionMap map[string][]domain.Connection

	// DependencyGraph is node -> set of nodes that must have produced data
	// on some port reaching it, collapsing port detail.
	DependencyGraph map[string]map[string]bool

	// descriptors caches each node's resolved handler descriptor so the
	// engine never has to re-resolve mid-execution.
	descriptors map[string]registry.Descriptor
}

type portKey struct {
	node string
	port string
}

// Descriptor returns the pre-resolved handler descriptor for a node key.
func (g *ExecutionGraph) Descriptor(nodeKey string) (registry.Descriptor, bool) {
	d, ok := g.descriptors[nodeKey]
	return d, ok
}

// OutgoingFrom returns the connections leaving (nodeKey, port).
func (g *ExecutionGraph) OutgoingFrom(nodeKey, port string) []domain.Connection {
	return g.ConnectionMap[portKey{nodeKey, port}]
}

// Incoming returns every connection arriving at nodeKey, across all ports.
func (g *ExecutionGraph) Incoming(nodeKey string) []domain.Connection {
	return g.ReverseConnectionMap[nodeKey]
}

// OutgoingAny returns every connection leaving nodeKey, regardless of
// source port; used by callers (e.g. rank computation) that only need
// forward reachability, not per-port delivery.
func (g *ExecutionGraph) OutgoingAny(nodeKey string) []domain.Connection {
	var out []domain.Connection
	for k, conns := range g.ConnectionMap {
		if k.node == nodeKey {
			out = append(out, conns...)
		}
	}
	return out
}

// RequiredInputPorts returns a node's declared input ports that are not
// marked optional for readiness purposes (spec.md §4.5).
func (g *ExecutionGraph) RequiredInputPorts(nodeKey string) []string {
	desc := g.descriptors[nodeKey]
	var required []string
	for _, p := range desc.InputPorts {
		if desc.RequiresPort(p) {
			required = append(required, p)
		}
	}
	return required
}

// Compile validates a Workflow and builds its ExecutionGraph. Iteration
// orders are stable (insertion-order-preserving) so that replays match
// (spec.md §4.1 "Determinism").
func Compile(w domain.Workflow, reg *registry.Registry) (*ExecutionGraph, error) {
	g := &ExecutionGraph{
		WorkflowID:            w.ID,
		WorkflowVersion:       w.Version,
		Nodes:                 make(map[string]domain.Node, len(w.Nodes)),
		ConnectionMap:         make(map[portKey][]domain.Connection),
		ReverseConnectionMap:  make(map[string][]domain.Connection),
		DependencyGraph:       make(map[string]map[string]bool),
		descriptors:           make(map[string]registry.Descriptor, len(w.Nodes)),
	}

	triggerCount := 0
	for _, n := range w.Nodes {
		if _, dup := g.Nodes[n.Key]; dup {
			return nil, domain.NewNodeError(domain.ErrCompile, n.Key, "duplicate node key", nil)
		}
		desc, err := reg.Resolve(n.Type)
		if err != nil {
			return nil, domain.NewNodeError(domain.ErrCompile, n.Key,
				fmt.Sprintf("unknown handler type %q", n.Type), err)
		}
		g.Nodes[n.Key] = n
		g.NodeOrder = append(g.NodeOrder, n.Key)
		g.descriptors[n.Key] = desc
		g.DependencyGraph[n.Key] = make(map[string]bool)

		if desc.Kind == domain.NodeKindTrigger {
			triggerCount++
			g.TriggerNodeKey = n.Key
		}
	}

	if triggerCount != 1 {
		return nil, domain.NewError(domain.ErrCompile,
			fmt.Sprintf("workflow must have exactly one trigger node, found %d", triggerCount), nil)
	}

	for fromKey := range w.Connections {
		if _, ok := g.Nodes[fromKey]; !ok {
			return nil, domain.NewNodeError(domain.ErrCompile, fromKey, "connection references unknown source node", nil)
		}
	}

	for _, fromKey := range g.NodeOrder {
		byPort := w.Connections[fromKey]
		for _, port := range sortedPortNames(byPort) {
			for _, conn := range byPort[port] {
				if _, ok := g.Nodes[conn.From]; !ok {
					return nil, domain.NewNodeError(domain.ErrCompile, conn.From, "connection references unknown source node", nil)
				}
				if _, ok := g.Nodes[conn.To]; !ok {
					return nil, domain.NewNodeError(domain.ErrCompile, conn.To, "connection references unknown target node", nil)
				}
				fromDesc := g.descriptors[conn.From]
				if !fromDesc.AllowsPort(conn.FromPort) {
					return nil, domain.NewNodeError(domain.ErrCompile, conn.From,
						fmt.Sprintf("node has no declared output port %q", conn.FromPort), nil)
				}

				key := portKey{conn.From, conn.FromPort}
				g.ConnectionMap[key] = append(g.ConnectionMap[key], conn)
				g.ReverseConnectionMap[conn.To] = append(g.ReverseConnectionMap[conn.To], conn)
				g.DependencyGraph[conn.To][conn.From] = true
			}
		}
	}

	if err := checkReachability(g); err != nil {
		return nil, err
	}

	return g, nil
}

// sortedPortNames returns byPort's keys in a stable order. Workflow JSON
// connections are decoded into a Go map, which has no inherent order; we
// sort lexically so that two compiles of the same workflow always walk
// connections identically.
func sortedPortNames(byPort map[string][]domain.Connection) []string {
	ports := make([]string, 0, len(byPort))
	for p := range byPort {
		ports = append(ports, p)
	}
	for i := 1; i < len(ports); i++ {
		for j := i; j > 0 && ports[j-1] > ports[j]; j-- {
			ports[j-1], ports[j] = ports[j], ports[j-1]
		}
	}
	return ports
}

// checkReachability rejects nodes unreachable from the trigger, other than
// the trigger itself (spec.md §3 ExecutionGraph invariants).
func checkReachability(g *ExecutionGraph) error {
	visited := map[string]bool{g.TriggerNodeKey: true}
	queue := []string{g.TriggerNodeKey}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for port := range byAnyPort(g, cur) {
			for _, conn := range g.ConnectionMap[portKey{cur, port}] {
				if !visited[conn.To] {
					visited[conn.To] = true
					queue = append(queue, conn.To)
				}
			}
		}
	}

	for _, key := range g.NodeOrder {
		if !visited[key] {
			return domain.NewNodeError(domain.ErrCompile, key, "node is unreachable from the trigger", nil)
		}
	}
	return nil
}

func byAnyPort(g *ExecutionGraph, nodeKey string) map[string]bool {
	desc := g.descriptors[nodeKey]
	ports := make(map[string]bool, len(desc.OutputPorts))
	for _, p := range desc.OutputPorts {
		if p == domain.WildcardPort {
			// Wildcard handlers may emit any connected port; scan every
			// ConnectionMap entry keyed by this node instead.
			for k := range g.ConnectionMap {
				if k.node == nodeKey {
					ports[k.port] = true
				}
			}
			continue
		}
		ports[p] = true
	}
	return ports
}
