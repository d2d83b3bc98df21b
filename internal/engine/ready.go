package engine

import "github.com/prana-run/prana/internal/graph"

// ranks assigns each node a topological rank by BFS discovery order from
// the trigger (spec.md §4.5 "deterministic ordering"). It doesn't need to
// be the exact longest-path rank — only stable and consistent with
// forward reachability — since it exists purely to break ties among nodes
// that become ready in the same scheduling cycle.
func ranks(g *graph.ExecutionGraph) map[string]int {
	rank := map[string]int{g.TriggerNodeKey: 0}
	queue := []string{g.TriggerNodeKey}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, conn := range g.OutgoingAny(cur) {
			if _, seen := rank[conn.To]; seen {
				continue
			}
			rank[conn.To] = rank[cur] + 1
			queue = append(queue, conn.To)
		}
	}
	return rank
}

// selectReady computes the ready set (spec.md §4.5), in deterministic
// (topological_rank, insertion_order) order.
func (s *Scheduler) selectReady() []string {
	var ready []string
	for _, key := range s.exec.Graph.NodeOrder {
		if s.isReady(key) {
			ready = append(ready, key)
		}
	}

	// Stable-sort by rank; NodeOrder already provides the insertion-order
	// tiebreak, so an insertion sort keyed only on rank is sufficient.
	for i := 1; i < len(ready); i++ {
		for j := i; j > 0 && s.rank[ready[j-1]] > s.rank[ready[j]]; j-- {
			ready[j-1], ready[j] = ready[j], ready[j-1]
		}
	}
	return ready
}

func (s *Scheduler) isReady(nodeKey string) bool {
	if nodeKey == s.exec.SuspendedNodeID {
		return false
	}

	inputs := s.exec.PendingInputs[nodeKey]
	if len(inputs) == 0 {
		return false
	}

	for _, port := range s.exec.Graph.RequiredInputPorts(nodeKey) {
		if _, ok := inputs[port]; !ok {
			return false
		}
	}
	return true
}
