package engine

import "github.com/prana-run/prana/internal/domain"

// Rebuild recomputes ExecutedNodes, ActivePaths and PendingInputs purely
// from NodeExecutions (spec.md §8 "Round-trips": discarding in-memory
// runtime and rebuilding from node_executions yields an identical
// scheduling decision). It replays every recorded invocation in
// execution_index order, alternating consume and emit exactly as the live
// engine does: a node's own entry — whatever it completed, suspended or
// failed as — means it had already consumed whatever was pending for it at
// that point (spec.md §4.6 "upstream values are consumed at the moment a
// node begins execution"), so that delivery is retired before a completed
// entry's output is (re-)delivered downstream. Without the consume step, a
// completed *intermediate* node (one whose own upstream also completed)
// would have its producer's output re-delivered into PendingInputs with
// nothing left to retire it, making selectReady see it as ready again and
// re-dispatch it on every subsequent Rebuild.
func Rebuild(e *Execution) {
	e.ExecutedNodes = nil
	e.ActivePaths = make(map[activePath]bool)
	e.PendingInputs = make(map[string]map[string]any)

	type stamped struct {
		idx int
		key string
		ne  NodeExecution
	}
	var ordered []stamped
	for key, entries := range e.NodeExecutions {
		for _, ne := range entries {
			ordered = append(ordered, stamped{ne.ExecutionIndex, key, ne})
		}
	}
	// Insertion sort by execution_index: these lists are small and this
	// keeps Rebuild dependency-free and deterministic.
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j-1].idx > ordered[j].idx; j-- {
			ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
		}
	}

	// Continue execution_index numbering after the highest recorded entry.
	e.nextExecutionIndex = 0
	if len(ordered) > 0 {
		e.nextExecutionIndex = ordered[len(ordered)-1].idx + 1
	}

	for _, s := range ordered {
		delete(e.PendingInputs, s.key)

		if s.ne.Status == domain.NodeStatusCompleted {
			e.markExecuted(s.key)
			e.markActive(s.key, s.ne.EmittedPort)
			e.deliver(s.key, s.ne.EmittedPort, s.ne.Output)
		}
	}
}
