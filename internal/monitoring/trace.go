package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/prana-run/prana/internal/middleware"
)

// TraceEntry is one recorded lifecycle event.
type TraceEntry struct {
	At    time.Time
	Event middleware.Event
	Data  map[string]any
}

// Trace is an in-memory, per-execution-id ordered event log: a cheap
// substitute for shipping events to a tracing backend, useful for tests
// and CLI inspection.
type Trace struct {
	mu      sync.Mutex
	entries map[string][]TraceEntry
}

// NewTrace creates an empty Trace recorder.
func NewTrace() *Trace {
	return &Trace{entries: make(map[string][]TraceEntry)}
}

func (t *Trace) Call(ctx context.Context, event middleware.Event, data map[string]any, next middleware.Next) (map[string]any, error) {
	execID, _ := data["execution_id"].(string)

	t.mu.Lock()
	t.entries[execID] = append(t.entries[execID], TraceEntry{At: time.Now(), Event: event, Data: data})
	t.mu.Unlock()

	return next(ctx, data)
}

// For returns the recorded trace for one execution, oldest first.
func (t *Trace) For(executionID string) []TraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceEntry, len(t.entries[executionID]))
	copy(out, t.entries[executionID])
	return out
}
