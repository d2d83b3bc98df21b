// Package transport is illustrative only (spec.md §1 Non-goals: "HTTP/
// webhook transport" is out of scope for the core; SPEC_FULL.md keeps a
// thin sketch of it so the domain dependencies it would use — JWT auth,
// websockets — have somewhere to live). None of the engine depends on
// this package; it depends on the engine.
package transport

import (
	"encoding/json"
	"net/http"

	"github.com/prana-run/prana/internal/graph"
	"github.com/prana-run/prana/internal/storage"
)

// Handlers wires the resume/webhook HTTP surface on top of a Store and a
// compiled-graph lookup, the way the teacher's HTTP layer sat directly on
// top of its storage package.
type Handlers struct {
	store   storage.Store
	resolve GraphResolver
}

// GraphResolver compiles (or looks up a cached compile of) the
// ExecutionGraph behind a workflow id/version, so the transport layer
// never needs to know about the Graph Compiler directly.
type GraphResolver func(workflowID string, version int) (*graph.ExecutionGraph, error)

// NewHandlers constructs the illustrative HTTP handlers.
func NewHandlers(store storage.Store, resolve GraphResolver) *Handlers {
	return &Handlers{store: store, resolve: resolve}
}

// ResumeRequest is the JSON body POSTed to /executions/resume?id=...; the
// workflow id and version are read from the stored execution record.
type ResumeRequest struct {
	Payload map[string]any `json:"payload"`
}

// ServeResume loads the persisted execution envelope, re-resolves its
// compiled graph and reports back the workflow/version it would resume
// against (spec.md §4.8). It stops short of actually invoking the Graph
// Executor: the engine's Scheduler lives one level up, in the public
// Executor type, which a real deployment would hold and call here behind
// an execution-id-keyed lock instead of constructing one per request.
func (h *Handlers) ServeResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id query parameter", http.StatusBadRequest)
		return
	}

	var req ResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := h.store.LoadExecution(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	if _, err := h.resolve(rec.WorkflowID, rec.WorkflowVersion); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"accepted":         true,
		"execution_id":     id,
		"workflow_id":      rec.WorkflowID,
		"workflow_version": rec.WorkflowVersion,
		"payload":          req.Payload,
	})
}
