// Package storage is the persistence adapter boundary (spec.md §1: "out
// of scope... persistence adapter"). The core never imports this package;
// it exists so a caller can durably park and later reload an Execution
// envelope across a suspension.
package storage

import (
	"context"

	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/engine"
	"github.com/prana-run/prana/internal/graph"
)

// Record is the serializable Execution envelope (spec.md §6 "Execution
// envelope (persisted / transported)").
type Record struct {
	ID              string
	WorkflowID      string
	WorkflowVersion int
	Status          domain.ExecutionStatus
	Mode            domain.ExecutionMode
	Vars            map[string]any
	SuspendedNodeID string
	NodeExecutions  map[string][]engine.NodeExecution
}

// WorkflowRecord is the persisted form of a compiled-input Workflow.
type WorkflowRecord struct {
	ID      string
	Version int
	Def     domain.Workflow
}

// Store is what the outside scheduler uses to durably park and reload
// executions and workflow definitions between suspensions.
type Store interface {
	SaveWorkflow(ctx context.Context, wf domain.Workflow) error
	LoadWorkflow(ctx context.Context, id string, version int) (domain.Workflow, error)

	SaveExecution(ctx context.Context, rec Record) error
	LoadExecution(ctx context.Context, id string) (Record, error)

	// DueRetries returns execution ids whose last suspension is a retry
	// envelope with resume_at <= nowUnix, for the outside scheduler's
	// polling loop to pick up.
	DueRetries(ctx context.Context, nowUnix int64) ([]string, error)
}

// FromRecord reconstructs a live Execution from its persisted envelope,
// rebuilding runtime state purely from NodeExecutions (spec.md §6: "the
// runtime maps are recomputable from node_executions").
func FromRecord(rec Record, g *graph.ExecutionGraph) *engine.Execution {
	exec := engine.New(rec.ID, g, rec.Vars, nil, rec.Mode)
	exec.Status = rec.Status
	exec.SuspendedNodeID = rec.SuspendedNodeID
	exec.NodeExecutions = rec.NodeExecutions
	engine.Rebuild(exec)
	return exec
}

// ToRecord snapshots an in-flight Execution into its persisted shape.
func ToRecord(exec *engine.Execution) Record {
	return Record{
		ID:              exec.ID,
		WorkflowID:      exec.WorkflowID,
		WorkflowVersion: exec.WorkflowVersion,
		Status:          exec.Status,
		Mode:            exec.Mode,
		Vars:            exec.Vars,
		SuspendedNodeID: exec.SuspendedNodeID,
		NodeExecutions:  exec.NodeExecutions,
	}
}
