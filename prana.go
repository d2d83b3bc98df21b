// Package prana is a workflow execution engine: compile a declarative
// Workflow into an ExecutionGraph, run it through an Executor, and
// suspend/resume it across retries, webhooks and sub-workflow calls.
//
// The internal/ tree does the work; this file and its siblings
// (executor.go, factory.go, observer.go) are the public surface a caller
// imports, mirroring the teacher's top-level facade over its own
// internal engine.
package prana

import (
	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/graph"
)

// Re-exported domain types so callers never need to import internal/domain
// directly to build or inspect a Workflow.
type (
	Workflow      = domain.Workflow
	Node          = domain.Node
	NodeSettings  = domain.NodeSettings
	RetrySettings = domain.RetrySettings
	Connection    = domain.Connection
	Connections   = domain.Connections
	ExecutionMode = domain.ExecutionMode
	Error         = domain.Error
)

// ExecutionGraph is the compiled, immutable form of a Workflow produced
// by Compile.
type ExecutionGraph = graph.ExecutionGraph

// Execution lifecycle statuses, re-exported for callers inspecting an
// Outcome or a stored Record.
const (
	StatusPending   = domain.ExecutionPending
	StatusRunning   = domain.ExecutionRunning
	StatusSuspended = domain.ExecutionSuspended
	StatusCompleted = domain.ExecutionCompleted
	StatusFailed    = domain.ExecutionFailed
)

// Execution modes a workflow can be started in.
const (
	ModeSync  = domain.ModeSync
	ModeAsync = domain.ModeAsync
)

// DefaultSuccessPort is the port name used when a handler doesn't route
// its output to an explicitly named port.
const DefaultSuccessPort = domain.DefaultSuccessPort
