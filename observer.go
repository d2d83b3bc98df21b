package prana

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/prana-run/prana/internal/middleware"
	"github.com/prana-run/prana/internal/monitoring"
)

// Middleware is re-exported so out-of-tree observers can plug into the
// Pipeline alongside the bundled Metrics/Trace/ConsoleLogger.
type Middleware = middleware.Middleware

// Event names fired by the Graph Executor and Node Executor (spec.md
// §4.6).
const (
	EventExecutionStarted   = middleware.EventExecutionStarted
	EventExecutionCompleted = middleware.EventExecutionCompleted
	EventExecutionFailed    = middleware.EventExecutionFailed
	EventExecutionSuspended = middleware.EventExecutionSuspended
	EventNodeStarted        = middleware.EventNodeStarted
	EventNodeCompleted      = middleware.EventNodeCompleted
	EventNodeFailed         = middleware.EventNodeFailed
	EventSubWorkflowRequested = middleware.EventSubWorkflowRequested
)

// Metrics is a Prometheus-backed middleware counting executions and node
// invocations by outcome.
type Metrics = monitoring.Metrics

// NewMetrics registers the engine's collectors against reg (pass
// prometheus.DefaultRegisterer, or a dedicated registry in tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return monitoring.NewMetrics(reg)
}

// Trace is an in-memory per-execution event log, useful for tests and for
// a debug endpoint that replays an execution's lifecycle.
type Trace = monitoring.Trace

// NewTrace builds an empty Trace.
func NewTrace() *Trace {
	return monitoring.NewTrace()
}

// NewConsoleLogger wraps a zerolog.Logger as a middleware that logs one
// line per lifecycle event.
func NewConsoleLogger(log zerolog.Logger) Middleware {
	return monitoring.NewConsoleLogger(log)
}
