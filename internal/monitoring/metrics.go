// Package monitoring supplies the observability middlewares: Prometheus
// metrics, an in-memory execution trace, and a structured console logger.
// None of this is part of the core (spec.md's component table doesn't
// list it), but every one of them plugs in purely through the Middleware
// Pipeline (spec.md §4.9) without the engine knowing they exist.
package monitoring

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/prana-run/prana/internal/middleware"
)

// Metrics is a middleware.Middleware that records lifecycle counters via
// prometheus/client_golang. It records no durations.
type Metrics struct {
	executionsStarted   prometheus.Counter
	executionsCompleted prometheus.Counter
	executionsFailed    prometheus.Counter
	executionsSuspended prometheus.Counter
	nodesExecuted       *prometheus.CounterVec
	nodesFailed         *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg (typically
// prometheus.DefaultRegisterer) and returns the middleware.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		executionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "prana", Name: "executions_started_total",
			Help: "Total executions started.",
		}),
		executionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "prana", Name: "executions_completed_total",
			Help: "Total executions that reached completed.",
		}),
		executionsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "prana", Name: "executions_failed_total",
			Help: "Total executions that reached failed.",
		}),
		executionsSuspended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "prana", Name: "executions_suspended_total",
			Help: "Total execution_suspended events observed (not distinct executions).",
		}),
		nodesExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prana", Name: "nodes_executed_total",
			Help: "Total node_completed events, by node key.",
		}, []string{"node_key"}),
		nodesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prana", Name: "nodes_failed_total",
			Help: "Total node_failed events, by node key.",
		}, []string{"node_key"}),
	}
	reg.MustRegister(m.executionsStarted, m.executionsCompleted, m.executionsFailed,
		m.executionsSuspended, m.nodesExecuted, m.nodesFailed)
	return m
}

func (m *Metrics) Call(ctx context.Context, event middleware.Event, data map[string]any, next middleware.Next) (map[string]any, error) {
	switch event {
	case middleware.EventExecutionStarted:
		m.executionsStarted.Inc()
	case middleware.EventExecutionCompleted:
		m.executionsCompleted.Inc()
	case middleware.EventExecutionFailed:
		m.executionsFailed.Inc()
	case middleware.EventExecutionSuspended:
		m.executionsSuspended.Inc()
	case middleware.EventNodeCompleted:
		m.nodesExecuted.WithLabelValues(nodeKey(data)).Inc()
	case middleware.EventNodeFailed:
		m.nodesFailed.WithLabelValues(nodeKey(data)).Inc()
	}
	return next(ctx, data)
}

func nodeKey(data map[string]any) string {
	key, _ := data["node_key"].(string)
	if key == "" {
		return "unknown"
	}
	return key
}
