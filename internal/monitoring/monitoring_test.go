package monitoring_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prana-run/prana/internal/middleware"
	"github.com/prana-run/prana/internal/monitoring"
)

func noopNext(ctx context.Context, data map[string]any) (map[string]any, error) { return data, nil }

func TestMetrics_ShouldIncrementExecutionsStarted_OnExecutionStartedEvent(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := monitoring.NewMetrics(reg)

	_, err := m.Call(context.Background(), middleware.EventExecutionStarted, map[string]any{}, noopNext)

	require.NoError(t, err)
	count, err := testutil.GatherAndCount(reg, "prana_executions_started_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_ShouldLabelNodeCounters_ByNodeKey(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := monitoring.NewMetrics(reg)

	_, err := m.Call(context.Background(), middleware.EventNodeCompleted, map[string]any{"node_key": "step"}, noopNext)

	require.NoError(t, err)
	count, err := testutil.GatherAndCount(reg, "prana_nodes_executed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTrace_ShouldRecordEventsInOrder_PerExecutionID(t *testing.T) {
	trace := monitoring.NewTrace()

	_, err := trace.Call(context.Background(), middleware.EventExecutionStarted, map[string]any{"execution_id": "exec-1"}, noopNext)
	require.NoError(t, err)
	_, err = trace.Call(context.Background(), middleware.EventExecutionCompleted, map[string]any{"execution_id": "exec-1"}, noopNext)
	require.NoError(t, err)
	_, err = trace.Call(context.Background(), middleware.EventExecutionStarted, map[string]any{"execution_id": "exec-2"}, noopNext)
	require.NoError(t, err)

	entries := trace.For("exec-1")
	require.Len(t, entries, 2)
	assert.Equal(t, middleware.EventExecutionStarted, entries[0].Event)
	assert.Equal(t, middleware.EventExecutionCompleted, entries[1].Event)
	assert.Len(t, trace.For("exec-2"), 1)
}

func TestConsoleLogger_ShouldCallNextWithoutMutatingData(t *testing.T) {
	logger := monitoring.NewConsoleLogger(zerolog.Nop())

	out, err := logger.Call(context.Background(), middleware.EventNodeFailed, map[string]any{"node_key": "x"}, noopNext)

	require.NoError(t, err)
	assert.Equal(t, "x", out["node_key"])
}
