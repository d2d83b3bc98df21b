package storage_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prana-run/prana/internal/actions"
	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/engine"
	"github.com/prana-run/prana/internal/evaluator"
	"github.com/prana-run/prana/internal/graph"
	"github.com/prana-run/prana/internal/middleware"
	"github.com/prana-run/prana/internal/registry"
	"github.com/prana-run/prana/internal/storage"
	"github.com/prana-run/prana/pkg/builder"
)

func TestFromRecord_ShouldYieldIdenticalSchedulingDecision_AfterRebuildFromNodeExecutions(t *testing.T) {
	reg := registry.New()
	actions.Register(reg, evaluator.New())

	wf := builder.New("wf-roundtrip", "round trip", 1).
		Node("trigger", "core.trigger", nil).
		Node("wait", "core.webhook_wait", nil).
		Node("after", "core.noop", nil).
		ConnectMain("trigger", "wait").
		ConnectMain("wait", "after").
		Build()

	g, err := graph.Compile(wf, reg)
	require.NoError(t, err)

	// A control execution, run start-to-finish with no round trip, to
	// compare the rebuilt one against.
	control := engine.New(uuid.NewString(), g, nil, nil, domain.ModeSync)
	controlSched := engine.NewScheduler(control, evaluator.New(), middleware.New())
	controlOut := controlSched.Start(context.Background(), engine.Options{})
	require.True(t, controlOut.Suspended)
	controlOut = controlSched.Resume(context.Background(), map[string]any{"payload": map[string]any{"ok": true}})

	// The same execution, persisted mid-suspension, reloaded, and resumed
	// from a freshly rebuilt runtime instead of the in-memory one.
	exec := engine.New(uuid.NewString(), g, nil, nil, domain.ModeSync)
	sched := engine.NewScheduler(exec, evaluator.New(), middleware.New())
	out := sched.Start(context.Background(), engine.Options{})
	require.True(t, out.Suspended)

	store := storage.NewMemory()
	require.NoError(t, store.SaveExecution(context.Background(), storage.ToRecord(exec)))
	loaded, err := store.LoadExecution(context.Background(), exec.ID)
	require.NoError(t, err)

	rebuilt := storage.FromRecord(loaded, g)
	rebuiltSched := engine.NewScheduler(rebuilt, evaluator.New(), middleware.New())
	rebuiltOut := rebuiltSched.Resume(context.Background(), map[string]any{"payload": map[string]any{"ok": true}})

	assert.Equal(t, controlOut.Completed, rebuiltOut.Completed)
	assert.Equal(t, controlOut.Output, rebuiltOut.Output)
}

func TestFromRecord_ShouldNotRedispatchACompletedIntermediateNode_AfterRebuild(t *testing.T) {
	reg := registry.New()
	actions.Register(reg, evaluator.New())

	wf := builder.New("wf-roundtrip-intermediate", "round trip with completed intermediate", 1).
		Node("trigger", "core.trigger", nil).
		Node("set", "core.set", map[string]any{"values": map[string]any{"x": 1}}).
		Node("wait", "core.webhook_wait", nil).
		Node("after", "core.noop", nil).
		ConnectMain("trigger", "set").
		ConnectMain("set", "wait").
		ConnectMain("wait", "after").
		Build()

	g, err := graph.Compile(wf, reg)
	require.NoError(t, err)

	exec := engine.New(uuid.NewString(), g, nil, nil, domain.ModeSync)
	sched := engine.NewScheduler(exec, evaluator.New(), middleware.New())
	out := sched.Start(context.Background(), engine.Options{})
	require.True(t, out.Suspended)
	require.Len(t, exec.NodeExecutions["set"], 1)
	require.Equal(t, domain.NodeStatusCompleted, exec.NodeExecutions["set"][0].Status)

	store := storage.NewMemory()
	require.NoError(t, store.SaveExecution(context.Background(), storage.ToRecord(exec)))
	loaded, err := store.LoadExecution(context.Background(), exec.ID)
	require.NoError(t, err)

	rebuilt := storage.FromRecord(loaded, g)
	rebuiltSched := engine.NewScheduler(rebuilt, evaluator.New(), middleware.New())
	rebuiltOut := rebuiltSched.Resume(context.Background(), map[string]any{"payload": map[string]any{"ok": true}})

	require.True(t, rebuiltOut.Completed)
	assert.Len(t, rebuilt.NodeExecutions["set"], 1, "set must not be re-dispatched on resume after a round trip")
	assert.Equal(t, 0, rebuilt.NodeExecutions["set"][0].RunIndex)
}

func TestMemoryStore_ShouldReturnDueRetry_WhenResumeAtHasPassed(t *testing.T) {
	store := storage.NewMemory()
	ctx := context.Background()

	rec := storage.Record{
		ID:              "exec-1",
		WorkflowID:      "wf-1",
		Status:          domain.ExecutionSuspended,
		SuspendedNodeID: "flaky",
		NodeExecutions: map[string][]engine.NodeExecution{
			"flaky": {{
				NodeKey:        "flaky",
				Status:         domain.NodeStatusSuspended,
				SuspensionType: domain.SuspensionRetry,
				SuspensionData: map[string]any{"resume_at": int64(100)},
			}},
		},
	}
	require.NoError(t, store.SaveExecution(ctx, rec))

	due, err := store.DueRetries(ctx, 200)
	require.NoError(t, err)
	assert.Contains(t, due, "exec-1")

	notYetDue, err := store.DueRetries(ctx, 50)
	require.NoError(t, err)
	assert.NotContains(t, notYetDue, "exec-1")
}
