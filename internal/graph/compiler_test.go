package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prana-run/prana/internal/actions"
	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/evaluator"
	"github.com/prana-run/prana/internal/graph"
	"github.com/prana-run/prana/internal/registry"
)

func newRegistry() *registry.Registry {
	reg := registry.New()
	actions.Register(reg, evaluator.New())
	return reg
}

func linearWorkflow() domain.Workflow {
	conns := domain.Connections{}
	conns.Add(domain.Connection{From: "trigger", FromPort: "main", To: "step", ToPort: "main"})
	return domain.Workflow{
		ID: "wf", Version: 1,
		Nodes: []domain.Node{
			{Key: "trigger", Type: "core.trigger"},
			{Key: "step", Type: "core.noop"},
		},
		Connections: conns,
	}
}

func TestCompile_ShouldSucceed_ForAValidLinearWorkflow(t *testing.T) {
	g, err := graph.Compile(linearWorkflow(), newRegistry())

	require.NoError(t, err)
	assert.Equal(t, "trigger", g.TriggerNodeKey)
	assert.Len(t, g.OutgoingFrom("trigger", "main"), 1)
}

func TestCompile_ShouldReject_WhenTwoNodesShareAKey(t *testing.T) {
	wf := linearWorkflow()
	wf.Nodes = append(wf.Nodes, domain.Node{Key: "step", Type: "core.noop"})

	_, err := graph.Compile(wf, newRegistry())

	require.Error(t, err)
	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCompile, derr.Kind)
}

func TestCompile_ShouldReject_WhenHandlerTypeIsUnknown(t *testing.T) {
	wf := linearWorkflow()
	wf.Nodes[1].Type = "does.not_exist"

	_, err := graph.Compile(wf, newRegistry())

	require.Error(t, err)
	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCompile, derr.Kind)
}

func TestCompile_ShouldReject_WhenNoTriggerNodePresent(t *testing.T) {
	wf := linearWorkflow()
	wf.Nodes[0].Type = "core.noop"
	wf.Connections = domain.Connections{}

	_, err := graph.Compile(wf, newRegistry())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one trigger")
}

func TestCompile_ShouldReject_WhenMoreThanOneTriggerNodePresent(t *testing.T) {
	wf := linearWorkflow()
	wf.Nodes = append(wf.Nodes, domain.Node{Key: "trigger2", Type: "core.trigger"})

	_, err := graph.Compile(wf, newRegistry())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one trigger")
}

func TestCompile_ShouldReject_WhenConnectionReferencesUnknownTargetNode(t *testing.T) {
	wf := linearWorkflow()
	wf.Connections.Add(domain.Connection{From: "step", FromPort: "main", To: "ghost", ToPort: "main"})

	_, err := graph.Compile(wf, newRegistry())

	require.Error(t, err)
	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "ghost", derr.NodeKey)
}

func TestCompile_ShouldReject_WhenConnectionUsesUndeclaredOutputPort(t *testing.T) {
	wf := linearWorkflow()
	wf.Connections.Add(domain.Connection{From: "trigger", FromPort: "nonexistent", To: "step", ToPort: "main"})

	_, err := graph.Compile(wf, newRegistry())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent")
}

func TestCompile_ShouldReject_WhenANodeIsUnreachableFromTrigger(t *testing.T) {
	wf := linearWorkflow()
	wf.Nodes = append(wf.Nodes, domain.Node{Key: "orphan", Type: "core.noop"})

	_, err := graph.Compile(wf, newRegistry())

	require.Error(t, err)
	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "orphan", derr.NodeKey)
}

func TestCompile_ShouldAllowSelfLoop_OnANodesOwnInputPort(t *testing.T) {
	conns := domain.Connections{}
	conns.Add(domain.Connection{From: "trigger", FromPort: "main", To: "loop", ToPort: "main"})
	conns.Add(domain.Connection{From: "loop", FromPort: "next", To: "loop", ToPort: "main"})
	wf := domain.Workflow{
		ID: "wf-loop", Version: 1,
		Nodes: []domain.Node{
			{Key: "trigger", Type: "core.trigger"},
			{Key: "loop", Type: "core.loop_emit"},
		},
		Connections: conns,
	}

	g, err := graph.Compile(wf, newRegistry())

	require.NoError(t, err)
	assert.Len(t, g.OutgoingFrom("loop", "next"), 1)
}

func TestCompile_ShouldBeDeterministic_AcrossRepeatedCompiles(t *testing.T) {
	wf := linearWorkflow()
	reg := newRegistry()

	g1, err := graph.Compile(wf, reg)
	require.NoError(t, err)
	g2, err := graph.Compile(wf, reg)
	require.NoError(t, err)

	assert.Equal(t, g1.NodeOrder, g2.NodeOrder)
}
