package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/pkg/builder"
)

func TestBuild_ShouldProduceWorkflowWithDeclaredNodesAndConnections(t *testing.T) {
	wf := builder.New("wf-1", "my workflow", 2).
		Var("env", "prod").
		Node("trigger", "core.trigger", nil).
		Node("step", "core.set", map[string]any{"values": map[string]any{"x": 1}}).
		ConnectMain("trigger", "step").
		Build()

	assert.Equal(t, "wf-1", wf.ID)
	assert.Equal(t, 2, wf.Version)
	assert.Equal(t, "prod", wf.Variables["env"])
	require.Len(t, wf.Nodes, 2)
	assert.Equal(t, "trigger", wf.Nodes[0].Key)

	conns := wf.Connections["trigger"][domain.DefaultSuccessPort]
	require.Len(t, conns, 1)
	assert.Equal(t, "step", conns[0].To)
	assert.Equal(t, domain.DefaultSuccessPort, conns[0].ToPort)
}

func TestWithRetry_ShouldBuildRetrySettingsWithRetryOnFailedEnabled(t *testing.T) {
	settings := builder.WithRetry(3, 500)

	assert.True(t, settings.Retry.RetryOnFailed)
	assert.Equal(t, 3, settings.Retry.MaxRetries)
	assert.Equal(t, 500, settings.Retry.RetryDelayMs)
}

func TestNodeWithSettings_ShouldAttachSettingsToTheAppendedNode(t *testing.T) {
	wf := builder.New("wf-2", "retry workflow", 1).
		Node("trigger", "core.trigger", nil).
		NodeWithSettings("flaky", "custom.flaky", nil, builder.WithRetry(2, 10)).
		ConnectMain("trigger", "flaky").
		Build()

	require.Len(t, wf.Nodes, 2)
	assert.Equal(t, 2, wf.Nodes[1].Settings.Retry.MaxRetries)
}
