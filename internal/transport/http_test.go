package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/graph"
	"github.com/prana-run/prana/internal/storage"
	"github.com/prana-run/prana/internal/transport"
)

func TestServeResume_ShouldRejectNonPOSTMethods(t *testing.T) {
	h := transport.NewHandlers(storage.NewMemory(), func(string, int) (*graph.ExecutionGraph, error) { return nil, nil })

	req := httptest.NewRequest(http.MethodGet, "/executions/resume?id=exec-1", nil)
	rec := httptest.NewRecorder()
	h.ServeResume(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServeResume_ShouldRejectMissingIDQueryParam(t *testing.T) {
	h := transport.NewHandlers(storage.NewMemory(), func(string, int) (*graph.ExecutionGraph, error) { return nil, nil })

	req := httptest.NewRequest(http.MethodPost, "/executions/resume", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	h.ServeResume(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeResume_ShouldReturn404_WhenExecutionNotPersisted(t *testing.T) {
	h := transport.NewHandlers(storage.NewMemory(), func(string, int) (*graph.ExecutionGraph, error) { return nil, nil })

	req := httptest.NewRequest(http.MethodPost, "/executions/resume?id=missing", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	h.ServeResume(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeResume_ShouldReportWorkflowAndPayload_WhenExecutionResolves(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.SaveExecution(context.Background(), storage.Record{
		ID: "exec-1", WorkflowID: "wf-1", WorkflowVersion: 2,
		Status: domain.ExecutionSuspended,
	}))
	h := transport.NewHandlers(store, func(id string, v int) (*graph.ExecutionGraph, error) {
		assert.Equal(t, "wf-1", id)
		assert.Equal(t, 2, v)
		return &graph.ExecutionGraph{}, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/executions/resume?id=exec-1",
		bytes.NewBufferString(`{"payload":{"ok":true}}`))
	rec := httptest.NewRecorder()
	h.ServeResume(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "wf-1", body["workflow_id"])
	assert.Equal(t, float64(2), body["workflow_version"])
	assert.Equal(t, map[string]any{"ok": true}, body["payload"])
}
