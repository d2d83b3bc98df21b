package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/prana-run/prana/internal/domain"
)

// Memory is a process-local Store, useful for tests and for running the
// engine without a database.
type Memory struct {
	mu         sync.RWMutex
	workflows  map[string]domain.Workflow
	executions map[string]Record
}

// NewMemory creates an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{
		workflows:  make(map[string]domain.Workflow),
		executions: make(map[string]Record),
	}
}

func workflowKey(id string, version int) string {
	return fmt.Sprintf("%s@%d", id, version)
}

func (m *Memory) SaveWorkflow(ctx context.Context, wf domain.Workflow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflows[workflowKey(wf.ID, wf.Version)] = wf
	return nil
}

func (m *Memory) LoadWorkflow(ctx context.Context, id string, version int) (domain.Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wf, ok := m.workflows[workflowKey(id, version)]
	if !ok {
		return domain.Workflow{}, domain.NewError(domain.ErrCompile,
			fmt.Sprintf("workflow %s@%d not found", id, version), nil)
	}
	return wf, nil
}

func (m *Memory) SaveExecution(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executions[rec.ID] = rec
	return nil
}

func (m *Memory) LoadExecution(ctx context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.executions[id]
	if !ok {
		return Record{}, domain.NewError(domain.ErrAction, fmt.Sprintf("execution %s not found", id), nil)
	}
	return rec, nil
}

func (m *Memory) DueRetries(ctx context.Context, nowUnix int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var due []string
	for id, rec := range m.executions {
		if rec.Status != domain.ExecutionSuspended || rec.SuspendedNodeID == "" {
			continue
		}
		entries := rec.NodeExecutions[rec.SuspendedNodeID]
		if len(entries) == 0 {
			continue
		}
		last := entries[len(entries)-1]
		if last.SuspensionType != domain.SuspensionRetry {
			continue
		}
		resumeAt, _ := last.SuspensionData["resume_at"].(int64)
		if resumeAt == 0 {
			if f, ok := last.SuspensionData["resume_at"].(int); ok {
				resumeAt = int64(f)
			}
		}
		if resumeAt <= nowUnix {
			due = append(due, id)
		}
	}
	return due, nil
}
