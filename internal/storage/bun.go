package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/engine"
)

// workflowRow and executionRow are bun's view of the two tables this
// adapter owns; the engine's own types never carry bun struct tags, so
// the mapping lives entirely here.
type workflowRow struct {
	bun.BaseModel `bun:"table:prana_workflows"`

	ID      string `bun:"id,pk"`
	Version int    `bun:"version,pk"`
	Def     []byte `bun:"definition,type:jsonb"`
}

type executionRow struct {
	bun.BaseModel `bun:"table:prana_executions"`

	ID              string `bun:"id,pk"`
	WorkflowID      string `bun:"workflow_id"`
	WorkflowVersion int    `bun:"workflow_version"`
	Status          string `bun:"status"`
	Mode            string `bun:"mode"`
	Vars            []byte `bun:"vars,type:jsonb"`
	SuspendedNodeID string `bun:"suspended_node_id"`
	NodeExecutions  []byte `bun:"node_executions,type:jsonb"`
}

// Bun is a PostgreSQL-backed Store built on uptrace/bun, in the same
// adapter shape the teacher used for its own persistence layer.
type Bun struct {
	db *bun.DB
}

// NewBun wraps an already-open *sql.DB (typically built from a pgdriver
// DSN) as a Store.
func NewBun(sqldb *sql.DB) *Bun {
	db := bun.NewDB(sqldb, pgdialect.New())
	return &Bun{db: db}
}

// OpenBun is a convenience constructor from a DSN, using pgdriver the way
// the teacher's storage package did.
func OpenBun(dsn string) *Bun {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return NewBun(sqldb)
}

// Schema creates the two tables this adapter owns, if absent.
func (b *Bun) Schema(ctx context.Context) error {
	if _, err := b.db.NewCreateTable().Model((*workflowRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	_, err := b.db.NewCreateTable().Model((*executionRow)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (b *Bun) SaveWorkflow(ctx context.Context, wf domain.Workflow) error {
	def, err := json.Marshal(wf)
	if err != nil {
		return err
	}
	row := &workflowRow{ID: wf.ID, Version: wf.Version, Def: def}
	_, err = b.db.NewInsert().Model(row).
		On("CONFLICT (id, version) DO UPDATE").
		Set("definition = EXCLUDED.definition").
		Exec(ctx)
	return err
}

func (b *Bun) LoadWorkflow(ctx context.Context, id string, version int) (domain.Workflow, error) {
	row := new(workflowRow)
	err := b.db.NewSelect().Model(row).Where("id = ? AND version = ?", id, version).Scan(ctx)
	if err != nil {
		return domain.Workflow{}, domain.NewError(domain.ErrCompile,
			fmt.Sprintf("loading workflow %s@%d", id, version), err)
	}
	var wf domain.Workflow
	if err := json.Unmarshal(row.Def, &wf); err != nil {
		return domain.Workflow{}, err
	}
	return wf, nil
}

func (b *Bun) SaveExecution(ctx context.Context, rec Record) error {
	vars, err := json.Marshal(rec.Vars)
	if err != nil {
		return err
	}
	history, err := json.Marshal(rec.NodeExecutions)
	if err != nil {
		return err
	}
	row := &executionRow{
		ID:              rec.ID,
		WorkflowID:      rec.WorkflowID,
		WorkflowVersion: rec.WorkflowVersion,
		Status:          string(rec.Status),
		Mode:            string(rec.Mode),
		Vars:            vars,
		SuspendedNodeID: rec.SuspendedNodeID,
		NodeExecutions:  history,
	}
	_, err = b.db.NewInsert().Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("vars = EXCLUDED.vars").
		Set("suspended_node_id = EXCLUDED.suspended_node_id").
		Set("node_executions = EXCLUDED.node_executions").
		Exec(ctx)
	return err
}

func (b *Bun) LoadExecution(ctx context.Context, id string) (Record, error) {
	row := new(executionRow)
	if err := b.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx); err != nil {
		return Record{}, domain.NewError(domain.ErrAction, fmt.Sprintf("loading execution %s", id), err)
	}

	var vars map[string]any
	if err := json.Unmarshal(row.Vars, &vars); err != nil {
		return Record{}, err
	}
	var history map[string][]engine.NodeExecution
	if err := json.Unmarshal(row.NodeExecutions, &history); err != nil {
		return Record{}, err
	}

	return Record{
		ID:              row.ID,
		WorkflowID:      row.WorkflowID,
		WorkflowVersion: row.WorkflowVersion,
		Status:          domain.ExecutionStatus(row.Status),
		Mode:            domain.ExecutionMode(row.Mode),
		Vars:            vars,
		SuspendedNodeID: row.SuspendedNodeID,
		NodeExecutions:  history,
	}, nil
}

func (b *Bun) DueRetries(ctx context.Context, nowUnix int64) ([]string, error) {
	var rows []executionRow
	err := b.db.NewSelect().Model(&rows).
		Where("status = ?", string(domain.ExecutionSuspended)).
		Where("suspended_node_id <> ''").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	var due []string
	for _, row := range rows {
		var history map[string][]engine.NodeExecution
		if err := json.Unmarshal(row.NodeExecutions, &history); err != nil {
			continue
		}
		entries := history[row.SuspendedNodeID]
		if len(entries) == 0 {
			continue
		}
		last := entries[len(entries)-1]
		if last.SuspensionType != domain.SuspensionRetry {
			continue
		}
		resumeAt, _ := last.SuspensionData["resume_at"].(float64)
		if int64(resumeAt) <= nowUnix {
			due = append(due, row.ID)
		}
	}
	return due, nil
}
