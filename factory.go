package prana

import (
	"database/sql"

	"github.com/prana-run/prana/internal/actions"
	"github.com/prana-run/prana/internal/evaluator"
	"github.com/prana-run/prana/internal/graph"
	"github.com/prana-run/prana/internal/middleware"
	"github.com/prana-run/prana/internal/registry"
	"github.com/prana-run/prana/internal/storage"
)

// Handler is re-exported so out-of-tree packages can implement custom
// action/trigger handlers without importing internal/registry.
type Handler = registry.Handler

// Registry is the Action Registry handlers are registered into before any
// workflow naming them can be compiled.
type Registry = registry.Registry

// NewRegistry builds a Registry pre-loaded with the built-in "core.*"
// handlers (trigger, noop, set, if, merge, loop_emit, http, webhook_wait,
// sub_workflow, schedule_wait). Callers register additional integrations on the returned
// Registry before compiling any Workflow that references them.
func NewRegistry() *Registry {
	reg := registry.New()
	actions.Register(reg, evaluator.New())
	return reg
}

// Compile runs the Graph Compiler over a Workflow, resolving every node's
// handler against reg and validating its connections (spec.md §4.1).
// Node params are not checked here; they are validated per dispatch.
func Compile(w Workflow, reg *Registry) (*graph.ExecutionGraph, error) {
	return graph.Compile(w, reg)
}

// Store is the persistence port: workflows and in-flight/finished
// executions (spec.md §4.9).
type Store = storage.Store

// NewMemoryStore builds a process-local Store, suitable for tests and the
// bundled examples.
func NewMemoryStore() Store {
	return storage.NewMemory()
}

// NewPostgresStore builds a Store backed by Postgres via uptrace/bun. It
// does not create the tables; the underlying adapter's Schema method does.
func NewPostgresStore(sqldb *sql.DB) Store {
	return storage.NewBun(sqldb)
}

// OpenPostgresStore dials Postgres directly from a DSN, the way the
// teacher's storage layer opens its own pool rather than asking the
// caller to.
func OpenPostgresStore(dsn string) Store {
	return storage.OpenBun(dsn)
}

// NewMiddlewarePipeline chains zero or more middleware in call order
// (spec.md §4.6). Pass NewMetrics/NewTrace/NewConsoleLogger instances
// alongside any custom Middleware.
func NewMiddlewarePipeline(chain ...middleware.Middleware) *middleware.Pipeline {
	return middleware.New(chain...)
}
