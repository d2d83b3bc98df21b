// Command prana runs the illustrative HTTP/websocket transport in front
// of the workflow engine, wiring together configuration, storage,
// middleware and the Action Registry the way the teacher's own server
// command wires its REST API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	prana "github.com/prana-run/prana"
	"github.com/prana-run/prana/internal/config"
	"github.com/prana-run/prana/internal/logger"
	"github.com/prana-run/prana/internal/transport"
)

func main() {
	var (
		addr   = flag.String("addr", "", "listen address (overrides PRANA_ADDR)")
		pretty = flag.Bool("pretty", false, "console-format logs instead of JSON")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		println("failed to load configuration:", err.Error())
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log := logger.New(cfg.Engine.LogLevel, *pretty)
	log.Info().Str("addr", cfg.Server.Addr).Str("storage", cfg.Storage.Driver).Msg("starting prana server")

	var store prana.Store
	switch cfg.Storage.Driver {
	case "postgres":
		store = prana.OpenPostgresStore(cfg.Storage.Postgres)
		log.Info().Msg("using postgres store")
	default:
		store = prana.NewMemoryStore()
		log.Info().Msg("using in-memory store")
	}

	reg := prometheus.NewRegistry()
	metrics := prana.NewMetrics(reg)
	trace := prana.NewTrace()
	console := prana.NewConsoleLogger(log)
	mw := prana.NewMiddlewarePipeline(console, metrics, trace)

	executor := prana.NewExecutor(store,
		prana.WithMiddleware(mw),
		prana.WithMaxLoopIterations(cfg.Engine.MaxLoopIterations),
	)

	actionRegistry := prana.NewRegistry()

	auth := transport.NewAuth(cfg.Server.JWTSecret)
	hub := transport.NewHub()
	handlers := transport.NewHandlers(store, func(workflowID string, version int) (*prana.ExecutionGraph, error) {
		wf, err := store.LoadWorkflow(context.Background(), workflowID, version)
		if err != nil {
			return nil, err
		}
		return prana.Compile(wf, actionRegistry)
	})

	// The retry poller periodically asks the Store for suspended retries whose
	// resume_at has elapsed; a real deployment would dispatch each id
	// through the Executor's Resume path here.
	scheduler := cron.New()
	_, err = scheduler.AddFunc("@every 5s", func() {
		ids, err := store.DueRetries(context.Background(), time.Now().Unix())
		if err != nil {
			log.Warn().Err(err).Msg("due-retries scan failed")
			return
		}
		for _, id := range ids {
			log.Info().Str("execution_id", id).Msg("retry due")
		}
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to schedule retry poller")
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/executions/resume", auth.Wrap(http.HandlerFunc(handlers.ServeResume)))
	mux.Handle("/workflows/execute", auth.Wrap(http.HandlerFunc(serveExecute(store, actionRegistry, executor, hub))))
	mux.HandleFunc("/ws/executions", hub.ServeWS)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", httpServer.Addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}
	log.Info().Msg("server exited gracefully")
}

// executeRequest is the JSON body POSTed to /workflows/execute.
type executeRequest struct {
	Workflow prana.Workflow `json:"workflow"`
	Input    map[string]any `json:"input"`
}

// serveExecute compiles the posted workflow definition and runs it to
// completion, suspension or failure, broadcasting the outcome over the
// websocket hub the way a live execution-log viewer would observe it.
func serveExecute(store prana.Store, reg *prana.Registry, executor *prana.Executor, hub *transport.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req executeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		g, err := prana.Compile(req.Workflow, reg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		if err := store.SaveWorkflow(r.Context(), req.Workflow); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		out, err := executor.Start(r.Context(), g, prana.ModeSync, req.Workflow.Variables, req.Input)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		hub.Broadcast(out)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}
