package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scoby_collective/internal/config"
	"scoby_collective/internal/engine"
	journalsqlite "scoby_collective/internal/journal/sqlite"
	"scoby_collective/internal/logx"
)

// host bundles what the HTTP surface and the cadence loops need. The API
// is read-only observability; the engine is driven in-process.
type host struct {
	cfg     config.Config
	engine  *engine.Engine
	journal *journalsqlite.Journal
}

func newRouter(h *host, promReg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(loggingMiddleware)

	r.Get("/healthz", h.handleHealth)
	r.Get("/config", h.handleConfig)
	r.Get("/api/metrics", h.handleMetrics)
	r.Get("/api/workers", h.handleWorkers)
	r.Get("/api/workers/{id}", h.handleWorkerByID)
	r.Get("/api/tasks", h.handleTasks)
	r.Get("/api/tasks/{id}", h.handleTaskByID)
	r.Get("/api/events", h.handleEvents)
	r.Get("/api/snapshots", h.handleSnapshots)
	r.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	return r
}

func (h *host) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *host) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"path": h.cfg.Path,
		"raw":  h.cfg.Raw,
	})
}

func (h *host) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Metrics())
}

func (h *host) handleWorkers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.ListWorkers())
}

func (h *host) handleWorkerByID(w http.ResponseWriter, r *http.Request) {
	worker, err := h.engine.GetWorker(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, worker)
}

func (h *host) handleTasks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.ListTasks())
}

func (h *host) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	task, err := h.engine.GetTask(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *host) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.journal.ListRecentEvents(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *host) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.journal.ListSnapshots(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{
		"error": err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logx.Log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Dur("elapsed", time.Since(start)).Msg("http")
	})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
