// Package api exposes the engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mwien/CIfly/internal/catalog"
	"github.com/mwien/CIfly/internal/engine"
	"github.com/mwien/CIfly/internal/query"
	"github.com/mwien/CIfly/internal/ruletable"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 8 << 20

// readyThreshold is the queue utilization above which /readyz fails.
const readyThreshold = 0.8

// Reloader rebuilds the catalog from its configuration. The returned
// catalog is already active in the engine.
type Reloader interface {
	Reload() (*catalog.Catalog, error)
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng      *engine.Engine
	reloader Reloader
	mux      *http.ServeMux
}

// New creates an HTTP handler and registers all routes. reloader may be nil,
// in which case reload requests fail with 503.
func New(eng *engine.Engine, reloader Reloader, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{eng: eng, reloader: reloader, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/reach", h.reach)
	h.mux.HandleFunc("POST /v1/reach/batch", h.reachBatch)
	h.mux.HandleFunc("GET /v1/tables", h.listTables)
	h.mux.HandleFunc("GET /v1/tables/{name}", h.getTable)
	h.mux.HandleFunc("POST /v1/tables/reload", h.reloadTables)
	h.mux.HandleFunc("POST /v1/tables/check", h.checkTable)
	h.mux.HandleFunc("GET /v1/procedures", h.listProcedures)
	h.mux.HandleFunc("POST /v1/procedures/{name}", h.runProcedure)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(logger, h.mux)
}

// POST /v1/reach — synchronous single query.
func (h *Handler) reach(w http.ResponseWriter, r *http.Request) {
	var q query.Query
	if !decode(w, r, &q) {
		return
	}
	q.ReceivedAt = time.Now()

	res, err := h.eng.Reach(r.Context(), &q)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /v1/reach/batch — queries run concurrently, results in request order.
func (h *Handler) reachBatch(w http.ResponseWriter, r *http.Request) {
	var qs []*query.Query
	if !decode(w, r, &qs) {
		return
	}
	if len(qs) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one query")
		return
	}
	now := time.Now()
	for _, q := range qs {
		if q != nil {
			q.ReceivedAt = now
		}
	}

	br, err := h.eng.ReachBatch(r.Context(), qs)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, br)
}

// GET /v1/tables — summaries of every catalog table.
func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	cat := h.eng.Catalog()
	tables := make([]catalog.Summary, 0, cat.Len())
	for _, name := range cat.Names() {
		tables = append(tables, cat.Get(name).Summary())
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

// GET /v1/tables/{name}
func (h *Handler) getTable(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	entry := h.eng.Catalog().Get(name)
	if entry == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s %q", engine.ErrUnknownTable, name))
		return
	}
	writeJSON(w, http.StatusOK, entry.Summary())
}

// POST /v1/tables/reload — rebuild the catalog from disk.
func (h *Handler) reloadTables(w http.ResponseWriter, r *http.Request) {
	if h.reloader == nil {
		writeError(w, http.StatusServiceUnavailable, "reload is not configured")
		return
	}
	cat, err := h.reloader.Reload()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reloaded":     true,
		"tables_count": cat.Len(),
		"tables":       cat.Names(),
	})
}

// POST /v1/tables/check — compile a rule table sent as the raw body.
func (h *Handler) checkTable(w http.ResponseWriter, r *http.Request) {
	src, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read body: %s", err))
		return
	}
	rt, err := ruletable.Compile(string(src))
	if err != nil {
		writeCompileError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog.Describe(rt))
}

type procedureInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Sets        []string `json:"sets"`
}

// GET /v1/procedures
func (h *Handler) listProcedures(w http.ResponseWriter, r *http.Request) {
	reg := h.eng.Procedures()
	procs := make([]procedureInfo, 0)
	for _, name := range reg.Names() {
		p, err := reg.Get(name)
		if err != nil {
			continue
		}
		procs = append(procs, procedureInfo{Name: p.Name(), Description: p.Description(), Sets: p.Sets()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"procedures": procs})
}

// POST /v1/procedures/{name}
func (h *Handler) runProcedure(w http.ResponseWriter, r *http.Request) {
	var req query.ProcedureRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.eng.RunProcedure(r.Context(), r.PathValue("name"), &req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the query queue is more than 80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	if util > readyThreshold {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ready",
		"queue_utilization": util,
		"tables":            h.eng.Catalog().Len(),
	})
}

// decode reads a JSON body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return false
	}
	return true
}

func writeCompileError(w http.ResponseWriter, err error) {
	var ce *ruletable.CompileError
	if errors.As(err, &ce) {
		writeJSON(w, http.StatusUnprocessableEntity, compileErrorResponse{
			Error: err.Error(),
			Line:  ce.Line,
			Kind:  ce.Kind.String(),
			Text:  ce.Text,
		})
		return
	}
	writeError(w, http.StatusUnprocessableEntity, err.Error())
}
