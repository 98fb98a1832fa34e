package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"sync/atomic"

	"workshift-engine/internal/config"
	"workshift-engine/internal/events"
	"workshift-engine/internal/pipeline"
	"workshift-engine/internal/store"
)

type RunsHandler struct {
	DB          *sql.DB
	Hub         *events.Hub
	CfgVal      *atomic.Value // config.Config
	RunPipeline func(ctx context.Context, cfg config.Config) (int64, pipeline.Bundle, error)
}

func (h RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			WriteError(w, r, http.StatusBadRequest, "bad_limit", "limit must be 1..500")
			return
		}
		limit = n
	}

	runs, err := store.ListRuns(r.Context(), h.DB, limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{"runs": runs})
}

func (h RunsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	b, ok, err := store.LatestBundle(r.Context(), h.DB)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	if !ok {
		WriteError(w, r, http.StatusNotFound, "no_runs", "no runs recorded yet")
		return
	}
	writeJSON(w, b)
}

// Trigger runs the pipeline synchronously. A deadline overrun still produces
// a saved run with partial results, so the response carries whatever the run
// managed to compute plus the error that ended it.
func (h RunsHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	cfg := h.CfgVal.Load().(config.Config)

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeRunStarted, 1, nil))

	runID, b, err := h.RunPipeline(r.Context(), cfg)
	if err != nil && runID == 0 {
		WriteError(w, r, http.StatusInternalServerError, "run_failed", err.Error())
		return
	}

	h.Hub.Publish(events.MakeEvent(reqID, events.TypeRunCompleted, 1, events.RunCompleted{
		RunID:     runID,
		Status:    string(b.Status),
		Forecasts: len(b.Forecasts),
		Scores:    len(b.Scores),
		Failures:  len(b.Failures),
	}))

	resp := map[string]any{
		"run_id": runID,
		"bundle": b,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, resp)
}
