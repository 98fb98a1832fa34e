package httpapi

import (
	"database/sql"
	"net/http"
	"strconv"

	"workshift-engine/internal/store"
)

// ResultsHandler serves stored forecasts, risk scores, and raw observations.
type ResultsHandler struct {
	DB *sql.DB
}

func (h ResultsHandler) Forecasts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	if s := r.URL.Query().Get("run_id"); s != "" {
		runID, err := strconv.ParseInt(s, 10, 64)
		if err != nil || runID < 1 {
			WriteError(w, r, http.StatusBadRequest, "bad_run_id", "run_id must be a positive integer")
			return
		}
		fs, err := store.ListForecasts(r.Context(), h.DB, runID, category)
		if err != nil {
			WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
			return
		}
		writeJSON(w, map[string]any{"forecasts": fs})
		return
	}

	fs, err := store.LatestForecasts(r.Context(), h.DB, category)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{"forecasts": fs})
}

func (h ResultsHandler) RiskScores(w http.ResponseWriter, r *http.Request) {
	b, ok, err := store.LatestBundle(r.Context(), h.DB)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	if !ok {
		WriteError(w, r, http.StatusNotFound, "no_runs", "no runs recorded yet")
		return
	}
	writeJSON(w, map[string]any{"status": b.Status, "scores": b.Scores})
}

func (h ResultsHandler) Observations(w http.ResponseWriter, r *http.Request) {
	limit := 500
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 5000 {
			WriteError(w, r, http.StatusBadRequest, "bad_limit", "limit must be 1..5000")
			return
		}
		limit = n
	}

	obs, err := store.ListObservations(r.Context(), h.DB, limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{"observations": obs})
}
