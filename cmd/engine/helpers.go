package main

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"log"
	"net"
	"net/http"
	"time"

	"workshift-engine/internal/config"
	"workshift-engine/internal/domain"
	"workshift-engine/internal/forecast"
	"workshift-engine/internal/ingest"
	"workshift-engine/internal/pipeline"
	"workshift-engine/internal/risk"
	"workshift-engine/internal/store"
)

// runPipelineOnce gathers inputs (stored observations plus any configured
// CSV drop), runs the pipeline, and persists the result. A run that times
// out is still saved with whatever partials it produced.
func runPipelineOnce(ctx context.Context, db *sql.DB, cfg config.Config, profiles map[string]risk.Profile) (int64, pipeline.Bundle, error) {
	raws, err := store.ListObservationsAsRaw(ctx, db)
	if err != nil {
		return 0, pipeline.Bundle{}, err
	}

	if cfg.Ingest.DemandCSV != "" {
		fromCSV, err := ingest.ReadDemandFile(cfg.Ingest.DemandCSV)
		if err != nil {
			log.Printf("[pipeline] demand csv skipped (%s): %v", cfg.Ingest.DemandCSV, err)
		} else {
			raws = append(raws, fromCSV...)
		}
	}

	var vectors []domain.RiskFeatureVector
	for _, roleID := range risk.RoleIDs(profiles) {
		vectors = append(vectors, risk.Vector(roleID, profiles[roleID]))
	}

	if cfg.Ingest.RiskCSV != "" {
		fromCSV, err := ingest.ReadRiskReferenceFile(cfg.Ingest.RiskCSV)
		if err != nil {
			log.Printf("[pipeline] risk csv skipped (%s): %v", cfg.Ingest.RiskCSV, err)
		} else {
			vectors = mergeVectors(vectors, fromCSV)
		}
	}

	opts := pipeline.Options{
		Forecast: forecast.Options{
			Horizon:         cfg.Pipeline.Horizon,
			MinObservations: cfg.Pipeline.MinObservations,
			SeasonLength:    cfg.Pipeline.SeasonLength,
			Interval:        cfg.Pipeline.Interval,
		},
		Workers: cfg.Pipeline.Workers,
	}
	if cfg.Pipeline.DeadlineSeconds > 0 {
		opts.Deadline = time.Duration(cfg.Pipeline.DeadlineSeconds) * time.Second
	}

	b, runErr := pipeline.Run(ctx, raws, vectors, opts)

	saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	runID, saveErr := store.SaveBundle(saveCtx, db, opts.Forecast.Horizon, b)
	if saveErr != nil {
		if runErr != nil {
			log.Printf("[pipeline] run error before save failure: %v", runErr)
		}
		return 0, b, saveErr
	}

	return runID, b, runErr
}

// mergeVectors lets a risk-reference CSV override profile-derived vectors
// role by role; roles the profiles don't know are appended in file order.
func mergeVectors(base, overrides []domain.RiskFeatureVector) []domain.RiskFeatureVector {
	byRole := make(map[string]int, len(base))
	for i, v := range base {
		byRole[v.RoleID] = i
	}
	for _, v := range overrides {
		if i, ok := byRole[v.RoleID]; ok {
			base[i] = v
			continue
		}
		byRole[v.RoleID] = len(base)
		base = append(base, v)
	}
	return base
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func shutdownHandler(token *string, srv *http.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Local-only guard (covers typical desktop usage)
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			// RemoteAddr can sometimes be just a host; fall back safely
			host = r.RemoteAddr
		}
		if host != "127.0.0.1" && host != "::1" && host != "localhost" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		// Token guard
		got := r.Header.Get("X-Shutdown-Token")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(*token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Respond immediately, then shutdown asynchronously
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("shutting down\n"))

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}
}
