package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"workshift-engine/internal/collect"
	"workshift-engine/internal/collect/types"
	"workshift-engine/internal/config"
	"workshift-engine/internal/events"
	"workshift-engine/internal/httpapi"
	"workshift-engine/internal/pipeline"
	"workshift-engine/internal/risk"
	"workshift-engine/internal/scheduler"
	"workshift-engine/internal/store"
)

func main() {
	// Engine data dir: use env if provided (a desktop shell can pass one),
	// else local folder.
	dataDir := os.Getenv("WORKSHIFT_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// Single-instance guard. A second engine on the same data dir would
	// fight over sqlite and double-poll every source.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("instance lock: %v", err)
	}
	if !locked {
		log.Fatalf("another engine already holds %s", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		return config.Load(userCfgPath)
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	// Risk profiles: built-ins plus optional per-user overrides.
	profiles := risk.Profiles()
	profilesPath := filepath.Join(dataDir, "profiles.yml")
	if err := config.OverlayProfiles(profiles, profilesPath); err != nil {
		log.Fatalf("profiles overlay failed (%s): %v", profilesPath, err)
	}

	dbPath := filepath.Join(dataDir, "workshift.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal(err)
	}

	hub := events.NewHub()

	var collectStatus atomic.Value
	collectStatus.Store(types.CollectStatus{})

	runCollect := func(ctx context.Context, cfg config.Config, onAdded func(string, int)) (int, error) {
		return collect.RunOnce(ctx, db.Pool, cfg, onAdded)
	}
	runPipeline := func(ctx context.Context, cfg config.Config) (int64, pipeline.Bundle, error) {
		return runPipelineOnce(ctx, db.Pool, cfg, profiles)
	}

	deps := httpapi.Deps{
		DB:            db.Pool,
		Hub:           hub,
		CfgVal:        &cfgVal,
		CollectStatus: &collectStatus,
		UserCfgPath:   userCfgPath,
		LoadCfg:       loadCfg,
		RunCollect:    runCollect,
		RunPipeline:   runPipeline,
	}

	mux := httpapi.NewMux(deps)

	// Graceful shutdown endpoint for the desktop shell.
	token, err := randomToken(16)
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "engine.token"), []byte(token), 0o600); err != nil {
		log.Fatal(err)
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port(cfg))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Handler: httpapi.Chain(mux,
			httpapi.Recover,
			httpapi.RequestID,
			httpapi.AccessLog,
			httpapi.Cors,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}
	mux.HandleFunc("/shutdown", shutdownHandler(&token, srv))

	// Background loops.
	bg, cancelBG := context.WithCancel(context.Background())
	defer cancelBG()

	go scheduler.Every(bg, secondsOr(cfg.Polling.CollectSeconds, 6*3600), "collect", func(ctx context.Context) error {
		cur := cfgVal.Load().(config.Config)
		added, err := runCollect(ctx, cur, func(source string, n int) {
			hub.Publish(events.MakeEvent("", events.TypeObservationsAdded, 1,
				map[string]any{"source": source, "added": n}))
		})
		if err == nil {
			log.Printf("[collect] added=%d", added)
		}
		return err
	})

	go scheduler.Every(bg, secondsOr(cfg.Polling.RunSeconds, 24*3600), "pipeline", func(ctx context.Context) error {
		cur := cfgVal.Load().(config.Config)
		runID, b, err := runPipeline(ctx, cur)
		if runID != 0 {
			hub.Publish(events.MakeEvent("", events.TypeRunCompleted, 1, events.RunCompleted{
				RunID:     runID,
				Status:    string(b.Status),
				Forecasts: len(b.Forecasts),
				Scores:    len(b.Scores),
				Failures:  len(b.Failures),
			}))
		}
		return err
	})

	go scheduler.Every(bg, 24*time.Hour, "retention", func(ctx context.Context) error {
		cur := cfgVal.Load().(config.Config)
		if cur.Polling.RetentionDays <= 0 {
			return nil
		}
		deleted, err := store.CleanupOldObservations(db.Pool, cur.Polling.RetentionDays)
		if deleted > 0 {
			log.Printf("[retention] deleted=%d", deleted)
		}
		return err
	})

	log.Printf("engine listening on http://%s (db=%s)", addr, dbPath)
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func port(cfg config.Config) int {
	if cfg.App.Port > 0 {
		return cfg.App.Port
	}
	return 38502
}

func secondsOr(s, def int) time.Duration {
	if s <= 0 {
		s = def
	}
	return time.Duration(s) * time.Second
}
