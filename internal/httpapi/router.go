package httpapi

import "net/http"

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Health
	hh := HealthHandler{}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	// Pipeline runs
	rh := RunsHandler{DB: d.DB, Hub: d.Hub, CfgVal: d.CfgVal, RunPipeline: d.RunPipeline}
	mux.HandleFunc("/runs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  rh.List,
		http.MethodPost: rh.Trigger,
	}))
	mux.HandleFunc("/runs/latest", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.Latest,
	}))

	// Results
	fh := ResultsHandler{DB: d.DB}
	mux.HandleFunc("/forecasts", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: fh.Forecasts,
	}))
	mux.HandleFunc("/risk", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: fh.RiskScores,
	}))
	mux.HandleFunc("/observations", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: fh.Observations,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
		Hub:         d.Hub,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/adzuna", methodMux(map[string]http.HandlerFunc{
		http.MethodPost:   sh.SetAdzunaAppKey,
		http.MethodDelete: sh.DeleteAdzunaAppKey,
	}))
	mux.HandleFunc("/api/secrets/imap", methodMux(map[string]http.HandlerFunc{
		http.MethodPost:   sh.SetIMAPPassword,
		http.MethodDelete: sh.DeleteIMAPPassword,
	}))

	// Collectors
	clh := CollectHandler{
		CfgVal:        d.CfgVal,
		CollectStatus: d.CollectStatus,
		Hub:           d.Hub,
		RunCollect:    d.RunCollect,
	}
	mux.HandleFunc("/collect/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: clh.Status,
	}))
	mux.HandleFunc("/collect/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: clh.Run,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	// DB maintenance
	dh := DBHandler{DB: d.DB}
	mux.HandleFunc("/db/checkpoint", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: dh.Checkpoint,
	}))

	return mux
}
