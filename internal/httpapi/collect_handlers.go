package httpapi

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"workshift-engine/internal/collect/types"
	"workshift-engine/internal/config"
	"workshift-engine/internal/events"
)

type CollectHandler struct {
	CfgVal        *atomic.Value // config.Config
	CollectStatus *atomic.Value // types.CollectStatus
	Hub           *events.Hub
	RunCollect    func(ctx context.Context, cfg config.Config, onAdded func(source string, added int)) (added int, err error)
}

func (h CollectHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.CollectStatus.Load().(types.CollectStatus)
	writeJSON(w, st)
}

func (h CollectHandler) Run(w http.ResponseWriter, r *http.Request) {
	st := h.CollectStatus.Load().(types.CollectStatus)
	if st.Running {
		writeJSON(w, map[string]any{"ok": false, "msg": "already running"})
		return
	}

	h.CollectStatus.Store(types.CollectStatus{
		LastRunAt: time.Now().Format(time.RFC3339),
		Running:   true,
		LastError: "",
		LastAdded: 0,
		LastOkAt:  st.LastOkAt,
	})

	go func() {
		cfg := h.CfgVal.Load().(config.Config)
		added, err := h.RunCollect(context.Background(), cfg, func(source string, n int) {
			h.Hub.Publish(events.MakeEvent("", events.TypeObservationsAdded, 1,
				map[string]any{"source": source, "added": n}))
		})

		now := time.Now().Format(time.RFC3339)
		next := h.CollectStatus.Load().(types.CollectStatus)
		next.Running = false
		next.LastRunAt = now
		next.LastAdded = added
		if err != nil {
			next.LastError = err.Error()
		} else {
			next.LastError = ""
			next.LastOkAt = now
		}
		h.CollectStatus.Store(next)
	}()

	writeJSON(w, map[string]any{"ok": true})
}
