package httpapi

import (
	"context"
	"database/sql"
	"sync/atomic"

	"workshift-engine/internal/config"
	"workshift-engine/internal/events"
	"workshift-engine/internal/pipeline"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	// Atomic stores
	CfgVal        *atomic.Value // stores config.Config
	CollectStatus *atomic.Value // stores types.CollectStatus

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// Entrypoints (injected for testability)
	RunCollect  func(ctx context.Context, cfg config.Config, onAdded func(source string, added int)) (added int, err error)
	RunPipeline func(ctx context.Context, cfg config.Config) (runID int64, b pipeline.Bundle, err error)
}
