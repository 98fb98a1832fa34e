package types

import (
	"context"

	"workshift-engine/internal/store"
)

type CollectResult struct {
	Source       string
	Observations []store.Observation
}

type CollectStatus struct {
	LastRunAt string `json:"last_run_at"`
	LastOkAt  string `json:"last_ok_at"`
	LastError string `json:"last_error"`
	LastAdded int    `json:"last_added"`
	Running   bool   `json:"running"`
}

type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (CollectResult, error)
}
