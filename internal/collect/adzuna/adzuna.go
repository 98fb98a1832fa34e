package adzuna

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"workshift-engine/internal/collect/types"
	"workshift-engine/internal/collect/util"
	"workshift-engine/internal/store"
)

const baseURL = "https://api.adzuna.com/v1/api/jobs"

type Category struct {
	Title    string // search phrase, e.g. "data analyst"
	Category string // profile/category the count feeds
}

type Config struct {
	Country    string // adzuna country code, e.g. "us", "gb"
	AppID      string
	AppKey     string
	Categories []Category
}

type Fetcher struct {
	cfg     Config
	hc      *http.Client
	limiter *util.HostLimiter

	// swappable in tests
	now          func() time.Time
	baseOverride string
}

func New(cfg Config, limiter *util.HostLimiter) *Fetcher {
	return &Fetcher{
		cfg:     cfg,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
		now:     time.Now,
	}
}

func (f *Fetcher) Name() string { return "adzuna" }

// searchResponse is the slice of the Adzuna search payload the census
// needs: total matching postings for the query.
type searchResponse struct {
	Count float64 `json:"count"`
}

// Fetch pulls one postings-count observation per configured category. One
// category failing (bad slug, API hiccup) must not sink the others.
func (f *Fetcher) Fetch(ctx context.Context) (types.CollectResult, error) {
	res := types.CollectResult{Source: f.Name()}

	month := f.now().UTC().Format("2006-01")
	var lastErr error

	for _, cat := range f.cfg.Categories {
		count, err := f.countPostings(ctx, cat.Title)
		if err != nil {
			lastErr = err
			continue
		}
		res.Observations = append(res.Observations, store.Observation{
			SourceID: fmt.Sprintf("adzuna:%s:%s:%s", f.cfg.Country, cat.Category, month),
			RoleID:   cat.Title,
			Category: cat.Category,
			Ts:       month + "-01",
			Demand:   count,
			Region:   f.cfg.Country,
			Source:   f.Name(),
		})
	}

	if len(res.Observations) == 0 && lastErr != nil {
		return res, lastErr
	}
	return res, nil
}

func (f *Fetcher) countPostings(ctx context.Context, what string) (float64, error) {
	q := url.Values{}
	q.Set("app_id", f.cfg.AppID)
	q.Set("app_key", f.cfg.AppKey)
	q.Set("what", what)
	q.Set("results_per_page", "1")
	q.Set("content-type", "application/json")

	u := fmt.Sprintf("%s/%s/search/1?%s", f.base(), f.cfg.Country, q.Encode())

	if err := f.limiter.WaitURL(ctx, u); err != nil {
		return 0, err
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	req.Header.Set("User-Agent", "WorkShift/1.0 (+local)")

	resp, err := f.hc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("adzuna search %q: %w", what, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return 0, fmt.Errorf("adzuna search %q: status %d: %s", what, resp.StatusCode, string(b))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return 0, fmt.Errorf("adzuna search %q: decode: %w", what, err)
	}
	return sr.Count, nil
}

func (f *Fetcher) base() string {
	if f.baseOverride != "" {
		return f.baseOverride
	}
	return baseURL
}
