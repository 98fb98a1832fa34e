package boards

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"workshift-engine/internal/collect/types"
	"workshift-engine/internal/collect/util"
	"workshift-engine/internal/store"
)

type Board struct {
	Slug     string // boards.greenhouse.io/<slug>
	Name     string // display name
	Category string // category the count feeds
}

type Config struct {
	Boards []Board
}

// Fetcher counts open roles on greenhouse-style boards. One census pass
// yields one demand observation per board, stamped to the current day.
type Fetcher struct {
	cfg     Config
	hc      *http.Client
	limiter *util.HostLimiter

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

func (f *Fetcher) Name() string { return "boards" }

func (f *Fetcher) Fetch(ctx context.Context) (types.CollectResult, error) {
	res := types.CollectResult{Source: f.Name()}

	day := f.now().UTC().Format("2006-01-02")
	var lastErr error

	for _, b := range f.cfg.Boards {
		count, err := f.countBoard(ctx, b)
		if err != nil {
			// don't fail the whole census because one board is down
			lastErr = err
			continue
		}
		res.Observations = append(res.Observations, store.Observation{
			SourceID: fmt.Sprintf("boards:%s:%s", b.Slug, day),
			RoleID:   b.Name,
			Category: b.Category,
			Ts:       day,
			Demand:   float64(count),
			Source:   f.Name(),
		})
	}

	if len(res.Observations) == 0 && lastErr != nil {
		return res, lastErr
	}
	return res, nil
}

var jobIDRe = regexp.MustCompile(`/jobs/(\d+)`)

func (f *Fetcher) countBoard(ctx context.Context, b Board) (int, error) {
	boardURL := fmt.Sprintf("%s/%s", f.base(), b.Slug)

	if err := f.limiter.WaitURL(ctx, boardURL); err != nil {
		return 0, err
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, boardURL, nil)
	req.Header.Set("User-Agent", "WorkShift/1.0 (+local)")

	resp, err := f.hc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("board get %s: %w", b.Slug, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("board %s status %d", b.Slug, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("board %s parse html: %w", b.Slug, err)
	}

	// Boards usually link postings as /<slug>/jobs/<id> or /jobs/<id>.
	// Count distinct job ids so duplicated anchors don't inflate demand.
	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		m := jobIDRe.FindStringSubmatch(strings.TrimSpace(href))
		if m == nil {
			return
		}
		seen[m[1]] = true
	})
	return len(seen), nil
}

func (f *Fetcher) base() string {
	if f.baseOverride != "" {
		return f.baseOverride
	}
	return "https://boards.greenhouse.io"
}
