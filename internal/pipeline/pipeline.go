package pipeline

import (
	"context"
	"errors"
	"log"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"workshift-engine/internal/domain"
	"workshift-engine/internal/forecast"
	"workshift-engine/internal/normalize"
	"workshift-engine/internal/risk"
)

// Status is the terminal state of one run.
type Status string

const (
	StatusCompleted          Status = "completed"
	StatusPartiallyCompleted Status = "partially_completed"
	StatusFailed             Status = "failed"
)

// UnitKind tells failure consumers whether a unit was a forecast category
// or a risk role.
type UnitKind string

const (
	UnitCategory UnitKind = "category"
	UnitRole     UnitKind = "role"
	UnitRecord   UnitKind = "record"
)

// Failure is one (unit, error) pair collected during a run.
type Failure struct {
	Kind UnitKind `json:"kind"`
	Unit string   `json:"unit"`
	Err  string   `json:"error"`
}

// Bundle is the merged result set a run hands to the presentation layer.
// Recomputed fresh every run, never mutated afterwards.
type Bundle struct {
	Status    Status                  `json:"status"`
	Forecasts []domain.ForecastResult `json:"forecasts"`
	Scores    []domain.RiskScore      `json:"scores"`
	Failures  []Failure               `json:"failures"`
	StartedAt time.Time               `json:"started_at"`
	Elapsed   time.Duration           `json:"elapsed"`
}

type Options struct {
	Forecast forecast.Options
	Deadline time.Duration // overall run budget, 0 means none
	Workers  int           // fan-out width, defaults to GOMAXPROCS
}

// Run drives normalize -> (forecast per category, risk per role) -> merge.
// Unit failures never abort sibling units; only a normalization pass that
// leaves zero usable records fails the run. A blown deadline returns the
// partials computed so far together with a TimeoutError.
func Run(ctx context.Context, raws []domain.RawRecord, vectors []domain.RiskFeatureVector, opts Options) (Bundle, error) {
	start := time.Now()
	bundle := Bundle{StartedAt: start.UTC()}

	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	var cancel context.CancelFunc
	if opts.Deadline > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Deadline)
		defer cancel()
	}

	norm := normalize.Run(raws)
	for _, serr := range norm.Errors {
		bundle.Failures = append(bundle.Failures, Failure{
			Kind: UnitRecord,
			Unit: serr.Source,
			Err:  serr.Error(),
		})
	}
	if len(norm.Records) == 0 {
		bundle.Status = StatusFailed
		bundle.Elapsed = time.Since(start)
		log.Printf("[pipeline] failed: no usable records (raw=%d bad=%d)", len(raws), len(norm.Errors))
		return bundle, nil
	}

	groups := normalize.GroupByCategory(norm.Records)
	categories := make([]string, 0, len(groups))
	for cat := range groups {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	// Every worker owns its input slice and writes only its own output
	// slot, so no locking is needed anywhere below.
	type catResult struct {
		forecasts []domain.ForecastResult
		err       error
	}
	catOut := make([]catResult, len(categories))

	type roleResult struct {
		score domain.RiskScore
		err   error
	}
	roleOut := make([]roleResult, len(vectors))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i, cat := range categories {
		i, cat := i, cat
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				catOut[i].err = err
				return nil
			}
			catOut[i].forecasts, catOut[i].err = forecast.Category(cat, groups[cat], opts.Forecast)
			return nil
		})
	}
	for i, vec := range vectors {
		i, vec := i, vec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				roleOut[i].err = err
				return nil
			}
			roleOut[i].score, roleOut[i].err = risk.Score(vec)
			return nil
		})
	}
	_ = g.Wait()

	timedOut := ctx.Err() != nil

	for i, cat := range categories {
		res := catOut[i]
		switch {
		case res.err == nil:
			bundle.Forecasts = append(bundle.Forecasts, res.forecasts...)
		case skipped(res.err):
			// unit never ran before the deadline; not a unit failure
		default:
			bundle.Failures = append(bundle.Failures, Failure{Kind: UnitCategory, Unit: cat, Err: res.err.Error()})
		}
	}
	var roleFailures []Failure
	for i, vec := range vectors {
		res := roleOut[i]
		switch {
		case res.err == nil:
			bundle.Scores = append(bundle.Scores, res.score)
		case skipped(res.err):
		default:
			roleFailures = append(roleFailures, Failure{Kind: UnitRole, Unit: vec.RoleID, Err: res.err.Error()})
		}
	}
	// Failure order is part of the bundle contract: records, then
	// categories, then roles, the latter two sorted by unit.
	sort.Slice(roleFailures, func(i, j int) bool { return roleFailures[i].Unit < roleFailures[j].Unit })
	bundle.Failures = append(bundle.Failures, roleFailures...)

	if len(bundle.Failures) == 0 && !timedOut {
		bundle.Status = StatusCompleted
	} else {
		bundle.Status = StatusPartiallyCompleted
	}
	bundle.Elapsed = time.Since(start)

	log.Printf("[pipeline] %s categories=%d roles=%d forecasts=%d scores=%d failures=%d dur_ms=%d",
		bundle.Status, len(categories), len(vectors), len(bundle.Forecasts), len(bundle.Scores),
		len(bundle.Failures), bundle.Elapsed.Milliseconds())

	if timedOut {
		// A blown deadline is the run's own fault; a canceled parent
		// context (client gone, shutdown) is not.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return bundle, &domain.TimeoutError{Elapsed: time.Since(start)}
		}
		return bundle, ctx.Err()
	}
	return bundle, nil
}

func skipped(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
