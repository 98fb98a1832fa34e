package forecast

import (
	"math"

	"workshift-engine/internal/domain"
)

const (
	DefaultMinObservations = 3
	DefaultSeasonLength    = 12   // monthly series, yearly seasonality
	DefaultInterval        = 1.96 // ~95% band
)

type Options struct {
	Horizon         int
	MinObservations int     // categories below this fail with InsufficientDataError
	SeasonLength    int     // 0 disables the seasonal component
	Interval        float64 // z multiplier for the uncertainty band
}

func (o Options) withDefaults() Options {
	if o.MinObservations <= 0 {
		o.MinObservations = DefaultMinObservations
	}
	if o.SeasonLength < 0 {
		o.SeasonLength = 0
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	return o
}

// model is a fitted additive trend+seasonality decomposition.
type model struct {
	intercept float64
	slope     float64
	seasonal  []float64 // empty when the series is too short for a full cycle pair
	sigma     float64   // residual std deviation
	n         int
}

// Category fits one category's time-ordered series and forecasts the next
// opts.Horizon periods. Output length is exactly the horizon, and every
// result satisfies 0 <= lower <= point <= upper. No randomness anywhere:
// the same series always yields the same forecast.
func Category(category string, series []domain.JobRecord, opts Options) ([]domain.ForecastResult, error) {
	opts = opts.withDefaults()
	if len(series) < opts.MinObservations {
		return nil, &domain.InsufficientDataError{
			Category: category,
			Have:     len(series),
			Need:     opts.MinObservations,
		}
	}
	if opts.Horizon <= 0 {
		return []domain.ForecastResult{}, nil
	}

	y := make([]float64, len(series))
	for i, r := range series {
		y[i] = r.DemandCount
	}

	m := fit(y, opts.SeasonLength)

	out := make([]domain.ForecastResult, 0, opts.Horizon)
	for h := 1; h <= opts.Horizon; h++ {
		point := m.predict(m.n - 1 + h)

		// Band widens with distance from the observed window.
		spread := opts.Interval * m.sigma * math.Sqrt(1+float64(h)/float64(m.n))
		lower := point - spread
		upper := point + spread

		// Demand is never negative; re-order after clamping so the
		// bound invariant survives even for a negative trend.
		if lower < 0 {
			lower = 0
		}
		if point < lower {
			point = lower
		}
		if upper < point {
			upper = point
		}

		out = append(out, domain.ForecastResult{
			Category:      category,
			HorizonIndex:  h,
			PointEstimate: point,
			LowerBound:    lower,
			UpperBound:    upper,
		})
	}
	return out, nil
}

func fit(y []float64, seasonLength int) model {
	n := len(y)
	m := model{n: n}

	// Least-squares line on (t, y).
	var sumT, sumY, sumTT, sumTY float64
	for t, v := range y {
		ft := float64(t)
		sumT += ft
		sumY += v
		sumTT += ft * ft
		sumTY += ft * v
	}
	fn := float64(n)
	denom := fn*sumTT - sumT*sumT
	if denom != 0 {
		m.slope = (fn*sumTY - sumT*sumY) / denom
	}
	m.intercept = (sumY - m.slope*sumT) / fn

	// Centered seasonal means on the detrended series, only when at
	// least two full cycles are observed.
	params := 2
	if seasonLength >= 2 && n >= 2*seasonLength {
		seasonal := make([]float64, seasonLength)
		counts := make([]int, seasonLength)
		for t, v := range y {
			k := t % seasonLength
			seasonal[k] += v - (m.intercept + m.slope*float64(t))
			counts[k]++
		}
		var mean float64
		for k := range seasonal {
			seasonal[k] /= float64(counts[k])
			mean += seasonal[k]
		}
		mean /= float64(seasonLength)
		for k := range seasonal {
			seasonal[k] -= mean
		}
		m.seasonal = seasonal
		params += seasonLength - 1
	}

	// Residual variance drives the uncertainty band.
	var ss float64
	for t, v := range y {
		r := v - m.predict(t)
		ss += r * r
	}
	dof := n - params
	if dof < 1 {
		dof = 1
	}
	m.sigma = math.Sqrt(ss / float64(dof))
	return m
}

func (m model) predict(t int) float64 {
	v := m.intercept + m.slope*float64(t)
	if len(m.seasonal) > 0 {
		v += m.seasonal[t%len(m.seasonal)]
	}
	return v
}
