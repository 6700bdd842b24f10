// Package bls implements a box least squares periodogram for detecting
// box-shaped periodic dips in a light curve (Kovács, Zucker & Mazeh 2002).
// The search pipelines treat it as a primitive: hand it a cleaned curve and
// period bounds, get back ranked periods with power, depth and duration.
package bls

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/transitscope/transitscope/internal/lightcurve"
)

// Params bounds and tunes a periodogram search.
type Params struct {
	// MinPeriod and MaxPeriod bound the trial periods in days.
	MinPeriod float64
	MaxPeriod float64

	// FrequencyFactor oversamples the trial frequency grid relative to the
	// independent spacing 1/span. Defaults to 100.
	FrequencyFactor float64

	// Bins is the number of phase bins per trial period. Defaults to 200.
	Bins int

	// MinDurationFrac and MaxDurationFrac bound the box width as a fraction
	// of the trial period. Default to 0.01 and 0.1.
	MinDurationFrac float64
	MaxDurationFrac float64
}

func (p Params) withDefaults() Params {
	if p.FrequencyFactor <= 0 {
		p.FrequencyFactor = 100
	}
	if p.Bins <= 0 {
		p.Bins = 200
	}
	if p.MinDurationFrac <= 0 {
		p.MinDurationFrac = 0.01
	}
	if p.MaxDurationFrac <= 0 {
		p.MaxDurationFrac = 0.1
	}
	return p
}

// Periodogram holds the per-trial-period search results.
type Periodogram struct {
	Periods  []float64
	Power    []float64
	Depth    []float64 // fractional depth of the best box at each period
	Duration []float64 // box duration in days at each period
}

// Peak is one ranked periodogram maximum.
type Peak struct {
	Period   float64
	Power    float64
	Depth    float64
	Duration float64
}

// Search runs the periodogram over a uniform frequency grid. The curve
// should already be detrended and normalized. The context is checked
// between trial periods so long searches can be cancelled.
func Search(ctx context.Context, lc lightcurve.LightCurve, params Params) (Periodogram, error) {
	params = params.withDefaults()

	if !(params.MinPeriod > 0) || math.IsInf(params.MinPeriod, 0) {
		return Periodogram{}, &lightcurve.InvalidParameterError{Param: "min_period", Reason: "must be positive and finite"}
	}
	if !(params.MaxPeriod > params.MinPeriod) || math.IsInf(params.MaxPeriod, 0) {
		return Periodogram{}, &lightcurve.InvalidParameterError{Param: "max_period", Reason: "must exceed min_period and be finite"}
	}
	if params.MaxDurationFrac <= params.MinDurationFrac || params.MaxDurationFrac >= 1 {
		return Periodogram{}, &lightcurve.InvalidParameterError{Param: "max_duration_frac", Reason: "must satisfy min < max < 1"}
	}
	n := lc.Len()
	if n < 3 {
		return Periodogram{}, &lightcurve.InvalidParameterError{Param: "light_curve", Reason: "too few samples for a period search"}
	}

	span := lc.Span()
	if span <= 0 {
		return Periodogram{}, &lightcurve.InvalidParameterError{Param: "light_curve", Reason: "zero time span"}
	}

	// Uniform frequency grid, oversampled against the independent spacing.
	fMin := 1 / params.MaxPeriod
	fMax := 1 / params.MinPeriod
	df := 1 / (params.FrequencyFactor * span)
	nTrials := int((fMax-fMin)/df) + 1

	// Weighted, mean-subtracted flux. Uniform weights summing to one.
	w := 1 / float64(n)
	mean := stat.Mean(lc.Flux, nil)
	x := make([]float64, n)
	for i, f := range lc.Flux {
		x[i] = f - mean
	}

	bins := params.Bins
	minWidth := int(params.MinDurationFrac * float64(bins))
	if minWidth < 1 {
		minWidth = 1
	}
	maxWidth := int(params.MaxDurationFrac*float64(bins)) + 1
	if maxWidth <= minWidth {
		maxWidth = minWidth + 1
	}

	pg := Periodogram{
		Periods:  make([]float64, 0, nTrials),
		Power:    make([]float64, 0, nTrials),
		Depth:    make([]float64, 0, nTrials),
		Duration: make([]float64, 0, nTrials),
	}

	binR := make([]float64, bins)
	binS := make([]float64, bins)
	// Prefix sums over a doubled bin array so boxes can wrap phase 1 -> 0.
	prefR := make([]float64, 2*bins+1)
	prefS := make([]float64, 2*bins+1)

	for trial := 0; trial < nTrials; trial++ {
		if trial%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return Periodogram{}, err
			}
		}

		f := fMin + float64(trial)*df
		period := 1 / f

		for b := 0; b < bins; b++ {
			binR[b] = 0
			binS[b] = 0
		}
		for i := 0; i < n; i++ {
			phase := math.Mod(lc.Time[i]*f, 1.0)
			if phase < 0 {
				phase += 1.0
			}
			b := int(phase * float64(bins))
			if b >= bins {
				b = bins - 1
			}
			binR[b] += w
			binS[b] += w * x[i]
		}

		for b := 0; b < 2*bins; b++ {
			prefR[b+1] = prefR[b] + binR[b%bins]
			prefS[b+1] = prefS[b] + binS[b%bins]
		}

		var bestSR, bestR, bestS float64
		for start := 0; start < bins; start++ {
			for width := minWidth; width <= maxWidth; width++ {
				r := prefR[start+width] - prefR[start]
				if r <= 0 || r >= 1 {
					continue
				}
				s := prefS[start+width] - prefS[start]
				sr := s * s / (r * (1 - r))
				if sr > bestSR {
					bestSR = sr
					bestR = r
					bestS = s
				}
			}
		}

		var depth, duration float64
		if bestR > 0 {
			// Best-fit box levels give depth = -s/(r(1-r)); a dip has s < 0.
			depth = -bestS / (bestR * (1 - bestR))
			duration = bestR * period
		}

		pg.Periods = append(pg.Periods, period)
		pg.Power = append(pg.Power, math.Sqrt(bestSR))
		pg.Depth = append(pg.Depth, depth)
		pg.Duration = append(pg.Duration, duration)
	}

	return pg, nil
}

// Peak returns the trial with the maximum power.
func (pg Periodogram) Peak() Peak {
	if len(pg.Power) == 0 {
		return Peak{}
	}
	i := floats.MaxIdx(pg.Power)
	return Peak{
		Period:   pg.Periods[i],
		Power:    pg.Power[i],
		Depth:    pg.Depth[i],
		Duration: pg.Duration[i],
	}
}

// TopPeaks returns up to n ranked maxima, masking all trials within
// exclusionRadius (days) of each accepted peak before taking the next one.
func (pg Periodogram) TopPeaks(n int, exclusionRadius float64) []Peak {
	masked := make([]bool, len(pg.Power))
	var peaks []Peak

	for len(peaks) < n {
		best := -1
		for i, p := range pg.Power {
			if masked[i] {
				continue
			}
			if best < 0 || p > pg.Power[best] {
				best = i
			}
		}
		if best < 0 {
			break
		}
		peaks = append(peaks, Peak{
			Period:   pg.Periods[best],
			Power:    pg.Power[best],
			Depth:    pg.Depth[best],
			Duration: pg.Duration[best],
		})
		for i, p := range pg.Periods {
			if math.Abs(p-pg.Periods[best]) <= exclusionRadius {
				masked[i] = true
			}
		}
	}
	return peaks
}
