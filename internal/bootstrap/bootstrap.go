// Package bootstrap estimates the stability of a detected orbital period by
// resampling the light curve with replacement and repeating a narrow
// periodogram search around the estimate.
package bootstrap

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/transitscope/transitscope/internal/bls"
	"github.com/transitscope/transitscope/internal/lightcurve"
)

// StabilityLimit is the fractional scatter below which a period is
// considered stable: std(P)/mean(P) < 0.001.
const StabilityLimit = 0.001

// Config parameterizes a bootstrap run.
type Config struct {
	// PeriodEstimate is the candidate period in days.
	PeriodEstimate float64

	// SearchHalfWidth bounds each resample's periodogram to
	// [estimate-hw, estimate+hw] days.
	SearchHalfWidth float64

	// N is the number of resamples. Defaults to 50.
	N int

	// FrequencyFactor is passed through to the periodogram. Defaults to 100.
	FrequencyFactor float64

	// Workers bounds the resample parallelism. Defaults to GOMAXPROCS.
	// Iterations share no mutable state, so any ordering is fine.
	Workers int

	// Seed makes the resampling reproducible. Each iteration derives its
	// own generator from this, so results do not depend on scheduling.
	Seed int64
}

// Stability summarizes the bootstrap period distribution.
type Stability struct {
	MeanPeriod float64
	StdPeriod  float64
	Periods    []float64
}

// Stable reports whether the period scatter falls under StabilityLimit.
func (s Stability) Stable() bool {
	return s.MeanPeriod != 0 && s.StdPeriod/s.MeanPeriod < StabilityLimit
}

// Run performs the bootstrap. Each iteration draws a same-size resample
// with replacement, runs the bounded periodogram and records the period of
// maximum power.
func Run(ctx context.Context, lc lightcurve.LightCurve, cfg Config) (Stability, error) {
	if !(cfg.PeriodEstimate > 0) || math.IsInf(cfg.PeriodEstimate, 0) {
		return Stability{}, &lightcurve.InvalidParameterError{Param: "period_estimate", Reason: "must be positive and finite"}
	}
	if !(cfg.SearchHalfWidth > 0) || cfg.SearchHalfWidth >= cfg.PeriodEstimate {
		return Stability{}, &lightcurve.InvalidParameterError{Param: "search_half_width", Reason: "must be positive and below the period estimate"}
	}
	if lc.Len() < 3 {
		return Stability{}, &lightcurve.InvalidParameterError{Param: "light_curve", Reason: "too few samples to resample"}
	}

	n := cfg.N
	if n <= 0 {
		n = 50
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Derive per-iteration seeds up front so the run is deterministic no
	// matter how the goroutines interleave.
	master := rand.New(rand.NewSource(cfg.Seed))
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	params := bls.Params{
		MinPeriod:       cfg.PeriodEstimate - cfg.SearchHalfWidth,
		MaxPeriod:       cfg.PeriodEstimate + cfg.SearchHalfWidth,
		FrequencyFactor: cfg.FrequencyFactor,
	}

	periods := make([]float64, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			resampled := resample(lc, rand.New(rand.NewSource(seeds[i])))
			pg, err := bls.Search(gctx, resampled, params)
			if err != nil {
				return err
			}
			periods[i] = pg.Peak().Period
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stability{}, err
	}

	return Stability{
		MeanPeriod: stat.Mean(periods, nil),
		StdPeriod:  stat.PopStdDev(periods, nil),
		Periods:    periods,
	}, nil
}

// resample draws len(lc) samples with replacement and returns them in time
// order. Duplicate timestamps are expected and harmless for the
// periodogram, so this bypasses the strictly-increasing constructor.
func resample(lc lightcurve.LightCurve, rng *rand.Rand) lightcurve.LightCurve {
	n := lc.Len()
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	sort.Ints(idx)

	out := lightcurve.LightCurve{
		Time: make([]float64, n),
		Flux: make([]float64, n),
	}
	for i, j := range idx {
		out.Time[i] = lc.Time[j]
		out.Flux[i] = lc.Flux[j]
	}
	return out
}
