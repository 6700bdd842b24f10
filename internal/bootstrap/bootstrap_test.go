package bootstrap

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/transitscope/transitscope/internal/lightcurve"
)

func transitCurve(t *testing.T, spanDays, dt, period, depth, duration, noiseSigma float64, seed int64) lightcurve.LightCurve {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))

	n := int(spanDays / dt)
	times := make([]float64, n)
	flux := make([]float64, n)
	for i := 0; i < n; i++ {
		times[i] = float64(i) * dt
		flux[i] = 1.0
		if math.Mod(times[i], period) < duration {
			flux[i] -= depth
		}
		if noiseSigma > 0 {
			flux[i] += rng.NormFloat64() * noiseSigma
		}
	}
	lc, err := lightcurve.New(times, flux)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return lc
}

func TestRunStableSignal(t *testing.T) {
	lc := transitCurve(t, 20, 0.01, 3.0, 0.01, 0.15, 0.001, 11)

	cfg := Config{
		PeriodEstimate:  3.0,
		SearchHalfWidth: 0.5,
		N:               8,
		FrequencyFactor: 20,
		Seed:            1,
	}

	st, err := Run(context.Background(), lc, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(st.Periods) != cfg.N {
		t.Fatalf("expected %d resample periods, got %d", cfg.N, len(st.Periods))
	}
	for i, p := range st.Periods {
		if p < 2.5 || p > 3.5 {
			t.Errorf("resample %d: period %v outside search bounds", i, p)
		}
	}
	if math.Abs(st.MeanPeriod-3.0) > 0.1 {
		t.Errorf("expected mean period near 3.0 d, got %v", st.MeanPeriod)
	}
	if st.StdPeriod < 0 {
		t.Errorf("negative period scatter %v", st.StdPeriod)
	}
}

func TestRunDeterministicForSeed(t *testing.T) {
	lc := transitCurve(t, 10, 0.02, 2.0, 0.01, 0.1, 0.002, 5)

	cfg := Config{
		PeriodEstimate:  2.0,
		SearchHalfWidth: 0.3,
		N:               6,
		FrequencyFactor: 10,
		Seed:            99,
	}

	first, err := Run(context.Background(), lc, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Single worker forces a different goroutine interleaving than the
	// default; the result must not change.
	cfg.Workers = 1
	second, err := Run(context.Background(), lc, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for i := range first.Periods {
		if first.Periods[i] != second.Periods[i] {
			t.Errorf("resample %d: period %v differs from %v with same seed", i, first.Periods[i], second.Periods[i])
		}
	}
}

func TestRunValidation(t *testing.T) {
	lc := transitCurve(t, 5, 0.02, 2.0, 0.01, 0.1, 0, 1)

	tests := []struct {
		name string
		lc   lightcurve.LightCurve
		cfg  Config
	}{
		{"zero period estimate", lc, Config{PeriodEstimate: 0, SearchHalfWidth: 0.1}},
		{"negative period estimate", lc, Config{PeriodEstimate: -2, SearchHalfWidth: 0.1}},
		{"zero half-width", lc, Config{PeriodEstimate: 2, SearchHalfWidth: 0}},
		{"half-width swallows estimate", lc, Config{PeriodEstimate: 2, SearchHalfWidth: 2}},
		{"too few samples", lightcurve.LightCurve{Time: []float64{0, 1}, Flux: []float64{1, 1}}, Config{PeriodEstimate: 2, SearchHalfWidth: 0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), tt.lc, tt.cfg)
			var ipe *lightcurve.InvalidParameterError
			if !errors.As(err, &ipe) {
				t.Errorf("expected InvalidParameterError, got %v", err)
			}
		})
	}
}

func TestRunCancellation(t *testing.T) {
	lc := transitCurve(t, 20, 0.01, 3.0, 0.01, 0.15, 0.001, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, lc, Config{
		PeriodEstimate:  3.0,
		SearchHalfWidth: 0.5,
		N:               4,
		FrequencyFactor: 10,
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestStable(t *testing.T) {
	tests := []struct {
		name string
		st   Stability
		want bool
	}{
		{"tight scatter", Stability{MeanPeriod: 3.0, StdPeriod: 0.001}, true},
		{"loose scatter", Stability{MeanPeriod: 3.0, StdPeriod: 0.1}, false},
		{"at the limit", Stability{MeanPeriod: 1.0, StdPeriod: StabilityLimit}, false},
		{"zero mean", Stability{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.st.Stable(); got != tt.want {
				t.Errorf("Stable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResamplePreservesSizeAndOrder(t *testing.T) {
	lc := transitCurve(t, 5, 0.05, 2.0, 0.01, 0.1, 0.001, 8)

	rs := resample(lc, rand.New(rand.NewSource(4)))
	if rs.Len() != lc.Len() {
		t.Fatalf("expected %d samples, got %d", lc.Len(), rs.Len())
	}
	for i := 1; i < rs.Len(); i++ {
		if rs.Time[i] < rs.Time[i-1] {
			t.Fatalf("resample not time-ordered at %d: %v < %v", i, rs.Time[i], rs.Time[i-1])
		}
	}
}
