package bls

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/transitscope/transitscope/internal/lightcurve"
)

// transitCurve samples a normalized flux of 1.0 at a fixed cadence and
// injects box transits of the given period, depth and duration, plus
// Gaussian noise.
func transitCurve(t *testing.T, spanDays, dt, period, depth, duration, noiseSigma float64, seed int64) lightcurve.LightCurve {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))

	n := int(spanDays / dt)
	times := make([]float64, n)
	flux := make([]float64, n)
	for i := 0; i < n; i++ {
		times[i] = float64(i) * dt
		flux[i] = 1.0
		phase := math.Mod(times[i], period)
		if phase < duration {
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

func TestSearchRecoversInjectedPeriod(t *testing.T) {
	const (
		period   = 3.0
		depth    = 0.01
		duration = 0.15
	)
	lc := transitCurve(t, 20, 0.01, period, depth, duration, 0.001, 42)

	pg, err := Search(context.Background(), lc, Params{
		MinPeriod:       0.5,
		MaxPeriod:       10,
		FrequencyFactor: 20,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	peak := pg.Peak()
	if math.Abs(peak.Period-period) > 0.1 {
		t.Errorf("expected peak near %v d, got %v d", period, peak.Period)
	}
	if peak.Power <= 0 {
		t.Errorf("expected positive power at peak, got %v", peak.Power)
	}
	if math.Abs(peak.Depth-depth) > depth*0.5 {
		t.Errorf("expected depth near %v, got %v", depth, peak.Depth)
	}
	if peak.Duration <= 0 || peak.Duration > duration*3 {
		t.Errorf("implausible duration %v d for injected %v d", peak.Duration, duration)
	}
}

func TestSearchPeriodogramShape(t *testing.T) {
	lc := transitCurve(t, 20, 0.01, 3.0, 0.01, 0.15, 0.001, 7)

	pg, err := Search(context.Background(), lc, Params{
		MinPeriod:       1,
		MaxPeriod:       5,
		FrequencyFactor: 5,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(pg.Periods) == 0 {
		t.Fatal("empty periodogram")
	}
	if len(pg.Power) != len(pg.Periods) ||
		len(pg.Depth) != len(pg.Periods) ||
		len(pg.Duration) != len(pg.Periods) {
		t.Fatalf("ragged periodogram: %d periods, %d power, %d depth, %d duration",
			len(pg.Periods), len(pg.Power), len(pg.Depth), len(pg.Duration))
	}
	for i, p := range pg.Periods {
		if p < 1-1e-9 || p > 5+1e-9 {
			t.Errorf("trial %d: period %v outside requested bounds", i, p)
		}
	}
	// The grid is uniform in frequency, so periods decrease monotonically.
	for i := 1; i < len(pg.Periods); i++ {
		if pg.Periods[i] >= pg.Periods[i-1] {
			t.Errorf("trial %d: period %v not decreasing from %v", i, pg.Periods[i], pg.Periods[i-1])
		}
	}
}

func TestSearchValidation(t *testing.T) {
	lc := transitCurve(t, 5, 0.01, 2.0, 0.01, 0.1, 0, 1)

	tests := []struct {
		name   string
		lc     lightcurve.LightCurve
		params Params
	}{
		{"zero min period", lc, Params{MinPeriod: 0, MaxPeriod: 5}},
		{"negative min period", lc, Params{MinPeriod: -1, MaxPeriod: 5}},
		{"max below min", lc, Params{MinPeriod: 5, MaxPeriod: 1}},
		{"max equals min", lc, Params{MinPeriod: 2, MaxPeriod: 2}},
		{"infinite max period", lc, Params{MinPeriod: 1, MaxPeriod: math.Inf(1)}},
		{"inverted duration bounds", lc, Params{MinPeriod: 1, MaxPeriod: 5, MinDurationFrac: 0.2, MaxDurationFrac: 0.1}},
		{"too few samples", lightcurve.LightCurve{Time: []float64{0, 1}, Flux: []float64{1, 1}}, Params{MinPeriod: 1, MaxPeriod: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Search(context.Background(), tt.lc, tt.params)
			var ipe *lightcurve.InvalidParameterError
			if !errors.As(err, &ipe) {
				t.Errorf("expected InvalidParameterError, got %v", err)
			}
		})
	}
}

func TestSearchCancellation(t *testing.T) {
	lc := transitCurve(t, 20, 0.01, 3.0, 0.01, 0.15, 0.001, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Search(ctx, lc, Params{MinPeriod: 0.5, MaxPeriod: 10, FrequencyFactor: 50})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestTopPeaksExclusion(t *testing.T) {
	pg := Periodogram{
		Periods:  []float64{5.0, 4.0, 3.05, 3.0, 2.0, 1.0},
		Power:    []float64{0.1, 0.2, 0.8, 0.9, 0.5, 0.3},
		Depth:    []float64{0, 0, 0.009, 0.01, 0.005, 0.002},
		Duration: []float64{0, 0, 0.14, 0.15, 0.1, 0.05},
	}

	peaks := pg.TopPeaks(3, 0.1)
	if len(peaks) != 3 {
		t.Fatalf("expected 3 peaks, got %d", len(peaks))
	}
	// 3.05 d sits inside the 0.1 d exclusion zone around the 3.0 d peak.
	want := []float64{3.0, 2.0, 1.0}
	for i, p := range peaks {
		if p.Period != want[i] {
			t.Errorf("peak %d: expected period %v, got %v", i, want[i], p.Period)
		}
	}
}

func TestTopPeaksFewerThanRequested(t *testing.T) {
	pg := Periodogram{
		Periods:  []float64{3.0, 2.9},
		Power:    []float64{0.9, 0.8},
		Depth:    []float64{0.01, 0.009},
		Duration: []float64{0.1, 0.1},
	}

	// A wide exclusion radius masks everything after the first peak.
	peaks := pg.TopPeaks(5, 1.0)
	if len(peaks) != 1 {
		t.Fatalf("expected 1 peak, got %d", len(peaks))
	}
	if peaks[0].Period != 3.0 {
		t.Errorf("expected period 3.0, got %v", peaks[0].Period)
	}
}

func TestPeakEmptyPeriodogram(t *testing.T) {
	var pg Periodogram
	if got := pg.Peak(); got != (Peak{}) {
		t.Errorf("expected zero peak from empty periodogram, got %+v", got)
	}
	if peaks := pg.TopPeaks(3, 0.1); len(peaks) != 0 {
		t.Errorf("expected no peaks from empty periodogram, got %d", len(peaks))
	}
}
