package lightcurve

import (
	"errors"
	"math"
	"testing"
)

func mustCurve(t *testing.T, times, flux []float64) LightCurve {
	t.Helper()
	lc, err := New(times, flux)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return lc
}

// evenCurve builds n samples spaced dt apart with constant flux.
func evenCurve(t *testing.T, n int, dt, flux float64) LightCurve {
	t.Helper()
	times := make([]float64, n)
	fluxes := make([]float64, n)
	for i := range times {
		times[i] = float64(i) * dt
		fluxes[i] = flux
	}
	return mustCurve(t, times, fluxes)
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name  string
		times []float64
		flux  []float64
		ok    bool
	}{
		{"valid", []float64{1, 2, 3}, []float64{1, 1, 1}, true},
		{"empty", nil, nil, true},
		{"length mismatch", []float64{1, 2}, []float64{1}, false},
		{"duplicate time", []float64{1, 1, 2}, []float64{1, 1, 1}, false},
		{"decreasing time", []float64{2, 1}, []float64{1, 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.times, tt.flux)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok {
				var ipe *InvalidParameterError
				if !errors.As(err, &ipe) {
					t.Errorf("expected InvalidParameterError, got %v", err)
				}
			}
		})
	}
}

func TestFoldPhaseRange(t *testing.T) {
	lc := evenCurve(t, 500, 0.173, 1.0)

	fc, err := Fold(lc, 2.2047, 13.7)
	if err != nil {
		t.Fatalf("Fold: %v", err)
	}
	if fc.Len() != lc.Len() {
		t.Fatalf("expected %d phases, got %d", lc.Len(), fc.Len())
	}
	for i, p := range fc.Phase {
		if p < -0.5 || p >= 0.5 {
			t.Errorf("phase %d = %v outside [-0.5, 0.5)", i, p)
		}
	}
}

func TestFoldEpochPeriodicity(t *testing.T) {
	// Shifting the epoch by whole periods must not change the fold.
	lc := evenCurve(t, 300, 0.31, 1.0)
	const period = 3.69

	base, err := Fold(lc, period, 1.5)
	if err != nil {
		t.Fatalf("Fold: %v", err)
	}

	for _, k := range []float64{-7, -1, 1, 3, 50} {
		shifted, err := Fold(lc, period, 1.5+k*period)
		if err != nil {
			t.Fatalf("Fold with shifted epoch: %v", err)
		}
		for i := range base.Phase {
			if math.Abs(base.Phase[i]-shifted.Phase[i]) > 1e-9 {
				t.Fatalf("k=%v point %d: phase %v != %v", k, i, base.Phase[i], shifted.Phase[i])
			}
		}
	}
}

func TestFoldInvalidParameters(t *testing.T) {
	lc := evenCurve(t, 10, 1.0, 1.0)

	tests := []struct {
		name   string
		period float64
		epoch  float64
	}{
		{"zero period", 0, 0},
		{"negative period", -2.5, 0},
		{"NaN period", math.NaN(), 0},
		{"infinite period", math.Inf(1), 0},
		{"NaN epoch", 1, math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fold(lc, tt.period, tt.epoch)
			var ipe *InvalidParameterError
			if !errors.As(err, &ipe) {
				t.Errorf("expected InvalidParameterError, got %v", err)
			}
		})
	}
}

func TestBinPhase(t *testing.T) {
	fc := FoldedCurve{
		Phase: []float64{-0.4, -0.35, -0.1, 0.05, 0.12, 0.41},
		Flux:  []float64{1.0, 1.2, 0.9, 1.1, 1.0, 0.8},
	}

	binned, err := BinPhase(fc, -0.5, 0.5, 4)
	if err != nil {
		t.Fatalf("BinPhase: %v", err)
	}
	// Bins: [-0.5,-0.25) holds {1.0,1.2}; [-0.25,0) holds {0.9};
	// [0,0.25) holds {1.1,1.0}; [0.25,0.5) holds {0.8}.
	wantPhase := []float64{-0.375, -0.125, 0.125, 0.375}
	wantFlux := []float64{1.1, 0.9, 1.05, 0.8}

	if len(binned.Phase) != len(wantPhase) {
		t.Fatalf("expected %d bins, got %d", len(wantPhase), len(binned.Phase))
	}
	for i := range wantPhase {
		if math.Abs(binned.Phase[i]-wantPhase[i]) > 1e-9 {
			t.Errorf("bin %d center: expected %v, got %v", i, wantPhase[i], binned.Phase[i])
		}
		if math.Abs(binned.Flux[i]-wantFlux[i]) > 1e-9 {
			t.Errorf("bin %d flux: expected %v, got %v", i, wantFlux[i], binned.Flux[i])
		}
	}
}

func TestBinPhaseSkipsEmptyBins(t *testing.T) {
	fc := FoldedCurve{Phase: []float64{0.01}, Flux: []float64{1.0}}

	binned, err := BinPhase(fc, -0.5, 0.5, 10)
	if err != nil {
		t.Fatalf("BinPhase: %v", err)
	}
	if len(binned.Phase) != 1 {
		t.Fatalf("expected 1 non-empty bin, got %d", len(binned.Phase))
	}
}

func TestBinPhaseValidation(t *testing.T) {
	fc := FoldedCurve{Phase: []float64{0}, Flux: []float64{1}}

	if _, err := BinPhase(fc, -0.5, 0.5, 0); err == nil {
		t.Error("expected error for zero bins")
	}
	if _, err := BinPhase(fc, 0.5, -0.5, 10); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"odd count", []float64{3, 1, 2}, 2},
		{"even count averages middles", []float64{4, 1, 3, 2}, 2.5},
		{"single", []float64{7}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := median(tt.values); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
