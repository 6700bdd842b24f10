// Package lightcurve implements phase folding and the phase-windowed
// transit statistics used by the search pipelines.
package lightcurve

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// LightCurve is an ordered brightness time series. Time is strictly
// increasing and Flux is normalized so the out-of-transit level is near 1.0.
// A LightCurve is immutable once built; all operations return new values.
type LightCurve struct {
	Time []float64
	Flux []float64
}

// New builds a LightCurve from parallel time/flux slices. The slices are
// copied. Time must be strictly increasing and the slices equal length.
func New(times, flux []float64) (LightCurve, error) {
	if len(times) != len(flux) {
		return LightCurve{}, &InvalidParameterError{Param: "flux", Reason: "time and flux lengths differ"}
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return LightCurve{}, &InvalidParameterError{Param: "time", Reason: "not strictly increasing"}
		}
	}
	return LightCurve{
		Time: append([]float64(nil), times...),
		Flux: append([]float64(nil), flux...),
	}, nil
}

// Len returns the number of samples.
func (lc LightCurve) Len() int { return len(lc.Time) }

// Span returns the covered time range in the curve's time unit (days).
func (lc LightCurve) Span() float64 {
	if len(lc.Time) < 2 {
		return 0
	}
	return lc.Time[len(lc.Time)-1] - lc.Time[0]
}

// FoldedCurve is a light curve re-expressed in orbital phase over
// [-0.5, 0.5). Sample order follows the source curve; phase is the key.
type FoldedCurve struct {
	Phase []float64
	Flux  []float64
}

// Len returns the number of samples.
func (fc FoldedCurve) Len() int { return len(fc.Phase) }

// Fold reduces the curve's time axis modulo period about the reference
// epoch, remapping each sample to phase in [-0.5, 0.5). Epoch is typically
// a mid-transit time so the transit lands at phase zero.
func Fold(lc LightCurve, period, epoch float64) (FoldedCurve, error) {
	if !(period > 0) || math.IsInf(period, 0) {
		return FoldedCurve{}, &InvalidParameterError{Param: "period", Reason: "must be positive and finite"}
	}
	if math.IsNaN(epoch) || math.IsInf(epoch, 0) {
		return FoldedCurve{}, &InvalidParameterError{Param: "epoch", Reason: "must be finite"}
	}

	fc := FoldedCurve{
		Phase: make([]float64, len(lc.Time)),
		Flux:  append([]float64(nil), lc.Flux...),
	}
	for i, t := range lc.Time {
		p := math.Mod((t-epoch)/period, 1.0)
		if p < -0.5 {
			p += 1.0
		} else if p >= 0.5 {
			p -= 1.0
		}
		fc.Phase[i] = p
	}
	return fc, nil
}

// Select returns the flux values whose phase falls inside the window.
func (fc FoldedCurve) Select(w PhaseWindow) []float64 {
	var out []float64
	for i, p := range fc.Phase {
		if w.Contains(p) {
			out = append(out, fc.Flux[i])
		}
	}
	return out
}

// median returns the middle order statistic, averaging the two central
// values for even-length input.
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.LinInterp, sorted, nil)
}
