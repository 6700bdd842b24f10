// Package detrend cleans raw light curves: iterative sigma clipping for
// outlier rejection, running-median flattening for stellar variability, and
// flux normalization.
package detrend

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/transitscope/transitscope/internal/lightcurve"
)

// SigmaClip removes samples more than sigma standard deviations from the
// median flux, iterating until no sample is rejected or maxIters passes
// have run. Matches the usual 5-sigma photometric cleaning step.
func SigmaClip(lc lightcurve.LightCurve, sigma float64, maxIters int) (lightcurve.LightCurve, error) {
	if !(sigma > 0) {
		return lightcurve.LightCurve{}, &lightcurve.InvalidParameterError{Param: "sigma", Reason: "must be positive"}
	}
	if maxIters < 1 {
		maxIters = 1
	}

	times := append([]float64(nil), lc.Time...)
	flux := append([]float64(nil), lc.Flux...)

	for iter := 0; iter < maxIters; iter++ {
		if len(flux) == 0 {
			break
		}
		center := median(flux)
		spread := stat.PopStdDev(flux, nil)
		if spread == 0 {
			break
		}

		keptTimes := times[:0]
		keptFlux := flux[:0]
		rejected := 0
		for i := range flux {
			if math.Abs(flux[i]-center) <= sigma*spread {
				keptTimes = append(keptTimes, times[i])
				keptFlux = append(keptFlux, flux[i])
			} else {
				rejected++
			}
		}
		times = keptTimes
		flux = keptFlux
		if rejected == 0 {
			break
		}
	}

	return lightcurve.New(times, flux)
}

// Flatten divides out low-frequency stellar variability using a running
// median of windowLength samples. windowLength must be odd and at least 3;
// near the edges the window shrinks symmetrically instead of zero-padding,
// since padding flux with zeros would bend the trend toward zero.
func Flatten(lc lightcurve.LightCurve, windowLength int) (lightcurve.LightCurve, error) {
	if windowLength < 3 || windowLength%2 == 0 {
		return lightcurve.LightCurve{}, &lightcurve.InvalidParameterError{
			Param:  "window_length",
			Reason: "must be an odd integer of at least 3",
		}
	}

	n := lc.Len()
	trend := make([]float64, n)
	half := windowLength / 2

	for i := 0; i < n; i++ {
		// Shrink to the largest symmetric window that fits.
		reach := half
		if i < reach {
			reach = i
		}
		if n-1-i < reach {
			reach = n - 1 - i
		}
		trend[i] = median(lc.Flux[i-reach : i+reach+1])
	}

	flat := make([]float64, n)
	for i := range flat {
		if trend[i] == 0 {
			flat[i] = lc.Flux[i]
			continue
		}
		flat[i] = lc.Flux[i] / trend[i]
	}
	return lightcurve.New(lc.Time, flat)
}

// Normalize divides the flux by its overall median so the out-of-transit
// level sits at 1.0.
func Normalize(lc lightcurve.LightCurve) (lightcurve.LightCurve, error) {
	if lc.Len() == 0 {
		return lightcurve.New(nil, nil)
	}
	level := median(lc.Flux)
	if level == 0 {
		return lightcurve.LightCurve{}, &lightcurve.InvalidParameterError{
			Param:  "flux",
			Reason: "median flux is zero, cannot normalize",
		}
	}
	norm := make([]float64, lc.Len())
	for i, f := range lc.Flux {
		norm[i] = f / level
	}
	return lightcurve.New(lc.Time, norm)
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.LinInterp, sorted, nil)
}
