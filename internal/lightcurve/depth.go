package lightcurve

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultThresholdSigma is the single-shot detection threshold applied to
// each candidate window.
const DefaultThresholdSigma = 3.0

// DepthEstimate summarizes the flux deficit inside a signal window relative
// to a baseline window. Positive depth means dimming (transit-like),
// negative means brightening. Recomputed per query, never mutated.
type DepthEstimate struct {
	DepthPPM          float64
	UncertaintyPPM    float64
	SignificanceSigma float64
	NPoints           int
	NBaseline         int
}

// Detection is the outcome of a threshold test on a DepthEstimate.
type Detection int

const (
	NotDetected Detection = iota
	Detected
)

func (d Detection) String() string {
	if d == Detected {
		return "detected"
	}
	return "not detected"
}

// EstimateDepth measures the transit depth of the signal window against the
// baseline window.
//
// Depth is (1 - median(signal)/median(baseline)) in ppm. The uncertainty is
// the standard error of the mean of the signal samples, used as a proxy for
// the standard error of the median; the approximation is deliberate and
// matches the established reduction.
//
// The two windows must be valid and disjoint; either selection coming up
// empty is an EmptyWindowError, never a silent NaN.
func EstimateDepth(fc FoldedCurve, signal, baseline PhaseWindow) (DepthEstimate, error) {
	if err := signal.Validate("signal_window"); err != nil {
		return DepthEstimate{}, err
	}
	if err := baseline.Validate("baseline_window"); err != nil {
		return DepthEstimate{}, err
	}
	if signal.Overlaps(baseline) {
		return DepthEstimate{}, &InvalidParameterError{
			Param:  "baseline_window",
			Reason: "overlaps signal window",
		}
	}

	in := fc.Select(signal)
	if len(in) == 0 {
		return DepthEstimate{}, &EmptyWindowError{Role: "signal", Window: signal}
	}
	out := fc.Select(baseline)
	if len(out) == 0 {
		return DepthEstimate{}, &EmptyWindowError{Role: "baseline", Window: baseline}
	}

	fluxIn := median(in)
	fluxOut := median(out)
	if fluxOut == 0 {
		return DepthEstimate{}, &InvalidParameterError{
			Param:  "baseline_window",
			Reason: "baseline median flux is zero",
		}
	}

	est := DepthEstimate{
		DepthPPM:       (1 - fluxIn/fluxOut) * 1e6,
		UncertaintyPPM: stat.PopStdDev(in, nil) / math.Sqrt(float64(len(in))) * 1e6,
		NPoints:        len(in),
		NBaseline:      len(out),
	}
	if est.UncertaintyPPM != 0 {
		est.SignificanceSigma = est.DepthPPM / est.UncertaintyPPM
	}
	return est, nil
}

// Detect applies a strict |sigma| > threshold test to the estimate. There is
// no hysteresis and no multiple-testing correction; each candidate window is
// tested independently.
func Detect(est DepthEstimate, thresholdSigma float64) Detection {
	if math.Abs(est.SignificanceSigma) > thresholdSigma {
		return Detected
	}
	return NotDetected
}
