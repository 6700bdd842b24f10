// Package pipeline wires the acquisition, detrending, folding, periodogram
// and bootstrap stages into the two search procedures. Each search is an
// explicit run object; stages return immutable results and any stage error
// aborts the run.
package pipeline

import (
	"fmt"
	"math"
	"strings"

	"github.com/transitscope/transitscope/internal/bls"
	"github.com/transitscope/transitscope/internal/bootstrap"
	"github.com/transitscope/transitscope/internal/lightcurve"
)

// DepthResult pairs a phase-window depth estimate with its threshold test.
type DepthResult struct {
	Label     string
	Window    lightcurve.PhaseWindow
	Estimate  lightcurve.DepthEstimate
	Detection lightcurve.Detection
}

// TrojanReport is the structured outcome of a co-orbital search.
type TrojanReport struct {
	Target        string
	Period        float64
	Epoch         float64
	KnownDepthPPM float64

	RawPoints   int
	CleanPoints int
	SpanDays    float64
	NumTransits int

	Known DepthResult
	L4    DepthResult
	L5    DepthResult

	// UpperLimitPPM is the 3-sigma depth upper limit when neither Lagrange
	// point shows a detection.
	UpperLimitPPM float64

	Plots []string
}

// Summary renders the human-facing report.
func (r *TrojanReport) Summary() string {
	var b strings.Builder
	line := strings.Repeat("=", 70)

	fmt.Fprintf(&b, "%s\nTROJAN SEARCH: %s\n%s\n", line, r.Target, line)
	fmt.Fprintf(&b, "Known planet: P=%.6f d, expected depth %.1f ppm\n", r.Period, r.KnownDepthPPM)
	fmt.Fprintf(&b, "Data: %d points (%d raw), %.1f d span, %d transits covered\n",
		r.CleanPoints, r.RawPoints, r.SpanDays, r.NumTransits)

	fmt.Fprintf(&b, "\nKnown planet recovery:\n")
	fmt.Fprintf(&b, "  measured %.1f ± %.1f ppm (%.2f sigma, n=%d)\n",
		r.Known.Estimate.DepthPPM, r.Known.Estimate.UncertaintyPPM,
		r.Known.Estimate.SignificanceSigma, r.Known.Estimate.NPoints)

	for _, dr := range []DepthResult{r.L4, r.L5} {
		fmt.Fprintf(&b, "\n%s results:\n", dr.Label)
		fmt.Fprintf(&b, "  depth: %.1f ± %.1f ppm\n", dr.Estimate.DepthPPM, dr.Estimate.UncertaintyPPM)
		fmt.Fprintf(&b, "  significance: %.2f sigma\n", dr.Estimate.SignificanceSigma)
		fmt.Fprintf(&b, "  data points: %d\n", dr.Estimate.NPoints)
		if dr.Detection == lightcurve.Detected {
			fmt.Fprintf(&b, "  ** POTENTIAL DETECTION at %s (%.1f sigma) **\n",
				dr.Label, dr.Estimate.SignificanceSigma)
		}
	}

	if r.L4.Detection == lightcurve.NotDetected && r.L5.Detection == lightcurve.NotDetected {
		fmt.Fprintf(&b, "\nNo significant Trojan detection\n")
		fmt.Fprintf(&b, "Upper limit: ~%.0f ppm (3 sigma)\n", r.UpperLimitPPM)
	}

	if len(r.Plots) > 0 {
		fmt.Fprintf(&b, "\nPlots: %s\n", strings.Join(r.Plots, ", "))
	}
	return b.String()
}

// CandidateResult is one ranked periodogram peak with vetting annotations.
type CandidateResult struct {
	Rank          int
	Peak          bls.Peak
	KnownMatch    string // label of the matched known planet, or empty
	DepthPercent  float64
	DurationHours float64
	TooShallow    bool
}

// BootstrapResult ties a stability measurement to the candidate it vetted.
type BootstrapResult struct {
	CandidatePeriod float64
	Stability       bootstrap.Stability
}

// HZReport is the structured outcome of a habitable-zone search.
type HZReport struct {
	Target      string
	HZPeriodMin float64
	HZPeriodMax float64

	RawPoints   int
	CleanPoints int
	SpanDays    float64

	// TopPeriods are the strongest full-range peaks, used to confirm the
	// known planets are recovered before trusting the HZ search.
	TopPeriods []CandidateResult

	// Candidates are the strongest peaks inside the habitable zone band.
	Candidates []CandidateResult

	Bootstrap *BootstrapResult

	Plots []string
}

// Summary renders the human-facing report.
func (r *HZReport) Summary() string {
	var b strings.Builder
	line := strings.Repeat("=", 70)

	fmt.Fprintf(&b, "%s\nHABITABLE ZONE SEARCH: %s\n%s\n", line, r.Target, line)
	fmt.Fprintf(&b, "Data: %d points (%d raw), %.1f d span\n", r.CleanPoints, r.RawPoints, r.SpanDays)
	fmt.Fprintf(&b, "HZ period range: %.2f - %.2f d\n", r.HZPeriodMin, r.HZPeriodMax)

	fmt.Fprintf(&b, "\nTop full-range periods:\n")
	for _, c := range r.TopPeriods {
		match := ""
		if c.KnownMatch != "" {
			match = fmt.Sprintf("  <- %s", c.KnownMatch)
		}
		fmt.Fprintf(&b, "  %d. P=%.4f d, power %.2f%s\n", c.Rank, c.Peak.Period, c.Peak.Power, match)
	}

	fmt.Fprintf(&b, "\nHZ candidates:\n")
	for _, c := range r.Candidates {
		fmt.Fprintf(&b, "  candidate %d: P=%.4f d, power %.2f, depth %.4f%%, duration %.2f h",
			c.Rank, c.Peak.Period, c.Peak.Power, c.DepthPercent, c.DurationHours)
		if c.TooShallow {
			fmt.Fprintf(&b, " (too shallow)")
		}
		fmt.Fprintf(&b, "\n")
	}

	if r.Bootstrap != nil {
		s := r.Bootstrap.Stability
		status := "UNSTABLE"
		if s.Stable() {
			status = "STABLE"
		}
		fmt.Fprintf(&b, "\nBootstrap (candidate P=%.4f d): %.4f ± %.4f d, sigma(P)/P = %.6f, %s\n",
			r.Bootstrap.CandidatePeriod, s.MeanPeriod, s.StdPeriod,
			safeRatio(s.StdPeriod, s.MeanPeriod), status)
	}

	if len(r.Plots) > 0 {
		fmt.Fprintf(&b, "\nPlots: %s\n", strings.Join(r.Plots, ", "))
	}
	return b.String()
}

func safeRatio(num, den float64) float64 {
	if den == 0 {
		return math.Inf(1)
	}
	return num / den
}
