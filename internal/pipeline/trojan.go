package pipeline

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/transitscope/transitscope/internal/ephemeris"
	"github.com/transitscope/transitscope/internal/lightcurve"
	"github.com/transitscope/transitscope/internal/mast"
	"github.com/transitscope/transitscope/internal/plot"
	"github.com/transitscope/transitscope/internal/results"
)

// Phase windows for the co-orbital search. The known-planet baseline avoids
// the transit and the Lagrange regions; the Lagrange baseline sits in the
// far out-of-transit half of the orbit.
var (
	knownSignalWindow   = lightcurve.PhaseWindow{Center: 0, HalfWidth: 0.02}
	knownBaselineWindow = lightcurve.PhaseWindow{Center: 0.25, HalfWidth: 0.15, Absolute: true}
	lagrangeHalfWidth   = 0.05
	lagrangeBaseline    = lightcurve.PhaseWindow{Center: 0.4, HalfWidth: 0.1, Absolute: true}
)

// TrojanSearch looks for co-orbital companions at the L4/L5 Lagrange points
// of a known transiting planet.
type TrojanSearch struct {
	Target        string
	Period        float64 // known planet period, days
	Epoch         float64 // mid-transit reference time, BTJD
	KnownDepthPPM float64

	// ThresholdSigma defaults to lightcurve.DefaultThresholdSigma.
	ThresholdSigma float64

	Preprocess PreprocessParams

	Archive *mast.Client
	Author  string
	Mission string

	// Store and PlotDir are optional; when unset the run skips persistence
	// or rendering respectively.
	Store   *results.Store
	PlotDir string

	Logger *zap.SugaredLogger
}

// Run executes the full search. Any stage failure aborts the run.
func (ts *TrojanSearch) Run(ctx context.Context) (*TrojanReport, error) {
	if !(ts.Period > 0) {
		return nil, &lightcurve.InvalidParameterError{Param: "period", Reason: "must be positive"}
	}
	threshold := ts.ThresholdSigma
	if threshold <= 0 {
		threshold = lightcurve.DefaultThresholdSigma
	}

	ts.Logger.Infow("starting Trojan search",
		"target", ts.Target, "period", ts.Period, "known_depth_ppm", ts.KnownDepthPPM)

	raw, err := ts.Archive.FetchStitched(ctx, ts.Target, ts.Author, ts.Mission)
	if err != nil {
		return nil, err
	}
	ts.Logger.Infof("light curve: %d points over %.1f days", raw.Len(), raw.Span())

	clean, err := preprocess(raw, ts.Preprocess, ts.Logger)
	if err != nil {
		return nil, err
	}

	folded, err := lightcurve.Fold(clean, ts.Period, ts.Epoch)
	if err != nil {
		return nil, err
	}

	report := &TrojanReport{
		Target:        ts.Target,
		Period:        ts.Period,
		Epoch:         ts.Epoch,
		KnownDepthPPM: ts.KnownDepthPPM,
		RawPoints:     raw.Len(),
		CleanPoints:   clean.Len(),
		SpanDays:      clean.Span(),
	}

	if clean.Len() > 0 {
		transits, err := ephemeris.TransitTimes(ts.Epoch, ts.Period, clean.Time[0], clean.Time[clean.Len()-1])
		if err != nil {
			return nil, err
		}
		report.NumTransits = len(transits)
	}

	// Validation: the known planet must be recoverable before the Lagrange
	// measurements mean anything.
	knownEst, err := lightcurve.EstimateDepth(folded, knownSignalWindow, knownBaselineWindow)
	if err != nil {
		return nil, fmt.Errorf("known-planet validation: %w", err)
	}
	report.Known = DepthResult{
		Label:     "known",
		Window:    knownSignalWindow,
		Estimate:  knownEst,
		Detection: lightcurve.Detect(knownEst, threshold),
	}
	ts.Logger.Infof("known planet: expected %.1f ppm, measured %.1f ppm (%.2f sigma)",
		ts.KnownDepthPPM, knownEst.DepthPPM, knownEst.SignificanceSigma)

	for _, pt := range []struct {
		label string
		phase float64
	}{
		{"L4", ephemeris.L4Phase},
		{"L5", ephemeris.L5Phase},
	} {
		window := lightcurve.PhaseWindow{Center: pt.phase, HalfWidth: lagrangeHalfWidth}
		est, err := lightcurve.EstimateDepth(folded, window, lagrangeBaseline)
		if err != nil {
			return nil, fmt.Errorf("%s search: %w", pt.label, err)
		}
		dr := DepthResult{
			Label:     pt.label,
			Window:    window,
			Estimate:  est,
			Detection: lightcurve.Detect(est, threshold),
		}
		if pt.label == "L4" {
			report.L4 = dr
		} else {
			report.L5 = dr
		}
		ts.Logger.Infof("%s: %.1f ± %.1f ppm (%.2f sigma, n=%d)",
			pt.label, est.DepthPPM, est.UncertaintyPPM, est.SignificanceSigma, est.NPoints)
	}

	if report.L4.Detection == lightcurve.NotDetected && report.L5.Detection == lightcurve.NotDetected {
		report.UpperLimitPPM = threshold * math.Max(
			report.L4.Estimate.UncertaintyPPM, report.L5.Estimate.UncertaintyPPM)
	}

	if ts.PlotDir != "" {
		if err := ts.render(report, clean, folded); err != nil {
			// Rendering problems never invalidate the numeric results.
			ts.Logger.Warnf("plot rendering failed: %v", err)
		}
	}

	if ts.Store != nil {
		if err := ts.persist(report); err != nil {
			return nil, err
		}
	}

	return report, nil
}

func (ts *TrojanSearch) render(report *TrojanReport, clean lightcurve.LightCurve, folded lightcurve.FoldedCurve) error {
	add := func(path string, err error) error {
		if err != nil {
			return err
		}
		report.Plots = append(report.Plots, path)
		return nil
	}

	full := filepath.Join(ts.PlotDir, ts.Target+"_lightcurve.png")
	if err := add(full, plot.LightCurve(full, "Full Light Curve: "+ts.Target, clean)); err != nil {
		return err
	}

	binned, err := lightcurve.BinPhase(folded, -0.15, 0.15, 50)
	if err != nil {
		return err
	}
	known := filepath.Join(ts.PlotDir, ts.Target+"_known_planet.png")
	title := fmt.Sprintf("Known Planet (depth %.0f ppm)", ts.KnownDepthPPM)
	if err := add(known, plot.Folded(known, title, folded, binned, -0.15, 0.15)); err != nil {
		return err
	}

	for _, dr := range []DepthResult{report.L4, report.L5} {
		binned, err := lightcurve.BinPhase(folded, dr.Window.Center-0.1, dr.Window.Center+0.1, 30)
		if err != nil {
			return err
		}
		path := filepath.Join(ts.PlotDir, fmt.Sprintf("%s_%s.png", ts.Target, dr.Label))
		title := fmt.Sprintf("%s: %.1f ppm (%.1f sigma)", dr.Label, dr.Estimate.DepthPPM, dr.Estimate.SignificanceSigma)
		if err := add(path, plot.Folded(path, title, folded, binned, dr.Window.Center-0.1, dr.Window.Center+0.1)); err != nil {
			return err
		}
	}
	return nil
}

func (ts *TrojanSearch) persist(report *TrojanReport) error {
	run := results.NewRun(ts.Target, "trojan", ts.Period, ts.Epoch)
	run.NPoints = report.CleanPoints
	for _, dr := range []DepthResult{report.Known, report.L4, report.L5} {
		run.Depths = append(run.Depths, results.DepthMeasurement{
			Label:             dr.Label,
			PhaseCenter:       dr.Window.Center,
			PhaseHalfWidth:    dr.Window.HalfWidth,
			DepthPPM:          dr.Estimate.DepthPPM,
			UncertaintyPPM:    dr.Estimate.UncertaintyPPM,
			SignificanceSigma: dr.Estimate.SignificanceSigma,
			NPoints:           dr.Estimate.NPoints,
			NBaseline:         dr.Estimate.NBaseline,
			Detected:          dr.Detection == lightcurve.Detected,
		})
	}
	return ts.Store.SaveRun(run)
}
