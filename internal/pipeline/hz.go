package pipeline

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/transitscope/transitscope/internal/bls"
	"github.com/transitscope/transitscope/internal/bootstrap"
	"github.com/transitscope/transitscope/internal/lightcurve"
	"github.com/transitscope/transitscope/internal/mast"
	"github.com/transitscope/transitscope/internal/plot"
	"github.com/transitscope/transitscope/internal/results"
)

const (
	fullSearchMinPeriod = 0.5
	fullSearchMaxPeriod = 30.0

	// knownMatchRadius is how close a recovered period must be to a
	// literature period to count as the same planet, in days.
	knownMatchRadius = 0.1

	// tooShallowPercent marks candidate depths below the plausible
	// detection floor; such signals are vetted as systematics or noise.
	tooShallowPercent = 0.01
)

// HabitableZoneSearch looks for additional transiting planets in a star's
// habitable-zone period range.
type HabitableZoneSearch struct {
	Target       string
	KnownPeriods []float64 // literature periods of the known planets, days
	HZPeriodMin  float64
	HZPeriodMax  float64

	// BootstrapN is the resample count for vetting the first candidate.
	// Defaults to 50.
	BootstrapN int

	// Seed makes the bootstrap reproducible.
	Seed int64

	// FrequencyFactor tunes the periodogram grids. Defaults to 500, the
	// search resolution used for survey photometry.
	FrequencyFactor float64

	Preprocess PreprocessParams

	Archive *mast.Client
	Author  string
	Mission string

	Store   *results.Store
	PlotDir string

	Logger *zap.SugaredLogger
}

// Run executes the full search. Any stage failure aborts the run.
func (hs *HabitableZoneSearch) Run(ctx context.Context) (*HZReport, error) {
	if !(hs.HZPeriodMin > 0) || !(hs.HZPeriodMax > hs.HZPeriodMin) {
		return nil, &lightcurve.InvalidParameterError{Param: "hz_period", Reason: "range must satisfy 0 < min < max"}
	}
	freqFactor := hs.FrequencyFactor
	if freqFactor <= 0 {
		freqFactor = 500
	}

	hs.Logger.Infow("starting habitable zone search",
		"target", hs.Target, "hz_min", hs.HZPeriodMin, "hz_max", hs.HZPeriodMax)

	raw, err := hs.Archive.FetchStitched(ctx, hs.Target, hs.Author, hs.Mission)
	if err != nil {
		return nil, err
	}
	hs.Logger.Infof("light curve: %d points over %.1f days", raw.Len(), raw.Span())

	clean, err := preprocess(raw, hs.Preprocess, hs.Logger)
	if err != nil {
		return nil, err
	}

	report := &HZReport{
		Target:      hs.Target,
		HZPeriodMin: hs.HZPeriodMin,
		HZPeriodMax: hs.HZPeriodMax,
		RawPoints:   raw.Len(),
		CleanPoints: clean.Len(),
		SpanDays:    clean.Span(),
	}

	// Methodology check: the known planets must come out of a full-range
	// search before the HZ band results are worth reading.
	fullPG, err := bls.Search(ctx, clean, bls.Params{
		MinPeriod:       fullSearchMinPeriod,
		MaxPeriod:       fullSearchMaxPeriod,
		FrequencyFactor: freqFactor,
	})
	if err != nil {
		return nil, fmt.Errorf("full-range periodogram: %w", err)
	}
	for i, peak := range fullPG.TopPeaks(5, knownMatchRadius) {
		cr := CandidateResult{Rank: i + 1, Peak: peak}
		cr.KnownMatch = hs.matchKnown(peak.Period)
		report.TopPeriods = append(report.TopPeriods, cr)
		hs.Logger.Infof("full-range peak %d: P=%.4f d power=%.2f %s",
			cr.Rank, peak.Period, peak.Power, cr.KnownMatch)
	}

	hzPG, err := bls.Search(ctx, clean, bls.Params{
		MinPeriod:       hs.HZPeriodMin,
		MaxPeriod:       hs.HZPeriodMax,
		FrequencyFactor: freqFactor,
	})
	if err != nil {
		return nil, fmt.Errorf("habitable-zone periodogram: %w", err)
	}
	for i, peak := range hzPG.TopPeaks(3, 1.0) {
		cr := CandidateResult{
			Rank:          i + 1,
			Peak:          peak,
			DepthPercent:  peak.Depth * 100,
			DurationHours: peak.Duration * 24,
		}
		cr.TooShallow = cr.DepthPercent < tooShallowPercent
		report.Candidates = append(report.Candidates, cr)
		hs.Logger.Infof("HZ candidate %d: P=%.4f d power=%.2f depth=%.4f%% duration=%.2f h",
			cr.Rank, peak.Period, peak.Power, cr.DepthPercent, cr.DurationHours)
	}

	if len(report.Candidates) > 0 {
		candidate := report.Candidates[0]
		n := hs.BootstrapN
		if n <= 0 {
			n = 50
		}
		stability, err := bootstrap.Run(ctx, clean, bootstrap.Config{
			PeriodEstimate:  candidate.Peak.Period,
			SearchHalfWidth: 0.5,
			N:               n,
			FrequencyFactor: 100,
			Seed:            hs.Seed,
		})
		if err != nil {
			return nil, fmt.Errorf("bootstrap validation: %w", err)
		}
		report.Bootstrap = &BootstrapResult{
			CandidatePeriod: candidate.Peak.Period,
			Stability:       stability,
		}
		hs.Logger.Infof("bootstrap: mean P=%.4f ± %.4f d, stable=%v",
			stability.MeanPeriod, stability.StdPeriod, stability.Stable())
	}

	if hs.PlotDir != "" {
		if err := hs.render(report, clean, fullPG, hzPG); err != nil {
			// Rendering problems never invalidate the numeric results.
			hs.Logger.Warnf("plot rendering failed: %v", err)
		}
	}

	if hs.Store != nil {
		if err := hs.persist(report); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// matchKnown maps a recovered period to the closest literature planet
// within the match radius. Planets are labeled b, c, d... in period order.
func (hs *HabitableZoneSearch) matchKnown(period float64) string {
	for i, known := range hs.KnownPeriods {
		if math.Abs(period-known) < knownMatchRadius {
			return fmt.Sprintf("planet %c (literature: %.3f d)", 'b'+rune(i), known)
		}
	}
	return ""
}

func (hs *HabitableZoneSearch) render(report *HZReport, clean lightcurve.LightCurve, fullPG, hzPG bls.Periodogram) error {
	add := func(path string, err error) error {
		if err != nil {
			return err
		}
		report.Plots = append(report.Plots, path)
		return nil
	}

	full := filepath.Join(hs.PlotDir, hs.Target+"_lightcurve.png")
	if err := add(full, plot.LightCurve(full, "Full Light Curve: "+hs.Target, clean)); err != nil {
		return err
	}

	pgPath := filepath.Join(hs.PlotDir, hs.Target+"_periodogram.png")
	title := fmt.Sprintf("Full Periodogram (%.1f-%.0f d)", fullSearchMinPeriod, fullSearchMaxPeriod)
	if err := add(pgPath, plot.Periodogram(pgPath, title, fullPG, hs.KnownPeriods, 0, 0)); err != nil {
		return err
	}

	hzPath := filepath.Join(hs.PlotDir, hs.Target+"_hz_periodogram.png")
	if err := add(hzPath, plot.Periodogram(hzPath, "Habitable Zone Periodogram", hzPG, nil, hs.HZPeriodMin, hs.HZPeriodMax)); err != nil {
		return err
	}

	epoch := 0.0
	if clean.Len() > 0 {
		epoch = clean.Time[0]
	}
	for i, known := range hs.KnownPeriods {
		folded, err := lightcurve.Fold(clean, known, epoch)
		if err != nil {
			return err
		}
		binned, err := lightcurve.BinPhase(folded, -0.2, 0.2, 40)
		if err != nil {
			return err
		}
		path := filepath.Join(hs.PlotDir, fmt.Sprintf("%s_known_%c.png", hs.Target, 'b'+rune(i)))
		title := fmt.Sprintf("Known Planet %c (P=%.3f d)", 'b'+rune(i), known)
		if err := add(path, plot.Folded(path, title, folded, binned, -0.2, 0.2)); err != nil {
			return err
		}
	}

	for _, c := range report.Candidates {
		folded, err := lightcurve.Fold(clean, c.Peak.Period, epoch)
		if err != nil {
			return err
		}
		binned, err := lightcurve.BinPhase(folded, -0.5, 0.5, 60)
		if err != nil {
			return err
		}
		path := filepath.Join(hs.PlotDir, fmt.Sprintf("%s_candidate_%d.png", hs.Target, c.Rank))
		title := fmt.Sprintf("HZ Candidate %d (P=%.2f d, depth %.4f%%)", c.Rank, c.Peak.Period, c.DepthPercent)
		if err := add(path, plot.Folded(path, title, folded, binned, -0.5, 0.5)); err != nil {
			return err
		}
	}
	return nil
}

func (hs *HabitableZoneSearch) persist(report *HZReport) error {
	run := results.NewRun(hs.Target, "habitable-zone", 0, 0)
	run.NPoints = report.CleanPoints

	appendCandidates := func(scope string, list []CandidateResult) {
		for _, c := range list {
			run.Candidates = append(run.Candidates, results.CandidateSignal{
				Scope:         scope,
				Rank:          c.Rank,
				PeriodDays:    c.Peak.Period,
				Power:         c.Peak.Power,
				DepthPercent:  c.DepthPercent,
				DurationHours: c.DurationHours,
				KnownMatch:    c.KnownMatch,
			})
		}
	}
	appendCandidates("full-range", report.TopPeriods)
	appendCandidates("habitable-zone", report.Candidates)

	if report.Bootstrap != nil {
		s := report.Bootstrap.Stability
		run.Bootstraps = append(run.Bootstraps, results.BootstrapRun{
			CandidatePd:    report.Bootstrap.CandidatePeriod,
			MeanPeriod:     s.MeanPeriod,
			StdPeriod:      s.StdPeriod,
			Samples:        len(s.Periods),
			Stable:         s.Stable(),
			StabilityRatio: safeRatio(s.StdPeriod, s.MeanPeriod),
		})
	}

	return hs.Store.SaveRun(run)
}
