package lightcurve

// BinnedCurve is a median-binned rendering of a folded curve, used for the
// overlay series in the phase plots. Empty bins are skipped.
type BinnedCurve struct {
	Phase []float64
	Flux  []float64
}

// BinPhase bins the folded curve into nbins equal-width phase bins across
// [lo, hi) and takes the median flux of each non-empty bin.
func BinPhase(fc FoldedCurve, lo, hi float64, nbins int) (BinnedCurve, error) {
	if nbins < 1 {
		return BinnedCurve{}, &InvalidParameterError{Param: "nbins", Reason: "must be at least 1"}
	}
	if !(lo < hi) {
		return BinnedCurve{}, &InvalidParameterError{Param: "lo", Reason: "bin range is empty"}
	}

	width := (hi - lo) / float64(nbins)
	var binned BinnedCurve
	for i := 0; i < nbins; i++ {
		binLo := lo + float64(i)*width
		binHi := binLo + width

		var flux []float64
		for j, p := range fc.Phase {
			if p > binLo && p < binHi {
				flux = append(flux, fc.Flux[j])
			}
		}
		if len(flux) == 0 {
			continue
		}
		binned.Phase = append(binned.Phase, (binLo+binHi)/2)
		binned.Flux = append(binned.Flux, median(flux))
	}
	return binned, nil
}
