package pipeline

import (
	"go.uber.org/zap"

	"github.com/transitscope/transitscope/internal/detrend"
	"github.com/transitscope/transitscope/internal/lightcurve"
)

// PreprocessParams controls the shared cleaning stage. Zero values take
// the survey-photometry defaults.
type PreprocessParams struct {
	ClipSigma     float64 // outlier rejection threshold, default 5
	ClipIters     int     // clipping passes, default 5
	FlattenWindow int     // running-median window in samples, default 401
}

func (p PreprocessParams) withDefaults() PreprocessParams {
	if p.ClipSigma <= 0 {
		p.ClipSigma = 5
	}
	if p.ClipIters <= 0 {
		p.ClipIters = 5
	}
	if p.FlattenWindow <= 0 {
		p.FlattenWindow = 401
	}
	return p
}

// preprocess runs outlier rejection, flattening and normalization.
func preprocess(lc lightcurve.LightCurve, params PreprocessParams, logger *zap.SugaredLogger) (lightcurve.LightCurve, error) {
	params = params.withDefaults()

	clipped, err := detrend.SigmaClip(lc, params.ClipSigma, params.ClipIters)
	if err != nil {
		return lightcurve.LightCurve{}, err
	}
	logger.Infof("removed %d outliers (%d -> %d points)", lc.Len()-clipped.Len(), lc.Len(), clipped.Len())

	flat, err := detrend.Flatten(clipped, params.FlattenWindow)
	if err != nil {
		return lightcurve.LightCurve{}, err
	}

	norm, err := detrend.Normalize(flat)
	if err != nil {
		return lightcurve.LightCurve{}, err
	}
	logger.Infof("detrended and normalized (window=%d)", params.FlattenWindow)
	return norm, nil
}
