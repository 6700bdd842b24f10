// Package ephemeris provides the time-system and orbital-geometry helpers
// shared by the pipelines: BTJD conversions, predicted transit times, and
// Lagrange point phases.
package ephemeris

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/unit"

	"github.com/transitscope/transitscope/internal/lightcurve"
)

// BTJDOffset converts between Barycentric TESS Julian Date and Julian Date:
// BTJD = JD - 2457000.
const BTJDOffset = 2457000.0

// BTJDToJD converts a BTJD timestamp to a Julian Date.
func BTJDToJD(btjd float64) float64 { return btjd + BTJDOffset }

// JDToBTJD converts a Julian Date to BTJD.
func JDToBTJD(jd float64) float64 { return jd - BTJDOffset }

// BTJDToTime converts a BTJD timestamp to wall-clock UTC.
func BTJDToTime(btjd float64) time.Time {
	return julian.JDToTime(BTJDToJD(btjd)).UTC()
}

// TimeToBTJD converts wall-clock time to BTJD.
func TimeToBTJD(t time.Time) float64 {
	return JDToBTJD(julian.TimeToJD(t))
}

// TransitTimes predicts the mid-transit times epoch + k*period falling
// inside [start, end], in the same time system as epoch.
func TransitTimes(epoch, period, start, end float64) ([]float64, error) {
	if !(period > 0) || math.IsInf(period, 0) {
		return nil, &lightcurve.InvalidParameterError{Param: "period", Reason: "must be positive and finite"}
	}
	if start > end {
		return nil, &lightcurve.InvalidParameterError{Param: "start", Reason: "span is empty"}
	}

	k := math.Ceil((start - epoch) / period)
	var times []float64
	for t := epoch + k*period; t <= end; t += period {
		times = append(times, t)
	}
	return times, nil
}

// PhaseOfAngle maps an orbital angle to a phase fraction of the orbit.
func PhaseOfAngle(a unit.Angle) float64 {
	return a.Rad() / (2 * math.Pi)
}

// L4Phase and L5Phase are the co-orbital Lagrange point phases: L4 leads
// the planet by 60 degrees, L5 trails by 60 degrees.
var (
	L4Phase = PhaseOfAngle(unit.AngleFromDeg(-60))
	L5Phase = PhaseOfAngle(unit.AngleFromDeg(60))
)
