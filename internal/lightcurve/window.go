package lightcurve

import "math"

// PhaseWindow selects a band of orbital phase around a center. When
// Absolute is set the selection runs on |phase|, which covers both
// symmetric out-of-transit segments with a single window — the usual
// baseline choice.
type PhaseWindow struct {
	Center    float64
	HalfWidth float64
	Absolute  bool
}

// Contains reports whether the phase falls inside the window.
func (w PhaseWindow) Contains(phase float64) bool {
	p := phase
	if w.Absolute {
		p = math.Abs(phase)
	}
	return math.Abs(p-w.Center) < w.HalfWidth
}

// Validate checks the window geometry.
func (w PhaseWindow) Validate(name string) error {
	if math.IsNaN(w.Center) || math.IsInf(w.Center, 0) {
		return &InvalidParameterError{Param: name, Reason: "center must be finite"}
	}
	if !(w.HalfWidth > 0) || math.IsInf(w.HalfWidth, 0) {
		return &InvalidParameterError{Param: name, Reason: "half-width must be positive and finite"}
	}
	return nil
}

// intervals expands the window to the open phase intervals it covers. An
// absolute window covers two mirrored segments.
func (w PhaseWindow) intervals() [][2]float64 {
	iv := [][2]float64{{w.Center - w.HalfWidth, w.Center + w.HalfWidth}}
	if w.Absolute {
		iv = append(iv, [2]float64{-w.Center - w.HalfWidth, -w.Center + w.HalfWidth})
	}
	return iv
}

// Overlaps reports whether any phase could satisfy both windows.
func (w PhaseWindow) Overlaps(o PhaseWindow) bool {
	for _, a := range w.intervals() {
		for _, b := range o.intervals() {
			if a[0] < b[1] && b[0] < a[1] {
				return true
			}
		}
	}
	return false
}
