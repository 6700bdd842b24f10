package lightcurve

import "fmt"

// InvalidParameterError reports a parameter outside its valid domain, such
// as a non-positive fold period or a malformed phase window.
type InvalidParameterError struct {
	Param  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Reason)
}

// EmptyWindowError reports a phase window selection that matched no samples.
// Depth estimation treats this as a hard failure rather than letting a
// zero-count division produce NaN.
type EmptyWindowError struct {
	Role   string // "signal" or "baseline"
	Window PhaseWindow
}

func (e *EmptyWindowError) Error() string {
	return fmt.Sprintf("%s window (center=%g half-width=%g) selected no samples",
		e.Role, e.Window.Center, e.Window.HalfWidth)
}
