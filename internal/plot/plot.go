// Package plot renders the pipeline's diagnostic panels to PNG files: raw
// light curves, phase-folded curves with binned overlays, and periodograms.
package plot

import (
	"fmt"
	"math"

	"github.com/fogleman/gg"

	"github.com/transitscope/transitscope/internal/bls"
	"github.com/transitscope/transitscope/internal/lightcurve"
)

const (
	width   = 960
	height  = 640
	marginL = 70
	marginR = 25
	marginT = 45
	marginB = 55
)

// frame maps data coordinates onto the drawable pixel area.
type frame struct {
	xMin, xMax, yMin, yMax float64
}

func newFrame(x, y []float64) frame {
	f := frame{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for i := range x {
		f.xMin = math.Min(f.xMin, x[i])
		f.xMax = math.Max(f.xMax, x[i])
		f.yMin = math.Min(f.yMin, y[i])
		f.yMax = math.Max(f.yMax, y[i])
	}
	// Pad so points don't sit on the frame edge.
	xPad := (f.xMax - f.xMin) * 0.03
	yPad := (f.yMax - f.yMin) * 0.06
	if xPad == 0 {
		xPad = 0.5
	}
	if yPad == 0 {
		yPad = 0.5
	}
	f.xMin -= xPad
	f.xMax += xPad
	f.yMin -= yPad
	f.yMax += yPad
	return f
}

func (f frame) px(x float64) float64 {
	return marginL + (x-f.xMin)/(f.xMax-f.xMin)*(width-marginL-marginR)
}

func (f frame) py(y float64) float64 {
	return height - marginB - (y-f.yMin)/(f.yMax-f.yMin)*(height-marginT-marginB)
}

func drawAxes(dc *gg.Context, f frame, title, xLabel, yLabel string) {
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawRectangle(marginL, marginT, width-marginL-marginR, height-marginT-marginB)
	dc.Stroke()

	dc.DrawStringAnchored(title, width/2, marginT/2, 0.5, 0.5)
	dc.DrawStringAnchored(xLabel, width/2, height-marginB/3, 0.5, 0.5)

	// Rotated y label.
	dc.Push()
	dc.RotateAbout(-math.Pi/2, 18, height/2)
	dc.DrawStringAnchored(yLabel, 18, height/2, 0.5, 0.5)
	dc.Pop()

	// Five ticks per axis.
	for i := 0; i <= 4; i++ {
		xv := f.xMin + float64(i)/4*(f.xMax-f.xMin)
		yv := f.yMin + float64(i)/4*(f.yMax-f.yMin)

		xp := f.px(xv)
		dc.DrawLine(xp, height-marginB, xp, height-marginB+5)
		dc.Stroke()
		dc.DrawStringAnchored(fmt.Sprintf("%.4g", xv), xp, height-marginB+16, 0.5, 0.5)

		yp := f.py(yv)
		dc.DrawLine(marginL-5, yp, marginL, yp)
		dc.Stroke()
		dc.DrawStringAnchored(fmt.Sprintf("%.5g", yv), marginL-10, yp, 1, 0.5)
	}
}

func scatter(dc *gg.Context, f frame, x, y []float64, r, g, b, alpha, radius float64) {
	dc.SetRGBA(r, g, b, alpha)
	for i := range x {
		dc.DrawCircle(f.px(x[i]), f.py(y[i]), radius)
		dc.Fill()
	}
}

func polyline(dc *gg.Context, f frame, x, y []float64, r, g, b, lineWidth float64) {
	if len(x) < 2 {
		return
	}
	dc.SetRGB(r, g, b)
	dc.SetLineWidth(lineWidth)
	dc.MoveTo(f.px(x[0]), f.py(y[0]))
	for i := 1; i < len(x); i++ {
		dc.LineTo(f.px(x[i]), f.py(y[i]))
	}
	dc.Stroke()
}

func hline(dc *gg.Context, f frame, y float64, r, g, b float64) {
	if y < f.yMin || y > f.yMax {
		return
	}
	dc.SetRGB(r, g, b)
	dc.SetLineWidth(1)
	dc.SetDash(4, 4)
	dc.DrawLine(marginL, f.py(y), width-marginR, f.py(y))
	dc.Stroke()
	dc.SetDash()
}

func vline(dc *gg.Context, f frame, x float64, r, g, b float64) {
	if x < f.xMin || x > f.xMax {
		return
	}
	dc.SetRGB(r, g, b)
	dc.SetLineWidth(1)
	dc.SetDash(4, 4)
	dc.DrawLine(f.px(x), marginT, f.px(x), height-marginB)
	dc.Stroke()
	dc.SetDash()
}

// LightCurve renders the full cleaned time series.
func LightCurve(path, title string, lc lightcurve.LightCurve) error {
	dc := gg.NewContext(width, height)
	f := newFrame(lc.Time, lc.Flux)
	drawAxes(dc, f, title, "Time (BTJD)", "Normalized Flux")
	scatter(dc, f, lc.Time, lc.Flux, 0, 0, 0, 0.3, 1)
	return dc.SavePNG(path)
}

// Folded renders a phase-folded curve with a median-binned overlay and a
// reference line at the out-of-transit level.
func Folded(path, title string, fc lightcurve.FoldedCurve, binned lightcurve.BinnedCurve, phaseMin, phaseMax float64) error {
	var px, py []float64
	for i, p := range fc.Phase {
		if p >= phaseMin && p <= phaseMax {
			px = append(px, p)
			py = append(py, fc.Flux[i])
		}
	}
	if len(px) == 0 {
		px = []float64{phaseMin, phaseMax}
		py = []float64{1, 1}
	}

	dc := gg.NewContext(width, height)
	f := newFrame(px, py)
	drawAxes(dc, f, title, "Orbital Phase", "Normalized Flux")
	scatter(dc, f, px, py, 0.5, 0.5, 0.5, 0.3, 1)
	hline(dc, f, 1.0, 0.2, 0.2, 0.2)
	polyline(dc, f, binned.Phase, binned.Flux, 0.8, 0.1, 0.1, 2)
	return dc.SavePNG(path)
}

// Periodogram renders power against trial period with optional markers at
// known periods and an optional shaded period band.
func Periodogram(path, title string, pg bls.Periodogram, markers []float64, bandLo, bandHi float64) error {
	dc := gg.NewContext(width, height)
	f := newFrame(pg.Periods, pg.Power)
	drawAxes(dc, f, title, "Period (days)", "BLS Power")

	if bandHi > bandLo {
		lo := math.Max(bandLo, f.xMin)
		hi := math.Min(bandHi, f.xMax)
		if hi > lo {
			dc.SetRGBA(0.2, 0.7, 0.3, 0.12)
			dc.DrawRectangle(f.px(lo), marginT, f.px(hi)-f.px(lo), height-marginT-marginB)
			dc.Fill()
		}
	}

	polyline(dc, f, pg.Periods, pg.Power, 0.1, 0.2, 0.6, 1)
	for _, m := range markers {
		vline(dc, f, m, 0.8, 0.1, 0.1)
	}
	return dc.SavePNG(path)
}
