package plot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/transitscope/transitscope/internal/bls"
	"github.com/transitscope/transitscope/internal/lightcurve"
)

func checkPNG(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	if info.Size() == 0 {
		t.Fatalf("%s is empty", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if len(raw) < 8 || string(raw[1:4]) != "PNG" {
		t.Errorf("%s does not look like a PNG", path)
	}
}

func TestLightCurve(t *testing.T) {
	lc := lightcurve.LightCurve{
		Time: []float64{0, 1, 2, 3, 4},
		Flux: []float64{1.0, 0.99, 1.01, 1.0, 0.995},
	}

	path := filepath.Join(t.TempDir(), "lc.png")
	if err := LightCurve(path, "Test Curve", lc); err != nil {
		t.Fatalf("LightCurve: %v", err)
	}
	checkPNG(t, path)
}

func TestFolded(t *testing.T) {
	fc := lightcurve.FoldedCurve{
		Phase: []float64{-0.4, -0.2, 0, 0.2, 0.4},
		Flux:  []float64{1.0, 1.0, 0.99, 1.0, 1.0},
	}
	binned := lightcurve.BinnedCurve{
		Phase: []float64{-0.25, 0, 0.25},
		Flux:  []float64{1.0, 0.99, 1.0},
	}

	path := filepath.Join(t.TempDir(), "folded.png")
	if err := Folded(path, "Folded", fc, binned, -0.5, 0.5); err != nil {
		t.Fatalf("Folded: %v", err)
	}
	checkPNG(t, path)
}

func TestFoldedEmptyRange(t *testing.T) {
	// A phase range with no samples still renders a frame.
	fc := lightcurve.FoldedCurve{Phase: []float64{0.4}, Flux: []float64{1}}

	path := filepath.Join(t.TempDir(), "empty.png")
	if err := Folded(path, "Empty", fc, lightcurve.BinnedCurve{}, -0.1, 0.1); err != nil {
		t.Fatalf("Folded: %v", err)
	}
	checkPNG(t, path)
}

func TestPeriodogram(t *testing.T) {
	pg := bls.Periodogram{
		Periods: []float64{5, 4, 3, 2, 1},
		Power:   []float64{0.1, 0.2, 0.9, 0.3, 0.1},
	}

	path := filepath.Join(t.TempDir(), "pg.png")
	if err := Periodogram(path, "Periodogram", pg, []float64{3}, 2, 4); err != nil {
		t.Fatalf("Periodogram: %v", err)
	}
	checkPNG(t, path)
}
