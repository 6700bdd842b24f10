package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
archive:
  base_url: http://localhost:8080
  timeout_seconds: 120
plot_dir: /tmp/plots
cache_dir: /tmp/cache
results_db: /tmp/runs.db
trojan_targets:
  - name: "TIC 424865156"
    period_days: 2.2047372
    epoch_btjd: 1354.7182
    depth_ppm: 6100
hz_targets:
  - name: "TIC 307210830"
    known_periods_days: [2.253, 3.691, 7.451]
    hz_period_min_days: 12.0
    hz_period_max_days: 28.0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Archive.BaseURL != "http://localhost:8080" || cfg.Archive.TimeoutSeconds != 120 {
		t.Errorf("archive section misparsed: %+v", cfg.Archive)
	}
	if cfg.PlotDir != "/tmp/plots" || cfg.CacheDir != "/tmp/cache" || cfg.ResultsDB != "/tmp/runs.db" {
		t.Errorf("output paths misparsed: %+v", cfg)
	}

	if len(cfg.Trojan) != 1 {
		t.Fatalf("expected 1 trojan target, got %d", len(cfg.Trojan))
	}
	tr := cfg.Trojan[0]
	if tr.Name != "TIC 424865156" || tr.PeriodDays != 2.2047372 || tr.EpochBTJD != 1354.7182 || tr.DepthPPM != 6100 {
		t.Errorf("trojan target misparsed: %+v", tr)
	}

	if len(cfg.HZ) != 1 {
		t.Fatalf("expected 1 hz target, got %d", len(cfg.HZ))
	}
	hz := cfg.HZ[0]
	if hz.Name != "TIC 307210830" || len(hz.KnownPeriods) != 3 || hz.HZPeriodMinDays != 12 || hz.HZPeriodMaxDays != 28 {
		t.Errorf("hz target misparsed: %+v", hz)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
trojan_targets:
  - name: "TIC 1"
    period_days: 3.5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Archive.Author != "SPOC" {
		t.Errorf("expected default author SPOC, got %q", cfg.Archive.Author)
	}
	if cfg.Archive.Mission != "TESS" {
		t.Errorf("expected default mission TESS, got %q", cfg.Archive.Mission)
	}
	if cfg.ResultsDB != "transitscope.db" {
		t.Errorf("expected default results db, got %q", cfg.ResultsDB)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			"trojan target without name",
			"trojan_targets:\n  - period_days: 2.0\n",
			"missing name",
		},
		{
			"trojan target without period",
			"trojan_targets:\n  - name: \"TIC 1\"\n",
			"period_days must be positive",
		},
		{
			"hz target without name",
			"hz_targets:\n  - hz_period_min_days: 4\n    hz_period_max_days: 10\n",
			"missing name",
		},
		{
			"hz target with inverted range",
			"hz_targets:\n  - name: \"TIC 1\"\n    hz_period_min_days: 10\n    hz_period_max_days: 4\n",
			"period range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "trojan_targets: [unterminated")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
