package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/bliphunter/internal/glitch"
)

func TestPresetParams(t *testing.T) {
	raw, err := PresetParams(PresetRaw)
	if err != nil {
		t.Fatalf("PresetParams(raw): %v", err)
	}
	if raw.GapThreshold != 0.3 || raw.DurationThreshold != 0.1 || raw.Strategy != glitch.RouteByDuration {
		t.Errorf("unexpected raw preset %+v", raw)
	}
	if raw.SortByTime {
		t.Error("raw preset keeps discovery order")
	}

	vetoed, err := PresetParams(PresetVetoed)
	if err != nil {
		t.Fatalf("PresetParams(vetoed): %v", err)
	}
	if vetoed.GapThreshold != 0.1 || vetoed.Strategy != glitch.RouteByMedian || !vetoed.SortByTime {
		t.Errorf("unexpected vetoed preset %+v", vetoed)
	}
	if !math.IsInf(vetoed.Cuts.MaxChisq, 1) {
		t.Errorf("vetoed preset has no raw chisq cut, got %v", vetoed.Cuts.MaxChisq)
	}

	if _, err := PresetParams("hdf"); err == nil {
		t.Error("expected error for unknown preset")
	}
}

// The shipped defaults files document the presets and must agree with them.
func TestDefaultsFilesMatchPresets(t *testing.T) {
	for _, name := range []string{PresetRaw, PresetVetoed} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join("..", "..", "config", name+".defaults.json")
			got, err := Resolve(name, path)
			if err != nil {
				t.Fatalf("Resolve(%s): %v", name, err)
			}
			want, _ := PresetParams(name)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("defaults file differs from preset (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadThresholds_PartialOverride(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "override.json")
	testJSON := `{
  "gap_threshold": 0.2,
  "min_newsnr": 5.5,
  "strategy": "median"
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	p, err := Resolve(PresetRaw, configPath)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if p.GapThreshold != 0.2 {
		t.Errorf("GapThreshold = %v, want 0.2", p.GapThreshold)
	}
	if p.Cuts.MinNewSNR != 5.5 {
		t.Errorf("MinNewSNR = %v, want 5.5", p.Cuts.MinNewSNR)
	}
	if p.Strategy != glitch.RouteByMedian {
		t.Errorf("Strategy = %v, want median", p.Strategy)
	}
	// untouched fields keep the preset value
	if p.Cuts.MaxChisq != 2500 || p.DurationThreshold != 0.1 {
		t.Errorf("preset values lost: %+v", p)
	}
}

func TestLoadThresholds_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "missing.json")},
		{"wrong extension", write("cfg.yaml", "{}")},
		{"invalid json", write("bad.json", `{"gap_threshold": "x"`)},
		{"negative gap", write("gap.json", `{"gap_threshold": -1}`)},
		{"negative duration", write("dur.json", `{"duration_threshold": -0.1}`)},
		{"unknown strategy", write("strat.json", `{"strategy": "random"}`)},
		{"inverted snr", write("snr.json", `{"min_snr": 10, "max_snr": 5}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadThresholds(tt.path); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestResolve_ValidatesMergedParams(t *testing.T) {
	// min_snr alone passes file validation but crosses the preset max_snr.
	path := filepath.Join(t.TempDir(), "cross.json")
	if err := os.WriteFile(path, []byte(`{"min_snr": 500}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Resolve(PresetRaw, path); err == nil {
		t.Error("expected merged parameters to fail validation")
	}
}

func TestThresholdsParams_Nil(t *testing.T) {
	var c *Thresholds
	if diff := cmp.Diff(glitch.RawPreset(), c.Params(glitch.RawPreset())); diff != "" {
		t.Errorf("nil overrides changed preset:\n%s", diff)
	}
}
