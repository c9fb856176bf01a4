package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/bliphunter/internal/glitch"
)

// Preset names accepted by PresetParams and the -variant flag.
const (
	PresetRaw    = "raw"
	PresetVetoed = "vetoed"
)

// Thresholds overrides the values of a preset. Fields omitted from the JSON
// keep the preset's value, so partial files are safe.
type Thresholds struct {
	GapThreshold      *float64 `json:"gap_threshold,omitempty"`
	DurationThreshold *float64 `json:"duration_threshold,omitempty"`
	MinMedianNewSNR   *float64 `json:"min_median_newsnr,omitempty"`
	Strategy          *string  `json:"strategy,omitempty"` // "duration" or "median"
	SortByTime        *bool    `json:"sort_by_time,omitempty"`

	// Representative cuts
	MaxSNR          *float64 `json:"max_snr,omitempty"`
	MinSNR          *float64 `json:"min_snr,omitempty"`
	MinNewSNR       *float64 `json:"min_newsnr,omitempty"`
	MaxChisq        *float64 `json:"max_chisq,omitempty"`
	MaxReducedChisq *float64 `json:"max_reduced_chisq,omitempty"`
}

// PresetParams returns the named preset.
func PresetParams(name string) (glitch.Params, error) {
	switch name {
	case PresetRaw:
		return glitch.RawPreset(), nil
	case PresetVetoed:
		return glitch.VetoedPreset(), nil
	default:
		return glitch.Params{}, fmt.Errorf("unknown preset %q (want %s or %s)", name, PresetRaw, PresetVetoed)
	}
}

// LoadThresholds loads a Thresholds from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadThresholds(path string) (*Thresholds, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 64 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Thresholds{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that are set.
func (c *Thresholds) Validate() error {
	if c.GapThreshold != nil && *c.GapThreshold <= 0 {
		return fmt.Errorf("gap_threshold must be positive, got %f", *c.GapThreshold)
	}
	if c.DurationThreshold != nil && *c.DurationThreshold < 0 {
		return fmt.Errorf("duration_threshold must be non-negative, got %f", *c.DurationThreshold)
	}
	if c.Strategy != nil {
		if _, err := glitch.ParseStrategy(*c.Strategy); err != nil {
			return err
		}
	}
	if c.MinSNR != nil && c.MaxSNR != nil && *c.MinSNR > *c.MaxSNR {
		return fmt.Errorf("min_snr %f exceeds max_snr %f", *c.MinSNR, *c.MaxSNR)
	}
	return nil
}

// Params applies the overrides on top of base.
func (c *Thresholds) Params(base glitch.Params) glitch.Params {
	p := base
	if c == nil {
		return p
	}
	p.GapThreshold = orFloat(c.GapThreshold, p.GapThreshold)
	p.DurationThreshold = orFloat(c.DurationThreshold, p.DurationThreshold)
	p.MinMedianNewSNR = orFloat(c.MinMedianNewSNR, p.MinMedianNewSNR)
	if c.Strategy != nil {
		// Validate has already rejected unknown names.
		p.Strategy, _ = glitch.ParseStrategy(*c.Strategy)
	}
	if c.SortByTime != nil {
		p.SortByTime = *c.SortByTime
	}
	p.Cuts.MaxSNR = orFloat(c.MaxSNR, p.Cuts.MaxSNR)
	p.Cuts.MinSNR = orFloat(c.MinSNR, p.Cuts.MinSNR)
	p.Cuts.MinNewSNR = orFloat(c.MinNewSNR, p.Cuts.MinNewSNR)
	p.Cuts.MaxChisq = orFloat(c.MaxChisq, p.Cuts.MaxChisq)
	p.Cuts.MaxReducedChisq = orFloat(c.MaxReducedChisq, p.Cuts.MaxReducedChisq)
	return p
}

// Resolve loads the preset and, when path is non-empty, applies the
// overrides from that file.
func Resolve(preset, path string) (glitch.Params, error) {
	p, err := PresetParams(preset)
	if err != nil {
		return glitch.Params{}, err
	}
	if path == "" {
		return p, nil
	}
	cfg, err := LoadThresholds(path)
	if err != nil {
		return glitch.Params{}, err
	}
	p = cfg.Params(p)
	if err := p.Validate(); err != nil {
		return glitch.Params{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return p, nil
}

func orFloat(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
