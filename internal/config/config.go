// Package config loads simulation run configuration from JSON files. Fields
// omitted from the file keep their defaults, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/echosim/internal/world"
)

// RunConfig is the JSON-facing run configuration consumed by the demo
// binary. All fields are optional pointers so a partial file only overrides
// what it names.
type RunConfig struct {
	StartTime       *float64 `json:"start_time,omitempty"`
	EndTime         *float64 `json:"end_time,omitempty"`
	C               *float64 `json:"c,omitempty"`
	Rate            *float64 `json:"rate,omitempty"`
	SimSamplingRate *float64 `json:"sim_sampling_rate,omitempty"`
	OversampleRatio *int     `json:"oversample_ratio,omitempty"`
	ADCBits         *int     `json:"adc_bits,omitempty"`
	RandomSeed      *uint64  `json:"random_seed,omitempty"`
	ExportCSV       *bool    `json:"export_csv,omitempty"`
	ExportBinary    *bool    `json:"export_binary,omitempty"`
}

// Load reads a RunConfig from a JSON file. The file must have a .json
// extension and stay under the size cap.
func Load(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// Apply overlays the configured fields onto the given parameters.
func (c *RunConfig) Apply(p *world.Parameters) {
	if c.StartTime != nil {
		p.StartTime = *c.StartTime
	}
	if c.EndTime != nil {
		p.EndTime = *c.EndTime
	}
	if c.C != nil {
		p.C = *c.C
	}
	if c.Rate != nil {
		p.Rate = *c.Rate
	}
	if c.SimSamplingRate != nil {
		p.SimSamplingRate = *c.SimSamplingRate
	}
	if c.OversampleRatio != nil {
		p.OversampleRatio = *c.OversampleRatio
	}
	if c.ADCBits != nil {
		p.ADCBits = *c.ADCBits
	}
	if c.RandomSeed != nil {
		p.RandomSeed = *c.RandomSeed
	}
	if c.ExportCSV != nil {
		p.ExportCSV = *c.ExportCSV
	}
	if c.ExportBinary != nil {
		p.ExportBinary = *c.ExportBinary
	}
}
