package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/echosim/internal/world"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `{"end_time": 2.5, "rate": 48000}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	p := world.DefaultParameters()
	cfg.Apply(&p)

	if p.EndTime != 2.5 {
		t.Errorf("end time = %v, want 2.5", p.EndTime)
	}
	if p.Rate != 48000 {
		t.Errorf("rate = %v, want 48000", p.Rate)
	}
	if p.C != 299792458.0 {
		t.Errorf("c = %v, want default kept", p.C)
	}
	if p.SimSamplingRate != 1000 {
		t.Errorf("sim sampling rate = %v, want default kept", p.SimSamplingRate)
	}
}

func TestLoadRejectsNonJSONExtension(t *testing.T) {
	if _, err := Load("run.yaml"); err == nil {
		t.Fatal("expected error for non-json extension")
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := writeConfig(t, `{"end_time": `)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed json")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
