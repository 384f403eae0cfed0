package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsMatchScenarioTuning(t *testing.T) {
	cfg := Default()

	if cfg.Sanity.Max != 100 || cfg.Sanity.Threshold != 50 {
		t.Errorf("sanity max/threshold = %d/%d, want 100/50", cfg.Sanity.Max, cfg.Sanity.Threshold)
	}
	if cfg.Sanity.DecreaseInterval != 2*time.Second || cfg.Sanity.DecreaseAmount != 1 {
		t.Errorf("decay = %v by %d, want 2s by 1", cfg.Sanity.DecreaseInterval, cfg.Sanity.DecreaseAmount)
	}
	if cfg.Battery.DrainInterval != 6*time.Second {
		t.Errorf("battery drain interval = %v, want 6s", cfg.Battery.DrainInterval)
	}
	if cfg.Antagonist.GracePeriod != 3*time.Second || cfg.Antagonist.SearchTimeout != 10*time.Second {
		t.Errorf("grace/search = %v/%v", cfg.Antagonist.GracePeriod, cfg.Antagonist.SearchTimeout)
	}
	if cfg.Antagonist.SearchGrace <= cfg.Antagonist.GracePeriod {
		t.Errorf("search grace %v not longer than grace %v", cfg.Antagonist.SearchGrace, cfg.Antagonist.GracePeriod)
	}
}

func TestLoadOverridesOnlyPresentFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ward.yaml")
	override := "sanity:\n  threshold: 30\nantagonist:\n  detection: sight\n"
	if err := os.WriteFile(path, []byte(override), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sanity.Threshold != 30 {
		t.Errorf("threshold = %d, want 30", cfg.Sanity.Threshold)
	}
	if cfg.Sanity.Max != 100 {
		t.Errorf("max = %d, want default 100", cfg.Sanity.Max)
	}
	if cfg.Antagonist.Detection != "sight" {
		t.Errorf("detection = %q, want sight", cfg.Antagonist.Detection)
	}
}

func TestLoadRejectsUnknownDetection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("antagonist:\n  detection: smell\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown detection strategy")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Generator.Repeatable = true
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !back.Generator.Repeatable {
		t.Error("repeatable flag lost in round trip")
	}
	if back.Antagonist.MinWait != cfg.Antagonist.MinWait {
		t.Errorf("min wait = %v, want %v", back.Antagonist.MinWait, cfg.Antagonist.MinWait)
	}
}
