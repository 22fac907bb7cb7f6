package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		// sources to poll
		"signal_sources": {
			"hackernews": {"enabled": true},
			"reddit": {"enabled": true, "subreddits": ["programming", "devops"]},
			"arxiv": {"enabled": false, "categories": ["cs.DC"]},
		},
		"sectors": {
			"Fintech": {"keywords": ["payment"], "weight": 1.2}
		},
		"detection_patterns": {
			"access_control": ["mandatory", "gatekeeper"]
		},
		"scoring_weights": {"inevitability": 0.5, "moat_potential": 0.3, "timing_window": 0.2},
		"min_signal_score": 6.5,
		"high_priority_threshold": 9.0,
		"scan_interval_minutes": 30,
		"database": {"dsn": "postgres://localhost/radar"},
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !cfg.SourceEnabled("hackernews") {
		t.Error("Expected hackernews enabled")
	}
	if cfg.SourceEnabled("arxiv") {
		t.Error("Expected arxiv disabled")
	}
	if cfg.SourceEnabled("github") {
		t.Error("Expected unknown source disabled")
	}
	if got := cfg.Sources["reddit"].Subreddits; len(got) != 2 || got[0] != "programming" {
		t.Errorf("Subreddits = %v", got)
	}
	if cfg.Sectors["Fintech"].Weight != 1.2 {
		t.Errorf("Fintech weight = %v, want 1.2", cfg.Sectors["Fintech"].Weight)
	}
	if cfg.MinSignalScore != 6.5 {
		t.Errorf("MinSignalScore = %v, want 6.5", cfg.MinSignalScore)
	}
	if cfg.HighPriorityThreshold != 9.0 {
		t.Errorf("HighPriorityThreshold = %v, want 9.0", cfg.HighPriorityThreshold)
	}
	if cfg.ScanInterval() != 30*time.Minute {
		t.Errorf("ScanInterval = %v, want 30m", cfg.ScanInterval())
	}
	if cfg.ScoringWeights.Inevitability != 0.5 {
		t.Errorf("Inevitability weight = %v, want 0.5", cfg.ScoringWeights.Inevitability)
	}
	if cfg.Database.DSN != "postgres://localhost/radar" {
		t.Errorf("DSN = %q", cfg.Database.DSN)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.MinSignalScore != DefaultMinSignalScore {
		t.Errorf("MinSignalScore = %v, want %v", cfg.MinSignalScore, DefaultMinSignalScore)
	}
	if cfg.HighPriorityThreshold != DefaultHighPriorityThreshold {
		t.Errorf("HighPriorityThreshold = %v, want %v", cfg.HighPriorityThreshold, DefaultHighPriorityThreshold)
	}
	if cfg.ScanInterval() != time.Duration(DefaultScanIntervalMinutes)*time.Minute {
		t.Errorf("ScanInterval = %v", cfg.ScanInterval())
	}
	if cfg.ScoringWeights != DefaultScoringWeights {
		t.Errorf("ScoringWeights = %+v, want defaults", cfg.ScoringWeights)
	}
}

func TestLoad_ExplicitZeroGetsDefault(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"min_signal_score": 0, "scan_interval_minutes": 0}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Zero values are indistinguishable from absent keys and take the
	// documented defaults.
	if cfg.MinSignalScore != DefaultMinSignalScore {
		t.Errorf("MinSignalScore = %v, want %v", cfg.MinSignalScore, DefaultMinSignalScore)
	}
	if cfg.ScanIntervalMinutes != DefaultScanIntervalMinutes {
		t.Errorf("ScanIntervalMinutes = %v, want %v", cfg.ScanIntervalMinutes, DefaultScanIntervalMinutes)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestLoad_Malformed(t *testing.T) {
	if _, err := Load(writeConfig(t, `{"sectors": [1,2,3]}`)); err == nil {
		t.Fatal("Expected error for malformed config")
	}
}

func TestStableNameOrder(t *testing.T) {
	cfg := Config{
		DetectionPatterns: map[string][]string{"z": nil, "a": nil, "m": nil},
		Sectors: map[string]SectorConfig{
			"Zulu": {}, "Alpha": {}, "Mike": {},
		},
	}

	cats := cfg.PatternCategories()
	if len(cats) != 3 || cats[0] != "a" || cats[1] != "m" || cats[2] != "z" {
		t.Errorf("PatternCategories = %v", cats)
	}

	names := cfg.SectorNames()
	if len(names) != 3 || names[0] != "Alpha" || names[1] != "Mike" || names[2] != "Zulu" {
		t.Errorf("SectorNames = %v", names)
	}
}
