// Package config loads the radar configuration from a JSON file.
// Comments and trailing commas are tolerated (JSONC). A Config value is
// threaded explicitly into every component; there is no package-level state.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/tidwall/jsonc"
)

// SourceConfig holds per-source parameters.
type SourceConfig struct {
	Enabled    bool     `json:"enabled"`
	Subreddits []string `json:"subreddits,omitempty"` // reddit only
	Categories []string `json:"categories,omitempty"` // arxiv only
}

// SectorConfig holds the keyword list and weight for one sector bucket.
type SectorConfig struct {
	Keywords []string `json:"keywords"`
	Weight   float64  `json:"weight"`
}

// ScoringWeights blends the three sub-scores into the composite score.
// The weights are not required to sum to 1.
type ScoringWeights struct {
	Inevitability float64 `json:"inevitability"`
	MoatPotential float64 `json:"moat_potential"`
	TimingWindow  float64 `json:"timing_window"`
}

// DatabaseConfig holds persistence settings.
type DatabaseConfig struct {
	DSN string `json:"dsn"` // PostgreSQL connection string
}

// Config is the full configuration surface, loaded once at startup.
type Config struct {
	Sources               map[string]SourceConfig `json:"signal_sources"`
	Sectors               map[string]SectorConfig `json:"sectors"`
	DetectionPatterns     map[string][]string     `json:"detection_patterns"`
	ScoringWeights        ScoringWeights          `json:"scoring_weights"`
	MinSignalScore        float64                 `json:"min_signal_score"`
	HighPriorityThreshold float64                 `json:"high_priority_threshold"`
	ScanIntervalMinutes   int                     `json:"scan_interval_minutes"`
	Database              DatabaseConfig          `json:"database"`
}

// Defaults applied when the corresponding field is absent from the file.
const (
	DefaultMinSignalScore        = 7.0
	DefaultHighPriorityThreshold = 8.5
	DefaultScanIntervalMinutes   = 60
)

// DefaultScoringWeights are used when the scoring_weights section is absent.
var DefaultScoringWeights = ScoringWeights{
	Inevitability: 0.4,
	MoatPotential: 0.35,
	TimingWindow:  0.25,
}

// Load reads and parses the configuration file at path. The caller decides
// what to do on error; the documented fallback is an empty Config, which
// disables all sources and degrades the detection loop to a no-op.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills absent scalar fields with documented defaults.
// Absence is detected by the zero value, so an explicit 0 in the file is
// treated the same as a missing key. None of these fields has a meaningful
// zero setting: a 0 threshold or interval would admit everything or spin
// the loop, so the defaults win either way.
func (c *Config) applyDefaults() {
	if c.MinSignalScore == 0 {
		c.MinSignalScore = DefaultMinSignalScore
	}
	if c.HighPriorityThreshold == 0 {
		c.HighPriorityThreshold = DefaultHighPriorityThreshold
	}
	if c.ScanIntervalMinutes == 0 {
		c.ScanIntervalMinutes = DefaultScanIntervalMinutes
	}
	if c.ScoringWeights == (ScoringWeights{}) {
		c.ScoringWeights = DefaultScoringWeights
	}
}

// ScanInterval returns the configured cycle interval as a duration.
func (c Config) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalMinutes) * time.Minute
}

// SourceEnabled reports whether the named source is enabled.
func (c Config) SourceEnabled(name string) bool {
	return c.Sources[name].Enabled
}

// PatternCategories returns detection-pattern category names in a stable
// order. JSON objects carry no order, so sorted order stands in for
// "configured order" and keeps classification deterministic.
func (c Config) PatternCategories() []string {
	names := make([]string, 0, len(c.DetectionPatterns))
	for name := range c.DetectionPatterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SectorNames returns sector names in a stable order, used for
// deterministic tie-breaking during classification.
func (c Config) SectorNames() []string {
	names := make([]string, 0, len(c.Sectors))
	for name := range c.Sectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
