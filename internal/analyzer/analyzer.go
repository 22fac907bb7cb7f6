// Package analyzer turns raw fetched items into scored infrastructure
// signals. Analysis is a pure function of the item and the configuration:
// no I/O, no state between calls.
package analyzer

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"chokepoint-radar/internal/config"
	"chokepoint-radar/internal/domain"
)

// Field truncation limits for constructed signals.
const (
	maxTitleLen       = 200
	maxDescriptionLen = 500
	maxBreadcrumbs    = 10
	maxEarlyMovers    = 5

	// minBreadcrumbs is the evidence floor: items matching fewer
	// distinct detection-pattern keywords are not signals.
	minBreadcrumbs = 2

	baseScore = 50.0

	// SectorGeneral is assigned when no configured sector matches.
	SectorGeneral = "General"
)

// Fixed keyword lists backing the three sub-scores. Each keyword
// contributes once regardless of how often it occurs in the text.
var (
	adoptionKeywords = []string{"mandatory", "required", "standard", "everyone", "industry adoption"}
	painKeywords     = []string{"frustrating", "difficult", "need better", "lack of"}

	moatKeywords    = []string{"network effects", "switching costs", "protocol", "standard", "data advantage"}
	fundingKeywords = []string{"series a", "series b", "funding", "investment"}

	earlyStageKeywords  = []string{"emerging", "new", "early", "beta", "just launched"}
	matureStageKeywords = []string{"established", "mature", "legacy", "traditional"}
)

// tollRule maps a keyword set to a toll mechanism. Rules are evaluated in
// order; categories overlap (e.g. "standard" appears in both moat and
// protocol contexts), so priority matters.
type tollRule struct {
	mechanism domain.TollMechanism
	keywords  []string
}

var tollRules = []tollRule{
	{domain.TollAPI, []string{"api", "request", "endpoint"}},
	{domain.TollNetwork, []string{"network", "transaction", "blockchain"}},
	{domain.TollData, []string{"data", "storage", "query"}},
	{domain.TollPlatform, []string{"platform", "marketplace", "revenue share"}},
	{domain.TollProtocol, []string{"protocol", "standard", "specification"}},
}

// Analyzer scores raw items against configured detection patterns.
type Analyzer struct {
	cfg config.Config
	now func() time.Time
}

// New creates an Analyzer for the given configuration.
func New(cfg config.Config) *Analyzer {
	return &Analyzer{cfg: cfg, now: time.Now}
}

// WithClock overrides the timestamp source. Used by tests.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Analyze examines one raw item and returns a scored signal, or nil when
// the item matches fewer than two detection-pattern keywords. A nil result
// is the normal "no signal" outcome, not an error.
func (a *Analyzer) Analyze(item domain.RawItem) *domain.Signal {
	rawText := item.Title + " " + item.Body
	combined := strings.ToLower(rawText)

	breadcrumbs := a.collectBreadcrumbs(combined)
	if len(breadcrumbs) < minBreadcrumbs {
		return nil
	}

	inevitability := scoreInevitability(combined, len(breadcrumbs))
	moat := scoreMoatPotential(combined)
	timing := scoreTiming(combined)

	description := item.Body
	if description == "" {
		description = item.Title
	}

	return &domain.Signal{
		Title:              truncate(item.Title, maxTitleLen),
		Description:        truncate(description, maxDescriptionLen),
		Source:             item.Source,
		Sector:             a.classifySector(combined),
		URL:                item.URL,
		Timestamp:          a.now(),
		Breadcrumbs:        capStrings(breadcrumbs, maxBreadcrumbs),
		InevitabilityScore: inevitability,
		MoatScore:          moat,
		TimingScore:        timing,
		TotalScore:         a.compositeScore(inevitability, moat, timing),
		TollMechanism:      identifyTollMechanism(combined),
		EarlyMovers:        extractEarlyMovers(rawText),
	}
}

// collectBreadcrumbs records every detection-pattern keyword present in the
// text as "<category>: <keyword>". Categories are walked in stable sorted
// order so identical input always yields identical evidence.
func (a *Analyzer) collectBreadcrumbs(text string) []string {
	var breadcrumbs []string
	for _, category := range a.cfg.PatternCategories() {
		for _, keyword := range a.cfg.DetectionPatterns[category] {
			if strings.Contains(text, strings.ToLower(keyword)) {
				breadcrumbs = append(breadcrumbs, category+": "+keyword)
			}
		}
	}
	return breadcrumbs
}

// classifySector picks the highest-scoring configured sector, where a
// sector's score is its matched keyword count times its weight. Ties go to
// the first sector in stable order; an all-zero result is "General".
func (a *Analyzer) classifySector(text string) string {
	best := SectorGeneral
	bestScore := 0.0

	for _, name := range a.cfg.SectorNames() {
		sector := a.cfg.Sectors[name]
		matched := 0
		for _, keyword := range sector.Keywords {
			if strings.Contains(text, strings.ToLower(keyword)) {
				matched++
			}
		}
		score := float64(matched) * sector.Weight
		if score > bestScore {
			best = name
			bestScore = score
		}
	}

	return best
}

// compositeScore blends the three sub-scores (each 0-100) using the
// configured weights and maps the result onto the 0-10 scale. The weights
// need not sum to 1, so the result is clamped to [0,10].
func (a *Analyzer) compositeScore(inevitability, moat, timing float64) float64 {
	w := a.cfg.ScoringWeights
	blended := inevitability*w.Inevitability + moat*w.MoatPotential + timing*w.TimingWindow
	return clamp(blended/10, 0, 10)
}

func scoreInevitability(text string, breadcrumbCount int) float64 {
	score := baseScore
	score += 10 * float64(countPresent(text, adoptionKeywords))
	score += 5 * float64(countPresent(text, painKeywords))
	score += 3 * float64(breadcrumbCount)
	return clamp(score, 0, 100)
}

func scoreMoatPotential(text string) float64 {
	score := baseScore
	score += 15 * float64(countPresent(text, moatKeywords))
	score += 10 * float64(countPresent(text, fundingKeywords))
	return clamp(score, 0, 100)
}

func scoreTiming(text string) float64 {
	score := baseScore
	score += 10 * float64(countPresent(text, earlyStageKeywords))
	score -= 15 * float64(countPresent(text, matureStageKeywords))
	return clamp(score, 0, 100)
}

// identifyTollMechanism returns the first rule whose keyword set matches.
func identifyTollMechanism(text string) domain.TollMechanism {
	for _, rule := range tollRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				return rule.mechanism
			}
		}
	}
	return domain.TollOther
}

// extractEarlyMovers pulls candidate entity names out of the original-case
// text: whitespace tokens stripped of non-word runes whose first rune is
// uppercase and whose cleaned length is 3-20. First-seen order is kept and
// duplicates dropped, capped at five.
func extractEarlyMovers(rawText string) []string {
	seen := make(map[string]bool)
	var movers []string

	for _, token := range strings.Fields(rawText) {
		clean := stripNonWord(token)
		if clean == "" {
			continue
		}
		runes := []rune(clean)
		if !unicode.IsUpper(runes[0]) || len(runes) < 3 || len(runes) > 20 {
			continue
		}
		if seen[clean] {
			continue
		}
		seen[clean] = true
		movers = append(movers, clean)
		if len(movers) == maxEarlyMovers {
			break
		}
	}

	return movers
}

// stripNonWord removes every rune that is not a letter, digit or underscore.
func stripNonWord(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// countPresent counts how many distinct keywords occur in the text.
func countPresent(text string, keywords []string) int {
	n := 0
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			n++
		}
	}
	return n
}

func capStrings(s []string, limit int) []string {
	if len(s) > limit {
		return s[:limit]
	}
	return s
}

// truncate bounds s to limit runes, never splitting a rune mid-sequence.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
