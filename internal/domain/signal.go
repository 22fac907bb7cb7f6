package domain

import "time"

// RawItem is a normalized item fetched from an external content source.
// It is ephemeral: produced by a source adapter, consumed by the analyzer,
// and discarded after analysis.
type RawItem struct {
	Title  string
	Body   string // optional body text (self-post, abstract, description)
	URL    string
	Source string // source label, e.g. "Reddit/programming"
}

// Signal represents a detected infrastructure chokepoint signal.
// Corresponds to the signals table in PostgreSQL. ID and Status are
// assigned by the store on save.
type Signal struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`       // truncated to 200 chars
	Description string       `json:"description"` // truncated to 500 chars
	Source      string       `json:"source"`
	Sector      string       `json:"sector"` // configured sector name or "General"
	URL         string       `json:"url"`
	Timestamp   time.Time    `json:"timestamp"`
	Breadcrumbs []string     `json:"breadcrumbs"` // "<category>: <keyword>", at most 10, never fewer than 2

	InevitabilityScore float64 `json:"inevitability_score"` // 0-100
	MoatScore          float64 `json:"moat_score"`          // 0-100
	TimingScore        float64 `json:"timing_score"`        // 0-100
	TotalScore         float64 `json:"total_score"`         // 0-10

	TollMechanism TollMechanism `json:"toll_mechanism"`
	EarlyMovers   []string      `json:"early_movers"` // at most 5

	Status SignalStatus `json:"status"`
}

// SignalUpdate is an append-only audit row recording a score change or
// archival event for a signal.
type SignalUpdate struct {
	ID         int64     `json:"id"`
	SignalID   int64     `json:"signal_id"`
	Timestamp  time.Time `json:"timestamp"`
	TotalScore *float64  `json:"total_score,omitempty"` // nil for archival-only rows
	Notes      string    `json:"notes"`
}

// WatchlistEntry marks a signal for ongoing attention. Duplicate adds for
// the same signal are tolerated, not deduplicated.
type WatchlistEntry struct {
	ID       int64     `json:"id"`
	SignalID int64     `json:"signal_id"`
	AddedAt  time.Time `json:"added_at"`
	Notes    string    `json:"notes"`
}

// WatchedSignal is a signal joined with one of its watchlist entries.
// A signal added to the watchlist twice appears twice.
type WatchedSignal struct {
	Signal
	WatchlistAdded time.Time `json:"watchlist_added"`
	WatchlistNotes string    `json:"watchlist_notes"`
}
