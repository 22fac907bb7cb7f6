package storage

import (
	"context"
	"time"

	"chokepoint-radar/internal/domain"
)

// SectorStats aggregates active signals within one sector.
// AvgScore and MaxScore are rounded to 2 decimal places.
type SectorStats struct {
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
	MaxScore float64 `json:"max_score"`
}

// DashboardStats is an aggregate snapshot over the store.
type DashboardStats struct {
	ActiveSignals int     `json:"active_signals"`
	AvgScore      float64 `json:"avg_score"`      // over active signals, rounded to 1 decimal
	HighPriority  int     `json:"high_priority"`  // active with total_score >= 8.5
	HiddenGems    int     `json:"hidden_gems"`    // active with total_score in [7.5, 8.5)
	Recent24h     int     `json:"recent_24h"`     // saved within the trailing 24 hours
}

// SignalStore persists infrastructure signals, their audit trail and the
// watchlist. Every operation is atomic with respect to the statements it
// issues; no transaction spans multiple store calls.
type SignalStore interface {
	// Exists reports whether a signal with the exact title was saved
	// within the trailing window. Matching is exact string equality;
	// reworded near-duplicates are not detected.
	Exists(ctx context.Context, title string, window time.Duration) (bool, error)

	// Save inserts a new signal with status active and returns its
	// assigned identity. Save does not check for duplicates; callers use
	// Exists first.
	Save(ctx context.Context, sig *domain.Signal) (int64, error)

	// GetActive returns active signals ordered by total score descending,
	// bounded by limit.
	GetActive(ctx context.Context, limit int) ([]domain.Signal, error)

	// GetHighPriority returns active signals with total score at or above
	// threshold, descending.
	GetHighPriority(ctx context.Context, threshold float64) ([]domain.Signal, error)

	// GetBySector returns active signals with an exact sector match,
	// descending by score.
	GetBySector(ctx context.Context, sector string) ([]domain.Signal, error)

	// SectorStats aggregates active signals per sector.
	SectorStats(ctx context.Context) (map[string]SectorStats, error)

	// UpdateScore sets the signal's total score and appends an audit row
	// in the same transaction. newScore is not range-validated.
	UpdateScore(ctx context.Context, id int64, newScore float64, notes string) error

	// AddToWatchlist appends a watchlist entry. Duplicate adds for the
	// same signal are tolerated, not deduplicated.
	AddToWatchlist(ctx context.Context, id int64, notes string) error

	// GetWatchlist returns active signals joined with their watchlist
	// entries, descending by score. A signal added twice appears twice.
	GetWatchlist(ctx context.Context) ([]domain.WatchedSignal, error)

	// Archive marks the signal archived (soft delete, idempotent). A
	// non-empty reason appends an "Archived: <reason>" audit row.
	Archive(ctx context.Context, id int64, reason string) error

	// DashboardStats returns the aggregate snapshot.
	DashboardStats(ctx context.Context) (DashboardStats, error)
}
