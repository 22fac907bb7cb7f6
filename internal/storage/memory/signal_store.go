// Package memory provides an in-memory SignalStore used by tests and the
// --use-memory mode.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"chokepoint-radar/internal/domain"
	"chokepoint-radar/internal/storage"
)

// SignalStore is an in-memory implementation of storage.SignalStore.
type SignalStore struct {
	mu        sync.RWMutex
	nextID    int64
	signals   map[int64]*domain.Signal
	savedAt   map[int64]time.Time // save instant, used for window queries
	updates   []domain.SignalUpdate
	watchlist []domain.WatchlistEntry
	now       func() time.Time
}

// NewSignalStore creates a new in-memory signal store.
func NewSignalStore() *SignalStore {
	return &SignalStore{
		nextID:  1,
		signals: make(map[int64]*domain.Signal),
		savedAt: make(map[int64]time.Time),
		now:     time.Now,
	}
}

// WithClock overrides the time source. Used by tests to simulate the
// duplicate-detection window elapsing.
func (s *SignalStore) WithClock(now func() time.Time) *SignalStore {
	s.now = now
	return s
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

// Exists reports whether a signal with the exact title was saved within
// the trailing window.
func (s *SignalStore) Exists(_ context.Context, title string, window time.Duration) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.now().Add(-window)
	for id, sig := range s.signals {
		if sig.Title == title && s.savedAt[id].After(cutoff) {
			return true, nil
		}
	}
	return false, nil
}

// Save inserts a new signal with status active and returns its identity.
func (s *SignalStore) Save(_ context.Context, sig *domain.Signal) (int64, error) {
	if sig == nil || sig.Title == "" {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	stored := *sig
	stored.ID = id
	stored.Status = domain.StatusActive
	stored.Breadcrumbs = append([]string(nil), sig.Breadcrumbs...)
	stored.EarlyMovers = append([]string(nil), sig.EarlyMovers...)

	s.signals[id] = &stored
	s.savedAt[id] = s.now()
	return id, nil
}

// GetActive returns active signals by total score descending, bounded by limit.
func (s *SignalStore) GetActive(_ context.Context, limit int) ([]domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := s.activeSignalsLocked()
	if limit >= 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetHighPriority returns active signals scoring at or above threshold.
func (s *SignalStore) GetHighPriority(_ context.Context, threshold float64) ([]domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Signal
	for _, sig := range s.activeSignalsLocked() {
		if sig.TotalScore >= threshold {
			result = append(result, sig)
		}
	}
	return result, nil
}

// GetBySector returns active signals with an exact sector match.
func (s *SignalStore) GetBySector(_ context.Context, sector string) ([]domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Signal
	for _, sig := range s.activeSignalsLocked() {
		if sig.Sector == sector {
			result = append(result, sig)
		}
	}
	return result, nil
}

// SectorStats aggregates active signals per sector.
func (s *SignalStore) SectorStats(_ context.Context) (map[string]storage.SectorStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	sums := make(map[string]float64)
	maxes := make(map[string]float64)

	for _, sig := range s.signals {
		if sig.Status != domain.StatusActive {
			continue
		}
		counts[sig.Sector]++
		sums[sig.Sector] += sig.TotalScore
		if sig.TotalScore > maxes[sig.Sector] {
			maxes[sig.Sector] = sig.TotalScore
		}
	}

	stats := make(map[string]storage.SectorStats, len(counts))
	for sector, count := range counts {
		stats[sector] = storage.SectorStats{
			Count:    count,
			AvgScore: round2(sums[sector] / float64(count)),
			MaxScore: round2(maxes[sector]),
		}
	}
	return stats, nil
}

// UpdateScore sets the total score and appends an audit row.
func (s *SignalStore) UpdateScore(_ context.Context, id int64, newScore float64, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, ok := s.signals[id]
	if !ok {
		return storage.ErrNotFound
	}

	sig.TotalScore = newScore
	score := newScore
	s.updates = append(s.updates, domain.SignalUpdate{
		ID:         int64(len(s.updates) + 1),
		SignalID:   id,
		Timestamp:  s.now(),
		TotalScore: &score,
		Notes:      notes,
	})
	return nil
}

// AddToWatchlist appends a watchlist entry. Duplicate adds are kept.
func (s *SignalStore) AddToWatchlist(_ context.Context, id int64, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.signals[id]; !ok {
		return storage.ErrNotFound
	}

	s.watchlist = append(s.watchlist, domain.WatchlistEntry{
		ID:       int64(len(s.watchlist) + 1),
		SignalID: id,
		AddedAt:  s.now(),
		Notes:    notes,
	})
	return nil
}

// GetWatchlist returns active signals joined with their watchlist entries.
func (s *SignalStore) GetWatchlist(_ context.Context) ([]domain.WatchedSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.WatchedSignal
	for _, entry := range s.watchlist {
		sig, ok := s.signals[entry.SignalID]
		if !ok || sig.Status != domain.StatusActive {
			continue
		}
		result = append(result, domain.WatchedSignal{
			Signal:         *sig,
			WatchlistAdded: entry.AddedAt,
			WatchlistNotes: entry.Notes,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalScore > result[j].TotalScore
	})
	return result, nil
}

// Archive marks the signal archived. Archiving an archived or unknown
// signal is a no-op.
func (s *SignalStore) Archive(_ context.Context, id int64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, ok := s.signals[id]
	if !ok {
		return nil
	}
	sig.Status = domain.StatusArchived

	if reason != "" {
		s.updates = append(s.updates, domain.SignalUpdate{
			ID:        int64(len(s.updates) + 1),
			SignalID:  id,
			Timestamp: s.now(),
			Notes:     "Archived: " + reason,
		})
	}
	return nil
}

// DashboardStats returns the aggregate snapshot.
func (s *SignalStore) DashboardStats(_ context.Context) (storage.DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats storage.DashboardStats
	var scoreSum float64
	cutoff := s.now().Add(-24 * time.Hour)

	for id, sig := range s.signals {
		// Recency counts every signal regardless of status.
		if s.savedAt[id].After(cutoff) {
			stats.Recent24h++
		}
		if sig.Status != domain.StatusActive {
			continue
		}
		stats.ActiveSignals++
		scoreSum += sig.TotalScore
		switch {
		case sig.TotalScore >= 8.5:
			stats.HighPriority++
		case sig.TotalScore >= 7.5:
			stats.HiddenGems++
		}
	}

	if stats.ActiveSignals > 0 {
		stats.AvgScore = math.Round(scoreSum/float64(stats.ActiveSignals)*10) / 10
	}
	return stats, nil
}

// Updates returns a copy of the audit trail. Used by tests.
func (s *SignalStore) Updates() []domain.SignalUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.SignalUpdate(nil), s.updates...)
}

// activeSignalsLocked returns copies of active signals by score
// descending, ties broken by identity ascending. Caller holds the lock.
func (s *SignalStore) activeSignalsLocked() []domain.Signal {
	var result []domain.Signal
	for _, sig := range s.signals {
		if sig.Status == domain.StatusActive {
			result = append(result, *sig)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalScore != result[j].TotalScore {
			return result[i].TotalScore > result[j].TotalScore
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
