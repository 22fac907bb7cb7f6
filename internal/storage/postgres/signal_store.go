package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"chokepoint-radar/internal/domain"
	"chokepoint-radar/internal/storage"
)

// SignalStore implements storage.SignalStore using PostgreSQL.
type SignalStore struct {
	pool *Pool
	now  func() time.Time
}

// NewSignalStore creates a new SignalStore.
func NewSignalStore(pool *Pool) *SignalStore {
	return &SignalStore{pool: pool, now: time.Now}
}

// WithClock overrides the time source. Used by tests to simulate the
// duplicate-detection window elapsing.
func (s *SignalStore) WithClock(now func() time.Time) *SignalStore {
	s.now = now
	return s
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

const signalColumns = `
	id, title, description, source, sector, url, created_at,
	inevitability_score, moat_score, timing_score, total_score,
	toll_mechanism, breadcrumbs, early_movers, status
`

// Exists reports whether a signal with the exact title was saved within
// the trailing window.
func (s *SignalStore) Exists(ctx context.Context, title string, window time.Duration) (bool, error) {
	query := `SELECT COUNT(*) FROM signals WHERE title = $1 AND created_at > $2`

	var count int
	err := s.pool.QueryRow(ctx, query, title, s.now().Add(-window)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check signal exists: %w", err)
	}
	return count > 0, nil
}

// Save inserts a new signal with status active and returns its identity.
func (s *SignalStore) Save(ctx context.Context, sig *domain.Signal) (int64, error) {
	if sig == nil || sig.Title == "" {
		return 0, storage.ErrInvalidInput
	}

	breadcrumbs, err := json.Marshal(sig.Breadcrumbs)
	if err != nil {
		return 0, fmt.Errorf("encode breadcrumbs: %w", err)
	}
	earlyMovers, err := json.Marshal(sig.EarlyMovers)
	if err != nil {
		return 0, fmt.Errorf("encode early movers: %w", err)
	}

	query := `
		INSERT INTO signals (
			title, description, source, sector, url, created_at,
			inevitability_score, moat_score, timing_score, total_score,
			toll_mechanism, breadcrumbs, early_movers, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 'active')
		RETURNING id
	`

	var id int64
	err = s.pool.QueryRow(ctx, query,
		sig.Title,
		sig.Description,
		sig.Source,
		sig.Sector,
		sig.URL,
		s.now(),
		sig.InevitabilityScore,
		sig.MoatScore,
		sig.TimingScore,
		sig.TotalScore,
		string(sig.TollMechanism),
		string(breadcrumbs),
		string(earlyMovers),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert signal: %w", err)
	}
	return id, nil
}

// GetActive returns active signals by total score descending, bounded by limit.
func (s *SignalStore) GetActive(ctx context.Context, limit int) ([]domain.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals
		WHERE status = 'active'
		ORDER BY total_score DESC, id ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get active signals: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// GetHighPriority returns active signals scoring at or above threshold.
func (s *SignalStore) GetHighPriority(ctx context.Context, threshold float64) ([]domain.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals
		WHERE status = 'active' AND total_score >= $1
		ORDER BY total_score DESC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("get high priority signals: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// GetBySector returns active signals with an exact sector match.
func (s *SignalStore) GetBySector(ctx context.Context, sector string) ([]domain.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals
		WHERE status = 'active' AND sector = $1
		ORDER BY total_score DESC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, sector)
	if err != nil {
		return nil, fmt.Errorf("get signals by sector: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// SectorStats aggregates active signals per sector.
func (s *SignalStore) SectorStats(ctx context.Context) (map[string]storage.SectorStats, error) {
	query := `
		SELECT
			sector,
			COUNT(*),
			ROUND(AVG(total_score)::numeric, 2)::float8,
			ROUND(MAX(total_score)::numeric, 2)::float8
		FROM signals
		WHERE status = 'active'
		GROUP BY sector
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get sector stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]storage.SectorStats)
	for rows.Next() {
		var sector string
		var st storage.SectorStats
		if err := rows.Scan(&sector, &st.Count, &st.AvgScore, &st.MaxScore); err != nil {
			return nil, fmt.Errorf("scan sector stats: %w", err)
		}
		stats[sector] = st
	}
	return stats, rows.Err()
}

// UpdateScore sets the total score and appends an audit row in one
// transaction.
func (s *SignalStore) UpdateScore(ctx context.Context, id int64, newScore float64, notes string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update score: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE signals SET total_score = $1 WHERE id = $2`, newScore, id)
	if err != nil {
		return fmt.Errorf("update signal score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO signal_updates (signal_id, created_at, total_score, notes) VALUES ($1, $2, $3, $4)`,
		id, s.now(), newScore, notes)
	if err != nil {
		return fmt.Errorf("insert signal update: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit update score: %w", err)
	}
	return nil
}

// AddToWatchlist appends a watchlist entry. Duplicate adds are kept.
func (s *SignalStore) AddToWatchlist(ctx context.Context, id int64, notes string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO watchlist (signal_id, added_at, notes) VALUES ($1, $2, $3)`,
		id, s.now(), notes)
	if err != nil {
		if isForeignKeyError(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("add to watchlist: %w", err)
	}
	return nil
}

// GetWatchlist returns active signals joined with their watchlist entries.
func (s *SignalStore) GetWatchlist(ctx context.Context) ([]domain.WatchedSignal, error) {
	query := `
		SELECT
			s.id, s.title, s.description, s.source, s.sector, s.url, s.created_at,
			s.inevitability_score, s.moat_score, s.timing_score, s.total_score,
			s.toll_mechanism, s.breadcrumbs, s.early_movers, s.status,
			w.added_at, w.notes
		FROM signals s
		JOIN watchlist w ON s.id = w.signal_id
		WHERE s.status = 'active'
		ORDER BY s.total_score DESC, w.id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get watchlist: %w", err)
	}
	defer rows.Close()

	var result []domain.WatchedSignal
	for rows.Next() {
		var ws domain.WatchedSignal
		var breadcrumbs, earlyMovers, toll, status string
		err := rows.Scan(
			&ws.ID, &ws.Title, &ws.Description, &ws.Source, &ws.Sector, &ws.URL, &ws.Timestamp,
			&ws.InevitabilityScore, &ws.MoatScore, &ws.TimingScore, &ws.TotalScore,
			&toll, &breadcrumbs, &earlyMovers, &status,
			&ws.WatchlistAdded, &ws.WatchlistNotes,
		)
		if err != nil {
			return nil, fmt.Errorf("scan watchlist row: %w", err)
		}
		ws.TollMechanism = domain.TollMechanism(toll)
		ws.Status = domain.SignalStatus(status)
		if err := decodeStrings(breadcrumbs, &ws.Breadcrumbs); err != nil {
			return nil, err
		}
		if err := decodeStrings(earlyMovers, &ws.EarlyMovers); err != nil {
			return nil, err
		}
		result = append(result, ws)
	}
	return result, rows.Err()
}

// Archive marks the signal archived and records the reason when given.
// Archiving an archived or unknown signal is a no-op.
func (s *SignalStore) Archive(ctx context.Context, id int64, reason string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin archive: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE signals SET status = 'archived' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("archive signal: %w", err)
	}

	if reason != "" && tag.RowsAffected() > 0 {
		_, err = tx.Exec(ctx,
			`INSERT INTO signal_updates (signal_id, created_at, notes) VALUES ($1, $2, $3)`,
			id, s.now(), "Archived: "+reason)
		if err != nil {
			return fmt.Errorf("insert archive note: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit archive: %w", err)
	}
	return nil
}

// DashboardStats returns the aggregate snapshot.
func (s *SignalStore) DashboardStats(ctx context.Context) (storage.DashboardStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'active'),
			COALESCE(ROUND((AVG(total_score) FILTER (WHERE status = 'active'))::numeric, 1)::float8, 0),
			COUNT(*) FILTER (WHERE status = 'active' AND total_score >= 8.5),
			COUNT(*) FILTER (WHERE status = 'active' AND total_score >= 7.5 AND total_score < 8.5),
			COUNT(*) FILTER (WHERE created_at > $1)
		FROM signals
	`

	var stats storage.DashboardStats
	err := s.pool.QueryRow(ctx, query, s.now().Add(-24*time.Hour)).Scan(
		&stats.ActiveSignals,
		&stats.AvgScore,
		&stats.HighPriority,
		&stats.HiddenGems,
		&stats.Recent24h,
	)
	if err != nil {
		return storage.DashboardStats{}, fmt.Errorf("get dashboard stats: %w", err)
	}
	return stats, nil
}

// scanSignals scans multiple rows into a slice of Signal.
func scanSignals(rows pgx.Rows) ([]domain.Signal, error) {
	var signals []domain.Signal

	for rows.Next() {
		var sig domain.Signal
		var breadcrumbs, earlyMovers, toll, status string

		err := rows.Scan(
			&sig.ID, &sig.Title, &sig.Description, &sig.Source, &sig.Sector, &sig.URL, &sig.Timestamp,
			&sig.InevitabilityScore, &sig.MoatScore, &sig.TimingScore, &sig.TotalScore,
			&toll, &breadcrumbs, &earlyMovers, &status,
		)
		if err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}

		sig.TollMechanism = domain.TollMechanism(toll)
		sig.Status = domain.SignalStatus(status)
		if err := decodeStrings(breadcrumbs, &sig.Breadcrumbs); err != nil {
			return nil, err
		}
		if err := decodeStrings(earlyMovers, &sig.EarlyMovers); err != nil {
			return nil, err
		}
		signals = append(signals, sig)
	}

	return signals, rows.Err()
}

// decodeStrings unpacks a JSON-serialized string list column.
func decodeStrings(raw string, dst *[]string) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode string list: %w", err)
	}
	return nil
}
