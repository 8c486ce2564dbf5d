package database

import (
	"context"
	"fmt"
)

// StatsRepository owns the singleton photo_stats row. All mutations are
// single-statement increments, so concurrent writers cannot lose each
// other's deltas.
type StatsRepository struct {
	db *DB
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// ensureRow creates the singleton row if it does not exist yet.
// Safe to call concurrently; the insert is a no-op once the row is present.
func (r *StatsRepository) ensureRow(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx,
		"INSERT INTO photo_stats (id) VALUES (TRUE) ON CONFLICT (id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("failed to ensure stats row: %w", err)
	}
	return nil
}

// AddMemory credits one accepted memory write: total_photo_size grows by
// size and people_count is recomputed as the distinct-nickname count.
func (r *StatsRepository) AddMemory(ctx context.Context, size int64) error {
	if err := r.ensureRow(ctx); err != nil {
		return err
	}
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE photo_stats SET
			total_photo_size = total_photo_size + $1,
			people_count = (SELECT COUNT(DISTINCT nickname) FROM memories),
			updated_at = NOW()
		WHERE id
	`, size)
	if err != nil {
		return fmt.Errorf("failed to record memory in stats: %w", err)
	}
	return nil
}

// AddDeleted increments the cleaned-up photo counter by n.
func (r *StatsRepository) AddDeleted(ctx context.Context, n int64) error {
	if err := r.ensureRow(ctx); err != nil {
		return err
	}
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE photo_stats SET
			deleted_photo_count = deleted_photo_count + $1,
			updated_at = NOW()
		WHERE id
	`, n)
	if err != nil {
		return fmt.Errorf("failed to record deleted photos: %w", err)
	}
	return nil
}

// Snapshot returns the current counters, creating the row on first access.
func (r *StatsRepository) Snapshot(ctx context.Context) (*PhotoStats, error) {
	if err := r.ensureRow(ctx); err != nil {
		return nil, err
	}
	stats := &PhotoStats{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT deleted_photo_count, people_count, total_photo_size
		FROM photo_stats WHERE id
	`).Scan(
		&stats.DeletedPhotoCount,
		&stats.PeopleCount,
		&stats.TotalPhotoSize,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}
	return stats, nil
}
