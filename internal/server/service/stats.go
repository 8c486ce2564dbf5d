package service

import (
	"context"
	"fmt"

	"memoir/internal/server/database"
)

// StatsStore is the persistence interface for the singleton counters row.
// Implementations must make each mutation a single atomic increment so
// concurrent writers cannot lose each other's deltas.
type StatsStore interface {
	AddMemory(ctx context.Context, size int64) error
	AddDeleted(ctx context.Context, n int64) error
	Snapshot(ctx context.Context) (*database.PhotoStats, error)
}

// Summary is the aggregate snapshot served to clients.
type Summary struct {
	DeletedPhotoCount int64 `json:"deletedPhotoCount"`
	PeopleCount       int64 `json:"peopleCount"`
	AvgPhotoSize      int64 `json:"avgPhotoSize"`
	TotalPhotoSize    int64 `json:"totalPhotoSize"`
}

// StatsService owns exclusive access to the aggregate counters. Counters
// only ever increase; memories deleted by the retention job stay counted.
type StatsService struct {
	stats StatsStore
}

// NewStatsService creates a new stats service.
func NewStatsService(stats StatsStore) *StatsService {
	return &StatsService{stats: stats}
}

// RecordMemoryAdded credits one accepted memory write. Callers on the write
// path treat a failure here as non-fatal: the memory record is already
// durable and the counters catch up on the next write.
func (s *StatsService) RecordMemoryAdded(ctx context.Context, size int64) error {
	return s.stats.AddMemory(ctx, size)
}

// RecordPhotosDeleted increments the cleaned-up photo counter by the
// caller-supplied amount.
func (s *StatsService) RecordPhotosDeleted(ctx context.Context, count int64) error {
	if count <= 0 {
		return fmt.Errorf("%w: count must be positive", ErrValidation)
	}
	return s.stats.AddDeleted(ctx, count)
}

// Summary returns the current counters. The average divides by the deleted
// count, floored at one so an empty counter never divides by zero.
func (s *StatsService) Summary(ctx context.Context) (*Summary, error) {
	snapshot, err := s.stats.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	divisor := snapshot.DeletedPhotoCount
	if divisor < 1 {
		divisor = 1
	}

	return &Summary{
		DeletedPhotoCount: snapshot.DeletedPhotoCount,
		PeopleCount:       snapshot.PeopleCount,
		AvgPhotoSize:      snapshot.TotalPhotoSize / divisor,
		TotalPhotoSize:    snapshot.TotalPhotoSize,
	}, nil
}
