package storage

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner deletes memories older than the retention window and reports
// how many were removed. Implemented by the memory service.
type Cleaner interface {
	CleanupOlderThan(ctx context.Context, window time.Duration) (int64, error)
}

// RetentionService periodically deletes memories past the retention window,
// along with their stored image objects.
type RetentionService struct {
	cleaner  Cleaner
	window   time.Duration
	interval time.Duration
	done     chan struct{}
}

// NewRetentionService creates a new retention service.
func NewRetentionService(cleaner Cleaner, window, interval time.Duration) *RetentionService {
	return &RetentionService{
		cleaner:  cleaner,
		window:   window,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the retention loop in a background goroutine.
func (rs *RetentionService) Start(ctx context.Context) {
	slog.Info("retention service started", "window", rs.window, "interval", rs.interval)

	go func() {
		ticker := time.NewTicker(rs.interval)
		defer ticker.Stop()

		// Run once immediately on start
		rs.runCycle(ctx)

		for {
			select {
			case <-ticker.C:
				rs.runCycle(ctx)
			case <-ctx.Done():
				slog.Info("retention service stopping")
				close(rs.done)
				return
			}
		}
	}()
}

// Wait blocks until the retention service has fully stopped.
func (rs *RetentionService) Wait() {
	<-rs.done
}

func (rs *RetentionService) runCycle(ctx context.Context) {
	deleted, err := rs.cleaner.CleanupOlderThan(ctx, rs.window)
	if err != nil {
		slog.Error("retention cycle failed", "error", err)
		return
	}
	if deleted == 0 {
		slog.Info("no memories past retention window")
		return
	}
	slog.Info("retention cycle complete", "deleted", deleted, "window", rs.window)
}
