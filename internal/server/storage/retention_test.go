package storage

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingCleaner struct {
	calls  atomic.Int64
	window atomic.Int64
}

func (c *countingCleaner) CleanupOlderThan(_ context.Context, window time.Duration) (int64, error) {
	c.calls.Add(1)
	c.window.Store(int64(window))
	return 2, nil
}

func TestRetentionService(t *testing.T) {
	t.Run("runs immediately and stops on cancel", func(t *testing.T) {
		cleaner := &countingCleaner{}
		rs := NewRetentionService(cleaner, 3*24*time.Hour, time.Hour)

		ctx, cancel := context.WithCancel(context.Background())
		rs.Start(ctx)

		deadline := time.Now().Add(2 * time.Second)
		for cleaner.calls.Load() == 0 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		if cleaner.calls.Load() == 0 {
			t.Fatal("expected an immediate cleanup cycle on start")
		}
		if got := time.Duration(cleaner.window.Load()); got != 3*24*time.Hour {
			t.Errorf("window = %v, want 72h", got)
		}

		cancel()
		rs.Wait() // must not hang
	})

	t.Run("ticks on the configured interval", func(t *testing.T) {
		cleaner := &countingCleaner{}
		rs := NewRetentionService(cleaner, time.Hour, 20*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		rs.Start(ctx)

		deadline := time.Now().Add(2 * time.Second)
		for cleaner.calls.Load() < 3 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		cancel()
		rs.Wait()

		if cleaner.calls.Load() < 3 {
			t.Errorf("expected at least 3 cycles, got %d", cleaner.calls.Load())
		}
	})
}
