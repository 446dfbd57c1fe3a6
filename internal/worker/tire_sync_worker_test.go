package worker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/GTDGit/tirestore_api/internal/models"
	"github.com/GTDGit/tirestore_api/internal/service"
	"github.com/GTDGit/tirestore_api/internal/worker"
)

type countingSyncer struct {
	calls atomic.Int32
	opts  atomic.Value
}

func (s *countingSyncer) SyncAll(_ context.Context, opts service.SyncOptions) (*models.SyncResult, error) {
	s.opts.Store(opts)
	s.calls.Add(1)
	return &models.SyncResult{}, nil
}

func TestTireSyncWorkerRunsImmediatelyAndStops(t *testing.T) {
	c := qt.New(t)
	syncer := &countingSyncer{}
	w := worker.NewTireSyncWorker(syncer, time.Hour, service.SyncOptions{TiresOnly: true, BatchSize: 25})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for syncer.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		c.Fatal("worker did not stop")
	}

	c.Assert(syncer.calls.Load(), qt.Equals, int32(1))
	c.Assert(syncer.opts.Load(), qt.DeepEquals, service.SyncOptions{TiresOnly: true, BatchSize: 25})
}

func TestTireSyncWorkerTicks(t *testing.T) {
	c := qt.New(t)
	syncer := &countingSyncer{}
	w := worker.NewTireSyncWorker(syncer, 10*time.Millisecond, service.SyncOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for syncer.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	c.Assert(syncer.calls.Load() >= 3, qt.IsTrue)
}
