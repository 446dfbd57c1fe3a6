package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/tirestore_api/internal/models"
	"github.com/GTDGit/tirestore_api/internal/service"
)

// TireSyncer is the part of TireSyncService the worker drives.
type TireSyncer interface {
	SyncAll(ctx context.Context, opts service.SyncOptions) (*models.SyncResult, error)
}

// TireSyncWorker periodically mirrors the catalog into the legacy tire table.
type TireSyncWorker struct {
	syncer   TireSyncer
	interval time.Duration
	opts     service.SyncOptions
}

// NewTireSyncWorker constructs a TireSyncWorker.
func NewTireSyncWorker(syncer TireSyncer, interval time.Duration, opts service.SyncOptions) *TireSyncWorker {
	return &TireSyncWorker{
		syncer:   syncer,
		interval: interval,
		opts:     opts,
	}
}

// Start begins the periodic sync loop and listens for context cancellation.
func (w *TireSyncWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Bool("tires_only", w.opts.TiresOnly).Msg("Starting legacy tire sync worker")

	// Run immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Legacy tire sync worker stopped")
			return
		}
	}
}

func (w *TireSyncWorker) run(ctx context.Context) {
	result, err := w.syncer.SyncAll(ctx, w.opts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error().Err(err).Msg("Scheduled legacy tire sync failed")
		return
	}

	if result.ErrorCount > 0 {
		log.Warn().
			Str("run_id", result.RunID).
			Int("errors", result.ErrorCount).
			Strs("batch_errors", result.Errors).
			Msg("Scheduled legacy tire sync finished with errors")
	}
}
