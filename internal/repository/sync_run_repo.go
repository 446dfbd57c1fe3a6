package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/tirestore_api/internal/models"
)

// SyncRunRepository records full sync runs in legacy_sync_runs.
type SyncRunRepository struct {
	db *sqlx.DB
}

// NewSyncRunRepository creates a new SyncRunRepository.
func NewSyncRunRepository(db *sqlx.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Create inserts a started run.
func (r *SyncRunRepository) Create(ctx context.Context, run *models.SyncRun) error {
	q := r.db.Rebind(`
        INSERT INTO legacy_sync_runs (id, scope, batch_size, source_count, started_at)
        VALUES (?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q, run.ID, run.Scope, run.BatchSize, run.SourceCount, run.StartedAt)
	return err
}

// Finish stores the final counts of a run.
func (r *SyncRunRepository) Finish(ctx context.Context, run *models.SyncRun) error {
	q := r.db.Rebind(`
        UPDATE legacy_sync_runs
        SET source_count = ?, success_count = ?, error_count = ?, skipped_count = ?, errors = ?, finished_at = ?
        WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, q,
		run.SourceCount,
		run.SuccessCount,
		run.ErrorCount,
		run.SkippedCount,
		run.Errors,
		run.FinishedAt,
		run.ID,
	)
	return err
}

// LastFinishedAt returns when the most recent run finished, or nil if none has.
func (r *SyncRunRepository) LastFinishedAt(ctx context.Context) (*time.Time, error) {
	const q = `
        SELECT finished_at FROM legacy_sync_runs
        WHERE finished_at IS NOT NULL
        ORDER BY finished_at DESC
        LIMIT 1`

	var ts time.Time
	if err := r.db.GetContext(ctx, &ts, q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ts, nil
}

// ListRecent returns the latest runs, newest first.
func (r *SyncRunRepository) ListRecent(ctx context.Context, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	q := r.db.Rebind(`
        SELECT id, scope, batch_size, source_count, success_count, error_count, skipped_count, errors, started_at, finished_at
        FROM legacy_sync_runs
        ORDER BY started_at DESC
        LIMIT ?`)

	var runs []models.SyncRun
	if err := r.db.SelectContext(ctx, &runs, q, limit); err != nil {
		return nil, err
	}
	return runs, nil
}
