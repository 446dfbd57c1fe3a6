package models

import "time"

// SyncScope selects which catalog rows a full sync reads.
type SyncScope string

const (
	SyncScopeAll   SyncScope = "all"
	SyncScopeTires SyncScope = "tires"
)

// SyncRun is a recorded full sync (legacy_sync_runs).
type SyncRun struct {
	ID           string     `db:"id" json:"id"`
	Scope        SyncScope  `db:"scope" json:"scope"`
	BatchSize    int        `db:"batch_size" json:"batchSize"`
	SourceCount  int        `db:"source_count" json:"sourceCount"`
	SuccessCount int        `db:"success_count" json:"successCount"`
	ErrorCount   int        `db:"error_count" json:"errorCount"`
	SkippedCount int        `db:"skipped_count" json:"skippedCount"`
	Errors       string     `db:"errors" json:"errors"`
	StartedAt    time.Time  `db:"started_at" json:"startedAt"`
	FinishedAt   *time.Time `db:"finished_at" json:"finishedAt,omitempty"`
}

// SyncResult aggregates the outcome of a full sync.
type SyncResult struct {
	RunID        string    `json:"runId,omitempty"`
	Scope        SyncScope `json:"scope"`
	DryRun       bool      `json:"dryRun"`
	BatchSize    int       `json:"batchSize"`
	SourceCount  int       `json:"sourceCount"`
	Batches      int       `json:"batches"`
	SuccessCount int       `json:"successCount"`
	ErrorCount   int       `json:"errorCount"`
	SkippedCount int       `json:"skippedCount"`
	Errors       []string  `json:"errors"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
}

// SyncOneResult is the outcome of syncing a single catalog product.
// Success with Synced=false is a no-op, not a failure.
type SyncOneResult struct {
	CatalogProductID int         `json:"catalogProductId"`
	Success          bool        `json:"success"`
	Synced           bool        `json:"synced"`
	Reason           string      `json:"reason,omitempty"`
	Error            string      `json:"error,omitempty"`
	Record           *LegacyTire `json:"record,omitempty"`
}

// SyncStatus compares catalog and legacy row counts for operators.
type SyncStatus struct {
	CatalogCount      int        `json:"catalogCount"`
	LegacyCount       int        `json:"legacyCount"`
	LastSyncTimestamp *time.Time `json:"lastSyncTimestamp"`
}

// SyncBatch describes the outcome of one batch of a full sync.
// From and To are 1-based positions in the source listing.
type SyncBatch struct {
	Index     int    `json:"index"`
	From      int    `json:"from"`
	To        int    `json:"to"`
	Attempted int    `json:"attempted"`
	Skipped   int    `json:"skipped"`
	Error     string `json:"error,omitempty"`
}
