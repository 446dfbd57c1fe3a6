package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/tirestore_api/internal/category"
	"github.com/GTDGit/tirestore_api/internal/config"
	"github.com/GTDGit/tirestore_api/internal/designation"
	"github.com/GTDGit/tirestore_api/internal/models"
	"github.com/GTDGit/tirestore_api/internal/sse"
	"github.com/GTDGit/tirestore_api/internal/utils"
)

const (
	DefaultSyncBatchSize = 50
	MaxSyncBatchSize     = 500

	// maxRecordedErrors caps the error lines stored on a sync run.
	maxRecordedErrors = 20
)

// Skip reasons reported for candidates rejected by the validity filter.
const (
	SkipUnknownBrand      = "unknown brand"
	SkipNonPositivePrice  = "non-positive sale price"
	SkipUnknownDimensions = "unknown dimensions"
)

// CatalogReader is the read side of the catalog store used by the synchronizer.
type CatalogReader interface {
	ListActive(ctx context.Context, categoryID *int) ([]models.CatalogProduct, error)
	GetByID(ctx context.Context, id int) (*models.CatalogProduct, error)
	CountActive(ctx context.Context) (int, error)
}

// LegacyTireWriter is the write side of the legacy tire store.
type LegacyTireWriter interface {
	UpsertBatch(ctx context.Context, rows []models.LegacyTire) (int, error)
	Count(ctx context.Context) (int, error)
}

// SyncRunRecorder persists the history of full syncs.
type SyncRunRecorder interface {
	Create(ctx context.Context, run *models.SyncRun) error
	Finish(ctx context.Context, run *models.SyncRun) error
	LastFinishedAt(ctx context.Context) (*time.Time, error)
	ListRecent(ctx context.Context, limit int) ([]models.SyncRun, error)
}

// StatusCache caches GetSyncStatus results. Get returns (nil, nil) on a miss.
type StatusCache interface {
	Get(ctx context.Context) (*models.SyncStatus, error)
	Set(ctx context.Context, status *models.SyncStatus) error
	Invalidate(ctx context.Context) error
}

// CategoryMapper maps a catalog category to its legacy type tag.
type CategoryMapper interface {
	TypeFor(categoryID int) category.Type
}

// SyncOptions controls a full sync.
type SyncOptions struct {
	BatchSize int  `json:"batchSize"`
	TiresOnly bool `json:"tiresOnly"`
	DryRun    bool `json:"dryRun"`
}

// TireSyncService mirrors active catalog products into the legacy tire table.
type TireSyncService struct {
	catalog  CatalogReader
	legacy   LegacyTireWriter
	runs     SyncRunRecorder
	parser   designation.Parser
	mapper   CategoryMapper
	notifier sse.SyncNotifier
	cache    StatusCache
	cfg      config.SyncConfig
}

// NewTireSyncService constructs a TireSyncService with the default parser,
// the built-in category table and no notifier or cache.
func NewTireSyncService(catalog CatalogReader, legacy LegacyTireWriter, runs SyncRunRecorder, cfg config.SyncConfig) *TireSyncService {
	return &TireSyncService{
		catalog:  catalog,
		legacy:   legacy,
		runs:     runs,
		parser:   designation.NewRegexParser(),
		mapper:   category.NewTable(),
		notifier: sse.NopNotifier{},
		cfg:      cfg,
	}
}

// SetParser replaces the designation parser.
func (s *TireSyncService) SetParser(p designation.Parser) { s.parser = p }

// SetCategoryMapper replaces the category mapper.
func (s *TireSyncService) SetCategoryMapper(m CategoryMapper) { s.mapper = m }

// SetNotifier wires progress events (e.g. the admin SSE hub).
func (s *TireSyncService) SetNotifier(n sse.SyncNotifier) { s.notifier = n }

// SetStatusCache wires the status cache invalidated after every write.
func (s *TireSyncService) SetStatusCache(c StatusCache) { s.cache = c }

// SyncAll reads every active catalog product (tires only when opts.TiresOnly)
// and upserts the derived legacy tires batch by batch. A failed batch is
// counted and reported but never stops the run. Cancelling ctx stops the run
// between batches; the partial result is returned together with ctx.Err().
func (s *TireSyncService) SyncAll(ctx context.Context, opts SyncOptions) (*models.SyncResult, error) {
	batchSize := s.batchSize(opts.BatchSize)

	scope := models.SyncScopeAll
	var categoryID *int
	if opts.TiresOnly {
		scope = models.SyncScopeTires
		id := category.TireCategoryID
		categoryID = &id
	}

	result := &models.SyncResult{
		Scope:     scope,
		DryRun:    opts.DryRun,
		BatchSize: batchSize,
		Errors:    []string{},
		StartedAt: time.Now().UTC(),
	}
	if !opts.DryRun {
		result.RunID = uuid.NewString()
	}

	products, err := s.catalog.ListActive(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	result.SourceCount = len(products)

	run := s.startRun(ctx, result)
	s.notifier.SyncStarted(result.RunID, scope, len(products), opts.DryRun)

	log.Info().
		Str("run_id", result.RunID).
		Str("scope", string(scope)).
		Bool("dry_run", opts.DryRun).
		Int("source_count", len(products)).
		Int("batch_size", batchSize).
		Msg("Legacy tire sync started")

	var runErr error
	for start, index := 0, 1; start < len(products); start, index = start+batchSize, index+1 {
		if err := ctx.Err(); err != nil {
			runErr = err
			log.Warn().Err(err).Str("run_id", result.RunID).Int("next_batch", index).Msg("Legacy tire sync cancelled")
			break
		}

		end := start + batchSize
		if end > len(products) {
			end = len(products)
		}

		batch := s.syncBatch(ctx, products[start:end], start, index, opts.DryRun, result)
		result.Batches++
		s.notifier.BatchCompleted(result.RunID, batch)
	}

	result.FinishedAt = time.Now().UTC()
	s.finishRun(run, result)
	if !opts.DryRun && result.SuccessCount > 0 {
		s.invalidateStatus(ctx)
	}
	s.notifier.SyncFinished(result)

	log.Info().
		Str("run_id", result.RunID).
		Int("written", result.SuccessCount).
		Int("errors", result.ErrorCount).
		Int("skipped", result.SkippedCount).
		Int("batches", result.Batches).
		Dur("duration", result.FinishedAt.Sub(result.StartedAt)).
		Msg("Legacy tire sync completed")

	return result, runErr
}

// syncBatch derives, filters and writes one batch, folding its outcome into result.
func (s *TireSyncService) syncBatch(ctx context.Context, chunk []models.CatalogProduct, offset, index int, dryRun bool, result *models.SyncResult) models.SyncBatch {
	candidates := make([]models.LegacyTire, 0, len(chunk))
	skipped := 0
	for i := range chunk {
		tire, reason := s.derive(&chunk[i])
		if reason != "" {
			skipped++
			log.Debug().Int("code", chunk[i].Code).Str("reason", reason).Msg("Catalog product skipped")
			continue
		}
		candidates = append(candidates, tire)
	}

	batch := models.SyncBatch{
		Index:     index,
		From:      offset + 1,
		To:        offset + len(chunk),
		Attempted: len(candidates),
		Skipped:   skipped,
	}
	result.SkippedCount += skipped

	if len(candidates) == 0 {
		return batch
	}
	if dryRun {
		result.SuccessCount += len(candidates)
		return batch
	}

	written, err := s.write(ctx, candidates)
	if err != nil {
		result.ErrorCount += len(candidates)
		result.Errors = append(result.Errors, fmt.Sprintf("batch %d-%d: %v", batch.From, batch.To, err))
		batch.Error = err.Error()
		log.Error().
			Err(err).
			Str("run_id", result.RunID).
			Int("batch", index).
			Int("from", batch.From).
			Int("to", batch.To).
			Int("attempted", len(candidates)).
			Msg("Legacy tire batch failed")
		return batch
	}

	if collapsed := len(candidates) - written; collapsed > 0 {
		log.Debug().Str("run_id", result.RunID).Int("batch", index).Int("collapsed", collapsed).Msg("Colliding legacy keys in batch")
	}
	result.SuccessCount += len(candidates)
	return batch
}

// SyncOne syncs a single catalog product. A missing product is the only hard
// failure (utils.ErrCatalogProductNotFound). Products that are inactive, not
// tires, or rejected by the validity filter are successful no-ops.
func (s *TireSyncService) SyncOne(ctx context.Context, catalogProductID int) (*models.SyncOneResult, error) {
	res := &models.SyncOneResult{CatalogProductID: catalogProductID}

	p, err := s.catalog.GetByID(ctx, catalogProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", utils.ErrCatalogProductNotFound, catalogProductID)
		}
		res.Error = fmt.Sprintf("failed to read catalog product: %v", err)
		return res, nil
	}

	if t := s.mapper.TypeFor(p.CategoryID); t != category.TypeTire {
		res.Success = true
		res.Reason = fmt.Sprintf("category %d maps to %s, not a tire", p.CategoryID, t)
		return res, nil
	}
	if !p.Active {
		res.Success = true
		res.Reason = "catalog product is inactive"
		return res, nil
	}

	tire, reason := s.derive(p)
	if reason != "" {
		res.Success = true
		res.Reason = "skipped: " + reason
		return res, nil
	}

	if _, err := s.write(ctx, []models.LegacyTire{tire}); err != nil {
		log.Error().Err(err).Int("catalog_product_id", catalogProductID).Msg("Legacy tire sync failed")
		res.Error = err.Error()
		return res, nil
	}

	s.invalidateStatus(ctx)
	res.Success = true
	res.Synced = true
	res.Record = &tire

	log.Info().
		Int("catalog_product_id", catalogProductID).
		Str("brand", tire.Brand).
		Str("model", tire.Model).
		Str("dimensions", tire.Dimensions).
		Msg("Legacy tire synced")
	return res, nil
}

// GetSyncStatus compares active catalog rows with legacy rows. It is a
// heuristic: colliding keys make the legacy count legitimately lower.
func (s *TireSyncService) GetSyncStatus(ctx context.Context) (*models.SyncStatus, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Sync status cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	catalogCount, err := s.catalog.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count catalog products: %w", err)
	}
	legacyCount, err := s.legacy.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count legacy tires: %w", err)
	}
	last, err := s.runs.LastFinishedAt(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read last sync: %w", err)
	}

	status := &models.SyncStatus{
		CatalogCount:      catalogCount,
		LegacyCount:       legacyCount,
		LastSyncTimestamp: last,
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, status); err != nil {
			log.Warn().Err(err).Msg("Sync status cache write failed")
		}
	}
	return status, nil
}

// RecentRuns returns the latest recorded full syncs.
func (s *TireSyncService) RecentRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	return s.runs.ListRecent(ctx, limit)
}

// derive builds the legacy candidate for p and returns a non-empty skip
// reason when it fails the validity filter.
func (s *TireSyncService) derive(p *models.CatalogProduct) (models.LegacyTire, string) {
	fields := s.parser.Parse(p.Designation)
	tire := models.LegacyTire{
		Brand:       fields.Brand,
		Model:       fields.Model,
		Dimensions:  fields.Dimensions,
		Type:        string(s.mapper.TypeFor(p.CategoryID)),
		Price:       p.SalePrice,
		Stock:       p.StockAvailable,
		Description: truncateRunes(p.Designation, models.MaxLegacyDescriptionLen),
	}

	switch {
	case fields.Brand == designation.UnknownBrand:
		return tire, SkipUnknownBrand
	case !p.SalePrice.IsPositive():
		return tire, SkipNonPositivePrice
	case fields.Dimensions == designation.UnknownDimensions:
		return tire, SkipUnknownDimensions
	}
	return tire, ""
}

// write upserts rows under the per-batch timeout.
func (s *TireSyncService) write(ctx context.Context, rows []models.LegacyTire) (int, error) {
	if s.cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.BatchTimeout)
		defer cancel()
	}
	return s.legacy.UpsertBatch(ctx, rows)
}

func (s *TireSyncService) batchSize(requested int) int {
	size := requested
	if size <= 0 {
		size = s.cfg.BatchSize
	}
	if size <= 0 {
		size = DefaultSyncBatchSize
	}
	if size > MaxSyncBatchSize {
		size = MaxSyncBatchSize
	}
	return size
}

// startRun records the run unless it is a dry run. Recording failures are
// logged only; they must not block the sync itself.
func (s *TireSyncService) startRun(ctx context.Context, result *models.SyncResult) *models.SyncRun {
	if result.DryRun {
		return nil
	}
	run := &models.SyncRun{
		ID:          result.RunID,
		Scope:       result.Scope,
		BatchSize:   result.BatchSize,
		SourceCount: result.SourceCount,
		StartedAt:   result.StartedAt,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to record sync run")
		return nil
	}
	return run
}

func (s *TireSyncService) finishRun(run *models.SyncRun, result *models.SyncResult) {
	if run == nil {
		return
	}
	finished := result.FinishedAt
	run.SourceCount = result.SourceCount
	run.SuccessCount = result.SuccessCount
	run.ErrorCount = result.ErrorCount
	run.SkippedCount = result.SkippedCount
	run.FinishedAt = &finished

	errs := result.Errors
	if len(errs) > maxRecordedErrors {
		errs = errs[:maxRecordedErrors]
	}
	run.Errors = strings.Join(errs, "\n")

	// The caller's context may already be cancelled; the run must still be closed.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.runs.Finish(ctx, run); err != nil {
		log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to finish sync run")
	}
}

func (s *TireSyncService) invalidateStatus(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		log.Warn().Err(err).Msg("Sync status cache invalidation failed")
	}
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
