package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/tirestore_api/internal/service"
	"github.com/GTDGit/tirestore_api/internal/utils"
)

// SyncHandler exposes the legacy tire synchronizer to admins.
type SyncHandler struct {
	syncService *service.TireSyncService
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncService *service.TireSyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

type syncAllRequest struct {
	BatchSize int   `json:"batchSize" binding:"gte=0"`
	TiresOnly *bool `json:"tiresOnly"`
	DryRun    bool  `json:"dryRun"`
}

// SyncAll handles POST /v1/admin/sync/legacy-tires
// The body is optional; tiresOnly defaults to true.
func (h *SyncHandler) SyncAll(c *gin.Context) {
	var req syncAllRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	opts := service.SyncOptions{BatchSize: req.BatchSize, TiresOnly: true, DryRun: req.DryRun}
	if req.TiresOnly != nil {
		opts.TiresOnly = *req.TiresOnly
	}

	result, err := h.syncService.SyncAll(c.Request.Context(), opts)
	if err != nil && result == nil {
		log.Error().Err(err).Msg("Legacy tire sync failed")
		utils.Error(c, 500, "SYNC_FAILED", "Failed to read catalog")
		return
	}
	if err != nil {
		utils.Error(c, 499, "SYNC_CANCELLED", err.Error())
		return
	}

	utils.Success(c, 200, "Legacy tire sync completed", result)
}

// SyncOne handles POST /v1/admin/sync/legacy-tires/products/:id
func (h *SyncHandler) SyncOne(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		utils.Error(c, 400, "INVALID_ID", "Invalid catalog product id")
		return
	}

	result, err := h.syncService.SyncOne(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, utils.ErrCatalogProductNotFound) {
			utils.Error(c, 404, "NOT_FOUND", "Catalog product not found")
			return
		}
		utils.Error(c, 500, "SYNC_FAILED", err.Error())
		return
	}

	if !result.Success {
		utils.Error(c, 500, "SYNC_FAILED", result.Error)
		return
	}

	message := "Legacy tire synced"
	if !result.Synced {
		message = "Nothing to sync"
	}
	utils.Success(c, 200, message, result)
}

// GetStatus handles GET /v1/admin/sync/status
func (h *SyncHandler) GetStatus(c *gin.Context) {
	status, err := h.syncService.GetSyncStatus(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to get sync status")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get sync status")
		return
	}
	utils.Success(c, 200, "Sync status retrieved", status)
}

// ListRuns handles GET /v1/admin/sync/runs?limit=
func (h *SyncHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.syncService.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list sync runs")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to list sync runs")
		return
	}
	utils.Success(c, 200, "Sync runs retrieved", runs)
}
