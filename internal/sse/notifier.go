package sse

import (
	"time"

	"github.com/GTDGit/tirestore_api/internal/models"
)

// SyncNotifier is the interface the synchronizer uses to report progress.
type SyncNotifier interface {
	SyncStarted(runID string, scope models.SyncScope, sourceCount int, dryRun bool)
	BatchCompleted(runID string, batch models.SyncBatch)
	SyncFinished(result *models.SyncResult)
}

// HubNotifier implements SyncNotifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) SyncStarted(runID string, scope models.SyncScope, sourceCount int, dryRun bool) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(&SyncEvent{
		Event:       EventSyncStarted,
		RunID:       runID,
		Scope:       scope,
		DryRun:      dryRun,
		SourceCount: sourceCount,
		Timestamp:   time.Now(),
	})
}

func (n *HubNotifier) BatchCompleted(runID string, batch models.SyncBatch) {
	if n.hub.ClientCount() == 0 {
		return
	}
	event := EventSyncBatchCompleted
	if batch.Error != "" {
		event = EventSyncBatchFailed
	}
	n.hub.Broadcast(&SyncEvent{
		Event:     event,
		RunID:     runID,
		Batch:     &batch,
		Timestamp: time.Now(),
	})
}

func (n *HubNotifier) SyncFinished(result *models.SyncResult) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(&SyncEvent{
		Event:     EventSyncFinished,
		RunID:     result.RunID,
		Scope:     result.Scope,
		DryRun:    result.DryRun,
		Result:    result,
		Timestamp: time.Now(),
	})
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (NopNotifier) SyncStarted(string, models.SyncScope, int, bool) {}
func (NopNotifier) BatchCompleted(string, models.SyncBatch)         {}
func (NopNotifier) SyncFinished(*models.SyncResult)                 {}
