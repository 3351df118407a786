package budgetmodule

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/slatehq/slate/internal/config"
	"github.com/slatehq/slate/internal/database"
	"github.com/slatehq/slate/internal/events"
	"github.com/slatehq/slate/internal/logger"
)

// SyncService keeps the display fields of linked budget items consistent
// with their source entities. Both operations run after the primary entity
// write has already succeeded: failures here are recorded and published but
// never surfaced to the primary caller.
type SyncService struct {
	db       *gorm.DB
	registry *Registry
	eventBus events.EventBus
}

// NewSyncService creates a budget sync service
func NewSyncService(db *gorm.DB, registry *Registry, eventBus events.EventBus) *SyncService {
	return &SyncService{
		db:       db,
		registry: registry,
		eventBus: eventBus,
	}
}

// SyncOnUpdate propagates a source-entity change to every linked budget
// item, mirroring only the aspects the link registry tracks for the changed
// fields. Item writes are independent: one failing item does not block the
// rest.
func (s *SyncService) SyncOnUpdate(kind LinkKind, id string, changedFields map[string]interface{}) error {
	syncDescription := false
	syncAmount := false
	for field := range changedFields {
		d, a := s.registry.Tracks(kind, field)
		syncDescription = syncDescription || d
		syncAmount = syncAmount || a
	}
	if !syncDescription && !syncAmount {
		return nil
	}

	items, err := s.registry.FindLinked(kind, id)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	// Re-read the source so a partial update payload still mirrors the
	// complete current description.
	snap, err := s.registry.Snapshot(kind, id)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if syncDescription {
		updates["description"] = snap.Description
	}
	if syncAmount {
		// Estimated only. Actual amounts are recorded history and are
		// never touched by sync.
		updates["estimated_amount"] = snap.Amount
	}
	if config.Get().Sync.TouchLastSynced {
		now := time.Now()
		updates["last_synced_at"] = &now
	}

	updated := 0
	failed := 0
	for _, item := range items {
		err := s.db.Model(&database.BudgetItem{}).
			Where("id = ?", item.ID).
			Updates(updates).Error
		if err != nil {
			failed++
			logger.Warn("Budget item sync failed",
				logger.String("item_id", item.ID),
				logger.String("kind", string(kind)),
				logger.String("source_id", id),
				logger.Err("error", err))
			continue
		}
		updated++
	}

	s.publishOutcome(kind, id, updated, failed)
	return nil
}

// UnlinkOnDelete severs the link on every budget item pointing at a deleted
// source entity. Amounts and descriptions stay exactly as last synced, and
// re-running on already-unlinked items is a no-op.
func (s *SyncService) UnlinkOnDelete(kind LinkKind, id string) error {
	if !ValidLinkKind(kind) {
		return fmt.Errorf("%w: %s", ErrUnknownLinkKind, kind)
	}

	result := s.db.Model(&database.BudgetItem{}).
		Where("link_kind = ? AND link_id = ?", string(kind), id).
		Updates(map[string]interface{}{
			"link_kind": "",
			"link_id":   "",
		})
	if result.Error != nil {
		return fmt.Errorf("failed to unlink budget items: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		logger.Info("Budget items unlinked",
			logger.String("kind", string(kind)),
			logger.String("source_id", id),
			logger.Int("count", int(result.RowsAffected)))
		s.publish(events.EventBudgetUnlinked, kind, id, map[string]interface{}{
			"unlinked": result.RowsAffected,
		})
	}
	return nil
}

func (s *SyncService) publishOutcome(kind LinkKind, id string, updated, failed int) {
	if failed > 0 {
		s.publish(events.EventBudgetSyncFailed, kind, id, map[string]interface{}{
			"updated": updated,
			"failed":  failed,
		})
		return
	}
	s.publish(events.EventBudgetSynced, kind, id, map[string]interface{}{
		"updated": updated,
	})
}

func (s *SyncService) publish(eventType events.EventType, kind LinkKind, id string, data map[string]interface{}) {
	if s.eventBus == nil || !config.Get().Sync.PublishEvents {
		return
	}

	event := events.NewModuleEvent(eventType, "budget",
		fmt.Sprintf("Budget link %s", eventType),
		fmt.Sprintf("source %s/%s", kind, id))
	event.Target = id
	event.Data = data
	event.Data["kind"] = string(kind)
	if eventType == events.EventBudgetSyncFailed {
		event.Priority = events.PriorityHigh
	}
	s.eventBus.PublishAsync(event)
}
