package schedulemodule

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/slatehq/slate/internal/config"
	"github.com/slatehq/slate/internal/database"
	"github.com/slatehq/slate/internal/events"
	"github.com/slatehq/slate/internal/logger"
)

// Reconciler makes the actual set of schedule events for a scene's shots
// match the desired set derived from current day assignments. The whole
// operation is derive-and-replace: compute the desired pair set, upsert what
// is missing, prune what is stale. Re-running it from any prior state
// converges on the same result.
type Reconciler struct {
	db       *gorm.DB
	eventBus events.EventBus
}

// NewReconciler creates a schedule reconciler
func NewReconciler(db *gorm.DB, eventBus events.EventBus) *Reconciler {
	return &Reconciler{db: db, eventBus: eventBus}
}

// eventKey identifies a schedule event by its upsert key
type eventKey struct {
	shotID string
	dayID  string
}

// Reconcile upserts one schedule event per (shot, shooting day) pair and
// prunes events for pairs no longer assigned. Legacy scene-level events are
// pruned once shot-level events supersede them.
func (r *Reconciler) Reconcile(sceneID string, shootingDayIDs []string) error {
	scene, err := r.loadScene(sceneID)
	if err != nil {
		return err
	}

	var shots []database.Shot
	if err := r.db.Where("scene_id = ?", sceneID).Find(&shots).Error; err != nil {
		return fmt.Errorf("failed to load shots for scene %s: %w", sceneID, err)
	}

	// Desired set: for each shot, the scene's assigned days plus the
	// shot's own overriding day list when present.
	desired := make(map[eventKey]bool)
	for _, shot := range shots {
		for _, dayID := range shootingDayIDs {
			desired[eventKey{shotID: shot.ID, dayID: dayID}] = true
		}
		for _, dayID := range shot.ShootingDayIDs {
			desired[eventKey{shotID: shot.ID, dayID: dayID}] = true
		}
	}

	var existing []database.ScheduleEvent
	if err := r.db.Where("scene_id = ?", sceneID).Find(&existing).Error; err != nil {
		return fmt.Errorf("failed to load schedule events for scene %s: %w", sceneID, err)
	}

	present := make(map[eventKey]bool)
	created, kept, pruned := 0, 0, 0

	for _, event := range existing {
		key := eventKey{shotID: event.ShotID, dayID: event.ShootingDayID}

		stale := !desired[key] || present[key]
		if event.IsLegacy() {
			// Scene-level events are a deprecated variant, superseded as
			// soon as shot-level events exist.
			stale = len(desired) > 0
		}

		if stale {
			if err := r.db.Delete(&database.ScheduleEvent{}, "id = ?", event.ID).Error; err != nil {
				return fmt.Errorf("failed to prune schedule event %s: %w", event.ID, err)
			}
			pruned++
			continue
		}

		present[key] = true
		if !event.IsLegacy() {
			kept++
		}
	}

	for key := range desired {
		if present[key] {
			continue
		}
		event := &database.ScheduleEvent{
			ID:            uuid.NewString(),
			ProjectID:     scene.ProjectID,
			ShootingDayID: key.dayID,
			SceneID:       scene.ID,
			ShotID:        key.shotID,
		}
		if err := r.db.Create(event).Error; err != nil {
			return fmt.Errorf("failed to create schedule event for shot %s: %w", key.shotID, err)
		}
		created++
	}

	logger.Debug("Schedule reconciled",
		logger.String("scene_id", sceneID),
		logger.Int("created", created),
		logger.Int("kept", kept),
		logger.Int("pruned", pruned))
	r.publishReconciled(sceneID, created, kept, pruned)
	return nil
}

// ClearAll deletes every schedule event for every shot of the scene,
// including legacy scene-level events. Invoked instead of Reconcile when
// the day-assignment set becomes empty.
func (r *Reconciler) ClearAll(sceneID string) error {
	if _, err := r.loadScene(sceneID); err != nil {
		return err
	}

	result := r.db.Delete(&database.ScheduleEvent{}, "scene_id = ?", sceneID)
	if result.Error != nil {
		return fmt.Errorf("failed to clear schedule events for scene %s: %w", sceneID, result.Error)
	}

	if result.RowsAffected > 0 {
		logger.Debug("Schedule cleared",
			logger.String("scene_id", sceneID),
			logger.Int("removed", int(result.RowsAffected)))
	}
	r.publish(events.EventScheduleCleared, sceneID, map[string]interface{}{
		"removed": result.RowsAffected,
	})
	return nil
}

// ReconcileAll sweeps every scene in a project: scenes with day assignments
// are reconciled, scenes without are skipped, and per-scene failures are
// collected so one bad scene cannot block the rest of the repair.
func (r *Reconciler) ReconcileAll(projectID string) (*Summary, error) {
	var scenes []database.Scene
	if err := r.db.Where("project_id = ?", projectID).Find(&scenes).Error; err != nil {
		return nil, fmt.Errorf("failed to load scenes for project %s: %w", projectID, err)
	}

	maxErrors := config.Get().Sync.MaxBulkErrors
	summary := &Summary{Errors: []string{}}

	for _, scene := range scenes {
		if len(scene.ShootingDayIDs) == 0 {
			summary.Skipped++
			continue
		}
		if err := r.Reconcile(scene.ID, scene.ShootingDayIDs); err != nil {
			if len(summary.Errors) < maxErrors {
				summary.Errors = append(summary.Errors, fmt.Sprintf("scene %s: %v", scene.ID, err))
			}
			continue
		}
		summary.Synced++
	}

	logger.Info("Bulk schedule reconcile finished",
		logger.String("project_id", projectID),
		logger.Int("synced", summary.Synced),
		logger.Int("skipped", summary.Skipped),
		logger.Int("errors", len(summary.Errors)))
	return summary, nil
}

func (r *Reconciler) loadScene(sceneID string) (*database.Scene, error) {
	var scene database.Scene
	if err := r.db.First(&scene, "id = ?", sceneID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSceneNotFound, sceneID)
		}
		return nil, fmt.Errorf("failed to load scene %s: %w", sceneID, err)
	}
	return &scene, nil
}

func (r *Reconciler) publishReconciled(sceneID string, created, kept, pruned int) {
	r.publish(events.EventScheduleReconciled, sceneID, map[string]interface{}{
		"created": created,
		"kept":    kept,
		"pruned":  pruned,
	})
}

func (r *Reconciler) publish(eventType events.EventType, sceneID string, data map[string]interface{}) {
	if r.eventBus == nil || !config.Get().Sync.PublishEvents {
		return
	}

	event := events.NewModuleEvent(eventType, "schedule",
		string(eventType),
		fmt.Sprintf("scene %s", sceneID))
	event.Target = sceneID
	event.Data = data
	r.eventBus.PublishAsync(event)
}
