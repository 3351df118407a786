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

// Manager handles shooting day, scene and shot persistence. Every write
// that changes a day assignment triggers a best-effort schedule sync pass
// after the primary write has succeeded.
type Manager struct {
	db         *gorm.DB
	reconciler *Reconciler
	detector   *Detector
	eventBus   events.EventBus
}

// NewManager creates a schedule manager
func NewManager(db *gorm.DB, reconciler *Reconciler, detector *Detector, eventBus events.EventBus) *Manager {
	return &Manager{
		db:         db,
		reconciler: reconciler,
		detector:   detector,
		eventBus:   eventBus,
	}
}

// Reconciler returns the schedule sync service
func (m *Manager) Reconciler() *Reconciler {
	return m.reconciler
}

// Detector returns the conflict detector
func (m *Manager) Detector() *Detector {
	return m.detector
}

// listFields are scene/shot fields stored as JSON list columns; raw JSON
// payloads decode them as []interface{} and they need converting before a
// gorm update.
var listFields = map[string]bool{
	"shooting_day_ids": true,
	"crew_ids":         true,
	"cast_ids":         true,
	"equipment_ids":    true,
	"location_ids":     true,
}

func normalizeListFields(updates map[string]interface{}) error {
	for field, value := range updates {
		if !listFields[field] {
			continue
		}
		switch v := value.(type) {
		case database.StringList:
		case []string:
			updates[field] = database.StringList(v)
		case []interface{}:
			list := make(database.StringList, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return fmt.Errorf("field %s: expected string elements", field)
				}
				list = append(list, s)
			}
			updates[field] = list
		case nil:
			updates[field] = database.StringList{}
		default:
			return fmt.Errorf("field %s: expected a list", field)
		}
	}
	return nil
}

// Shooting days

// CreateDay creates a shooting day
func (m *Manager) CreateDay(req *DayRequest) (*database.ShootingDay, error) {
	day := &database.ShootingDay{
		ID:        uuid.NewString(),
		ProjectID: req.ProjectID,
		Date:      req.Date,
		DayNumber: req.DayNumber,
		Status:    req.Status,
	}
	if err := m.db.Create(day).Error; err != nil {
		return nil, fmt.Errorf("failed to create shooting day: %w", err)
	}
	return day, nil
}

// ListDays returns all shooting days for a project in calendar order
func (m *Manager) ListDays(projectID string) ([]database.ShootingDay, error) {
	var days []database.ShootingDay
	err := m.db.Where("project_id = ?", projectID).
		Order("date ASC, day_number ASC").
		Find(&days).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shooting days: %w", err)
	}
	return days, nil
}

// UpdateDay applies field updates to a shooting day
func (m *Manager) UpdateDay(id string, updates map[string]interface{}) (*database.ShootingDay, error) {
	delete(updates, "id")
	result := m.db.Model(&database.ShootingDay{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update shooting day: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrDayNotFound
	}

	var day database.ShootingDay
	if err := m.db.First(&day, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload shooting day: %w", err)
	}
	return &day, nil
}

// DeleteDay removes a shooting day. Schedule events referencing the day are
// left in place; the next reconcile of each affected scene prunes them.
func (m *Manager) DeleteDay(id string) error {
	result := m.db.Delete(&database.ShootingDay{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete shooting day: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDayNotFound
	}
	return nil
}

// Scenes

// CreateScene creates a scene and runs an initial schedule sync for its day
// assignments
func (m *Manager) CreateScene(req *SceneRequest) (*database.Scene, error) {
	scene := &database.Scene{
		ID:             uuid.NewString(),
		ProjectID:      req.ProjectID,
		Number:         req.Number,
		Title:          req.Title,
		Status:         req.Status,
		ShootingDayIDs: req.ShootingDayIDs,
		CrewIDs:        req.CrewIDs,
		CastIDs:        req.CastIDs,
		EquipmentIDs:   req.EquipmentIDs,
		LocationID:     req.LocationID,
		LocationIDs:    req.LocationIDs,
	}
	if err := m.db.Create(scene).Error; err != nil {
		return nil, fmt.Errorf("failed to create scene: %w", err)
	}

	if len(scene.ShootingDayIDs) > 0 {
		m.syncSchedule(scene.ID)
	}
	return scene, nil
}

// GetScene returns a scene by id
func (m *Manager) GetScene(id string) (*database.Scene, error) {
	var scene database.Scene
	if err := m.db.First(&scene, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSceneNotFound, id)
		}
		return nil, fmt.Errorf("failed to load scene: %w", err)
	}
	return &scene, nil
}

// ListScenes returns all scenes for a project
func (m *Manager) ListScenes(projectID string) ([]database.Scene, error) {
	var scenes []database.Scene
	err := m.db.Where("project_id = ?", projectID).
		Order("number ASC").
		Find(&scenes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scenes: %w", err)
	}
	return scenes, nil
}

// UpdateScene applies field updates to a scene. A change to the
// day-assignment set triggers a best-effort schedule sync after the write.
func (m *Manager) UpdateScene(id string, updates map[string]interface{}) (*database.Scene, error) {
	delete(updates, "id")
	delete(updates, "project_id")
	if err := normalizeListFields(updates); err != nil {
		return nil, err
	}

	_, daysChanged := updates["shooting_day_ids"]

	result := m.db.Model(&database.Scene{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update scene: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSceneNotFound, id)
	}

	if daysChanged {
		m.syncSchedule(id)
	}
	return m.GetScene(id)
}

// DeleteScene removes a scene, its shots and their schedule events
func (m *Manager) DeleteScene(id string) error {
	result := m.db.Delete(&database.Scene{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete scene: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrSceneNotFound, id)
	}

	m.bestEffort("scene cleanup", id, func() error {
		if err := m.db.Delete(&database.Shot{}, "scene_id = ?", id).Error; err != nil {
			return err
		}
		return m.db.Delete(&database.ScheduleEvent{}, "scene_id = ?", id).Error
	})
	return nil
}

// Shots

// CreateShot creates a shot under a scene, inheriting the scene's day,
// resource and location assignments. The copies are independently editable
// afterwards.
func (m *Manager) CreateShot(req *ShotRequest) (*database.Shot, error) {
	scene, err := m.GetScene(req.SceneID)
	if err != nil {
		return nil, err
	}

	shot := &database.Shot{
		ID:             uuid.NewString(),
		SceneID:        scene.ID,
		ProjectID:      scene.ProjectID,
		Number:         req.Number,
		Status:         req.Status,
		ShootingDayIDs: append(database.StringList{}, scene.ShootingDayIDs...),
		CrewIDs:        append(database.StringList{}, scene.CrewIDs...),
		CastIDs:        append(database.StringList{}, scene.CastIDs...),
		EquipmentIDs:   append(database.StringList{}, scene.EquipmentIDs...),
		LocationID:     scene.LocationID,
	}
	if err := m.db.Create(shot).Error; err != nil {
		return nil, fmt.Errorf("failed to create shot: %w", err)
	}

	m.syncSchedule(scene.ID)
	return shot, nil
}

// GetShot returns a shot by id
func (m *Manager) GetShot(id string) (*database.Shot, error) {
	var shot database.Shot
	if err := m.db.First(&shot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrShotNotFound, id)
		}
		return nil, fmt.Errorf("failed to load shot: %w", err)
	}
	return &shot, nil
}

// ListShots returns all shots of a scene
func (m *Manager) ListShots(sceneID string) ([]database.Shot, error) {
	var shots []database.Shot
	err := m.db.Where("scene_id = ?", sceneID).
		Order("number ASC").
		Find(&shots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shots: %w", err)
	}
	return shots, nil
}

// UpdateShot applies field updates to a shot. A change to the shot's own
// day list triggers a best-effort schedule sync of the parent scene.
func (m *Manager) UpdateShot(id string, updates map[string]interface{}) (*database.Shot, error) {
	delete(updates, "id")
	delete(updates, "scene_id")
	delete(updates, "project_id")
	if err := normalizeListFields(updates); err != nil {
		return nil, err
	}

	_, daysChanged := updates["shooting_day_ids"]

	result := m.db.Model(&database.Shot{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update shot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrShotNotFound, id)
	}

	shot, err := m.GetShot(id)
	if err != nil {
		return nil, err
	}
	if daysChanged {
		m.syncSchedule(shot.SceneID)
	}
	return shot, nil
}

// DeleteShot removes a shot and its schedule events
func (m *Manager) DeleteShot(id string) error {
	shot, err := m.GetShot(id)
	if err != nil {
		return err
	}

	result := m.db.Delete(&database.Shot{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete shot: %w", result.Error)
	}

	m.bestEffort("shot cleanup", shot.SceneID, func() error {
		return m.db.Delete(&database.ScheduleEvent{}, "shot_id = ?", id).Error
	})
	return nil
}

// syncSchedule runs the appropriate schedule sync pass for a scene after a
// primary write. Errors are logged and published, never surfaced: the
// user's edit has already succeeded.
func (m *Manager) syncSchedule(sceneID string) {
	m.bestEffort("schedule sync", sceneID, func() error {
		scene, err := m.GetScene(sceneID)
		if err != nil {
			return err
		}

		if len(scene.ShootingDayIDs) > 0 {
			return m.reconciler.Reconcile(sceneID, scene.ShootingDayIDs)
		}

		// No scene-level days left. Shots may still carry their own
		// overrides; only clear when nothing remains assigned.
		shots, err := m.ListShots(sceneID)
		if err != nil {
			return err
		}
		for _, shot := range shots {
			if len(shot.ShootingDayIDs) > 0 {
				return m.reconciler.Reconcile(sceneID, scene.ShootingDayIDs)
			}
		}
		return m.reconciler.ClearAll(sceneID)
	})
}

func (m *Manager) bestEffort(what, sceneID string, fn func() error) {
	err := fn()
	if err == nil {
		return
	}

	logger.Warn("Best-effort pass failed",
		logger.String("pass", what),
		logger.String("scene_id", sceneID),
		logger.Err("error", err))

	if m.eventBus != nil && config.Get().Sync.PublishEvents {
		event := events.NewModuleEvent(events.EventScheduleSyncFailed, "schedule",
			"Schedule sync failed", err.Error())
		event.Target = sceneID
		event.Priority = events.PriorityHigh
		event.Data = map[string]interface{}{"pass": what}
		m.eventBus.PublishAsync(event)
	}
}

// publishConflicts records a detected conflict on the event log. Detection
// itself never writes; this is observability only.
func (m *Manager) publishConflicts(sceneID string, conflicts *Conflicts) {
	if conflicts == nil || conflicts.Empty() || m.eventBus == nil || !config.Get().Sync.PublishEvents {
		return
	}

	event := events.NewModuleEvent(events.EventConflictDetected, "schedule",
		"Resource conflict detected", "scene "+sceneID)
	event.Target = sceneID
	event.Data = map[string]interface{}{
		"crew":      len(conflicts.Crew),
		"cast":      len(conflicts.Cast),
		"equipment": len(conflicts.Equipment),
		"location":  conflicts.Location,
	}
	m.eventBus.PublishAsync(event)
}
