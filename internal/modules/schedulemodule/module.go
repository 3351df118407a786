// Package schedulemodule derives the shooting schedule from scene and shot
// day assignments and keeps the two views consistent. It owns shooting
// days, scenes, shots, the schedule events derived from them, and
// resource-conflict detection across scenes.
package schedulemodule

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/slatehq/slate/internal/database"
	"github.com/slatehq/slate/internal/events"
	"github.com/slatehq/slate/internal/modules/modulemanager"
)

const moduleID = "core.schedule"

// Auto-register the module when imported
func init() {
	Register()
}

// Register registers this module with the module system
func Register() {
	modulemanager.Register(&Module{
		id:   moduleID,
		name: "Schedule",
		core: true,
	})
}

// Module wires the schedule manager, reconciler and conflict detector
type Module struct {
	id          string
	name        string
	core        bool
	db          *gorm.DB
	eventBus    events.EventBus
	manager     *Manager
	initialized bool
}

// ID returns the module ID
func (m *Module) ID() string { return m.id }

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Core returns whether this is a core module
func (m *Module) Core() bool { return m.core }

// Migrate handles database schema migrations
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&database.ShootingDay{},
		&database.Scene{},
		&database.Shot{},
		&database.ScheduleEvent{},
	)
}

// Init initializes the schedule module
func (m *Module) Init() error {
	m.db = database.GetDB()
	m.eventBus = events.GetGlobalEventBus()

	reconciler := NewReconciler(m.db, m.eventBus)
	detector := NewDetector(m.db)
	m.manager = NewManager(m.db, reconciler, detector, m.eventBus)
	m.initialized = true
	return nil
}

// RegisterRoutes registers schedule API routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	if !m.initialized {
		return
	}

	api := router.Group("/api/v1/schedule")
	{
		api.POST("/days", m.createDay)
		api.GET("/days", m.listDays)
		api.PUT("/days/:id", m.updateDay)
		api.DELETE("/days/:id", m.deleteDay)

		api.POST("/scenes", m.createScene)
		api.GET("/scenes", m.listScenes)
		api.GET("/scenes/:id", m.getScene)
		api.PUT("/scenes/:id", m.updateScene)
		api.DELETE("/scenes/:id", m.deleteScene)
		api.POST("/scenes/:id/reconcile", m.reconcileScene)

		api.POST("/shots", m.createShot)
		api.GET("/shots", m.listShots)
		api.GET("/shots/:id", m.getShot)
		api.PUT("/shots/:id", m.updateShot)
		api.DELETE("/shots/:id", m.deleteShot)

		api.GET("/events", m.listEvents)

		api.POST("/projects/:id/reconcile", m.reconcileProject)
		api.GET("/conflicts", m.detectConflicts)
	}
}

// API handlers

func (m *Module) createDay(c *gin.Context) {
	var req DayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	day, err := m.manager.CreateDay(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create shooting day", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"day": day, "success": true})
}

func (m *Module) listDays(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}

	days, err := m.manager.ListDays(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list shooting days", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "total": len(days), "success": true})
}

func (m *Module) updateDay(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	day, err := m.manager.UpdateDay(c.Param("id"), updates)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrDayNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to update shooting day", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"day": day, "success": true})
}

func (m *Module) deleteDay(c *gin.Context) {
	if err := m.manager.DeleteDay(c.Param("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrDayNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to delete shooting day", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (m *Module) createScene(c *gin.Context) {
	var req SceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	scene, err := m.manager.CreateScene(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create scene", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"scene": scene, "success": true})
}

func (m *Module) listScenes(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}

	scenes, err := m.manager.ListScenes(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list scenes", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scenes": scenes, "total": len(scenes), "success": true})
}

func (m *Module) getScene(c *gin.Context) {
	scene, err := m.manager.GetScene(c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrSceneNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to load scene", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scene": scene, "success": true})
}

func (m *Module) updateScene(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	scene, err := m.manager.UpdateScene(c.Param("id"), updates)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrSceneNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to update scene", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scene": scene, "success": true})
}

func (m *Module) deleteScene(c *gin.Context) {
	if err := m.manager.DeleteScene(c.Param("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrSceneNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to delete scene", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// reconcileScene forces a schedule sync for one scene, repairing drift left
// by a failed best-effort pass
func (m *Module) reconcileScene(c *gin.Context) {
	scene, err := m.manager.GetScene(c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrSceneNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to load scene", "details": err.Error()})
		return
	}

	reconciler := m.manager.Reconciler()
	if len(scene.ShootingDayIDs) > 0 {
		err = reconciler.Reconcile(scene.ID, scene.ShootingDayIDs)
	} else {
		err = reconciler.ClearAll(scene.ID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reconcile scene", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (m *Module) createShot(c *gin.Context) {
	var req ShotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	shot, err := m.manager.CreateShot(&req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrSceneNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to create shot", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"shot": shot, "success": true})
}

func (m *Module) listShots(c *gin.Context) {
	sceneID := c.Query("scene_id")
	if sceneID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scene_id is required"})
		return
	}

	shots, err := m.manager.ListShots(sceneID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list shots", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"shots": shots, "total": len(shots), "success": true})
}

func (m *Module) getShot(c *gin.Context) {
	shot, err := m.manager.GetShot(c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrShotNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to load shot", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"shot": shot, "success": true})
}

func (m *Module) updateShot(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	shot, err := m.manager.UpdateShot(c.Param("id"), updates)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrShotNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to update shot", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"shot": shot, "success": true})
}

func (m *Module) deleteShot(c *gin.Context) {
	if err := m.manager.DeleteShot(c.Param("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrShotNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to delete shot", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (m *Module) listEvents(c *gin.Context) {
	query := m.db.Model(&database.ScheduleEvent{})
	if projectID := c.Query("project_id"); projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}
	if dayID := c.Query("shooting_day_id"); dayID != "" {
		query = query.Where("shooting_day_id = ?", dayID)
	}
	if sceneID := c.Query("scene_id"); sceneID != "" {
		query = query.Where("scene_id = ?", sceneID)
	}

	var scheduleEvents []database.ScheduleEvent
	if err := query.Find(&scheduleEvents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list schedule events", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": scheduleEvents, "total": len(scheduleEvents), "success": true})
}

func (m *Module) reconcileProject(c *gin.Context) {
	summary, err := m.manager.Reconciler().ReconcileAll(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reconcile project", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary, "success": true})
}

func (m *Module) detectConflicts(c *gin.Context) {
	projectID := c.Query("project_id")
	sceneID := c.Query("scene_id")
	if projectID == "" || sceneID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id and scene_id are required"})
		return
	}

	dayRef := DayRef{DayID: c.Query("day_id")}
	if raw := c.Query("date"); raw != "" && dayRef.DayID == "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date", "details": err.Error()})
			return
		}
		dayRef.Date = &date
	}

	conflicts, err := m.manager.Detector().Detect(projectID, sceneID, dayRef)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrSceneNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to detect conflicts", "details": err.Error()})
		return
	}

	m.manager.publishConflicts(sceneID, conflicts)

	c.JSON(http.StatusOK, gin.H{"conflicts": conflicts, "success": true})
}

// Public API for other modules

// GetManager returns the global schedule manager instance
func GetManager() *Manager {
	if module, exists := modulemanager.GetModule(moduleID); exists {
		if scheduleModule, ok := module.(*Module); ok && scheduleModule.initialized {
			return scheduleModule.manager
		}
	}
	return nil
}
