// Package budgetmodule keeps budget line items consistent with the source
// entities they link to: cast members, crew members, equipment and
// locations.
package budgetmodule

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/slatehq/slate/internal/database"
	"github.com/slatehq/slate/internal/events"
	"github.com/slatehq/slate/internal/modules/modulemanager"
)

const moduleID = "core.budget"

// Auto-register the module when imported
func init() {
	Register()
}

// Register registers this module with the module system
func Register() {
	modulemanager.Register(&Module{
		id:   moduleID,
		name: "Budget",
		core: true,
	})
}

// Module wires the budget manager, link registry and sync service
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
	return db.AutoMigrate(&database.BudgetCategory{}, &database.BudgetItem{})
}

// Init initializes the budget module
func (m *Module) Init() error {
	m.db = database.GetDB()
	m.eventBus = events.GetGlobalEventBus()

	registry := NewRegistry(m.db)
	sync := NewSyncService(m.db, registry, m.eventBus)
	m.manager = NewManager(m.db, registry, sync)
	m.initialized = true
	return nil
}

// RegisterRoutes registers budget API routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	if !m.initialized {
		return
	}

	api := router.Group("/api/v1/budget")
	{
		api.POST("/categories", m.createCategory)
		api.GET("/categories", m.listCategories)
		api.DELETE("/categories/:id", m.deleteCategory)

		api.POST("/items", m.createItem)
		api.GET("/items", m.listItems)
		api.GET("/items/:id", m.getItem)
		api.PUT("/items/:id", m.updateItem)
		api.DELETE("/items/:id", m.deleteItem)

		api.PUT("/items/:id/link", m.linkItem)
		api.DELETE("/items/:id/link", m.unlinkItem)

		api.GET("/linked/:kind/:id", m.findLinked)
	}
}

// API handlers

func (m *Module) createCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	category, err := m.manager.CreateCategory(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category, "success": true})
}

func (m *Module) listCategories(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}

	categories, err := m.manager.ListCategories(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list categories", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories, "total": len(categories), "success": true})
}

func (m *Module) deleteCategory(c *gin.Context) {
	if err := m.manager.DeleteCategory(c.Param("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrCategoryNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to delete category", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (m *Module) createItem(c *gin.Context) {
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	if req.LinkKind != "" && !ValidLinkKind(LinkKind(req.LinkKind)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid link kind", "kind": req.LinkKind})
		return
	}

	item, err := m.manager.CreateItem(&req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrSourceNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to create item", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item, "success": true})
}

func (m *Module) listItems(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}

	items, err := m.manager.ListItems(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list items", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items), "success": true})
}

func (m *Module) getItem(c *gin.Context) {
	item, err := m.manager.GetItem(c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrItemNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to load item", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item, "success": true})
}

func (m *Module) updateItem(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	item, err := m.manager.UpdateItem(c.Param("id"), updates)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrItemNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to update item", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item, "success": true})
}

func (m *Module) deleteItem(c *gin.Context) {
	if err := m.manager.DeleteItem(c.Param("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrItemNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to delete item", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (m *Module) linkItem(c *gin.Context) {
	var req LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	kind := LinkKind(req.Kind)
	if !ValidLinkKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid link kind", "kind": req.Kind})
		return
	}

	item, err := m.manager.LinkItem(c.Param("id"), kind, req.ID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrSourceNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to link item", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item, "success": true})
}

func (m *Module) unlinkItem(c *gin.Context) {
	item, err := m.manager.UnlinkItem(c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrItemNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to unlink item", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item, "success": true})
}

func (m *Module) findLinked(c *gin.Context) {
	kind := LinkKind(c.Param("kind"))
	if !ValidLinkKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid link kind", "kind": c.Param("kind")})
		return
	}

	items, err := m.manager.Registry().FindLinked(kind, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query linked items", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items), "success": true})
}

// Public API for other modules

// GetManager returns the global budget manager instance
func GetManager() *Manager {
	if module, exists := modulemanager.GetModule(moduleID); exists {
		if budgetModule, ok := module.(*Module); ok && budgetModule.initialized {
			return budgetModule.manager
		}
	}
	return nil
}

// SyncLinkedItems mirrors a source entity change into linked budget items
// using the global manager
func SyncLinkedItems(kind LinkKind, id string, changedFields map[string]interface{}) error {
	manager := GetManager()
	if manager == nil {
		return errors.New("budget manager not available")
	}
	return manager.Sync().SyncOnUpdate(kind, id, changedFields)
}

// UnlinkDeletedSource severs links to a deleted source entity using the
// global manager
func UnlinkDeletedSource(kind LinkKind, id string) error {
	manager := GetManager()
	if manager == nil {
		return errors.New("budget manager not available")
	}
	return manager.Sync().UnlinkOnDelete(kind, id)
}
