// Package eventsmodule exposes the system event log over the API: querying
// the events published by the sync services, bus statistics and retention
// administration.
package eventsmodule

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/slatehq/slate/internal/events"
	"github.com/slatehq/slate/internal/modules/modulemanager"
	"github.com/slatehq/slate/internal/server/handlers"
)

const (
	ModuleID   = "system.events"
	ModuleName = "Event Management"
)

// Auto-register the module when imported
func init() {
	Register()
}

// Register registers this module with the module system
func Register() {
	modulemanager.Register(&Module{
		id:   ModuleID,
		name: ModuleName,
		core: true,
	})
}

// Module exposes event log endpoints
type Module struct {
	id          string
	name        string
	core        bool
	eventBus    events.EventBus
	initialized bool

	eventsHandler *handlers.EventsHandler
}

// ID returns the module ID
func (m *Module) ID() string { return m.id }

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Core returns whether this is a core module
func (m *Module) Core() bool { return m.core }

// Migrate handles database schema migrations. Event storage migration is
// owned by the events package; nothing extra here.
func (m *Module) Migrate(db *gorm.DB) error {
	return nil
}

// Init initializes the events module
func (m *Module) Init() error {
	if m.initialized {
		return nil
	}

	m.eventBus = events.GetGlobalEventBus()
	if m.eventBus == nil {
		return fmt.Errorf("global event bus not initialized")
	}

	m.eventsHandler = handlers.NewEventsHandler(m.eventBus)
	m.initialized = true
	return nil
}

// RegisterRoutes registers event management API routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	if !m.initialized {
		return
	}

	api := router.Group("/api/v1/events")
	{
		api.GET("", m.eventsHandler.GetEvents)
		api.GET("/range", m.eventsHandler.GetEventsByTimeRange)
		api.GET("/stats", m.eventsHandler.GetEventStats)
		api.GET("/health", m.health)
		api.DELETE("", m.clearEvents)
	}
}

func (m *Module) health(c *gin.Context) {
	if err := m.eventBus.Health(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// clearEvents wipes the persisted event log. Operator-facing; the bus keeps
// running.
func (m *Module) clearEvents(c *gin.Context) {
	if err := m.eventBus.ClearEvents(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear events", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
