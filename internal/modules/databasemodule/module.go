// Package databasemodule exposes database administration endpoints:
// connection health, pool statistics and schema status for the models the
// other modules migrate.
package databasemodule

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/slatehq/slate/internal/database"
	"github.com/slatehq/slate/internal/modules/modulemanager"
)

const (
	ModuleID   = "system.database"
	ModuleName = "Database Management"
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

// Module exposes database admin endpoints
type Module struct {
	id          string
	name        string
	core        bool
	db          *gorm.DB
	initialized bool
}

// ID returns the module ID
func (m *Module) ID() string { return m.id }

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Core returns whether this is a core module
func (m *Module) Core() bool { return m.core }

// Migrate handles database schema migrations. Domain models are migrated by
// the modules owning them.
func (m *Module) Migrate(db *gorm.DB) error {
	return nil
}

// Init initializes the database module
func (m *Module) Init() error {
	m.db = database.GetDB()
	m.initialized = true
	return nil
}

// RegisterRoutes registers database admin API routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	if !m.initialized {
		return
	}

	api := router.Group("/api/v1/database")
	{
		api.GET("/status", m.handleStatus)
		api.GET("/stats", m.handleStats)
		api.GET("/schema", m.handleSchema)
	}
}
