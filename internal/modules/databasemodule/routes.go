package databasemodule

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slatehq/slate/internal/database"
)

// registeredModels lists every model the modules migrate, by table concern.
// Used by the schema endpoint to report migration status.
var registeredModels = []interface{}{
	&database.Project{},
	&database.ShootingDay{},
	&database.Scene{},
	&database.Shot{},
	&database.ScheduleEvent{},
	&database.CastMember{},
	&database.CrewMember{},
	&database.Equipment{},
	&database.Location{},
	&database.BudgetCategory{},
	&database.BudgetItem{},
}

func (m *Module) handleStatus(c *gin.Context) {
	sqlDB, err := m.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "connected"})
}

func (m *Module) handleStats(c *gin.Context) {
	stats, err := database.GetConnectionStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
		"wait_duration":    stats.WaitDuration.String(),
		"max_open":         stats.MaxOpenConnections,
	})
}

// handleSchema reports, per registered model, whether its table exists.
// A false entry means a module migration has not run.
func (m *Module) handleSchema(c *gin.Context) {
	migrator := m.db.Migrator()

	tables := make([]gin.H, 0, len(registeredModels))
	migrated := true
	for _, model := range registeredModels {
		exists := migrator.HasTable(model)
		if !exists {
			migrated = false
		}
		stmt := m.db.Model(model).Statement
		name := ""
		if err := stmt.Parse(model); err == nil {
			name = stmt.Schema.Table
		}
		tables = append(tables, gin.H{"table": name, "exists": exists})
	}

	c.JSON(http.StatusOK, gin.H{
		"migrated": migrated,
		"tables":   tables,
	})
}
