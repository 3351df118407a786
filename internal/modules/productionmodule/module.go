// Package productionmodule owns projects and the people, equipment and
// location records that schedule and budget data reference.
package productionmodule

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/slatehq/slate/internal/database"
	"github.com/slatehq/slate/internal/modules/modulemanager"
)

const moduleID = "core.production"

// Auto-register the module when imported
func init() {
	Register()
}

// Register registers this module with the module system
func Register() {
	modulemanager.Register(&Module{
		id:   moduleID,
		name: "Production",
		core: true,
	})
}

// Module wires the production manager
type Module struct {
	id          string
	name        string
	core        bool
	db          *gorm.DB
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
		&database.Project{},
		&database.CastMember{},
		&database.CrewMember{},
		&database.Equipment{},
		&database.Location{},
	)
}

// Init initializes the production module
func (m *Module) Init() error {
	m.db = database.GetDB()
	m.manager = NewManager(m.db)
	m.initialized = true
	return nil
}

// RegisterRoutes registers production API routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	if !m.initialized {
		return
	}

	api := router.Group("/api/v1/production")
	{
		api.POST("/projects", m.createProject)
		api.GET("/projects", m.listProjects)
		api.GET("/projects/:id", m.getProject)
		api.PUT("/projects/:id", m.updateProject)
		api.DELETE("/projects/:id", m.deleteProject)

		api.POST("/cast", m.createCast)
		api.GET("/cast", m.listCast)
		api.PUT("/cast/:id", m.updateCast)
		api.DELETE("/cast/:id", m.deleteCast)

		api.POST("/crew", m.createCrew)
		api.GET("/crew", m.listCrew)
		api.PUT("/crew/:id", m.updateCrew)
		api.DELETE("/crew/:id", m.deleteCrew)

		api.POST("/equipment", m.createEquipment)
		api.GET("/equipment", m.listEquipment)
		api.PUT("/equipment/:id", m.updateEquipment)
		api.DELETE("/equipment/:id", m.deleteEquipment)

		api.POST("/locations", m.createLocation)
		api.GET("/locations", m.listLocations)
		api.PUT("/locations/:id", m.updateLocation)
		api.DELETE("/locations/:id", m.deleteLocation)
	}
}

// API handlers

func (m *Module) createProject(c *gin.Context) {
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	project, err := m.manager.CreateProject(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": project, "success": true})
}

func (m *Module) listProjects(c *gin.Context) {
	projects, err := m.manager.ListProjects()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list projects", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects, "total": len(projects), "success": true})
}

func (m *Module) getProject(c *gin.Context) {
	project, err := m.manager.GetProject(c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrProjectNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to load project", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project, "success": true})
}

func (m *Module) updateProject(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	project, err := m.manager.UpdateProject(c.Param("id"), updates)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrProjectNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to update project", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project, "success": true})
}

func (m *Module) deleteProject(c *gin.Context) {
	if err := m.manager.DeleteProject(c.Param("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrProjectNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to delete project", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (m *Module) createCast(c *gin.Context) {
	var req CastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	member, err := m.manager.CreateCastMember(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create cast member", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"cast_member": member, "success": true})
}

func (m *Module) listCast(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}

	members, err := m.manager.ListCastMembers(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list cast members", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cast_members": members, "total": len(members), "success": true})
}

func (m *Module) updateCast(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	member, err := m.manager.UpdateCastMember(c.Param("id"), updates)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrEntityNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to update cast member", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cast_member": member, "success": true})
}

func (m *Module) deleteCast(c *gin.Context) {
	if err := m.manager.DeleteCastMember(c.Param("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrEntityNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to delete cast member", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (m *Module) createCrew(c *gin.Context) {
	var req CrewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	member, err := m.manager.CreateCrewMember(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create crew member", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"crew_member": member, "success": true})
}

func (m *Module) listCrew(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}

	members, err := m.manager.ListCrewMembers(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list crew members", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"crew_members": members, "total": len(members), "success": true})
}

func (m *Module) updateCrew(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	member, err := m.manager.UpdateCrewMember(c.Param("id"), updates)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrEntityNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to update crew member", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"crew_member": member, "success": true})
}

func (m *Module) deleteCrew(c *gin.Context) {
	if err := m.manager.DeleteCrewMember(c.Param("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrEntityNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to delete crew member", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (m *Module) createEquipment(c *gin.Context) {
	var req EquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	equipment, err := m.manager.CreateEquipment(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create equipment", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"equipment": equipment, "success": true})
}

func (m *Module) listEquipment(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}

	equipment, err := m.manager.ListEquipment(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list equipment", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"equipment": equipment, "total": len(equipment), "success": true})
}

func (m *Module) updateEquipment(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	equipment, err := m.manager.UpdateEquipment(c.Param("id"), updates)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrEntityNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to update equipment", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"equipment": equipment, "success": true})
}

func (m *Module) deleteEquipment(c *gin.Context) {
	if err := m.manager.DeleteEquipment(c.Param("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrEntityNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to delete equipment", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (m *Module) createLocation(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	location, err := m.manager.CreateLocation(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create location", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"location": location, "success": true})
}

func (m *Module) listLocations(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}

	locations, err := m.manager.ListLocations(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list locations", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations, "total": len(locations), "success": true})
}

func (m *Module) updateLocation(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	location, err := m.manager.UpdateLocation(c.Param("id"), updates)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrEntityNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to update location", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": location, "success": true})
}

func (m *Module) deleteLocation(c *gin.Context) {
	if err := m.manager.DeleteLocation(c.Param("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrEntityNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to delete location", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetManager returns the global production manager instance
func GetManager() *Manager {
	if module, exists := modulemanager.GetModule(moduleID); exists {
		if productionModule, ok := module.(*Module); ok && productionModule.initialized {
			return productionModule.manager
		}
	}
	return nil
}
