package productionmodule

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/slatehq/slate/internal/database"
	"github.com/slatehq/slate/internal/logger"
	"github.com/slatehq/slate/internal/modules/budgetmodule"
)

// Manager handles projects and the source entities budget items link to.
// Writes to a source entity trigger a best-effort budget sync after the
// primary write has succeeded; a sync failure never fails the user's edit.
type Manager struct {
	db *gorm.DB
}

// NewManager creates a production manager
func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// Projects

// CreateProject creates a project
func (m *Manager) CreateProject(req *ProjectRequest) (*database.Project, error) {
	project := &database.Project{
		ID:     uuid.NewString(),
		Title:  req.Title,
		Status: req.Status,
	}
	if err := m.db.Create(project).Error; err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// GetProject returns a project by id
func (m *Manager) GetProject(id string) (*database.Project, error) {
	var project database.Project
	if err := m.db.First(&project, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return &project, nil
}

// ListProjects returns all projects
func (m *Manager) ListProjects() ([]database.Project, error) {
	var projects []database.Project
	if err := m.db.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// UpdateProject applies field updates to a project
func (m *Manager) UpdateProject(id string, updates map[string]interface{}) (*database.Project, error) {
	delete(updates, "id")
	result := m.db.Model(&database.Project{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return m.GetProject(id)
}

// DeleteProject removes a project
func (m *Manager) DeleteProject(id string) error {
	result := m.db.Delete(&database.Project{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return nil
}

// Cast members

// CreateCastMember creates a cast member
func (m *Manager) CreateCastMember(req *CastRequest) (*database.CastMember, error) {
	member := &database.CastMember{
		ID:            uuid.NewString(),
		ProjectID:     req.ProjectID,
		ActorName:     req.ActorName,
		CharacterName: req.CharacterName,
		DayRate:       req.DayRate,
		Email:         req.Email,
		Phone:         req.Phone,
	}
	if err := m.db.Create(member).Error; err != nil {
		return nil, fmt.Errorf("failed to create cast member: %w", err)
	}
	return member, nil
}

// ListCastMembers returns all cast members for a project
func (m *Manager) ListCastMembers(projectID string) ([]database.CastMember, error) {
	var members []database.CastMember
	err := m.db.Where("project_id = ?", projectID).Order("actor_name ASC").Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cast members: %w", err)
	}
	return members, nil
}

// UpdateCastMember applies field updates to a cast member and mirrors the
// change into linked budget items
func (m *Manager) UpdateCastMember(id string, updates map[string]interface{}) (*database.CastMember, error) {
	if err := m.applyUpdate(&database.CastMember{}, id, updates); err != nil {
		return nil, err
	}
	m.afterSourceUpdate(budgetmodule.LinkKindCast, id, updates)

	var member database.CastMember
	if err := m.db.First(&member, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload cast member: %w", err)
	}
	return &member, nil
}

// DeleteCastMember removes a cast member and severs budget links to it
func (m *Manager) DeleteCastMember(id string) error {
	if err := m.applyDelete(&database.CastMember{}, id); err != nil {
		return err
	}
	m.afterSourceDelete(budgetmodule.LinkKindCast, id)
	return nil
}

// Crew members

// CreateCrewMember creates a crew member
func (m *Manager) CreateCrewMember(req *CrewRequest) (*database.CrewMember, error) {
	member := &database.CrewMember{
		ID:         uuid.NewString(),
		ProjectID:  req.ProjectID,
		Name:       req.Name,
		Role:       req.Role,
		Department: req.Department,
		DayRate:    req.DayRate,
		Email:      req.Email,
		Phone:      req.Phone,
	}
	if err := m.db.Create(member).Error; err != nil {
		return nil, fmt.Errorf("failed to create crew member: %w", err)
	}
	return member, nil
}

// ListCrewMembers returns all crew members for a project
func (m *Manager) ListCrewMembers(projectID string) ([]database.CrewMember, error) {
	var members []database.CrewMember
	err := m.db.Where("project_id = ?", projectID).Order("name ASC").Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list crew members: %w", err)
	}
	return members, nil
}

// UpdateCrewMember applies field updates to a crew member and mirrors the
// change into linked budget items
func (m *Manager) UpdateCrewMember(id string, updates map[string]interface{}) (*database.CrewMember, error) {
	if err := m.applyUpdate(&database.CrewMember{}, id, updates); err != nil {
		return nil, err
	}
	m.afterSourceUpdate(budgetmodule.LinkKindCrew, id, updates)

	var member database.CrewMember
	if err := m.db.First(&member, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload crew member: %w", err)
	}
	return &member, nil
}

// DeleteCrewMember removes a crew member and severs budget links to it
func (m *Manager) DeleteCrewMember(id string) error {
	if err := m.applyDelete(&database.CrewMember{}, id); err != nil {
		return err
	}
	m.afterSourceDelete(budgetmodule.LinkKindCrew, id)
	return nil
}

// Equipment

// CreateEquipment creates an equipment entry
func (m *Manager) CreateEquipment(req *EquipmentRequest) (*database.Equipment, error) {
	equipment := &database.Equipment{
		ID:         uuid.NewString(),
		ProjectID:  req.ProjectID,
		Name:       req.Name,
		Category:   req.Category,
		RentalCost: req.RentalCost,
		Vendor:     req.Vendor,
	}
	if err := m.db.Create(equipment).Error; err != nil {
		return nil, fmt.Errorf("failed to create equipment: %w", err)
	}
	return equipment, nil
}

// ListEquipment returns all equipment for a project
func (m *Manager) ListEquipment(projectID string) ([]database.Equipment, error) {
	var equipment []database.Equipment
	err := m.db.Where("project_id = ?", projectID).Order("name ASC").Find(&equipment).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	return equipment, nil
}

// UpdateEquipment applies field updates to an equipment entry and mirrors
// the change into linked budget items
func (m *Manager) UpdateEquipment(id string, updates map[string]interface{}) (*database.Equipment, error) {
	if err := m.applyUpdate(&database.Equipment{}, id, updates); err != nil {
		return nil, err
	}
	m.afterSourceUpdate(budgetmodule.LinkKindEquipment, id, updates)

	var equipment database.Equipment
	if err := m.db.First(&equipment, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload equipment: %w", err)
	}
	return &equipment, nil
}

// DeleteEquipment removes an equipment entry and severs budget links to it
func (m *Manager) DeleteEquipment(id string) error {
	if err := m.applyDelete(&database.Equipment{}, id); err != nil {
		return err
	}
	m.afterSourceDelete(budgetmodule.LinkKindEquipment, id)
	return nil
}

// Locations

// CreateLocation creates a location
func (m *Manager) CreateLocation(req *LocationRequest) (*database.Location, error) {
	location := &database.Location{
		ID:         uuid.NewString(),
		ProjectID:  req.ProjectID,
		Name:       req.Name,
		Address:    req.Address,
		RentalCost: req.RentalCost,
		Contact:    req.Contact,
	}
	if err := m.db.Create(location).Error; err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}
	return location, nil
}

// ListLocations returns all locations for a project
func (m *Manager) ListLocations(projectID string) ([]database.Location, error) {
	var locations []database.Location
	err := m.db.Where("project_id = ?", projectID).Order("name ASC").Find(&locations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

// UpdateLocation applies field updates to a location and mirrors the change
// into linked budget items
func (m *Manager) UpdateLocation(id string, updates map[string]interface{}) (*database.Location, error) {
	if err := m.applyUpdate(&database.Location{}, id, updates); err != nil {
		return nil, err
	}
	m.afterSourceUpdate(budgetmodule.LinkKindLocation, id, updates)

	var location database.Location
	if err := m.db.First(&location, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload location: %w", err)
	}
	return &location, nil
}

// DeleteLocation removes a location and severs budget links to it
func (m *Manager) DeleteLocation(id string) error {
	if err := m.applyDelete(&database.Location{}, id); err != nil {
		return err
	}
	m.afterSourceDelete(budgetmodule.LinkKindLocation, id)
	return nil
}

// Shared plumbing

func (m *Manager) applyUpdate(model interface{}, id string, updates map[string]interface{}) error {
	delete(updates, "id")
	delete(updates, "project_id")

	result := m.db.Model(model).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update entity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	return nil
}

func (m *Manager) applyDelete(model interface{}, id string) error {
	result := m.db.Delete(model, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete entity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	return nil
}

// afterSourceUpdate mirrors a source entity change into linked budget
// items. The changed field names decide which item fields need refreshing;
// the sync pass re-reads current values from the store.
func (m *Manager) afterSourceUpdate(kind budgetmodule.LinkKind, id string, changedFields map[string]interface{}) {
	if err := budgetmodule.SyncLinkedItems(kind, id, changedFields); err != nil {
		logger.Warn("Budget sync after source update failed",
			logger.String("kind", string(kind)),
			logger.String("id", id),
			logger.Err("error", err))
	}
}

// afterSourceDelete severs budget links pointing at a deleted source
// entity. Linked items keep their recorded amounts.
func (m *Manager) afterSourceDelete(kind budgetmodule.LinkKind, id string) {
	if err := budgetmodule.UnlinkDeletedSource(kind, id); err != nil {
		logger.Warn("Budget unlink after source delete failed",
			logger.String("kind", string(kind)),
			logger.String("id", id),
			logger.Err("error", err))
	}
}
