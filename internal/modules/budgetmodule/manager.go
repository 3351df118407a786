package budgetmodule

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/slatehq/slate/internal/database"
)

// Manager handles budget category and item persistence
type Manager struct {
	db       *gorm.DB
	registry *Registry
	sync     *SyncService
}

// NewManager creates a budget manager
func NewManager(db *gorm.DB, registry *Registry, sync *SyncService) *Manager {
	return &Manager{db: db, registry: registry, sync: sync}
}

// Registry returns the link registry
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Sync returns the sync service
func (m *Manager) Sync() *SyncService {
	return m.sync
}

// CreateCategory creates a budget category
func (m *Manager) CreateCategory(req *CategoryRequest) (*database.BudgetCategory, error) {
	category := &database.BudgetCategory{
		ID:        uuid.NewString(),
		ProjectID: req.ProjectID,
		Name:      req.Name,
		SortOrder: req.SortOrder,
	}
	if err := m.db.Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create budget category: %w", err)
	}
	return category, nil
}

// ListCategories returns all categories for a project, in sort order
func (m *Manager) ListCategories(projectID string) ([]database.BudgetCategory, error) {
	var categories []database.BudgetCategory
	err := m.db.Where("project_id = ?", projectID).
		Order("sort_order ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list budget categories: %w", err)
	}
	return categories, nil
}

// DeleteCategory removes a category. Items keep their category id; display
// layers treat a dangling category as uncategorized.
func (m *Manager) DeleteCategory(id string) error {
	result := m.db.Delete(&database.BudgetCategory{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete budget category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// CreateItem creates a budget item, optionally pre-linked to a source
// entity. A linked item is seeded from the source's mirrored view unless
// the request carries explicit values.
func (m *Manager) CreateItem(req *ItemRequest) (*database.BudgetItem, error) {
	item := &database.BudgetItem{
		ID:              uuid.NewString(),
		ProjectID:       req.ProjectID,
		CategoryID:      req.CategoryID,
		Description:     req.Description,
		EstimatedAmount: req.EstimatedAmount,
		ActualAmount:    req.ActualAmount,
	}

	if req.LinkKind != "" {
		kind := LinkKind(req.LinkKind)
		snap, err := m.registry.Snapshot(kind, req.LinkID)
		if err != nil {
			return nil, err
		}
		item.LinkKind = string(kind)
		item.LinkID = req.LinkID
		if item.Description == "" {
			item.Description = snap.Description
		}
		if item.EstimatedAmount == 0 {
			item.EstimatedAmount = snap.Amount
		}
	}

	if err := m.db.Create(item).Error; err != nil {
		return nil, fmt.Errorf("failed to create budget item: %w", err)
	}
	return item, nil
}

// GetItem returns a budget item by id
func (m *Manager) GetItem(id string) (*database.BudgetItem, error) {
	var item database.BudgetItem
	if err := m.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to load budget item: %w", err)
	}
	return &item, nil
}

// ListItems returns all budget items for a project
func (m *Manager) ListItems(projectID string) ([]database.BudgetItem, error) {
	var items []database.BudgetItem
	err := m.db.Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list budget items: %w", err)
	}
	return items, nil
}

// UpdateItem applies field updates to a budget item
func (m *Manager) UpdateItem(id string, updates map[string]interface{}) (*database.BudgetItem, error) {
	// Links change only through Link/Unlink
	delete(updates, "link_kind")
	delete(updates, "link_id")
	delete(updates, "id")

	result := m.db.Model(&database.BudgetItem{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update budget item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrItemNotFound
	}
	return m.GetItem(id)
}

// DeleteItem removes a budget item
func (m *Manager) DeleteItem(id string) error {
	result := m.db.Delete(&database.BudgetItem{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete budget item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// LinkItem points a budget item at a source entity and seeds the mirrored
// fields from it
func (m *Manager) LinkItem(id string, kind LinkKind, sourceID string) (*database.BudgetItem, error) {
	snap, err := m.registry.Snapshot(kind, sourceID)
	if err != nil {
		return nil, err
	}

	result := m.db.Model(&database.BudgetItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"link_kind":        string(kind),
			"link_id":          sourceID,
			"description":      snap.Description,
			"estimated_amount": snap.Amount,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to link budget item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrItemNotFound
	}
	return m.GetItem(id)
}

// UnlinkItem severs a single item's link, keeping amounts and description
func (m *Manager) UnlinkItem(id string) (*database.BudgetItem, error) {
	result := m.db.Model(&database.BudgetItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"link_kind": "",
			"link_id":   "",
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to unlink budget item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrItemNotFound
	}
	return m.GetItem(id)
}
