package budgetmodule

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/slatehq/slate/internal/database"
)

// sourceSnapshot is the current mirrored view of a source entity
type sourceSnapshot struct {
	Description string
	Amount      float64
}

// linkRule declares, per source-entity kind, which fields mirror into a
// linked budget item. Adding a linkable kind is a table change, not new
// branching in the sync code.
type linkRule struct {
	// source field names (json form) that affect the item description
	descriptionFields []string
	// source field names that affect the estimated amount
	amountFields []string
	// snapshot loads the entity and renders its mirrored view
	snapshot func(db *gorm.DB, id string) (sourceSnapshot, error)
}

var linkRules = map[LinkKind]linkRule{
	LinkKindCast: {
		descriptionFields: []string{"actor_name", "character_name"},
		amountFields:      []string{"day_rate"},
		snapshot: func(db *gorm.DB, id string) (sourceSnapshot, error) {
			var m database.CastMember
			if err := db.First(&m, "id = ?", id).Error; err != nil {
				return sourceSnapshot{}, err
			}
			desc := m.ActorName
			if m.CharacterName != "" {
				desc = fmt.Sprintf("%s as %s", m.ActorName, m.CharacterName)
			}
			return sourceSnapshot{Description: desc, Amount: m.DayRate}, nil
		},
	},
	LinkKindCrew: {
		descriptionFields: []string{"name", "role"},
		amountFields:      []string{"day_rate"},
		snapshot: func(db *gorm.DB, id string) (sourceSnapshot, error) {
			var m database.CrewMember
			if err := db.First(&m, "id = ?", id).Error; err != nil {
				return sourceSnapshot{}, err
			}
			desc := m.Name
			if m.Role != "" {
				desc = fmt.Sprintf("%s (%s)", m.Name, m.Role)
			}
			return sourceSnapshot{Description: desc, Amount: m.DayRate}, nil
		},
	},
	LinkKindEquipment: {
		descriptionFields: []string{"name"},
		amountFields:      []string{"rental_cost"},
		snapshot: func(db *gorm.DB, id string) (sourceSnapshot, error) {
			var m database.Equipment
			if err := db.First(&m, "id = ?", id).Error; err != nil {
				return sourceSnapshot{}, err
			}
			return sourceSnapshot{Description: m.Name, Amount: m.RentalCost}, nil
		},
	},
	LinkKindLocation: {
		descriptionFields: []string{"name"},
		amountFields:      []string{"rental_cost"},
		snapshot: func(db *gorm.DB, id string) (sourceSnapshot, error) {
			var m database.Location
			if err := db.First(&m, "id = ?", id).Error; err != nil {
				return sourceSnapshot{}, err
			}
			return sourceSnapshot{Description: m.Name, Amount: m.RentalCost}, nil
		},
	},
}

// Registry resolves links between budget items and their source entities.
// Pure lookup; it never mutates anything.
type Registry struct {
	db *gorm.DB
}

// NewRegistry creates a link registry over the given store
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// FindLinked returns every budget item linked to the given source entity.
// An empty result is not an error.
func (r *Registry) FindLinked(kind LinkKind, id string) ([]database.BudgetItem, error) {
	if !ValidLinkKind(kind) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLinkKind, kind)
	}

	var items []database.BudgetItem
	err := r.db.
		Where("link_kind = ? AND link_id = ?", string(kind), id).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query linked items: %w", err)
	}
	return items, nil
}

// Tracks reports whether a changed source field should mirror into the
// description, the estimated amount, or neither.
func (r *Registry) Tracks(kind LinkKind, field string) (description, amount bool) {
	rule, ok := linkRules[kind]
	if !ok {
		return false, false
	}
	for _, f := range rule.descriptionFields {
		if f == field {
			description = true
		}
	}
	for _, f := range rule.amountFields {
		if f == field {
			amount = true
		}
	}
	return description, amount
}

// Snapshot loads the source entity and renders the mirrored view of it
func (r *Registry) Snapshot(kind LinkKind, id string) (sourceSnapshot, error) {
	rule, ok := linkRules[kind]
	if !ok {
		return sourceSnapshot{}, fmt.Errorf("%w: %s", ErrUnknownLinkKind, kind)
	}

	snap, err := rule.snapshot(r.db, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sourceSnapshot{}, fmt.Errorf("%w: %s/%s", ErrSourceNotFound, kind, id)
		}
		return sourceSnapshot{}, fmt.Errorf("failed to load %s/%s: %w", kind, id, err)
	}
	return snap, nil
}
