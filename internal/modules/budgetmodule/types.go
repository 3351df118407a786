package budgetmodule

import (
	"errors"
)

// LinkKind identifies which collection a budget item's link points at
type LinkKind string

const (
	LinkKindCast      LinkKind = "cast"
	LinkKindCrew      LinkKind = "crew"
	LinkKindEquipment LinkKind = "equipment"
	LinkKindLocation  LinkKind = "location"
)

var (
	// ErrUnknownLinkKind is returned for a kind outside the registry table
	ErrUnknownLinkKind = errors.New("unknown link kind")

	// ErrSourceNotFound is returned when a linked source entity does not resolve
	ErrSourceNotFound = errors.New("source entity not found")

	// ErrItemNotFound is returned when a budget item id does not resolve
	ErrItemNotFound = errors.New("budget item not found")

	// ErrCategoryNotFound is returned when a budget category id does not resolve
	ErrCategoryNotFound = errors.New("budget category not found")
)

// ValidLinkKind reports whether the given kind is a known link kind
func ValidLinkKind(kind LinkKind) bool {
	_, ok := linkRules[kind]
	return ok
}

// CategoryRequest is the payload for creating or updating a budget category
type CategoryRequest struct {
	ProjectID string `json:"project_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	SortOrder int    `json:"sort_order"`
}

// ItemRequest is the payload for creating a budget item
type ItemRequest struct {
	ProjectID       string  `json:"project_id" binding:"required"`
	CategoryID      string  `json:"category_id"`
	Description     string  `json:"description"`
	EstimatedAmount float64 `json:"estimated_amount"`
	ActualAmount    float64 `json:"actual_amount"`
	LinkKind        string  `json:"link_kind"`
	LinkID          string  `json:"link_id"`
}

// LinkRequest is the payload for linking an item to a source entity
type LinkRequest struct {
	Kind string `json:"kind" binding:"required"`
	ID   string `json:"id" binding:"required"`
}
