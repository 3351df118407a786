package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList stores a list of ids as a JSON text column. Used for the
// list-valued assignment fields on scenes and shots.
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	return json.Unmarshal(data, l)
}

// Contains reports whether the list contains the given id
func (l StringList) Contains(id string) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Project represents a production
type Project struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Status    string    `gorm:"index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ShootingDay is a calendar date unit of a production schedule
type ShootingDay struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	ProjectID string    `gorm:"not null;index" json:"project_id"`
	Date      time.Time `gorm:"index" json:"date"`
	DayNumber int       `json:"day_number"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Scene is a unit of script content with scheduling and resource assignments
type Scene struct {
	ID             string     `gorm:"primaryKey" json:"id"`
	ProjectID      string     `gorm:"not null;index" json:"project_id"`
	Number         string     `json:"number"`
	Title          string     `json:"title"`
	Status         string     `json:"status"`
	ShootingDayIDs StringList `gorm:"type:text" json:"shooting_day_ids"`
	CrewIDs        StringList `gorm:"type:text" json:"crew_ids"`
	CastIDs        StringList `gorm:"type:text" json:"cast_ids"`
	EquipmentIDs   StringList `gorm:"type:text" json:"equipment_ids"`
	LocationID     string     `gorm:"index" json:"location_id"`
	LocationIDs    StringList `gorm:"type:text" json:"location_ids"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Shot belongs to a scene. Assignment lists are inherited from the scene at
// creation time and independently editable afterwards.
type Shot struct {
	ID             string     `gorm:"primaryKey" json:"id"`
	SceneID        string     `gorm:"not null;index" json:"scene_id"`
	ProjectID      string     `gorm:"not null;index" json:"project_id"`
	Number         string     `json:"number"`
	Status         string     `json:"status"`
	ShootingDayIDs StringList `gorm:"type:text" json:"shooting_day_ids"`
	CrewIDs        StringList `gorm:"type:text" json:"crew_ids"`
	CastIDs        StringList `gorm:"type:text" json:"cast_ids"`
	EquipmentIDs   StringList `gorm:"type:text" json:"equipment_ids"`
	LocationID     string     `json:"location_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ScheduleEvent asserts that a shot (or, legacy, a whole scene) is required
// on a specific shooting day. An empty ShotID marks the deprecated
// scene-level variant; the reconciler prunes those once shot-level events
// exist.
type ScheduleEvent struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	ProjectID     string    `gorm:"not null;index" json:"project_id"`
	ShootingDayID string    `gorm:"not null;index" json:"shooting_day_id"`
	SceneID       string    `gorm:"index" json:"scene_id"`
	ShotID        string    `gorm:"index" json:"shot_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsLegacy reports whether this is a deprecated scene-level event
func (e *ScheduleEvent) IsLegacy() bool {
	return e.ShotID == ""
}

// CastMember is a source entity a budget item may link to
type CastMember struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	ProjectID     string    `gorm:"not null;index" json:"project_id"`
	ActorName     string    `json:"actor_name"`
	CharacterName string    `json:"character_name"`
	DayRate       float64   `json:"day_rate"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CrewMember is a source entity a budget item may link to
type CrewMember struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	ProjectID  string    `gorm:"not null;index" json:"project_id"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	DayRate    float64   `json:"day_rate"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Equipment is a source entity a budget item may link to
type Equipment struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	ProjectID  string    `gorm:"not null;index" json:"project_id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	RentalCost float64   `json:"rental_cost"`
	Vendor     string    `json:"vendor"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Location is a source entity a budget item may link to
type Location struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	ProjectID  string    `gorm:"not null;index" json:"project_id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	RentalCost float64   `json:"rental_cost"`
	Contact    string    `json:"contact"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BudgetCategory groups budget items
type BudgetCategory struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	ProjectID string    `gorm:"not null;index" json:"project_id"`
	Name      string    `gorm:"not null" json:"name"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BudgetItem is a budget line. The (LinkKind, LinkID) pair is advisory
// metadata pointing at a source entity; severing the link never touches the
// recorded amounts.
type BudgetItem struct {
	ID              string     `gorm:"primaryKey" json:"id"`
	ProjectID       string     `gorm:"not null;index" json:"project_id"`
	CategoryID      string     `gorm:"index" json:"category_id"`
	Description     string     `json:"description"`
	EstimatedAmount float64    `json:"estimated_amount"`
	ActualAmount    float64    `json:"actual_amount"`
	LinkKind        string     `gorm:"index:idx_budget_items_link" json:"link_kind"`
	LinkID          string     `gorm:"index:idx_budget_items_link" json:"link_id"`
	LastSyncedAt    *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
