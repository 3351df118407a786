package productionmodule

import "errors"

var (
	// ErrProjectNotFound is returned when a project id does not resolve
	ErrProjectNotFound = errors.New("project not found")

	// ErrEntityNotFound is returned when a cast, crew, equipment or
	// location id does not resolve
	ErrEntityNotFound = errors.New("entity not found")
)

// ProjectRequest is the payload for creating a project
type ProjectRequest struct {
	Title  string `json:"title" binding:"required"`
	Status string `json:"status"`
}

// CastRequest is the payload for creating a cast member
type CastRequest struct {
	ProjectID     string  `json:"project_id" binding:"required"`
	ActorName     string  `json:"actor_name" binding:"required"`
	CharacterName string  `json:"character_name"`
	DayRate       float64 `json:"day_rate"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
}

// CrewRequest is the payload for creating a crew member
type CrewRequest struct {
	ProjectID  string  `json:"project_id" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	Role       string  `json:"role"`
	Department string  `json:"department"`
	DayRate    float64 `json:"day_rate"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
}

// EquipmentRequest is the payload for creating an equipment entry
type EquipmentRequest struct {
	ProjectID  string  `json:"project_id" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	Category   string  `json:"category"`
	RentalCost float64 `json:"rental_cost"`
	Vendor     string  `json:"vendor"`
}

// LocationRequest is the payload for creating a location
type LocationRequest struct {
	ProjectID  string  `json:"project_id" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	Address    string  `json:"address"`
	RentalCost float64 `json:"rental_cost"`
	Contact    string  `json:"contact"`
}
