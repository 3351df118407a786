package schedulemodule

import (
	"errors"
	"time"
)

var (
	// ErrSceneNotFound is returned when a scene id does not resolve
	ErrSceneNotFound = errors.New("scene not found")

	// ErrShotNotFound is returned when a shot id does not resolve
	ErrShotNotFound = errors.New("shot not found")

	// ErrDayNotFound is returned when a shooting day id does not resolve
	ErrDayNotFound = errors.New("shooting day not found")
)

// DraftSceneID marks a scene that exists only in an editing form and has no
// persisted identity yet. Conflict detection accepts it and reports no
// conflicts, since nothing is persisted to compare against.
const DraftSceneID = "new"

// Summary reports the outcome of a bulk reconcile sweep
type Summary struct {
	Synced  int      `json:"synced"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// Conflicts reports resource contention between scenes sharing a shooting
// day. Id lists are deduplicated; order is not significant.
type Conflicts struct {
	Crew      []string `json:"crew"`
	Cast      []string `json:"cast"`
	Equipment []string `json:"equipment"`
	Location  bool     `json:"location"`
}

// Empty reports whether no contention was found.
func (c Conflicts) Empty() bool {
	return len(c.Crew) == 0 && len(c.Cast) == 0 && len(c.Equipment) == 0 && !c.Location
}

// DayRef identifies the day to evaluate conflicts against: a shooting-day
// id, or a bare date for scenes not yet tied to a formal shooting day. Both
// empty means no comparison target.
type DayRef struct {
	DayID string
	Date  *time.Time
}

// IsZero reports whether the ref carries no day at all
func (r DayRef) IsZero() bool {
	return r.DayID == "" && r.Date == nil
}

// DayRequest is the payload for creating or updating a shooting day
type DayRequest struct {
	ProjectID string    `json:"project_id" binding:"required"`
	Date      time.Time `json:"date" binding:"required"`
	DayNumber int       `json:"day_number"`
	Status    string    `json:"status"`
}

// SceneRequest is the payload for creating a scene
type SceneRequest struct {
	ProjectID      string   `json:"project_id" binding:"required"`
	Number         string   `json:"number"`
	Title          string   `json:"title"`
	Status         string   `json:"status"`
	ShootingDayIDs []string `json:"shooting_day_ids"`
	CrewIDs        []string `json:"crew_ids"`
	CastIDs        []string `json:"cast_ids"`
	EquipmentIDs   []string `json:"equipment_ids"`
	LocationID     string   `json:"location_id"`
	LocationIDs    []string `json:"location_ids"`
}

// ShotRequest is the payload for creating a shot
type ShotRequest struct {
	SceneID string `json:"scene_id" binding:"required"`
	Number  string `json:"number"`
	Status  string `json:"status"`
}
