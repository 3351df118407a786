package schedulemodule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/slatehq/slate/internal/database"
)

// Detector reports which other scenes on a project compete for the same
// crew, cast, equipment or location on a shooting day. It is read-only and
// side-effect free: scheduling forms may call it on every edit.
type Detector struct {
	db *gorm.DB
}

// NewDetector creates a conflict detector
func NewDetector(db *gorm.DB) *Detector {
	return &Detector{db: db}
}

// Detect evaluates the given scene against every other scene sharing the
// referenced day. A zero dayRef short-circuits to an empty result without
// querying candidates; so does a draft scene, which has nothing persisted
// to compare.
func (d *Detector) Detect(projectID, sceneID string, dayRef DayRef) (*Conflicts, error) {
	result := &Conflicts{
		Crew:      []string{},
		Cast:      []string{},
		Equipment: []string{},
	}

	if dayRef.IsZero() || sceneID == DraftSceneID {
		return result, nil
	}

	var scene database.Scene
	if err := d.db.First(&scene, "id = ?", sceneID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSceneNotFound, sceneID)
		}
		return nil, fmt.Errorf("failed to load scene %s: %w", sceneID, err)
	}

	dayIDs, err := d.resolveDays(projectID, dayRef)
	if err != nil {
		return nil, err
	}
	if len(dayIDs) == 0 {
		return result, nil
	}

	candidates, err := d.candidateScenes(projectID, sceneID, dayIDs)
	if err != nil {
		return nil, err
	}

	crew := map[string]bool{}
	cast := map[string]bool{}
	equipment := map[string]bool{}

	for _, candidate := range candidates {
		collectOverlap(scene.CrewIDs, candidate.CrewIDs, crew)
		collectOverlap(scene.CastIDs, candidate.CastIDs, cast)
		collectOverlap(scene.EquipmentIDs, candidate.EquipmentIDs, equipment)

		if scene.LocationID != "" && scene.LocationID == candidate.LocationID {
			result.Location = true
		}
	}

	result.Crew = sortedKeys(crew)
	result.Cast = sortedKeys(cast)
	result.Equipment = sortedKeys(equipment)
	return result, nil
}

// resolveDays maps a day reference to concrete shooting-day ids. A bare
// date matches every shooting day of the project falling on that calendar
// day.
func (d *Detector) resolveDays(projectID string, dayRef DayRef) ([]string, error) {
	if dayRef.DayID != "" {
		return []string{dayRef.DayID}, nil
	}

	dayStart := dayRef.Date.Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	var days []database.ShootingDay
	err := d.db.
		Where("project_id = ? AND date >= ? AND date < ?", projectID, dayStart, dayEnd).
		Find(&days).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve shooting days by date: %w", err)
	}

	ids := make([]string, 0, len(days))
	for _, day := range days {
		ids = append(ids, day.ID)
	}
	return ids, nil
}

// candidateScenes returns the project's scenes assigned to any of the given
// days, excluding the scene under evaluation. Day assignments live in a
// JSON list column, so membership is checked after loading.
func (d *Detector) candidateScenes(projectID, excludeSceneID string, dayIDs []string) ([]database.Scene, error) {
	var scenes []database.Scene
	err := d.db.
		Where("project_id = ? AND id <> ?", projectID, excludeSceneID).
		Find(&scenes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate scenes: %w", err)
	}

	var candidates []database.Scene
	for _, scene := range scenes {
		for _, dayID := range dayIDs {
			if scene.ShootingDayIDs.Contains(dayID) {
				candidates = append(candidates, scene)
				break
			}
		}
	}
	return candidates, nil
}

// collectOverlap adds every id present in both lists to the accumulator
func collectOverlap(a, b database.StringList, into map[string]bool) {
	set := make(map[string]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if set[id] {
			into[id] = true
		}
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
