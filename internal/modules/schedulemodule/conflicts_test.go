package schedulemodule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/slatehq/slate/internal/database"
)

func seedConflictScene(t *testing.T, db *gorm.DB, id string, days, crew, cast, equipment []string, locationID string) {
	t.Helper()
	require.NoError(t, db.Create(&database.Scene{
		ID:             id,
		ProjectID:      "proj-1",
		ShootingDayIDs: database.StringList(days),
		CrewIDs:        database.StringList(crew),
		CastIDs:        database.StringList(cast),
		EquipmentIDs:   database.StringList(equipment),
		LocationID:     locationID,
	}).Error)
}

func TestDetectReportsSharedResources(t *testing.T) {
	db := setupTestDB(t)
	d := NewDetector(db)

	seedConflictScene(t, db, "scene-1", []string{"day-a"},
		[]string{"crew-1", "crew-2"}, []string{"cast-1"}, []string{"eq-1"}, "loc-1")
	seedConflictScene(t, db, "scene-2", []string{"day-a"},
		[]string{"crew-2", "crew-3"}, []string{"cast-1", "cast-2"}, []string{"eq-2"}, "loc-1")

	conflicts, err := d.Detect("proj-1", "scene-1", DayRef{DayID: "day-a"})
	require.NoError(t, err)

	assert.Equal(t, []string{"crew-2"}, conflicts.Crew)
	assert.Equal(t, []string{"cast-1"}, conflicts.Cast)
	assert.Empty(t, conflicts.Equipment)
	assert.True(t, conflicts.Location)
}

func TestDetectIsSymmetric(t *testing.T) {
	db := setupTestDB(t)
	d := NewDetector(db)

	seedConflictScene(t, db, "scene-1", []string{"day-a"},
		[]string{"crew-1"}, nil, nil, "")
	seedConflictScene(t, db, "scene-2", []string{"day-a"},
		[]string{"crew-1"}, nil, nil, "")

	fromOne, err := d.Detect("proj-1", "scene-1", DayRef{DayID: "day-a"})
	require.NoError(t, err)
	fromTwo, err := d.Detect("proj-1", "scene-2", DayRef{DayID: "day-a"})
	require.NoError(t, err)

	assert.Equal(t, fromOne.Crew, fromTwo.Crew)
}

func TestDetectExcludesSelf(t *testing.T) {
	db := setupTestDB(t)
	d := NewDetector(db)

	seedConflictScene(t, db, "scene-1", []string{"day-a"},
		[]string{"crew-1"}, []string{"cast-1"}, []string{"eq-1"}, "loc-1")

	conflicts, err := d.Detect("proj-1", "scene-1", DayRef{DayID: "day-a"})
	require.NoError(t, err)

	assert.Empty(t, conflicts.Crew)
	assert.Empty(t, conflicts.Cast)
	assert.Empty(t, conflicts.Equipment)
	assert.False(t, conflicts.Location)
}

func TestDetectNoDayShortCircuits(t *testing.T) {
	db := setupTestDB(t)
	d := NewDetector(db)

	// Scene deliberately not seeded: with no day to evaluate the detector
	// must not even load it.
	conflicts, err := d.Detect("proj-1", "scene-1", DayRef{})
	require.NoError(t, err)

	assert.Empty(t, conflicts.Crew)
	assert.Empty(t, conflicts.Cast)
	assert.Empty(t, conflicts.Equipment)
	assert.False(t, conflicts.Location)
}

func TestDetectDraftScene(t *testing.T) {
	db := setupTestDB(t)
	d := NewDetector(db)

	conflicts, err := d.Detect("proj-1", DraftSceneID, DayRef{DayID: "day-a"})
	require.NoError(t, err)
	assert.Empty(t, conflicts.Crew)
}

func TestDetectSceneNotFound(t *testing.T) {
	db := setupTestDB(t)
	d := NewDetector(db)

	_, err := d.Detect("proj-1", "missing", DayRef{DayID: "day-a"})
	assert.ErrorIs(t, err, ErrSceneNotFound)
}

func TestDetectIgnoresScenesOnOtherDays(t *testing.T) {
	db := setupTestDB(t)
	d := NewDetector(db)

	seedConflictScene(t, db, "scene-1", []string{"day-a"},
		[]string{"crew-1"}, nil, nil, "")
	seedConflictScene(t, db, "scene-2", []string{"day-b"},
		[]string{"crew-1"}, nil, nil, "")

	conflicts, err := d.Detect("proj-1", "scene-1", DayRef{DayID: "day-a"})
	require.NoError(t, err)
	assert.Empty(t, conflicts.Crew)
}

func TestDetectLocationRequiresBothSet(t *testing.T) {
	db := setupTestDB(t)
	d := NewDetector(db)

	seedConflictScene(t, db, "scene-1", []string{"day-a"},
		nil, nil, nil, "")
	seedConflictScene(t, db, "scene-2", []string{"day-a"},
		nil, nil, nil, "")

	conflicts, err := d.Detect("proj-1", "scene-1", DayRef{DayID: "day-a"})
	require.NoError(t, err)
	assert.False(t, conflicts.Location, "two empty location ids are not a conflict")
}

func TestDetectResolvesDayByDate(t *testing.T) {
	db := setupTestDB(t)
	d := NewDetector(db)

	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&database.ShootingDay{
		ID: "day-a", ProjectID: "proj-1", Date: date, DayNumber: 1,
	}).Error)

	seedConflictScene(t, db, "scene-1", []string{"day-a"},
		[]string{"crew-1"}, nil, nil, "")
	seedConflictScene(t, db, "scene-2", []string{"day-a"},
		[]string{"crew-1"}, nil, nil, "")

	conflicts, err := d.Detect("proj-1", "scene-1", DayRef{Date: &date})
	require.NoError(t, err)
	assert.Equal(t, []string{"crew-1"}, conflicts.Crew)
}
