package schedulemodule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/slatehq/slate/internal/database"
	"github.com/slatehq/slate/internal/events"
)

func newTestManager(t *testing.T) (*Manager, *gorm.DB, *MockEventBus) {
	t.Helper()
	db := setupTestDB(t)
	bus := &MockEventBus{}
	reconciler := NewReconciler(db, bus)
	detector := NewDetector(db)
	return NewManager(db, reconciler, detector, bus), db, bus
}

func TestCreateShotInheritsSceneAssignments(t *testing.T) {
	m, db, _ := newTestManager(t)

	require.NoError(t, db.Create(&database.Scene{
		ID:             "scene-1",
		ProjectID:      "proj-1",
		ShootingDayIDs: database.StringList{"day-a"},
		CrewIDs:        database.StringList{"crew-1"},
		CastIDs:        database.StringList{"cast-1"},
		EquipmentIDs:   database.StringList{"eq-1"},
		LocationID:     "loc-1",
	}).Error)

	shot, err := m.CreateShot(&ShotRequest{SceneID: "scene-1", Number: "1A"})
	require.NoError(t, err)

	assert.Equal(t, database.StringList{"day-a"}, shot.ShootingDayIDs)
	assert.Equal(t, database.StringList{"crew-1"}, shot.CrewIDs)
	assert.Equal(t, database.StringList{"cast-1"}, shot.CastIDs)
	assert.Equal(t, database.StringList{"eq-1"}, shot.EquipmentIDs)
	assert.Equal(t, "loc-1", shot.LocationID)

	// Creation also ran the schedule sync for the parent scene
	assert.Len(t, loadEvents(t, db, "scene-1"), 1)
}

func TestShotAssignmentsIndependentAfterCreation(t *testing.T) {
	m, db, _ := newTestManager(t)

	require.NoError(t, db.Create(&database.Scene{
		ID: "scene-1", ProjectID: "proj-1",
		CrewIDs: database.StringList{"crew-1"},
	}).Error)

	shot, err := m.CreateShot(&ShotRequest{SceneID: "scene-1"})
	require.NoError(t, err)

	_, err = m.UpdateShot(shot.ID, map[string]interface{}{
		"crew_ids": []interface{}{"crew-2"},
	})
	require.NoError(t, err)

	scene, err := m.GetScene("scene-1")
	require.NoError(t, err)
	assert.Equal(t, database.StringList{"crew-1"}, scene.CrewIDs)
}

func TestUpdateSceneDaysTriggersReconcile(t *testing.T) {
	m, db, _ := newTestManager(t)

	seedScene(t, db, "scene-1", nil, "shot-1")

	_, err := m.UpdateScene("scene-1", map[string]interface{}{
		"shooting_day_ids": []interface{}{"day-a", "day-b"},
	})
	require.NoError(t, err)

	assert.Len(t, loadEvents(t, db, "scene-1"), 2)
}

func TestUpdateSceneEmptyDaysClearsSchedule(t *testing.T) {
	m, db, _ := newTestManager(t)

	seedScene(t, db, "scene-1", []string{"day-a"}, "shot-1")
	require.NoError(t, m.Reconciler().Reconcile("scene-1", []string{"day-a"}))
	require.Len(t, loadEvents(t, db, "scene-1"), 1)

	_, err := m.UpdateScene("scene-1", map[string]interface{}{
		"shooting_day_ids": []interface{}{},
	})
	require.NoError(t, err)

	assert.Empty(t, loadEvents(t, db, "scene-1"))
}

func TestUpdateSceneKeepsScheduleWhenShotOverridesRemain(t *testing.T) {
	m, db, _ := newTestManager(t)

	seedScene(t, db, "scene-1", []string{"day-a"})
	require.NoError(t, db.Create(&database.Shot{
		ID: "shot-1", SceneID: "scene-1", ProjectID: "proj-1",
		ShootingDayIDs: database.StringList{"day-b"},
	}).Error)

	_, err := m.UpdateScene("scene-1", map[string]interface{}{
		"shooting_day_ids": []interface{}{},
	})
	require.NoError(t, err)

	pairs := eventPairs(loadEvents(t, db, "scene-1"))
	assert.Equal(t, 1, pairs[[2]string{"shot-1", "day-b"}])
}

func TestUpdateSceneUnrelatedFieldLeavesScheduleAlone(t *testing.T) {
	m, db, _ := newTestManager(t)

	seedScene(t, db, "scene-1", []string{"day-a"}, "shot-1")
	require.NoError(t, m.Reconciler().Reconcile("scene-1", []string{"day-a"}))
	before := loadEvents(t, db, "scene-1")

	_, err := m.UpdateScene("scene-1", map[string]interface{}{"title": "Rooftop chase"})
	require.NoError(t, err)

	after := loadEvents(t, db, "scene-1")
	require.Len(t, after, len(before))
	assert.Equal(t, before[0].ID, after[0].ID)
}

func TestUpdateShotDaysTriggersReconcile(t *testing.T) {
	m, db, _ := newTestManager(t)

	seedScene(t, db, "scene-1", nil, "shot-1")

	_, err := m.UpdateShot("shot-1", map[string]interface{}{
		"shooting_day_ids": []interface{}{"day-c"},
	})
	require.NoError(t, err)

	pairs := eventPairs(loadEvents(t, db, "scene-1"))
	assert.Equal(t, 1, pairs[[2]string{"shot-1", "day-c"}])
}

func TestDeleteSceneRemovesShotsAndEvents(t *testing.T) {
	m, db, _ := newTestManager(t)

	seedScene(t, db, "scene-1", []string{"day-a"}, "shot-1")
	require.NoError(t, m.Reconciler().Reconcile("scene-1", []string{"day-a"}))

	require.NoError(t, m.DeleteScene("scene-1"))

	var shots []database.Shot
	require.NoError(t, db.Where("scene_id = ?", "scene-1").Find(&shots).Error)
	assert.Empty(t, shots)
	assert.Empty(t, loadEvents(t, db, "scene-1"))
}

func TestDeleteShotRemovesItsEvents(t *testing.T) {
	m, db, _ := newTestManager(t)

	seedScene(t, db, "scene-1", []string{"day-a"}, "shot-1", "shot-2")
	require.NoError(t, m.Reconciler().Reconcile("scene-1", []string{"day-a"}))
	require.Len(t, loadEvents(t, db, "scene-1"), 2)

	require.NoError(t, m.DeleteShot("shot-1"))

	pairs := eventPairs(loadEvents(t, db, "scene-1"))
	assert.Equal(t, 0, pairs[[2]string{"shot-1", "day-a"}])
	assert.Equal(t, 1, pairs[[2]string{"shot-2", "day-a"}])
}

func TestDayCRUD(t *testing.T) {
	m, _, _ := newTestManager(t)

	day, err := m.CreateDay(&DayRequest{
		ProjectID: "proj-1",
		Date:      time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		DayNumber: 1,
	})
	require.NoError(t, err)

	days, err := m.ListDays("proj-1")
	require.NoError(t, err)
	require.Len(t, days, 1)

	updated, err := m.UpdateDay(day.ID, map[string]interface{}{"status": "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", updated.Status)

	require.NoError(t, m.DeleteDay(day.ID))
	assert.ErrorIs(t, m.DeleteDay(day.ID), ErrDayNotFound)
}

func TestPublishConflictsSkipsEmptyResult(t *testing.T) {
	m, _, bus := newTestManager(t)

	m.publishConflicts("scene-1", &Conflicts{})
	assert.Empty(t, bus.eventsOfType(events.EventConflictDetected))

	m.publishConflicts("scene-1", &Conflicts{Crew: []string{"crew-1"}, Location: true})
	published := bus.eventsOfType(events.EventConflictDetected)
	require.Len(t, published, 1)
	assert.Equal(t, "scene-1", published[0].Target)
	assert.Equal(t, 1, published[0].Data["crew"])
	assert.Equal(t, true, published[0].Data["location"])
}

func TestDetectResultIsPublishable(t *testing.T) {
	m, db, bus := newTestManager(t)

	seedConflictScene(t, db, "scene-a", []string{"day-1"},
		[]string{"crew-1"}, nil, nil, "")
	seedConflictScene(t, db, "scene-b", []string{"day-1"},
		[]string{"crew-1"}, nil, nil, "")

	conflicts, err := m.Detector().Detect("proj-1", "scene-a", DayRef{DayID: "day-1"})
	require.NoError(t, err)

	m.publishConflicts("scene-a", conflicts)
	published := bus.eventsOfType(events.EventConflictDetected)
	require.Len(t, published, 1)
	assert.Equal(t, 1, published[0].Data["crew"])
}
