package schedulemodule

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/slatehq/slate/internal/database"
	"github.com/slatehq/slate/internal/events"
)

// MockEventBus implements events.EventBus for testing
type MockEventBus struct {
	events []events.Event
	mu     sync.RWMutex
}

func (m *MockEventBus) Publish(ctx context.Context, event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockEventBus) PublishAsync(event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, filter events.EventFilter, handler events.EventHandler) (*events.Subscription, error) {
	return nil, nil
}

func (m *MockEventBus) Unsubscribe(subscriptionID string) error { return nil }

func (m *MockEventBus) GetEvents(filter events.EventFilter, limit, offset int) ([]events.Event, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]events.Event{}, m.events...), int64(len(m.events)), nil
}

func (m *MockEventBus) GetStats() events.EventStats { return events.EventStats{} }

func (m *MockEventBus) ClearEvents(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
	return nil
}

func (m *MockEventBus) Start(ctx context.Context) error { return nil }
func (m *MockEventBus) Stop(ctx context.Context) error  { return nil }
func (m *MockEventBus) Health() error                   { return nil }

func (m *MockEventBus) eventsOfType(t events.EventType) []events.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []events.Event
	for _, e := range m.events {
		if e.Type == t {
			matched = append(matched, e)
		}
	}
	return matched
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&database.Project{},
		&database.ShootingDay{},
		&database.Scene{},
		&database.Shot{},
		&database.ScheduleEvent{},
	)
	require.NoError(t, err)
	return db
}

func seedScene(t *testing.T, db *gorm.DB, sceneID string, days []string, shotIDs ...string) {
	t.Helper()
	require.NoError(t, db.Create(&database.Scene{
		ID:             sceneID,
		ProjectID:      "proj-1",
		ShootingDayIDs: database.StringList(days),
	}).Error)
	for _, shotID := range shotIDs {
		require.NoError(t, db.Create(&database.Shot{
			ID:        shotID,
			SceneID:   sceneID,
			ProjectID: "proj-1",
		}).Error)
	}
}

func loadEvents(t *testing.T, db *gorm.DB, sceneID string) []database.ScheduleEvent {
	t.Helper()
	var list []database.ScheduleEvent
	require.NoError(t, db.Where("scene_id = ?", sceneID).Find(&list).Error)
	return list
}

func eventPairs(list []database.ScheduleEvent) map[[2]string]int {
	pairs := make(map[[2]string]int)
	for _, e := range list {
		pairs[[2]string{e.ShotID, e.ShootingDayID}]++
	}
	return pairs
}

func TestReconcileCreatesEventPerShotDayPair(t *testing.T) {
	db := setupTestDB(t)
	bus := &MockEventBus{}
	r := NewReconciler(db, bus)

	seedScene(t, db, "scene-1", []string{"day-a", "day-b"}, "shot-1", "shot-2")

	require.NoError(t, r.Reconcile("scene-1", []string{"day-a", "day-b"}))

	list := loadEvents(t, db, "scene-1")
	assert.Len(t, list, 4)
	pairs := eventPairs(list)
	assert.Equal(t, 1, pairs[[2]string{"shot-1", "day-a"}])
	assert.Equal(t, 1, pairs[[2]string{"shot-1", "day-b"}])
	assert.Equal(t, 1, pairs[[2]string{"shot-2", "day-a"}])
	assert.Equal(t, 1, pairs[[2]string{"shot-2", "day-b"}])
}

func TestReconcileIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	r := NewReconciler(db, &MockEventBus{})

	seedScene(t, db, "scene-1", []string{"day-a"}, "shot-1", "shot-2")

	require.NoError(t, r.Reconcile("scene-1", []string{"day-a"}))
	first := loadEvents(t, db, "scene-1")
	require.Len(t, first, 2)

	ids := map[string]bool{}
	for _, e := range first {
		ids[e.ID] = true
	}

	require.NoError(t, r.Reconcile("scene-1", []string{"day-a"}))
	second := loadEvents(t, db, "scene-1")
	assert.Len(t, second, 2)
	for _, e := range second {
		assert.True(t, ids[e.ID], "existing events should be kept, not recreated")
	}
}

func TestReconcileConvergesAfterDayChange(t *testing.T) {
	db := setupTestDB(t)
	r := NewReconciler(db, &MockEventBus{})

	seedScene(t, db, "scene-1", []string{"day-a", "day-b"}, "shot-1")
	require.NoError(t, r.Reconcile("scene-1", []string{"day-a", "day-b"}))

	// Assignment moves from {A,B} to {B,C}
	require.NoError(t, db.Model(&database.Scene{}).Where("id = ?", "scene-1").
		Update("shooting_day_ids", database.StringList{"day-b", "day-c"}).Error)
	require.NoError(t, r.Reconcile("scene-1", []string{"day-b", "day-c"}))

	pairs := eventPairs(loadEvents(t, db, "scene-1"))
	assert.Equal(t, 0, pairs[[2]string{"shot-1", "day-a"}])
	assert.Equal(t, 1, pairs[[2]string{"shot-1", "day-b"}])
	assert.Equal(t, 1, pairs[[2]string{"shot-1", "day-c"}])
}

func TestReconcileRemovesDuplicates(t *testing.T) {
	db := setupTestDB(t)
	r := NewReconciler(db, &MockEventBus{})

	seedScene(t, db, "scene-1", []string{"day-a"}, "shot-1")

	// Two events for the same (shot, day) pair, drift from a past bug
	for _, id := range []string{"ev-1", "ev-2"} {
		require.NoError(t, db.Create(&database.ScheduleEvent{
			ID: id, ProjectID: "proj-1", SceneID: "scene-1",
			ShotID: "shot-1", ShootingDayID: "day-a",
		}).Error)
	}

	require.NoError(t, r.Reconcile("scene-1", []string{"day-a"}))

	list := loadEvents(t, db, "scene-1")
	assert.Len(t, list, 1)
}

func TestReconcilePrunesLegacySceneLevelEvents(t *testing.T) {
	db := setupTestDB(t)
	r := NewReconciler(db, &MockEventBus{})

	seedScene(t, db, "scene-1", []string{"day-a"}, "shot-1")

	// Legacy event with no shot id
	require.NoError(t, db.Create(&database.ScheduleEvent{
		ID: "legacy-1", ProjectID: "proj-1", SceneID: "scene-1",
		ShootingDayID: "day-a",
	}).Error)

	require.NoError(t, r.Reconcile("scene-1", []string{"day-a"}))

	list := loadEvents(t, db, "scene-1")
	require.Len(t, list, 1)
	assert.Equal(t, "shot-1", list[0].ShotID)
}

func TestReconcileUnionsShotOverrideDays(t *testing.T) {
	db := setupTestDB(t)
	r := NewReconciler(db, &MockEventBus{})

	seedScene(t, db, "scene-1", []string{"day-a"})
	require.NoError(t, db.Create(&database.Shot{
		ID: "shot-1", SceneID: "scene-1", ProjectID: "proj-1",
		ShootingDayIDs: database.StringList{"day-b"},
	}).Error)

	require.NoError(t, r.Reconcile("scene-1", []string{"day-a"}))

	pairs := eventPairs(loadEvents(t, db, "scene-1"))
	assert.Equal(t, 1, pairs[[2]string{"shot-1", "day-a"}])
	assert.Equal(t, 1, pairs[[2]string{"shot-1", "day-b"}])
}

func TestReconcileSceneNotFound(t *testing.T) {
	db := setupTestDB(t)
	r := NewReconciler(db, &MockEventBus{})

	err := r.Reconcile("missing", []string{"day-a"})
	assert.ErrorIs(t, err, ErrSceneNotFound)
}

func TestReconcilePublishesOutcome(t *testing.T) {
	db := setupTestDB(t)
	bus := &MockEventBus{}
	r := NewReconciler(db, bus)

	seedScene(t, db, "scene-1", []string{"day-a"}, "shot-1")
	require.NoError(t, r.Reconcile("scene-1", []string{"day-a"}))

	published := bus.eventsOfType(events.EventScheduleReconciled)
	require.Len(t, published, 1)
	assert.Equal(t, "scene-1", published[0].Target)
	assert.Equal(t, 1, published[0].Data["created"])
}

func TestClearAllRemovesEverythingIncludingLegacy(t *testing.T) {
	db := setupTestDB(t)
	bus := &MockEventBus{}
	r := NewReconciler(db, bus)

	seedScene(t, db, "scene-1", []string{"day-a"}, "shot-1")
	require.NoError(t, r.Reconcile("scene-1", []string{"day-a"}))
	require.NoError(t, db.Create(&database.ScheduleEvent{
		ID: "legacy-1", ProjectID: "proj-1", SceneID: "scene-1",
		ShootingDayID: "day-a",
	}).Error)

	require.NoError(t, r.ClearAll("scene-1"))

	assert.Empty(t, loadEvents(t, db, "scene-1"))
	assert.Len(t, bus.eventsOfType(events.EventScheduleCleared), 1)
}

func TestClearAllSceneNotFound(t *testing.T) {
	db := setupTestDB(t)
	r := NewReconciler(db, &MockEventBus{})

	assert.ErrorIs(t, r.ClearAll("missing"), ErrSceneNotFound)
}

func TestReconcileAllSkipsUnassignedScenes(t *testing.T) {
	db := setupTestDB(t)
	r := NewReconciler(db, &MockEventBus{})

	seedScene(t, db, "scene-1", []string{"day-a"}, "shot-1")
	seedScene(t, db, "scene-2", nil, "shot-2")

	summary, err := r.ReconcileAll("proj-1")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Synced)
	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, summary.Errors)

	assert.Len(t, loadEvents(t, db, "scene-1"), 1)
	assert.Empty(t, loadEvents(t, db, "scene-2"))
}
