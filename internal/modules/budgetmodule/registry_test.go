package budgetmodule

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
	return m.PublishAsync(event)
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

func (m *MockEventBus) GetStats() events.EventStats          { return events.EventStats{} }
func (m *MockEventBus) ClearEvents(ctx context.Context) error { return nil }
func (m *MockEventBus) Start(ctx context.Context) error       { return nil }
func (m *MockEventBus) Stop(ctx context.Context) error        { return nil }
func (m *MockEventBus) Health() error                         { return nil }

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
		&database.CastMember{},
		&database.CrewMember{},
		&database.Equipment{},
		&database.Location{},
		&database.BudgetCategory{},
		&database.BudgetItem{},
	)
	require.NoError(t, err)
	return db
}

func seedItem(t *testing.T, db *gorm.DB, id string, kind LinkKind, linkID string) {
	t.Helper()
	require.NoError(t, db.Create(&database.BudgetItem{
		ID:        id,
		ProjectID: "proj-1",
		LinkKind:  string(kind),
		LinkID:    linkID,
	}).Error)
}

func TestFindLinkedReturnsOnlyMatchingItems(t *testing.T) {
	db := setupTestDB(t)
	r := NewRegistry(db)

	seedItem(t, db, "item-1", LinkKindCast, "cast-1")
	seedItem(t, db, "item-2", LinkKindCast, "cast-1")
	seedItem(t, db, "item-3", LinkKindCast, "cast-2")
	seedItem(t, db, "item-4", LinkKindCrew, "cast-1")

	items, err := r.FindLinked(LinkKindCast, "cast-1")
	require.NoError(t, err)

	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, "cast-1", item.LinkID)
		assert.Equal(t, string(LinkKindCast), item.LinkKind)
	}
}

func TestFindLinkedEmptyIsNotAnError(t *testing.T) {
	db := setupTestDB(t)
	r := NewRegistry(db)

	items, err := r.FindLinked(LinkKindEquipment, "eq-none")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFindLinkedRejectsUnknownKind(t *testing.T) {
	db := setupTestDB(t)
	r := NewRegistry(db)

	_, err := r.FindLinked(LinkKind("props"), "p-1")
	assert.ErrorIs(t, err, ErrUnknownLinkKind)
}

func TestTracksPerKind(t *testing.T) {
	r := NewRegistry(nil)

	desc, amount := r.Tracks(LinkKindCast, "actor_name")
	assert.True(t, desc)
	assert.False(t, amount)

	desc, amount = r.Tracks(LinkKindCast, "day_rate")
	assert.False(t, desc)
	assert.True(t, amount)

	desc, amount = r.Tracks(LinkKindCast, "email")
	assert.False(t, desc)
	assert.False(t, amount)

	desc, amount = r.Tracks(LinkKindEquipment, "rental_cost")
	assert.False(t, desc)
	assert.True(t, amount)

	desc, amount = r.Tracks(LinkKind("props"), "name")
	assert.False(t, desc)
	assert.False(t, amount)
}

func TestSnapshotRendersDescriptions(t *testing.T) {
	db := setupTestDB(t)
	r := NewRegistry(db)

	require.NoError(t, db.Create(&database.CastMember{
		ID: "cast-1", ProjectID: "proj-1",
		ActorName: "Maya Reyes", CharacterName: "Det. Cole", DayRate: 1200,
	}).Error)
	require.NoError(t, db.Create(&database.CrewMember{
		ID: "crew-1", ProjectID: "proj-1",
		Name: "Sam Ortiz", Role: "Gaffer", DayRate: 650,
	}).Error)
	require.NoError(t, db.Create(&database.Location{
		ID: "loc-1", ProjectID: "proj-1",
		Name: "Warehouse 9", RentalCost: 3000,
	}).Error)

	snap, err := r.Snapshot(LinkKindCast, "cast-1")
	require.NoError(t, err)
	assert.Equal(t, "Maya Reyes as Det. Cole", snap.Description)
	assert.Equal(t, 1200.0, snap.Amount)

	snap, err = r.Snapshot(LinkKindCrew, "crew-1")
	require.NoError(t, err)
	assert.Equal(t, "Sam Ortiz (Gaffer)", snap.Description)
	assert.Equal(t, 650.0, snap.Amount)

	snap, err = r.Snapshot(LinkKindLocation, "loc-1")
	require.NoError(t, err)
	assert.Equal(t, "Warehouse 9", snap.Description)
	assert.Equal(t, 3000.0, snap.Amount)
}

func TestSnapshotSourceNotFound(t *testing.T) {
	db := setupTestDB(t)
	r := NewRegistry(db)

	_, err := r.Snapshot(LinkKindCast, "missing")
	assert.ErrorIs(t, err, ErrSourceNotFound)
}
