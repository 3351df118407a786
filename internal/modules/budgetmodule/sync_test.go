package budgetmodule

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/slatehq/slate/internal/database"
	"github.com/slatehq/slate/internal/events"
)

func newTestSync(t *testing.T) (*SyncService, *gorm.DB, *MockEventBus) {
	t.Helper()
	db := setupTestDB(t)
	bus := &MockEventBus{}
	registry := NewRegistry(db)
	return NewSyncService(db, registry, bus), db, bus
}

func TestSyncOnUpdateMirrorsTrackedFields(t *testing.T) {
	s, db, bus := newTestSync(t)

	require.NoError(t, db.Create(&database.CastMember{
		ID: "cast-1", ProjectID: "proj-1",
		ActorName: "Maya Reyes", CharacterName: "Det. Cole", DayRate: 1400,
	}).Error)
	require.NoError(t, db.Create(&database.BudgetItem{
		ID: "item-1", ProjectID: "proj-1",
		Description:     "old description",
		EstimatedAmount: 1000,
		ActualAmount:    900,
		LinkKind:        string(LinkKindCast),
		LinkID:          "cast-1",
	}).Error)

	err := s.SyncOnUpdate(LinkKindCast, "cast-1", map[string]interface{}{
		"actor_name": "Maya Reyes",
		"day_rate":   1400,
	})
	require.NoError(t, err)

	var item database.BudgetItem
	require.NoError(t, db.First(&item, "id = ?", "item-1").Error)
	assert.Equal(t, "Maya Reyes as Det. Cole", item.Description)
	assert.Equal(t, 1400.0, item.EstimatedAmount)
	assert.Equal(t, 900.0, item.ActualAmount, "actual amount is never synced")
	assert.NotNil(t, item.LastSyncedAt)

	assert.Len(t, bus.eventsOfType(events.EventBudgetSynced), 1)
}

func TestSyncOnUpdateIgnoresUntrackedFields(t *testing.T) {
	s, db, _ := newTestSync(t)

	require.NoError(t, db.Create(&database.CastMember{
		ID: "cast-1", ProjectID: "proj-1", ActorName: "Maya Reyes", DayRate: 1400,
	}).Error)
	require.NoError(t, db.Create(&database.BudgetItem{
		ID: "item-1", ProjectID: "proj-1",
		Description: "untouched", EstimatedAmount: 1000,
		LinkKind: string(LinkKindCast), LinkID: "cast-1",
	}).Error)

	err := s.SyncOnUpdate(LinkKindCast, "cast-1", map[string]interface{}{
		"email": "maya@example.com",
		"phone": "555-0100",
	})
	require.NoError(t, err)

	var item database.BudgetItem
	require.NoError(t, db.First(&item, "id = ?", "item-1").Error)
	assert.Equal(t, "untouched", item.Description)
	assert.Equal(t, 1000.0, item.EstimatedAmount)
	assert.Nil(t, item.LastSyncedAt)
}

func TestSyncOnUpdateAmountOnly(t *testing.T) {
	s, db, _ := newTestSync(t)

	require.NoError(t, db.Create(&database.Equipment{
		ID: "eq-1", ProjectID: "proj-1", Name: "ARRI Alexa", RentalCost: 2200,
	}).Error)
	require.NoError(t, db.Create(&database.BudgetItem{
		ID: "item-1", ProjectID: "proj-1",
		Description: "Camera A (custom note)", EstimatedAmount: 2000,
		LinkKind: string(LinkKindEquipment), LinkID: "eq-1",
	}).Error)

	err := s.SyncOnUpdate(LinkKindEquipment, "eq-1", map[string]interface{}{
		"rental_cost": 2200,
	})
	require.NoError(t, err)

	var item database.BudgetItem
	require.NoError(t, db.First(&item, "id = ?", "item-1").Error)
	assert.Equal(t, "Camera A (custom note)", item.Description,
		"description is untouched when only the amount field changed")
	assert.Equal(t, 2200.0, item.EstimatedAmount)
}

func TestSyncOnUpdateTouchesEveryLinkedItem(t *testing.T) {
	s, db, _ := newTestSync(t)

	require.NoError(t, db.Create(&database.CrewMember{
		ID: "crew-1", ProjectID: "proj-1", Name: "Sam Ortiz", Role: "Gaffer", DayRate: 700,
	}).Error)
	seedItem(t, db, "item-1", LinkKindCrew, "crew-1")
	seedItem(t, db, "item-2", LinkKindCrew, "crew-1")
	seedItem(t, db, "item-3", LinkKindCrew, "crew-2")

	require.NoError(t, s.SyncOnUpdate(LinkKindCrew, "crew-1", map[string]interface{}{
		"day_rate": 700,
	}))

	var items []database.BudgetItem
	require.NoError(t, db.Order("id").Find(&items).Error)
	assert.Equal(t, 700.0, items[0].EstimatedAmount)
	assert.Equal(t, 700.0, items[1].EstimatedAmount)
	assert.Equal(t, 0.0, items[2].EstimatedAmount, "items linked elsewhere are untouched")
}

func TestSyncOnUpdateNoLinkedItemsIsNoOp(t *testing.T) {
	s, db, bus := newTestSync(t)

	require.NoError(t, db.Create(&database.CastMember{
		ID: "cast-1", ProjectID: "proj-1", ActorName: "Maya Reyes",
	}).Error)

	require.NoError(t, s.SyncOnUpdate(LinkKindCast, "cast-1", map[string]interface{}{
		"actor_name": "Maya Reyes",
	}))
	assert.Empty(t, bus.eventsOfType(events.EventBudgetSynced))
}

func TestSyncOnUpdatePerItemFailureIndependence(t *testing.T) {
	// sqlmock forces the first item write to fail while the second
	// succeeds; the pass must continue and publish a failure event.
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	// The sqlite driver probes its version on open
	mock.ExpectQuery("select sqlite_version()").
		WillReturnRows(sqlmock.NewRows([]string{"sqlite_version()"}).AddRow("3.45.0"))

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	bus := &MockEventBus{}
	s := NewSyncService(db, NewRegistry(db), bus)

	itemRows := sqlmock.NewRows([]string{"id", "project_id", "link_kind", "link_id"}).
		AddRow("item-1", "proj-1", "equipment", "eq-1").
		AddRow("item-2", "proj-1", "equipment", "eq-1")
	mock.ExpectQuery("SELECT \\* FROM `budget_items`").WillReturnRows(itemRows)

	sourceRows := sqlmock.NewRows([]string{"id", "project_id", "name", "rental_cost"}).
		AddRow("eq-1", "proj-1", "ARRI Alexa", 2500)
	mock.ExpectQuery("SELECT \\* FROM `equipment`").WillReturnRows(sourceRows)

	mock.ExpectExec("UPDATE `budget_items`").WillReturnError(assert.AnError)
	mock.ExpectExec("UPDATE `budget_items`").WillReturnResult(sqlmock.NewResult(0, 1))

	err = s.SyncOnUpdate(LinkKindEquipment, "eq-1", map[string]interface{}{
		"rental_cost": 2500,
	})
	require.NoError(t, err, "item failures are absorbed, not returned")

	require.NoError(t, mock.ExpectationsWereMet())

	failures := bus.eventsOfType(events.EventBudgetSyncFailed)
	require.Len(t, failures, 1)
	assert.Equal(t, 1, failures[0].Data["updated"])
	assert.Equal(t, 1, failures[0].Data["failed"])
}

func TestUnlinkOnDeleteSeversLinkOnly(t *testing.T) {
	s, db, bus := newTestSync(t)

	require.NoError(t, db.Create(&database.BudgetItem{
		ID: "item-1", ProjectID: "proj-1",
		Description:     "Maya Reyes as Det. Cole",
		EstimatedAmount: 1400,
		ActualAmount:    1350,
		LinkKind:        string(LinkKindCast),
		LinkID:          "cast-1",
	}).Error)

	require.NoError(t, s.UnlinkOnDelete(LinkKindCast, "cast-1"))

	var item database.BudgetItem
	require.NoError(t, db.First(&item, "id = ?", "item-1").Error)
	assert.Empty(t, item.LinkKind)
	assert.Empty(t, item.LinkID)
	assert.Equal(t, "Maya Reyes as Det. Cole", item.Description)
	assert.Equal(t, 1400.0, item.EstimatedAmount)
	assert.Equal(t, 1350.0, item.ActualAmount)

	assert.Len(t, bus.eventsOfType(events.EventBudgetUnlinked), 1)
}

func TestUnlinkOnDeleteIsIdempotent(t *testing.T) {
	s, db, bus := newTestSync(t)

	seedItem(t, db, "item-1", LinkKindCast, "cast-1")

	require.NoError(t, s.UnlinkOnDelete(LinkKindCast, "cast-1"))
	require.NoError(t, s.UnlinkOnDelete(LinkKindCast, "cast-1"))

	var item database.BudgetItem
	require.NoError(t, db.First(&item, "id = ?", "item-1").Error)
	assert.Empty(t, item.LinkKind)

	// The second run matched nothing and published nothing
	assert.Len(t, bus.eventsOfType(events.EventBudgetUnlinked), 1)
}

func TestUnlinkOnDeleteUnknownKind(t *testing.T) {
	s, _, _ := newTestSync(t)
	assert.ErrorIs(t, s.UnlinkOnDelete(LinkKind("props"), "p-1"), ErrUnknownLinkKind)
}
