package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestStringListRoundTrip(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Scene{}))

	require.NoError(t, db.Create(&Scene{
		ID:             "scene-1",
		ProjectID:      "proj-1",
		ShootingDayIDs: StringList{"day-a", "day-b"},
	}).Error)

	var scene Scene
	require.NoError(t, db.First(&scene, "id = ?", "scene-1").Error)
	assert.Equal(t, StringList{"day-a", "day-b"}, scene.ShootingDayIDs)
}

func TestStringListScanNil(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan(nil))
	assert.Empty(t, l)

	require.NoError(t, l.Scan("[]"))
	assert.Empty(t, l)

	require.NoError(t, l.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringList{"a", "b"}, l)
}

func TestStringListValueNil(t *testing.T) {
	var l StringList
	v, err := l.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestStringListContains(t *testing.T) {
	l := StringList{"a", "b"}
	assert.True(t, l.Contains("a"))
	assert.False(t, l.Contains("c"))
}

func TestScheduleEventIsLegacy(t *testing.T) {
	assert.True(t, (&ScheduleEvent{}).IsLegacy())
	assert.False(t, (&ScheduleEvent{ShotID: "shot-1"}).IsLegacy())
}
