package services

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"github.com/yukikurage/taskflow-api/internal/testutil"
)

func TestChangeLogService_RecordAndExport(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "Ada Admin", "admin@example.com", models.RoleAdmin, nil)
	env.changeLogs.now = func() time.Time { return fixedNow }

	env.changeLogs.Record(actorOf(admin), Entry{
		EventType:   models.EventTeamCreated,
		TargetType:  models.TargetTeam,
		TargetID:    testutil.Uint64(7),
		Description: "Created team Platform",
		Details:     map[string]interface{}{"name": "Platform"},
	})
	env.changeLogs.Record(SystemActor(), Entry{
		EventType:   models.EventAutomationRun,
		TargetType:  models.TargetSystem,
		Description: "Sent overdue task reminders",
	})

	var stored models.ChangeLog
	require.NoError(t, env.db.Where("event_type = ?", models.EventTeamCreated).First(&stored).Error)
	assert.JSONEq(t, `{"name":"Platform"}`, string(stored.Details))
	assert.Equal(t, "127.0.0.1", stored.IPAddress)

	data, filename, err := env.changeLogs.ExportCSV(repository.ChangeLogFilter{})
	require.NoError(t, err)
	assert.Equal(t, "changelog-1773847800000.csv", filename)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, csvHeader, records[0])

	byEvent := map[string][]string{}
	for _, r := range records[1:] {
		byEvent[r[1]] = r
	}
	assert.Equal(t, "7", byEvent[models.EventTeamCreated][3])
	assert.Equal(t, "Ada Admin", byEvent[models.EventTeamCreated][4])
	assert.Equal(t, "admin@example.com", byEvent[models.EventTeamCreated][5])
	assert.Equal(t, "System", byEvent[models.EventAutomationRun][4])
	assert.Equal(t, "", byEvent[models.EventAutomationRun][3])
}

func TestChangeLogService_StatsAndEventTypes(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "Ada Admin", "admin@example.com", models.RoleAdmin, nil)

	for i := 0; i < 3; i++ {
		env.changeLogs.Record(actorOf(admin), Entry{EventType: models.EventUserLogin, TargetType: models.TargetUser})
	}
	env.changeLogs.Record(actorOf(admin), Entry{EventType: "custom_event", TargetType: models.TargetSystem})

	stats, err := env.changeLogs.Stats()
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.Total)
	require.NotEmpty(t, stats.ByEventType)
	assert.Equal(t, models.EventUserLogin, stats.ByEventType[0].EventType)
	assert.EqualValues(t, 3, stats.ByEventType[0].Count)
	require.Len(t, stats.TopUsers, 1)
	assert.EqualValues(t, 4, stats.TopUsers[0].Count)

	types, err := env.changeLogs.EventTypes()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultEventTypes, types[:len(models.DefaultEventTypes)])
	assert.Equal(t, "custom_event", types[len(types)-1])

	page, err := env.changeLogs.List(repository.ChangeLogFilter{EventType: models.EventUserLogin, Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Logs, 2)
}

func TestChangeLogService_Clear(t *testing.T) {
	env := newTestEnv(t)

	old := models.ChangeLog{EventType: models.EventUserLogin, TargetType: models.TargetUser, CreatedAt: time.Now().AddDate(0, 0, -100)}
	recent := models.ChangeLog{EventType: models.EventUserLogin, TargetType: models.TargetUser, CreatedAt: time.Now().AddDate(0, 0, -10)}
	require.NoError(t, env.db.Create(&old).Error)
	require.NoError(t, env.db.Create(&recent).Error)

	_, err := env.changeLogs.Clear(0)
	assert.ErrorIs(t, err, ErrInvalidRetention)

	deleted, err := env.changeLogs.Clear(90)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
	assert.EqualValues(t, 1, env.changeLogCount(models.EventUserLogin))
}

func TestChangeLogService_ClearHugeRetentionKeepsEntries(t *testing.T) {
	env := newTestEnv(t)

	recent := models.ChangeLog{EventType: models.EventUserLogin, TargetType: models.TargetUser, CreatedAt: time.Now().AddDate(0, 0, -10)}
	require.NoError(t, env.db.Create(&recent).Error)

	deleted, err := env.changeLogs.Clear(200000)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.EqualValues(t, 1, env.changeLogCount(models.EventUserLogin))
}
