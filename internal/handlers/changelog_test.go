package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/testutil"
)

func seedChangeLogs(t *testing.T, env *testEnv, actor *models.User) {
	t.Helper()
	now := time.Now()
	entries := []models.ChangeLog{
		{EventType: models.EventUserLogin, TargetType: models.TargetUser, ActorID: &actor.ID, Description: "logged in", CreatedAt: now.Add(-time.Hour)},
		{EventType: models.EventTaskCreated, TargetType: models.TargetTask, ActorID: &actor.ID, Description: "Created task Launch", CreatedAt: now.Add(-2 * time.Hour)},
		{EventType: models.EventTaskCreated, TargetType: models.TargetTask, Description: "Created task Archive", CreatedAt: now.AddDate(0, 0, -120)},
	}
	require.NoError(t, env.db.Create(&entries).Error)
}

func TestChangeLogHandler_AdminOnly(t *testing.T) {
	env := setupTestEnv(t)
	hr := testutil.CreateUser(t, env.db, "Hana HR", "hr@example.com", models.RoleHR, nil)

	for _, path := range []string{"/api/changelog", "/api/changelog/stats", "/api/changelog/export"} {
		w := env.request(t, http.MethodGet, path, nil, hr)
		requireError(t, w, http.StatusForbidden, apierrors.ErrCodeForbidden)
	}
}

func TestChangeLogHandler_List(t *testing.T) {
	env := setupTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "Ada Admin", "admin@example.com", models.RoleAdmin, nil)
	seedChangeLogs(t, env, admin)

	w := env.request(t, http.MethodGet, "/api/changelog?event_type=task_created", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page struct {
		Logs       []models.ChangeLog `json:"logs"`
		Total      int64              `json:"total"`
		TotalPages int                `json:"totalPages"`
		Page       int                `json:"page"`
	}
	decode(t, w, &page)
	require.EqualValues(t, 2, page.Total)
	require.Equal(t, 1, page.TotalPages)
	require.Equal(t, 1, page.Page)
	require.Equal(t, "Created task Launch", page.Logs[0].Description)

	w = env.request(t, http.MethodGet, "/api/changelog?search=archive", nil, admin)
	decode(t, w, &page)
	require.EqualValues(t, 1, page.Total)

	w = env.request(t, http.MethodGet, "/api/changelog?start_date=yesterday", nil, admin)
	requireError(t, w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput)
}

func TestChangeLogHandler_StatsAndEventTypes(t *testing.T) {
	env := setupTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "Ada Admin", "admin@example.com", models.RoleAdmin, nil)
	seedChangeLogs(t, env, admin)

	w := env.request(t, http.MethodGet, "/api/changelog/stats", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stats struct {
		Total       int64 `json:"total"`
		ByEventType []struct {
			EventType string `json:"event_type"`
			Count     int64  `json:"count"`
		} `json:"by_event_type"`
	}
	decode(t, w, &stats)
	require.EqualValues(t, 3, stats.Total)
	require.NotEmpty(t, stats.ByEventType)

	w = env.request(t, http.MethodGet, "/api/changelog/event-types", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)

	var types struct {
		EventTypes []string `json:"event_types"`
	}
	decode(t, w, &types)
	require.Subset(t, types.EventTypes, models.DefaultEventTypes)
}

func TestChangeLogHandler_Export(t *testing.T) {
	env := setupTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "Ada Admin", "admin@example.com", models.RoleAdmin, nil)
	seedChangeLogs(t, env, admin)

	w := env.request(t, http.MethodGet, "/api/changelog/export", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "changelog-")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 4)
	require.True(t, strings.HasPrefix(lines[0], "Timestamp,Event Type"))
}

func TestChangeLogHandler_Clear(t *testing.T) {
	env := setupTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "Ada Admin", "admin@example.com", models.RoleAdmin, nil)
	seedChangeLogs(t, env, admin)

	w := env.request(t, http.MethodDelete, "/api/changelog/clear?days=0", nil, admin)
	requireError(t, w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput)

	w = env.request(t, http.MethodDelete, "/api/changelog/clear", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response struct {
		Deleted int64 `json:"deleted"`
	}
	decode(t, w, &response)
	require.EqualValues(t, 1, response.Deleted)

	var remaining int64
	env.db.Model(&models.ChangeLog{}).Count(&remaining)
	require.EqualValues(t, 2, remaining)
}
