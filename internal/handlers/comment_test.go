package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow-api/internal/dto"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/testutil"
)

func TestCommentHandler_AddAndList(t *testing.T) {
	env := setupTestEnv(t)
	team := testutil.CreateTeam(t, env.db, "Platform")
	admin := testutil.CreateUser(t, env.db, "Ada Admin", "admin@example.com", models.RoleAdmin, nil)
	member := testutil.CreateUser(t, env.db, "Mia Member", "member@example.com", models.RoleMember, &team.ID)
	outsider := testutil.CreateUser(t, env.db, "Oscar Other", "other@example.com", models.RoleMember, nil)
	task := testutil.CreateTask(t, env.db, "Fix login bug", admin.ID, []uint64{member.ID}, testutil.WithTeam(team.ID))

	path := "/api/comments/" + itoa(task.ID) + "/comments"

	w := env.request(t, http.MethodPost, path, map[string]string{"body": "  On it  "}, member)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var comment dto.CommentDTO
	decode(t, w, &comment)
	require.Equal(t, "On it", comment.Body)
	require.Equal(t, member.ID, comment.Author.ID)

	w = env.request(t, http.MethodGet, path, nil, admin)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Comments []dto.CommentDTO `json:"comments"`
	}
	decode(t, w, &response)
	require.Len(t, response.Comments, 1)
	require.Equal(t, "Mia Member", response.Comments[0].Author.FullName)

	w = env.request(t, http.MethodGet, path, nil, outsider)
	requireError(t, w, http.StatusNotFound, apierrors.ErrCodeNotFound)

	w = env.request(t, http.MethodPost, path, map[string]string{"body": "   "}, member)
	requireError(t, w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput)

	w = env.request(t, http.MethodPost, path, map[string]string{"body": strings.Repeat("x", 5001)}, member)
	requireError(t, w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput)
}

func TestNotificationHandler_ListAndMarkRead(t *testing.T) {
	env := setupTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "Ada Admin", "admin@example.com", models.RoleAdmin, nil)
	member := testutil.CreateUser(t, env.db, "Mia Member", "member@example.com", models.RoleMember, nil)

	for _, title := range []string{"First", "Second"} {
		w := env.request(t, http.MethodPost, "/api/tasks", map[string]interface{}{
			"title":        title,
			"assignee_ids": []uint64{member.ID},
		}, admin)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	type listResponse struct {
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   int64                 `json:"unreadCount"`
	}

	w := env.request(t, http.MethodGet, "/api/notifications", nil, member)
	require.Equal(t, http.StatusOK, w.Code)
	var list listResponse
	decode(t, w, &list)
	require.Len(t, list.Notifications, 2)
	require.EqualValues(t, 2, list.UnreadCount)

	w = env.request(t, http.MethodPatch, "/api/notifications/mark-read", map[string]interface{}{
		"ids": []uint64{list.Notifications[0].ID},
	}, member)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.request(t, http.MethodGet, "/api/notifications", nil, member)
	decode(t, w, &list)
	require.EqualValues(t, 1, list.UnreadCount)

	w = env.request(t, http.MethodPatch, "/api/notifications/mark-read", nil, member)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.request(t, http.MethodGet, "/api/notifications", nil, member)
	decode(t, w, &list)
	require.EqualValues(t, 0, list.UnreadCount)

	// Notifications are private to their recipient.
	w = env.request(t, http.MethodGet, "/api/notifications", nil, admin)
	decode(t, w, &list)
	require.Empty(t, list.Notifications)
}
