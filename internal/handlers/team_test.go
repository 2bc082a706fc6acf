package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow-api/internal/dto"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/testutil"
)

func TestTeamHandler_CreateRejectsReservedName(t *testing.T) {
	env := setupTestEnv(t)
	hr := testutil.CreateUser(t, env.db, "Hana HR", "hr@example.com", models.RoleHR, nil)

	for _, name := range []string{"admin", "Admin", " ADMIN "} {
		w := env.request(t, http.MethodPost, "/api/teams", map[string]string{"name": name}, hr)
		body := requireError(t, w, http.StatusBadRequest, apierrors.ErrCodeValidationFailed)
		require.Len(t, body.Details, 1, name)
		require.Equal(t, "notreserved", body.Details[0].Rule)
	}

	w := env.request(t, http.MethodPost, "/api/teams", map[string]string{"name": "Administrators"}, hr)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var team dto.TeamDTO
	decode(t, w, &team)
	require.Equal(t, "Administrators", team.Name)
}

func TestTeamHandler_CreateRequiresManager(t *testing.T) {
	env := setupTestEnv(t)
	member := testutil.CreateUser(t, env.db, "Mia Member", "member@example.com", models.RoleMember, nil)

	w := env.request(t, http.MethodPost, "/api/teams", map[string]string{"name": "Platform"}, member)
	requireError(t, w, http.StatusForbidden, apierrors.ErrCodeForbidden)
}

func TestTeamHandler_DuplicateName(t *testing.T) {
	env := setupTestEnv(t)
	hr := testutil.CreateUser(t, env.db, "Hana HR", "hr@example.com", models.RoleHR, nil)
	testutil.CreateTeam(t, env.db, "Platform")

	w := env.request(t, http.MethodPost, "/api/teams", map[string]string{"name": "platform"}, hr)
	requireError(t, w, http.StatusConflict, apierrors.ErrCodeConflict)
}

func TestTeamHandler_GetTeamAccess(t *testing.T) {
	env := setupTestEnv(t)
	platform := testutil.CreateTeam(t, env.db, "Platform")
	mobile := testutil.CreateTeam(t, env.db, "Mobile")
	member := testutil.CreateUser(t, env.db, "Mia Member", "member@example.com", models.RoleMember, &platform.ID)
	testutil.CreateUser(t, env.db, "Oscar Other", "other@example.com", models.RoleMember, &mobile.ID)

	w := env.request(t, http.MethodGet, "/api/teams/"+itoa(platform.ID), nil, member)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var team dto.TeamDTO
	decode(t, w, &team)
	require.Len(t, team.Members, 1)
	require.Equal(t, member.ID, team.Members[0].ID)

	w = env.request(t, http.MethodGet, "/api/teams/"+itoa(mobile.ID), nil, member)
	requireError(t, w, http.StatusForbidden, apierrors.ErrCodeForbidden)

	w = env.request(t, http.MethodGet, "/api/teams/99999", nil, member)
	requireError(t, w, http.StatusNotFound, apierrors.ErrCodeNotFound)
}

func TestTeamHandler_LeadManagesMembers(t *testing.T) {
	env := setupTestEnv(t)
	hr := testutil.CreateUser(t, env.db, "Hana HR", "hr@example.com", models.RoleHR, nil)
	lead := testutil.CreateUser(t, env.db, "Lee Lead", "lead@example.com", models.RoleTeamLead, nil)
	member := testutil.CreateUser(t, env.db, "Mia Member", "member@example.com", models.RoleMember, nil)
	admin := testutil.CreateUser(t, env.db, "Ada Admin", "admin@example.com", models.RoleAdmin, nil)

	w := env.request(t, http.MethodPost, "/api/teams", map[string]interface{}{
		"name":    "Platform",
		"lead_id": lead.ID,
	}, hr)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var team dto.TeamDTO
	decode(t, w, &team)
	require.NotNil(t, team.Lead)
	require.Len(t, team.Members, 1, "the lead joins the team they lead")

	membersPath := "/api/teams/" + itoa(team.ID) + "/members"
	w = env.request(t, http.MethodPost, membersPath, map[string]uint64{"user_id": member.ID}, lead)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &team)
	require.Len(t, team.Members, 2)

	w = env.request(t, http.MethodPost, membersPath, map[string]uint64{"user_id": admin.ID}, lead)
	requireError(t, w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput)

	w = env.request(t, http.MethodPost, membersPath, map[string]uint64{"user_id": hr.ID}, member)
	requireError(t, w, http.StatusForbidden, apierrors.ErrCodeForbidden)

	w = env.request(t, http.MethodDelete, membersPath+"/"+itoa(member.ID), nil, lead)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &team)
	require.Len(t, team.Members, 1)
}

func TestTeamHandler_ListAndDelete(t *testing.T) {
	env := setupTestEnv(t)
	hr := testutil.CreateUser(t, env.db, "Hana HR", "hr@example.com", models.RoleHR, nil)
	member := testutil.CreateUser(t, env.db, "Mia Member", "member@example.com", models.RoleMember, nil)
	platform := testutil.CreateTeam(t, env.db, "Platform")
	testutil.CreateTeam(t, env.db, "Mobile")

	w := env.request(t, http.MethodGet, "/api/teams", nil, member)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Teams []dto.TeamDTO `json:"teams"`
	}
	decode(t, w, &response)
	require.Len(t, response.Teams, 2)
	require.Equal(t, "Mobile", response.Teams[0].Name)

	w = env.request(t, http.MethodPatch, "/api/teams/"+itoa(platform.ID), map[string]interface{}{
		"is_pinned": true,
	}, hr)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.request(t, http.MethodGet, "/api/teams", nil, member)
	decode(t, w, &response)
	require.Equal(t, "Platform", response.Teams[0].Name)

	w = env.request(t, http.MethodDelete, "/api/teams/"+itoa(platform.ID), nil, hr)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, "/api/teams", nil, member)
	decode(t, w, &response)
	require.Len(t, response.Teams, 1)
}
