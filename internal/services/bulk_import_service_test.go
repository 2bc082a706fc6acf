package services

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/testutil"
)

func importWorkbook(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	header := []interface{}{"Full Name", "Email", "Role", "Team", "Password"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	for i, row := range rows {
		row := row
		require.NoError(t, f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", i+2), &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestBulkImportService_Template(t *testing.T) {
	env := newTestEnv(t)

	data, err := env.imports.Template()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Users"}, f.GetSheetList())
	rows, err := f.GetRows("Users")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, importHeaders, rows[0])
}

func TestBulkImportService_Import(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "Ada Admin", "admin@example.com", models.RoleAdmin, nil)
	team := testutil.CreateTeam(t, env.db, "Platform")

	upload := importWorkbook(t, [][]interface{}{
		{"Jane Doe", "jane@example.com", "member", "platform", ""},
		{"Lee Lead", "lee@example.com", "Team_Lead", "Platform", "leadpass1"},
		{"", "", "", "", ""},
		{"Dup Admin", "ADMIN@example.com", "member", "", ""},
		{"No Team", "noteam@example.com", "member", "Ghost", ""},
		{"Bad Role", "badrole@example.com", "owner", "", ""},
	})

	result, err := env.imports.Import(context.Background(), actorOf(admin), upload)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 3, result.Failed)

	require.Len(t, result.Rows, 5)
	assert.True(t, result.Rows[0].Created)
	assert.True(t, result.Rows[0].EmailSent)
	assert.Equal(t, 2, result.Rows[0].Row)
	assert.Equal(t, 5, result.Rows[2].Row, "blank rows are skipped but keep sheet numbering")
	assert.Contains(t, result.Rows[2].Error, ErrEmailTaken.Error())
	assert.Contains(t, result.Rows[3].Error, "Ghost")
	assert.Contains(t, result.Rows[4].Error, ErrInvalidRole.Error())

	lead, err := env.users.GetUser(result.Rows[1].UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeamLead, lead.Role)
	require.NotNil(t, lead.TeamID)
	assert.Equal(t, team.ID, *lead.TeamID)

	assert.Len(t, env.mail.Messages(), 2)
	assert.EqualValues(t, 1, env.changeLogCount(models.EventBulkImport))
}

func TestBulkImportService_RejectsBadUploads(t *testing.T) {
	env := newTestEnv(t)
	admin := actorOf(testutil.CreateUser(t, env.db, "Ada Admin", "admin@example.com", models.RoleAdmin, nil))
	ctx := context.Background()

	_, err := env.imports.Import(ctx, admin, bytes.NewReader([]byte("name,email\n")))
	assert.ErrorIs(t, err, ErrImportFormat)

	_, err = env.imports.Import(ctx, admin, importWorkbook(t, nil))
	assert.ErrorIs(t, err, ErrImportEmpty)

	rows := make([][]interface{}, 501)
	for i := range rows {
		rows[i] = []interface{}{"User", fmt.Sprintf("user%d@example.com", i), "member", "", ""}
	}
	_, err = env.imports.Import(ctx, admin, importWorkbook(t, rows))
	assert.ErrorIs(t, err, ErrImportTooLarge)
}
