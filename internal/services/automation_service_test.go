package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow-api/internal/mailer"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/testutil"
)

func TestAutomationService_RunOverdueReminders(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "Ada Admin", "admin@example.com", models.RoleAdmin, nil)
	lead := testutil.CreateUser(t, env.db, "Leo Lead", "lead@example.com", models.RoleTeamLead, nil)
	member := testutil.CreateUser(t, env.db, "Mia Member", "member@example.com", models.RoleMember, nil)

	testutil.CreateTask(t, env.db, "Late A", admin.ID, []uint64{member.ID, lead.ID}, testutil.WithDue(fixedNow.Add(-48*time.Hour)))
	testutil.CreateTask(t, env.db, "Late B", admin.ID, []uint64{member.ID}, testutil.WithDue(fixedNow.Add(-24*time.Hour)), testutil.WithPriority(models.TaskPriorityUrgent))
	testutil.CreateTask(t, env.db, "Done late", admin.ID, []uint64{member.ID}, testutil.WithDue(fixedNow.Add(-48*time.Hour)), testutil.WithStatus(models.TaskStatusDone))
	testutil.CreateTask(t, env.db, "Future", admin.ID, []uint64{member.ID}, testutil.WithDue(fixedNow.Add(24*time.Hour)))

	result, err := env.automation.RunOverdueReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &ReminderResult{OverdueTasks: 2, UsersNotified: 2, EmailsSent: 2}, result)

	var memberMail *mailer.Message
	for _, m := range env.mail.Messages() {
		assert.Equal(t, mailer.SubjectOverdue, m.Subject)
		if m.To[0] == member.Email {
			m := m
			memberMail = &m
		}
	}
	require.NotNil(t, memberMail)
	assert.Contains(t, memberMail.Text, "Late A")
	assert.Contains(t, memberMail.Text, "Late B (URGENT)")
	assert.NotContains(t, memberMail.Text, "Done late")
	assert.NotContains(t, memberMail.Text, "Future")

	assert.Len(t, env.notificationsFor(member.ID), 2)
	assert.Len(t, env.notificationsFor(lead.ID), 1)
	assert.Equal(t, models.NotificationTaskOverdue, env.notificationsFor(lead.ID)[0].Type)
	assert.EqualValues(t, 1, env.changeLogCount(models.EventAutomationRun))
}

func TestAutomationService_RunOverdueReminders_MailFailure(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "Ada Admin", "admin@example.com", models.RoleAdmin, nil)
	member := testutil.CreateUser(t, env.db, "Mia Member", "member@example.com", models.RoleMember, nil)
	testutil.CreateTask(t, env.db, "Late", admin.ID, []uint64{member.ID}, testutil.WithDue(fixedNow.Add(-time.Hour)))
	env.mail.Err = errors.New("smtp down")

	result, err := env.automation.RunOverdueReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.UsersNotified)
	assert.Equal(t, 0, result.EmailsSent)
	assert.Len(t, env.notificationsFor(member.ID), 1)
}

func TestAutomationService_RunWeeklyReports(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "Ada Admin", "admin@example.com", models.RoleAdmin, nil)
	hr := testutil.CreateUser(t, env.db, "Hana HR", "hr@example.com", models.RoleHR, nil)
	member := testutil.CreateUser(t, env.db, "Mia Member", "member@example.com", models.RoleMember, nil)

	testutil.CreateTask(t, env.db, "This week", admin.ID, []uint64{member.ID},
		testutil.WithCreatedAt(fixedNow.Add(-2*time.Hour)), testutil.WithStatus(models.TaskStatusDone))
	testutil.CreateTask(t, env.db, "Last month", admin.ID, []uint64{member.ID},
		testutil.WithCreatedAt(fixedNow.AddDate(0, -1, 0)))

	result, err := env.automation.RunWeeklyReports(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Sent)
	assert.Equal(t, 2, result.Recipients)
	assert.Equal(t, 1, result.TotalTasks)
	assert.Equal(t, "TaskFlow_Weekly_Report_2026-03-18.pdf", result.Filename)

	assert.Equal(t, 2, result.EmailsSent)

	msgs := env.mail.Messages()
	require.Len(t, msgs, 2)
	var to []string
	for _, msg := range msgs {
		require.Len(t, msg.To, 1)
		to = append(to, msg.To[0])
		assert.True(t, strings.HasPrefix(msg.Subject, mailer.SubjectWeeklyReport))
		assert.Contains(t, msg.Text, "Completion Rate: 100%")
		require.Len(t, msg.Attachments, 1)
		assert.Equal(t, result.Filename, msg.Attachments[0].Filename)
		assert.True(t, bytes.HasPrefix(msg.Attachments[0].Data, []byte("%PDF")))
	}
	assert.ElementsMatch(t, []string{admin.Email, hr.Email}, to)

	assert.Len(t, env.notificationsFor(admin.ID), 1)
	assert.Len(t, env.notificationsFor(hr.ID), 1)
	assert.Empty(t, env.notificationsFor(member.ID))
}

func TestAutomationService_RunWeeklyReports_NoRecipients(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.automation.RunWeeklyReports(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Sent)
	assert.Empty(t, env.mail.Messages())
}

func TestAutomationService_RunWeeklyReports_SendFailure(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "Ada Admin", "admin@example.com", models.RoleAdmin, nil)
	env.mail.Err = errors.New("smtp unavailable")

	result, err := env.automation.RunWeeklyReports(context.Background())
	require.Error(t, err)
	assert.False(t, result.Sent)
	assert.Zero(t, result.EmailsSent)
	assert.Empty(t, env.notificationsFor(admin.ID))
}
