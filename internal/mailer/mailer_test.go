package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCredentialsMessage(t *testing.T) {
	msg, err := CredentialsMessage(Credentials{
		Name:     "Alice <Admin>",
		Email:    "alice@example.com",
		Password: "s3cret!Pass",
		Role:     "member",
		LoginURL: "http://localhost:3000",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"alice@example.com"}, msg.To)
	assert.Equal(t, SubjectCredentials, msg.Subject)
	assert.Contains(t, msg.Text, "Password: s3cret!Pass")
	assert.Contains(t, msg.Text, "Please login at: http://localhost:3000")
	assert.Contains(t, msg.HTML, "Alice &lt;Admin&gt;")
	assert.Contains(t, msg.HTML, `href="http://localhost:3000"`)
}

func TestPasswordResetMessage(t *testing.T) {
	msg, err := PasswordResetMessage(Credentials{Name: "Bob", Email: "bob@example.com", Password: "N3wPass#"})
	require.NoError(t, err)

	assert.Equal(t, SubjectPasswordReset, msg.Subject)
	assert.Contains(t, msg.Text, "New Password: N3wPass#")
}

func TestOverdueReminderMessage(t *testing.T) {
	msg, err := OverdueReminderMessage(OverdueReminder{
		Name:  "Carol",
		Email: "carol@example.com",
		Tasks: []OverdueItem{
			{Title: "Fix login", Priority: "HIGH", DueDate: "2026-03-10", DaysOverdue: 8},
			{Title: "Write docs", Priority: "LOW", DueDate: "2026-03-15", DaysOverdue: 3},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, msg.Text, "- Fix login (HIGH), due 2026-03-10, 8 day(s) overdue")
	assert.Contains(t, msg.HTML, "2 task(s)")
}

func TestWeeklyReportMessage(t *testing.T) {
	report := Attachment{Filename: "TaskFlow_Weekly_Report_2026-03-18.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3")}
	msg, err := WeeklyReportMessage("hr@example.com",
		WeeklySummary{Period: "Mar 11, 2026 - Mar 18, 2026", TotalTasks: 10, CompletionRate: 40}, report)
	require.NoError(t, err)

	assert.Equal(t, []string{"hr@example.com"}, msg.To)
	assert.Equal(t, SubjectWeeklyReport+" - Mar 11, 2026 - Mar 18, 2026", msg.Subject)
	assert.Contains(t, msg.Text, "Completion Rate: 40%")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, report.Filename, msg.Attachments[0].Filename)
}

func TestSMTPMailer_BuildsMultipartMessage(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 2525, Username: "noreply@example.com"}, zap.NewNop())

	gm := m.build(Message{
		To:          []string{"a@example.com"},
		Subject:     "Hello",
		HTML:        "<p>Hi</p>",
		Text:        "Hi",
		Attachments: []Attachment{{Filename: "r.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}},
	})

	assert.Equal(t, []string{"a@example.com"}, gm.GetHeader("To"))
	assert.Equal(t, []string{"Hello"}, gm.GetHeader("Subject"))
	assert.Equal(t, []string{`"TaskFlow" <noreply@example.com>`}, gm.GetHeader("From"))
}

func TestSMTPMailer_RejectsEmptyRecipients(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 2525}, zap.NewNop())
	assert.Error(t, m.Send(context.Background(), Message{Subject: "nobody"}))
}

func TestSMTPMailer_CancelledContext(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 2525}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Send(ctx, Message{To: []string{"a@example.com"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Send(context.Background(), Message{Subject: "one"}))

	r.Err = errors.New("relay down")
	assert.Error(t, r.Send(context.Background(), Message{Subject: "two"}))

	msgs := r.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "one", msgs[0].Subject)
}

func TestLogMailer(t *testing.T) {
	assert.NoError(t, NewLogMailer(zap.NewNop()).Send(context.Background(), Message{To: []string{"x@example.com"}}))
}
