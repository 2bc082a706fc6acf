package mailer

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

const (
	SubjectCredentials   = "🎉 Welcome to TaskFlow - Your Account Credentials"
	SubjectPasswordReset = "🔑 TaskFlow - Password Reset"
	SubjectOverdue       = "⏰ TaskFlow - You have overdue tasks"
	SubjectWeeklyReport  = "📊 TaskFlow Weekly Report"
)

const layoutHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{template "title" .}}</title>
</head>
<body style="font-family:'Segoe UI',Tahoma,Geneva,Verdana,sans-serif;line-height:1.6;color:#333;background-color:#f4f4f4;margin:0;padding:0;">
<div style="max-width:600px;margin:40px auto;background:#ffffff;border-radius:10px;overflow:hidden;">
<div style="background:#4F46E5;padding:32px 20px;text-align:center;color:#ffffff;">
<h1 style="margin:0;font-size:26px;">{{template "title" .}}</h1>
</div>
<div style="padding:32px 30px;">
{{template "content" .}}
</div>
<div style="background:#f8f9fa;padding:20px;text-align:center;color:#666;font-size:13px;">
<p><strong>TaskFlow</strong> - Collaborative Task Management System</p>
<p>This is an automated email. Please do not reply to this message.</p>
</div>
</div>
</body>
</html>`

var htmlTemplates = map[string]string{
	"credentials": `{{define "title"}}Welcome to TaskFlow{{end}}
{{define "content"}}
<p>Hi <strong>{{.Name}}</strong>,</p>
<p>Your account has been successfully created. Here are your login credentials:</p>
<table style="width:100%;background:#f3f4ff;border-radius:8px;padding:16px;">
<tr><td><strong>Email:</strong></td><td>{{.Email}}</td></tr>
<tr><td><strong>Password:</strong></td><td><code>{{.Password}}</code></td></tr>
<tr><td><strong>Role:</strong></td><td>{{.Role}}</td></tr>
</table>
<p style="text-align:center;margin:28px 0;"><a href="{{.LoginURL}}" style="background:#4F46E5;color:#ffffff;padding:12px 28px;border-radius:6px;text-decoration:none;">Login to TaskFlow</a></p>
<p>For security, please change your password after your first login.</p>
{{end}}`,
	"reset": `{{define "title"}}Password Reset{{end}}
{{define "content"}}
<p>Hi <strong>{{.Name}}</strong>,</p>
<p>Your password has been reset. Here is your new temporary password:</p>
<table style="width:100%;background:#fff7ed;border-radius:8px;padding:16px;">
<tr><td><strong>Email:</strong></td><td>{{.Email}}</td></tr>
<tr><td><strong>New Password:</strong></td><td><code>{{.Password}}</code></td></tr>
</table>
<p style="text-align:center;margin:28px 0;"><a href="{{.LoginURL}}" style="background:#4F46E5;color:#ffffff;padding:12px 28px;border-radius:6px;text-decoration:none;">Login to TaskFlow</a></p>
<p><strong>Important:</strong> Please change this password immediately after logging in.</p>
{{end}}`,
	"overdue": `{{define "title"}}Overdue Tasks{{end}}
{{define "content"}}
<p>Hi <strong>{{.Name}}</strong>,</p>
<p>The following {{len .Tasks}} task(s) assigned to you are past their due date:</p>
<table style="width:100%;border-collapse:collapse;">
<tr style="background:#4F46E5;color:#ffffff;"><th align="left">Task</th><th>Priority</th><th>Due</th><th>Days Overdue</th></tr>
{{range .Tasks}}<tr style="border-bottom:1px solid #e5e7eb;"><td>{{.Title}}</td><td align="center">{{.Priority}}</td><td align="center">{{.DueDate}}</td><td align="center" style="color:#DC2626;">{{.DaysOverdue}}</td></tr>
{{end}}</table>
<p style="text-align:center;margin:28px 0;"><a href="{{.LoginURL}}" style="background:#4F46E5;color:#ffffff;padding:12px 28px;border-radius:6px;text-decoration:none;">Open TaskFlow</a></p>
{{end}}`,
	"weekly": `{{define "title"}}Weekly Report{{end}}
{{define "content"}}
<p>Hello,</p>
<p>The TaskFlow weekly report for <strong>{{.Period}}</strong> is attached.</p>
<table style="width:100%;background:#f3f4ff;border-radius:8px;padding:16px;">
<tr><td>Total Tasks</td><td align="right">{{.TotalTasks}}</td></tr>
<tr><td>Completed</td><td align="right">{{.CompletedTasks}}</td></tr>
<tr><td>In Progress</td><td align="right">{{.InProgressTasks}}</td></tr>
<tr><td>Overdue</td><td align="right" style="color:#DC2626;">{{.OverdueTasks}}</td></tr>
<tr><td>Completion Rate</td><td align="right">{{.CompletionRate}}%</td></tr>
</table>
{{end}}`,
}

var textTemplates = map[string]string{
	"credentials": `Welcome to TaskFlow!

Hi {{.Name}},

Your account has been successfully created. Here are your login credentials:

Email: {{.Email}}
Password: {{.Password}}
Role: {{.Role}}

Please login at: {{.LoginURL}}

For security, please change your password after your first login.

Best regards,
TaskFlow Team`,
	"reset": `Password Reset

Hi {{.Name}},

Your password has been reset. Here is your new temporary password:

Email: {{.Email}}
New Password: {{.Password}}

Please login at: {{.LoginURL}}

Important: Please change this password immediately after logging in.

Best regards,
TaskFlow Team`,
	"overdue": `Overdue Tasks

Hi {{.Name}},

The following task(s) assigned to you are past their due date:
{{range .Tasks}}
- {{.Title}} ({{.Priority}}), due {{.DueDate}}, {{.DaysOverdue}} day(s) overdue{{end}}

Open TaskFlow: {{.LoginURL}}

TaskFlow Team`,
	"weekly": `TaskFlow Weekly Report

Period: {{.Period}}

Total Tasks: {{.TotalTasks}}
Completed: {{.CompletedTasks}}
In Progress: {{.InProgressTasks}}
Overdue: {{.OverdueTasks}}
Completion Rate: {{.CompletionRate}}%

The full PDF report is attached.

TaskFlow Team`,
}

var (
	htmlSet = map[string]*htmltemplate.Template{}
	textSet = map[string]*texttemplate.Template{}
)

func init() {
	for name, body := range htmlTemplates {
		t := htmltemplate.Must(htmltemplate.New(name).Parse(layoutHTML))
		htmlSet[name] = htmltemplate.Must(t.Parse(body))
	}
	for name, body := range textTemplates {
		textSet[name] = texttemplate.Must(texttemplate.New(name).Parse(body))
	}
}

func render(name string, data interface{}) (html, text string, err error) {
	var hb, tb bytes.Buffer
	if err := htmlSet[name].Execute(&hb, data); err != nil {
		return "", "", err
	}
	if err := textSet[name].Execute(&tb, data); err != nil {
		return "", "", err
	}
	return hb.String(), strings.TrimSpace(tb.String()), nil
}

// Credentials is the data for a new account email.
type Credentials struct {
	Name     string
	Email    string
	Password string
	Role     string
	LoginURL string
}

// CredentialsMessage builds the welcome email carrying a new password.
func CredentialsMessage(c Credentials) (Message, error) {
	html, text, err := render("credentials", c)
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{c.Email}, Subject: SubjectCredentials, HTML: html, Text: text}, nil
}

// PasswordResetMessage builds the email carrying a reset password.
func PasswordResetMessage(c Credentials) (Message, error) {
	html, text, err := render("reset", c)
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{c.Email}, Subject: SubjectPasswordReset, HTML: html, Text: text}, nil
}

// OverdueItem is one row of an overdue reminder.
type OverdueItem struct {
	Title       string
	Priority    string
	DueDate     string
	DaysOverdue int
}

// OverdueReminder is the data for an overdue reminder email.
type OverdueReminder struct {
	Name     string
	Email    string
	Tasks    []OverdueItem
	LoginURL string
}

func OverdueReminderMessage(r OverdueReminder) (Message, error) {
	html, text, err := render("overdue", r)
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{r.Email}, Subject: SubjectOverdue, HTML: html, Text: text}, nil
}

// WeeklySummary is the data for the weekly report email.
type WeeklySummary struct {
	Period          string
	TotalTasks      int
	CompletedTasks  int
	InProgressTasks int
	OverdueTasks    int
	CompletionRate  int
}

// WeeklyReportMessage builds the weekly report email for one recipient with
// report attached.
func WeeklyReportMessage(to string, s WeeklySummary, report Attachment) (Message, error) {
	html, text, err := render("weekly", s)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:          []string{to},
		Subject:     SubjectWeeklyReport + " - " + s.Period,
		HTML:        html,
		Text:        text,
		Attachments: []Attachment{report},
	}, nil
}
