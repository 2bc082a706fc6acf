package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yukikurage/taskflow-api/internal/analytics"
	"github.com/yukikurage/taskflow-api/internal/mailer"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/reports"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"go.uber.org/zap"
)

// AutomationService runs the periodic jobs: overdue reminders and the weekly
// report email.
type AutomationService struct {
	tasks      *TaskService
	userRepo   repository.UserRepository
	generator  *reports.Generator
	mail       mailer.Mailer
	notifier   *NotificationService
	changeLogs *ChangeLogService
	log        *zap.Logger
	clientURL  string
	now        func() time.Time
}

func NewAutomationService(
	tasks *TaskService,
	userRepo repository.UserRepository,
	generator *reports.Generator,
	mail mailer.Mailer,
	notifier *NotificationService,
	changeLogs *ChangeLogService,
	log *zap.Logger,
	clientURL string,
) *AutomationService {
	return &AutomationService{
		tasks:      tasks,
		userRepo:   userRepo,
		generator:  generator,
		mail:       mail,
		notifier:   notifier,
		changeLogs: changeLogs,
		log:        log,
		clientURL:  clientURL,
		now:        time.Now,
	}
}

// ReminderResult summarizes one reminder run.
type ReminderResult struct {
	OverdueTasks  int `json:"overdue_tasks"`
	UsersNotified int `json:"users_notified"`
	EmailsSent    int `json:"emails_sent"`
}

type overdueDigest struct {
	user  models.User
	items []mailer.OverdueItem
}

// RunOverdueReminders notifies and emails every assignee of an overdue task.
// Each user receives one email listing all of their overdue tasks.
func (s *AutomationService) RunOverdueReminders(ctx context.Context) (*ReminderResult, error) {
	now := s.now()
	tasks, err := s.tasks.OverdueTasks(now)
	if err != nil {
		return nil, err
	}

	digests := make(map[uint64]*overdueDigest)
	for _, task := range tasks {
		days := analytics.DaysOverdue(task.DueDate, now)
		for _, a := range task.Assignments {
			if a.User.ID == 0 {
				continue
			}
			d, ok := digests[a.UserID]
			if !ok {
				d = &overdueDigest{user: a.User}
				digests[a.UserID] = d
			}
			d.items = append(d.items, mailer.OverdueItem{
				Title:       task.Title,
				Priority:    task.Priority.Label(),
				DueDate:     task.DueDate.Format("2006-01-02"),
				DaysOverdue: days,
			})

			taskID := task.ID
			s.notifier.Notify([]uint64{a.UserID}, 0, models.NotificationTaskOverdue,
				fmt.Sprintf("Task is overdue by %d day(s): %s", days, task.Title), &taskID)
		}
	}

	userIDs := make([]uint64, 0, len(digests))
	for id := range digests {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	result := &ReminderResult{OverdueTasks: len(tasks), UsersNotified: len(digests)}
	for _, id := range userIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		d := digests[id]
		msg, err := mailer.OverdueReminderMessage(mailer.OverdueReminder{
			Name:     d.user.FullName,
			Email:    d.user.Email,
			Tasks:    d.items,
			LoginURL: s.clientURL,
		})
		if err != nil {
			s.log.Error("Failed to render overdue reminder", zap.Uint64("user_id", id), zap.Error(err))
			continue
		}
		if err := s.mail.Send(ctx, msg); err != nil {
			s.log.Warn("Failed to send overdue reminder", zap.Uint64("user_id", id), zap.Error(err))
			continue
		}
		result.EmailsSent++
	}

	s.log.Info("Overdue reminders finished",
		zap.Int("overdue_tasks", result.OverdueTasks),
		zap.Int("users_notified", result.UsersNotified),
		zap.Int("emails_sent", result.EmailsSent))
	s.changeLogs.Record(SystemActor(), Entry{
		EventType:   models.EventAutomationRun,
		TargetType:  models.TargetSystem,
		Description: "Sent overdue task reminders",
		Details: map[string]interface{}{
			"job":            "overdue_reminders",
			"overdue_tasks":  result.OverdueTasks,
			"users_notified": result.UsersNotified,
			"emails_sent":    result.EmailsSent,
		},
	})
	return result, nil
}

// WeeklyReportResult summarizes one weekly report run.
type WeeklyReportResult struct {
	Filename   string `json:"filename"`
	Recipients int    `json:"recipients"`
	TotalTasks int    `json:"total_tasks"`
	EmailsSent int    `json:"emails_sent"`
	Sent       bool   `json:"sent"`
}

// RunWeeklyReports renders the weekly PDF over every task and emails it to
// all admin and HR users.
func (s *AutomationService) RunWeeklyReports(ctx context.Context) (*WeeklyReportResult, error) {
	recipients, err := s.userRepo.ListByRoles(models.RoleAdmin, models.RoleHR)
	if err != nil {
		return nil, fmt.Errorf("failed to list report recipients: %w", err)
	}

	tasks, err := s.tasks.VisibleTasks(SystemActor())
	if err != nil {
		return nil, err
	}

	report, err := s.generator.Generate(tasks, reports.Request{
		Format:      reports.FormatPDF,
		Period:      analytics.PeriodWeekly,
		GeneratedBy: "TaskFlow Automation",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportFailed, err)
	}

	result := &WeeklyReportResult{
		Filename:   report.Filename,
		Recipients: len(recipients),
		TotalTasks: report.Snapshot.TotalTasks,
	}
	if len(recipients) == 0 {
		s.log.Info("Weekly report skipped, no admin or HR recipients")
		return result, nil
	}

	snap := report.Snapshot
	summary := mailer.WeeklySummary{
		Period:          analytics.PeriodWeekly.Describe(snap.GeneratedAt),
		TotalTasks:      snap.TotalTasks,
		CompletedTasks:  snap.CompletedTasks,
		InProgressTasks: snap.InProgressTasks,
		OverdueTasks:    snap.OverdueTasks,
		CompletionRate:  snap.CompletionRate,
	}
	attachment := mailer.Attachment{
		Filename:    report.Filename,
		ContentType: report.ContentType,
		Data:        report.Data,
	}

	// One message per recipient keeps the address list private.
	ids := make([]uint64, 0, len(recipients))
	var lastErr error
	for _, u := range recipients {
		msg, err := mailer.WeeklyReportMessage(u.Email, summary, attachment)
		if err != nil {
			return nil, fmt.Errorf("failed to render weekly report email: %w", err)
		}
		if err := s.mail.Send(ctx, msg); err != nil {
			lastErr = err
			s.log.Warn("Failed to send weekly report",
				zap.Uint64("user_id", u.ID),
				zap.Error(err))
			continue
		}
		ids = append(ids, u.ID)
	}
	result.EmailsSent = len(ids)
	if len(ids) == 0 {
		return result, fmt.Errorf("failed to send weekly report: %w", lastErr)
	}
	result.Sent = true

	s.notifier.Notify(ids, 0, models.NotificationWeeklyReport,
		fmt.Sprintf("Weekly report sent: %d tasks, %d%% complete", snap.TotalTasks, snap.CompletionRate), nil)
	s.changeLogs.Record(SystemActor(), Entry{
		EventType:   models.EventAutomationRun,
		TargetType:  models.TargetReport,
		Description: fmt.Sprintf("Emailed weekly report %s", report.Filename),
		Details: map[string]interface{}{
			"job":         "weekly_report",
			"recipients":  len(ids),
			"total_tasks": snap.TotalTasks,
		},
	})
	s.log.Info("Weekly report sent",
		zap.String("filename", report.Filename),
		zap.Int("recipients", len(ids)))
	return result, nil
}
