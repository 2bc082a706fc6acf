package services

import (
	"testing"
	"time"

	"github.com/yukikurage/taskflow-api/internal/mailer"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/reports"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"github.com/yukikurage/taskflow-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 18, 15, 30, 0, 0, time.UTC)

type testEnv struct {
	db         *gorm.DB
	mail       *mailer.Recorder
	changeLogs *ChangeLogService
	notifier   *NotificationService
	users      *UserService
	teams      *TeamService
	tasks      *TaskService
	comments   *CommentService
	reports    *ReportService
	automation *AutomationService
	imports    *BulkImportService
	auth       *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	log := zap.NewNop()
	mail := &mailer.Recorder{}

	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	changeLogs := NewChangeLogService(repository.NewChangeLogRepository(db), log)
	notifier := NewNotificationService(repository.NewNotificationRepository(db), log)
	users := NewUserService(userRepo, teamRepo, mail, changeLogs, log, "http://localhost:3000")
	tasks := NewTaskService(taskRepo, userRepo, teamRepo, nil, notifier, changeLogs)
	generator := reports.NewGenerator().WithClock(func() time.Time { return fixedNow })

	reportService := NewReportService(tasks, users, generator, reports.NewMemoryGuard(), changeLogs, log)
	reportService.now = func() time.Time { return fixedNow }
	automation := NewAutomationService(tasks, userRepo, generator, mail, notifier, changeLogs, log, "http://localhost:3000")
	automation.now = func() time.Time { return fixedNow }

	return &testEnv{
		db:         db,
		mail:       mail,
		changeLogs: changeLogs,
		notifier:   notifier,
		users:      users,
		teams:      NewTeamService(teamRepo, userRepo, changeLogs, notifier),
		tasks:      tasks,
		comments:   NewCommentService(repository.NewCommentRepository(db), tasks, notifier, changeLogs),
		reports:    reportService,
		automation: automation,
		imports:    NewBulkImportService(users, teamRepo, changeLogs),
		auth:       NewAuthService(userRepo, changeLogs),
	}
}

func actorOf(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, IP: "127.0.0.1"}
}

func taskTitles(tasks []models.Task) []string {
	titles := make([]string, len(tasks))
	for i, t := range tasks {
		titles[i] = t.Title
	}
	return titles
}

func (e *testEnv) changeLogCount(eventType string) int64 {
	var n int64
	e.db.Model(&models.ChangeLog{}).Where("event_type = ?", eventType).Count(&n)
	return n
}

func (e *testEnv) notificationsFor(userID uint64) []models.Notification {
	var list []models.Notification
	e.db.Where("user_id = ?", userID).Order("id ASC").Find(&list)
	return list
}
