// Package app wires configuration, storage and services together for the
// server and the admin CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/taskflow-api/internal/config"
	"github.com/yukikurage/taskflow-api/internal/database"
	"github.com/yukikurage/taskflow-api/internal/handlers"
	"github.com/yukikurage/taskflow-api/internal/logger"
	"github.com/yukikurage/taskflow-api/internal/mailer"
	"github.com/yukikurage/taskflow-api/internal/reports"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"github.com/yukikurage/taskflow-api/internal/scheduler"
	"github.com/yukikurage/taskflow-api/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// reportGuardTTL bounds how long a crashed generation can block its key.
const reportGuardTTL = 5 * time.Minute

// App holds the long-lived dependencies of the process.
type App struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *gorm.DB
	Redis  *redis.Client

	Services   handlers.Services
	Automation *services.AutomationService
}

// New connects to the database, runs migrations and builds every service.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		FilePath:    cfg.LogFile,
		Development: cfg.GinMode == "debug",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	if err := database.Connect(cfg, log); err != nil {
		return nil, err
	}
	if err := database.Migrate(log); err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Log: log, DB: database.GetDB()}

	var guard reports.Guard
	switch cfg.ReportGuard {
	case "redis":
		client, err := a.redisClient()
		if err != nil {
			return nil, err
		}
		guard = reports.NewRedisGuard(client, reportGuardTTL, a.Log)
	default:
		guard = reports.NewMemoryGuard()
	}

	a.build(a.newMailer(), guard)
	return a, nil
}

// redisClient lazily opens the shared Redis connection.
func (a *App) redisClient() (*redis.Client, error) {
	if a.Redis != nil {
		return a.Redis, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     a.Config.RedisAddr(),
		Password: a.Config.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", a.Config.RedisAddr(), err)
	}

	a.Redis = client
	return client, nil
}

func (a *App) newMailer() mailer.Mailer {
	if !a.Config.MailEnabled() {
		a.Log.Warn("SMTP is not configured, emails will only be logged")
		return mailer.NewLogMailer(a.Log)
	}
	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     a.Config.EmailHost,
		Port:     a.Config.EmailPort,
		Secure:   a.Config.EmailSecure,
		Username: a.Config.EmailUser,
		Password: a.Config.EmailPassword,
		From:     a.Config.EmailFrom,
	}, a.Log)
}

func (a *App) build(mail mailer.Mailer, guard reports.Guard) {
	cfg := a.Config
	db := a.DB

	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	changeLogs := services.NewChangeLogService(repository.NewChangeLogRepository(db), a.Log)
	notifier := services.NewNotificationService(repository.NewNotificationRepository(db), a.Log)
	users := services.NewUserService(userRepo, teamRepo, mail, changeLogs, a.Log, cfg.ClientURL)
	tasks := services.NewTaskService(taskRepo, userRepo, teamRepo, aiService, notifier, changeLogs)
	generator := reports.NewGenerator()

	a.Services = handlers.Services{
		DB:            db,
		Auth:          services.NewAuthService(userRepo, changeLogs),
		Tokens:        services.NewTokenService(cfg.JWTSecret, cfg.JWTTTL),
		Users:         users,
		Imports:       services.NewBulkImportService(users, teamRepo, changeLogs),
		Teams:         services.NewTeamService(teamRepo, userRepo, changeLogs, notifier),
		Tasks:         tasks,
		Comments:      services.NewCommentService(repository.NewCommentRepository(db), tasks, notifier, changeLogs),
		Notifications: notifier,
		ChangeLogs:    changeLogs,
		Reports:       services.NewReportService(tasks, users, generator, guard, changeLogs, a.Log),
	}
	a.Automation = services.NewAutomationService(tasks, userRepo, generator, mail, notifier, changeLogs, a.Log, cfg.ClientURL)
}

// Scheduler returns the periodic automation jobs configured for the server.
func (a *App) Scheduler() *scheduler.Scheduler {
	return scheduler.New(a.Log,
		scheduler.Job{
			Name:     "overdue-reminders",
			Interval: a.Config.SchedulerReminderInterval,
			Run: func(ctx context.Context) error {
				result, err := a.Automation.RunOverdueReminders(ctx)
				if err != nil {
					return err
				}
				a.Log.Info("Overdue reminders sent",
					zap.Int("overdue_tasks", result.OverdueTasks),
					zap.Int("emails_sent", result.EmailsSent))
				return nil
			},
		},
		scheduler.Job{
			Name:     "weekly-report",
			Interval: a.Config.SchedulerWeeklyInterval,
			Run: func(ctx context.Context) error {
				_, err := a.Automation.RunWeeklyReports(ctx)
				return err
			},
		},
	)
}

// Close releases connections and flushes the logger.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.Log.Warn("Failed to close database", zap.Error(err))
		}
	}
	_ = a.Log.Sync()
}
