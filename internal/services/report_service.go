package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/taskflow-api/internal/analytics"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/reports"
	"go.uber.org/zap"
)

var ErrReportFailed = errors.New("failed to generate report")

// ReportService turns the tasks visible to a user into analytics snapshots,
// charts and downloadable documents.
type ReportService struct {
	tasks      *TaskService
	users      *UserService
	generator  *reports.Generator
	guard      reports.Guard
	changeLogs *ChangeLogService
	log        *zap.Logger
	now        func() time.Time
}

func NewReportService(
	tasks *TaskService,
	users *UserService,
	generator *reports.Generator,
	guard reports.Guard,
	changeLogs *ChangeLogService,
	log *zap.Logger,
) *ReportService {
	if guard == nil {
		guard = reports.NewMemoryGuard()
	}
	return &ReportService{
		tasks:      tasks,
		users:      users,
		generator:  generator,
		guard:      guard,
		changeLogs: changeLogs,
		log:        log,
		now:        time.Now,
	}
}

// AnalyticsInput selects the window of a snapshot.
type AnalyticsInput struct {
	Period            analytics.Period
	IncludeUnassigned bool
}

// Analytics aggregates the tasks visible to actor within the period.
func (s *ReportService) Analytics(actor Actor, input AnalyticsInput) (*analytics.Snapshot, error) {
	tasks, err := s.tasks.VisibleTasks(actor)
	if err != nil {
		return nil, err
	}

	period := input.Period
	if period == "" {
		period = analytics.PeriodAll
	}
	now := s.now()
	snap := analytics.Aggregate(
		analytics.FilterByPeriod(tasks, period, now),
		now,
		analytics.Options{IncludeUnassigned: input.IncludeUnassigned},
	)
	return &snap, nil
}

// Chart kinds served as PNG.
const (
	ChartStatus   = "status"
	ChartPriority = "priority"
)

var ErrUnknownChart = errors.New("unknown chart")

// Chart renders the status or priority chart of the actor's snapshot.
func (s *ReportService) Chart(actor Actor, kind string, input AnalyticsInput) ([]byte, error) {
	var render func([]analytics.NameValue) ([]byte, error)
	switch kind {
	case ChartStatus:
		render = reports.RenderStatusChart
	case ChartPriority:
		render = reports.RenderPriorityChart
	default:
		return nil, ErrUnknownChart
	}

	snap, err := s.Analytics(actor, input)
	if err != nil {
		return nil, err
	}

	dist := snap.StatusDistribution
	if kind == ChartPriority {
		dist = snap.PriorityDistribution
	}
	png, err := render(dist)
	if err != nil {
		s.log.Error("Failed to render chart", zap.String("chart", kind), zap.Error(err))
		return nil, ErrReportFailed
	}
	return png, nil
}

// DownloadInput describes a requested document.
type DownloadInput struct {
	Format            reports.Format
	Period            analytics.Period
	IncludeUnassigned bool
}

// Download renders a report document. Only one generation per user and
// format runs at a time; a concurrent request gets
// reports.ErrGenerationInProgress.
func (s *ReportService) Download(ctx context.Context, actor Actor, input DownloadInput) (*reports.Report, error) {
	release, err := s.guard.Acquire(ctx, reports.GuardKey(actor.ID, input.Format))
	if err != nil {
		return nil, err
	}
	defer release()

	tasks, err := s.tasks.VisibleTasks(actor)
	if err != nil {
		return nil, err
	}

	report, err := s.generator.Generate(tasks, reports.Request{
		Format:            input.Format,
		Period:            input.Period,
		GeneratedBy:       s.generatedBy(actor),
		IncludeUnassigned: input.IncludeUnassigned,
	})
	if err != nil {
		if errors.Is(err, reports.ErrUnknownFormat) {
			return nil, err
		}
		s.log.Error("Report generation failed",
			zap.Uint64("user_id", actor.ID),
			zap.String("format", string(input.Format)),
			zap.String("period", string(input.Period)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrReportFailed, err)
	}

	s.changeLogs.Record(actor, Entry{
		EventType:   models.EventReportGenerated,
		TargetType:  models.TargetReport,
		Description: fmt.Sprintf("Generated %s", report.Filename),
		Details: map[string]interface{}{
			"format":      input.Format,
			"period":      input.Period,
			"total_tasks": report.Snapshot.TotalTasks,
		},
	})
	return report, nil
}

func (s *ReportService) generatedBy(actor Actor) string {
	if actor.IsSystem() {
		return "TaskFlow Automation"
	}
	user, err := s.users.GetUser(actor.ID)
	if err != nil {
		return analytics.UnknownLabel
	}
	return fmt.Sprintf("%s (%s)", user.FullName, user.Email)
}
