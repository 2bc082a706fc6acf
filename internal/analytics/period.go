package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/taskflow-api/internal/models"
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodAll     Period = "all"
)

var ErrUnknownPeriod = errors.New("unknown report period")

// ParsePeriod accepts daily, weekly, monthly or all. An empty string means all.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodAll, nil
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAll:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
	}
}

// Start returns the inclusive lower bound on created_at for the period.
// ok is false for PeriodAll.
func (p Period) Start(now time.Time) (start time.Time, ok bool) {
	switch p {
	case PeriodDaily:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), true
	case PeriodWeekly:
		return now.Add(-7 * 24 * time.Hour), true
	case PeriodMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), true
	default:
		return time.Time{}, false
	}
}

// Label is the title-case name used in report headings and filenames.
func (p Period) Label() string {
	switch p {
	case PeriodDaily:
		return "Daily"
	case PeriodWeekly:
		return "Weekly"
	case PeriodMonthly:
		return "Monthly"
	default:
		return "Full"
	}
}

// Describe returns the human readable range covered by the period.
func (p Period) Describe(now time.Time) string {
	switch p {
	case PeriodDaily:
		return now.Format("January 2, 2006")
	case PeriodWeekly:
		start, _ := p.Start(now)
		return start.Format("Jan 2, 2006") + " - " + now.Format("Jan 2, 2006")
	case PeriodMonthly:
		return now.Format("January 2006")
	default:
		return "All Time"
	}
}

// FilterByPeriod keeps the tasks created at or after the period's start,
// preserving input order. PeriodAll returns tasks unchanged.
func FilterByPeriod(tasks []models.Task, p Period, now time.Time) []models.Task {
	start, ok := p.Start(now)
	if !ok {
		return tasks
	}

	filtered := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.CreatedAt.Before(start) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}
