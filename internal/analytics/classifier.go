// Package analytics turns a materialized task list into the rollups shown on
// dashboards and in exported reports. Every function here is pure: the
// current instant is always passed in by the caller.
package analytics

import (
	"math"
	"time"

	"github.com/yukikurage/taskflow-api/internal/models"
)

// IsOverdue reports whether the task has a due date strictly before now and
// is not done.
func IsOverdue(task models.Task, now time.Time) bool {
	if task.DueDate == nil || task.DueDate.IsZero() {
		return false
	}
	return task.DueDate.Before(now) && task.Status != models.TaskStatusDone
}

// DaysUntilDue returns the number of days until due, rounded up. Negative
// values mean the date has passed. ok is false when there is no due date.
func DaysUntilDue(due *time.Time, now time.Time) (days int, ok bool) {
	if due == nil || due.IsZero() {
		return 0, false
	}
	return int(math.Ceil(due.Sub(now).Hours() / 24)), true
}

// DaysOverdue is the positive number of days past due, or 0.
func DaysOverdue(due *time.Time, now time.Time) int {
	days, ok := DaysUntilDue(due, now)
	if !ok || days >= 0 {
		return 0
	}
	return -days
}
