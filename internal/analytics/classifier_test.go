package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/taskflow-api/internal/models"
)

var testNow = time.Date(2026, time.March, 18, 15, 30, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := testNow.Add(d)
	return &t
}

func TestIsOverdue(t *testing.T) {
	tests := []struct {
		name string
		task models.Task
		want bool
	}{
		{"no due date", models.Task{Status: models.TaskStatusTodo}, false},
		{"zero due date", models.Task{Status: models.TaskStatusTodo, DueDate: &time.Time{}}, false},
		{"past and open", models.Task{Status: models.TaskStatusTodo, DueDate: at(-time.Hour)}, true},
		{"past but done", models.Task{Status: models.TaskStatusDone, DueDate: at(-time.Hour)}, false},
		{"past and archived", models.Task{Status: models.TaskStatusArchived, DueDate: at(-time.Hour)}, true},
		{"exactly now", models.Task{Status: models.TaskStatusReview, DueDate: at(0)}, false},
		{"future", models.Task{Status: models.TaskStatusInProgress, DueDate: at(time.Hour)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOverdue(tt.task, testNow))
		})
	}
}

func TestIsOverdue_MatchesDefinition(t *testing.T) {
	offsets := []time.Duration{-48 * time.Hour, -time.Second, 0, time.Second, 72 * time.Hour}
	for _, status := range models.TaskStatuses {
		for _, off := range offsets {
			task := models.Task{Status: status, DueDate: at(off)}
			want := task.DueDate.Before(testNow) && status != models.TaskStatusDone
			assert.Equal(t, want, IsOverdue(task, testNow), "status=%s offset=%s", status, off)
		}
	}
}

func TestDaysUntilDue(t *testing.T) {
	days, ok := DaysUntilDue(nil, testNow)
	assert.False(t, ok)
	assert.Equal(t, 0, days)

	days, ok = DaysUntilDue(at(36*time.Hour), testNow)
	assert.True(t, ok)
	assert.Equal(t, 2, days)

	days, ok = DaysUntilDue(at(24*time.Hour), testNow)
	assert.True(t, ok)
	assert.Equal(t, 1, days)

	days, ok = DaysUntilDue(at(-36*time.Hour), testNow)
	assert.True(t, ok)
	assert.Equal(t, -1, days)

	days, ok = DaysUntilDue(at(-72*time.Hour), testNow)
	assert.True(t, ok)
	assert.Equal(t, -3, days)
}

func TestDaysOverdue(t *testing.T) {
	assert.Equal(t, 0, DaysOverdue(nil, testNow))
	assert.Equal(t, 0, DaysOverdue(at(time.Hour), testNow))
	assert.Equal(t, 3, DaysOverdue(at(-72*time.Hour), testNow))
}
