package analytics

import (
	"fmt"
	"math"
	"strings"

	"github.com/yukikurage/taskflow-api/internal/models"
)

// Placeholder labels used wherever a task lacks the related record.
const (
	NoTeamLabel     = "No Team"
	UnassignedLabel = "Unassigned"
	UnknownLabel    = "Unknown"
)

// TeamName returns the task's team name or NoTeamLabel.
func TeamName(task models.Task) string {
	if task.Team == nil || strings.TrimSpace(task.Team.Name) == "" {
		return NoTeamLabel
	}
	return task.Team.Name
}

// CreatorName returns the creator's display name or UnknownLabel.
func CreatorName(task models.Task) string {
	if task.Creator.ID == 0 {
		return UnknownLabel
	}
	return UserName(task.Creator)
}

// UserName picks the best available display name for u.
func UserName(u models.User) string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	if u.Email != "" {
		return u.Email
	}
	return fmt.Sprintf("User #%d", u.ID)
}

// AssigneeNames lists the display names of the task's assignees.
func AssigneeNames(task models.Task) []string {
	names := make([]string, 0, len(task.Assignments))
	for _, a := range task.Assignments {
		u := a.User
		if u.ID == 0 {
			u.ID = a.UserID
		}
		names = append(names, UserName(u))
	}
	return names
}

// AssigneeList joins AssigneeNames, falling back to UnassignedLabel.
func AssigneeList(task models.Task) string {
	names := AssigneeNames(task)
	if len(names) == 0 {
		return UnassignedLabel
	}
	return strings.Join(names, ", ")
}

// Percent returns round(part/total*100), or 0 when total is 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// Share is part/total*100 without rounding, or 0 when total is 0.
func Share(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// PerformanceRating grades a per-user completion rate.
func PerformanceRating(rate int) string {
	switch {
	case rate >= 80:
		return "Excellent"
	case rate >= 60:
		return "Good"
	case rate >= 40:
		return "Average"
	default:
		return "Needs Improvement"
	}
}

// TeamRating grades a team completion rate with stars.
func TeamRating(rate int) string {
	switch {
	case rate >= 80:
		return "***"
	case rate >= 60:
		return "**"
	case rate >= 40:
		return "*"
	default:
		return "Low"
	}
}

// CompletionStatus grades the overall completion rate of a snapshot.
func CompletionStatus(rate int) string {
	switch {
	case rate >= 80:
		return "Excellent"
	case rate >= 60:
		return "Good"
	case rate >= 40:
		return "Fair"
	default:
		return "Needs Attention"
	}
}
