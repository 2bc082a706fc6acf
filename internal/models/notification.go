package models

import "time"

type NotificationType string

const (
	NotificationTaskAssigned  NotificationType = "task_assigned"
	NotificationTaskUpdated   NotificationType = "task_updated"
	NotificationTaskComment   NotificationType = "task_comment"
	NotificationTaskOverdue   NotificationType = "task_overdue"
	NotificationWeeklyReport  NotificationType = "weekly_report"
	NotificationAccountUpdate NotificationType = "account_update"
)

type Notification struct {
	ID        uint64           `gorm:"primarykey" json:"id"`
	UserID    uint64           `gorm:"not null;index" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(40);not null" json:"type"`
	Message   string           `gorm:"type:varchar(500);not null" json:"message"`
	TaskID    *uint64          `json:"task_id,omitempty"`
	Read      bool             `gorm:"column:is_read;not null;default:false" json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}
