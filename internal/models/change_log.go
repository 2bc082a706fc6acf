package models

import (
	"time"

	"gorm.io/datatypes"
)

// Change log event types recorded by the services.
const (
	EventUserLogin       = "user_login"
	EventUserLogout      = "user_logout"
	EventUserCreated     = "user_created"
	EventUserUpdated     = "user_updated"
	EventUserDeleted     = "user_deleted"
	EventTaskCreated     = "task_created"
	EventTaskUpdated     = "task_updated"
	EventTaskDeleted     = "task_deleted"
	EventTeamCreated     = "team_created"
	EventTeamUpdated     = "team_updated"
	EventTeamDeleted     = "team_deleted"
	EventReportGenerated = "report_generated"
	EventBulkImport      = "bulk_import"
	EventCommentAdded    = "comment_added"
	EventAutomationRun   = "automation_run"
)

// DefaultEventTypes is the event type list offered to clients even when no
// matching entries exist yet.
var DefaultEventTypes = []string{
	EventUserLogin,
	EventUserLogout,
	EventUserCreated,
	EventUserUpdated,
	EventUserDeleted,
	EventTaskCreated,
	EventTaskUpdated,
	EventTaskDeleted,
	EventTeamCreated,
	EventTeamUpdated,
	EventTeamDeleted,
}

// Change log target types.
const (
	TargetUser   = "user"
	TargetTask   = "task"
	TargetTeam   = "team"
	TargetReport = "report"
	TargetSystem = "system"
)

type ChangeLog struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	EventType   string         `gorm:"type:varchar(50);not null;index" json:"event_type"`
	TargetType  string         `gorm:"type:varchar(30);not null;index" json:"target_type"`
	TargetID    *uint64        `json:"target_id,omitempty"`
	ActorID     *uint64        `gorm:"index" json:"actor_id,omitempty"`
	Description string         `gorm:"type:varchar(500)" json:"description"`
	Details     datatypes.JSON `json:"details,omitempty"`
	IPAddress   string         `gorm:"type:varchar(64)" json:"ip_address,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}
