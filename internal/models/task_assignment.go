package models

import (
	"time"

	"gorm.io/gorm"
)

// TaskAssignment links a task to one of its assignees. Unassigning soft
// deletes the row; assigning the same user again revives it with a fresh
// AssignedAt.
type TaskAssignment struct {
	TaskID     uint64         `gorm:"primarykey" json:"task_id"`
	UserID     uint64         `gorm:"primarykey;index" json:"user_id"`
	AssignedAt time.Time      `gorm:"autoCreateTime;not null" json:"assigned_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
