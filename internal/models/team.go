package models

import (
	"time"

	"gorm.io/gorm"
)

type Team struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	Name           string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	HRID           *uint64        `gorm:"column:hr_id;index" json:"hr_id"`
	LeadID         *uint64        `gorm:"index" json:"lead_id"`
	IsPinned       bool           `gorm:"not null;default:false" json:"is_pinned"`
	PriorityWeight int            `gorm:"not null;default:0" json:"priority_weight"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	HR      *User  `gorm:"foreignKey:HRID" json:"hr,omitempty"`
	Lead    *User  `gorm:"foreignKey:LeadID" json:"lead,omitempty"`
	Members []User `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}
