package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationStatus string

const (
	NotificationQueued NotificationStatus = "queued"
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

const (
	ChannelLog = "log"

	NotificationTaskDueSoon = "task_due_soon"
)

// Notification is a queued or delivered message for a company.
type Notification struct {
	ID           uint               `gorm:"primaryKey" json:"id"`
	CompanyID    uint               `gorm:"not null;index" json:"company_id"`
	AISystemID   *uint              `gorm:"column:ai_system_id" json:"ai_system_id,omitempty"`
	TaskID       *uint              `json:"task_id,omitempty"`
	UserID       *uint              `json:"user_id,omitempty"`
	Type         string             `gorm:"not null" json:"type"`
	Channel      string             `gorm:"not null;default:log" json:"channel"`
	Subject      string             `gorm:"not null" json:"subject"`
	Body         string             `gorm:"not null" json:"body"`
	Payload      datatypes.JSON     `json:"payload,omitempty"`
	Status       NotificationStatus `gorm:"not null;default:queued" json:"status"`
	ErrorText    *string            `json:"error_text,omitempty"`
	ScheduledFor *time.Time         `json:"scheduled_for,omitempty"`
	SentAt       *time.Time         `json:"sent_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// BeforeSave stores scheduled_for in UTC so queued rows compare correctly
// against the send cutoff on every backend.
func (n *Notification) BeforeSave(tx *gorm.DB) error {
	if n.ScheduledFor != nil {
		t := n.ScheduledFor.UTC()
		n.ScheduledFor = &t
	}
	return nil
}
