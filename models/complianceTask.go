package models

import "time"

type TaskStatus string

const (
	TaskOpen       TaskStatus = "open"
	TaskInProgress TaskStatus = "in_progress"
	TaskBlocked    TaskStatus = "blocked"
	TaskPostponed  TaskStatus = "postponed"
	TaskDone       TaskStatus = "done"
)

// TaskStatuses lists every status in lifecycle order.
var TaskStatuses = []TaskStatus{TaskOpen, TaskInProgress, TaskBlocked, TaskPostponed, TaskDone}

func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// CountsTowardOverdue reports whether a task in this status can be overdue.
// Only open and blocked tasks qualify.
func (s TaskStatus) CountsTowardOverdue() bool {
	return s == TaskOpen || s == TaskBlocked
}

type TaskSeverity string

const (
	SeverityMandatory   TaskSeverity = "mandatory"
	SeverityRecommended TaskSeverity = "recommended"
)

const DefaultReminderDaysBefore = 7

// ComplianceTask is a unit of compliance work tied to an AI system.
type ComplianceTask struct {
	ID                 uint         `gorm:"primaryKey" json:"id"`
	CompanyID          uint         `gorm:"not null;index" json:"company_id"`
	AISystemID         uint         `gorm:"column:ai_system_id;not null;index" json:"ai_system_id"`
	Title              string       `gorm:"not null;index" json:"title"`
	Description        *string      `json:"description,omitempty"`
	Status             TaskStatus   `gorm:"not null;default:open" json:"status"`
	Severity           TaskSeverity `gorm:"not null;default:mandatory" json:"severity"`
	Mandatory          bool         `gorm:"not null" json:"mandatory"`
	OwnerUserID        *uint        `gorm:"column:owner_user_id;index" json:"owner_user_id,omitempty"`
	DueDate            *time.Time   `json:"due_date,omitempty"`
	CompletedAt        *time.Time   `json:"completed_at,omitempty"`
	EvidenceURL        *string      `gorm:"column:evidence_url" json:"evidence_url,omitempty"`
	Notes              *string      `json:"notes,omitempty"`
	Reference          *string      `json:"reference,omitempty"`
	ReminderDaysBefore *int         `json:"reminder_days_before,omitempty"`
	CreatedBy          *uint        `json:"created_by,omitempty"`
	UpdatedBy          *uint        `json:"updated_by,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

func (ComplianceTask) TableName() string { return "compliance_tasks" }
