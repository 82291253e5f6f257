package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrAuditLogImmutable is returned when code tries to modify or delete an
// audit entry through the model.
var ErrAuditLogImmutable = errors.New("audit log entries are immutable")

// AuditLog records who did what to which entity. Rows are insert-only.
type AuditLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CompanyID  uint           `gorm:"not null;index" json:"company_id"`
	UserID     *uint          `json:"user_id,omitempty"`
	Action     string         `gorm:"not null" json:"action"`
	EntityType *string        `json:"entity_type,omitempty"`
	EntityID   *uint          `json:"entity_id,omitempty"`
	Meta       datatypes.JSON `json:"meta,omitempty"`
	IPAddress  *string        `gorm:"column:ip_address" json:"ip_address,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// BeforeUpdate is a GORM hook that rejects any update of an existing entry.
func (a *AuditLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrAuditLogImmutable
}

// BeforeDelete is a GORM hook that rejects deleting an entry. Rows still go
// away through the company cascade, which runs inside the database.
func (a *AuditLog) BeforeDelete(tx *gorm.DB) error {
	return ErrAuditLogImmutable
}
