package services

import (
	"context"
	"encoding/json"
	"log"

	model "github.com/Itish41/complytrack/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 500
)

// Audit actions written by the services.
const (
	ActionCompanyCreated   = "COMPANY_CREATED"
	ActionSystemCreated    = "AI_SYSTEM_CREATED"
	ActionSystemDeleted    = "AI_SYSTEM_DELETED"
	ActionMemberAdded      = "AI_SYSTEM_MEMBER_ADDED"
	ActionTaskCreated      = "TASK_CREATED"
	ActionTaskUpdated      = "TASK_UPDATED"
	ActionTaskDeleted      = "TASK_DELETED"
	ActionNotificationSent = "NOTIFICATION_SENT"
)

// Actor identifies who triggered a write, for the audit trail.
type Actor struct {
	UserID *uint
	IP     string
}

// AuditEntry describes one audit record to write.
type AuditEntry struct {
	CompanyID  uint
	UserID     *uint
	Action     string
	EntityType string
	EntityID   *uint
	Meta       map[string]interface{}
	IPAddress  string
}

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record inserts an audit entry. Entries are never updated afterwards.
func (s *AuditService) Record(ctx context.Context, e AuditEntry) (*model.AuditLog, error) {
	return writeAudit(s.db.WithContext(ctx), e)
}

// List returns the newest entries of a company first.
func (s *AuditService) List(ctx context.Context, companyID uint, limit int) ([]model.AuditLog, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	var logs []model.AuditLog
	err := s.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, translateError("list audit logs", err)
	}
	return logs, nil
}

// writeAudit inserts through tx so callers can keep the entry in the same
// transaction as the change it describes.
func writeAudit(tx *gorm.DB, e AuditEntry) (*model.AuditLog, error) {
	if e.Action == "" {
		return nil, invalid("audit action is required")
	}
	entry := &model.AuditLog{
		CompanyID: e.CompanyID,
		UserID:    e.UserID,
		Action:    e.Action,
		EntityID:  e.EntityID,
	}
	if e.EntityType != "" {
		entry.EntityType = &e.EntityType
	}
	if e.IPAddress != "" {
		entry.IPAddress = &e.IPAddress
	}
	if len(e.Meta) > 0 {
		raw, err := json.Marshal(e.Meta)
		if err != nil {
			log.Printf("[writeAudit] Error marshaling meta for %s: %v", e.Action, err)
		} else {
			entry.Meta = datatypes.JSON(raw)
		}
	}

	if err := tx.Create(entry).Error; err != nil {
		return nil, translateError("record audit log", err)
	}
	return entry, nil
}
