package models

import "time"

// AISystem is an AI system registered for regulatory tracking.
type AISystem struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CompanyID      uint      `gorm:"not null;index" json:"company_id"`
	Name           string    `gorm:"not null;index" json:"name"`
	Purpose        *string   `json:"purpose,omitempty"`
	LifecycleStage *string   `json:"lifecycle_stage,omitempty"`
	RiskTier       *string   `json:"risk_tier,omitempty"`
	Status         *string   `json:"status,omitempty"`
	OwnerUserID    *uint     `gorm:"column:owner_user_id" json:"owner_user_id,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (AISystem) TableName() string { return "ai_systems" }

// AISystemMember links a user to an AI system. The (system, user) pair is unique.
type AISystemMember struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AISystemID uint      `gorm:"column:ai_system_id;not null;uniqueIndex:ux_ai_system_members_pair" json:"ai_system_id"`
	UserID     uint      `gorm:"not null;uniqueIndex:ux_ai_system_members_pair" json:"user_id"`
	Role       string    `gorm:"not null;default:contributor" json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AISystemMember) TableName() string { return "ai_system_members" }
