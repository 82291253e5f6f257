package models

import "time"

// User is a member of a company. CompanyID is nil for platform staff.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CompanyID *uint     `gorm:"index;constraint:OnDelete:CASCADE" json:"company_id,omitempty"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	FullName  *string   `json:"full_name,omitempty"`
	Role      string    `gorm:"not null;default:member" json:"role"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
