package models

import "time"

// Company is the tenant that owns users, AI systems, tasks, notifications
// and audit logs. Deleting it cascades to all of them.
type Company struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Name               string    `gorm:"not null;index" json:"name"`
	Address            *string   `json:"address,omitempty"`
	Country            *string   `json:"country,omitempty"`
	ContactEmail       *string   `json:"contact_email,omitempty"`
	RegistrationNumber *string   `gorm:"index" json:"registration_number,omitempty"`
	Website            *string   `json:"website,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Company) TableName() string { return "companies" }
