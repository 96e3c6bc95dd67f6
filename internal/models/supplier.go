package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Supplier represents an upstream vendor of medical supplies
type Supplier struct {
	ID            string    `gorm:"type:char(36);primaryKey" json:"supplier_id"`
	Name          string    `gorm:"size:100;not null;index" json:"name"`
	ContactPerson string    `gorm:"size:50" json:"contact_person,omitempty"`
	ContactInfo   string    `gorm:"type:json" json:"contact_info,omitempty"`
	Address       string    `gorm:"type:text" json:"address,omitempty"`
	CreditRating  int       `gorm:"default:3" json:"credit_rating"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for Supplier model
func (Supplier) TableName() string {
	return "suppliers"
}

// BeforeCreate assigns a UUID primary key when none is provided
func (s *Supplier) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
