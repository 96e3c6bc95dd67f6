package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AlertType classifies a derived inventory warning
type AlertType string

const (
	AlertLowStock      AlertType = "low_stock"
	AlertExpiringBatch AlertType = "expiring_batch"
	AlertOverCapacity  AlertType = "over_capacity"
)

// AlertTypes lists every alert type in display order
var AlertTypes = []AlertType{AlertLowStock, AlertExpiringBatch, AlertOverCapacity}

// Label returns the display name for an alert type
func (t AlertType) Label() string {
	switch t {
	case AlertLowStock:
		return "Low Stock"
	case AlertExpiringBatch:
		return "Expiring Batch"
	case AlertOverCapacity:
		return "Over Capacity"
	default:
		return string(t)
	}
}

// InventoryAlert is a derived warning emitted by the alert detector. At most
// one open alert exists per (hospital, type, subject); the subject is the
// supply for low_stock, the batch for expiring_batch, and the hospital itself
// for over_capacity.
type InventoryAlert struct {
	ID              string     `gorm:"type:char(36);primaryKey" json:"alert_id"`
	HospitalID      string     `gorm:"type:char(36);not null;index" json:"hospital_id"`
	SupplyCode      *string    `gorm:"size:20;index" json:"supply_code,omitempty"`
	BatchID         *string    `gorm:"type:char(36);index" json:"batch_id,omitempty"`
	AlertType       AlertType  `gorm:"size:20;not null;index" json:"alert_type"`
	Message         string     `gorm:"type:text" json:"message"`
	IsResolved      bool       `gorm:"default:false;index" json:"is_resolved"`
	ResolvedByID    *uint      `json:"resolved_by,omitempty"`
	ResolvedTime    *time.Time `json:"resolved_time,omitempty"`
	ResolutionNotes string     `gorm:"type:text" json:"resolution_notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Hospital *Hospital       `gorm:"foreignKey:HospitalID" json:"hospital,omitempty"`
	Supply   *MedicalSupply  `gorm:"foreignKey:SupplyCode;references:UNSPSCCode" json:"supply,omitempty"`
	Batch    *InventoryBatch `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
}

// TableName specifies the table name for InventoryAlert model
func (InventoryAlert) TableName() string {
	return "inventory_alerts"
}

// BeforeCreate assigns a UUID primary key when none is provided
func (a *InventoryAlert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
