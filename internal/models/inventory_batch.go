package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryBatch represents a received lot of one supply at one hospital.
// Quantity only changes through receipt and allocation consumption; the
// version column backs optimistic concurrency checks on those updates.
type InventoryBatch struct {
	ID                 string              `gorm:"type:char(36);primaryKey" json:"batch_id"`
	BatchNumber        string              `gorm:"size:50;uniqueIndex" json:"batch_number"`
	HospitalID         string              `gorm:"type:char(36);not null;index" json:"hospital_id"`
	SupplyCode         string              `gorm:"size:20;not null;index" json:"supply_code"`
	Quantity           int                 `gorm:"not null" json:"quantity"`
	ProductionDate     time.Time           `gorm:"type:date;not null" json:"production_date"`
	ExpirationDate     time.Time           `gorm:"type:date;not null;index" json:"expiration_date"`
	ReceivedDate       time.Time           `gorm:"type:date;not null;index" json:"received_date"`
	StorageCondition   string              `gorm:"type:json" json:"storage_condition,omitempty"`
	ReceivedByID       *uint               `json:"received_by,omitempty"`
	UnitPrice          decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"unit_price,omitempty"`
	SupplierID         *string             `gorm:"type:char(36)" json:"supplier_id,omitempty"`
	QualityCheckPassed bool                `gorm:"default:true" json:"quality_check_passed"`
	Notes              string              `gorm:"type:text" json:"notes,omitempty"`
	Version            int                 `gorm:"not null;default:1" json:"-"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`

	Hospital *Hospital      `gorm:"foreignKey:HospitalID" json:"hospital,omitempty"`
	Supply   *MedicalSupply `gorm:"foreignKey:SupplyCode;references:UNSPSCCode" json:"supply,omitempty"`
}

// TableName specifies the table name for InventoryBatch model
func (InventoryBatch) TableName() string {
	return "inventory_batches"
}

// BeforeCreate assigns a UUID primary key when none is provided
func (b *InventoryBatch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Expired reports whether the batch has passed its expiration date
func (b *InventoryBatch) Expired(now time.Time) bool {
	return b.ExpirationDate.Before(truncateToDay(now))
}

// Eligible reports whether the batch may source an allocation: quality
// checked, stocked, and unexpired.
func (b *InventoryBatch) Eligible(now time.Time) bool {
	return b.QualityCheckPassed && b.Quantity > 0 && !b.Expired(now)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
