package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Hospital levels, higher means a larger, better equipped facility
const (
	HospitalLevelTertiaryA     = 9
	HospitalLevelTertiaryB     = 8
	HospitalLevelSecondaryA    = 7
	HospitalLevelSecondaryB    = 6
	HospitalLevelPrimaryA      = 5
	HospitalLevelPrimaryB      = 4
	HospitalLevelDistrict      = 3
	HospitalLevelCommunity     = 2
	HospitalLevelUncategorized = 1
)

// HospitalLevelLabels maps a hospital level to its display name
var HospitalLevelLabels = map[int]string{
	HospitalLevelTertiaryA:     "Tertiary A",
	HospitalLevelTertiaryB:     "Tertiary B",
	HospitalLevelSecondaryA:    "Secondary A",
	HospitalLevelSecondaryB:    "Secondary B",
	HospitalLevelPrimaryA:      "Primary A",
	HospitalLevelPrimaryB:      "Primary B",
	HospitalLevelDistrict:      "District",
	HospitalLevelCommunity:     "Community",
	HospitalLevelUncategorized: "Other",
}

// Hospital represents a medical facility participating in supply distribution
type Hospital struct {
	ID               string          `gorm:"type:char(36);primaryKey" json:"hospital_id"`
	OrgCode          string          `gorm:"size:20;uniqueIndex" json:"org_code"`
	Name             string          `gorm:"size:100;not null" json:"name"`
	Level            int             `gorm:"not null;default:1" json:"level"`
	Address          string          `gorm:"type:text" json:"address,omitempty"`
	Region           string          `gorm:"size:50" json:"region,omitempty"`
	ContactInfo      string          `gorm:"type:json" json:"contact_info,omitempty"`
	StorageVolume    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"storage_volume"`
	CurrentCapacity  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"current_capacity"`
	WarningThreshold decimal.Decimal `gorm:"type:decimal(5,4);not null;default:0.8" json:"warning_threshold"`
	IsActive         bool            `gorm:"default:true" json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Hospital model
func (Hospital) TableName() string {
	return "hospitals"
}

// BeforeCreate assigns a UUID primary key when none is provided
func (h *Hospital) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// UsageRatio returns current_capacity / storage_volume, zero when volume is unset
func (h *Hospital) UsageRatio() decimal.Decimal {
	if h.StorageVolume.IsZero() {
		return decimal.Zero
	}
	return h.CurrentCapacity.DivRound(h.StorageVolume, 4)
}

// OverThreshold reports whether the usage ratio has reached the warning threshold
func (h *Hospital) OverThreshold() bool {
	return h.UsageRatio().GreaterThanOrEqual(h.WarningThreshold)
}

// LevelLabel returns the display name for the hospital level
func (h *Hospital) LevelLabel() string {
	if label, ok := HospitalLevelLabels[h.Level]; ok {
		return label
	}
	return HospitalLevelLabels[HospitalLevelUncategorized]
}
