package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupplyCategory classifies a medical supply
type SupplyCategory string

const (
	CategoryDrug       SupplyCategory = "DG"
	CategoryDevice     SupplyCategory = "DV"
	CategoryPPE        SupplyCategory = "PP"
	CategoryReagent    SupplyCategory = "RT"
	CategoryConsumable SupplyCategory = "CS"
	CategoryOther      SupplyCategory = "OT"
)

// SupplyCategories lists every known category in display order
var SupplyCategories = []SupplyCategory{
	CategoryDrug, CategoryDevice, CategoryPPE,
	CategoryReagent, CategoryConsumable, CategoryOther,
}

// Label returns the display name for a supply category
func (c SupplyCategory) Label() string {
	switch c {
	case CategoryDrug:
		return "Drug"
	case CategoryDevice:
		return "Medical Device"
	case CategoryPPE:
		return "Protective Equipment"
	case CategoryReagent:
		return "Test Reagent"
	case CategoryConsumable:
		return "Disposable Consumable"
	default:
		return "Other"
	}
}

// MedicalSupply represents a catalogued supply item, keyed by its UNSPSC code
type MedicalSupply struct {
	UNSPSCCode    string              `gorm:"column:unspsc_code;size:20;primaryKey" json:"unspsc_code"`
	Name          string              `gorm:"size:200;not null" json:"name"`
	Category      SupplyCategory      `gorm:"size:2;not null;index" json:"category"`
	Unit          string              `gorm:"size:10" json:"unit,omitempty"`
	Standard      string              `gorm:"size:100" json:"standard,omitempty"`
	ShelfLifeDays int                 `gorm:"not null;default:0" json:"shelf_life_days"`
	StorageTemp   string              `gorm:"size:20" json:"storage_temp,omitempty"`
	IsControlled  bool                `gorm:"default:false;index" json:"is_controlled"`
	Description   string              `gorm:"type:text" json:"description,omitempty"`
	AvgPrice      decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"avg_price,omitempty"`
	MinStockLevel int                 `gorm:"not null;default:0" json:"min_stock_level"`
	SupplierID    *string             `gorm:"type:char(36)" json:"supplier_id,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`

	Supplier *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

// TableName specifies the table name for MedicalSupply model
func (MedicalSupply) TableName() string {
	return "medical_supplies"
}
