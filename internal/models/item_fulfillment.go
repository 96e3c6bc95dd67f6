package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemFulfillment records one batch draw made to satisfy a request item.
// Together the rows for an item account for its allocated quantity, so a
// later reduction can return units to the exact batches they came from.
type ItemFulfillment struct {
	ID            string    `gorm:"type:char(36);primaryKey" json:"fulfillment_id"`
	ItemID        string    `gorm:"type:char(36);not null;index" json:"item_id"`
	BatchID       string    `gorm:"type:char(36);not null;index" json:"batch_id"`
	Quantity      int       `gorm:"not null" json:"quantity"`
	FulfilledByID *uint     `json:"fulfilled_by,omitempty"`
	FulfilledTime time.Time `gorm:"autoCreateTime" json:"fulfilled_time"`

	Batch *InventoryBatch `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
}

// TableName specifies the table name for ItemFulfillment model
func (ItemFulfillment) TableName() string {
	return "item_fulfillments"
}

// BeforeCreate assigns a UUID primary key when none is provided
func (f *ItemFulfillment) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
