package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestStatus is the lifecycle state of a SupplyRequest
type RequestStatus string

const (
	StatusPending            RequestStatus = "pending"
	StatusApproved           RequestStatus = "approved"
	StatusRejected           RequestStatus = "rejected"
	StatusPartiallyFulfilled RequestStatus = "partially_fulfilled"
	StatusFulfilled          RequestStatus = "fulfilled"
)

// RequestStatuses lists every lifecycle state in display order
var RequestStatuses = []RequestStatus{
	StatusPending, StatusApproved, StatusRejected,
	StatusPartiallyFulfilled, StatusFulfilled,
}

// Label returns the display name for a request status
func (s RequestStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pending Approval"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	case StatusPartiallyFulfilled:
		return "Partially Fulfilled"
	case StatusFulfilled:
		return "Fulfilled"
	default:
		return string(s)
	}
}

// Allocatable reports whether items of a request in this state may be allocated
func (s RequestStatus) Allocatable() bool {
	return s == StatusApproved || s == StatusPartiallyFulfilled
}

// SupplyRequest is a hospital's request for supplies. Status moves
// pending -> approved|rejected, then approved -> partially_fulfilled|fulfilled
// as a projection of item allocation, never set directly past approval.
type SupplyRequest struct {
	ID           string        `gorm:"type:char(36);primaryKey" json:"request_id"`
	HospitalID   string        `gorm:"type:char(36);not null;index" json:"hospital_id"`
	RequestTime  time.Time     `gorm:"autoCreateTime" json:"request_time"`
	RequiredBy   time.Time     `gorm:"not null" json:"required_by"`
	Status       RequestStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Priority     int           `gorm:"not null;default:0;index" json:"priority"`
	Emergency    bool          `gorm:"default:false" json:"emergency"`
	RequesterID  uint          `gorm:"not null" json:"requester_id"`
	ApproverID   *uint         `json:"approver_id,omitempty"`
	ApprovalTime *time.Time    `json:"approval_time,omitempty"`
	Comments     string        `gorm:"type:text" json:"comments,omitempty"`
	Version      int           `gorm:"not null;default:1" json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`

	Hospital *Hospital     `gorm:"foreignKey:HospitalID" json:"hospital,omitempty"`
	Items    []RequestItem `gorm:"foreignKey:RequestID" json:"items,omitempty"`
}

// TableName specifies the table name for SupplyRequest model
func (SupplyRequest) TableName() string {
	return "supply_requests"
}

// BeforeCreate assigns a UUID primary key when none is provided
func (r *SupplyRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// RequestItem is one line of a SupplyRequest. Invariant: 0 <= Allocated <= Quantity.
type RequestItem struct {
	ID         string    `gorm:"type:char(36);primaryKey" json:"item_id"`
	RequestID  string    `gorm:"type:char(36);not null;index" json:"request_id"`
	SupplyCode string    `gorm:"size:20;not null;index" json:"supply_code"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	Allocated  int       `gorm:"not null;default:0" json:"allocated"`
	Position   int       `gorm:"not null;default:0" json:"position"`
	Notes      string    `gorm:"size:255" json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Supply  *MedicalSupply `gorm:"foreignKey:SupplyCode;references:UNSPSCCode" json:"supply,omitempty"`
	Request *SupplyRequest `gorm:"foreignKey:RequestID" json:"request,omitempty"`
}

// TableName specifies the table name for RequestItem model
func (RequestItem) TableName() string {
	return "request_items"
}

// BeforeCreate assigns a UUID primary key when none is provided
func (i *RequestItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// Outstanding returns the quantity still awaiting allocation
func (i *RequestItem) Outstanding() int {
	return i.Quantity - i.Allocated
}

// DeriveStatus computes the post-approval status of a request from its items:
// fulfilled when every item is fully allocated, partially_fulfilled when at
// least one item has any allocation, otherwise approved.
func DeriveStatus(items []RequestItem) RequestStatus {
	if len(items) == 0 {
		return StatusApproved
	}
	fulfilled := true
	started := false
	for _, item := range items {
		if item.Allocated < item.Quantity {
			fulfilled = false
		}
		if item.Allocated > 0 {
			started = true
		}
	}
	switch {
	case fulfilled:
		return StatusFulfilled
	case started:
		return StatusPartiallyFulfilled
	default:
		return StatusApproved
	}
}
