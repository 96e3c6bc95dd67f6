package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name  string
		items []RequestItem
		want  RequestStatus
	}{
		{
			name:  "no items",
			items: nil,
			want:  StatusApproved,
		},
		{
			name: "nothing allocated",
			items: []RequestItem{
				{Quantity: 10, Allocated: 0},
				{Quantity: 5, Allocated: 0},
			},
			want: StatusApproved,
		},
		{
			name: "one item partially allocated",
			items: []RequestItem{
				{Quantity: 10, Allocated: 4},
				{Quantity: 5, Allocated: 0},
			},
			want: StatusPartiallyFulfilled,
		},
		{
			name: "one item fully allocated, one untouched",
			items: []RequestItem{
				{Quantity: 10, Allocated: 10},
				{Quantity: 5, Allocated: 0},
			},
			want: StatusPartiallyFulfilled,
		},
		{
			name: "every item fully allocated",
			items: []RequestItem{
				{Quantity: 10, Allocated: 10},
				{Quantity: 5, Allocated: 5},
			},
			want: StatusFulfilled,
		},
		{
			name: "single item fully allocated",
			items: []RequestItem{
				{Quantity: 8, Allocated: 8},
			},
			want: StatusFulfilled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.items))
		})
	}
}

func TestRequestStatusAllocatable(t *testing.T) {
	assert.True(t, StatusApproved.Allocatable())
	assert.True(t, StatusPartiallyFulfilled.Allocatable())
	assert.False(t, StatusPending.Allocatable())
	assert.False(t, StatusRejected.Allocatable())
	assert.False(t, StatusFulfilled.Allocatable())
}

func TestBatchEligible(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	base := InventoryBatch{
		Quantity:           5,
		QualityCheckPassed: true,
		ExpirationDate:     now.AddDate(0, 0, 10),
	}
	assert.True(t, base.Eligible(now))

	empty := base
	empty.Quantity = 0
	assert.False(t, empty.Eligible(now))

	failed := base
	failed.QualityCheckPassed = false
	assert.False(t, failed.Eligible(now))

	expired := base
	expired.ExpirationDate = now.AddDate(0, 0, -1)
	assert.False(t, expired.Eligible(now))

	// a batch expiring today is still usable for the rest of the day
	today := base
	today.ExpirationDate = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.True(t, today.Eligible(now))
}
