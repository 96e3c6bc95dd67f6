package repository

import (
	"context"
	"errors"
	"time"

	"medsupply-backend/internal/models"
	"medsupply-backend/pkg/utils"

	"gorm.io/gorm"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepo(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// RequestFilter narrows request listings
type RequestFilter struct {
	Status     string
	HospitalID string
	Emergency  *bool
}

// CandidateFilter narrows allocation candidate listings
type CandidateFilter struct {
	SupplyCode string
	HospitalID string
}

// StatusTransition is a guarded lifecycle transition for one request
type StatusTransition struct {
	RequestID    string
	From         models.RequestStatus
	To           models.RequestStatus
	Version      int
	ApproverID   *uint
	ApprovalTime *time.Time
	Comments     string
}

// BatchDraw consumes quantity from one batch during allocation
type BatchDraw struct {
	BatchID  string
	Quantity int
}

// FulfillmentReversal returns quantity to the batch a fulfillment drew from.
// Remove deletes the fulfillment row once fully reversed.
type FulfillmentReversal struct {
	FulfillmentID string
	BatchID       string
	Quantity      int
	Remove        bool
}

// AllocationPlan is the complete, precomputed effect of one allocateItem call.
// ApplyAllocation executes it atomically; on any guard failure nothing is kept.
type AllocationPlan struct {
	RequestID      string
	RequestVersion int
	ItemID         string
	NewAllocated   int
	NewStatus      models.RequestStatus
	Draws          []BatchDraw
	Reversals      []FulfillmentReversal
	HospitalID     string
	CapacityDelta  int
	ActorID        uint
}

// CreateRequest persists a request together with its items
func (r *RequestRepository) CreateRequest(ctx context.Context, request *models.SupplyRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

// GetRequestWithItems retrieves a request with its items in submission order
func (r *RequestRepository) GetRequestWithItems(ctx context.Context, id string) (*models.SupplyRequest, error) {
	var request models.SupplyRequest
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Hospital").
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

// ListRequests retrieves a filtered, paginated page of requests
func (r *RequestRepository) ListRequests(ctx context.Context, f RequestFilter, page utils.PageParams) (*utils.PaginatedResponse, error) {
	tx := r.db.WithContext(ctx).Model(&models.SupplyRequest{}).Preload("Hospital")
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	if f.HospitalID != "" {
		tx = tx.Where("hospital_id = ?", f.HospitalID)
	}
	if f.Emergency != nil {
		tx = tx.Where("emergency = ?", *f.Emergency)
	}

	order := utils.OrderClause(page.Ordering, map[string]string{
		"priority":     "priority",
		"required_by":  "required_by",
		"request_time": "request_time",
		"status":       "status",
	}, "emergency DESC, priority DESC, required_by ASC")

	var requests []models.SupplyRequest
	return utils.Paginate(tx.Order(order), page, &requests)
}

// TransitionStatus applies a guarded lifecycle transition. The WHERE clause
// checks both the expected current status and the version read by the caller,
// so a concurrent approve/reject surfaces as ErrOptimisticLock.
func (r *RequestRepository) TransitionStatus(ctx context.Context, t StatusTransition) error {
	updates := map[string]interface{}{
		"status":  t.To,
		"version": gorm.Expr("version + 1"),
	}
	if t.ApproverID != nil {
		updates["approver_id"] = *t.ApproverID
	}
	if t.ApprovalTime != nil {
		updates["approval_time"] = *t.ApprovalTime
	}
	if t.Comments != "" {
		updates["comments"] = t.Comments
	}

	result := r.db.WithContext(ctx).Model(&models.SupplyRequest{}).
		Where("id = ? AND status = ? AND version = ?", t.RequestID, t.From, t.Version).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOptimisticLock
	}
	return nil
}

// ListItemFulfillments retrieves the batch draws recorded for an item, most
// recent first, so reversals undo the latest draws before earlier ones
func (r *RequestRepository) ListItemFulfillments(ctx context.Context, itemID string) ([]models.ItemFulfillment, error) {
	var fulfillments []models.ItemFulfillment
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("fulfilled_time DESC, id DESC").
		Find(&fulfillments).Error
	return fulfillments, err
}

// ApplyAllocation executes an allocation plan in one transaction: the request
// version guard serialises concurrent mutations of the same request, and every
// batch decrement is guarded against underflow. Any failed guard rolls the
// whole plan back.
func (r *RequestRepository) ApplyAllocation(ctx context.Context, plan AllocationPlan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.SupplyRequest{}).
			Where("id = ? AND version = ?", plan.RequestID, plan.RequestVersion).
			Updates(map[string]interface{}{
				"status":  plan.NewStatus,
				"version": gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrOptimisticLock
		}

		if err := tx.Model(&models.RequestItem{}).
			Where("id = ?", plan.ItemID).
			Update("allocated", plan.NewAllocated).Error; err != nil {
			return err
		}

		for _, draw := range plan.Draws {
			result := tx.Model(&models.InventoryBatch{}).
				Where("id = ? AND quantity >= ?", draw.BatchID, draw.Quantity).
				Updates(map[string]interface{}{
					"quantity": gorm.Expr("quantity - ?", draw.Quantity),
					"version":  gorm.Expr("version + 1"),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrInsufficientStock
			}

			actorID := plan.ActorID
			fulfillment := &models.ItemFulfillment{
				ItemID:        plan.ItemID,
				BatchID:       draw.BatchID,
				Quantity:      draw.Quantity,
				FulfilledByID: &actorID,
			}
			if err := tx.Create(fulfillment).Error; err != nil {
				return err
			}
		}

		for _, rev := range plan.Reversals {
			if err := tx.Model(&models.InventoryBatch{}).
				Where("id = ?", rev.BatchID).
				Updates(map[string]interface{}{
					"quantity": gorm.Expr("quantity + ?", rev.Quantity),
					"version":  gorm.Expr("version + 1"),
				}).Error; err != nil {
				return err
			}

			if rev.Remove {
				if err := tx.Delete(&models.ItemFulfillment{}, "id = ?", rev.FulfillmentID).Error; err != nil {
					return err
				}
			} else {
				if err := tx.Model(&models.ItemFulfillment{}).
					Where("id = ?", rev.FulfillmentID).
					Update("quantity", gorm.Expr("quantity - ?", rev.Quantity)).Error; err != nil {
					return err
				}
			}
		}

		if plan.CapacityDelta > 0 {
			if err := tx.Model(&models.Hospital{}).
				Where("id = ?", plan.HospitalID).
				Update("current_capacity", gorm.Expr("GREATEST(current_capacity - ?, 0)", plan.CapacityDelta)).Error; err != nil {
				return err
			}
		} else if plan.CapacityDelta < 0 {
			if err := tx.Model(&models.Hospital{}).
				Where("id = ?", plan.HospitalID).
				Update("current_capacity", gorm.Expr("LEAST(current_capacity + ?, storage_volume)", -plan.CapacityDelta)).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// ListAllocationCandidates retrieves unresolved items of allocatable requests.
// Default ordering admits emergency requests first, then higher priority, then
// earlier deadlines.
func (r *RequestRepository) ListAllocationCandidates(ctx context.Context, f CandidateFilter, page utils.PageParams) (*utils.PaginatedResponse, error) {
	tx := r.db.WithContext(ctx).Model(&models.RequestItem{}).
		Joins("JOIN supply_requests ON supply_requests.id = request_items.request_id").
		Where("request_items.allocated < request_items.quantity").
		Where("supply_requests.status IN ?", []models.RequestStatus{
			models.StatusApproved, models.StatusPartiallyFulfilled,
		}).
		Preload("Request").
		Preload("Request.Hospital").
		Preload("Supply")
	if f.SupplyCode != "" {
		tx = tx.Where("request_items.supply_code = ?", f.SupplyCode)
	}
	if f.HospitalID != "" {
		tx = tx.Where("supply_requests.hospital_id = ?", f.HospitalID)
	}

	order := utils.OrderClause(page.Ordering, map[string]string{
		"priority":    "supply_requests.priority",
		"required_by": "supply_requests.required_by",
		"emergency":   "supply_requests.emergency",
	}, "supply_requests.emergency DESC, supply_requests.priority DESC, supply_requests.required_by ASC")

	var items []models.RequestItem
	return utils.Paginate(tx.Order(order), page, &items)
}
