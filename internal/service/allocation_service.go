package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"medsupply-backend/internal/models"
	"medsupply-backend/internal/repository"
	"medsupply-backend/pkg/utils"

	"go.uber.org/zap"
)

// AllocationRequestStore is the request-side persistence the resolver needs
type AllocationRequestStore interface {
	GetRequestWithItems(ctx context.Context, id string) (*models.SupplyRequest, error)
	ListItemFulfillments(ctx context.Context, itemID string) ([]models.ItemFulfillment, error)
	ApplyAllocation(ctx context.Context, plan repository.AllocationPlan) error
	ListAllocationCandidates(ctx context.Context, f repository.CandidateFilter, page utils.PageParams) (*utils.PaginatedResponse, error)
}

// EligibleBatchLister lists batches that may source an allocation
type EligibleBatchLister interface {
	ListEligibleBatches(ctx context.Context, hospitalID, supplyCode string, asOf time.Time) ([]models.InventoryBatch, error)
}

// AuditLogger records administrative actions
type AuditLogger interface {
	CreateAuditLog(userID *uint, action string, details string) error
}

// AllocationService assigns inventory to approved request items. Automatic
// sourcing consumes eligible batches earliest-expiring first; the whole
// assignment is applied atomically or not at all.
type AllocationService struct {
	requests AllocationRequestStore
	batches  EligibleBatchLister
	audit    AuditLogger
	gate     AuthorizationGate
	logger   *zap.Logger
	now      func() time.Time
}

func NewAllocationService(
	requests AllocationRequestStore,
	batches EligibleBatchLister,
	audit AuditLogger,
	gate AuthorizationGate,
	logger *zap.Logger,
) *AllocationService {
	return &AllocationService{
		requests: requests,
		batches:  batches,
		audit:    audit,
		gate:     gate,
		logger:   logger,
		now:      time.Now,
	}
}

// AllocateItem sets an item's allocated quantity, sourcing any increase from
// eligible batches. A decrease returns units to the batches they were drawn
// from, most recent draw first.
func (s *AllocationService) AllocateItem(ctx context.Context, actor Actor, requestID, itemID string, allocatedQuantity int) (*models.RequestItem, error) {
	return s.allocate(ctx, actor, requestID, itemID, allocatedQuantity, true)
}

// OverrideAllocation sets an item's allocated quantity directly without
// touching batch inventory. Operator escape hatch for stock sourced outside
// the ledger; bounds and state checks still apply.
func (s *AllocationService) OverrideAllocation(ctx context.Context, actor Actor, requestID, itemID string, allocatedQuantity int) (*models.RequestItem, error) {
	return s.allocate(ctx, actor, requestID, itemID, allocatedQuantity, false)
}

func (s *AllocationService) allocate(ctx context.Context, actor Actor, requestID, itemID string, allocatedQuantity int, autoSource bool) (*models.RequestItem, error) {
	if !s.gate.IsPrivileged(actor) {
		return nil, &AuthorizationError{Msg: "allocating items requires a privileged actor"}
	}

	request, err := s.requests.GetRequestWithItems(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "supply request", ID: requestID}
		}
		return nil, err
	}

	if !request.Status.Allocatable() {
		return nil, invalidStateErrorf("request %s is %s; items can only be allocated on approved or partially fulfilled requests",
			requestID, request.Status)
	}

	item := findItem(request.Items, itemID)
	if item == nil {
		return nil, &NotFoundError{Entity: "request item", ID: itemID}
	}

	if allocatedQuantity < 0 {
		return nil, validationErrorf("allocated quantity must not be negative")
	}
	if allocatedQuantity > item.Quantity {
		return nil, validationErrorf("allocated quantity %d exceeds requested quantity %d",
			allocatedQuantity, item.Quantity)
	}

	delta := allocatedQuantity - item.Allocated
	if delta == 0 {
		return item, nil
	}

	plan := repository.AllocationPlan{
		RequestID:      requestID,
		RequestVersion: request.Version,
		ItemID:         itemID,
		NewAllocated:   allocatedQuantity,
		NewStatus:      deriveStatusWith(request.Items, itemID, allocatedQuantity),
		HospitalID:     request.HospitalID,
		ActorID:        actor.UserID,
	}

	if autoSource {
		switch {
		case delta > 0:
			eligible, err := s.batches.ListEligibleBatches(ctx, request.HospitalID, item.SupplyCode, s.now())
			if err != nil {
				return nil, err
			}
			draws, available, ok := planDraws(filterEligible(eligible, s.now()), delta)
			if !ok {
				return nil, &InsufficientInventoryError{
					SupplyCode: item.SupplyCode,
					Requested:  delta,
					Available:  available,
				}
			}
			plan.Draws = draws
			plan.CapacityDelta = delta

		case delta < 0:
			fulfillments, err := s.requests.ListItemFulfillments(ctx, itemID)
			if err != nil {
				return nil, err
			}
			reversals, returned := planReversals(fulfillments, -delta)
			plan.Reversals = reversals
			plan.CapacityDelta = -returned
		}
	}

	if err := s.requests.ApplyAllocation(ctx, plan); err != nil {
		switch {
		case errors.Is(err, repository.ErrOptimisticLock):
			return nil, &ConcurrencyConflictError{Msg: fmt.Sprintf("request %s was modified concurrently", requestID)}
		case errors.Is(err, repository.ErrInsufficientStock):
			return nil, &ConcurrencyConflictError{Msg: "batch stock changed during allocation, retry with fresh state"}
		default:
			return nil, err
		}
	}

	actorID := actor.UserID
	_ = s.audit.CreateAuditLog(&actorID, "item_allocation",
		fmt.Sprintf("Set allocation of item %s on request %s to %d (auto-source: %t)",
			itemID, requestID, allocatedQuantity, autoSource))

	s.logger.Info("item allocated",
		zap.String("request_id", requestID),
		zap.String("item_id", itemID),
		zap.Int("allocated", allocatedQuantity),
		zap.Int("delta", delta),
		zap.String("status", string(plan.NewStatus)),
	)

	item.Allocated = allocatedQuantity
	return item, nil
}

// AutoAllocateRequest runs a best-effort sourcing pass over every outstanding
// item of a request, allocating as much as current inventory allows. Items
// that cannot be sourced are left for later allocation.
func (s *AllocationService) AutoAllocateRequest(ctx context.Context, actor Actor, requestID string) error {
	request, err := s.requests.GetRequestWithItems(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Entity: "supply request", ID: requestID}
		}
		return err
	}

	for _, item := range request.Items {
		if item.Outstanding() <= 0 {
			continue
		}

		eligible, err := s.batches.ListEligibleBatches(ctx, request.HospitalID, item.SupplyCode, s.now())
		if err != nil {
			s.logger.Warn("skipping item in auto-allocation pass",
				zap.String("item_id", item.ID), zap.Error(err))
			continue
		}

		available := 0
		for _, batch := range filterEligible(eligible, s.now()) {
			available += batch.Quantity
		}
		if available == 0 {
			continue
		}

		target := item.Allocated + min(item.Outstanding(), available)
		if _, err := s.AllocateItem(ctx, actor, requestID, item.ID, target); err != nil {
			s.logger.Warn("auto-allocation failed for item",
				zap.String("request_id", requestID),
				zap.String("item_id", item.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// ListAllocationCandidates lists unresolved items awaiting allocation,
// emergency requests first, then by priority and deadline
func (s *AllocationService) ListAllocationCandidates(ctx context.Context, f repository.CandidateFilter, page utils.PageParams) (*utils.PaginatedResponse, error) {
	return s.requests.ListAllocationCandidates(ctx, f, page)
}

func findItem(items []models.RequestItem, itemID string) *models.RequestItem {
	for i := range items {
		if items[i].ID == itemID {
			return &items[i]
		}
	}
	return nil
}

// deriveStatusWith recomputes the request status as if the given item held
// the new allocated quantity
func deriveStatusWith(items []models.RequestItem, itemID string, allocated int) models.RequestStatus {
	projected := make([]models.RequestItem, len(items))
	copy(projected, items)
	for i := range projected {
		if projected[i].ID == itemID {
			projected[i].Allocated = allocated
		}
	}
	return models.DeriveStatus(projected)
}

func filterEligible(batches []models.InventoryBatch, asOf time.Time) []models.InventoryBatch {
	eligible := batches[:0:0]
	for _, batch := range batches {
		if batch.Eligible(asOf) {
			eligible = append(eligible, batch)
		}
	}
	sortBatchesFEFO(eligible)
	return eligible
}

// sortBatchesFEFO orders batches earliest-expiring first, breaking ties on
// received date and then batch id for determinism
func sortBatchesFEFO(batches []models.InventoryBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		if !batches[i].ExpirationDate.Equal(batches[j].ExpirationDate) {
			return batches[i].ExpirationDate.Before(batches[j].ExpirationDate)
		}
		if !batches[i].ReceivedDate.Equal(batches[j].ReceivedDate) {
			return batches[i].ReceivedDate.Before(batches[j].ReceivedDate)
		}
		return batches[i].ID < batches[j].ID
	})
}

// planDraws walks FEFO-ordered batches accumulating draws until delta is
// covered. Returns ok=false with the total available when batches cannot
// cover the delta; no partial plan is returned in that case.
func planDraws(batches []models.InventoryBatch, delta int) ([]repository.BatchDraw, int, bool) {
	available := 0
	for _, batch := range batches {
		available += batch.Quantity
	}
	if available < delta {
		return nil, available, false
	}

	var draws []repository.BatchDraw
	remaining := delta
	for _, batch := range batches {
		if remaining == 0 {
			break
		}
		take := min(batch.Quantity, remaining)
		draws = append(draws, repository.BatchDraw{BatchID: batch.ID, Quantity: take})
		remaining -= take
	}
	return draws, available, true
}

// planReversals undoes recorded batch draws to cover a reduction, most recent
// draw first. Returns the reversals and the total quantity actually returned,
// which may be less than reduce when older allocations were made by manual
// override and left no fulfillment record.
func planReversals(fulfillments []models.ItemFulfillment, reduce int) ([]repository.FulfillmentReversal, int) {
	var reversals []repository.FulfillmentReversal
	returned := 0
	for _, f := range fulfillments {
		if returned >= reduce {
			break
		}
		take := min(f.Quantity, reduce-returned)
		reversals = append(reversals, repository.FulfillmentReversal{
			FulfillmentID: f.ID,
			BatchID:       f.BatchID,
			Quantity:      take,
			Remove:        take == f.Quantity,
		})
		returned += take
	}
	return reversals, returned
}
