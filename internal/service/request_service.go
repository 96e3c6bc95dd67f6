package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medsupply-backend/internal/models"
	"medsupply-backend/internal/repository"
	"medsupply-backend/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestStore is the persistence surface the request workflow needs
type RequestStore interface {
	CreateRequest(ctx context.Context, request *models.SupplyRequest) error
	GetRequestWithItems(ctx context.Context, id string) (*models.SupplyRequest, error)
	ListRequests(ctx context.Context, f repository.RequestFilter, page utils.PageParams) (*utils.PaginatedResponse, error)
	TransitionStatus(ctx context.Context, t repository.StatusTransition) error
}

// SupplyCatalog resolves supply codes referenced by request items
type SupplyCatalog interface {
	GetSupplyByCode(ctx context.Context, code string) (*models.MedicalSupply, error)
}

// HospitalDirectory resolves hospitals referenced by requests
type HospitalDirectory interface {
	GetHospitalByID(ctx context.Context, id string) (*models.Hospital, error)
}

// IdempotencyStore deduplicates submissions carrying a client token
type IdempotencyStore interface {
	// ClaimIdempotencyKey returns the request id already bound to the key, or
	// binds the key to requestID and returns "" when the key is fresh.
	ClaimIdempotencyKey(ctx context.Context, key, requestID string) (string, error)
}

// SubmitItemInput is one requested line of a submission
type SubmitItemInput struct {
	SupplyCode string `json:"supply_code" binding:"required,unspsc"`
	Quantity   int    `json:"quantity" binding:"required"`
}

// SubmitRequestInput carries a new supply request
type SubmitRequestInput struct {
	HospitalID     string            `json:"hospital_id" binding:"required"`
	Priority       int               `json:"priority"`
	Emergency      bool              `json:"emergency"`
	RequiredBy     time.Time         `json:"required_by" binding:"required"`
	Comments       string            `json:"comments"`
	Items          []SubmitItemInput `json:"items" binding:"required"`
	IdempotencyKey string            `json:"idempotency_key"`
}

// RequestService owns the supply request lifecycle from submission through
// approval or rejection. Fulfillment state beyond approval is derived from
// item allocations, never set directly.
type RequestService struct {
	requests  RequestStore
	supplies  SupplyCatalog
	hospitals HospitalDirectory
	idem      IdempotencyStore
	allocator *AllocationService
	audit     AuditLogger
	gate      AuthorizationGate
	logger    *zap.Logger
	now       func() time.Time
}

func NewRequestService(
	requests RequestStore,
	supplies SupplyCatalog,
	hospitals HospitalDirectory,
	idem IdempotencyStore,
	allocator *AllocationService,
	audit AuditLogger,
	gate AuthorizationGate,
	logger *zap.Logger,
) *RequestService {
	return &RequestService{
		requests:  requests,
		supplies:  supplies,
		hospitals: hospitals,
		idem:      idem,
		allocator: allocator,
		audit:     audit,
		gate:      gate,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit validates and persists a new request in pending status. When the
// input carries an idempotency key that was already used, the previously
// created request is returned instead of a duplicate.
func (s *RequestService) Submit(ctx context.Context, actor Actor, input SubmitRequestInput) (*models.SupplyRequest, error) {
	if len(input.Items) == 0 {
		return nil, validationErrorf("a request must contain at least one item")
	}
	if input.RequiredBy.Before(s.now()) {
		return nil, validationErrorf("required_by must not be in the past")
	}
	if input.Priority < 0 {
		return nil, validationErrorf("priority must not be negative")
	}

	if _, err := s.hospitals.GetHospitalByID(ctx, input.HospitalID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "hospital", ID: input.HospitalID}
		}
		return nil, err
	}

	seen := make(map[string]bool, len(input.Items))
	items := make([]models.RequestItem, 0, len(input.Items))
	for i, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, validationErrorf("item %s: quantity must be positive", line.SupplyCode)
		}
		if seen[line.SupplyCode] {
			return nil, validationErrorf("item %s: duplicate supply code", line.SupplyCode)
		}
		seen[line.SupplyCode] = true

		if _, err := s.supplies.GetSupplyByCode(ctx, line.SupplyCode); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &NotFoundError{Entity: "medical supply", ID: line.SupplyCode}
			}
			return nil, err
		}

		items = append(items, models.RequestItem{
			SupplyCode: line.SupplyCode,
			Quantity:   line.Quantity,
			Position:   i,
		})
	}

	request := &models.SupplyRequest{
		ID:          uuid.NewString(),
		HospitalID:  input.HospitalID,
		Status:      models.StatusPending,
		Priority:    input.Priority,
		Emergency:   input.Emergency,
		RequiredBy:  input.RequiredBy,
		Comments:    input.Comments,
		RequesterID: actor.UserID,
		Items:       items,
	}

	// claim the key before persisting anything, so a retry can never leave a
	// second pending row behind
	if input.IdempotencyKey != "" && s.idem != nil {
		existing, err := s.idem.ClaimIdempotencyKey(ctx, input.IdempotencyKey, request.ID)
		if err != nil {
			s.logger.Warn("idempotency check unavailable, continuing",
				zap.String("key", input.IdempotencyKey), zap.Error(err))
		} else if existing != "" {
			prior, err := s.requests.GetRequestWithItems(ctx, existing)
			if err == nil {
				s.logger.Info("duplicate submission collapsed by idempotency key",
					zap.String("key", input.IdempotencyKey),
					zap.String("request_id", existing))
				return prior, nil
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			// the key points at a request that never persisted; create ours
		}
	}

	if err := s.requests.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	actorID := actor.UserID
	_ = s.audit.CreateAuditLog(&actorID, "request_submitted",
		fmt.Sprintf("Submitted supply request %s for hospital %s with %d items",
			request.ID, request.HospitalID, len(items)))

	s.logger.Info("supply request submitted",
		zap.String("request_id", request.ID),
		zap.String("hospital_id", request.HospitalID),
		zap.Bool("emergency", request.Emergency),
		zap.Int("items", len(items)),
	)
	return request, nil
}

// Get loads a request with its items in submission order
func (s *RequestService) Get(ctx context.Context, id string) (*models.SupplyRequest, error) {
	request, err := s.requests.GetRequestWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "supply request", ID: id}
		}
		return nil, err
	}
	return request, nil
}

// List returns a page of requests matching the filter
func (s *RequestService) List(ctx context.Context, f repository.RequestFilter, page utils.PageParams) (*utils.PaginatedResponse, error) {
	return s.requests.ListRequests(ctx, f, page)
}

// Approve moves a pending request to approved and immediately runs a
// best-effort allocation pass over its items. Sourcing failures during that
// pass do not fail the approval.
func (s *RequestService) Approve(ctx context.Context, actor Actor, requestID, comments string) (*models.SupplyRequest, error) {
	request, err := s.transition(ctx, actor, requestID, models.StatusApproved, comments)
	if err != nil {
		return nil, err
	}

	if err := s.allocator.AutoAllocateRequest(ctx, actor, requestID); err != nil {
		s.logger.Warn("post-approval allocation pass failed",
			zap.String("request_id", requestID), zap.Error(err))
	}
	return s.requests.GetRequestWithItems(ctx, request.ID)
}

// Reject moves a pending request to rejected. Rejected is terminal.
func (s *RequestService) Reject(ctx context.Context, actor Actor, requestID, comments string) (*models.SupplyRequest, error) {
	return s.transition(ctx, actor, requestID, models.StatusRejected, comments)
}

func (s *RequestService) transition(ctx context.Context, actor Actor, requestID string, to models.RequestStatus, comments string) (*models.SupplyRequest, error) {
	if !s.gate.IsPrivileged(actor) {
		return nil, &AuthorizationError{Msg: fmt.Sprintf("only a privileged actor may move a request to %s", to)}
	}

	request, err := s.requests.GetRequestWithItems(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "supply request", ID: requestID}
		}
		return nil, err
	}

	if request.Status != models.StatusPending {
		return nil, invalidStateErrorf("request %s is %s; only pending requests can be %s",
			requestID, request.Status, to)
	}

	approvalTime := s.now()
	approverID := actor.UserID
	err = s.requests.TransitionStatus(ctx, repository.StatusTransition{
		RequestID:    requestID,
		From:         models.StatusPending,
		To:           to,
		Version:      request.Version,
		ApproverID:   &approverID,
		ApprovalTime: &approvalTime,
		Comments:     comments,
	})
	if err != nil {
		if errors.Is(err, repository.ErrOptimisticLock) {
			return nil, &ConcurrencyConflictError{Msg: fmt.Sprintf("request %s was decided concurrently", requestID)}
		}
		return nil, err
	}

	_ = s.audit.CreateAuditLog(&approverID, "request_"+string(to),
		fmt.Sprintf("Request %s moved to %s", requestID, to))

	s.logger.Info("request decided",
		zap.String("request_id", requestID),
		zap.String("status", string(to)),
		zap.Uint("approver_id", approverID),
	)

	request.Status = to
	request.ApproverID = &approverID
	request.ApprovalTime = &approvalTime
	if comments != "" {
		request.Comments = comments
	}
	request.Version++
	return request, nil
}
