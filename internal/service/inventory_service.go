package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medsupply-backend/internal/models"
	"medsupply-backend/internal/repository"
	"medsupply-backend/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BatchStore is the persistence surface for batch receipt and lookup
type BatchStore interface {
	GetBatchByID(ctx context.Context, id string) (*models.InventoryBatch, error)
	ListBatches(ctx context.Context, f repository.BatchFilter, page utils.PageParams) (*utils.PaginatedResponse, error)
	ReceiveBatch(ctx context.Context, batch *models.InventoryBatch) error
	SumUnexpiredStockFor(ctx context.Context, hospitalID, supplyCode string, asOf time.Time) (int, error)
}

// SupplierDirectory resolves suppliers referenced by batch receipts
type SupplierDirectory interface {
	GetSupplierByID(ctx context.Context, id string) (*models.Supplier, error)
}

// ReceiveBatchInput carries a batch receipt
type ReceiveBatchInput struct {
	BatchNumber        string              `json:"batch_number" binding:"required"`
	HospitalID         string              `json:"hospital_id" binding:"required"`
	SupplyCode         string              `json:"supply_code" binding:"required,unspsc"`
	Quantity           int                 `json:"quantity" binding:"required"`
	ProductionDate     time.Time           `json:"production_date" binding:"required"`
	ExpirationDate     time.Time           `json:"expiration_date" binding:"required"`
	ReceivedDate       time.Time           `json:"received_date"`
	StorageCondition   string              `json:"storage_condition"`
	UnitPrice          decimal.NullDecimal `json:"unit_price"`
	SupplierID         *string             `json:"supplier_id"`
	QualityCheckPassed *bool               `json:"quality_check_passed"`
	Notes              string              `json:"notes"`
}

// InventoryService handles batch receipt and stock lookups. Receipt is the
// only way quantity enters the system; consumption happens through allocation.
type InventoryService struct {
	batches   BatchStore
	supplies  SupplyCatalog
	hospitals HospitalDirectory
	suppliers SupplierDirectory
	audit     AuditLogger
	logger    *zap.Logger
	now       func() time.Time
}

func NewInventoryService(
	batches BatchStore,
	supplies SupplyCatalog,
	hospitals HospitalDirectory,
	suppliers SupplierDirectory,
	audit AuditLogger,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		batches:   batches,
		supplies:  supplies,
		hospitals: hospitals,
		suppliers: suppliers,
		audit:     audit,
		logger:    logger,
		now:       time.Now,
	}
}

// ReceiveBatch validates and records a received lot, charging its quantity
// against the hospital's storage capacity
func (s *InventoryService) ReceiveBatch(ctx context.Context, actor Actor, input ReceiveBatchInput) (*models.InventoryBatch, error) {
	if input.Quantity <= 0 {
		return nil, validationErrorf("batch quantity must be positive")
	}

	received := input.ReceivedDate
	if received.IsZero() {
		received = s.now()
	}
	if input.ProductionDate.After(received) {
		return nil, validationErrorf("production date must not be after received date")
	}
	if !input.ExpirationDate.After(received) {
		return nil, validationErrorf("expiration date must be after received date")
	}

	hospital, err := s.hospitals.GetHospitalByID(ctx, input.HospitalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "hospital", ID: input.HospitalID}
		}
		return nil, err
	}
	if !hospital.IsActive {
		return nil, invalidStateErrorf("hospital %s is deactivated and cannot receive stock", hospital.ID)
	}

	if _, err := s.supplies.GetSupplyByCode(ctx, input.SupplyCode); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "medical supply", ID: input.SupplyCode}
		}
		return nil, err
	}

	if input.SupplierID != nil {
		if _, err := s.suppliers.GetSupplierByID(ctx, *input.SupplierID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &NotFoundError{Entity: "supplier", ID: *input.SupplierID}
			}
			return nil, err
		}
	}

	qualityPassed := true
	if input.QualityCheckPassed != nil {
		qualityPassed = *input.QualityCheckPassed
	}

	receivedBy := actor.UserID
	batch := &models.InventoryBatch{
		BatchNumber:        input.BatchNumber,
		HospitalID:         input.HospitalID,
		SupplyCode:         input.SupplyCode,
		Quantity:           input.Quantity,
		ProductionDate:     input.ProductionDate,
		ExpirationDate:     input.ExpirationDate,
		ReceivedDate:       received,
		StorageCondition:   input.StorageCondition,
		ReceivedByID:       &receivedBy,
		UnitPrice:          input.UnitPrice,
		SupplierID:         input.SupplierID,
		QualityCheckPassed: qualityPassed,
		Notes:              input.Notes,
	}

	if err := s.batches.ReceiveBatch(ctx, batch); err != nil {
		if errors.Is(err, repository.ErrCapacityExceeded) {
			return nil, validationErrorf("receiving %d units would exceed the storage volume of hospital %s",
				input.Quantity, hospital.Name)
		}
		return nil, err
	}

	_ = s.audit.CreateAuditLog(&receivedBy, "batch_received",
		fmt.Sprintf("Received batch %s: %d units of %s at hospital %s",
			batch.BatchNumber, batch.Quantity, batch.SupplyCode, batch.HospitalID))

	s.logger.Info("batch received",
		zap.String("batch_id", batch.ID),
		zap.String("batch_number", batch.BatchNumber),
		zap.String("supply_code", batch.SupplyCode),
		zap.Int("quantity", batch.Quantity),
	)
	return batch, nil
}

// GetBatch loads one batch with its supply
func (s *InventoryService) GetBatch(ctx context.Context, id string) (*models.InventoryBatch, error) {
	batch, err := s.batches.GetBatchByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "inventory batch", ID: id}
		}
		return nil, err
	}
	return batch, nil
}

// ListBatches returns a page of batches matching the filter
func (s *InventoryService) ListBatches(ctx context.Context, f repository.BatchFilter, page utils.PageParams) (*utils.PaginatedResponse, error) {
	return s.batches.ListBatches(ctx, f, page)
}

// StockLevel reports the unexpired stock of one supply at one hospital
func (s *InventoryService) StockLevel(ctx context.Context, hospitalID, supplyCode string) (int, error) {
	return s.batches.SumUnexpiredStockFor(ctx, hospitalID, supplyCode, s.now())
}
