package service

import (
	"context"
	"errors"

	"medsupply-backend/internal/models"
	"medsupply-backend/internal/repository"
	"medsupply-backend/pkg/utils"

	"go.uber.org/zap"
)

// SupplyStore is the persistence surface for the supply catalog
type SupplyStore interface {
	GetSupplyByCode(ctx context.Context, code string) (*models.MedicalSupply, error)
	ListSupplies(ctx context.Context, f repository.SupplyFilter, page utils.PageParams) (*utils.PaginatedResponse, error)
	CreateSupply(ctx context.Context, supply *models.MedicalSupply) error
	UpdateSupply(ctx context.Context, supply *models.MedicalSupply) error
}

// SupplierStore is the persistence surface for supplier records
type SupplierStore interface {
	GetSupplierByID(ctx context.Context, id string) (*models.Supplier, error)
	ListSuppliers(ctx context.Context, name, contactPerson string, page utils.PageParams) (*utils.PaginatedResponse, error)
	CreateSupplier(ctx context.Context, supplier *models.Supplier) error
	UpdateSupplier(ctx context.Context, supplier *models.Supplier) error
}

// CatalogService manages the supply catalog and supplier directory
type CatalogService struct {
	supplies  SupplyStore
	suppliers SupplierStore
	logger    *zap.Logger
}

func NewCatalogService(supplies SupplyStore, suppliers SupplierStore, logger *zap.Logger) *CatalogService {
	return &CatalogService{supplies: supplies, suppliers: suppliers, logger: logger}
}

// GetSupply loads one supply by UNSPSC code
func (s *CatalogService) GetSupply(ctx context.Context, code string) (*models.MedicalSupply, error) {
	supply, err := s.supplies.GetSupplyByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "medical supply", ID: code}
		}
		return nil, err
	}
	return supply, nil
}

// ListSupplies returns a page of supplies matching the filter
func (s *CatalogService) ListSupplies(ctx context.Context, f repository.SupplyFilter, page utils.PageParams) (*utils.PaginatedResponse, error) {
	return s.supplies.ListSupplies(ctx, f, page)
}

// CreateSupply registers a catalog entry keyed by its UNSPSC code
func (s *CatalogService) CreateSupply(ctx context.Context, supply *models.MedicalSupply) (*models.MedicalSupply, error) {
	if supply.UNSPSCCode == "" {
		return nil, validationErrorf("unspsc_code is required")
	}
	if supply.ShelfLifeDays < 0 || supply.MinStockLevel < 0 {
		return nil, validationErrorf("shelf life and minimum stock level must not be negative")
	}
	if _, err := s.supplies.GetSupplyByCode(ctx, supply.UNSPSCCode); err == nil {
		return nil, validationErrorf("supply %s already exists", supply.UNSPSCCode)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if supply.SupplierID != nil {
		if _, err := s.suppliers.GetSupplierByID(ctx, *supply.SupplierID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &NotFoundError{Entity: "supplier", ID: *supply.SupplierID}
			}
			return nil, err
		}
	}

	if err := s.supplies.CreateSupply(ctx, supply); err != nil {
		return nil, err
	}
	s.logger.Info("supply created", zap.String("unspsc_code", supply.UNSPSCCode))
	return supply, nil
}

// UpdateSupply saves changes to an existing catalog entry
func (s *CatalogService) UpdateSupply(ctx context.Context, supply *models.MedicalSupply) (*models.MedicalSupply, error) {
	if _, err := s.supplies.GetSupplyByCode(ctx, supply.UNSPSCCode); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "medical supply", ID: supply.UNSPSCCode}
		}
		return nil, err
	}
	if supply.ShelfLifeDays < 0 || supply.MinStockLevel < 0 {
		return nil, validationErrorf("shelf life and minimum stock level must not be negative")
	}
	if err := s.supplies.UpdateSupply(ctx, supply); err != nil {
		return nil, err
	}
	return supply, nil
}

// GetSupplier loads one supplier
func (s *CatalogService) GetSupplier(ctx context.Context, id string) (*models.Supplier, error) {
	supplier, err := s.suppliers.GetSupplierByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "supplier", ID: id}
		}
		return nil, err
	}
	return supplier, nil
}

// ListSuppliers returns a page of suppliers matching the name filters
func (s *CatalogService) ListSuppliers(ctx context.Context, name, contactPerson string, page utils.PageParams) (*utils.PaginatedResponse, error) {
	return s.suppliers.ListSuppliers(ctx, name, contactPerson, page)
}

// CreateSupplier registers a supplier
func (s *CatalogService) CreateSupplier(ctx context.Context, supplier *models.Supplier) (*models.Supplier, error) {
	if supplier.Name == "" {
		return nil, validationErrorf("supplier name is required")
	}
	if supplier.CreditRating < 1 || supplier.CreditRating > 5 {
		return nil, validationErrorf("credit rating must be between 1 and 5")
	}
	if err := s.suppliers.CreateSupplier(ctx, supplier); err != nil {
		return nil, err
	}
	s.logger.Info("supplier created", zap.String("supplier_id", supplier.ID), zap.String("name", supplier.Name))
	return supplier, nil
}

// UpdateSupplier saves changes to an existing supplier
func (s *CatalogService) UpdateSupplier(ctx context.Context, supplier *models.Supplier) (*models.Supplier, error) {
	if _, err := s.suppliers.GetSupplierByID(ctx, supplier.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "supplier", ID: supplier.ID}
		}
		return nil, err
	}
	if supplier.CreditRating < 1 || supplier.CreditRating > 5 {
		return nil, validationErrorf("credit rating must be between 1 and 5")
	}
	if err := s.suppliers.UpdateSupplier(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}
