package repository

import (
	"context"
	"errors"

	"medsupply-backend/internal/models"
	"medsupply-backend/pkg/utils"

	"gorm.io/gorm"
)

type SupplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepo(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// GetSupplierByID retrieves a supplier by ID
func (r *SupplierRepository) GetSupplierByID(ctx context.Context, id string) (*models.Supplier, error) {
	var supplier models.Supplier
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&supplier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &supplier, nil
}

// ListSuppliers retrieves a filtered, paginated page of suppliers
func (r *SupplierRepository) ListSuppliers(ctx context.Context, name, contactPerson string, page utils.PageParams) (*utils.PaginatedResponse, error) {
	tx := r.db.WithContext(ctx).Model(&models.Supplier{})
	if name != "" {
		tx = tx.Where("name LIKE ?", "%"+name+"%")
	}
	if contactPerson != "" {
		tx = tx.Where("contact_person LIKE ?", "%"+contactPerson+"%")
	}

	order := utils.OrderClause(page.Ordering, map[string]string{
		"name":          "name",
		"credit_rating": "credit_rating",
		"created_at":    "created_at",
	}, "name ASC")

	var suppliers []models.Supplier
	return utils.Paginate(tx.Order(order), page, &suppliers)
}

// CreateSupplier creates a new supplier
func (r *SupplierRepository) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

// UpdateSupplier updates an existing supplier
func (r *SupplierRepository) UpdateSupplier(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Save(supplier).Error
}
