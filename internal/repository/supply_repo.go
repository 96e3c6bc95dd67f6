package repository

import (
	"context"
	"errors"

	"medsupply-backend/internal/models"
	"medsupply-backend/pkg/utils"

	"gorm.io/gorm"
)

type SupplyRepository struct {
	db *gorm.DB
}

func NewSupplyRepo(db *gorm.DB) *SupplyRepository {
	return &SupplyRepository{db: db}
}

// SupplyFilter narrows supply listings
type SupplyFilter struct {
	Name         string
	Category     string
	IsControlled *bool
}

// GetSupplyByCode retrieves a supply by its UNSPSC code
func (r *SupplyRepository) GetSupplyByCode(ctx context.Context, code string) (*models.MedicalSupply, error) {
	var supply models.MedicalSupply
	err := r.db.WithContext(ctx).Where("unspsc_code = ?", code).First(&supply).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &supply, nil
}

// ListSupplies retrieves a filtered, paginated page of supplies
func (r *SupplyRepository) ListSupplies(ctx context.Context, f SupplyFilter, page utils.PageParams) (*utils.PaginatedResponse, error) {
	tx := r.db.WithContext(ctx).Model(&models.MedicalSupply{})
	if f.Name != "" {
		tx = tx.Where("name LIKE ?", "%"+f.Name+"%")
	}
	if f.Category != "" {
		tx = tx.Where("category = ?", f.Category)
	}
	if f.IsControlled != nil {
		tx = tx.Where("is_controlled = ?", *f.IsControlled)
	}

	order := utils.OrderClause(page.Ordering, map[string]string{
		"unspsc_code":     "unspsc_code",
		"name":            "name",
		"category":        "category",
		"min_stock_level": "min_stock_level",
		"created_at":      "created_at",
	}, "name ASC")

	var supplies []models.MedicalSupply
	return utils.Paginate(tx.Order(order), page, &supplies)
}

// ListAllSupplies retrieves every catalogued supply, used by the alert detector
func (r *SupplyRepository) ListAllSupplies(ctx context.Context) ([]models.MedicalSupply, error) {
	var supplies []models.MedicalSupply
	err := r.db.WithContext(ctx).Order("unspsc_code ASC").Find(&supplies).Error
	return supplies, err
}

// CreateSupply creates a new supply catalogue entry
func (r *SupplyRepository) CreateSupply(ctx context.Context, supply *models.MedicalSupply) error {
	return r.db.WithContext(ctx).Create(supply).Error
}

// UpdateSupply updates an existing supply catalogue entry
func (r *SupplyRepository) UpdateSupply(ctx context.Context, supply *models.MedicalSupply) error {
	return r.db.WithContext(ctx).Save(supply).Error
}
