package repository

import (
	"context"
	"errors"

	"medsupply-backend/internal/models"
	"medsupply-backend/pkg/utils"

	"gorm.io/gorm"
)

type HospitalRepository struct {
	db *gorm.DB
}

func NewHospitalRepo(db *gorm.DB) *HospitalRepository {
	return &HospitalRepository{db: db}
}

// HospitalFilter narrows hospital listings
type HospitalFilter struct {
	Name   string
	Region string
	Level  int
}

// GetHospitalByID retrieves an active hospital by ID
func (r *HospitalRepository) GetHospitalByID(ctx context.Context, id string) (*models.Hospital, error) {
	var hospital models.Hospital
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&hospital).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &hospital, nil
}

// GetHospitalByOrgCode retrieves a hospital by its unique organisation code
func (r *HospitalRepository) GetHospitalByOrgCode(ctx context.Context, orgCode string) (*models.Hospital, error) {
	var hospital models.Hospital
	err := r.db.WithContext(ctx).Where("org_code = ?", orgCode).First(&hospital).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &hospital, nil
}

// ListHospitals retrieves a filtered, paginated page of hospitals
func (r *HospitalRepository) ListHospitals(ctx context.Context, f HospitalFilter, page utils.PageParams) (*utils.PaginatedResponse, error) {
	tx := r.db.WithContext(ctx).Model(&models.Hospital{})
	if f.Name != "" {
		tx = tx.Where("name LIKE ?", "%"+f.Name+"%")
	}
	if f.Region != "" {
		tx = tx.Where("region LIKE ?", "%"+f.Region+"%")
	}
	if f.Level > 0 {
		tx = tx.Where("level = ?", f.Level)
	}

	order := utils.OrderClause(page.Ordering, map[string]string{
		"name":             "name",
		"level":            "level",
		"region":           "region",
		"current_capacity": "current_capacity",
		"created_at":       "created_at",
	}, "name ASC")

	var hospitals []models.Hospital
	return utils.Paginate(tx.Order(order), page, &hospitals)
}

// ListActiveHospitals retrieves all active hospitals, used by the alert detector
func (r *HospitalRepository) ListActiveHospitals(ctx context.Context) ([]models.Hospital, error) {
	var hospitals []models.Hospital
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&hospitals).Error
	return hospitals, err
}

// CreateHospital creates a new hospital
func (r *HospitalRepository) CreateHospital(ctx context.Context, hospital *models.Hospital) error {
	return r.db.WithContext(ctx).Create(hospital).Error
}

// UpdateHospital updates an existing hospital
func (r *HospitalRepository) UpdateHospital(ctx context.Context, hospital *models.Hospital) error {
	return r.db.WithContext(ctx).Save(hospital).Error
}

// DeactivateHospital marks a hospital inactive without deleting its history
func (r *HospitalRepository) DeactivateHospital(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&models.Hospital{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
