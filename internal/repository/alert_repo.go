package repository

import (
	"context"
	"errors"

	"medsupply-backend/internal/models"
	"medsupply-backend/pkg/utils"

	"gorm.io/gorm"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepo(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// AlertFilter narrows alert listings
type AlertFilter struct {
	AlertType  string
	HospitalID string
	IsResolved *bool
}

// GetAlertByID retrieves an alert by ID
func (r *AlertRepository) GetAlertByID(ctx context.Context, id string) (*models.InventoryAlert, error) {
	var alert models.InventoryAlert
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// FindOpenAlert retrieves the open alert for a (hospital, type, subject)
// triple, where the subject is the supply and/or batch reference. Returns
// ErrNotFound when no open alert matches.
func (r *AlertRepository) FindOpenAlert(ctx context.Context, hospitalID string, alertType models.AlertType, supplyCode, batchID *string) (*models.InventoryAlert, error) {
	tx := r.db.WithContext(ctx).
		Where("hospital_id = ? AND alert_type = ? AND is_resolved = ?", hospitalID, alertType, false)
	if supplyCode != nil {
		tx = tx.Where("supply_code = ?", *supplyCode)
	} else {
		tx = tx.Where("supply_code IS NULL")
	}
	if batchID != nil {
		tx = tx.Where("batch_id = ?", *batchID)
	} else {
		tx = tx.Where("batch_id IS NULL")
	}

	var alert models.InventoryAlert
	err := tx.First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// ListOpenAlerts retrieves every open alert of one type
func (r *AlertRepository) ListOpenAlerts(ctx context.Context, alertType models.AlertType) ([]models.InventoryAlert, error) {
	var alerts []models.InventoryAlert
	err := r.db.WithContext(ctx).
		Where("alert_type = ? AND is_resolved = ?", alertType, false).
		Find(&alerts).Error
	return alerts, err
}

// ListAlerts retrieves a filtered, paginated page of alerts
func (r *AlertRepository) ListAlerts(ctx context.Context, f AlertFilter, page utils.PageParams) (*utils.PaginatedResponse, error) {
	tx := r.db.WithContext(ctx).Model(&models.InventoryAlert{}).Preload("Hospital").Preload("Supply")
	if f.AlertType != "" {
		tx = tx.Where("alert_type = ?", f.AlertType)
	}
	if f.HospitalID != "" {
		tx = tx.Where("hospital_id = ?", f.HospitalID)
	}
	if f.IsResolved != nil {
		tx = tx.Where("is_resolved = ?", *f.IsResolved)
	}

	order := utils.OrderClause(page.Ordering, map[string]string{
		"created_at": "created_at",
		"alert_type": "alert_type",
	}, "created_at DESC")

	var alerts []models.InventoryAlert
	return utils.Paginate(tx.Order(order), page, &alerts)
}

// CreateAlert creates a new alert
func (r *AlertRepository) CreateAlert(ctx context.Context, alert *models.InventoryAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

// UpdateAlert updates an existing alert
func (r *AlertRepository) UpdateAlert(ctx context.Context, alert *models.InventoryAlert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}
