package repository

import (
	"context"
	"errors"
	"time"

	"medsupply-backend/internal/models"
	"medsupply-backend/pkg/utils"

	"gorm.io/gorm"
)

type BatchRepository struct {
	db *gorm.DB
}

func NewBatchRepo(db *gorm.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// BatchFilter narrows batch listings
type BatchFilter struct {
	HospitalID         string
	SupplyCode         string
	ExpiringWithinDays int
}

// GetBatchByID retrieves a batch by ID
func (r *BatchRepository) GetBatchByID(ctx context.Context, id string) (*models.InventoryBatch, error) {
	var batch models.InventoryBatch
	err := r.db.WithContext(ctx).Preload("Supply").Where("id = ?", id).First(&batch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// ListBatches retrieves a filtered, paginated page of batches
func (r *BatchRepository) ListBatches(ctx context.Context, f BatchFilter, page utils.PageParams) (*utils.PaginatedResponse, error) {
	tx := r.db.WithContext(ctx).Model(&models.InventoryBatch{}).Preload("Supply")
	if f.HospitalID != "" {
		tx = tx.Where("hospital_id = ?", f.HospitalID)
	}
	if f.SupplyCode != "" {
		tx = tx.Where("supply_code = ?", f.SupplyCode)
	}
	if f.ExpiringWithinDays > 0 {
		cutoff := time.Now().AddDate(0, 0, f.ExpiringWithinDays)
		tx = tx.Where("expiration_date <= ?", cutoff)
	}

	order := utils.OrderClause(page.Ordering, map[string]string{
		"expiration_date": "expiration_date",
		"received_date":   "received_date",
		"quantity":        "quantity",
		"batch_number":    "batch_number",
	}, "expiration_date ASC")

	var batches []models.InventoryBatch
	return utils.Paginate(tx.Order(order), page, &batches)
}

// ListEligibleBatches retrieves batches that may source an allocation for the
// given hospital and supply, ordered earliest-expiring first with received
// date and batch id as deterministic tie-breaks
func (r *BatchRepository) ListEligibleBatches(ctx context.Context, hospitalID, supplyCode string, asOf time.Time) ([]models.InventoryBatch, error) {
	var batches []models.InventoryBatch
	err := r.db.WithContext(ctx).
		Where("hospital_id = ? AND supply_code = ?", hospitalID, supplyCode).
		Where("quality_check_passed = ? AND quantity > 0", true).
		Where("expiration_date >= ?", asOf).
		Order("expiration_date ASC, received_date ASC, id ASC").
		Find(&batches).Error
	return batches, err
}

// ReceiveBatch records a received lot and adds its quantity to the hospital's
// current capacity as one transaction. Fails with ErrCapacityExceeded when the
// receipt would push the hospital past its storage volume.
func (r *BatchRepository) ReceiveBatch(ctx context.Context, batch *models.InventoryBatch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Hospital{}).
			Where("id = ? AND current_capacity + ? <= storage_volume", batch.HospitalID, batch.Quantity).
			Update("current_capacity", gorm.Expr("current_capacity + ?", batch.Quantity))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCapacityExceeded
		}

		return tx.Create(batch).Error
	})
}

// SumUnexpiredStock sums unexpired batch quantity for a supply, grouped by
// hospital. Hospitals with no batches of the supply do not appear.
func (r *BatchRepository) SumUnexpiredStock(ctx context.Context, supplyCode string, asOf time.Time) (map[string]int, error) {
	type row struct {
		HospitalID string
		Total      int
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.InventoryBatch{}).
		Select("hospital_id, COALESCE(SUM(quantity), 0) AS total").
		Where("supply_code = ? AND expiration_date >= ?", supplyCode, asOf).
		Group("hospital_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int, len(rows))
	for _, r := range rows {
		totals[r.HospitalID] = r.Total
	}
	return totals, nil
}

// SumUnexpiredStockFor sums unexpired batch quantity for one (hospital, supply) pair
func (r *BatchRepository) SumUnexpiredStockFor(ctx context.Context, hospitalID, supplyCode string, asOf time.Time) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&models.InventoryBatch{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("hospital_id = ? AND supply_code = ? AND expiration_date >= ?", hospitalID, supplyCode, asOf).
		Scan(&total).Error
	return total, err
}

// ListExpiringBatches retrieves stocked batches expiring inside the warning window
func (r *BatchRepository) ListExpiringBatches(ctx context.Context, from, until time.Time) ([]models.InventoryBatch, error) {
	var batches []models.InventoryBatch
	err := r.db.WithContext(ctx).Preload("Supply").
		Where("quantity > 0 AND expiration_date >= ? AND expiration_date <= ?", from, until).
		Order("expiration_date ASC").
		Find(&batches).Error
	return batches, err
}
