package repository

import (
	"context"
	"time"

	"medsupply-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardRepository runs the aggregate queries behind the read projections.
// Every method is a pure read.
type DashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepo(db *gorm.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// CategoryCount is the number of supplies in one category
type CategoryCount struct {
	Category models.SupplyCategory `json:"category"`
	Count    int64                 `json:"count"`
}

// LevelCount is the number of hospitals at one level
type LevelCount struct {
	Level int   `json:"level"`
	Count int64 `json:"count"`
}

// StatusCount is the number of requests in one status
type StatusCount struct {
	Status models.RequestStatus `json:"status"`
	Count  int64                `json:"count"`
}

// TrendPoint is one day's alert count for one alert type
type TrendPoint struct {
	Day       string           `json:"day"`
	AlertType models.AlertType `json:"alert_type"`
	Count     int64            `json:"count"`
}

// FulfillmentPoint is one day's request totals by submission date
type FulfillmentPoint struct {
	Day       string `json:"day"`
	Total     int64  `json:"total"`
	Fulfilled int64  `json:"fulfilled"`
}

// CapacityAggregate sums storage volume and usage across hospitals
type CapacityAggregate struct {
	TotalCapacity decimal.Decimal `json:"total_capacity"`
	CurrentUsage  decimal.Decimal `json:"current_usage"`
}

// CapacityRank is one hospital's storage usage, for ranking
type CapacityRank struct {
	HospitalID      string          `json:"hospital_id"`
	Name            string          `json:"name"`
	StorageVolume   decimal.Decimal `json:"storage_volume"`
	CurrentCapacity decimal.Decimal `json:"current_capacity"`
	UsageRatio      decimal.Decimal `json:"usage_ratio"`
}

// CountSuppliesByCategory counts catalogued supplies per category
func (r *DashboardRepository) CountSuppliesByCategory(ctx context.Context) ([]CategoryCount, error) {
	var counts []CategoryCount
	err := r.db.WithContext(ctx).Model(&models.MedicalSupply{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Scan(&counts).Error
	return counts, err
}

// CountSupplies returns total and controlled supply counts
func (r *DashboardRepository) CountSupplies(ctx context.Context) (total, controlled int64, err error) {
	if err = r.db.WithContext(ctx).Model(&models.MedicalSupply{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = r.db.WithContext(ctx).Model(&models.MedicalSupply{}).
		Where("is_controlled = ?", true).Count(&controlled).Error
	return total, controlled, err
}

// CountLowStockSupplies counts supplies whose network-wide unexpired stock is
// below their minimum stock level
func (r *DashboardRepository) CountLowStockSupplies(ctx context.Context, asOf time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM medical_supplies s
		WHERE (
			SELECT COALESCE(SUM(b.quantity), 0)
			FROM inventory_batches b
			WHERE b.supply_code = s.unspsc_code AND b.expiration_date >= ?
		) < s.min_stock_level`, asOf).Scan(&count).Error
	return count, err
}

// CountHospitalsByLevel counts hospitals per level
func (r *DashboardRepository) CountHospitalsByLevel(ctx context.Context) ([]LevelCount, error) {
	var counts []LevelCount
	err := r.db.WithContext(ctx).Model(&models.Hospital{}).
		Select("level, COUNT(*) AS count").
		Group("level").
		Order("level DESC").
		Scan(&counts).Error
	return counts, err
}

// CountHospitals returns total and active hospital counts
func (r *DashboardRepository) CountHospitals(ctx context.Context) (total, active int64, err error) {
	if err = r.db.WithContext(ctx).Model(&models.Hospital{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = r.db.WithContext(ctx).Model(&models.Hospital{}).
		Where("is_active = ?", true).Count(&active).Error
	return total, active, err
}

// AggregateCapacity sums storage volume and current usage across all hospitals
func (r *DashboardRepository) AggregateCapacity(ctx context.Context) (*CapacityAggregate, error) {
	var agg CapacityAggregate
	err := r.db.WithContext(ctx).Model(&models.Hospital{}).
		Select("COALESCE(SUM(storage_volume), 0) AS total_capacity, COALESCE(SUM(current_capacity), 0) AS current_usage").
		Scan(&agg).Error
	return &agg, err
}

// CapacityRanking lists active hospitals ordered by storage usage ratio,
// fullest first. Hospitals with no declared storage volume rank last.
func (r *DashboardRepository) CapacityRanking(ctx context.Context, limit int) ([]CapacityRank, error) {
	var ranks []CapacityRank
	err := r.db.WithContext(ctx).Model(&models.Hospital{}).
		Select("id AS hospital_id, name, storage_volume, current_capacity, " +
			"CASE WHEN storage_volume > 0 THEN current_capacity / storage_volume ELSE 0 END AS usage_ratio").
		Where("is_active = ?", true).
		Order("usage_ratio DESC").
		Limit(limit).
		Scan(&ranks).Error
	return ranks, err
}

// CountRequestsByStatus counts requests per lifecycle status
func (r *DashboardRepository) CountRequestsByStatus(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	err := r.db.WithContext(ctx).Model(&models.SupplyRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error
	return counts, err
}

// CountRequests returns total, emergency and pending-approval request counts
func (r *DashboardRepository) CountRequests(ctx context.Context) (total, emergency, pending int64, err error) {
	if err = r.db.WithContext(ctx).Model(&models.SupplyRequest{}).Count(&total).Error; err != nil {
		return 0, 0, 0, err
	}
	if err = r.db.WithContext(ctx).Model(&models.SupplyRequest{}).
		Where("emergency = ?", true).Count(&emergency).Error; err != nil {
		return 0, 0, 0, err
	}
	err = r.db.WithContext(ctx).Model(&models.SupplyRequest{}).
		Where("status = ?", models.StatusPending).Count(&pending).Error
	return total, emergency, pending, err
}

// CountAlerts returns total and unresolved alert counts
func (r *DashboardRepository) CountAlerts(ctx context.Context) (total, unresolved int64, err error) {
	if err = r.db.WithContext(ctx).Model(&models.InventoryAlert{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = r.db.WithContext(ctx).Model(&models.InventoryAlert{}).
		Where("is_resolved = ?", false).Count(&unresolved).Error
	return total, unresolved, err
}

// RecentAlerts retrieves the most recently raised alerts
func (r *DashboardRepository) RecentAlerts(ctx context.Context, limit int) ([]models.InventoryAlert, error) {
	var alerts []models.InventoryAlert
	err := r.db.WithContext(ctx).
		Preload("Hospital").Preload("Supply").
		Order("created_at DESC").
		Limit(limit).
		Find(&alerts).Error
	return alerts, err
}

// AlertTrend counts alerts per day per type since the given date
func (r *DashboardRepository) AlertTrend(ctx context.Context, since time.Time) ([]TrendPoint, error) {
	var points []TrendPoint
	err := r.db.WithContext(ctx).Model(&models.InventoryAlert{}).
		Select("DATE_FORMAT(created_at, '%Y-%m-%d') AS day, alert_type, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("day, alert_type").
		Order("day ASC").
		Scan(&points).Error
	return points, err
}

// FulfillmentSeries counts requests and fulfilled requests per submission day
// since the given date
func (r *DashboardRepository) FulfillmentSeries(ctx context.Context, since time.Time) ([]FulfillmentPoint, error) {
	var points []FulfillmentPoint
	err := r.db.WithContext(ctx).Model(&models.SupplyRequest{}).
		Select("DATE_FORMAT(request_time, '%Y-%m-%d') AS day, COUNT(*) AS total, SUM(status = ?) AS fulfilled", models.StatusFulfilled).
		Where("request_time >= ?", since).
		Group("day").
		Order("day ASC").
		Scan(&points).Error
	return points, err
}
