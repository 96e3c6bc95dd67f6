package service

import (
	"context"
	"time"

	"medsupply-backend/internal/models"
	"medsupply-backend/internal/repository"

	"github.com/shopspring/decimal"
)

// SupplyOverview summarizes the catalog
type SupplyOverview struct {
	Total      int64                      `json:"total"`
	Controlled int64                      `json:"controlled"`
	LowStock   int64                      `json:"low_stock"`
	ByCategory []repository.CategoryCount `json:"by_category"`
}

// HospitalOverview summarizes participating facilities and their storage
type HospitalOverview struct {
	Total         int64                     `json:"total"`
	Active        int64                     `json:"active"`
	TotalCapacity decimal.Decimal           `json:"total_capacity"`
	CurrentUsage  decimal.Decimal           `json:"current_usage"`
	UsageRatio    decimal.Decimal           `json:"usage_ratio"`
	ByLevel       []repository.LevelCount   `json:"by_level"`
	TopUsage      []repository.CapacityRank `json:"top_usage"`
}

// RequestOverview summarizes the request pipeline
type RequestOverview struct {
	Total     int64                    `json:"total"`
	Emergency int64                    `json:"emergency"`
	Pending   int64                    `json:"pending"`
	ByStatus  []repository.StatusCount `json:"by_status"`
}

// AlertOverview summarizes alert state and recent history
type AlertOverview struct {
	Total      int64                   `json:"total"`
	Unresolved int64                   `json:"unresolved"`
	Recent     []models.InventoryAlert `json:"recent"`
}

// DashboardService assembles read-only aggregate views
type DashboardService struct {
	repo *repository.DashboardRepository
	now  func() time.Time
}

func NewDashboardService(repo *repository.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo, now: time.Now}
}

func (s *DashboardService) SupplyOverview(ctx context.Context) (*SupplyOverview, error) {
	total, controlled, err := s.repo.CountSupplies(ctx)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.repo.CountLowStockSupplies(ctx, s.now())
	if err != nil {
		return nil, err
	}
	byCategory, err := s.repo.CountSuppliesByCategory(ctx)
	if err != nil {
		return nil, err
	}
	return &SupplyOverview{
		Total:      total,
		Controlled: controlled,
		LowStock:   lowStock,
		ByCategory: byCategory,
	}, nil
}

func (s *DashboardService) HospitalOverview(ctx context.Context) (*HospitalOverview, error) {
	total, active, err := s.repo.CountHospitals(ctx)
	if err != nil {
		return nil, err
	}
	capacity, err := s.repo.AggregateCapacity(ctx)
	if err != nil {
		return nil, err
	}
	byLevel, err := s.repo.CountHospitalsByLevel(ctx)
	if err != nil {
		return nil, err
	}
	topUsage, err := s.repo.CapacityRanking(ctx, 10)
	if err != nil {
		return nil, err
	}

	ratio := decimal.Zero
	if capacity.TotalCapacity.IsPositive() {
		ratio = capacity.CurrentUsage.DivRound(capacity.TotalCapacity, 4)
	}
	return &HospitalOverview{
		Total:         total,
		Active:        active,
		TotalCapacity: capacity.TotalCapacity,
		CurrentUsage:  capacity.CurrentUsage,
		UsageRatio:    ratio,
		ByLevel:       byLevel,
		TopUsage:      topUsage,
	}, nil
}

func (s *DashboardService) RequestOverview(ctx context.Context) (*RequestOverview, error) {
	total, emergency, pending, err := s.repo.CountRequests(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.repo.CountRequestsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &RequestOverview{
		Total:     total,
		Emergency: emergency,
		Pending:   pending,
		ByStatus:  byStatus,
	}, nil
}

func (s *DashboardService) AlertOverview(ctx context.Context, recentLimit int) (*AlertOverview, error) {
	total, unresolved, err := s.repo.CountAlerts(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.RecentAlerts(ctx, recentLimit)
	if err != nil {
		return nil, err
	}
	return &AlertOverview{
		Total:      total,
		Unresolved: unresolved,
		Recent:     recent,
	}, nil
}

// AlertTrend returns per-day alert counts by type over the trailing window
func (s *DashboardService) AlertTrend(ctx context.Context, days int) ([]repository.TrendPoint, error) {
	since := s.now().AddDate(0, 0, -days)
	return s.repo.AlertTrend(ctx, since)
}

// FulfillmentTrend returns per-day request totals and fulfilled counts over
// the trailing window
func (s *DashboardService) FulfillmentTrend(ctx context.Context, days int) ([]repository.FulfillmentPoint, error) {
	since := s.now().AddDate(0, 0, -days)
	return s.repo.FulfillmentSeries(ctx, since)
}
