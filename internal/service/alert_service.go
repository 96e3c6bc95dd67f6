package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medsupply-backend/internal/models"
	"medsupply-backend/internal/repository"
	"medsupply-backend/pkg/utils"

	"go.uber.org/zap"
)

// AlertStore is the persistence surface the detector needs
type AlertStore interface {
	GetAlertByID(ctx context.Context, id string) (*models.InventoryAlert, error)
	FindOpenAlert(ctx context.Context, hospitalID string, alertType models.AlertType, supplyCode, batchID *string) (*models.InventoryAlert, error)
	ListOpenAlerts(ctx context.Context, alertType models.AlertType) ([]models.InventoryAlert, error)
	ListAlerts(ctx context.Context, f repository.AlertFilter, page utils.PageParams) (*utils.PaginatedResponse, error)
	CreateAlert(ctx context.Context, alert *models.InventoryAlert) error
	UpdateAlert(ctx context.Context, alert *models.InventoryAlert) error
}

// StockReader reads batch-level stock for alert evaluation
type StockReader interface {
	SumUnexpiredStock(ctx context.Context, supplyCode string, asOf time.Time) (map[string]int, error)
	ListExpiringBatches(ctx context.Context, from, until time.Time) ([]models.InventoryBatch, error)
	GetBatchByID(ctx context.Context, id string) (*models.InventoryBatch, error)
}

// SupplyLister enumerates the catalog for the low-stock sweep
type SupplyLister interface {
	ListAllSupplies(ctx context.Context) ([]models.MedicalSupply, error)
}

// HospitalLister enumerates hospitals for capacity and stock sweeps
type HospitalLister interface {
	ListActiveHospitals(ctx context.Context) ([]models.Hospital, error)
}

// EvaluationSummary reports one detector sweep
type EvaluationSummary struct {
	Opened   int `json:"opened"`
	Resolved int `json:"resolved"`
}

// AlertService derives inventory warnings from current stock state. A sweep
// is idempotent: at most one open alert exists per (hospital, type, subject),
// and alerts whose condition cleared are resolved automatically. Expiring
// batch alerts are the exception, they only resolve when the batch is drawn
// down to zero or an operator resolves them.
type AlertService struct {
	alerts       AlertStore
	stock        StockReader
	supplies     SupplyLister
	hospitals    HospitalLister
	gate         AuthorizationGate
	logger       *zap.Logger
	expiryWindow time.Duration
	now          func() time.Time
}

func NewAlertService(
	alerts AlertStore,
	stock StockReader,
	supplies SupplyLister,
	hospitals HospitalLister,
	gate AuthorizationGate,
	logger *zap.Logger,
	expiryWarningDays int,
) *AlertService {
	return &AlertService{
		alerts:       alerts,
		stock:        stock,
		supplies:     supplies,
		hospitals:    hospitals,
		gate:         gate,
		logger:       logger,
		expiryWindow: time.Duration(expiryWarningDays) * 24 * time.Hour,
		now:          time.Now,
	}
}

// EvaluateAll runs every detector rule once and returns how many alerts were
// opened and resolved. Failures on individual entities are logged and skipped
// so one bad row never cancels the rest of the sweep.
func (s *AlertService) EvaluateAll(ctx context.Context) (*EvaluationSummary, error) {
	summary := &EvaluationSummary{}

	hospitals, err := s.hospitals.ListActiveHospitals(ctx)
	if err != nil {
		return nil, err
	}

	s.evaluateLowStock(ctx, hospitals, summary)
	s.evaluateExpiring(ctx, summary)
	s.evaluateCapacity(ctx, hospitals, summary)

	s.logger.Info("alert sweep complete",
		zap.Int("opened", summary.Opened),
		zap.Int("resolved", summary.Resolved),
	)
	return summary, nil
}

// evaluateLowStock opens a low_stock alert for every (hospital, supply) pair
// whose unexpired stock sits below the supply's minimum level, and resolves
// open ones whose stock recovered
func (s *AlertService) evaluateLowStock(ctx context.Context, hospitals []models.Hospital, summary *EvaluationSummary) {
	supplies, err := s.supplies.ListAllSupplies(ctx)
	if err != nil {
		s.logger.Error("low stock sweep skipped, catalog unavailable", zap.Error(err))
		return
	}

	asOf := s.now()
	stockBySupply := make(map[string]map[string]int, len(supplies))

	for _, supply := range supplies {
		if supply.MinStockLevel <= 0 {
			continue
		}
		byHospital, err := s.stock.SumUnexpiredStock(ctx, supply.UNSPSCCode, asOf)
		if err != nil {
			s.logger.Error("low stock check skipped for supply",
				zap.String("supply_code", supply.UNSPSCCode), zap.Error(err))
			continue
		}
		stockBySupply[supply.UNSPSCCode] = byHospital

		for _, hospital := range hospitals {
			stock := byHospital[hospital.ID]
			if stock >= supply.MinStockLevel {
				continue
			}
			code := supply.UNSPSCCode
			opened, err := s.openIfAbsent(ctx, &models.InventoryAlert{
				HospitalID: hospital.ID,
				SupplyCode: &code,
				AlertType:  models.AlertLowStock,
				Message: fmt.Sprintf("%s stock at %s is %d, below minimum level %d",
					supply.Name, hospital.Name, stock, supply.MinStockLevel),
			})
			if err != nil {
				s.logger.Error("low stock alert not recorded",
					zap.String("hospital_id", hospital.ID),
					zap.String("supply_code", code), zap.Error(err))
				continue
			}
			if opened {
				summary.Opened++
			}
		}
	}

	// resolve recovered low-stock alerts
	open, err := s.alerts.ListOpenAlerts(ctx, models.AlertLowStock)
	if err != nil {
		s.logger.Error("low stock resolution pass skipped", zap.Error(err))
		return
	}
	minLevels := make(map[string]int, len(supplies))
	for _, supply := range supplies {
		minLevels[supply.UNSPSCCode] = supply.MinStockLevel
	}
	for i := range open {
		alert := &open[i]
		if alert.SupplyCode == nil {
			continue
		}
		byHospital, ok := stockBySupply[*alert.SupplyCode]
		if !ok {
			byHospital, err = s.stock.SumUnexpiredStock(ctx, *alert.SupplyCode, asOf)
			if err != nil {
				s.logger.Error("low stock recovery check skipped",
					zap.String("alert_id", alert.ID), zap.Error(err))
				continue
			}
		}
		if byHospital[alert.HospitalID] >= minLevels[*alert.SupplyCode] {
			if err := s.autoResolve(ctx, alert, "stock recovered above minimum level"); err != nil {
				s.logger.Error("low stock alert not resolved",
					zap.String("alert_id", alert.ID), zap.Error(err))
				continue
			}
			summary.Resolved++
		}
	}
}

// evaluateExpiring opens an expiring_batch alert for every stocked batch
// expiring within the warning window, and resolves open ones whose batch has
// been drawn down to zero. Passing the expiration date alone never resolves
// an alert; expired stock still needs handling.
func (s *AlertService) evaluateExpiring(ctx context.Context, summary *EvaluationSummary) {
	from := s.now()
	until := from.Add(s.expiryWindow)

	batches, err := s.stock.ListExpiringBatches(ctx, from, until)
	if err != nil {
		s.logger.Error("expiring batch scan skipped", zap.Error(err))
		batches = nil
	}
	for _, batch := range batches {
		if batch.Quantity <= 0 {
			continue
		}
		batchID := batch.ID
		code := batch.SupplyCode
		opened, err := s.openIfAbsent(ctx, &models.InventoryAlert{
			HospitalID: batch.HospitalID,
			SupplyCode: &code,
			BatchID:    &batchID,
			AlertType:  models.AlertExpiringBatch,
			Message: fmt.Sprintf("batch %s of %s expires on %s with %d units remaining",
				batch.BatchNumber, batch.SupplyCode,
				batch.ExpirationDate.Format("2006-01-02"), batch.Quantity),
		})
		if err != nil {
			s.logger.Error("expiring batch alert not recorded",
				zap.String("batch_id", batchID), zap.Error(err))
			continue
		}
		if opened {
			summary.Opened++
		}
	}

	open, err := s.alerts.ListOpenAlerts(ctx, models.AlertExpiringBatch)
	if err != nil {
		s.logger.Error("expiring batch resolution pass skipped", zap.Error(err))
		return
	}
	for i := range open {
		alert := &open[i]
		if alert.BatchID == nil {
			continue
		}
		batch, err := s.stock.GetBatchByID(ctx, *alert.BatchID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				s.logger.Error("expiring batch drawdown check skipped",
					zap.String("alert_id", alert.ID), zap.Error(err))
			}
			continue
		}
		if batch.Quantity <= 0 {
			if err := s.autoResolve(ctx, alert, "batch stock fully drawn down"); err != nil {
				s.logger.Error("expiring batch alert not resolved",
					zap.String("alert_id", alert.ID), zap.Error(err))
				continue
			}
			summary.Resolved++
		}
	}
}

// evaluateCapacity opens an over_capacity alert for every hospital whose
// usage ratio reached its warning threshold, and resolves open ones that
// dropped back under
func (s *AlertService) evaluateCapacity(ctx context.Context, hospitals []models.Hospital, summary *EvaluationSummary) {
	over := make(map[string]bool, len(hospitals))
	for _, hospital := range hospitals {
		if !hospital.OverThreshold() {
			continue
		}
		over[hospital.ID] = true
		opened, err := s.openIfAbsent(ctx, &models.InventoryAlert{
			HospitalID: hospital.ID,
			AlertType:  models.AlertOverCapacity,
			Message: fmt.Sprintf("%s storage usage %s of %s reached warning threshold %s",
				hospital.Name, hospital.CurrentCapacity.String(),
				hospital.StorageVolume.String(), hospital.WarningThreshold.String()),
		})
		if err != nil {
			s.logger.Error("over capacity alert not recorded",
				zap.String("hospital_id", hospital.ID), zap.Error(err))
			continue
		}
		if opened {
			summary.Opened++
		}
	}

	open, err := s.alerts.ListOpenAlerts(ctx, models.AlertOverCapacity)
	if err != nil {
		s.logger.Error("over capacity resolution pass skipped", zap.Error(err))
		return
	}
	for i := range open {
		alert := &open[i]
		if over[alert.HospitalID] {
			continue
		}
		if err := s.autoResolve(ctx, alert, "storage usage dropped below warning threshold"); err != nil {
			s.logger.Error("over capacity alert not resolved",
				zap.String("alert_id", alert.ID), zap.Error(err))
			continue
		}
		summary.Resolved++
	}
}

// openIfAbsent creates the alert unless an open one already covers the same
// (hospital, type, subject). Returns whether a new alert was created.
func (s *AlertService) openIfAbsent(ctx context.Context, alert *models.InventoryAlert) (bool, error) {
	_, err := s.alerts.FindOpenAlert(ctx, alert.HospitalID, alert.AlertType, alert.SupplyCode, alert.BatchID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	if err := s.alerts.CreateAlert(ctx, alert); err != nil {
		return false, err
	}
	s.logger.Info("alert opened",
		zap.String("alert_id", alert.ID),
		zap.String("alert_type", string(alert.AlertType)),
		zap.String("hospital_id", alert.HospitalID),
	)
	return true, nil
}

func (s *AlertService) autoResolve(ctx context.Context, alert *models.InventoryAlert, note string) error {
	resolvedAt := s.now()
	alert.IsResolved = true
	alert.ResolvedTime = &resolvedAt
	alert.ResolutionNotes = note
	if err := s.alerts.UpdateAlert(ctx, alert); err != nil {
		return err
	}
	s.logger.Info("alert auto-resolved",
		zap.String("alert_id", alert.ID),
		zap.String("alert_type", string(alert.AlertType)),
		zap.String("note", note),
	)
	return nil
}

// Resolve closes an alert manually. If the underlying condition still holds,
// the next sweep opens a fresh alert.
func (s *AlertService) Resolve(ctx context.Context, actor Actor, alertID, notes string) (*models.InventoryAlert, error) {
	if !s.gate.IsPrivileged(actor) {
		return nil, &AuthorizationError{Msg: "resolving alerts requires a privileged actor"}
	}

	alert, err := s.alerts.GetAlertByID(ctx, alertID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "inventory alert", ID: alertID}
		}
		return nil, err
	}
	if alert.IsResolved {
		return nil, invalidStateErrorf("alert %s is already resolved", alertID)
	}

	resolvedAt := s.now()
	actorID := actor.UserID
	alert.IsResolved = true
	alert.ResolvedByID = &actorID
	alert.ResolvedTime = &resolvedAt
	alert.ResolutionNotes = notes

	if err := s.alerts.UpdateAlert(ctx, alert); err != nil {
		return nil, err
	}

	s.logger.Info("alert resolved",
		zap.String("alert_id", alertID),
		zap.Uint("resolved_by", actorID),
	)
	return alert, nil
}

// List returns a page of alerts matching the filter
func (s *AlertService) List(ctx context.Context, f repository.AlertFilter, page utils.PageParams) (*utils.PaginatedResponse, error) {
	return s.alerts.ListAlerts(ctx, f, page)
}
