package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"medsupply-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAlertFixture(t *testing.T) (*AlertService, *memStore, *memAlertStore) {
	t.Helper()
	store := newMemStore()
	alerts := newMemAlertStore()
	svc := NewAlertService(alerts, store, store, store, NewRoleGate(models.RoleAdmin), zap.NewNop(), 30)
	svc.now = func() time.Time { return testNow }
	return svc, store, alerts
}

func seedAlertScenario(store *memStore) {
	store.addHospital(models.Hospital{
		ID:               "hosp-1",
		Name:             "Central Hospital",
		StorageVolume:    decimal.NewFromInt(100),
		CurrentCapacity:  decimal.NewFromInt(40),
		WarningThreshold: decimal.NewFromFloat(0.8),
		IsActive:         true,
	})
	store.addSupply(models.MedicalSupply{
		UNSPSCCode:    "42131606",
		Name:          "Surgical Masks",
		MinStockLevel: 50,
	})
}

func openAlertsOfType(alerts *memAlertStore, alertType models.AlertType) []models.InventoryAlert {
	var matched []models.InventoryAlert
	for _, a := range alerts.open() {
		if a.AlertType == alertType {
			matched = append(matched, a)
		}
	}
	return matched
}

func TestEvaluateOpensLowStockAlert(t *testing.T) {
	svc, store, alerts := newAlertFixture(t)
	seedAlertScenario(store)
	store.addBatch(models.InventoryBatch{
		ID:                 "batch-1",
		HospitalID:         "hosp-1",
		SupplyCode:         "42131606",
		Quantity:           20,
		ExpirationDate:     testNow.AddDate(0, 1, 0),
		QualityCheckPassed: true,
	})

	summary, err := svc.EvaluateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Opened)

	open := openAlertsOfType(alerts, models.AlertLowStock)
	require.Len(t, open, 1)
	assert.Equal(t, "hosp-1", open[0].HospitalID)
	require.NotNil(t, open[0].SupplyCode)
	assert.Equal(t, "42131606", *open[0].SupplyCode)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	svc, store, alerts := newAlertFixture(t)
	seedAlertScenario(store)

	first, err := svc.EvaluateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Opened) // low stock, zero inventory

	second, err := svc.EvaluateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Opened)
	assert.Equal(t, 0, second.Resolved)

	assert.Len(t, openAlertsOfType(alerts, models.AlertLowStock), 1)
}

func TestEvaluateResolvesRecoveredLowStock(t *testing.T) {
	svc, store, alerts := newAlertFixture(t)
	seedAlertScenario(store)

	_, err := svc.EvaluateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, openAlertsOfType(alerts, models.AlertLowStock), 1)

	store.addBatch(models.InventoryBatch{
		ID:                 "batch-restock",
		HospitalID:         "hosp-1",
		SupplyCode:         "42131606",
		Quantity:           60,
		ExpirationDate:     testNow.AddDate(0, 2, 0),
		QualityCheckPassed: true,
	})

	summary, err := svc.EvaluateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Resolved)
	assert.Empty(t, openAlertsOfType(alerts, models.AlertLowStock))
}

func TestEvaluateOverCapacityLifecycle(t *testing.T) {
	svc, store, alerts := newAlertFixture(t)
	seedAlertScenario(store)

	// 85 of 100 with threshold 0.8 trips the alert
	store.setCurrentCapacity("hosp-1", 85)

	_, err := svc.EvaluateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, openAlertsOfType(alerts, models.AlertOverCapacity), 1)

	// usage drops to 70, next sweep resolves
	store.setCurrentCapacity("hosp-1", 70)

	summary, err := svc.EvaluateAll(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, summary.Resolved, 1)
	assert.Empty(t, openAlertsOfType(alerts, models.AlertOverCapacity))
}

func TestExpiringAlertNotResolvedByClock(t *testing.T) {
	svc, store, alerts := newAlertFixture(t)
	seedAlertScenario(store)
	store.addBatch(models.InventoryBatch{
		ID:                 "batch-exp",
		BatchNumber:        "B-100",
		HospitalID:         "hosp-1",
		SupplyCode:         "42131606",
		Quantity:           10,
		ExpirationDate:     testNow.AddDate(0, 0, 5),
		QualityCheckPassed: true,
	})

	_, err := svc.EvaluateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, openAlertsOfType(alerts, models.AlertExpiringBatch), 1)

	// well past the expiration date the alert still stands
	svc.now = func() time.Time { return testNow.AddDate(0, 0, 20) }
	_, err = svc.EvaluateAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, openAlertsOfType(alerts, models.AlertExpiringBatch), 1)

	// only draining the batch resolves it
	store.setBatchQuantity("batch-exp", 0)
	summary, err := svc.EvaluateAll(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, summary.Resolved, 1)
	assert.Empty(t, openAlertsOfType(alerts, models.AlertExpiringBatch))
}

func TestManualResolveAndReemission(t *testing.T) {
	svc, store, alerts := newAlertFixture(t)
	seedAlertScenario(store)

	_, err := svc.EvaluateAll(context.Background())
	require.NoError(t, err)
	open := openAlertsOfType(alerts, models.AlertLowStock)
	require.Len(t, open, 1)

	resolved, err := svc.Resolve(context.Background(), adminActor(), open[0].ID, "ordered more stock")
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)
	require.NotNil(t, resolved.ResolvedByID)
	assert.Equal(t, uint(1), *resolved.ResolvedByID)
	assert.Empty(t, openAlertsOfType(alerts, models.AlertLowStock))

	// condition still holds, so the next sweep opens a fresh alert
	summary, err := svc.EvaluateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Opened)

	reopened := openAlertsOfType(alerts, models.AlertLowStock)
	require.Len(t, reopened, 1)
	assert.NotEqual(t, open[0].ID, reopened[0].ID)
}

// faultyAlertStore rejects inserts for one hospital
type faultyAlertStore struct {
	*memAlertStore
	failHospital string
}

func (s *faultyAlertStore) CreateAlert(ctx context.Context, alert *models.InventoryAlert) error {
	if alert.HospitalID == s.failHospital {
		return errors.New("insert rejected")
	}
	return s.memAlertStore.CreateAlert(ctx, alert)
}

// faultyStockReader fails the stock query for one supply
type faultyStockReader struct {
	*memStore
	failSupply string
}

func (r *faultyStockReader) SumUnexpiredStock(ctx context.Context, supplyCode string, asOf time.Time) (map[string]int, error) {
	if supplyCode == r.failSupply {
		return nil, errors.New("stock query failed")
	}
	return r.memStore.SumUnexpiredStock(ctx, supplyCode, asOf)
}

func TestEvaluateSkipsFailingHospital(t *testing.T) {
	store := newMemStore()
	alerts := &faultyAlertStore{memAlertStore: newMemAlertStore(), failHospital: "hosp-bad"}
	svc := NewAlertService(alerts, store, store, store, NewRoleGate(models.RoleAdmin), zap.NewNop(), 30)
	svc.now = func() time.Time { return testNow }

	seedAlertScenario(store)
	store.addHospital(models.Hospital{
		ID:               "hosp-bad",
		Name:             "North Clinic",
		StorageVolume:    decimal.NewFromInt(100),
		WarningThreshold: decimal.NewFromFloat(0.8),
		IsActive:         true,
	})
	store.setCurrentCapacity("hosp-1", 85)

	// both hospitals are below minimum stock and hosp-1 is over capacity;
	// the failing insert must not cancel the remaining checks
	summary, err := svc.EvaluateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Opened)

	lowStock := openAlertsOfType(alerts.memAlertStore, models.AlertLowStock)
	require.Len(t, lowStock, 1)
	assert.Equal(t, "hosp-1", lowStock[0].HospitalID)
	assert.Len(t, openAlertsOfType(alerts.memAlertStore, models.AlertOverCapacity), 1)
}

func TestEvaluateSkipsFailingStockQuery(t *testing.T) {
	store := newMemStore()
	reader := &faultyStockReader{memStore: store, failSupply: "42131606"}
	alerts := newMemAlertStore()
	svc := NewAlertService(alerts, reader, store, store, NewRoleGate(models.RoleAdmin), zap.NewNop(), 30)
	svc.now = func() time.Time { return testNow }

	seedAlertScenario(store)
	store.addSupply(models.MedicalSupply{
		UNSPSCCode:    "42132203",
		Name:          "Nitrile Gloves",
		MinStockLevel: 30,
	})

	summary, err := svc.EvaluateAll(context.Background())
	require.NoError(t, err)

	// the masks query fails, the gloves check still runs
	assert.Equal(t, 1, summary.Opened)
	open := openAlertsOfType(alerts, models.AlertLowStock)
	require.Len(t, open, 1)
	require.NotNil(t, open[0].SupplyCode)
	assert.Equal(t, "42132203", *open[0].SupplyCode)
}

func TestResolveGuards(t *testing.T) {
	svc, store, alerts := newAlertFixture(t)
	seedAlertScenario(store)

	_, err := svc.EvaluateAll(context.Background())
	require.NoError(t, err)
	open := openAlertsOfType(alerts, models.AlertLowStock)
	require.Len(t, open, 1)

	var authErr *AuthorizationError
	_, err = svc.Resolve(context.Background(), staffActor(), open[0].ID, "")
	assert.ErrorAs(t, err, &authErr)

	var notFoundErr *NotFoundError
	_, err = svc.Resolve(context.Background(), adminActor(), "missing", "")
	assert.ErrorAs(t, err, &notFoundErr)

	_, err = svc.Resolve(context.Background(), adminActor(), open[0].ID, "first")
	require.NoError(t, err)

	var stateErr *InvalidStateError
	_, err = svc.Resolve(context.Background(), adminActor(), open[0].ID, "second")
	assert.ErrorAs(t, err, &stateErr)
}
