package service

import (
	"context"
	"testing"
	"time"

	"medsupply-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRequestFixture(t *testing.T) (*RequestService, *memStore, *memIdem) {
	t.Helper()
	store := newMemStore()
	audit := &memAudit{}
	idem := newMemIdem()
	gate := NewRoleGate(models.RoleAdmin)

	allocator := NewAllocationService(store, store, audit, gate, zap.NewNop())
	allocator.now = func() time.Time { return testNow }

	svc := NewRequestService(store, store, store, idem, allocator, audit, gate, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc, store, idem
}

func seedRequestScenario(store *memStore) {
	store.addHospital(models.Hospital{
		ID:            "hosp-1",
		Name:          "Central Hospital",
		StorageVolume: decimal.NewFromInt(1000),
		IsActive:      true,
	})
	store.addSupply(models.MedicalSupply{UNSPSCCode: "42131606", Name: "Surgical Masks"})
}

func validSubmitInput() SubmitRequestInput {
	return SubmitRequestInput{
		HospitalID: "hosp-1",
		Priority:   2,
		RequiredBy: testNow.AddDate(0, 0, 7),
		Items: []SubmitItemInput{
			{SupplyCode: "42131606", Quantity: 8},
		},
	}
}

func staffActor() Actor {
	return Actor{UserID: 5, Role: models.RoleHospitalStaff, HospitalID: "hosp-1"}
}

func TestSubmitCreatesPendingRequest(t *testing.T) {
	svc, store, _ := newRequestFixture(t)
	seedRequestScenario(store)

	request, err := svc.Submit(context.Background(), staffActor(), validSubmitInput())
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, request.Status)
	assert.Equal(t, uint(5), request.RequesterID)
	require.Len(t, request.Items, 1)
	assert.Equal(t, 0, request.Items[0].Allocated)
	assert.Equal(t, 0, request.Items[0].Position)
}

func TestSubmitValidation(t *testing.T) {
	svc, store, _ := newRequestFixture(t)
	seedRequestScenario(store)

	var validationErr *ValidationError
	var notFoundErr *NotFoundError

	empty := validSubmitInput()
	empty.Items = nil
	_, err := svc.Submit(context.Background(), staffActor(), empty)
	assert.ErrorAs(t, err, &validationErr)

	zeroQty := validSubmitInput()
	zeroQty.Items[0].Quantity = 0
	_, err = svc.Submit(context.Background(), staffActor(), zeroQty)
	assert.ErrorAs(t, err, &validationErr)

	past := validSubmitInput()
	past.RequiredBy = testNow.AddDate(0, 0, -1)
	_, err = svc.Submit(context.Background(), staffActor(), past)
	assert.ErrorAs(t, err, &validationErr)

	duplicate := validSubmitInput()
	duplicate.Items = append(duplicate.Items, SubmitItemInput{SupplyCode: "42131606", Quantity: 2})
	_, err = svc.Submit(context.Background(), staffActor(), duplicate)
	assert.ErrorAs(t, err, &validationErr)

	badHospital := validSubmitInput()
	badHospital.HospitalID = "missing"
	_, err = svc.Submit(context.Background(), staffActor(), badHospital)
	assert.ErrorAs(t, err, &notFoundErr)

	badSupply := validSubmitInput()
	badSupply.Items[0].SupplyCode = "00000000"
	_, err = svc.Submit(context.Background(), staffActor(), badSupply)
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestSubmitIdempotencyKeyCollapsesRetries(t *testing.T) {
	svc, store, _ := newRequestFixture(t)
	seedRequestScenario(store)

	input := validSubmitInput()
	input.IdempotencyKey = "retry-abc"

	first, err := svc.Submit(context.Background(), staffActor(), input)
	require.NoError(t, err)

	second, err := svc.Submit(context.Background(), staffActor(), input)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	// the retry must not leave a second pending row behind
	store.mu.Lock()
	stored := len(store.requests)
	store.mu.Unlock()
	assert.Equal(t, 1, stored)
}

func TestSubmitAcceptsRequiredByNow(t *testing.T) {
	svc, store, _ := newRequestFixture(t)
	seedRequestScenario(store)

	input := validSubmitInput()
	input.RequiredBy = testNow

	request, err := svc.Submit(context.Background(), staffActor(), input)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, request.Status)
}

func TestApproveRunsAllocationPass(t *testing.T) {
	svc, store, _ := newRequestFixture(t)
	seedRequestScenario(store)
	store.addBatch(models.InventoryBatch{
		ID:                 "batch-1",
		HospitalID:         "hosp-1",
		SupplyCode:         "42131606",
		Quantity:           20,
		ExpirationDate:     testNow.AddDate(0, 0, 30),
		QualityCheckPassed: true,
	})

	request, err := svc.Submit(context.Background(), staffActor(), validSubmitInput())
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), adminActor(), request.ID, "ok")
	require.NoError(t, err)

	// stock covered the whole request, so the approval pass fulfilled it
	assert.Equal(t, models.StatusFulfilled, approved.Status)
	assert.Equal(t, 8, approved.Items[0].Allocated)
	assert.Equal(t, 12, store.batchQuantity("batch-1"))
}

func TestApproveWithoutStockLeavesRequestApproved(t *testing.T) {
	svc, store, _ := newRequestFixture(t)
	seedRequestScenario(store)

	request, err := svc.Submit(context.Background(), staffActor(), validSubmitInput())
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), adminActor(), request.ID, "")
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Equal(t, 0, approved.Items[0].Allocated)
}

func TestDecisionWithoutCommentKeepsSubmissionComment(t *testing.T) {
	svc, store, _ := newRequestFixture(t)
	seedRequestScenario(store)

	input := validSubmitInput()
	input.Comments = "restock for flu season"
	request, err := svc.Submit(context.Background(), staffActor(), input)
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), adminActor(), request.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "restock for flu season", rejected.Comments)

	persisted, err := svc.Get(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, "restock for flu season", persisted.Comments)
}

func TestRejectIsTerminal(t *testing.T) {
	svc, store, _ := newRequestFixture(t)
	seedRequestScenario(store)

	request, err := svc.Submit(context.Background(), staffActor(), validSubmitInput())
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), adminActor(), request.ID, "no budget")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	var stateErr *InvalidStateError
	_, err = svc.Approve(context.Background(), adminActor(), request.ID, "")
	assert.ErrorAs(t, err, &stateErr)
}

func TestApproveRequiresPrivilege(t *testing.T) {
	svc, store, _ := newRequestFixture(t)
	seedRequestScenario(store)

	request, err := svc.Submit(context.Background(), staffActor(), validSubmitInput())
	require.NoError(t, err)

	var authErr *AuthorizationError
	_, err = svc.Approve(context.Background(), staffActor(), request.ID, "")
	assert.ErrorAs(t, err, &authErr)
}

func TestApproveDetectsConcurrentDecision(t *testing.T) {
	svc, store, _ := newRequestFixture(t)
	seedRequestScenario(store)

	request, err := svc.Submit(context.Background(), staffActor(), validSubmitInput())
	require.NoError(t, err)

	// another approver wins the race after our read
	store.mu.Lock()
	store.requests[request.ID].Status = models.StatusRejected
	store.requests[request.ID].Version++
	store.mu.Unlock()

	var stateErr *InvalidStateError
	_, err = svc.Approve(context.Background(), adminActor(), request.ID, "")
	assert.ErrorAs(t, err, &stateErr)
}
