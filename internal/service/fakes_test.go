package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"medsupply-backend/internal/models"
	"medsupply-backend/internal/repository"
	"medsupply-backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for the repositories, applying allocation
// plans with the same guards the SQL layer enforces
type memStore struct {
	mu           sync.Mutex
	requests     map[string]*models.SupplyRequest
	batches      map[string]*models.InventoryBatch
	fulfillments map[string][]models.ItemFulfillment
	hospitals    map[string]*models.Hospital
	supplies     map[string]*models.MedicalSupply
	suppliers    map[string]*models.Supplier
	nextID       int
}

func newMemStore() *memStore {
	return &memStore{
		requests:     make(map[string]*models.SupplyRequest),
		batches:      make(map[string]*models.InventoryBatch),
		fulfillments: make(map[string][]models.ItemFulfillment),
		hospitals:    make(map[string]*models.Hospital),
		supplies:     make(map[string]*models.MedicalSupply),
		suppliers:    make(map[string]*models.Supplier),
	}
}

func (m *memStore) id(prefix string) string {
	m.nextID++
	return prefix + "-" + strconv.Itoa(m.nextID)
}

func (m *memStore) addHospital(h models.Hospital) *models.Hospital {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hospitals[h.ID] = &h
	return &h
}

func (m *memStore) addSupply(s models.MedicalSupply) *models.MedicalSupply {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.supplies[s.UNSPSCCode] = &s
	return &s
}

func (m *memStore) addBatch(b models.InventoryBatch) *models.InventoryBatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.Version == 0 {
		b.Version = 1
	}
	m.batches[b.ID] = &b
	return &b
}

func (m *memStore) addRequest(r models.SupplyRequest) *models.SupplyRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.Version == 0 {
		r.Version = 1
	}
	m.requests[r.ID] = &r
	return &r
}

func (m *memStore) GetHospitalByID(ctx context.Context, id string) (*models.Hospital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hospitals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *h
	return &copied, nil
}

func (m *memStore) GetSupplyByCode(ctx context.Context, code string) (*models.MedicalSupply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.supplies[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *memStore) CreateRequest(ctx context.Context, request *models.SupplyRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if request.ID == "" {
		request.ID = m.id("req")
	}
	for i := range request.Items {
		if request.Items[i].ID == "" {
			request.Items[i].ID = m.id("item")
		}
		request.Items[i].RequestID = request.ID
	}
	request.Version = 1
	copied := *request
	m.requests[request.ID] = &copied
	return nil
}

func (m *memStore) GetRequestWithItems(ctx context.Context, id string) (*models.SupplyRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *r
	copied.Items = append([]models.RequestItem(nil), r.Items...)
	return &copied, nil
}

func (m *memStore) ListRequests(ctx context.Context, f repository.RequestFilter, page utils.PageParams) (*utils.PaginatedResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []models.SupplyRequest
	for _, r := range m.requests {
		if f.Status != "" && string(r.Status) != f.Status {
			continue
		}
		if f.HospitalID != "" && r.HospitalID != f.HospitalID {
			continue
		}
		results = append(results, *r)
	}
	return &utils.PaginatedResponse{Count: int64(len(results)), Results: results}, nil
}

func (m *memStore) TransitionStatus(ctx context.Context, t repository.StatusTransition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[t.RequestID]
	if !ok || r.Status != t.From || r.Version != t.Version {
		return repository.ErrOptimisticLock
	}
	r.Status = t.To
	r.Version++
	r.ApproverID = t.ApproverID
	r.ApprovalTime = t.ApprovalTime
	if t.Comments != "" {
		r.Comments = t.Comments
	}
	return nil
}

func (m *memStore) ListItemFulfillments(ctx context.Context, itemID string) ([]models.ItemFulfillment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := m.fulfillments[itemID]
	// most recent first, mirroring the fulfilled_time DESC ordering
	reversed := make([]models.ItemFulfillment, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		reversed = append(reversed, records[i])
	}
	return reversed, nil
}

func (m *memStore) ApplyAllocation(ctx context.Context, plan repository.AllocationPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	request, ok := m.requests[plan.RequestID]
	if !ok || request.Version != plan.RequestVersion {
		return repository.ErrOptimisticLock
	}

	for _, draw := range plan.Draws {
		batch, ok := m.batches[draw.BatchID]
		if !ok || batch.Quantity < draw.Quantity {
			return repository.ErrInsufficientStock
		}
	}

	request.Version++
	request.Status = plan.NewStatus
	for i := range request.Items {
		if request.Items[i].ID == plan.ItemID {
			request.Items[i].Allocated = plan.NewAllocated
		}
	}

	for _, draw := range plan.Draws {
		batch := m.batches[draw.BatchID]
		batch.Quantity -= draw.Quantity
		batch.Version++
		m.fulfillments[plan.ItemID] = append(m.fulfillments[plan.ItemID], models.ItemFulfillment{
			ID:       m.id("ff"),
			ItemID:   plan.ItemID,
			BatchID:  draw.BatchID,
			Quantity: draw.Quantity,
		})
	}

	for _, reversal := range plan.Reversals {
		if batch, ok := m.batches[reversal.BatchID]; ok {
			batch.Quantity += reversal.Quantity
			batch.Version++
		}
		records := m.fulfillments[plan.ItemID]
		for i := range records {
			if records[i].ID != reversal.FulfillmentID {
				continue
			}
			if reversal.Remove {
				m.fulfillments[plan.ItemID] = append(records[:i], records[i+1:]...)
			} else {
				records[i].Quantity -= reversal.Quantity
			}
			break
		}
	}

	if hospital, ok := m.hospitals[plan.HospitalID]; ok {
		hospital.CurrentCapacity = hospital.CurrentCapacity.Sub(decimal.NewFromInt(int64(plan.CapacityDelta)))
	}
	return nil
}

func (m *memStore) ListAllocationCandidates(ctx context.Context, f repository.CandidateFilter, page utils.PageParams) (*utils.PaginatedResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []models.RequestItem
	for _, r := range m.requests {
		if !r.Status.Allocatable() {
			continue
		}
		for _, item := range r.Items {
			if item.Allocated >= item.Quantity {
				continue
			}
			if f.SupplyCode != "" && item.SupplyCode != f.SupplyCode {
				continue
			}
			if f.HospitalID != "" && r.HospitalID != f.HospitalID {
				continue
			}
			results = append(results, item)
		}
	}
	return &utils.PaginatedResponse{Count: int64(len(results)), Results: results}, nil
}

func (m *memStore) ListEligibleBatches(ctx context.Context, hospitalID, supplyCode string, asOf time.Time) ([]models.InventoryBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var eligible []models.InventoryBatch
	for _, b := range m.batches {
		if b.HospitalID != hospitalID || b.SupplyCode != supplyCode {
			continue
		}
		if !b.Eligible(asOf) {
			continue
		}
		eligible = append(eligible, *b)
	}
	return eligible, nil
}

func (m *memStore) addSupplier(s models.Supplier) *models.Supplier {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suppliers[s.ID] = &s
	return &s
}

func (m *memStore) GetSupplierByID(ctx context.Context, id string) (*models.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.suppliers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *memStore) ReceiveBatch(ctx context.Context, batch *models.InventoryBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hospital, ok := m.hospitals[batch.HospitalID]
	if !ok {
		return repository.ErrNotFound
	}
	next := hospital.CurrentCapacity.Add(decimal.NewFromInt(int64(batch.Quantity)))
	if next.GreaterThan(hospital.StorageVolume) {
		return repository.ErrCapacityExceeded
	}
	hospital.CurrentCapacity = next
	if batch.ID == "" {
		batch.ID = m.id("batch")
	}
	batch.Version = 1
	copied := *batch
	m.batches[batch.ID] = &copied
	return nil
}

func (m *memStore) ListBatches(ctx context.Context, f repository.BatchFilter, page utils.PageParams) (*utils.PaginatedResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []models.InventoryBatch
	for _, b := range m.batches {
		if f.HospitalID != "" && b.HospitalID != f.HospitalID {
			continue
		}
		if f.SupplyCode != "" && b.SupplyCode != f.SupplyCode {
			continue
		}
		results = append(results, *b)
	}
	return &utils.PaginatedResponse{Count: int64(len(results)), Results: results}, nil
}

func (m *memStore) SumUnexpiredStockFor(ctx context.Context, hospitalID, supplyCode string, asOf time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, b := range m.batches {
		if b.HospitalID != hospitalID || b.SupplyCode != supplyCode {
			continue
		}
		if b.ExpirationDate.Before(asOf) {
			continue
		}
		total += b.Quantity
	}
	return total, nil
}

func (m *memStore) currentCapacity(id string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.hospitals[id]; ok {
		return h.CurrentCapacity
	}
	return decimal.Zero
}

func (m *memStore) GetBatchByID(ctx context.Context, id string) (*models.InventoryBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *memStore) SumUnexpiredStock(ctx context.Context, supplyCode string, asOf time.Time) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals := make(map[string]int)
	for _, b := range m.batches {
		if b.SupplyCode != supplyCode || b.ExpirationDate.Before(asOf) {
			continue
		}
		totals[b.HospitalID] += b.Quantity
	}
	return totals, nil
}

func (m *memStore) ListExpiringBatches(ctx context.Context, from, until time.Time) ([]models.InventoryBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expiring []models.InventoryBatch
	for _, b := range m.batches {
		if b.Quantity <= 0 {
			continue
		}
		if b.ExpirationDate.Before(from) || b.ExpirationDate.After(until) {
			continue
		}
		expiring = append(expiring, *b)
	}
	return expiring, nil
}

func (m *memStore) ListActiveHospitals(ctx context.Context) ([]models.Hospital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var active []models.Hospital
	for _, h := range m.hospitals {
		if h.IsActive {
			active = append(active, *h)
		}
	}
	return active, nil
}

func (m *memStore) ListAllSupplies(ctx context.Context) ([]models.MedicalSupply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var supplies []models.MedicalSupply
	for _, s := range m.supplies {
		supplies = append(supplies, *s)
	}
	return supplies, nil
}

func (m *memStore) setBatchQuantity(id string, quantity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.batches[id]; ok {
		b.Quantity = quantity
	}
}

func (m *memStore) setCurrentCapacity(id string, capacity int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.hospitals[id]; ok {
		h.CurrentCapacity = decimal.NewFromInt(capacity)
	}
}

func (m *memStore) batchQuantity(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.batches[id]; ok {
		return b.Quantity
	}
	return -1
}

// memAudit records audit actions in memory
type memAudit struct {
	mu      sync.Mutex
	actions []string
}

func (a *memAudit) CreateAuditLog(userID *uint, action string, details string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
	return nil
}

// memAlertStore is an in-memory AlertStore
type memAlertStore struct {
	mu     sync.Mutex
	alerts map[string]*models.InventoryAlert
	nextID int
}

func newMemAlertStore() *memAlertStore {
	return &memAlertStore{alerts: make(map[string]*models.InventoryAlert)}
}

func (s *memAlertStore) GetAlertByID(ctx context.Context, id string) (*models.InventoryAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (s *memAlertStore) FindOpenAlert(ctx context.Context, hospitalID string, alertType models.AlertType, supplyCode, batchID *string) (*models.InventoryAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.alerts {
		if a.IsResolved || a.HospitalID != hospitalID || a.AlertType != alertType {
			continue
		}
		if !ptrEqual(a.SupplyCode, supplyCode) || !ptrEqual(a.BatchID, batchID) {
			continue
		}
		copied := *a
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *memAlertStore) ListOpenAlerts(ctx context.Context, alertType models.AlertType) ([]models.InventoryAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var open []models.InventoryAlert
	for _, a := range s.alerts {
		if !a.IsResolved && a.AlertType == alertType {
			open = append(open, *a)
		}
	}
	return open, nil
}

func (s *memAlertStore) ListAlerts(ctx context.Context, f repository.AlertFilter, page utils.PageParams) (*utils.PaginatedResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var results []models.InventoryAlert
	for _, a := range s.alerts {
		results = append(results, *a)
	}
	return &utils.PaginatedResponse{Count: int64(len(results)), Results: results}, nil
}

func (s *memAlertStore) CreateAlert(ctx context.Context, alert *models.InventoryAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	if alert.ID == "" {
		alert.ID = "alert-" + strconv.Itoa(s.nextID)
	}
	copied := *alert
	s.alerts[alert.ID] = &copied
	return nil
}

func (s *memAlertStore) UpdateAlert(ctx context.Context, alert *models.InventoryAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alerts[alert.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *alert
	s.alerts[alert.ID] = &copied
	return nil
}

func (s *memAlertStore) open() []models.InventoryAlert {
	s.mu.Lock()
	defer s.mu.Unlock()
	var open []models.InventoryAlert
	for _, a := range s.alerts {
		if !a.IsResolved {
			open = append(open, *a)
		}
	}
	return open
}

func ptrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// memIdem is an in-memory idempotency store
type memIdem struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemIdem() *memIdem {
	return &memIdem{keys: make(map[string]string)}
}

func (m *memIdem) ClaimIdempotencyKey(ctx context.Context, key, requestID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.keys[key]; ok {
		return existing, nil
	}
	m.keys[key] = requestID
	return "", nil
}
