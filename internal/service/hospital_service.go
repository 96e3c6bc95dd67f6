package service

import (
	"context"
	"errors"

	"medsupply-backend/internal/models"
	"medsupply-backend/internal/repository"
	"medsupply-backend/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HospitalStore is the persistence surface for hospital records
type HospitalStore interface {
	GetHospitalByID(ctx context.Context, id string) (*models.Hospital, error)
	GetHospitalByOrgCode(ctx context.Context, orgCode string) (*models.Hospital, error)
	ListHospitals(ctx context.Context, f repository.HospitalFilter, page utils.PageParams) (*utils.PaginatedResponse, error)
	CreateHospital(ctx context.Context, hospital *models.Hospital) error
	UpdateHospital(ctx context.Context, hospital *models.Hospital) error
	DeactivateHospital(ctx context.Context, id string) error
}

// HospitalService manages participating facilities
type HospitalService struct {
	hospitals HospitalStore
	logger    *zap.Logger
}

func NewHospitalService(hospitals HospitalStore, logger *zap.Logger) *HospitalService {
	return &HospitalService{hospitals: hospitals, logger: logger}
}

func (s *HospitalService) Get(ctx context.Context, id string) (*models.Hospital, error) {
	hospital, err := s.hospitals.GetHospitalByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "hospital", ID: id}
		}
		return nil, err
	}
	return hospital, nil
}

func (s *HospitalService) List(ctx context.Context, f repository.HospitalFilter, page utils.PageParams) (*utils.PaginatedResponse, error) {
	return s.hospitals.ListHospitals(ctx, f, page)
}

// Create registers a hospital after checking the org code is unused and the
// storage figures are coherent
func (s *HospitalService) Create(ctx context.Context, hospital *models.Hospital) (*models.Hospital, error) {
	if err := validateHospital(hospital); err != nil {
		return nil, err
	}
	if _, err := s.hospitals.GetHospitalByOrgCode(ctx, hospital.OrgCode); err == nil {
		return nil, validationErrorf("org code %s is already registered", hospital.OrgCode)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if err := s.hospitals.CreateHospital(ctx, hospital); err != nil {
		return nil, err
	}
	s.logger.Info("hospital created",
		zap.String("hospital_id", hospital.ID),
		zap.String("org_code", hospital.OrgCode),
	)
	return hospital, nil
}

// Update saves changes to a hospital. Current capacity is maintained by the
// allocation engine and cannot be edited here.
func (s *HospitalService) Update(ctx context.Context, hospital *models.Hospital) (*models.Hospital, error) {
	existing, err := s.hospitals.GetHospitalByID(ctx, hospital.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "hospital", ID: hospital.ID}
		}
		return nil, err
	}

	hospital.CurrentCapacity = existing.CurrentCapacity
	if err := validateHospital(hospital); err != nil {
		return nil, err
	}
	if err := s.hospitals.UpdateHospital(ctx, hospital); err != nil {
		return nil, err
	}
	return hospital, nil
}

// Deactivate soft-deletes a hospital; existing requests and batches keep
// their references
func (s *HospitalService) Deactivate(ctx context.Context, id string) error {
	err := s.hospitals.DeactivateHospital(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Entity: "hospital", ID: id}
	}
	return err
}

func validateHospital(h *models.Hospital) error {
	if h.OrgCode == "" || h.Name == "" {
		return validationErrorf("org code and name are required")
	}
	if _, ok := models.HospitalLevelLabels[h.Level]; !ok {
		return validationErrorf("unknown hospital level %d", h.Level)
	}
	if h.StorageVolume.LessThanOrEqual(decimal.Zero) {
		return validationErrorf("storage volume must be positive")
	}
	if h.WarningThreshold.LessThanOrEqual(decimal.Zero) || h.WarningThreshold.GreaterThan(decimal.NewFromInt(1)) {
		return validationErrorf("warning threshold must be in (0, 1]")
	}
	return nil
}
