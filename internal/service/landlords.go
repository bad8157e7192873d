package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/rentright-app/reference-service/internal/errs"
	"github.com/rentright-app/reference-service/internal/model"
	"github.com/rentright-app/reference-service/internal/repository"
)

var afmRe = regexp.MustCompile(`^\d{9}$`)

// LandlordService manages the tenant's previous-landlord registry.
type LandlordService interface {
	// Add registers a previous landlord for the tenant.
	Add(ctx context.Context, tenantID uuid.UUID, email, afm, name, address string) (*model.PreviousLandlord, error)
	// List returns the tenant's previous landlords, newest first.
	List(ctx context.Context, tenantID uuid.UUID) ([]model.PreviousLandlord, error)
	// Delete removes an entry owned by the tenant.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type LandlordServiceImpl struct {
	landlords repository.LandlordRepository
}

// NewLandlordService constructs a LandlordService.
func NewLandlordService(landlords repository.LandlordRepository) *LandlordServiceImpl {
	return &LandlordServiceImpl{landlords: landlords}
}

// Add validates and stores a previous-landlord entry.
func (s *LandlordServiceImpl) Add(ctx context.Context, tenantID uuid.UUID, email, afm, name, address string) (*model.PreviousLandlord, error) {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid landlord email", errs.ErrValidation)
	}
	afm = strings.TrimSpace(afm)
	if !afmRe.MatchString(afm) {
		return nil, fmt.Errorf("%w: AFM must be exactly 9 digits", errs.ErrValidation)
	}
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)
	if name == "" || address == "" {
		return nil, fmt.Errorf("%w: landlord name and address are required", errs.ErrValidation)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	pl := &model.PreviousLandlord{
		ID:       id,
		TenantID: tenantID,
		Email:    email,
		AFM:      afm,
		Name:     name,
		Address:  address,
	}
	if err := s.landlords.Create(ctx, pl); err != nil {
		return nil, err
	}
	return pl, nil
}

// List returns the tenant's previous landlords.
func (s *LandlordServiceImpl) List(ctx context.Context, tenantID uuid.UUID) ([]model.PreviousLandlord, error) {
	return s.landlords.ListByTenant(ctx, tenantID)
}

// Delete removes an entry; deleting someone else's entry reports not found.
func (s *LandlordServiceImpl) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.landlords.Delete(ctx, tenantID, id)
}
