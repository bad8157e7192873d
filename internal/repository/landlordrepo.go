package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/rentright-app/reference-service/internal/model"
)

// LandlordRepository provides access to tenant-authored previous-landlord records.
type LandlordRepository interface {
	// Create inserts a previous-landlord entry owned by a tenant.
	Create(ctx context.Context, pl *model.PreviousLandlord) error
	// GetByID loads an entry by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.PreviousLandlord, error)
	// ListByTenant returns the tenant's entries, newest first.
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]model.PreviousLandlord, error)
	// Delete removes an entry only when owned by tenantID; otherwise errs.ErrNotFound.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
