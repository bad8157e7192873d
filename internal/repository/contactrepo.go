package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/rentright-app/reference-service/internal/model"
)

// ContactRepository tracks future-landlord contacts and tenant profiles.
type ContactRepository interface {
	// Add inserts a (tenant, email) contact; duplicates are ignored.
	Add(ctx context.Context, c *model.FutureLandlordContact) error
	// ListByTenant returns the tenant's contacts, newest first.
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]model.FutureLandlordContact, error)
	// Delete removes a contact only when owned by tenantID; otherwise errs.ErrNotFound.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// MarkInvited flags the (tenant, email) contact as invited at the given time.
	MarkInvited(ctx context.Context, tenantID uuid.UUID, email string, at time.Time) error

	// UpsertProfile inserts or updates the tenant's profile row.
	UpsertProfile(ctx context.Context, p *model.TenantProfile) error
	// GetProfile loads the tenant's profile; errs.ErrNotFound when absent.
	GetProfile(ctx context.Context, tenantID uuid.UUID) (*model.TenantProfile, error)

	// ProspectiveTenants returns distinct tenants that listed landlordEmail
	// in their profile or contact list, most recently updated first.
	ProspectiveTenants(ctx context.Context, landlordEmail string) ([]model.Prospect, error)
}
