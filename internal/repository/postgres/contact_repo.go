package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/rentright-app/reference-service/internal/errs"
	"github.com/rentright-app/reference-service/internal/model"
)

// ContactRepo implements ContactRepository using PostgreSQL.
type ContactRepo struct{ db *DB }

// NewContactRepo constructs a contact/profile repository.
func NewContactRepo(db *DB) *ContactRepo { return &ContactRepo{db: db} }

// Add inserts a contact row; an existing (tenant, email) pair is left untouched.
func (r *ContactRepo) Add(ctx context.Context, c *model.FutureLandlordContact) error {
	const q = `
INSERT INTO future_landlord_contacts (id, tenant_id, email)
VALUES ($1, $2, $3)
ON CONFLICT (tenant_id, email) DO NOTHING`
	_, err := r.db.Pool.Exec(ctx, q, c.ID, c.TenantID, c.Email)
	return err
}

// ListByTenant returns the tenant's contacts, newest first.
func (r *ContactRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]model.FutureLandlordContact, error) {
	const q = `
SELECT id, tenant_id, email, invited, invited_at, created_at
FROM future_landlord_contacts
WHERE tenant_id=$1
ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FutureLandlordContact
	for rows.Next() {
		var c model.FutureLandlordContact
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Email, &c.Invited, &c.InvitedAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a contact when owned by tenantID.
func (r *ContactRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	const q = `DELETE FROM future_landlord_contacts WHERE id=$1 AND tenant_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// MarkInvited flags the (tenant, email) contact as invited.
func (r *ContactRepo) MarkInvited(ctx context.Context, tenantID uuid.UUID, email string, at time.Time) error {
	const q = `
UPDATE future_landlord_contacts
SET invited=true, invited_at=$3
WHERE tenant_id=$1 AND email=$2`
	tag, err := r.db.Pool.Exec(ctx, q, tenantID, email, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// UpsertProfile inserts or updates the tenant profile row.
func (r *ContactRepo) UpsertProfile(ctx context.Context, p *model.TenantProfile) error {
	const q = `
INSERT INTO tenant_profiles (tenant_id, future_landlord_email, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (tenant_id)
DO UPDATE SET future_landlord_email=EXCLUDED.future_landlord_email, updated_at=EXCLUDED.updated_at`
	_, err := r.db.Pool.Exec(ctx, q, p.TenantID, p.FutureLandlordEmail, p.UpdatedAt)
	return err
}

// GetProfile loads the tenant profile.
func (r *ContactRepo) GetProfile(ctx context.Context, tenantID uuid.UUID) (*model.TenantProfile, error) {
	const q = `
SELECT tenant_id, future_landlord_email, updated_at
FROM tenant_profiles WHERE tenant_id=$1`
	row := r.db.Pool.QueryRow(ctx, q, tenantID)
	var p model.TenantProfile
	if err := row.Scan(&p.TenantID, &p.FutureLandlordEmail, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ProspectiveTenants returns distinct tenants that listed landlordEmail as
// a future landlord, either in their profile or in the contact ledger.
func (r *ContactRepo) ProspectiveTenants(ctx context.Context, landlordEmail string) ([]model.Prospect, error) {
	const q = `
SELECT u.id, u.name, u.email, MAX(src.updated_at) AS last_update
FROM (
    SELECT tp.tenant_id, tp.updated_at
    FROM tenant_profiles tp
    WHERE LOWER(tp.future_landlord_email) = LOWER($1)
    UNION ALL
    SELECT flc.tenant_id, COALESCE(flc.invited_at, flc.created_at)
    FROM future_landlord_contacts flc
    WHERE LOWER(flc.email) = LOWER($1)
) src
JOIN users u ON u.id = src.tenant_id
GROUP BY u.id, u.name, u.email
ORDER BY last_update DESC`
	rows, err := r.db.Pool.Query(ctx, q, landlordEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Prospect
	for rows.Next() {
		var p model.Prospect
		if err := rows.Scan(&p.TenantID, &p.Name, &p.Email, &p.LastUpdate); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
