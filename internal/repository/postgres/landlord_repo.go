package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/rentright-app/reference-service/internal/errs"
	"github.com/rentright-app/reference-service/internal/model"
)

// LandlordRepo implements LandlordRepository using PostgreSQL.
type LandlordRepo struct{ db *DB }

// NewLandlordRepo constructs a previous-landlord repository.
func NewLandlordRepo(db *DB) *LandlordRepo { return &LandlordRepo{db: db} }

// Create inserts a previous-landlord row.
func (r *LandlordRepo) Create(ctx context.Context, pl *model.PreviousLandlord) error {
	const q = `
INSERT INTO previous_landlords (id, tenant_id, email, afm, name, address)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Pool.Exec(ctx, q, pl.ID, pl.TenantID, pl.Email, pl.AFM, pl.Name, pl.Address)
	return err
}

// GetByID selects a previous-landlord row by ID.
func (r *LandlordRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.PreviousLandlord, error) {
	const q = `
SELECT id, tenant_id, email, afm, name, address, created_at
FROM previous_landlords WHERE id=$1`
	row := r.db.Pool.QueryRow(ctx, q, id)
	var pl model.PreviousLandlord
	if err := row.Scan(&pl.ID, &pl.TenantID, &pl.Email, &pl.AFM, &pl.Name, &pl.Address, &pl.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &pl, nil
}

// ListByTenant returns the tenant's previous landlords, newest first.
func (r *LandlordRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]model.PreviousLandlord, error) {
	const q = `
SELECT id, tenant_id, email, afm, name, address, created_at
FROM previous_landlords
WHERE tenant_id=$1
ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PreviousLandlord
	for rows.Next() {
		var pl model.PreviousLandlord
		if err := rows.Scan(&pl.ID, &pl.TenantID, &pl.Email, &pl.AFM, &pl.Name, &pl.Address, &pl.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, pl)
	}
	return out, rows.Err()
}

// Delete removes the entry when owned by tenantID.
func (r *LandlordRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	const q = `DELETE FROM previous_landlords WHERE id=$1 AND tenant_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
