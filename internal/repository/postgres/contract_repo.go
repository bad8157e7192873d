package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rentright-app/reference-service/internal/errs"
	"github.com/rentright-app/reference-service/internal/model"
)

// ContractRepo implements ContractRepository using PostgreSQL.
type ContractRepo struct{ db *DB }

// NewContractRepo constructs a contract-vault repository.
func NewContractRepo(db *DB) *ContractRepo { return &ContractRepo{db: db} }

const contractColumns = `token, tenant_id, filename, content_type, path, size_bytes, sha256,
status, status_updated_at, COALESCE(status_by, ''), uploaded_at, consent_status`

// GetByToken selects the contract row for a token.
func (r *ContractRepo) GetByToken(ctx context.Context, token string) (*model.ContractRecord, error) {
	q := `SELECT ` + contractColumns + ` FROM reference_contracts WHERE token=$1`
	rec, err := scanContract(r.db.Pool.QueryRow(ctx, q, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// Upsert inserts or overwrites the contract row for a token. Any new
// document restarts verification and consent from scratch, so stale
// approval cannot survive a document swap.
func (r *ContractRepo) Upsert(ctx context.Context, rec *model.ContractRecord) error {
	const q = `
INSERT INTO reference_contracts
  (token, tenant_id, filename, content_type, path, size_bytes, sha256,
   status, status_updated_at, status_by, uploaded_at, consent_status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULL, NULL, $9, $10)
ON CONFLICT (token) DO UPDATE SET
  filename=EXCLUDED.filename, content_type=EXCLUDED.content_type,
  path=EXCLUDED.path, size_bytes=EXCLUDED.size_bytes, sha256=EXCLUDED.sha256,
  status=EXCLUDED.status, status_updated_at=NULL, status_by=NULL,
  uploaded_at=EXCLUDED.uploaded_at, consent_status=EXCLUDED.consent_status`
	_, err := r.db.Pool.Exec(ctx, q,
		rec.Token, rec.TenantID, rec.Filename, rec.ContentType, rec.Path, rec.SizeBytes, rec.SHA256,
		string(model.ContractPending), rec.UploadedAt, string(model.ConsentLocked))
	return err
}

// SetStatus updates the verification axis, enforcing the consent gate:
// verification cannot happen before the landlord consented. Repeating the
// same transition is a no-op apart from the audit stamp.
func (r *ContractRepo) SetStatus(
	ctx context.Context, token string, status model.ContractStatus, by string, at time.Time,
) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const sel = `SELECT consent_status FROM reference_contracts WHERE token=$1 FOR UPDATE`
	var consent string
	if err = tx.QueryRow(ctx, sel, token).Scan(&consent); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: no contract uploaded for this request", errs.ErrNotFound)
		}
		return err
	}
	if status == model.ContractVerified && model.ConsentStatus(consent) != model.ConsentConsented {
		return fmt.Errorf("%w: cannot verify before landlord consent", errs.ErrConflict)
	}

	const upd = `
UPDATE reference_contracts SET status=$2, status_updated_at=$3, status_by=$4 WHERE token=$1`
	_, err = tx.Exec(ctx, upd, token, string(status), at, by)
	return err
}

// ListLockedBefore returns consent-locked contracts uploaded before cutoff.
func (r *ContractRepo) ListLockedBefore(ctx context.Context, cutoff time.Time) ([]model.ContractRecord, error) {
	q := `SELECT ` + contractColumns + `
FROM reference_contracts
WHERE consent_status=$1 AND uploaded_at < $2 AND path <> ''`
	rows, err := r.db.Pool.Query(ctx, q, string(model.ConsentLocked), cutoff)
	if err != nil {
		return nil, err
	}
	return collectContracts(rows)
}

// ListRejectedBefore returns rejected contracts uploaded before cutoff.
func (r *ContractRepo) ListRejectedBefore(ctx context.Context, cutoff time.Time) ([]model.ContractRecord, error) {
	q := `SELECT ` + contractColumns + `
FROM reference_contracts
WHERE status=$1 AND uploaded_at < $2 AND path <> ''`
	rows, err := r.db.Pool.Query(ctx, q, string(model.ContractRejected), cutoff)
	if err != nil {
		return nil, err
	}
	return collectContracts(rows)
}

// Tombstone blanks the path after blob removal, keeping the row.
func (r *ContractRepo) Tombstone(ctx context.Context, token string, forceRejected bool) error {
	if forceRejected {
		const q = `UPDATE reference_contracts SET path='', status=$2 WHERE token=$1`
		_, err := r.db.Pool.Exec(ctx, q, token, string(model.ContractRejected))
		return err
	}
	const q = `UPDATE reference_contracts SET path='' WHERE token=$1`
	_, err := r.db.Pool.Exec(ctx, q, token)
	return err
}

func scanContract(row pgx.Row) (*model.ContractRecord, error) {
	var rec model.ContractRecord
	var status, consent string
	if err := row.Scan(
		&rec.Token, &rec.TenantID, &rec.Filename, &rec.ContentType, &rec.Path, &rec.SizeBytes, &rec.SHA256,
		&status, &rec.StatusUpdatedAt, &rec.StatusBy, &rec.UploadedAt, &consent,
	); err != nil {
		return nil, err
	}
	rec.Status = model.ContractStatus(status)
	rec.Consent = model.ConsentStatus(consent)
	return &rec, nil
}

func collectContracts(rows pgx.Rows) ([]model.ContractRecord, error) {
	defer rows.Close()
	var out []model.ContractRecord
	for rows.Next() {
		rec, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}
