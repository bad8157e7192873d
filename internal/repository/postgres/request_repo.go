package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/rentright-app/reference-service/internal/errs"
	"github.com/rentright-app/reference-service/internal/model"
)

// RequestRepo implements RequestRepository using PostgreSQL. Transitions
// lock the request row (and the contract row when the gate depends on it)
// so concurrent admin actions resolve to idempotent re-checks.
type RequestRepo struct{ db *DB }

// NewRequestRepo constructs a reference-request repository.
func NewRequestRepo(db *DB) *RequestRepo { return &RequestRepo{db: db} }

const requestColumns = `token, tenant_id, prev_landlord_id, landlord_email, status, created_at,
filled_at, confirm_landlord, score, paid_on_time, utilities_unpaid, good_condition, comments`

// Create inserts a new pending request.
func (r *RequestRepo) Create(ctx context.Context, req *model.ReferenceRequest) error {
	const q = `
INSERT INTO reference_requests (token, tenant_id, prev_landlord_id, landlord_email, status)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, req.Token, req.TenantID, req.PrevLandlordID, req.LandlordEmail, string(model.RequestPending))
	return err
}

// GetByToken selects a request by token.
func (r *RequestRepo) GetByToken(ctx context.Context, token string) (*model.ReferenceRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM reference_requests WHERE token=$1`
	req, err := scanRequest(r.db.Pool.QueryRow(ctx, q, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// SubmitAnswers stores the landlord's answers on a pending request,
// applying the two-signal completion gate and the consent flip atomically.
func (r *RequestRepo) SubmitAnswers(
	ctx context.Context, token string, ans model.Answer, at time.Time,
) (status model.RequestStatus, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
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

	const selReq = `SELECT status FROM reference_requests WHERE token=$1 FOR UPDATE`
	var cur string
	if err = tx.QueryRow(ctx, selReq, token).Scan(&cur); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errs.ErrNotFound
		}
		return "", err
	}
	switch model.RequestStatus(cur) {
	case model.RequestCompleted:
		return "", fmt.Errorf("%w: reference already submitted", errs.ErrConflict)
	case model.RequestCancelled:
		return "", fmt.Errorf("%w: reference request was cancelled", errs.ErrConflict)
	}

	// Completion requires both the landlord's answer and an independently
	// verified contract; with no contract (or an unverified one) the
	// answers are stored but the request stays pending.
	const selContract = `SELECT status FROM reference_contracts WHERE token=$1 FOR UPDATE`
	var contractStatus string
	contractExists := true
	if err = tx.QueryRow(ctx, selContract, token).Scan(&contractStatus); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return "", err
		}
		contractExists = false
		err = nil
	}

	status = model.RequestPending
	if contractExists && model.ContractStatus(contractStatus) == model.ContractVerified {
		status = model.RequestCompleted
	}

	const upd = `
UPDATE reference_requests
SET status=$2, filled_at=$3, confirm_landlord=$4, score=$5,
    paid_on_time=$6, utilities_unpaid=$7, good_condition=$8, comments=$9
WHERE token=$1`
	if _, err = tx.Exec(ctx, upd, token, string(status), at,
		ans.Confirm, ans.Score, ans.PaidOnTime, ans.UtilitiesUnpaid, ans.GoodCondition, nullIfEmpty(ans.Comments)); err != nil {
		return "", err
	}

	// Answering the form is the landlord's consent to release the contract.
	if ans.Confirm && contractExists {
		const consent = `
UPDATE reference_contracts SET consent_status=$2 WHERE token=$1 AND consent_status=$3`
		if _, err = tx.Exec(ctx, consent, token, string(model.ConsentConsented), string(model.ConsentLocked)); err != nil {
			return "", err
		}
	}
	return status, nil
}

// Cancel flips a pending request to cancelled, stamping FilledAt.
func (r *RequestRepo) Cancel(ctx context.Context, token string, at time.Time) (err error) {
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

	const sel = `SELECT status FROM reference_requests WHERE token=$1 FOR UPDATE`
	var cur string
	if err = tx.QueryRow(ctx, sel, token).Scan(&cur); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrNotFound
		}
		return err
	}
	if model.RequestStatus(cur) != model.RequestPending {
		return fmt.Errorf("%w: only pending requests can be cancelled", errs.ErrConflict)
	}

	const upd = `UPDATE reference_requests SET status=$2, filled_at=$3 WHERE token=$1`
	_, err = tx.Exec(ctx, upd, token, string(model.RequestCancelled), at)
	return err
}

// PromoteIfReady flips pending -> completed when the landlord already
// confirmed and the contract is verified. Safe to call twice: the second
// call finds the request completed and reports no promotion.
func (r *RequestRepo) PromoteIfReady(ctx context.Context, token string) (promoted bool, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
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

	const selReq = `SELECT status, COALESCE(confirm_landlord, false) FROM reference_requests WHERE token=$1 FOR UPDATE`
	var cur string
	var confirmed bool
	if err = tx.QueryRow(ctx, selReq, token).Scan(&cur, &confirmed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
			return false, nil
		}
		return false, err
	}
	if model.RequestStatus(cur) != model.RequestPending || !confirmed {
		return false, nil
	}

	const selContract = `SELECT status FROM reference_contracts WHERE token=$1`
	var contractStatus string
	if err = tx.QueryRow(ctx, selContract, token).Scan(&contractStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
			return false, nil
		}
		return false, err
	}
	if model.ContractStatus(contractStatus) != model.ContractVerified {
		return false, nil
	}

	const upd = `UPDATE reference_requests SET status=$2 WHERE token=$1`
	if _, err = tx.Exec(ctx, upd, token, string(model.RequestCompleted)); err != nil {
		return false, err
	}
	return true, nil
}

// ListByTenant returns the tenant's requests, newest first.
func (r *RequestRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]model.ReferenceRequest, error) {
	q := `SELECT ` + requestColumns + `
FROM reference_requests WHERE tenant_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

// ListByLandlord returns requests addressed to landlordEmail, newest first.
func (r *RequestRepo) ListByLandlord(ctx context.Context, landlordEmail string, status *model.RequestStatus) ([]model.ReferenceRequest, error) {
	if status != nil {
		q := `SELECT ` + requestColumns + `
FROM reference_requests WHERE landlord_email=$1 AND status=$2 ORDER BY created_at DESC`
		rows, err := r.db.Pool.Query(ctx, q, landlordEmail, string(*status))
		if err != nil {
			return nil, err
		}
		return collectRequests(rows)
	}
	q := `SELECT ` + requestColumns + `
FROM reference_requests WHERE landlord_email=$1 ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, landlordEmail)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

// ListAll returns all requests, newest first (admin view).
func (r *RequestRepo) ListAll(ctx context.Context, status *model.RequestStatus) ([]model.ReferenceRequest, error) {
	if status != nil {
		q := `SELECT ` + requestColumns + `
FROM reference_requests WHERE status=$1 ORDER BY created_at DESC`
		rows, err := r.db.Pool.Query(ctx, q, string(*status))
		if err != nil {
			return nil, err
		}
		return collectRequests(rows)
	}
	q := `SELECT ` + requestColumns + ` FROM reference_requests ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

// LatestForPair returns the most recent request for (tenant, previous landlord).
func (r *RequestRepo) LatestForPair(ctx context.Context, tenantID, prevLandlordID uuid.UUID) (*model.ReferenceRequest, error) {
	q := `SELECT ` + requestColumns + `
FROM reference_requests
WHERE tenant_id=$1 AND prev_landlord_id=$2
ORDER BY created_at DESC
LIMIT 1`
	req, err := scanRequest(r.db.Pool.QueryRow(ctx, q, tenantID, prevLandlordID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// LatestReferences joins each previous landlord of the tenant with their
// most recent reference request, if any.
func (r *RequestRepo) LatestReferences(ctx context.Context, tenantID uuid.UUID) ([]model.LandlordReference, error) {
	const q = `
SELECT pl.id, pl.tenant_id, pl.email, pl.afm, pl.name, pl.address, pl.created_at,
       rr.token, rr.landlord_email, rr.status, rr.created_at, rr.filled_at,
       rr.confirm_landlord, rr.score, rr.paid_on_time, rr.utilities_unpaid,
       rr.good_condition, rr.comments
FROM previous_landlords pl
LEFT JOIN reference_requests rr
  ON rr.token = (
       SELECT r2.token FROM reference_requests r2
       WHERE r2.prev_landlord_id = pl.id AND r2.tenant_id = pl.tenant_id
       ORDER BY r2.created_at DESC
       LIMIT 1
     )
WHERE pl.tenant_id=$1
ORDER BY pl.created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LandlordReference
	for rows.Next() {
		var lr model.LandlordReference
		var (
			token, landlordEmail, status    *string
			createdAt, filledAt             *time.Time
			confirm, paid, unpaid, goodCond *bool
			score                           *int
			comments                        *string
		)
		if err := rows.Scan(
			&lr.Landlord.ID, &lr.Landlord.TenantID, &lr.Landlord.Email, &lr.Landlord.AFM,
			&lr.Landlord.Name, &lr.Landlord.Address, &lr.Landlord.CreatedAt,
			&token, &landlordEmail, &status, &createdAt, &filledAt,
			&confirm, &score, &paid, &unpaid, &goodCond, &comments,
		); err != nil {
			return nil, err
		}
		if token != nil {
			req := &model.ReferenceRequest{
				Token:           *token,
				TenantID:        lr.Landlord.TenantID,
				PrevLandlordID:  lr.Landlord.ID,
				LandlordEmail:   *landlordEmail,
				Status:          model.RequestStatus(*status),
				FilledAt:        filledAt,
				ConfirmLandlord: confirm,
				Score:           score,
				PaidOnTime:      paid,
				UtilitiesUnpaid: unpaid,
				GoodCondition:   goodCond,
				Comments:        comments,
			}
			if createdAt != nil {
				req.CreatedAt = *createdAt
			}
			lr.Request = req
		}
		out = append(out, lr)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func scanRequest(row pgx.Row) (*model.ReferenceRequest, error) {
	var req model.ReferenceRequest
	var status string
	if err := row.Scan(
		&req.Token, &req.TenantID, &req.PrevLandlordID, &req.LandlordEmail, &status, &req.CreatedAt,
		&req.FilledAt, &req.ConfirmLandlord, &req.Score, &req.PaidOnTime,
		&req.UtilitiesUnpaid, &req.GoodCondition, &req.Comments,
	); err != nil {
		return nil, err
	}
	req.Status = model.RequestStatus(status)
	return &req, nil
}

func collectRequests(rows pgx.Rows) ([]model.ReferenceRequest, error) {
	defer rows.Close()
	var out []model.ReferenceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}
