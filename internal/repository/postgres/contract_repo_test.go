package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/rentright-app/reference-service/internal/errs"
	"github.com/rentright-app/reference-service/internal/model"
)

func TestContractRepo_Upsert_ResetsVerificationAndConsent(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewContractRepo(db)

	rec := &model.ContractRecord{
		Token:       "t1",
		TenantID:    uuid.Must(uuid.NewV4()),
		Filename:    "lease.pdf",
		ContentType: "application/pdf",
		Path:        "/data/t1/lease.pdf.bin",
		SizeBytes:   1024,
		SHA256:      "deadbeef",
		UploadedAt:  time.Now().UTC(),
	}
	// Every upsert writes status=pending and consent=locked regardless of
	// what the previous row held.
	mock.ExpectExec(`INSERT INTO reference_contracts`).
		WithArgs(rec.Token, rec.TenantID, rec.Filename, rec.ContentType, rec.Path, rec.SizeBytes, rec.SHA256,
			"pending", rec.UploadedAt, "locked").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Upsert(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContractRepo_GetByToken(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewContractRepo(db)
	tenantID := uuid.Must(uuid.NewV4())
	now := time.Now().UTC()

	cols := []string{
		"token", "tenant_id", "filename", "content_type", "path", "size_bytes", "sha256",
		"status", "status_updated_at", "status_by", "uploaded_at", "consent_status",
	}
	mock.ExpectQuery(`FROM reference_contracts WHERE token=\$1`).
		WithArgs("t2").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("t2", tenantID, "lease.pdf", "application/pdf", "/p", int64(10), "hash",
				"pending", nil, "", now, "locked"))
	rec, err := r.GetByToken(context.Background(), "t2")
	require.NoError(t, err)
	require.Equal(t, model.ContractPending, rec.Status)
	require.Equal(t, model.ConsentLocked, rec.Consent)

	mock.ExpectQuery(`FROM reference_contracts WHERE token=\$1`).
		WithArgs("gone").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByToken(context.Background(), "gone")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestContractRepo_SetStatus_ConsentGate(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewContractRepo(db)
	at := time.Now().UTC()

	// verify blocked while consent is locked
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT consent_status FROM reference_contracts WHERE token=\$1 FOR UPDATE`).
		WithArgs("t3").
		WillReturnRows(pgxmock.NewRows([]string{"consent_status"}).AddRow("locked"))
	mock.ExpectRollback()
	err := r.SetStatus(context.Background(), "t3", model.ContractVerified, "admin@example.com", at)
	require.ErrorIs(t, err, errs.ErrConflict)

	// reject is allowed without consent
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT consent_status FROM reference_contracts WHERE token=\$1 FOR UPDATE`).
		WithArgs("t3").
		WillReturnRows(pgxmock.NewRows([]string{"consent_status"}).AddRow("locked"))
	mock.ExpectExec(`UPDATE reference_contracts SET status=\$2`).
		WithArgs("t3", "rejected", at, "admin@example.com").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	require.NoError(t, r.SetStatus(context.Background(), "t3", model.ContractRejected, "admin@example.com", at))

	// verify succeeds after consent
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT consent_status FROM reference_contracts WHERE token=\$1 FOR UPDATE`).
		WithArgs("t3").
		WillReturnRows(pgxmock.NewRows([]string{"consent_status"}).AddRow("consented"))
	mock.ExpectExec(`UPDATE reference_contracts SET status=\$2`).
		WithArgs("t3", "verified", at, "admin@example.com").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	require.NoError(t, r.SetStatus(context.Background(), "t3", model.ContractVerified, "admin@example.com", at))

	// missing contract
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT consent_status FROM reference_contracts WHERE token=\$1 FOR UPDATE`).
		WithArgs("gone").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()
	err = r.SetStatus(context.Background(), "gone", model.ContractVerified, "admin@example.com", at)
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContractRepo_Tombstone(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewContractRepo(db)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE reference_contracts SET path='', status=\$2 WHERE token=\$1`).
		WithArgs("t4", "rejected").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.Tombstone(ctx, "t4", true))

	mock.ExpectExec(`UPDATE reference_contracts SET path='' WHERE token=\$1`).
		WithArgs("t4").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.Tombstone(ctx, "t4", false))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContractRepo_ListLockedBefore_SkipsTombstones(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewContractRepo(db)
	cutoff := time.Now().UTC()
	tenantID := uuid.Must(uuid.NewV4())

	cols := []string{
		"token", "tenant_id", "filename", "content_type", "path", "size_bytes", "sha256",
		"status", "status_updated_at", "status_by", "uploaded_at", "consent_status",
	}
	mock.ExpectQuery(`WHERE consent_status=\$1 AND uploaded_at < \$2 AND path <> ''`).
		WithArgs("locked", cutoff).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("t5", tenantID, "lease.pdf", "application/pdf", "/p", int64(10), "hash",
				"pending", nil, "", cutoff.Add(-time.Hour), "locked"))
	got, err := r.ListLockedBefore(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "t5", got[0].Token)
}
