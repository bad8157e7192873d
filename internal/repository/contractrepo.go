package repository

import (
	"context"
	"time"

	"github.com/rentright-app/reference-service/internal/model"
)

// ContractRepository owns the contract-vault rows (one per token).
type ContractRepository interface {
	// GetByToken loads the contract for a token; errs.ErrNotFound when absent.
	GetByToken(ctx context.Context, token string) (*model.ContractRecord, error)

	// Upsert inserts the first contract for a token, or overwrites an
	// existing one. Either way the row ends with status=pending,
	// consent=locked and a cleared StatusBy: any new document restarts the
	// verification and consent workflow.
	Upsert(ctx context.Context, rec *model.ContractRecord) error

	// SetStatus updates the verification status, stamping StatusUpdatedAt
	// and StatusBy. Setting verified while consent is locked ->
	// errs.ErrConflict; missing contract -> errs.ErrNotFound.
	SetStatus(ctx context.Context, token string, status model.ContractStatus, by string, at time.Time) error

	// ListLockedBefore returns contracts still consent-locked whose upload
	// time is before the cutoff.
	ListLockedBefore(ctx context.Context, cutoff time.Time) ([]model.ContractRecord, error)
	// ListRejectedBefore returns rejected contracts uploaded before the cutoff.
	ListRejectedBefore(ctx context.Context, cutoff time.Time) ([]model.ContractRecord, error)
	// Tombstone blanks the row's path after its blob was removed;
	// forceRejected additionally sets status=rejected (used for expired
	// locked rows to signal terminal non-availability).
	Tombstone(ctx context.Context, token string, forceRejected bool) error
}
