package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/rentright-app/reference-service/internal/model"
)

// RequestRepository owns the reference-request lifecycle rows. State
// transitions run in a single transaction with row locks; concurrent
// admin actions are resolved by idempotent re-checks inside the
// transaction, so every method here is safe to call twice.
type RequestRepository interface {
	// Create inserts a new pending request.
	Create(ctx context.Context, req *model.ReferenceRequest) error

	// GetByToken loads a request; errs.ErrNotFound when absent.
	GetByToken(ctx context.Context, token string) (*model.ReferenceRequest, error)

	// SubmitAnswers stores the landlord's answers and FilledAt on a pending
	// request. Status becomes completed iff a verified contract exists for
	// the token, else stays pending. When ans.Confirm is set and a locked
	// contract row exists, its consent flips to consented in the same
	// transaction. Returns the resulting status.
	// Already completed -> errs.ErrConflict ("already submitted");
	// cancelled -> errs.ErrConflict; missing -> errs.ErrNotFound.
	SubmitAnswers(ctx context.Context, token string, ans model.Answer, at time.Time) (model.RequestStatus, error)

	// Cancel flips a pending request to cancelled and stamps FilledAt with
	// the cancellation time. Non-pending -> errs.ErrConflict; missing ->
	// errs.ErrNotFound.
	Cancel(ctx context.Context, token string, at time.Time) error

	// PromoteIfReady flips pending -> completed when the request exists,
	// is not already completed, the landlord confirmed, and the contract
	// is verified. Reports whether a promotion happened.
	PromoteIfReady(ctx context.Context, token string) (bool, error)

	// ListByTenant returns the tenant's requests, newest first.
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]model.ReferenceRequest, error)
	// ListByLandlord returns requests addressed to landlordEmail, newest
	// first, optionally filtered by stored status.
	ListByLandlord(ctx context.Context, landlordEmail string, status *model.RequestStatus) ([]model.ReferenceRequest, error)
	// ListAll returns all requests, newest first, optionally filtered by
	// stored status (admin view).
	ListAll(ctx context.Context, status *model.RequestStatus) ([]model.ReferenceRequest, error)
	// LatestForPair returns the most recent request for (tenant, previous
	// landlord); errs.ErrNotFound when none exists.
	LatestForPair(ctx context.Context, tenantID, prevLandlordID uuid.UUID) (*model.ReferenceRequest, error)
	// LatestReferences returns each previous landlord of the tenant joined
	// with their most recent request, if any.
	LatestReferences(ctx context.Context, tenantID uuid.UUID) ([]model.LandlordReference, error)
}
