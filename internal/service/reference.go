package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/rentright-app/reference-service/internal/crypto"
	"github.com/rentright-app/reference-service/internal/errs"
	"github.com/rentright-app/reference-service/internal/mail"
	"github.com/rentright-app/reference-service/internal/model"
	"github.com/rentright-app/reference-service/internal/repository"
)

// CreateResult reports a freshly minted reference request and the outcome
// of the best-effort notification to the landlord.
type CreateResult struct {
	Token     string
	Link      string
	EmailOK   bool
	EmailNote string
}

// RequestView pairs a stored request with its effective status, the
// projection every dashboard must display instead of the raw column.
type RequestView struct {
	Request   model.ReferenceRequest
	Effective model.RequestStatus
}

// ReferenceService owns the reference-request lifecycle: minting tokens,
// the landlord submission gate, cancellation, and promotion once the
// supporting contract is verified.
type ReferenceService interface {
	// Create mints a token for a pending request to one of the tenant's
	// previous landlords and attempts the notification email. A failed
	// send never rolls back the created request.
	Create(ctx context.Context, tenantID, prevLandlordID uuid.UUID) (CreateResult, error)
	// Get loads a request with its effective status (public portal view).
	Get(ctx context.Context, token string) (*RequestView, error)
	// Submit records the landlord's answers. The request completes only if
	// a verified contract already exists; otherwise the answers are stored
	// and the request stays pending until promotion.
	Submit(ctx context.Context, token string, ans model.Answer) (model.RequestStatus, error)
	// Cancel terminates a pending request. Irreversible.
	Cancel(ctx context.Context, token string) error
	// PromoteIfReady re-checks the completion conjunction; used after
	// contract verification.
	PromoteIfReady(ctx context.Context, token string) (bool, error)

	// ListForTenant returns the tenant's requests with effective statuses.
	ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]RequestView, error)
	// ListForLandlord returns requests addressed to the landlord.
	ListForLandlord(ctx context.Context, landlordEmail string, status *model.RequestStatus) ([]RequestView, error)
	// ListAll returns every request (admin view).
	ListAll(ctx context.Context, status *model.RequestStatus) ([]RequestView, error)
	// LatestForPair returns the newest request for (tenant, previous landlord).
	LatestForPair(ctx context.Context, tenantID, prevLandlordID uuid.UUID) (*RequestView, error)
	// LatestReferences returns the tenant's previous landlords joined with
	// their most recent request.
	LatestReferences(ctx context.Context, tenantID uuid.UUID) ([]model.LandlordReference, error)
}

type ReferenceServiceImpl struct {
	requests  repository.RequestRepository
	contracts repository.ContractRepository
	landlords repository.LandlordRepository
	users     repository.UserRepository
	sender    mail.Sender
	baseURL   string
}

// NewReferenceService constructs a ReferenceService. baseURL is used to
// build the emailed portal link (<base>/?ref=<token>).
func NewReferenceService(
	requests repository.RequestRepository,
	contracts repository.ContractRepository,
	landlords repository.LandlordRepository,
	users repository.UserRepository,
	sender mail.Sender,
	baseURL string,
) *ReferenceServiceImpl {
	return &ReferenceServiceImpl{
		requests:  requests,
		contracts: contracts,
		landlords: landlords,
		users:     users,
		sender:    sender,
		baseURL:   baseURL,
	}
}

// Create mints a pending request to one of the tenant's previous
// landlords. The landlord email is snapshotted from the registry entry.
// Multiple concurrent requests to the same landlord are permitted.
func (s *ReferenceServiceImpl) Create(ctx context.Context, tenantID, prevLandlordID uuid.UUID) (CreateResult, error) {
	pl, err := s.landlords.GetByID(ctx, prevLandlordID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return CreateResult{}, fmt.Errorf("%w: previous landlord not found", errs.ErrNotFound)
		}
		return CreateResult{}, err
	}
	if pl.TenantID != tenantID {
		return CreateResult{}, fmt.Errorf("%w: landlord entry belongs to another tenant", errs.ErrValidation)
	}

	token, err := pkgcrypto.NewToken()
	if err != nil {
		return CreateResult{}, err
	}
	req := &model.ReferenceRequest{
		Token:          token,
		TenantID:       tenantID,
		PrevLandlordID: prevLandlordID,
		LandlordEmail:  pl.Email,
		Status:         model.RequestPending,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return CreateResult{}, err
	}

	res := CreateResult{Token: token, Link: s.referenceLink(token)}

	// Notification is a separate failure domain: the request above stays
	// committed whatever happens to the email.
	tenant, err := s.users.GetByID(ctx, tenantID)
	if err != nil {
		res.EmailNote = "could not load tenant for notification"
		return res, nil
	}
	subject := fmt.Sprintf("Reference Request for Tenant %s", tenant.Name)
	body := "Hello,\n\n" +
		fmt.Sprintf("%s (%s) listed you as a previous landlord and is requesting a short reference.\n", tenant.Name, tenant.Email) +
		fmt.Sprintf("Please confirm and complete the form here: %s\n\n", res.Link) +
		"Thank you!"
	res.EmailOK, res.EmailNote = s.sender.Send(ctx, pl.Email, subject, body)
	return res, nil
}

func (s *ReferenceServiceImpl) referenceLink(token string) string {
	if s.baseURL == "" {
		return "?ref=" + token
	}
	return s.baseURL + "/?ref=" + token
}

// Get loads a request with its effective status.
func (s *ReferenceServiceImpl) Get(ctx context.Context, token string) (*RequestView, error) {
	req, err := s.requests.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	view, err := s.view(ctx, *req)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Submit validates and records the landlord's answers.
func (s *ReferenceServiceImpl) Submit(ctx context.Context, token string, ans model.Answer) (model.RequestStatus, error) {
	if !ans.Confirm {
		return "", fmt.Errorf("%w: you must confirm you were the landlord", errs.ErrValidation)
	}
	if ans.Score < 1 || ans.Score > 10 {
		return "", fmt.Errorf("%w: score must be between 1 and 10", errs.ErrValidation)
	}
	return s.requests.SubmitAnswers(ctx, token, ans, time.Now().UTC())
}

// Cancel terminates a pending request.
func (s *ReferenceServiceImpl) Cancel(ctx context.Context, token string) error {
	return s.requests.Cancel(ctx, token, time.Now().UTC())
}

// PromoteIfReady re-checks the completion conjunction.
func (s *ReferenceServiceImpl) PromoteIfReady(ctx context.Context, token string) (bool, error) {
	return s.requests.PromoteIfReady(ctx, token)
}

// ListForTenant returns the tenant's requests with effective statuses.
func (s *ReferenceServiceImpl) ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]RequestView, error) {
	reqs, err := s.requests.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, reqs)
}

// ListForLandlord returns requests addressed to the landlord.
func (s *ReferenceServiceImpl) ListForLandlord(ctx context.Context, landlordEmail string, status *model.RequestStatus) ([]RequestView, error) {
	reqs, err := s.requests.ListByLandlord(ctx, NormalizeEmail(landlordEmail), status)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, reqs)
}

// ListAll returns every request (admin view).
func (s *ReferenceServiceImpl) ListAll(ctx context.Context, status *model.RequestStatus) ([]RequestView, error) {
	reqs, err := s.requests.ListAll(ctx, status)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, reqs)
}

// LatestForPair returns the newest request for (tenant, previous landlord).
func (s *ReferenceServiceImpl) LatestForPair(ctx context.Context, tenantID, prevLandlordID uuid.UUID) (*RequestView, error) {
	req, err := s.requests.LatestForPair(ctx, tenantID, prevLandlordID)
	if err != nil {
		return nil, err
	}
	view, err := s.view(ctx, *req)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// LatestReferences returns previous landlords joined with their most
// recent request.
func (s *ReferenceServiceImpl) LatestReferences(ctx context.Context, tenantID uuid.UUID) ([]model.LandlordReference, error) {
	return s.requests.LatestReferences(ctx, tenantID)
}

func (s *ReferenceServiceImpl) view(ctx context.Context, req model.ReferenceRequest) (RequestView, error) {
	contract, err := s.contracts.GetByToken(ctx, req.Token)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return RequestView{}, err
	}
	return RequestView{Request: req, Effective: model.EffectiveStatus(&req, contract)}, nil
}

func (s *ReferenceServiceImpl) views(ctx context.Context, reqs []model.ReferenceRequest) ([]RequestView, error) {
	out := make([]RequestView, 0, len(reqs))
	for _, req := range reqs {
		view, err := s.view(ctx, req)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}
