package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/rentright-app/reference-service/internal/errs"
	"github.com/rentright-app/reference-service/internal/mail"
	"github.com/rentright-app/reference-service/internal/model"
	"github.com/rentright-app/reference-service/internal/repository"
)

// ContactService manages future-landlord contacts, tenant profiles and the
// invite flow. Email delivery is best-effort: a failed invite leaves the
// contact row intact and is reported as a soft warning.
type ContactService interface {
	// AddContact records a (tenant, email) claim; duplicates are ignored.
	AddContact(ctx context.Context, tenantID uuid.UUID, email string) error
	// ListContacts returns the tenant's contacts, newest first.
	ListContacts(ctx context.Context, tenantID uuid.UUID) ([]model.FutureLandlordContact, error)
	// RemoveContact deletes a contact owned by the tenant.
	RemoveContact(ctx context.Context, tenantID, id uuid.UUID) error
	// Invite emails the contact a join link; the invited flag flips only
	// after the send succeeded. ok=false carries the SMTP detail.
	Invite(ctx context.Context, tenantID uuid.UUID, email string) (ok bool, detail string, err error)

	// UpsertProfile stores the single-field future-landlord claim.
	UpsertProfile(ctx context.Context, tenantID uuid.UUID, futureLandlordEmail string) error
	// Profile loads the tenant's profile.
	Profile(ctx context.Context, tenantID uuid.UUID) (*model.TenantProfile, error)
	// Prospects returns tenants that listed landlordEmail as a future landlord.
	Prospects(ctx context.Context, landlordEmail string) ([]model.Prospect, error)
}

type ContactServiceImpl struct {
	contacts repository.ContactRepository
	users    repository.UserRepository
	sender   mail.Sender
	joinLink string // base URL advertised in invite mail; may be empty
}

// NewContactService constructs a ContactService.
func NewContactService(contacts repository.ContactRepository, users repository.UserRepository, sender mail.Sender, joinLink string) *ContactServiceImpl {
	return &ContactServiceImpl{contacts: contacts, users: users, sender: sender, joinLink: joinLink}
}

// AddContact validates and records the claim.
func (s *ContactServiceImpl) AddContact(ctx context.Context, tenantID uuid.UUID, email string) error {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return fmt.Errorf("%w: invalid email address", errs.ErrValidation)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	return s.contacts.Add(ctx, &model.FutureLandlordContact{ID: id, TenantID: tenantID, Email: email})
}

// ListContacts returns the tenant's contacts.
func (s *ContactServiceImpl) ListContacts(ctx context.Context, tenantID uuid.UUID) ([]model.FutureLandlordContact, error) {
	return s.contacts.ListByTenant(ctx, tenantID)
}

// RemoveContact deletes the contact when owned by the tenant.
func (s *ContactServiceImpl) RemoveContact(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.contacts.Delete(ctx, tenantID, id)
}

// Invite sends the invitation mail and, only on success, marks the contact
// invited. The already-recorded contact survives a failed send.
func (s *ContactServiceImpl) Invite(ctx context.Context, tenantID uuid.UUID, email string) (bool, string, error) {
	email = NormalizeEmail(email)
	tenant, err := s.users.GetByID(ctx, tenantID)
	if err != nil {
		return false, "", err
	}

	subject := fmt.Sprintf("%s would like to connect with you on RentRight", tenant.Name)
	body := "Hello,\n\n" +
		fmt.Sprintf("%s (%s) has added you as a future landlord on RentRight.\n", tenant.Name, tenant.Email)
	if s.joinLink != "" {
		body += fmt.Sprintf("You can sign in or create an account here: %s\n\n", s.joinLink)
	}
	body += "Thank you."

	ok, detail := s.sender.Send(ctx, email, subject, body)
	if !ok {
		return false, detail, nil
	}
	if err := s.contacts.MarkInvited(ctx, tenantID, email, time.Now().UTC()); err != nil {
		return false, "", err
	}
	return true, detail, nil
}

// UpsertProfile stores the profile claim after validating the email.
func (s *ContactServiceImpl) UpsertProfile(ctx context.Context, tenantID uuid.UUID, futureLandlordEmail string) error {
	futureLandlordEmail = NormalizeEmail(futureLandlordEmail)
	if futureLandlordEmail != "" && !ValidEmail(futureLandlordEmail) {
		return fmt.Errorf("%w: invalid email address", errs.ErrValidation)
	}
	return s.contacts.UpsertProfile(ctx, &model.TenantProfile{
		TenantID:            tenantID,
		FutureLandlordEmail: futureLandlordEmail,
		UpdatedAt:           time.Now().UTC(),
	})
}

// Profile loads the tenant's profile.
func (s *ContactServiceImpl) Profile(ctx context.Context, tenantID uuid.UUID) (*model.TenantProfile, error) {
	return s.contacts.GetProfile(ctx, tenantID)
}

// Prospects lists tenants that claimed this landlord.
func (s *ContactServiceImpl) Prospects(ctx context.Context, landlordEmail string) ([]model.Prospect, error) {
	return s.contacts.ProspectiveTenants(ctx, NormalizeEmail(landlordEmail))
}
