// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Role of a registered user.
type Role string

// User roles.
const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleTenant || r == RoleLandlord || r == RoleAdmin
}

// RequestStatus is the stored status of a reference request.
// pending -> {completed, cancelled}; completed and cancelled are terminal.
type RequestStatus string

// Reference request statuses.
const (
	RequestPending   RequestStatus = "pending"
	RequestCompleted RequestStatus = "completed"
	RequestCancelled RequestStatus = "cancelled"
)

// ContractStatus is the verification axis of a contract record.
type ContractStatus string

// Contract verification statuses.
const (
	ContractPending  ContractStatus = "pending"
	ContractVerified ContractStatus = "verified"
	ContractRejected ContractStatus = "rejected"
)

// Valid reports whether the status is one of the known contract statuses.
func (s ContractStatus) Valid() bool {
	return s == ContractPending || s == ContractVerified || s == ContractRejected
}

// ConsentStatus is the consent axis of a contract record. It starts locked
// and flips to consented exactly when the landlord submits the reference
// form for the owning token. Re-upload resets it to locked.
type ConsentStatus string

// Contract consent statuses.
const (
	ConsentLocked    ConsentStatus = "locked"
	ConsentConsented ConsentStatus = "consented"
)

// User is a registered account. Passwords are stored as Argon2id hashes
// with a per-user salt; emails are stored lowercase and unique.
type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	PwdHash   []byte
	SaltAuth  []byte
	Role      Role
	CreatedAt time.Time
}

// Tokens collects issued access tokens for a logged-in user.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// PreviousLandlord is a tenant-authored record of a prior landlord,
// eligible as the target of reference requests.
type PreviousLandlord struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Email     string
	AFM       string // 9-digit Greek tax id
	Name      string
	Address   string
	CreatedAt time.Time
}

// FutureLandlordContact is a tenant's claim that Email will be their
// landlord; lets that landlord see the tenant as a prospect pre-tenancy.
// (TenantID, Email) is unique.
type FutureLandlordContact struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Email     string
	Invited   bool
	InvitedAt *time.Time
	CreatedAt time.Time
}

// TenantProfile holds the single-field variant of the future-landlord claim.
type TenantProfile struct {
	TenantID            uuid.UUID
	FutureLandlordEmail string
	UpdatedAt           time.Time
}

// ReferenceRequest is the core entity of the reference lifecycle. Token is
// the primary key and the bearer credential embedded in emailed links.
// LandlordEmail is a snapshot taken at creation time and may diverge from
// the previous-landlord record later.
type ReferenceRequest struct {
	Token          string
	TenantID       uuid.UUID
	PrevLandlordID uuid.UUID
	LandlordEmail  string
	Status         RequestStatus
	CreatedAt      time.Time

	// Answer fields, set once by landlord submission. FilledAt doubles as
	// the cancellation timestamp when the request is cancelled.
	FilledAt        *time.Time
	ConfirmLandlord *bool
	Score           *int
	PaidOnTime      *bool
	UtilitiesUnpaid *bool
	GoodCondition   *bool
	Comments        *string
}

// Answer carries the landlord's submission for a reference request.
type Answer struct {
	Confirm         bool
	Score           int // 1..10
	PaidOnTime      bool
	UtilitiesUnpaid bool
	GoodCondition   bool
	Comments        string
}

// ContractRecord is the vault row for the encrypted tenancy contract tied
// 1:1 to a reference request token. Path points at the ciphertext blob; a
// blank Path means the blob was removed by retention (tombstone).
type ContractRecord struct {
	Token           string
	TenantID        uuid.UUID
	Filename        string
	ContentType     string
	Path            string
	SizeBytes       int64
	SHA256          string // hex digest of the plaintext, for auditing
	Status          ContractStatus
	StatusUpdatedAt *time.Time
	StatusBy        string // admin email, empty until first status change
	UploadedAt      time.Time
	Consent         ConsentStatus
}

// Prospect is a tenant who listed a given landlord as their future
// landlord, via profile or contact list.
type Prospect struct {
	TenantID   uuid.UUID
	Name       string
	Email      string
	LastUpdate time.Time
}

// LandlordReference pairs a previous landlord with the most recent
// reference request addressed to them, if any.
type LandlordReference struct {
	Landlord PreviousLandlord
	Request  *ReferenceRequest
}

// EffectiveStatus is the display-time projection of a request's state:
// cancelled wins; a contract that exists but is not verified forces
// pending regardless of stored status; otherwise the stored status
// (default pending). It is authoritative for display and gating; the
// stored status is best effort.
func EffectiveStatus(req *ReferenceRequest, contract *ContractRecord) RequestStatus {
	if req.Status == RequestCancelled {
		return RequestCancelled
	}
	if contract != nil && contract.Status != ContractVerified {
		return RequestPending
	}
	if req.Status == "" {
		return RequestPending
	}
	return req.Status
}
