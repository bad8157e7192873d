package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/rentright-app/reference-service/internal/errs"
	"github.com/rentright-app/reference-service/internal/model"
	"github.com/rentright-app/reference-service/internal/repository"
	"github.com/rentright-app/reference-service/internal/vault"
)

// MaxContractSize is the upload size limit for contract files.
const MaxContractSize = 15 << 20 // 15 MiB

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// CleanupReport summarizes one retention sweep.
type CleanupReport struct {
	LockedExpired   int // locked past TTL: blob removed, row forced rejected
	RejectedExpired int // rejected past TTL: blob removed
	Failures        int // per-file removal failures, skipped and counted
}

// Plaintext is a decrypted contract returned to a viewer.
type Plaintext struct {
	Data        []byte
	Filename    string
	ContentType string
}

// VaultService owns the encrypted contract lifecycle: upload, the
// verification/consent gates, consent-gated reads, and retention cleanup.
type VaultService interface {
	// Upload encrypts and stores a contract file against a request token
	// the tenant owns. Re-upload restarts verification and consent.
	Upload(ctx context.Context, token string, tenantID uuid.UUID, data []byte, filename, contentType string) (*model.ContractRecord, error)
	// Get returns the contract row for a token.
	Get(ctx context.Context, token string) (*model.ContractRecord, error)
	// SetStatus updates the verification axis; verified additionally
	// requires consent and triggers promotion of the owning request.
	SetStatus(ctx context.Context, token string, status model.ContractStatus, actorEmail string) (promoted bool, err error)
	// ReadPlaintext decrypts the stored contract. Refused until the
	// landlord consented; any storage or decrypt failure degrades to
	// errs.ErrUnavailable.
	ReadPlaintext(ctx context.Context, token string) (*Plaintext, error)
	// CleanupExpired removes ciphertext for contracts stuck locked or
	// rejected past their retention windows, tombstoning the rows. Never
	// touches reference-request state.
	CleanupExpired(ctx context.Context, lockedTTL, rejectedTTL time.Duration) (CleanupReport, error)
}

type VaultServiceImpl struct {
	contracts repository.ContractRepository
	requests  repository.RequestRepository
	blobs     *vault.BlobStore
	cipher    vault.Cipher
	logger    *zap.Logger
}

// NewVaultService constructs a VaultService. The cipher is injected; key
// management stays outside the core.
func NewVaultService(
	contracts repository.ContractRepository,
	requests repository.RequestRepository,
	blobs *vault.BlobStore,
	cipher vault.Cipher,
	logger *zap.Logger,
) *VaultServiceImpl {
	return &VaultServiceImpl{contracts: contracts, requests: requests, blobs: blobs, cipher: cipher, logger: logger}
}

// Upload validates, encrypts and upserts the contract for a token.
func (s *VaultServiceImpl) Upload(
	ctx context.Context, token string, tenantID uuid.UUID, data []byte, filename, contentType string,
) (*model.ContractRecord, error) {
	req, err := s.requests.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("%w: reference request not found", errs.ErrNotFound)
		}
		return nil, err
	}
	if req.TenantID != tenantID {
		return nil, fmt.Errorf("%w: you cannot upload to a request that is not yours", errs.ErrValidation)
	}

	name := vault.SafeFilename(filename)
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: only PDF, PNG, JPG, JPEG, or WEBP files are allowed", errs.ErrValidation)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", errs.ErrValidation)
	}
	if len(data) > MaxContractSize {
		return nil, fmt.Errorf("%w: file too large (max 15 MiB)", errs.ErrValidation)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	digest := vault.DigestHex(data)
	ciphertext, err := s.cipher.Encrypt(data)
	if err != nil {
		return nil, fmt.Errorf("encrypt contract: %w", err)
	}
	path, err := s.blobs.Write(token, name, ciphertext)
	if err != nil {
		return nil, err
	}

	rec := &model.ContractRecord{
		Token:       token,
		TenantID:    tenantID,
		Filename:    name,
		ContentType: contentType,
		Path:        path,
		SizeBytes:   int64(len(data)),
		SHA256:      digest,
		Status:      model.ContractPending,
		UploadedAt:  time.Now().UTC(),
		Consent:     model.ConsentLocked,
	}
	if err := s.contracts.Upsert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns the contract row for a token.
func (s *VaultServiceImpl) Get(ctx context.Context, token string) (*model.ContractRecord, error) {
	return s.contracts.GetByToken(ctx, token)
}

// SetStatus updates the verification axis and, on verified, promotes the
// owning request if the landlord already answered. Both halves are
// idempotent, so concurrent admins converge on the same state.
func (s *VaultServiceImpl) SetStatus(ctx context.Context, token string, status model.ContractStatus, actorEmail string) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("%w: invalid contract status %q", errs.ErrValidation, status)
	}
	if err := s.contracts.SetStatus(ctx, token, status, actorEmail, time.Now().UTC()); err != nil {
		return false, err
	}
	if status != model.ContractVerified {
		return false, nil
	}
	return s.requests.PromoteIfReady(ctx, token)
}

// ReadPlaintext enforces the consent release gate at read time and
// degrades every storage/decrypt failure to "unavailable".
func (s *VaultServiceImpl) ReadPlaintext(ctx context.Context, token string) (*Plaintext, error) {
	rec, err := s.contracts.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if rec.Consent != model.ConsentConsented {
		return nil, fmt.Errorf("%w: landlord consent not granted", errs.ErrUnavailable)
	}
	if rec.Path == "" {
		return nil, fmt.Errorf("%w: contract file was removed by retention", errs.ErrUnavailable)
	}
	ciphertext, err := s.blobs.Read(rec.Path)
	if err != nil {
		s.logger.Warn("contract blob read failed", zap.String("token", token), zap.Error(err))
		return nil, fmt.Errorf("%w: contract file unavailable", errs.ErrUnavailable)
	}
	data, err := s.cipher.Decrypt(ciphertext)
	if err != nil {
		// Corrupt ciphertext or rotated-away key: degrade, never crash.
		s.logger.Warn("contract decrypt failed", zap.String("token", token))
		return nil, fmt.Errorf("%w: contract cannot be decrypted", errs.ErrUnavailable)
	}
	return &Plaintext{Data: data, Filename: rec.Filename, ContentType: rec.ContentType}, nil
}

// CleanupExpired sweeps locked and rejected contracts past their retention
// windows. One failed delete never aborts the sweep.
func (s *VaultServiceImpl) CleanupExpired(ctx context.Context, lockedTTL, rejectedTTL time.Duration) (CleanupReport, error) {
	var report CleanupReport
	now := time.Now().UTC()

	locked, err := s.contracts.ListLockedBefore(ctx, now.Add(-lockedTTL))
	if err != nil {
		return report, err
	}
	for _, rec := range locked {
		if err := s.blobs.Remove(rec.Path); err != nil {
			s.logger.Warn("cleanup: blob removal failed", zap.String("token", rec.Token), zap.Error(err))
			report.Failures++
			continue
		}
		// Never-consented uploads are force-rejected to signal terminal
		// non-availability.
		if err := s.contracts.Tombstone(ctx, rec.Token, true); err != nil {
			s.logger.Warn("cleanup: tombstone failed", zap.String("token", rec.Token), zap.Error(err))
			report.Failures++
			continue
		}
		report.LockedExpired++
	}

	rejected, err := s.contracts.ListRejectedBefore(ctx, now.Add(-rejectedTTL))
	if err != nil {
		return report, err
	}
	for _, rec := range rejected {
		if err := s.blobs.Remove(rec.Path); err != nil {
			s.logger.Warn("cleanup: blob removal failed", zap.String("token", rec.Token), zap.Error(err))
			report.Failures++
			continue
		}
		if err := s.contracts.Tombstone(ctx, rec.Token, false); err != nil {
			s.logger.Warn("cleanup: tombstone failed", zap.String("token", rec.Token), zap.Error(err))
			report.Failures++
			continue
		}
		report.RejectedExpired++
	}
	return report, nil
}
