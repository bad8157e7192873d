package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/rentright-app/reference-service/internal/errs"
	"github.com/rentright-app/reference-service/internal/model"
	"github.com/rentright-app/reference-service/internal/vault"
)

type vaultFixture struct {
	svc       *VaultServiceImpl
	contracts *fakeContracts
	requests  *fakeRequests
	blobs     *vault.BlobStore

	tenantID uuid.UUID
	token    string
}

func newVaultFixture(t *testing.T) *vaultFixture {
	t.Helper()
	contracts := newFakeContracts()
	requests := newFakeRequests(contracts)

	blobs, err := vault.NewBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}
	key := bytes.Repeat([]byte{7}, vault.KeyLen)
	cipher, err := vault.NewKeychain(1, map[byte][]byte{1: key})
	if err != nil {
		t.Fatalf("keychain: %v", err)
	}

	tenantID := uuid.Must(uuid.NewV4())
	token := "aabbccddeeff00112233445566778899"
	_ = requests.Create(context.Background(), &model.ReferenceRequest{
		Token:          token,
		TenantID:       tenantID,
		PrevLandlordID: uuid.Must(uuid.NewV4()),
		LandlordEmail:  "landlord@example.com",
	})

	svc := NewVaultService(contracts, requests, blobs, cipher, zap.NewNop())
	return &vaultFixture{
		svc: svc, contracts: contracts, requests: requests, blobs: blobs,
		tenantID: tenantID, token: token,
	}
}

func TestVault_Upload_Validation(t *testing.T) {
	t.Parallel()
	fx := newVaultFixture(t)
	ctx := context.Background()
	data := []byte("%PDF-1.4 contract body")

	if _, err := fx.svc.Upload(ctx, "unknown-token", fx.tenantID, data, "lease.pdf", "application/pdf"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown token, got %v", err)
	}
	if _, err := fx.svc.Upload(ctx, fx.token, uuid.Must(uuid.NewV4()), data, "lease.pdf", "application/pdf"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation for foreign request, got %v", err)
	}
	if _, err := fx.svc.Upload(ctx, fx.token, fx.tenantID, data, "lease.exe", "application/octet-stream"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation for bad extension, got %v", err)
	}
	if _, err := fx.svc.Upload(ctx, fx.token, fx.tenantID, nil, "lease.pdf", "application/pdf"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation for empty file, got %v", err)
	}
	big := make([]byte, MaxContractSize+1)
	if _, err := fx.svc.Upload(ctx, fx.token, fx.tenantID, big, "lease.pdf", "application/pdf"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation for oversize file, got %v", err)
	}
}

func TestVault_Upload_EncryptsAndStores(t *testing.T) {
	t.Parallel()
	fx := newVaultFixture(t)
	ctx := context.Background()
	data := []byte("%PDF-1.4 contract body")

	rec, err := fx.svc.Upload(ctx, fx.token, fx.tenantID, data, "../evil/les ase.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if rec.Status != model.ContractPending || rec.Consent != model.ConsentLocked {
		t.Fatalf("fresh upload must be pending/locked: %+v", rec)
	}
	if rec.Filename != "les_ase.pdf" {
		t.Fatalf("filename not sanitized: %q", rec.Filename)
	}
	if rec.SHA256 != vault.DigestHex(data) {
		t.Fatalf("digest mismatch")
	}

	// ciphertext on disk, never plaintext
	stored, err := os.ReadFile(rec.Path)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	if bytes.Contains(stored, []byte("contract body")) {
		t.Fatalf("plaintext leaked to disk")
	}
}

func TestVault_Reupload_ResetsVerification(t *testing.T) {
	t.Parallel()
	fx := newVaultFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.Upload(ctx, fx.token, fx.tenantID, []byte("v1"), "lease.pdf", "application/pdf"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	// landlord consents, admin verifies
	fx.contracts.byToken[fx.token].Consent = model.ConsentConsented
	if _, err := fx.svc.SetStatus(ctx, fx.token, model.ContractVerified, "admin@example.com"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	if _, err := fx.svc.Upload(ctx, fx.token, fx.tenantID, []byte("v2"), "lease.pdf", "application/pdf"); err != nil {
		t.Fatalf("re-upload: %v", err)
	}
	rec, _ := fx.svc.Get(ctx, fx.token)
	if rec.Status != model.ContractPending || rec.Consent != model.ConsentLocked || rec.StatusBy != "" {
		t.Fatalf("re-upload must restart verification and consent: %+v", rec)
	}
}

func TestVault_SetStatus_ConsentGateAndPromotion(t *testing.T) {
	t.Parallel()
	fx := newVaultFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.SetStatus(ctx, fx.token, model.ContractStatus("odd"), "a@example.com"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation for unknown status, got %v", err)
	}
	if _, err := fx.svc.SetStatus(ctx, fx.token, model.ContractVerified, "a@example.com"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound without upload, got %v", err)
	}

	if _, err := fx.svc.Upload(ctx, fx.token, fx.tenantID, []byte("v1"), "lease.pdf", "application/pdf"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := fx.svc.SetStatus(ctx, fx.token, model.ContractVerified, "a@example.com"); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("want ErrConflict before consent, got %v", err)
	}

	// landlord answers the form: consent flips, answers recorded
	if _, err := fx.requests.SubmitAnswers(ctx, fx.token, model.Answer{Confirm: true, Score: 9}, time.Now().UTC()); err != nil {
		t.Fatalf("SubmitAnswers: %v", err)
	}

	promoted, err := fx.svc.SetStatus(ctx, fx.token, model.ContractVerified, "a@example.com")
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if !promoted {
		t.Fatalf("verification must promote an answered request")
	}
	req, _ := fx.requests.GetByToken(ctx, fx.token)
	if req.Status != model.RequestCompleted {
		t.Fatalf("request not completed: %+v", req)
	}

	// rejecting later never touches the promotion flag
	promoted, err = fx.svc.SetStatus(ctx, fx.token, model.ContractRejected, "a@example.com")
	if err != nil || promoted {
		t.Fatalf("reject must not promote: %v, %v", promoted, err)
	}
}

func TestVault_ReadPlaintext_Gates(t *testing.T) {
	t.Parallel()
	fx := newVaultFixture(t)
	ctx := context.Background()
	data := []byte("%PDF-1.4 secret")

	if _, err := fx.svc.ReadPlaintext(ctx, fx.token); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound without upload, got %v", err)
	}

	rec, err := fx.svc.Upload(ctx, fx.token, fx.tenantID, data, "lease.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := fx.svc.ReadPlaintext(ctx, fx.token); !errors.Is(err, errs.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable while locked, got %v", err)
	}

	fx.contracts.byToken[fx.token].Consent = model.ConsentConsented
	pt, err := fx.svc.ReadPlaintext(ctx, fx.token)
	if err != nil {
		t.Fatalf("ReadPlaintext: %v", err)
	}
	if !bytes.Equal(pt.Data, data) || pt.Filename != "lease.pdf" || pt.ContentType != "application/pdf" {
		t.Fatalf("bad plaintext: %+v", pt)
	}

	// corrupt ciphertext degrades to unavailable, never panics
	if err := os.WriteFile(rec.Path, []byte{1, 2, 3}, 0o600); err != nil {
		t.Fatalf("corrupt blob: %v", err)
	}
	if _, err := fx.svc.ReadPlaintext(ctx, fx.token); !errors.Is(err, errs.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable on corrupt blob, got %v", err)
	}

	// tombstoned row
	fx.contracts.byToken[fx.token].Path = ""
	if _, err := fx.svc.ReadPlaintext(ctx, fx.token); !errors.Is(err, errs.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable after retention removal, got %v", err)
	}
}

func TestVault_CleanupExpired(t *testing.T) {
	t.Parallel()
	fx := newVaultFixture(t)
	ctx := context.Background()

	// stale locked upload
	if _, err := fx.svc.Upload(ctx, fx.token, fx.tenantID, []byte("old"), "lease.pdf", "application/pdf"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	lockedRec := fx.contracts.byToken[fx.token]
	lockedRec.UploadedAt = time.Now().UTC().Add(-48 * time.Hour)

	// stale rejected upload on a second request
	token2 := "bbbbccddeeff00112233445566778899"
	_ = fx.requests.Create(ctx, &model.ReferenceRequest{Token: token2, TenantID: fx.tenantID})
	if _, err := fx.svc.Upload(ctx, token2, fx.tenantID, []byte("old2"), "lease2.pdf", "application/pdf"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	rejectedRec := fx.contracts.byToken[token2]
	rejectedRec.Status = model.ContractRejected
	rejectedRec.UploadedAt = time.Now().UTC().Add(-48 * time.Hour)
	rejectedRec.Consent = model.ConsentConsented

	lockedPath, rejectedPath := lockedRec.Path, rejectedRec.Path

	report, err := fx.svc.CleanupExpired(ctx, 24*time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if report.LockedExpired != 1 || report.RejectedExpired != 1 || report.Failures != 0 {
		t.Fatalf("bad report: %+v", report)
	}

	for _, p := range []string{lockedPath, rejectedPath} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("blob %s not removed", p)
		}
	}
	// never-consented rows are force-rejected, rejected rows keep status
	if got := fx.contracts.byToken[fx.token]; got.Path != "" || got.Status != model.ContractRejected {
		t.Fatalf("locked row not tombstoned: %+v", got)
	}
	if got := fx.contracts.byToken[token2]; got.Path != "" || got.Status != model.ContractRejected {
		t.Fatalf("rejected row not tombstoned: %+v", got)
	}

	// the sweep never touches request state
	req, _ := fx.requests.GetByToken(ctx, fx.token)
	if req.Status != model.RequestPending {
		t.Fatalf("cleanup must not change request status: %+v", req)
	}

	// a second sweep finds nothing
	report, err = fx.svc.CleanupExpired(ctx, 24*time.Hour, 24*time.Hour)
	if err != nil || report.LockedExpired != 0 || report.RejectedExpired != 0 {
		t.Fatalf("sweep not idempotent: %+v, %v", report, err)
	}
}
