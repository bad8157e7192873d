package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rentright-app/reference-service/internal/errs"
	"github.com/rentright-app/reference-service/internal/model"
	"github.com/rentright-app/reference-service/internal/service"
)

type contractView struct {
	Token           string     `json:"token"`
	Filename        string     `json:"filename"`
	ContentType     string     `json:"content_type"`
	SizeBytes       int64      `json:"size_bytes"`
	SHA256          string     `json:"sha256"`
	Status          string     `json:"status"`
	StatusUpdatedAt *time.Time `json:"status_updated_at,omitempty"`
	StatusBy        string     `json:"status_by,omitempty"`
	UploadedAt      time.Time  `json:"uploaded_at"`
	Consent         string     `json:"consent"`
	Available       bool       `json:"available"`
}

func toContractView(rec *model.ContractRecord) contractView {
	return contractView{
		Token:           rec.Token,
		Filename:        rec.Filename,
		ContentType:     rec.ContentType,
		SizeBytes:       rec.SizeBytes,
		SHA256:          rec.SHA256,
		Status:          string(rec.Status),
		StatusUpdatedAt: rec.StatusUpdatedAt,
		StatusBy:        rec.StatusBy,
		UploadedAt:      rec.UploadedAt,
		Consent:         string(rec.Consent),
		Available:       rec.Path != "",
	}
}

func (s *Server) handleContractUpload(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	token := chi.URLParam(r, "token")

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxContractSize+1<<20)
	if err := r.ParseMultipartForm(service.MaxContractSize); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid multipart form", errs.ErrValidation))
		return
	}
	file, header, err := r.FormFile("contract")
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: contract file is required", errs.ErrValidation))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxContractSize+1))
	if err != nil {
		s.writeError(w, err)
		return
	}

	rec, err := s.vault.Upload(r.Context(), token, id.UserID, data, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toContractView(rec))
}

// handleContractDownload streams the decrypted contract to the owning
// tenant or an admin. Both go through the same consent gate.
func (s *Server) handleContractDownload(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	token := chi.URLParam(r, "token")

	rec, err := s.vault.Get(r.Context(), token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if id.Role != model.RoleAdmin && rec.TenantID != id.UserID {
		s.writeError(w, errs.ErrNotFound)
		return
	}

	pt, err := s.vault.ReadPlaintext(r.Context(), token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", pt.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(pt.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pt.Filename))
	_, _ = w.Write(pt.Data)
}

func (s *Server) handleContractMeta(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	rec, err := s.vault.Get(r.Context(), token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toContractView(rec))
}

type contractStatusRequest struct {
	Status string `json:"status"`
}

type contractStatusResponse struct {
	Status   string `json:"status"`
	Promoted bool   `json:"promoted"`
}

func (s *Server) handleContractStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	token := chi.URLParam(r, "token")

	var req contractStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	promoted, err := s.vault.SetStatus(r.Context(), token, model.ContractStatus(req.Status), id.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, contractStatusResponse{Status: req.Status, Promoted: promoted})
}

type cleanupResponse struct {
	LockedExpired   int `json:"locked_expired"`
	RejectedExpired int `json:"rejected_expired"`
	Failures        int `json:"failures"`
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	report, err := s.vault.CleanupExpired(r.Context(), s.lockedTTL, s.rejectedTTL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cleanupResponse{
		LockedExpired:   report.LockedExpired,
		RejectedExpired: report.RejectedExpired,
		Failures:        report.Failures,
	})
}
