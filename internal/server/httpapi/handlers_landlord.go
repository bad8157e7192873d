package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/rentright-app/reference-service/internal/errs"
	"github.com/rentright-app/reference-service/internal/model"
)

// statusFilter parses the optional ?status= query parameter.
func statusFilter(r *http.Request) (*model.RequestStatus, error) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, nil
	}
	st := model.RequestStatus(raw)
	switch st {
	case model.RequestPending, model.RequestCompleted, model.RequestCancelled:
		return &st, nil
	}
	return nil, fmt.Errorf("%w: unknown status %q", errs.ErrValidation, raw)
}

// handleLandlordRequests lists reference requests addressed to the
// logged-in landlord's email.
func (s *Server) handleLandlordRequests(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	status, err := statusFilter(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	views, err := s.references.ListForLandlord(r.Context(), id.Email, status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toReferenceViews(views))
}

type prospectView struct {
	TenantID   uuid.UUID `json:"tenant_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	LastUpdate time.Time `json:"last_update"`
}

func (s *Server) handleLandlordProspects(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	prospects, err := s.contacts.Prospects(r.Context(), id.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]prospectView, 0, len(prospects))
	for _, p := range prospects {
		out = append(out, prospectView{
			TenantID:   p.TenantID,
			Name:       p.Name,
			Email:      p.Email,
			LastUpdate: p.LastUpdate,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdminReferences(w http.ResponseWriter, r *http.Request) {
	status, err := statusFilter(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	views, err := s.references.ListAll(r.Context(), status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toReferenceViews(views))
}
