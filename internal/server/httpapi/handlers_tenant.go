package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"

	"github.com/rentright-app/reference-service/internal/errs"
	"github.com/rentright-app/reference-service/internal/model"
)

type landlordAddRequest struct {
	Email   string `json:"email"`
	AFM     string `json:"afm"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type landlordView struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	AFM       string    `json:"afm"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

func toLandlordView(pl model.PreviousLandlord) landlordView {
	return landlordView{
		ID:        pl.ID,
		Email:     pl.Email,
		AFM:       pl.AFM,
		Name:      pl.Name,
		Address:   pl.Address,
		CreatedAt: pl.CreatedAt,
	}
}

func (s *Server) handleLandlordAdd(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	var req landlordAddRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	pl, err := s.landlords.Add(r.Context(), id.UserID, req.Email, req.AFM, req.Name, req.Address)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toLandlordView(*pl))
}

func (s *Server) handleLandlordList(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	list, err := s.landlords.List(r.Context(), id.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]landlordView, 0, len(list))
	for _, pl := range list {
		out = append(out, toLandlordView(pl))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLandlordDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	entryID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, errs.ErrValidation)
		return
	}
	if err := s.landlords.Delete(r.Context(), id.UserID, entryID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type contactAddRequest struct {
	Email string `json:"email"`
}

type contactView struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Invited   bool       `json:"invited"`
	InvitedAt *time.Time `json:"invited_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (s *Server) handleContactAdd(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	var req contactAddRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.contacts.AddContact(r.Context(), id.UserID, req.Email); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleContactList(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	list, err := s.contacts.ListContacts(r.Context(), id.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]contactView, 0, len(list))
	for _, c := range list {
		out = append(out, contactView{
			ID:        c.ID,
			Email:     c.Email,
			Invited:   c.Invited,
			InvitedAt: c.InvitedAt,
			CreatedAt: c.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleContactDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	contactID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, errs.ErrValidation)
		return
	}
	if err := s.contacts.RemoveContact(r.Context(), id.UserID, contactID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type inviteResponse struct {
	Sent   bool   `json:"sent"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) handleContactInvite(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	var req contactAddRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	ok, detail, err := s.contacts.Invite(r.Context(), id.UserID, req.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inviteResponse{Sent: ok, Detail: detail})
}

type profileRequest struct {
	FutureLandlordEmail string `json:"future_landlord_email"`
}

type profileView struct {
	FutureLandlordEmail string    `json:"future_landlord_email"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (s *Server) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	p, err := s.contacts.Profile(r.Context(), id.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profileView{
		FutureLandlordEmail: p.FutureLandlordEmail,
		UpdatedAt:           p.UpdatedAt,
	})
}

func (s *Server) handleProfilePut(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.contacts.UpsertProfile(r.Context(), id.UserID, req.FutureLandlordEmail); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
