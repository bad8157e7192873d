package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"

	"github.com/rentright-app/reference-service/internal/errs"
	"github.com/rentright-app/reference-service/internal/model"
	"github.com/rentright-app/reference-service/internal/service"
)

type referenceCreateRequest struct {
	PrevLandlordID uuid.UUID `json:"prev_landlord_id"`
}

type referenceCreateResponse struct {
	Token     string `json:"token"`
	Link      string `json:"link"`
	EmailSent bool   `json:"email_sent"`
	EmailNote string `json:"email_note,omitempty"`
}

func (s *Server) handleReferenceCreate(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	var req referenceCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.references.Create(r.Context(), id.UserID, req.PrevLandlordID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, referenceCreateResponse{
		Token:     res.Token,
		Link:      res.Link,
		EmailSent: res.EmailOK,
		EmailNote: res.EmailNote,
	})
}

// referenceView is the JSON shape of a request for dashboards and the
// portal. Status is always the effective status, never the raw column.
type referenceView struct {
	Token         string    `json:"token"`
	LandlordEmail string    `json:"landlord_email"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`

	FilledAt        *time.Time `json:"filled_at,omitempty"`
	ConfirmLandlord *bool      `json:"confirm_landlord,omitempty"`
	Score           *int       `json:"score,omitempty"`
	PaidOnTime      *bool      `json:"paid_on_time,omitempty"`
	UtilitiesUnpaid *bool      `json:"utilities_unpaid,omitempty"`
	GoodCondition   *bool      `json:"good_condition,omitempty"`
	Comments        *string    `json:"comments,omitempty"`
}

func toReferenceView(v service.RequestView) referenceView {
	return referenceView{
		Token:           v.Request.Token,
		LandlordEmail:   v.Request.LandlordEmail,
		Status:          string(v.Effective),
		CreatedAt:       v.Request.CreatedAt,
		FilledAt:        v.Request.FilledAt,
		ConfirmLandlord: v.Request.ConfirmLandlord,
		Score:           v.Request.Score,
		PaidOnTime:      v.Request.PaidOnTime,
		UtilitiesUnpaid: v.Request.UtilitiesUnpaid,
		GoodCondition:   v.Request.GoodCondition,
		Comments:        v.Request.Comments,
	}
}

func toReferenceViews(vs []service.RequestView) []referenceView {
	out := make([]referenceView, 0, len(vs))
	for _, v := range vs {
		out = append(out, toReferenceView(v))
	}
	return out
}

func (s *Server) handleReferenceListMine(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	views, err := s.references.ListForTenant(r.Context(), id.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toReferenceViews(views))
}

type latestReferenceView struct {
	Landlord landlordView   `json:"landlord"`
	Latest   *referenceView `json:"latest,omitempty"`
}

func (s *Server) handleLatestReferences(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	refs, err := s.references.LatestReferences(r.Context(), id.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]latestReferenceView, 0, len(refs))
	for _, lr := range refs {
		item := latestReferenceView{Landlord: toLandlordView(lr.Landlord)}
		if lr.Request != nil {
			view, err := s.references.Get(r.Context(), lr.Request.Token)
			if err != nil {
				s.writeError(w, err)
				return
			}
			rv := toReferenceView(*view)
			item.Latest = &rv
		}
		out = append(out, item)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReferenceCancel(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	token := chi.URLParam(r, "token")

	view, err := s.references.Get(r.Context(), token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if view.Request.TenantID != id.UserID {
		s.writeError(w, errs.ErrNotFound)
		return
	}
	if err := s.references.Cancel(r.Context(), token); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// portalView is what the landlord sees when opening an emailed link. It
// deliberately exposes no tenant identifiers beyond what the mail already
// contained.
type portalView struct {
	Token      string `json:"token"`
	Status     string `json:"status"`
	Filled     bool   `json:"filled"`
	Cancelled  bool   `json:"cancelled"`
	Submitable bool   `json:"submitable"`
}

func (s *Server) handlePortalGet(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	view, err := s.references.Get(r.Context(), token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, portalView{
		Token:      view.Request.Token,
		Status:     string(view.Effective),
		Filled:     view.Request.FilledAt != nil && view.Request.Status != model.RequestCancelled,
		Cancelled:  view.Request.Status == model.RequestCancelled,
		Submitable: view.Request.Status == model.RequestPending && view.Request.FilledAt == nil,
	})
}

type portalSubmitRequest struct {
	Confirm         bool   `json:"confirm"`
	Score           int    `json:"score"`
	PaidOnTime      bool   `json:"paid_on_time"`
	UtilitiesUnpaid bool   `json:"utilities_unpaid"`
	GoodCondition   bool   `json:"good_condition"`
	Comments        string `json:"comments"`
}

type portalSubmitResponse struct {
	Status string `json:"status"`
}

func (s *Server) handlePortalSubmit(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	var req portalSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	status, err := s.references.Submit(r.Context(), token, model.Answer{
		Confirm:         req.Confirm,
		Score:           req.Score,
		PaidOnTime:      req.PaidOnTime,
		UtilitiesUnpaid: req.UtilitiesUnpaid,
		GoodCondition:   req.GoodCondition,
		Comments:        req.Comments,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, portalSubmitResponse{Status: string(status)})
}
