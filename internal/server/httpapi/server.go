// Package httpapi exposes the application over a JSON HTTP API: public
// auth and reference-portal routes, authenticated tenant/landlord/admin
// routes, and the encrypted contract upload/download endpoints.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rentright-app/reference-service/internal/model"
	"github.com/rentright-app/reference-service/internal/service"
)

// Server wires the application services into an http.Handler.
type Server struct {
	auth       service.AuthService
	landlords  service.LandlordService
	contacts   service.ContactService
	references service.ReferenceService
	vault      service.VaultService

	signKey     []byte
	lockedTTL   time.Duration
	rejectedTTL time.Duration
	log         *zap.Logger
}

// New constructs the HTTP server.
func New(
	auth service.AuthService,
	landlords service.LandlordService,
	contacts service.ContactService,
	references service.ReferenceService,
	vault service.VaultService,
	signKey []byte,
	lockedTTL, rejectedTTL time.Duration,
	log *zap.Logger,
) *Server {
	return &Server{
		auth:        auth,
		landlords:   landlords,
		contacts:    contacts,
		references:  references,
		vault:       vault,
		signKey:     signKey,
		lockedTTL:   lockedTTL,
		rejectedTTL: rejectedTTL,
		log:         log,
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(s.log))
	r.Use(Logging(s.log))

	r.Route("/api", func(r chi.Router) {
		// Public: account creation and the token-addressed landlord portal.
		// Portal access is authorized by token possession alone.
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Get("/reference/{token}", s.handlePortalGet)
		r.Post("/reference/{token}/submit", s.handlePortalSubmit)

		r.Group(func(r chi.Router) {
			r.Use(Auth(s.signKey))

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(model.RoleTenant))
				r.Post("/landlords", s.handleLandlordAdd)
				r.Get("/landlords", s.handleLandlordList)
				r.Delete("/landlords/{id}", s.handleLandlordDelete)

				r.Post("/contacts", s.handleContactAdd)
				r.Get("/contacts", s.handleContactList)
				r.Delete("/contacts/{id}", s.handleContactDelete)
				r.Post("/contacts/invite", s.handleContactInvite)

				r.Get("/profile", s.handleProfileGet)
				r.Put("/profile", s.handleProfilePut)

				r.Post("/references", s.handleReferenceCreate)
				r.Get("/references", s.handleReferenceListMine)
				r.Get("/references/latest", s.handleLatestReferences)
				r.Post("/references/{token}/cancel", s.handleReferenceCancel)
				r.Post("/reference/{token}/contract", s.handleContractUpload)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(model.RoleLandlord))
				r.Get("/landlord/requests", s.handleLandlordRequests)
				r.Get("/landlord/prospects", s.handleLandlordProspects)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(model.RoleAdmin))
				r.Get("/admin/references", s.handleAdminReferences)
				r.Get("/admin/contracts/{token}", s.handleContractMeta)
				r.Post("/admin/contracts/{token}/status", s.handleContractStatus)
				r.Post("/admin/maintenance/cleanup", s.handleCleanup)
			})

			// Contract download is shared between the owning tenant and admins;
			// the handler enforces ownership itself.
			r.Get("/reference/{token}/contract", s.handleContractDownload)
		})
	})

	return r
}
