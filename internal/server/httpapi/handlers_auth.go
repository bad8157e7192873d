package httpapi

import (
	"net"
	"net/http"
	"time"

	"github.com/rentright-app/reference-service/internal/model"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type registerResponse struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Role == "" {
		req.Role = string(model.RoleTenant)
	}
	// Admin accounts are seeded at startup, never self-registered.
	if model.Role(req.Role) == model.RoleAdmin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	userID, err := s.auth.Register(r.Context(), req.Email, req.Name, req.Password, model.Role(req.Role))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, registerResponse{UserID: userID})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        string    `json:"role"`
	Name        string    `json:"name"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	tokens, user, err := s.auth.LoginWithIP(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: tokens.AccessToken,
		ExpiresAt:   tokens.ExpiresAt,
		Role:        string(user.Role),
		Name:        user.Name,
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
