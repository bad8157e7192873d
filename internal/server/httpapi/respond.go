package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/rentright-app/reference-service/internal/errs"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("write response", zap.Error(err))
	}
}

// writeError maps service errors onto HTTP statuses. The wrapped sentinel
// decides the code, the wrapping message becomes the client-facing text.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, errs.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, errs.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, errs.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, errs.ErrConflict), errors.Is(err, errs.ErrAlreadyExists):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, errs.ErrRateLimited):
		status, msg = http.StatusTooManyRequests, "too many attempts, try again later"
	case errors.Is(err, errs.ErrUnavailable):
		status, msg = http.StatusServiceUnavailable, err.Error()
	default:
		s.log.Error("unhandled error", zap.Error(err))
	}

	s.writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errs.ErrValidation
	}
	return nil
}
