// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers. Callers wrap them with a
// human-readable reason, e.g. fmt.Errorf("%w: score must be 1..10", errs.ErrValidation).
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates rejected caller input (bad email, bad AFM,
	// disallowed file type, oversized file, mismatched ownership).
	ErrValidation = errors.New("validation")

	// ErrConflict indicates a state-machine conflict: the entity exists but
	// is not in a state that permits the operation (already submitted,
	// cancel of a non-pending request, verify before consent).
	ErrConflict = errors.New("state conflict")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable indicates the resource exists but cannot be served:
	// consent not granted, ciphertext removed by retention, or decrypt failure.
	ErrUnavailable = errors.New("unavailable")
)
