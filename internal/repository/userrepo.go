// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/rentright-app/reference-service/internal/model"
)

// UserRepository provides access to registered accounts.
type UserRepository interface {
	// Create inserts a new user. Duplicate email -> errs.ErrAlreadyExists.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by lowercase email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}
