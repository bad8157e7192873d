// Package service contains application services: authentication, the
// previous-landlord registry, the contact ledger, the reference-request
// state machine, and the contract vault.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/rentright-app/reference-service/internal/crypto"
	"github.com/rentright-app/reference-service/internal/errs"
	"github.com/rentright-app/reference-service/internal/limiter"
	"github.com/rentright-app/reference-service/internal/model"
	"github.com/rentright-app/reference-service/internal/repository"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// NormalizeEmail lowercases and trims an address the way it is stored.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// Claims is the JWT payload carried by access tokens: subject is the user
// ID, Role drives route-level authorization, Email is the actor identity
// recorded on audit stamps.
type Claims struct {
	jwt.RegisteredClaims
	Role  string `json:"role"`
	Email string `json:"email"`
}

// AuthService defines account registration and authentication.
type AuthService interface {
	// Register creates a new user with secure password hashing.
	Register(ctx context.Context, email, name, password string, role model.Role) (userID string, err error)
	// LoginWithIP applies rate-limiting and authenticates the user.
	LoginWithIP(ctx context.Context, email, password, ip string) (tokens model.Tokens, user model.User, err error)
	// EnsureAdmin seeds the bootstrap admin account if it does not exist.
	EnsureAdmin(ctx context.Context, email, name, password string) error
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, signKey: signKey, accessTTL: accessTTL, lim: lim}
}

// Register creates a new user record with a per-user salt.
func (s *AuthServiceImpl) Register(ctx context.Context, email, name, password string, role model.Role) (string, error) {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return "", fmt.Errorf("%w: invalid email address", errs.ErrValidation)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", errs.ErrValidation)
	}
	if len(password) < 6 {
		return "", fmt.Errorf("%w: password must be at least 6 characters", errs.ErrValidation)
	}
	if !role.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", errs.ErrValidation, role)
	}

	uid, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	salt, err := pkgcrypto.RandBytes(16)
	if err != nil {
		return "", err
	}
	u := &model.User{
		ID:       uid,
		Email:    email,
		Name:     name,
		PwdHash:  pkgcrypto.HashPassword([]byte(password), salt),
		SaltAuth: salt,
		Role:     role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return "", fmt.Errorf("%w: an account with this email already exists", errs.ErrAlreadyExists)
		}
		return "", err
	}
	return uid.String(), nil
}

// LoginWithIP authenticates with rate limiting by (email, ip).
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error) {
	email = NormalizeEmail(email)
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	if !allowed {
		return model.Tokens{}, model.User{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.Tokens{}, model.User{}, errs.ErrRateLimited
		}
		// hide existence of the account on wrong password or unknown email
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, email, ipHash)

	access, exp, err := s.issueAccessToken(u.ID, u.Role, u.Email)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, *u, nil
}

// EnsureAdmin creates the seed admin account if missing.
func (s *AuthServiceImpl) EnsureAdmin(ctx context.Context, email, name, password string) error {
	email = NormalizeEmail(email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, errs.ErrNotFound) {
		return err
	}
	_, err := s.Register(ctx, email, name, password, model.RoleAdmin)
	if errors.Is(err, errs.ErrAlreadyExists) {
		return nil
	}
	return err
}

// issueAccessToken creates a signed HS256 JWT for the given subject and role.
func (s *AuthServiceImpl) issueAccessToken(userID uuid.UUID, role model.Role, email string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.accessTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role:  string(role),
		Email: email,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	return signed, exp, err
}
