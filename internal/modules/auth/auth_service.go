package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"microhub-delivery/internal/middleware"
	"microhub-delivery/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is how long issued bearer tokens stay valid.
const TokenTTL = 24 * time.Hour

// ServiceInterface defines the contract for the auth service.
type ServiceInterface interface {
	Login(ctx context.Context, req models.LoginRequest) (string, error)
}

// Service verifies credentials and signs bearer tokens.
type Service struct {
	repo   RepositoryInterface
	secret []byte
	now    func() time.Time
}

// NewService creates a new auth service.
func NewService(repo RepositoryInterface, jwtSecret string) *Service {
	return &Service{repo: repo, secret: []byte(jwtSecret), now: time.Now}
}

// Login checks the caller's credentials and returns a signed JWT carrying the
// role and the matching vendor/driver id claim.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (string, error) {
	cred, err := s.repo.FindCredential(ctx, req.Role, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			return "", models.ErrInvalidCredentials
		}
		return "", fmt.Errorf("service.Login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)); err != nil {
		return "", models.ErrInvalidCredentials
	}

	now := s.now()
	claims := middleware.Claims{
		Role: req.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cred.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	switch req.Role {
	case models.RoleVendor:
		claims.VendorID = cred.ID
	case models.RoleDriver:
		claims.DriverID = cred.ID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("service.Login: sign token: %w", err)
	}
	return signed, nil
}
