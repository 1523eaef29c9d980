package auth

import (
	"context"
	"errors"
	"fmt"

	"microhub-delivery/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Credential is the minimal slice of an account the login flow needs.
type Credential struct {
	ID           string
	PasswordHash string
}

// RepositoryInterface resolves login credentials per role.
type RepositoryInterface interface {
	FindCredential(ctx context.Context, role, email string) (*Credential, error)
}

// Repository implements the RepositoryInterface on Postgres. Admin, vendor
// and driver accounts live in separate tables.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new auth repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// FindCredential looks up the account for the given role and email.
func (r *Repository) FindCredential(ctx context.Context, role, email string) (*Credential, error) {
	var query string
	switch role {
	case models.RoleAdmin:
		query = `SELECT id, password_hash FROM admins WHERE email = $1`
	case models.RoleVendor:
		query = `SELECT id, password_hash FROM vendors WHERE email = $1`
	case models.RoleDriver:
		query = `SELECT id, password_hash FROM drivers WHERE email = $1`
	default:
		return nil, fmt.Errorf("repository.FindCredential: unknown role %q", role)
	}

	var cred Credential
	err := r.db.QueryRow(ctx, query, email).Scan(&cred.ID, &cred.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("repository.FindCredential: %w", err)
	}
	return &cred, nil
}
