package catalog

import (
	"context"
	"errors"
	"fmt"

	"microhub-delivery/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MicrohubRepositoryInterface defines the microhub side of the capacity
// ledger plus the depot CRUD. ReserveCapacity is a conditional increment:
// utilized can never be pushed past capacity.
type MicrohubRepositoryInterface interface {
	Create(ctx context.Context, m *models.Microhub) (*models.Microhub, error)
	FindByID(ctx context.Context, microhubID string) (*models.Microhub, error)
	List(ctx context.Context) ([]*models.Microhub, error)
	Update(ctx context.Context, microhubID string, req models.UpdateMicrohubRequest) (*models.Microhub, error)
	Delete(ctx context.Context, microhubID string) error
	ReserveCapacity(ctx context.Context, microhubID string, amount int) error
	ReleaseCapacity(ctx context.Context, microhubID string, amount int) error
}

// MicrohubRepository implements MicrohubRepositoryInterface on Postgres.
type MicrohubRepository struct {
	db *pgxpool.Pool
}

// NewMicrohubRepository creates a new microhub repository.
func NewMicrohubRepository(db *pgxpool.Pool) MicrohubRepositoryInterface {
	return &MicrohubRepository{db: db}
}

const microhubColumns = `id, name, location, COALESCE(address, ''), COALESCE(thana, ''), COALESCE(district, ''),
	latitude, longitude, capacity, utilized, status, created_at, updated_at`

func scanMicrohub(row pgx.Row) (*models.Microhub, error) {
	var m models.Microhub
	err := row.Scan(&m.ID, &m.Name, &m.Location, &m.Address, &m.Thana, &m.District,
		&m.Latitude, &m.Longitude, &m.Capacity, &m.Utilized, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan microhub: %w", err)
	}
	return &m, nil
}

// Create inserts a new microhub.
func (r *MicrohubRepository) Create(ctx context.Context, m *models.Microhub) (*models.Microhub, error) {
	query := `
		INSERT INTO microhubs (id, name, location, address, thana, district, latitude, longitude, capacity, utilized, status)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10, $11)
		RETURNING ` + microhubColumns

	created, err := scanMicrohub(r.db.QueryRow(ctx, query,
		m.ID, m.Name, m.Location, m.Address, m.Thana, m.District,
		m.Latitude, m.Longitude, m.Capacity, m.Utilized, m.Status))
	if err != nil {
		return nil, fmt.Errorf("repository.CreateMicrohub: %w", err)
	}
	return created, nil
}

// FindByID retrieves a single microhub.
func (r *MicrohubRepository) FindByID(ctx context.Context, microhubID string) (*models.Microhub, error) {
	m, err := scanMicrohub(r.db.QueryRow(ctx, `SELECT `+microhubColumns+` FROM microhubs WHERE id = $1`, microhubID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindMicrohubByID: %w", err)
	}
	return m, nil
}

// List returns every microhub, newest first.
func (r *MicrohubRepository) List(ctx context.Context) ([]*models.Microhub, error) {
	rows, err := r.db.Query(ctx, `SELECT `+microhubColumns+` FROM microhubs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository.ListMicrohubs: %w", err)
	}
	defer rows.Close()

	var hubs []*models.Microhub
	for rows.Next() {
		m, err := scanMicrohub(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListMicrohubs: %w", err)
		}
		hubs = append(hubs, m)
	}
	return hubs, rows.Err()
}

// Update applies a partial update to a microhub.
func (r *MicrohubRepository) Update(ctx context.Context, microhubID string, req models.UpdateMicrohubRequest) (*models.Microhub, error) {
	query := `
		UPDATE microhubs
		SET name = COALESCE($1, name),
		    location = COALESCE($2, location),
		    address = COALESCE($3, address),
		    thana = COALESCE($4, thana),
		    district = COALESCE($5, district),
		    latitude = COALESCE($6, latitude),
		    longitude = COALESCE($7, longitude),
		    capacity = COALESCE($8, capacity),
		    status = COALESCE($9, status),
		    updated_at = NOW()
		WHERE id = $10
		RETURNING ` + microhubColumns

	m, err := scanMicrohub(r.db.QueryRow(ctx, query,
		req.Name, req.Location, req.Address, req.Thana, req.District,
		req.Latitude, req.Longitude, req.Capacity, req.Status, microhubID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.UpdateMicrohub: %w", err)
	}
	return m, nil
}

// Delete removes a microhub.
func (r *MicrohubRepository) Delete(ctx context.Context, microhubID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM microhubs WHERE id = $1`, microhubID)
	if err != nil {
		return fmt.Errorf("repository.DeleteMicrohub: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ReserveCapacity atomically increments utilized, failing instead of
// exceeding capacity.
func (r *MicrohubRepository) ReserveCapacity(ctx context.Context, microhubID string, amount int) error {
	query := `UPDATE microhubs SET utilized = utilized + $1, updated_at = NOW()
		WHERE id = $2 AND utilized + $1 <= capacity`
	cmdTag, err := r.db.Exec(ctx, query, amount, microhubID)
	if err != nil {
		return fmt.Errorf("repository.ReserveCapacity: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrInsufficientCapacity
	}
	return nil
}

// ReleaseCapacity atomically decrements utilized, flooring at zero.
func (r *MicrohubRepository) ReleaseCapacity(ctx context.Context, microhubID string, amount int) error {
	query := `UPDATE microhubs SET utilized = GREATEST(utilized - $1, 0), updated_at = NOW() WHERE id = $2`
	cmdTag, err := r.db.Exec(ctx, query, amount, microhubID)
	if err != nil {
		return fmt.Errorf("repository.ReleaseCapacity: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
