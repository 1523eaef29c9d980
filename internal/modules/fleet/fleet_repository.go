package fleet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"microhub-delivery/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the fleet repository.
// IncrementDeliveries is the atomic counter credited once per completed
// order.
type RepositoryInterface interface {
	List(ctx context.Context) ([]*models.Driver, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Driver, error)
	FindByID(ctx context.Context, driverID string) (*models.Driver, error)
	SetStatus(ctx context.Context, driverID, status string, joinedAt *time.Time) (*models.Driver, error)
	IncrementDeliveries(ctx context.Context, driverID string) error
	TopPerformers(ctx context.Context, limit int) ([]*models.Driver, error)
	CountOrders(ctx context.Context) (total, completed int, err error)
}

// Repository implements the RepositoryInterface on Postgres.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new fleet repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const driverColumns = `id, name, COALESCE(email, ''), phone, COALESCE(vehicle_type, ''),
	deliveries, rating, status, joined_at, created_at, updated_at`

func scanDriver(row pgx.Row) (*models.Driver, error) {
	var d models.Driver
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &d.VehicleType,
		&d.Deliveries, &d.Rating, &d.Status, &d.JoinedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan driver: %w", err)
	}
	return &d, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]*models.Driver, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*models.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

// List returns every driver, newest first.
func (r *Repository) List(ctx context.Context) ([]*models.Driver, error) {
	drivers, err := r.list(ctx, `SELECT `+driverColumns+` FROM drivers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository.ListDrivers: %w", err)
	}
	return drivers, nil
}

// ListByStatus returns drivers in the given status, newest first.
func (r *Repository) ListByStatus(ctx context.Context, status string) ([]*models.Driver, error) {
	drivers, err := r.list(ctx,
		`SELECT `+driverColumns+` FROM drivers WHERE status = $1 ORDER BY created_at DESC`, status)
	if err != nil {
		return nil, fmt.Errorf("repository.ListDriversByStatus: %w", err)
	}
	return drivers, nil
}

// FindByID retrieves a single driver.
func (r *Repository) FindByID(ctx context.Context, driverID string) (*models.Driver, error) {
	d, err := scanDriver(r.db.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, driverID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindDriverByID: %w", err)
	}
	return d, nil
}

// SetStatus updates a driver's status, optionally stamping joined_at on first
// activation.
func (r *Repository) SetStatus(ctx context.Context, driverID, status string, joinedAt *time.Time) (*models.Driver, error) {
	query := `
		UPDATE drivers
		SET status = $1, joined_at = COALESCE($2, joined_at), updated_at = NOW()
		WHERE id = $3
		RETURNING ` + driverColumns

	d, err := scanDriver(r.db.QueryRow(ctx, query, status, joinedAt, driverID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.SetDriverStatus: %w", err)
	}
	return d, nil
}

// IncrementDeliveries atomically bumps a driver's delivery counter.
func (r *Repository) IncrementDeliveries(ctx context.Context, driverID string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE drivers SET deliveries = deliveries + 1, updated_at = NOW() WHERE id = $1`, driverID)
	if err != nil {
		return fmt.Errorf("repository.IncrementDeliveries: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// TopPerformers returns the best active drivers by rating then deliveries.
func (r *Repository) TopPerformers(ctx context.Context, limit int) ([]*models.Driver, error) {
	drivers, err := r.list(ctx,
		`SELECT `+driverColumns+` FROM drivers WHERE status = $1 ORDER BY rating DESC, deliveries DESC LIMIT $2`,
		models.DriverStatusActive, limit)
	if err != nil {
		return nil, fmt.Errorf("repository.TopPerformers: %w", err)
	}
	return drivers, nil
}

// CountOrders returns the order totals feeding the fleet metrics aggregate.
func (r *Repository) CountOrders(ctx context.Context) (int, int, error) {
	var total, completed int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE status = $1) FROM orders`,
		models.OrderStatusCompleted).Scan(&total, &completed)
	if err != nil {
		return 0, 0, fmt.Errorf("repository.CountOrders: %w", err)
	}
	return total, completed, nil
}
