package shelfbooking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"microhub-delivery/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExpiringBooking pairs a soon-to-expire booking with the contact details the
// notifier needs, joined in one query instead of N lookups.
type ExpiringBooking struct {
	Booking      models.ShelfBooking
	VendorEmail  string
	MicrohubName string
}

// RepositoryInterface defines the contract for the shelf booking repository.
// SetStatus is conditional on the current status, which is what makes the
// expiry sweep idempotent per booking.
type RepositoryInterface interface {
	Create(ctx context.Context, b *models.ShelfBooking) (*models.ShelfBooking, error)
	FindByIDAndVendor(ctx context.Context, bookingID, vendorID string) (*models.ShelfBooking, error)
	ListByVendor(ctx context.Context, vendorID string) ([]*models.ShelfBooking, error)
	ListExpired(ctx context.Context, now time.Time) ([]*models.ShelfBooking, error)
	ListExpiringSoon(ctx context.Context, from, to time.Time) ([]ExpiringBooking, error)
	SetStatus(ctx context.Context, bookingID, expected, next string) error
	Stats(ctx context.Context, vendorID string, now, cutoff time.Time) (models.BookingStats, error)
}

// Repository implements the RepositoryInterface on Postgres.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new shelf booking repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const bookingColumns = `b.id, b.vendor_id, b.microhub_id, b.shelf_size, b.utilization_percentage,
	b.utilized_amount, b.start_date, b.end_date, b.status, b.created_at, b.updated_at`

func scanBooking(row pgx.Row) (*models.ShelfBooking, error) {
	var b models.ShelfBooking
	err := row.Scan(
		&b.ID, &b.VendorID, &b.MicrohubID, &b.ShelfSize, &b.UtilizationPercentage,
		&b.UtilizedAmount, &b.StartDate, &b.EndDate, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan shelf booking: %w", err)
	}
	return &b, nil
}

// Create inserts a new booking. UtilizedAmount is persisted so release can
// credit exactly what was debited.
func (r *Repository) Create(ctx context.Context, b *models.ShelfBooking) (*models.ShelfBooking, error) {
	query := `
		INSERT INTO shelf_bookings (id, vendor_id, microhub_id, shelf_size, utilization_percentage,
			utilized_amount, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, vendor_id, microhub_id, shelf_size, utilization_percentage,
			utilized_amount, start_date, end_date, status, created_at, updated_at`

	row := r.db.QueryRow(ctx, query,
		b.ID, b.VendorID, b.MicrohubID, b.ShelfSize, b.UtilizationPercentage,
		b.UtilizedAmount, b.StartDate, b.EndDate, b.Status)
	created, err := scanBooking(row)
	if err != nil {
		return nil, fmt.Errorf("repository.Create: %w", err)
	}
	return created, nil
}

// FindByIDAndVendor retrieves a booking only if the vendor owns it.
func (r *Repository) FindByIDAndVendor(ctx context.Context, bookingID, vendorID string) (*models.ShelfBooking, error) {
	query := `SELECT ` + bookingColumns + ` FROM shelf_bookings b WHERE b.id = $1 AND b.vendor_id = $2`
	b, err := scanBooking(r.db.QueryRow(ctx, query, bookingID, vendorID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByIDAndVendor: %w", err)
	}
	return b, nil
}

// ListByVendor returns the vendor's bookings newest first, with the microhub
// name and location joined in for display.
func (r *Repository) ListByVendor(ctx context.Context, vendorID string) ([]*models.ShelfBooking, error) {
	query := `
		SELECT ` + bookingColumns + `, m.name, m.location
		FROM shelf_bookings b
		JOIN microhubs m ON m.id = b.microhub_id
		WHERE b.vendor_id = $1
		ORDER BY b.created_at DESC`

	rows, err := r.db.Query(ctx, query, vendorID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListByVendor: %w", err)
	}
	defer rows.Close()

	var bookings []*models.ShelfBooking
	for rows.Next() {
		var b models.ShelfBooking
		err := rows.Scan(
			&b.ID, &b.VendorID, &b.MicrohubID, &b.ShelfSize, &b.UtilizationPercentage,
			&b.UtilizedAmount, &b.StartDate, &b.EndDate, &b.Status, &b.CreatedAt, &b.UpdatedAt,
			&b.MicrohubName, &b.MicrohubLocation,
		)
		if err != nil {
			return nil, fmt.Errorf("repository.ListByVendor: %w", err)
		}
		bookings = append(bookings, &b)
	}
	return bookings, rows.Err()
}

// ListExpired returns active bookings whose end date has passed.
func (r *Repository) ListExpired(ctx context.Context, now time.Time) ([]*models.ShelfBooking, error) {
	query := `SELECT ` + bookingColumns + ` FROM shelf_bookings b WHERE b.status = $1 AND b.end_date < $2`

	rows, err := r.db.Query(ctx, query, models.BookingStatusActive, now)
	if err != nil {
		return nil, fmt.Errorf("repository.ListExpired: %w", err)
	}
	defer rows.Close()

	var bookings []*models.ShelfBooking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListExpired: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// ListExpiringSoon returns active bookings ending inside [from, to] with the
// vendor email and microhub name needed for the warning email.
func (r *Repository) ListExpiringSoon(ctx context.Context, from, to time.Time) ([]ExpiringBooking, error) {
	query := `
		SELECT ` + bookingColumns + `, v.email, m.name
		FROM shelf_bookings b
		JOIN vendors v ON v.id = b.vendor_id
		JOIN microhubs m ON m.id = b.microhub_id
		WHERE b.status = $1 AND b.end_date >= $2 AND b.end_date <= $3`

	rows, err := r.db.Query(ctx, query, models.BookingStatusActive, from, to)
	if err != nil {
		return nil, fmt.Errorf("repository.ListExpiringSoon: %w", err)
	}
	defer rows.Close()

	var out []ExpiringBooking
	for rows.Next() {
		var e ExpiringBooking
		b := &e.Booking
		err := rows.Scan(
			&b.ID, &b.VendorID, &b.MicrohubID, &b.ShelfSize, &b.UtilizationPercentage,
			&b.UtilizedAmount, &b.StartDate, &b.EndDate, &b.Status, &b.CreatedAt, &b.UpdatedAt,
			&e.VendorEmail, &e.MicrohubName,
		)
		if err != nil {
			return nil, fmt.Errorf("repository.ListExpiringSoon: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SetStatus moves a booking from expected to next in one conditional update.
// Zero rows affected means another worker already moved it.
func (r *Repository) SetStatus(ctx context.Context, bookingID, expected, next string) error {
	query := `UPDATE shelf_bookings SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	cmdTag, err := r.db.Exec(ctx, query, next, bookingID, expected)
	if err != nil {
		return fmt.Errorf("repository.SetStatus: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrBookingNotActive
	}
	return nil
}

// Stats aggregates the vendor's active footprint in one round trip.
func (r *Repository) Stats(ctx context.Context, vendorID string, now, cutoff time.Time) (models.BookingStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(DISTINCT microhub_id),
		       COUNT(*) FILTER (WHERE end_date >= $3 AND end_date <= $4)
		FROM shelf_bookings
		WHERE vendor_id = $1 AND status = $2`

	var stats models.BookingStats
	err := r.db.QueryRow(ctx, query, vendorID, models.BookingStatusActive, now, cutoff).
		Scan(&stats.ActiveBookings, &stats.TotalLocations, &stats.ExpiringSoon)
	if err != nil {
		return models.BookingStats{}, fmt.Errorf("repository.Stats: %w", err)
	}
	return stats, nil
}
