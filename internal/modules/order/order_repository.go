package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"microhub-delivery/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the order repository. Status
// transitions are single conditional updates: they only fire while the row's
// current status still matches the expected one, so two racing drivers cannot
// both win the same transition.
type RepositoryInterface interface {
	Create(ctx context.Context, o *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
	ListAll(ctx context.Context) ([]*models.Order, error)
	ListByVendor(ctx context.Context, vendorID string) ([]*models.Order, error)
	ListForDriver(ctx context.Context, driverID string) ([]*models.Order, error)
	Delete(ctx context.Context, orderID string) error
	AssignDriver(ctx context.Context, orderID, driverID string, distanceKm *float64) error
	TransitionStatus(ctx context.Context, orderID, expected, next string) error
	IncrementPickupAttempts(ctx context.Context, orderID string) error
	IncrementDeliveryAttempts(ctx context.Context, orderID string) error
}

// Repository implements the RepositoryInterface on Postgres.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new order repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const orderColumns = `id, customer_name, phone_number, vendor_id, product_id, quantity, delivery_type,
	source_microhub_id, destination_microhub_id, specified_address,
	delivery_lng, delivery_lat, delivery_address, detail_address, detail_thana, detail_district,
	status, assigned_driver_id, pickup_otp, delivery_otp, pickup_attempts, delivery_attempts,
	distance_km, total, eta, created_at, updated_at`

// Create inserts a new order. The service supplies the ID, OTPs, total and
// ETA; timestamps come from the database.
func (r *Repository) Create(ctx context.Context, o *models.Order) (*models.Order, error) {
	query := `
		INSERT INTO orders (id, customer_name, phone_number, vendor_id, product_id, quantity, delivery_type,
			source_microhub_id, destination_microhub_id, specified_address,
			delivery_lng, delivery_lat, delivery_address, detail_address, detail_thana, detail_district,
			status, pickup_otp, delivery_otp, total, eta)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING ` + orderColumns

	var detailAddress, detailThana, detailDistrict *string
	if d := o.DeliveryLocation.AddressDetails; d != nil {
		detailAddress, detailThana, detailDistrict = &d.Address, &d.Thana, &d.District
	}

	row := r.db.QueryRow(ctx, query,
		o.ID, o.CustomerName, o.PhoneNumber, o.VendorID, o.ProductID, o.Quantity, o.DeliveryType,
		o.SourceMicrohubID, o.DestinationMicrohubID, o.SpecifiedAddress,
		o.DeliveryLocation.Longitude(), o.DeliveryLocation.Latitude(), o.DeliveryLocation.Address,
		detailAddress, detailThana, detailDistrict,
		o.Status, o.PickupOtp, o.DeliveryOtp, o.Total, o.Eta,
	)
	created, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("repository.Create: %w", err)
	}
	return created, nil
}

// scanOrder is a helper function to scan a row into an Order model.
func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	var driverID, detailAddress, detailThana, detailDistrict sql.NullString
	var distance sql.NullFloat64
	var lng, lat float64

	err := row.Scan(
		&o.ID, &o.CustomerName, &o.PhoneNumber, &o.VendorID, &o.ProductID, &o.Quantity, &o.DeliveryType,
		&o.SourceMicrohubID, &o.DestinationMicrohubID, &o.SpecifiedAddress,
		&lng, &lat, &o.DeliveryLocation.Address, &detailAddress, &detailThana, &detailDistrict,
		&o.Status, &driverID, &o.PickupOtp, &o.DeliveryOtp, &o.PickupAttempts, &o.DeliveryAttempts,
		&distance, &o.Total, &o.Eta, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	o.DeliveryLocation.Coordinates = [2]float64{lng, lat}
	if driverID.Valid {
		o.AssignedDriverID = &driverID.String
	}
	if distance.Valid {
		o.DistanceKm = &distance.Float64
	}
	if detailAddress.Valid || detailThana.Valid || detailDistrict.Valid {
		o.DeliveryLocation.AddressDetails = &models.AddressDetails{
			Address:  detailAddress.String,
			Thana:    detailThana.String,
			District: detailDistrict.String,
		}
	}
	return &o, nil
}

// FindByID retrieves a single order by its ID.
func (r *Repository) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.db.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return o, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ListAll returns every order, newest first. Admin listing.
func (r *Repository) ListAll(ctx context.Context) ([]*models.Order, error) {
	orders, err := r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository.ListAll: %w", err)
	}
	return orders, nil
}

// ListByVendor returns the vendor's own orders, newest first.
func (r *Repository) ListByVendor(ctx context.Context, vendorID string) ([]*models.Order, error) {
	orders, err := r.list(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE vendor_id = $1 ORDER BY created_at DESC`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListByVendor: %w", err)
	}
	return orders, nil
}

// ListForDriver returns the unassigned Waiting pool unioned with the orders
// assigned to this driver.
func (r *Repository) ListForDriver(ctx context.Context, driverID string) ([]*models.Order, error) {
	orders, err := r.list(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE status = $1 OR assigned_driver_id = $2
		 ORDER BY created_at DESC`,
		models.OrderStatusWaiting, driverID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListForDriver: %w", err)
	}
	return orders, nil
}

// Delete removes an order row.
func (r *Repository) Delete(ctx context.Context, orderID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("repository.Delete: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AssignDriver performs the Waiting → Pickup transition, setting the assigned
// driver and the lazily computed distance in the same conditional update.
func (r *Repository) AssignDriver(ctx context.Context, orderID, driverID string, distanceKm *float64) error {
	query := `
		UPDATE orders
		SET status = $1, assigned_driver_id = $2, distance_km = COALESCE($3, distance_km), updated_at = NOW()
		WHERE id = $4 AND status = $5`

	cmdTag, err := r.db.Exec(ctx, query,
		models.OrderStatusPickup, driverID, distanceKm, orderID, models.OrderStatusWaiting)
	if err != nil {
		return fmt.Errorf("repository.AssignDriver: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrOrderStateConflict
	}
	return nil
}

// TransitionStatus moves an order from expected to next in one conditional
// update. Zero rows affected means the status moved underneath the caller.
func (r *Repository) TransitionStatus(ctx context.Context, orderID, expected, next string) error {
	query := `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	cmdTag, err := r.db.Exec(ctx, query, next, orderID, expected)
	if err != nil {
		return fmt.Errorf("repository.TransitionStatus: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrOrderStateConflict
	}
	return nil
}

// IncrementPickupAttempts bumps the failed pickup OTP counter.
func (r *Repository) IncrementPickupAttempts(ctx context.Context, orderID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE orders SET pickup_attempts = pickup_attempts + 1, updated_at = NOW() WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("repository.IncrementPickupAttempts: %w", err)
	}
	return nil
}

// IncrementDeliveryAttempts bumps the failed delivery OTP counter.
func (r *Repository) IncrementDeliveryAttempts(ctx context.Context, orderID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE orders SET delivery_attempts = delivery_attempts + 1, updated_at = NOW() WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("repository.IncrementDeliveryAttempts: %w", err)
	}
	return nil
}
