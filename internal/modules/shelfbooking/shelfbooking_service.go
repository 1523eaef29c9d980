package shelfbooking

import (
	"context"
	"fmt"
	"log"
	"time"

	"microhub-delivery/internal/metrics"
	"microhub-delivery/internal/models"
	"microhub-delivery/pkg/notify"

	"github.com/google/uuid"
)

// ExpiryWarningWindow is how far ahead the sweeper looks when emailing
// vendors about bookings that are about to lapse. Matches the stats window.
const ExpiryWarningWindow = 7 * 24 * time.Hour

// MicrohubRepositoryInterface is the slice of the catalog module the booking
// service consumes. ReserveCapacity is a conditional increment: it fails with
// ErrInsufficientCapacity instead of ever pushing utilized past capacity.
type MicrohubRepositoryInterface interface {
	FindByID(ctx context.Context, microhubID string) (*models.Microhub, error)
	ReserveCapacity(ctx context.Context, microhubID string, amount int) error
	ReleaseCapacity(ctx context.Context, microhubID string, amount int) error
}

// ServiceInterface defines the contract for the shelf booking service.
type ServiceInterface interface {
	ListBookings(ctx context.Context, caller models.Caller) ([]*models.ShelfBooking, error)
	CreateBooking(ctx context.Context, caller models.Caller, req models.CreateShelfBookingRequest) (*models.ShelfBooking, error)
	CancelBooking(ctx context.Context, caller models.Caller, bookingID string) error
	Stats(ctx context.Context, caller models.Caller) (models.BookingStats, error)
	UpdateExpired(ctx context.Context) (int, error)
}

// Service implements the shelf booking logic, including the expiry sweeper.
type Service struct {
	repo     RepositoryInterface
	hubs     MicrohubRepositoryInterface
	notifier notify.ServiceInterface // nil disables expiry warning email
	metrics  *metrics.Registry
	now      func() time.Time
}

// NewService creates a new shelf booking service. notifier may be nil when no
// email backend is configured.
func NewService(repo RepositoryInterface, hubs MicrohubRepositoryInterface, notifier notify.ServiceInterface, reg *metrics.Registry) *Service {
	return &Service{
		repo:     repo,
		hubs:     hubs,
		notifier: notifier,
		metrics:  reg,
		now:      time.Now,
	}
}

// utilizationAmount is the number of capacity units a percentage slice of a
// microhub occupies, rounded up.
func utilizationAmount(capacity, percentage int) int {
	return (capacity*percentage + 99) / 100
}

// ListBookings returns the calling vendor's bookings.
func (s *Service) ListBookings(ctx context.Context, caller models.Caller) ([]*models.ShelfBooking, error) {
	return s.repo.ListByVendor(ctx, caller.VendorID)
}

// CreateBooking leases a slice of a microhub for the calling vendor. The
// utilization amount is computed once, reserved through a conditional
// increment, and stored on the booking so release credits exactly the same
// number of units.
func (s *Service) CreateBooking(ctx context.Context, caller models.Caller, req models.CreateShelfBookingRequest) (*models.ShelfBooking, error) {
	percentage, ok := models.ShelfSizePercentage[req.ShelfSize]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrShelfSizeInvalid, req.ShelfSize)
	}

	now := s.now()
	if req.StartDate.Before(now) {
		return nil, fmt.Errorf("%w: start date cannot be in the past", models.ErrBookingDatesInvalid)
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", models.ErrBookingDatesInvalid)
	}

	hub, err := s.hubs.FindByID(ctx, req.MicrohubID)
	if err != nil {
		return nil, fmt.Errorf("service.CreateBooking: %w", err)
	}
	if hub.Status != models.MicrohubStatusActive {
		return nil, models.ErrMicrohubInactive
	}

	amount := utilizationAmount(hub.Capacity, percentage)
	if hub.Utilized+amount > hub.Capacity {
		return nil, &models.CapacityError{Available: hub.Capacity - hub.Utilized, Required: amount}
	}

	if err := s.hubs.ReserveCapacity(ctx, req.MicrohubID, amount); err != nil {
		// The advisory check passed but the conditional increment lost a
		// race; report the fresh numbers.
		if fresh, ferr := s.hubs.FindByID(ctx, req.MicrohubID); ferr == nil {
			return nil, &models.CapacityError{Available: fresh.Capacity - fresh.Utilized, Required: amount}
		}
		return nil, fmt.Errorf("service.CreateBooking: %w", err)
	}

	booking := &models.ShelfBooking{
		ID:                    uuid.NewString(),
		VendorID:              caller.VendorID,
		MicrohubID:            req.MicrohubID,
		ShelfSize:             req.ShelfSize,
		UtilizationPercentage: percentage,
		UtilizedAmount:        amount,
		StartDate:             req.StartDate,
		EndDate:               req.EndDate,
		Status:                models.BookingStatusActive,
	}

	created, err := s.repo.Create(ctx, booking)
	if err != nil {
		if releaseErr := s.hubs.ReleaseCapacity(ctx, req.MicrohubID, amount); releaseErr != nil {
			log.Printf("CRITICAL: booking insert failed and capacity release failed for microhub %s: %v", req.MicrohubID, releaseErr)
		}
		return nil, fmt.Errorf("service.CreateBooking: %w", err)
	}
	created.MicrohubName = hub.Name
	created.MicrohubLocation = hub.Location

	s.metrics.BookingsCreated.Inc()
	return created, nil
}

// CancelBooking cancels an active booking and releases the stored utilization
// amount. The conditional status flip runs first so a racing sweep and cancel
// cannot both release.
func (s *Service) CancelBooking(ctx context.Context, caller models.Caller, bookingID string) error {
	booking, err := s.repo.FindByIDAndVendor(ctx, bookingID, caller.VendorID)
	if err != nil {
		return fmt.Errorf("service.CancelBooking: %w", err)
	}
	if booking.Status != models.BookingStatusActive {
		return models.ErrBookingNotActive
	}

	if err := s.repo.SetStatus(ctx, bookingID, models.BookingStatusActive, models.BookingStatusCancelled); err != nil {
		return fmt.Errorf("service.CancelBooking: %w", err)
	}
	if err := s.hubs.ReleaseCapacity(ctx, booking.MicrohubID, booking.UtilizedAmount); err != nil {
		log.Printf("CRITICAL: booking %s cancelled but capacity not released on microhub %s: %v", bookingID, booking.MicrohubID, err)
	}
	return nil
}

// Stats summarises the vendor's active bookings, distinct microhubs, and
// bookings expiring inside the warning window.
func (s *Service) Stats(ctx context.Context, caller models.Caller) (models.BookingStats, error) {
	now := s.now()
	return s.repo.Stats(ctx, caller.VendorID, now, now.Add(ExpiryWarningWindow))
}

// UpdateExpired is the expiry sweep: every active booking whose end date has
// passed is flipped to expired and its stored utilization amount released.
// The conditional flip makes the sweep idempotent per booking: a second run
// (or a concurrent one) sees zero rows affected and skips the release.
func (s *Service) UpdateExpired(ctx context.Context) (int, error) {
	now := s.now()
	expired, err := s.repo.ListExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("service.UpdateExpired: %w", err)
	}
	log.Printf("sweeper: found %d expired bookings to process", len(expired))

	processed := 0
	for _, booking := range expired {
		if err := s.repo.SetStatus(ctx, booking.ID, models.BookingStatusActive, models.BookingStatusExpired); err != nil {
			// Already expired or cancelled by someone else; nothing to release.
			continue
		}
		if err := s.hubs.ReleaseCapacity(ctx, booking.MicrohubID, booking.UtilizedAmount); err != nil {
			log.Printf("CRITICAL: booking %s expired but capacity not released on microhub %s: %v", booking.ID, booking.MicrohubID, err)
		}
		s.metrics.BookingsExpired.Inc()
		processed++
	}

	s.metrics.SweepRuns.Inc()
	s.sendExpiryWarnings(ctx, now)
	return processed, nil
}

// sendExpiryWarnings emails vendors whose bookings lapse inside the warning
// window. Best effort: failures are logged, never surfaced to the sweep
// caller.
func (s *Service) sendExpiryWarnings(ctx context.Context, now time.Time) {
	if s.notifier == nil {
		return
	}
	expiring, err := s.repo.ListExpiringSoon(ctx, now, now.Add(ExpiryWarningWindow))
	if err != nil {
		log.Printf("sweeper: failed to list expiring bookings: %v", err)
		return
	}
	for _, e := range expiring {
		if e.VendorEmail == "" {
			continue
		}
		if err := s.notifier.SendBookingExpiryWarning(ctx, e.VendorEmail, e.MicrohubName, e.Booking.EndDate); err != nil {
			log.Printf("sweeper: expiry warning to %s failed: %v", e.VendorEmail, err)
		}
	}
}
