package order

import (
	"context"
	"fmt"
	"log"
	"strings"

	"microhub-delivery/internal/metrics"
	"microhub-delivery/internal/models"
	"microhub-delivery/pkg/geo"
	"microhub-delivery/pkg/otp"

	"github.com/google/uuid"
)

// MaxOtpAttempts is the per-stage lockout threshold for failed OTP guesses.
const MaxOtpAttempts = 10

// ProductRepositoryInterface is the slice of the catalog module the order
// service consumes. DebitStock is a conditional decrement: it fails with
// ErrInsufficientStock instead of ever driving stock negative.
type ProductRepositoryInterface interface {
	FindByID(ctx context.Context, productID string) (*models.Product, error)
	DebitStock(ctx context.Context, productID string, qty int) error
	CreditStock(ctx context.Context, productID string, qty int) error
}

// MicrohubRepositoryInterface is the slice of the catalog module used to look
// up destination coordinates at acceptance.
type MicrohubRepositoryInterface interface {
	FindByID(ctx context.Context, microhubID string) (*models.Microhub, error)
}

// DriverRepositoryInterface is the slice of the fleet module used to credit a
// driver's delivery counter on completion.
type DriverRepositoryInterface interface {
	IncrementDeliveries(ctx context.Context, driverID string) error
}

// ServiceInterface defines the contract for the order service.
type ServiceInterface interface {
	CreateOrder(ctx context.Context, caller models.Caller, req models.CreateOrderRequest) (*models.Order, error)
	ListOrders(ctx context.Context, caller models.Caller) ([]*models.Order, error)
	DeleteOrder(ctx context.Context, caller models.Caller, orderID string) error
	AcceptOrder(ctx context.Context, caller models.Caller, orderID string) (*models.Order, error)
	VerifyPickup(ctx context.Context, caller models.Caller, orderID, code string) (*models.Order, error)
	CompleteOrder(ctx context.Context, caller models.Caller, orderID, code string) (*models.Order, error)
}

// Service implements the order lifecycle.
type Service struct {
	repo     RepositoryInterface
	products ProductRepositoryInterface
	hubs     MicrohubRepositoryInterface
	drivers  DriverRepositoryInterface
	metrics  *metrics.Registry
}

// NewService creates a new order service.
func NewService(repo RepositoryInterface, products ProductRepositoryInterface, hubs MicrohubRepositoryInterface, drivers DriverRepositoryInterface, reg *metrics.Registry) *Service {
	return &Service{
		repo:     repo,
		products: products,
		hubs:     hubs,
		drivers:  drivers,
		metrics:  reg,
	}
}

// CreateOrder places a new order for the calling vendor: it checks product
// ownership, debits stock, mints the two OTPs and persists the order in
// Waiting state. All checks happen before the first mutation.
func (s *Service) CreateOrder(ctx context.Context, caller models.Caller, req models.CreateOrderRequest) (*models.Order, error) {
	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("service.CreateOrder: %w", err)
	}
	if product.VendorID != caller.VendorID {
		return nil, models.ErrForbidden
	}
	if product.Stock < req.Quantity {
		return nil, models.ErrInsufficientStock
	}

	// The precondition above is advisory; the conditional decrement is what
	// actually guarantees stock never goes negative under concurrent creates.
	if err := s.products.DebitStock(ctx, req.ProductID, req.Quantity); err != nil {
		return nil, fmt.Errorf("service.CreateOrder: %w", err)
	}

	eta := models.EtaStandard
	if req.DeliveryType == models.DeliveryTypeExpress {
		eta = models.EtaExpress
	}

	o := &models.Order{
		ID:                    uuid.NewString(),
		CustomerName:          req.CustomerName,
		PhoneNumber:           req.PhoneNumber,
		VendorID:              caller.VendorID,
		ProductID:             req.ProductID,
		Quantity:              req.Quantity,
		DeliveryType:          req.DeliveryType,
		SourceMicrohubID:      req.SourceMicrohubID,
		DestinationMicrohubID: req.DestinationMicrohubID,
		SpecifiedAddress:      req.SpecifiedAddress,
		DeliveryLocation:      req.DeliveryLocation,
		Status:                models.OrderStatusWaiting,
		PickupOtp:             otp.Generate(),
		DeliveryOtp:           otp.Generate(),
		Total:                 product.Price * float64(req.Quantity),
		Eta:                   eta,
	}

	created, err := s.repo.Create(ctx, o)
	if err != nil {
		// Stock was already debited; put it back rather than strand it.
		if creditErr := s.products.CreditStock(ctx, req.ProductID, req.Quantity); creditErr != nil {
			log.Printf("CRITICAL: order insert failed and stock credit-back failed for product %s: %v", req.ProductID, creditErr)
		}
		return nil, fmt.Errorf("service.CreateOrder: %w", err)
	}

	s.metrics.OrdersCreated.Inc()
	return created, nil
}

// ListOrders applies the role visibility rule: admins see everything, drivers
// see the Waiting pool plus their own assignments, vendors see their own.
func (s *Service) ListOrders(ctx context.Context, caller models.Caller) ([]*models.Order, error) {
	switch caller.Role {
	case models.RoleAdmin:
		return s.repo.ListAll(ctx)
	case models.RoleDriver:
		return s.repo.ListForDriver(ctx, caller.DriverID)
	case models.RoleVendor:
		return s.repo.ListByVendor(ctx, caller.VendorID)
	default:
		return nil, models.ErrForbidden
	}
}

// DeleteOrder cancels a vendor's order and credits the product stock back by
// the order's quantity. The source system has no status guard on delete, so
// neither do we; ownership is still enforced. The row removal runs first:
// only the delete that actually removes the row credits the stock, so two
// racing deletes cannot credit twice.
func (s *Service) DeleteOrder(ctx context.Context, caller models.Caller, orderID string) error {
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("service.DeleteOrder: %w", err)
	}
	if o.VendorID != caller.VendorID {
		return models.ErrForbidden
	}

	if err := s.repo.Delete(ctx, orderID); err != nil {
		return fmt.Errorf("service.DeleteOrder: %w", err)
	}
	if err := s.products.CreditStock(ctx, o.ProductID, o.Quantity); err != nil {
		log.Printf("CRITICAL: order %s deleted but stock credit-back failed for product %s: %v", orderID, o.ProductID, err)
	}

	s.metrics.OrdersDeleted.Inc()
	return nil
}

// AcceptOrder assigns the calling driver to a Waiting order and moves it to
// Pickup. The delivery distance is computed lazily here, once the destination
// microhub's coordinates are known.
func (s *Service) AcceptOrder(ctx context.Context, caller models.Caller, orderID string) (*models.Order, error) {
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service.AcceptOrder: %w", err)
	}
	if o.Status != models.OrderStatusWaiting {
		return nil, models.ErrOrderStateInvalid
	}

	var distance *float64
	if o.DistanceKm == nil {
		hub, err := s.hubs.FindByID(ctx, o.DestinationMicrohubID)
		if err == nil && hub.Latitude != nil && hub.Longitude != nil {
			d := geo.HaversineKm(*hub.Latitude, *hub.Longitude,
				o.DeliveryLocation.Latitude(), o.DeliveryLocation.Longitude())
			distance = &d
		}
	}

	if err := s.repo.AssignDriver(ctx, orderID, caller.DriverID, distance); err != nil {
		return nil, fmt.Errorf("service.AcceptOrder: %w", err)
	}

	s.metrics.OrdersAccepted.Inc()
	return s.repo.FindByID(ctx, orderID)
}

// VerifyPickup validates the pickup OTP and moves the order to Delivering.
func (s *Service) VerifyPickup(ctx context.Context, caller models.Caller, orderID, code string) (*models.Order, error) {
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service.VerifyPickup: %w", err)
	}
	if o.Status != models.OrderStatusPickup {
		return nil, models.ErrOrderStateInvalid
	}
	if o.AssignedDriverID == nil || *o.AssignedDriverID != caller.DriverID {
		return nil, models.ErrForbidden
	}
	if o.PickupAttempts >= MaxOtpAttempts {
		return nil, models.ErrOtpLocked
	}

	if strings.ToUpper(code) != o.PickupOtp {
		s.metrics.OtpRejected.Inc()
		if err := s.repo.IncrementPickupAttempts(ctx, orderID); err != nil {
			log.Printf("order %s: failed to record pickup OTP attempt: %v", orderID, err)
		}
		return nil, models.ErrInvalidOtp
	}

	if err := s.repo.TransitionStatus(ctx, orderID, models.OrderStatusPickup, models.OrderStatusDelivering); err != nil {
		return nil, fmt.Errorf("service.VerifyPickup: %w", err)
	}
	return s.repo.FindByID(ctx, orderID)
}

// CompleteOrder validates the delivery OTP, finalizes the order and credits
// the driver's delivery count. The counter is bumped after the conditional
// transition succeeds: Completed is terminal, so the increment can happen at
// most once per order.
func (s *Service) CompleteOrder(ctx context.Context, caller models.Caller, orderID, code string) (*models.Order, error) {
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service.CompleteOrder: %w", err)
	}
	if o.Status != models.OrderStatusDelivering {
		return nil, models.ErrOrderStateInvalid
	}
	if o.AssignedDriverID == nil || *o.AssignedDriverID != caller.DriverID {
		return nil, models.ErrForbidden
	}
	if o.DeliveryAttempts >= MaxOtpAttempts {
		return nil, models.ErrOtpLocked
	}

	if strings.ToUpper(code) != o.DeliveryOtp {
		s.metrics.OtpRejected.Inc()
		if err := s.repo.IncrementDeliveryAttempts(ctx, orderID); err != nil {
			log.Printf("order %s: failed to record delivery OTP attempt: %v", orderID, err)
		}
		return nil, models.ErrInvalidOtp
	}

	if err := s.repo.TransitionStatus(ctx, orderID, models.OrderStatusDelivering, models.OrderStatusCompleted); err != nil {
		return nil, fmt.Errorf("service.CompleteOrder: %w", err)
	}
	if err := s.drivers.IncrementDeliveries(ctx, caller.DriverID); err != nil {
		log.Printf("CRITICAL: order %s completed but driver %s delivery count not incremented: %v", orderID, caller.DriverID, err)
	}

	s.metrics.OrdersCompleted.Inc()
	return s.repo.FindByID(ctx, orderID)
}
