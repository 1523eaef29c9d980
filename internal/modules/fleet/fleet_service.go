package fleet

import (
	"context"
	"fmt"
	"time"

	"microhub-delivery/internal/models"
)

// ServiceInterface defines the contract for the fleet service.
type ServiceInterface interface {
	ListDrivers(ctx context.Context) ([]*models.Driver, error)
	ListPendingDrivers(ctx context.Context) ([]*models.Driver, error)
	ApproveDriver(ctx context.Context, driverID string) (*models.Driver, error)
	RejectDriver(ctx context.Context, driverID string) (*models.Driver, error)
	UpdateDriverStatus(ctx context.Context, driverID string, req models.DriverStatusUpdateRequest) (*models.Driver, error)
	Metrics(ctx context.Context) (*models.FleetMetrics, error)
	IncrementDeliveries(ctx context.Context, driverID string) error
}

// Service implements the fleet logic.
type Service struct {
	repo RepositoryInterface
	now  func() time.Time
}

// NewService creates a new fleet service.
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) ListDrivers(ctx context.Context) ([]*models.Driver, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListPendingDrivers(ctx context.Context) ([]*models.Driver, error) {
	return s.repo.ListByStatus(ctx, models.DriverStatusPending)
}

// ApproveDriver activates a pending driver and stamps their join date.
func (s *Service) ApproveDriver(ctx context.Context, driverID string) (*models.Driver, error) {
	joined := s.now()
	return s.repo.SetStatus(ctx, driverID, models.DriverStatusActive, &joined)
}

// RejectDriver marks a pending driver inactive.
func (s *Service) RejectDriver(ctx context.Context, driverID string) (*models.Driver, error) {
	return s.repo.SetStatus(ctx, driverID, models.DriverStatusInactive, nil)
}

// UpdateDriverStatus toggles a driver's status; the join date is stamped the
// first time a driver goes active.
func (s *Service) UpdateDriverStatus(ctx context.Context, driverID string, req models.DriverStatusUpdateRequest) (*models.Driver, error) {
	existing, err := s.repo.FindByID(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("service.UpdateDriverStatus: %w", err)
	}

	var joinedAt *time.Time
	if req.Status == models.DriverStatusActive && existing.JoinedAt == nil {
		joined := s.now()
		joinedAt = &joined
	}
	return s.repo.SetStatus(ctx, driverID, req.Status, joinedAt)
}

// Metrics builds the admin fleet dashboard aggregate.
func (s *Service) Metrics(ctx context.Context) (*models.FleetMetrics, error) {
	total, completed, err := s.repo.CountOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.Metrics: %w", err)
	}

	onTimeRate := 0
	if total > 0 {
		onTimeRate = completed * 100 / total
	}

	top, err := s.repo.TopPerformers(ctx, 5)
	if err != nil {
		return nil, fmt.Errorf("service.Metrics: %w", err)
	}

	performers := make([]models.Driver, 0, len(top))
	for _, d := range top {
		performers = append(performers, *d)
	}

	return &models.FleetMetrics{
		TotalDeliveries: total,
		OnTimeRate:      onTimeRate,
		TopPerformers:   performers,
	}, nil
}

// IncrementDeliveries proxies the counter credit used by the order module on
// completion.
func (s *Service) IncrementDeliveries(ctx context.Context, driverID string) error {
	return s.repo.IncrementDeliveries(ctx, driverID)
}
