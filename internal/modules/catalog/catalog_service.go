package catalog

import (
	"context"
	"fmt"

	"microhub-delivery/internal/models"

	"github.com/google/uuid"
)

// ServiceInterface defines the contract for the catalog service: vendor
// product CRUD and admin microhub CRUD.
type ServiceInterface interface {
	ListProducts(ctx context.Context, caller models.Caller) ([]*models.Product, error)
	CreateProduct(ctx context.Context, caller models.Caller, req models.CreateProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, caller models.Caller, productID string, req models.UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, caller models.Caller, productID string) error

	ListMicrohubs(ctx context.Context) ([]*models.Microhub, error)
	CreateMicrohub(ctx context.Context, req models.CreateMicrohubRequest) (*models.Microhub, error)
	UpdateMicrohub(ctx context.Context, microhubID string, req models.UpdateMicrohubRequest) (*models.Microhub, error)
	DeleteMicrohub(ctx context.Context, microhubID string) error
}

// Service implements the catalog logic.
type Service struct {
	products ProductRepositoryInterface
	hubs     MicrohubRepositoryInterface
}

// NewService creates a new catalog service.
func NewService(products ProductRepositoryInterface, hubs MicrohubRepositoryInterface) *Service {
	return &Service{products: products, hubs: hubs}
}

func (s *Service) ListProducts(ctx context.Context, caller models.Caller) ([]*models.Product, error) {
	return s.products.ListByVendor(ctx, caller.VendorID)
}

func (s *Service) CreateProduct(ctx context.Context, caller models.Caller, req models.CreateProductRequest) (*models.Product, error) {
	p := &models.Product{
		ID:          uuid.NewString(),
		VendorID:    caller.VendorID,
		Name:        req.Name,
		SKU:         req.SKU,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		Description: req.Description,
	}
	created, err := s.products.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("service.CreateProduct: %w", err)
	}
	return created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, caller models.Caller, productID string, req models.UpdateProductRequest) (*models.Product, error) {
	return s.products.Update(ctx, productID, caller.VendorID, req)
}

func (s *Service) DeleteProduct(ctx context.Context, caller models.Caller, productID string) error {
	return s.products.Delete(ctx, productID, caller.VendorID)
}

func (s *Service) ListMicrohubs(ctx context.Context) ([]*models.Microhub, error) {
	return s.hubs.List(ctx)
}

func (s *Service) CreateMicrohub(ctx context.Context, req models.CreateMicrohubRequest) (*models.Microhub, error) {
	m := &models.Microhub{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Location:  req.Location,
		Address:   req.Address,
		Thana:     req.Thana,
		District:  req.District,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Capacity:  req.Capacity,
		Utilized:  req.Utilized,
		Status:    models.MicrohubStatusActive,
	}
	created, err := s.hubs.Create(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("service.CreateMicrohub: %w", err)
	}
	return created, nil
}

func (s *Service) UpdateMicrohub(ctx context.Context, microhubID string, req models.UpdateMicrohubRequest) (*models.Microhub, error) {
	return s.hubs.Update(ctx, microhubID, req)
}

func (s *Service) DeleteMicrohub(ctx context.Context, microhubID string) error {
	return s.hubs.Delete(ctx, microhubID)
}
