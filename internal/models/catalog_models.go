package models

import "time"

// Microhub statuses.
const (
	MicrohubStatusActive      = "active"
	MicrohubStatusMaintenance = "maintenance"
	MicrohubStatusInactive    = "inactive"
)

// Product is a vendor-owned catalog entry. Stock is the finite pool debited at
// order creation and credited back on order deletion.
type Product struct {
	ID          string    `json:"id"`
	VendorID    string    `json:"vendor_id"`
	Name        string    `json:"name"`
	SKU         string    `json:"sku"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateProductRequest is the vendor-facing payload for adding a product.
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	SKU         string  `json:"sku" validate:"required"`
	Category    string  `json:"category" validate:"required"`
	Price       float64 `json:"price" validate:"required,gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Description string  `json:"description,omitempty"`
}

// UpdateProductRequest carries partial product updates. Nil fields are left
// untouched.
type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Description *string  `json:"description,omitempty"`
}

// Microhub is a regional depot with finite shelf capacity, used both for order
// routing and vendor shelf leasing.
type Microhub struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Address   string    `json:"address,omitempty"`
	Thana     string    `json:"thana,omitempty"`
	District  string    `json:"district,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Capacity  int       `json:"capacity"`
	Utilized  int       `json:"utilized"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateMicrohubRequest is the admin-facing payload for registering a depot.
type CreateMicrohubRequest struct {
	Name      string   `json:"name" validate:"required"`
	Location  string   `json:"location" validate:"required"`
	Address   string   `json:"address,omitempty"`
	Thana     string   `json:"thana,omitempty"`
	District  string   `json:"district,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Capacity  int      `json:"capacity" validate:"gte=0"`
	Utilized  int      `json:"utilized,omitempty" validate:"gte=0"`
}

// UpdateMicrohubRequest carries partial microhub updates.
type UpdateMicrohubRequest struct {
	Name      *string  `json:"name,omitempty"`
	Location  *string  `json:"location,omitempty"`
	Address   *string  `json:"address,omitempty"`
	Thana     *string  `json:"thana,omitempty"`
	District  *string  `json:"district,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Capacity  *int     `json:"capacity,omitempty" validate:"omitempty,gte=0"`
	Status    *string  `json:"status,omitempty" validate:"omitempty,oneof=active maintenance inactive"`
}
