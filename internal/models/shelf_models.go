package models

import "time"

// Shelf booking statuses.
const (
	BookingStatusActive    = "active"
	BookingStatusExpired   = "expired"
	BookingStatusCancelled = "cancelled"
)

// Shelf sizes and the percentage slice of a microhub's capacity each leases.
const (
	ShelfSizeSmall  = "small"
	ShelfSizeMedium = "medium"
	ShelfSizeLarge  = "large"
)

// ShelfSizePercentage maps a shelf size to its utilization percentage.
var ShelfSizePercentage = map[string]int{
	ShelfSizeSmall:  10,
	ShelfSizeMedium: 25,
	ShelfSizeLarge:  50,
}

// ShelfBooking is a vendor's time-boxed lease of a slice of a microhub.
// UtilizedAmount is the concrete number of capacity units debited at reserve
// time; release always credits exactly this stored amount rather than
// recomputing from the microhub's current capacity, so a capacity edit between
// reserve and release cannot skew the ledger.
type ShelfBooking struct {
	ID                    string    `json:"id"`
	VendorID              string    `json:"vendor_id"`
	MicrohubID            string    `json:"microhub_id"`
	MicrohubName          string    `json:"microhub_name,omitempty"`
	MicrohubLocation      string    `json:"microhub_location,omitempty"`
	ShelfSize             string    `json:"shelf_size"`
	UtilizationPercentage int       `json:"utilization_percentage"`
	UtilizedAmount        int       `json:"utilized_amount"`
	StartDate             time.Time `json:"start_date"`
	EndDate               time.Time `json:"end_date"`
	Status                string    `json:"status"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// CreateShelfBookingRequest is the vendor-facing payload for leasing shelf
// space.
type CreateShelfBookingRequest struct {
	MicrohubID string    `json:"microhub_id" validate:"required"`
	ShelfSize  string    `json:"shelf_size" validate:"required,oneof=small medium large"`
	StartDate  time.Time `json:"start_date" validate:"required"`
	EndDate    time.Time `json:"end_date" validate:"required"`
}

// BookingStats summarises a vendor's active shelf footprint.
type BookingStats struct {
	ActiveBookings int `json:"activeBookings"`
	TotalLocations int `json:"totalLocations"`
	ExpiringSoon   int `json:"expiringSoon"`
}
