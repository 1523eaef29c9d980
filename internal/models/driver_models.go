package models

import "time"

// Driver statuses.
const (
	DriverStatusActive   = "active"
	DriverStatusPending  = "pending"
	DriverStatusInactive = "inactive"
)

// Driver is a fleet member. Deliveries is incremented exactly once per
// completed order; the Completed transition is terminal so the counter cannot
// be bumped twice for the same order.
type Driver struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone"`
	VehicleType string     `json:"vehicle_type,omitempty"`
	Deliveries  int        `json:"deliveries"`
	Rating      float64    `json:"rating"`
	Status      string     `json:"status"`
	JoinedAt    *time.Time `json:"joined_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DriverStatusUpdateRequest is the admin-facing payload for toggling a
// driver's status.
type DriverStatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=active pending inactive"`
}

// FleetMetrics is the admin dashboard aggregate over drivers and orders.
type FleetMetrics struct {
	TotalDeliveries int      `json:"totalDeliveries"`
	OnTimeRate      int      `json:"onTimeRate"`
	TopPerformers   []Driver `json:"topPerformers"`
}
