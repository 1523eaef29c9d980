package models

import "time"

// Order statuses, in the only order they may be traversed. Transitions are
// monotonic: Waiting → Pickup → Delivering → Completed, never backwards.
const (
	OrderStatusWaiting    = "Waiting"
	OrderStatusPickup     = "Pickup"
	OrderStatusDelivering = "Delivering"
	OrderStatusCompleted  = "Completed"
)

// Delivery types and the coarse ETA window each maps to.
const (
	DeliveryTypeStandard = "standard"
	DeliveryTypeExpress  = "express"

	EtaExpress  = "1-2 hours"
	EtaStandard = "3-5 hours"
)

// AddressDetails carries the optional structured breakdown of a delivery
// address.
type AddressDetails struct {
	Address  string `json:"address,omitempty"`
	Thana    string `json:"thana,omitempty"`
	District string `json:"district,omitempty"`
}

// DeliveryLocation is the customer-facing drop-off point. Coordinates follow
// the [longitude, latitude] convention of the mobile clients.
type DeliveryLocation struct {
	Coordinates    [2]float64      `json:"coordinates" validate:"required"`
	Address        string          `json:"address" validate:"required"`
	AddressDetails *AddressDetails `json:"addressDetails,omitempty"`
}

func (l DeliveryLocation) Longitude() float64 { return l.Coordinates[0] }
func (l DeliveryLocation) Latitude() float64  { return l.Coordinates[1] }

// Order is the central entity of the delivery engine.
type Order struct {
	ID                   string           `json:"id"`
	CustomerName         string           `json:"customer_name"`
	PhoneNumber          string           `json:"phone_number"`
	VendorID             string           `json:"vendor_id"`
	ProductID            string           `json:"product_id"`
	Quantity             int              `json:"quantity"`
	DeliveryType         string           `json:"delivery_type"`
	SourceMicrohubID     string           `json:"source_microhub_id"`
	DestinationMicrohubID string          `json:"destination_microhub_id"`
	SpecifiedAddress     string           `json:"specified_address"`
	DeliveryLocation     DeliveryLocation `json:"delivery_location"`
	Status               string           `json:"status"`
	AssignedDriverID     *string          `json:"assigned_driver_id,omitempty"`
	PickupOtp            string           `json:"pickup_otp,omitempty"`
	DeliveryOtp          string           `json:"delivery_otp,omitempty"`
	PickupAttempts       int              `json:"-"`
	DeliveryAttempts     int              `json:"-"`
	DistanceKm           *float64         `json:"distance,omitempty"`
	Total                float64          `json:"total"`
	Eta                  string           `json:"eta"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// CreateOrderRequest is the vendor-facing payload for placing an order.
type CreateOrderRequest struct {
	CustomerName          string           `json:"customer_name" validate:"required"`
	PhoneNumber           string           `json:"phone_number" validate:"required"`
	SourceMicrohubID      string           `json:"source_microhub_id" validate:"required"`
	DestinationMicrohubID string           `json:"destination_microhub_id" validate:"required"`
	SpecifiedAddress      string           `json:"specified_address" validate:"required"`
	ProductID             string           `json:"product_id" validate:"required"`
	Quantity              int              `json:"quantity" validate:"required,gt=0"`
	DeliveryType          string           `json:"delivery_type" validate:"required,oneof=standard express"`
	DeliveryLocation      DeliveryLocation `json:"delivery_location" validate:"required"`
}

// OtpRequest carries the code a driver presents at pickup or delivery.
type OtpRequest struct {
	Otp string `json:"otp" validate:"required,len=4"`
}
