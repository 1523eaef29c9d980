package models

import "errors"

var ErrNotFound = errors.New("requested resource not found")
var ErrForbidden = errors.New("user does not have permission to access this resource")
var ErrInvalidCredentials = errors.New("invalid credentials") // email or password provided does not match database record

// ErrInsufficientStock indicates the requested quantity exceeds the product's
// remaining stock. The conditional decrement at the storage layer guarantees
// stock never goes below zero.
var ErrInsufficientStock = errors.New("insufficient stock for requested quantity")

// ErrInsufficientCapacity indicates a shelf reservation would push a microhub's
// utilization past its capacity.
var ErrInsufficientCapacity = errors.New("insufficient capacity in the selected microhub")

var ErrMicrohubInactive = errors.New("microhub is not active")

// ErrOrderStateInvalid is returned when an operation is requested against an
// order whose current status does not allow it (e.g. accepting a non-Waiting
// order, or presenting a delivery OTP while still in Pickup).
var ErrOrderStateInvalid = errors.New("order is not in a valid state for this operation")

// ErrOrderStateConflict is returned when a conditional status transition
// affected zero rows: the status read during the precondition check moved
// underneath us before the write. Maps to 409.
var ErrOrderStateConflict = errors.New("order state changed concurrently")

var ErrInvalidOtp = errors.New("invalid OTP")

// ErrOtpLocked is returned once an order's per-stage attempt counter reaches
// the lockout threshold.
var ErrOtpLocked = errors.New("too many failed OTP attempts")

var ErrBookingNotActive = errors.New("cannot cancel non-active booking")
var ErrBookingDatesInvalid = errors.New("invalid booking dates")
var ErrShelfSizeInvalid = errors.New("unknown shelf size")

var ErrSKUTaken = errors.New("a product with this SKU already exists")

// CapacityError carries the numbers behind an insufficient-capacity
// rejection so the response body can report them.
type CapacityError struct {
	Available int
	Required  int
}

func (e *CapacityError) Error() string { return ErrInsufficientCapacity.Error() }
func (e *CapacityError) Unwrap() error { return ErrInsufficientCapacity }

// ErrorResponse is the uniform JSON error body. Code is an additive
// machine-readable discriminator; clients keying off Message keep working.
type ErrorResponse struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Available *int   `json:"available,omitempty"`
	Required  *int   `json:"required,omitempty"`
}
