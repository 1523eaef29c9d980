package models

// Roles recognised by the API. The JWT middleware resolves a request's bearer
// token into exactly one of these before any handler runs.
const (
	RoleAdmin  = "admin"
	RoleVendor = "vendor"
	RoleDriver = "driver"
)

// Caller identifies the authenticated principal behind a request. It is built
// once by the auth middleware and passed explicitly into every service method;
// services never reach back into the request context for identity.
type Caller struct {
	Role     string
	VendorID string // set when Role == RoleVendor
	DriverID string // set when Role == RoleDriver
}

func (c Caller) IsAdmin() bool  { return c.Role == RoleAdmin }
func (c Caller) IsVendor() bool { return c.Role == RoleVendor }
func (c Caller) IsDriver() bool { return c.Role == RoleDriver }
