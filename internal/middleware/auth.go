package middleware

import (
	"net/http"

	"microhub-delivery/internal/models"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// ContextKeyCaller is where RequireRole stashes the resolved models.Caller.
const ContextKeyCaller = "caller"

// Claims are the custom JWT claims issued at login. VendorID/DriverID are
// only present for the matching role.
type Claims struct {
	Role     string `json:"role"`
	VendorID string `json:"vendor_id,omitempty"`
	DriverID string `json:"driver_id,omitempty"`
	jwt.RegisteredClaims
}

// JWT returns the token-verification middleware. It only validates the
// signature and parses claims; role enforcement happens in RequireRole.
func JWT(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
	})
}

// RequireRole rejects requests whose token role is not in allowedRoles and
// places an explicit models.Caller into the context for handlers to pass down.
// Vendor tokens without a vendor id (and driver tokens without a driver id)
// are rejected outright: every core operation needs the concrete identity.
func RequireRole(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Missing or invalid token"})
			}
			claims, ok := token.Claims.(*Claims)
			if !ok || !allowed[claims.Role] {
				return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: "Access denied. Invalid or missing role."})
			}

			caller := models.Caller{Role: claims.Role}
			switch claims.Role {
			case models.RoleVendor:
				if claims.VendorID == "" {
					return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Vendor ID is required for vendor requests."})
				}
				caller.VendorID = claims.VendorID
			case models.RoleDriver:
				if claims.DriverID == "" {
					return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Driver ID is required for driver requests."})
				}
				caller.DriverID = claims.DriverID
			}

			c.Set(ContextKeyCaller, caller)
			return next(c)
		}
	}
}

// CallerFrom fetches the Caller placed by RequireRole.
func CallerFrom(c echo.Context) models.Caller {
	caller, _ := c.Get(ContextKeyCaller).(models.Caller)
	return caller
}
