package shelfbooking

import (
	"errors"
	"net/http"

	"microhub-delivery/internal/middleware"
	"microhub-delivery/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for shelf bookings.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate
}

// NewHandler creates a new shelf booking handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the shelf booking routes on the given group. The
// expiry sweep is open to any authenticated role so an external scheduler can
// drive it with a plain service token.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/shelf-bookings", h.ListBookings, middleware.RequireRole(models.RoleVendor))
	g.POST("/shelf-bookings", h.CreateBooking, middleware.RequireRole(models.RoleVendor))
	g.DELETE("/shelf-bookings/:bookingId", h.CancelBooking, middleware.RequireRole(models.RoleVendor))
	g.GET("/shelf-bookings/stats", h.Stats, middleware.RequireRole(models.RoleVendor))
	g.POST("/shelf-bookings/update-expired", h.UpdateExpired,
		middleware.RequireRole(models.RoleAdmin, models.RoleVendor, models.RoleDriver))
}

func (h *Handler) ListBookings(c echo.Context) error {
	caller := middleware.CallerFrom(c)

	bookings, err := h.svc.ListBookings(c.Request().Context(), caller)
	if err != nil {
		c.Logger().Error("Handler.ListBookings: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to fetch shelf bookings"})
	}
	if bookings == nil {
		bookings = []*models.ShelfBooking{}
	}
	return c.JSON(http.StatusOK, map[string]any{"data": bookings})
}

func (h *Handler) CreateBooking(c echo.Context) error {
	caller := middleware.CallerFrom(c)

	var req models.CreateShelfBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	created, err := h.svc.CreateBooking(c.Request().Context(), caller, req)
	if err != nil {
		var capErr *models.CapacityError
		switch {
		case errors.As(err, &capErr):
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Message:   "Insufficient capacity in the selected microhub",
				Code:      "insufficient_capacity",
				Available: &capErr.Available,
				Required:  &capErr.Required,
			})
		case errors.Is(err, models.ErrNotFound):
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Microhub not found"})
		case errors.Is(err, models.ErrMicrohubInactive):
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Microhub is not active"})
		case errors.Is(err, models.ErrBookingDatesInvalid):
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: err.Error()})
		case errors.Is(err, models.ErrShelfSizeInvalid):
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Unknown shelf size"})
		}
		c.Logger().Error("Handler.CreateBooking: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to create shelf booking"})
	}

	return c.JSON(http.StatusCreated, map[string]any{"data": created})
}

func (h *Handler) CancelBooking(c echo.Context) error {
	caller := middleware.CallerFrom(c)
	bookingID := c.Param("bookingId")

	if err := h.svc.CancelBooking(c.Request().Context(), caller, bookingID); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Shelf booking not found"})
		case errors.Is(err, models.ErrBookingNotActive):
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Cannot cancel non-active booking"})
		}
		c.Logger().Error("Handler.CancelBooking: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to cancel shelf booking"})
	}

	return c.JSON(http.StatusOK, map[string]any{"message": "Shelf booking cancelled successfully"})
}

func (h *Handler) Stats(c echo.Context) error {
	caller := middleware.CallerFrom(c)

	stats, err := h.svc.Stats(c.Request().Context(), caller)
	if err != nil {
		c.Logger().Error("Handler.Stats: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to fetch booking statistics"})
	}
	return c.JSON(http.StatusOK, map[string]any{"data": stats})
}

func (h *Handler) UpdateExpired(c echo.Context) error {
	processed, err := h.svc.UpdateExpired(c.Request().Context())
	if err != nil {
		c.Logger().Error("Handler.UpdateExpired: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to update expired bookings"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message":   "Expired bookings updated successfully",
		"processed": processed,
	})
}
