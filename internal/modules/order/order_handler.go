package order

import (
	"context"
	"errors"
	"net/http"

	"microhub-delivery/internal/middleware"
	"microhub-delivery/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for orders.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate // For request body validation
}

// NewHandler creates a new order handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the order lifecycle routes on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/orders", h.ListOrders, middleware.RequireRole(models.RoleAdmin, models.RoleVendor, models.RoleDriver))
	g.POST("/orders", h.CreateOrder, middleware.RequireRole(models.RoleVendor))
	g.DELETE("/orders/:orderId", h.DeleteOrder, middleware.RequireRole(models.RoleVendor))
	g.POST("/orders/:orderId/accept", h.AcceptOrder, middleware.RequireRole(models.RoleDriver))
	g.POST("/orders/:orderId/verify-pickup", h.VerifyPickup, middleware.RequireRole(models.RoleDriver))
	g.POST("/orders/:orderId/complete", h.CompleteOrder, middleware.RequireRole(models.RoleDriver))
}

func (h *Handler) CreateOrder(c echo.Context) error {
	caller := middleware.CallerFrom(c)

	var req models.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	created, err := h.svc.CreateOrder(c.Request().Context(), caller, req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Product not found"})
		case errors.Is(err, models.ErrForbidden):
			return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: "Product does not belong to this vendor"})
		case errors.Is(err, models.ErrInsufficientStock):
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Insufficient stock for requested quantity", Code: "insufficient_stock"})
		}
		c.Logger().Error("Handler.CreateOrder: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to create order"})
	}

	return c.JSON(http.StatusCreated, map[string]any{"data": created})
}

func (h *Handler) ListOrders(c echo.Context) error {
	caller := middleware.CallerFrom(c)

	orders, err := h.svc.ListOrders(c.Request().Context(), caller)
	if err != nil {
		c.Logger().Error("Handler.ListOrders: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to fetch orders"})
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	return c.JSON(http.StatusOK, map[string]any{"data": orders})
}

func (h *Handler) DeleteOrder(c echo.Context) error {
	caller := middleware.CallerFrom(c)
	orderID := c.Param("orderId")

	if err := h.svc.DeleteOrder(c.Request().Context(), caller, orderID); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Order not found"})
		case errors.Is(err, models.ErrForbidden):
			return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: "Cannot delete this order"})
		}
		c.Logger().Error("Handler.DeleteOrder: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to delete order"})
	}

	return c.JSON(http.StatusOK, map[string]any{"message": "Order deleted successfully"})
}

func (h *Handler) AcceptOrder(c echo.Context) error {
	caller := middleware.CallerFrom(c)
	orderID := c.Param("orderId")

	accepted, err := h.svc.AcceptOrder(c.Request().Context(), caller, orderID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Order not found"})
		case errors.Is(err, models.ErrOrderStateInvalid):
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Order is not waiting for a driver", Code: "invalid_state"})
		case errors.Is(err, models.ErrOrderStateConflict):
			return c.JSON(http.StatusConflict, models.ErrorResponse{Message: "Order was just taken by another driver", Code: "conflict"})
		}
		c.Logger().Error("Handler.AcceptOrder: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to accept order"})
	}

	return c.JSON(http.StatusOK, map[string]any{"data": accepted})
}

func (h *Handler) VerifyPickup(c echo.Context) error {
	return h.verifyOtp(c, h.svc.VerifyPickup)
}

func (h *Handler) CompleteOrder(c echo.Context) error {
	return h.verifyOtp(c, h.svc.CompleteOrder)
}

// verifyOtp is shared between the pickup and delivery verification endpoints;
// they differ only in which service call consumes the code.
func (h *Handler) verifyOtp(c echo.Context, verify func(ctx context.Context, caller models.Caller, orderID, code string) (*models.Order, error)) error {
	caller := middleware.CallerFrom(c)
	orderID := c.Param("orderId")

	var req models.OtpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	updated, err := verify(c.Request().Context(), caller, orderID, req.Otp)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Order not found"})
		case errors.Is(err, models.ErrForbidden):
			return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: "Order is assigned to another driver"})
		case errors.Is(err, models.ErrOrderStateInvalid):
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Order is not in a valid state for this operation", Code: "invalid_state"})
		case errors.Is(err, models.ErrInvalidOtp):
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid OTP", Code: "invalid_otp"})
		case errors.Is(err, models.ErrOtpLocked):
			return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{Message: "Too many failed OTP attempts", Code: "otp_locked"})
		case errors.Is(err, models.ErrOrderStateConflict):
			return c.JSON(http.StatusConflict, models.ErrorResponse{Message: "Order state changed concurrently", Code: "conflict"})
		}
		c.Logger().Error("Handler.verifyOtp: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to verify OTP"})
	}

	return c.JSON(http.StatusOK, map[string]any{"data": updated})
}
