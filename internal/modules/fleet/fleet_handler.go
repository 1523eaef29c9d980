package fleet

import (
	"errors"
	"net/http"

	"microhub-delivery/internal/middleware"
	"microhub-delivery/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for fleet administration.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate
}

// NewHandler creates a new fleet handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the admin-only fleet routes.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	admin := middleware.RequireRole(models.RoleAdmin)
	g.GET("/drivers", h.ListDrivers, admin)
	g.GET("/drivers/pending", h.ListPendingDrivers, admin)
	g.POST("/drivers/approve/:driverId", h.ApproveDriver, admin)
	g.POST("/drivers/reject/:driverId", h.RejectDriver, admin)
	g.PATCH("/drivers/:driverId/status", h.UpdateDriverStatus, admin)
	g.GET("/fleet/metrics", h.Metrics, admin)
}

func (h *Handler) ListDrivers(c echo.Context) error {
	drivers, err := h.svc.ListDrivers(c.Request().Context())
	if err != nil {
		c.Logger().Error("Handler.ListDrivers: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to fetch drivers"})
	}
	if drivers == nil {
		drivers = []*models.Driver{}
	}
	return c.JSON(http.StatusOK, map[string]any{"data": drivers})
}

func (h *Handler) ListPendingDrivers(c echo.Context) error {
	drivers, err := h.svc.ListPendingDrivers(c.Request().Context())
	if err != nil {
		c.Logger().Error("Handler.ListPendingDrivers: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to fetch pending drivers"})
	}
	if drivers == nil {
		drivers = []*models.Driver{}
	}
	return c.JSON(http.StatusOK, map[string]any{"data": drivers})
}

func (h *Handler) ApproveDriver(c echo.Context) error {
	driver, err := h.svc.ApproveDriver(c.Request().Context(), c.Param("driverId"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Driver not found"})
		}
		c.Logger().Error("Handler.ApproveDriver: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to approve driver"})
	}
	return c.JSON(http.StatusOK, map[string]any{"data": driver})
}

func (h *Handler) RejectDriver(c echo.Context) error {
	driver, err := h.svc.RejectDriver(c.Request().Context(), c.Param("driverId"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Driver not found"})
		}
		c.Logger().Error("Handler.RejectDriver: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to reject driver"})
	}
	return c.JSON(http.StatusOK, map[string]any{"data": driver})
}

func (h *Handler) UpdateDriverStatus(c echo.Context) error {
	var req models.DriverStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid status"})
	}

	driver, err := h.svc.UpdateDriverStatus(c.Request().Context(), c.Param("driverId"), req)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Driver not found"})
		}
		c.Logger().Error("Handler.UpdateDriverStatus: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to update driver status"})
	}
	return c.JSON(http.StatusOK, map[string]any{"data": driver})
}

func (h *Handler) Metrics(c echo.Context) error {
	metrics, err := h.svc.Metrics(c.Request().Context())
	if err != nil {
		c.Logger().Error("Handler.Metrics: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to fetch fleet metrics"})
	}
	return c.JSON(http.StatusOK, metrics)
}
