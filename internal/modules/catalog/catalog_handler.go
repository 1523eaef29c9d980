package catalog

import (
	"errors"
	"net/http"

	"microhub-delivery/internal/middleware"
	"microhub-delivery/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for the product and microhub catalog.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate
}

// NewHandler creates a new catalog handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts catalog routes. Microhub listing is open to every
// role (vendors pick hubs when booking shelves, drivers when routing);
// microhub mutation is admin-only.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/products", h.ListProducts, middleware.RequireRole(models.RoleVendor))
	g.POST("/products", h.CreateProduct, middleware.RequireRole(models.RoleVendor))
	g.PUT("/products/:productId", h.UpdateProduct, middleware.RequireRole(models.RoleVendor))
	g.DELETE("/products/:productId", h.DeleteProduct, middleware.RequireRole(models.RoleVendor))

	g.GET("/microhubs", h.ListMicrohubs, middleware.RequireRole(models.RoleAdmin, models.RoleVendor, models.RoleDriver))
	g.POST("/microhubs", h.CreateMicrohub, middleware.RequireRole(models.RoleAdmin))
	g.PUT("/microhubs/:microhubId", h.UpdateMicrohub, middleware.RequireRole(models.RoleAdmin))
	g.DELETE("/microhubs/:microhubId", h.DeleteMicrohub, middleware.RequireRole(models.RoleAdmin))
}

func (h *Handler) ListProducts(c echo.Context) error {
	caller := middleware.CallerFrom(c)

	products, err := h.svc.ListProducts(c.Request().Context(), caller)
	if err != nil {
		c.Logger().Error("Handler.ListProducts: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to fetch products"})
	}
	if products == nil {
		products = []*models.Product{}
	}
	return c.JSON(http.StatusOK, map[string]any{"data": products})
}

func (h *Handler) CreateProduct(c echo.Context) error {
	caller := middleware.CallerFrom(c)

	var req models.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	created, err := h.svc.CreateProduct(c.Request().Context(), caller, req)
	if err != nil {
		if errors.Is(err, models.ErrSKUTaken) {
			return c.JSON(http.StatusConflict, models.ErrorResponse{Message: "A product with this SKU already exists", Code: "sku_taken"})
		}
		c.Logger().Error("Handler.CreateProduct: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to create product"})
	}
	return c.JSON(http.StatusCreated, map[string]any{"data": created})
}

func (h *Handler) UpdateProduct(c echo.Context) error {
	caller := middleware.CallerFrom(c)
	productID := c.Param("productId")

	var req models.UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	updated, err := h.svc.UpdateProduct(c.Request().Context(), caller, productID, req)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Product not found"})
		}
		c.Logger().Error("Handler.UpdateProduct: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to update product"})
	}
	return c.JSON(http.StatusOK, map[string]any{"data": updated})
}

func (h *Handler) DeleteProduct(c echo.Context) error {
	caller := middleware.CallerFrom(c)
	productID := c.Param("productId")

	if err := h.svc.DeleteProduct(c.Request().Context(), caller, productID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Product not found"})
		}
		c.Logger().Error("Handler.DeleteProduct: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to delete product"})
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Product deleted successfully"})
}

func (h *Handler) ListMicrohubs(c echo.Context) error {
	hubs, err := h.svc.ListMicrohubs(c.Request().Context())
	if err != nil {
		c.Logger().Error("Handler.ListMicrohubs: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to fetch microhubs"})
	}
	if hubs == nil {
		hubs = []*models.Microhub{}
	}
	return c.JSON(http.StatusOK, map[string]any{"data": hubs})
}

func (h *Handler) CreateMicrohub(c echo.Context) error {
	var req models.CreateMicrohubRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	created, err := h.svc.CreateMicrohub(c.Request().Context(), req)
	if err != nil {
		c.Logger().Error("Handler.CreateMicrohub: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to create microhub"})
	}
	return c.JSON(http.StatusCreated, map[string]any{"data": created})
}

func (h *Handler) UpdateMicrohub(c echo.Context) error {
	microhubID := c.Param("microhubId")

	var req models.UpdateMicrohubRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	updated, err := h.svc.UpdateMicrohub(c.Request().Context(), microhubID, req)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Microhub not found"})
		}
		c.Logger().Error("Handler.UpdateMicrohub: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to update microhub"})
	}
	return c.JSON(http.StatusOK, map[string]any{"data": updated})
}

func (h *Handler) DeleteMicrohub(c echo.Context) error {
	microhubID := c.Param("microhubId")

	if err := h.svc.DeleteMicrohub(c.Request().Context(), microhubID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Microhub not found"})
		}
		c.Logger().Error("Handler.DeleteMicrohub: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to delete microhub"})
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Microhub deleted successfully"})
}
