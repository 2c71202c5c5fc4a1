package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/models"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/repository"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/services"
)

type ProductsHandler struct {
	service *services.ProductService
}

func NewProductsHandler(service *services.ProductService) *ProductsHandler {
	return &ProductsHandler{service: service}
}

// CreateProduct creates a new product
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), tenantID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.ProductResponse{
		Success: true,
		Data:    product,
	})
}

// GetProduct retrieves a single product with variants
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	product, err := h.service.GetProduct(c.Request.Context(), tenantID, productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    product,
	})
}

// ListProducts lists products with filters and pagination
func (h *ProductsHandler) ListProducts(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	query := &repository.ListProductsQuery{
		Page:  page,
		Limit: limit,
	}
	if status := c.Query("status"); status != "" {
		s := models.ProductStatus(status)
		query.Status = &s
	}
	if hv := c.Query("hasVariants"); hv != "" {
		val := hv == "true"
		query.HasVariants = &val
	}
	if search := c.Query("search"); search != "" {
		query.Search = &search
	}

	products, total, err := h.service.ListProducts(c.Request.Context(), tenantID, query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ProductListResponse{
		Success:    true,
		Data:       products,
		Pagination: buildPagination(query.Page, query.Limit, total),
	})
}

// UpdateProduct applies an admin edit as a full-document save
func (h *ProductsHandler) UpdateProduct(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	product, err := h.service.UpdateProduct(c.Request.Context(), tenantID, productID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    product,
	})
}

// DeleteProduct archives (soft deletes) a product
func (h *ProductsHandler) DeleteProduct(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	if err := h.service.ArchiveProduct(c.Request.Context(), tenantID, productID); err != nil {
		respondServiceError(c, err)
		return
	}

	message := "Product archived"
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: &message,
	})
}

// ListVariants lists the variants of one product
func (h *ProductsHandler) ListVariants(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	variants, err := h.service.ListVariants(c.Request.Context(), tenantID, productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ProductVariantListResponse{
		Success: true,
		Data:    variants,
	})
}

// AdjustVariantStockRequest is the payload for a narrow stock adjustment.
type AdjustVariantStockRequest struct {
	Delta  int     `json:"delta" binding:"required"`
	Reason *string `json:"reason,omitempty"`
}

// AdjustVariantStock applies a delta to one variant's stock without a full
// save. Order placement uses this path.
func (h *ProductsHandler) AdjustVariantStock(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	variantID, err := uuid.Parse(c.Param("variantId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid variant ID format",
				Field:   "variantId",
			},
		})
		return
	}

	var req AdjustVariantStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	if err := h.service.AdjustVariantStock(c.Request.Context(), tenantID, productID, variantID, req.Delta); err != nil {
		respondServiceError(c, err)
		return
	}

	message := "Variant stock adjusted"
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: &message,
	})
}

func parseProductID(c *gin.Context) (uuid.UUID, bool) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid product ID format",
				Field:   "id",
			},
		})
		return uuid.Nil, false
	}
	return productID, true
}

func buildPagination(page, limit int, total int64) *models.PaginationInfo {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &models.PaginationInfo{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

// respondServiceError maps service errors onto the response envelope.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Product not found",
			},
		})
	case errors.Is(err, services.ErrVersionConflict):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VERSION_CONFLICT",
				Message: err.Error(),
			},
		})
	case errors.Is(err, services.ErrDuplicateSKU):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DUPLICATE_SKU",
				Message: err.Error(),
			},
		})
	case errors.Is(err, services.ErrDuplicateRequest):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DUPLICATE_REQUEST",
				Message: err.Error(),
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "An unexpected error occurred",
			},
		})
	}
}
