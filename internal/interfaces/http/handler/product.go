package handler

import (
	"time"

	catalogapp "github.com/gescom/backend/internal/application/catalog"
	"github.com/gescom/backend/internal/domain/catalog"
	"github.com/gescom/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductHandler handles product API endpoints
type ProductHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *catalogapp.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// RegisterRoutes registers product routes on the given group
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	{
		products.GET("", h.List)
		products.GET("/:id", h.GetByID)
		products.GET("/sku/:sku", h.GetBySKU)
		products.GET("/barcode/:barcode", h.GetByBarcode)
		products.GET("/expiring", h.ListExpiring)

		products.POST("", middleware.RequireWrite(), h.Create)
		products.PUT("/:id", middleware.RequireWrite(), h.Update)
		products.POST("/:id/stock", middleware.RequireWrite(), h.AdjustStock)
		products.POST("/:id/activate", middleware.RequireWrite(), h.Activate)
		products.POST("/:id/deactivate", middleware.RequireWrite(), h.Deactivate)
		products.DELETE("/:id", middleware.RequireManage(), h.Delete)
	}
}

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	SKU           string     `json:"sku" binding:"required,min=1,max=50"`
	Name          string     `json:"name" binding:"required,min=1,max=200"`
	Description   string     `json:"description" binding:"max=2000"`
	Category      string     `json:"category" binding:"max=100"`
	Barcode       string     `json:"barcode" binding:"max=50"`
	Unit          string     `json:"unit" binding:"max=20"`
	CostPrice     *float64   `json:"cost_price" binding:"omitempty,gte=0"`
	SalePrice     float64    `json:"sale_price" binding:"required,gt=0"`
	InitialStock  int64      `json:"initial_stock" binding:"omitempty,gte=0"`
	MinStockLevel int64      `json:"min_stock_level" binding:"omitempty,gte=0"`
	ExpiryDate    *time.Time `json:"expiry_date"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name          string     `json:"name" binding:"required,min=1,max=200"`
	Description   string     `json:"description" binding:"max=2000"`
	Category      string     `json:"category" binding:"max=100"`
	Barcode       string     `json:"barcode" binding:"max=50"`
	Unit          string     `json:"unit" binding:"max=20"`
	CostPrice     *float64   `json:"cost_price" binding:"omitempty,gte=0"`
	SalePrice     *float64   `json:"sale_price" binding:"omitempty,gt=0"`
	MinStockLevel *int64     `json:"min_stock_level" binding:"omitempty,gte=0"`
	ExpiryDate    *time.Time `json:"expiry_date"`
}

// AdjustStockRequest represents a stock movement request
type AdjustStockRequest struct {
	Delta int64 `json:"delta" binding:"required"`
}

// ListProductsRequest represents product listing query parameters
type ListProductsRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
	Category string `form:"category"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive"`
	LowStock bool   `form:"low_stock"`
}

// Create creates a new product
func (h *ProductHandler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := catalogapp.CreateProductRequest{
		SKU:           req.SKU,
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Barcode:       req.Barcode,
		Unit:          req.Unit,
		SalePrice:     decimal.NewFromFloat(req.SalePrice),
		InitialStock:  req.InitialStock,
		MinStockLevel: req.MinStockLevel,
		ExpiryDate:    req.ExpiryDate,
	}
	if req.CostPrice != nil {
		cost := decimal.NewFromFloat(*req.CostPrice)
		appReq.CostPrice = &cost
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, product)
}

// GetByID retrieves a product by ID
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// GetBySKU retrieves a product by its SKU
func (h *ProductHandler) GetBySKU(c *gin.Context) {
	sku := c.Param("sku")
	if sku == "" {
		h.BadRequest(c, "Product SKU is required")
		return
	}

	product, err := h.productService.GetProductBySKU(c.Request.Context(), sku)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// GetByBarcode handles GET /products/barcode/:barcode
func (h *ProductHandler) GetByBarcode(c *gin.Context) {
	barcode := c.Param("barcode")
	if barcode == "" {
		h.BadRequest(c, "Product barcode is required")
		return
	}

	product, err := h.productService.GetProductByBarcode(c.Request.Context(), barcode)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// ListExpiringRequest represents expiring-product query parameters
type ListExpiringRequest struct {
	Days int `form:"days" binding:"omitempty,min=1,max=365"`
}

// ListExpiring lists products expiring within the requested window,
// 30 days when none is given
func (h *ProductHandler) ListExpiring(c *gin.Context) {
	var req ListExpiringRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	products, err := h.productService.ListExpiringProducts(c.Request.Context(), req.Days)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, products)
}

// List retrieves a paginated product list
func (h *ProductHandler) List(c *gin.Context) {
	req := ListProductsRequest{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	query := catalogapp.ListProductsQuery{
		Page:     req.Page,
		PageSize: req.PageSize,
		Search:   req.Search,
		Category: req.Category,
		LowStock: req.LowStock,
	}
	if req.Status != "" {
		status := catalog.ProductStatus(req.Status)
		query.Status = &status
	}

	page, err := h.productService.ListProducts(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Update updates a product's details
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := catalogapp.UpdateProductRequest{
		ProductID:     id,
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Barcode:       req.Barcode,
		Unit:          req.Unit,
		MinStockLevel: req.MinStockLevel,
		ExpiryDate:    req.ExpiryDate,
	}
	if req.CostPrice != nil {
		cost := decimal.NewFromFloat(*req.CostPrice)
		appReq.CostPrice = &cost
	}
	if req.SalePrice != nil {
		price := decimal.NewFromFloat(*req.SalePrice)
		appReq.SalePrice = &price
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// AdjustStock applies a stock movement to a product
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product, err := h.productService.AdjustStock(c.Request.Context(), catalogapp.AdjustStockRequest{
		ProductID: id,
		Delta:     req.Delta,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Activate reactivates a product
func (h *ProductHandler) Activate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	product, err := h.productService.ActivateProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Deactivate deactivates a product
func (h *ProductHandler) Deactivate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	product, err := h.productService.DeactivateProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Delete removes a product
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
