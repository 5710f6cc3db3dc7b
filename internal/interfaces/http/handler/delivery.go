package handler

import (
	"context"
	"strings"
	"time"

	shippingapp "github.com/gescom/backend/internal/application/shipping"
	"github.com/gescom/backend/internal/domain/shipping"
	"github.com/gescom/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DeliveryHandler handles delivery note API endpoints
type DeliveryHandler struct {
	BaseHandler
	deliveryService *shippingapp.DeliveryService
}

// NewDeliveryHandler creates a new DeliveryHandler
func NewDeliveryHandler(deliveryService *shippingapp.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{deliveryService: deliveryService}
}

// RegisterRoutes registers delivery routes on the given group
func (h *DeliveryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	deliveries := rg.Group("/deliveries")
	{
		deliveries.GET("", h.List)
		deliveries.GET("/:id", h.GetByID)

		// public, no authentication; see the JWT middleware skip prefixes.
		// Wildcard because delivery numbers contain a slash, BL2026/00030.
		deliveries.GET("/track/*number", h.Track)

		deliveries.POST("", middleware.RequireWrite(), h.Create)
		deliveries.POST("/:id/transit", middleware.RequireWrite(), h.StartTransit)
		deliveries.POST("/:id/delivered", middleware.RequireWrite(), h.MarkDelivered)
		deliveries.POST("/:id/cancel", middleware.RequireWrite(), h.Cancel)
		deliveries.POST("/:id/driver", middleware.RequireWrite(), h.AssignDriver)
	}
}

// CreateDeliveryRequest represents a request to create a delivery note
type CreateDeliveryRequest struct {
	CustomerID    string     `json:"customer_id" binding:"required,uuid"`
	InvoiceID     string     `json:"invoice_id" binding:"omitempty,uuid"`
	Address       string     `json:"address" binding:"max=500"`
	Wilaya        string     `json:"wilaya" binding:"max=100"`
	Phone         string     `json:"phone" binding:"max=50"`
	DriverName    string     `json:"driver_name" binding:"max=100"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	Notes         string     `json:"notes" binding:"max=2000"`
}

// DeliveryTransitionRequest carries an optional note for a status change
type DeliveryTransitionRequest struct {
	Note string `json:"note" binding:"max=500"`
}

// CancelDeliveryRequest represents a request to cancel a delivery
type CancelDeliveryRequest struct {
	Note string `json:"note" binding:"required,min=1,max=500"`
}

// AssignDriverRequest represents a driver assignment request
type AssignDriverRequest struct {
	DriverName string `json:"driver_name" binding:"required,min=1,max=100"`
}

// ListDeliveriesRequest represents delivery listing query parameters
type ListDeliveriesRequest struct {
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search     string `form:"search"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=pending in_transit delivered cancelled"`
	Wilaya     string `form:"wilaya"`
}

// Create creates a new delivery note
func (h *DeliveryHandler) Create(c *gin.Context) {
	var req CreateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := shippingapp.CreateDeliveryRequest{
		CustomerID:    uuid.MustParse(req.CustomerID),
		Address:       req.Address,
		Wilaya:        req.Wilaya,
		Phone:         req.Phone,
		DriverName:    req.DriverName,
		ScheduledDate: req.ScheduledDate,
		Notes:         req.Notes,
	}
	if req.InvoiceID != "" {
		invoiceID := uuid.MustParse(req.InvoiceID)
		appReq.InvoiceID = &invoiceID
	}

	delivery, err := h.deliveryService.CreateDelivery(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, delivery)
}

// GetByID retrieves a delivery by ID
func (h *DeliveryHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid delivery ID format")
		return
	}

	delivery, err := h.deliveryService.GetDelivery(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, delivery)
}

// Track resolves a delivery number to its public tracking view
func (h *DeliveryHandler) Track(c *gin.Context) {
	number := strings.TrimPrefix(c.Param("number"), "/")
	if number == "" {
		h.BadRequest(c, "Delivery number is required")
		return
	}

	tracking, err := h.deliveryService.TrackDelivery(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tracking)
}

// List retrieves a paginated delivery list
func (h *DeliveryHandler) List(c *gin.Context) {
	req := ListDeliveriesRequest{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	query := shippingapp.ListDeliveriesQuery{
		Page:     req.Page,
		PageSize: req.PageSize,
		Search:   req.Search,
		Wilaya:   req.Wilaya,
	}
	if req.CustomerID != "" {
		id := uuid.MustParse(req.CustomerID)
		query.CustomerID = &id
	}
	if req.Status != "" {
		status := shipping.DeliveryStatus(req.Status)
		query.Status = &status
	}

	page, err := h.deliveryService.ListDeliveries(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// StartTransit moves a delivery into transit
func (h *DeliveryHandler) StartTransit(c *gin.Context) {
	h.transition(c, h.deliveryService.StartTransit)
}

// MarkDelivered marks a delivery as delivered
func (h *DeliveryHandler) MarkDelivered(c *gin.Context) {
	h.transition(c, h.deliveryService.MarkDelivered)
}

func (h *DeliveryHandler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID, note string) (*shippingapp.DeliveryResult, error)) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid delivery ID format")
		return
	}

	var req DeliveryTransitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	delivery, err := fn(c.Request.Context(), id, req.Note)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, delivery)
}

// Cancel cancels a delivery with a mandatory note
func (h *DeliveryHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid delivery ID format")
		return
	}

	var req CancelDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	delivery, err := h.deliveryService.CancelDelivery(c.Request.Context(), id, req.Note)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, delivery)
}

// AssignDriver assigns a driver to a delivery
func (h *DeliveryHandler) AssignDriver(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid delivery ID format")
		return
	}

	var req AssignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	delivery, err := h.deliveryService.AssignDriver(c.Request.Context(), id, req.DriverName)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, delivery)
}
