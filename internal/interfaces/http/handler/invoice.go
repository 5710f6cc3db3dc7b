package handler

import (
	"strings"
	"time"

	billingapp "github.com/gescom/backend/internal/application/billing"
	"github.com/gescom/backend/internal/domain/billing"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/interfaces/http/dto"
	"github.com/gescom/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceHandler handles invoice and payment API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *billingapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *billingapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// RegisterRoutes registers invoice routes on the given group
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.GET("", h.List)
		invoices.GET("/:id", h.GetByID)
		// wildcard because invoice numbers contain a slash, F2026/00001
		invoices.GET("/number/*number", h.GetByNumber)
		invoices.GET("/:id/payments", h.ListPayments)

		invoices.POST("", middleware.RequireWrite(), h.Create)
		invoices.PUT("/:id", middleware.RequireWrite(), h.Update)
		invoices.POST("/:id/send", middleware.RequireWrite(), h.Send)
		invoices.POST("/:id/cancel", middleware.RequireWrite(), h.Cancel)
		invoices.DELETE("/:id", middleware.RequireWrite(), h.Delete)
		invoices.POST("/:id/payments", middleware.RequireWrite(), h.RecordPayment)
	}

	payments := rg.Group("/payments")
	{
		payments.GET("", h.ListAllPayments)
	}
}

// InvoiceLineRequest is one line of an invoice create/update request
type InvoiceLineRequest struct {
	ProductID string   `json:"product_id" binding:"required,uuid"`
	Quantity  int64    `json:"quantity" binding:"required,gt=0"`
	UnitPrice *float64 `json:"unit_price" binding:"omitempty,gte=0"`
}

// CreateInvoiceRequest represents a request to create an invoice
type CreateInvoiceRequest struct {
	CustomerID string               `json:"customer_id" binding:"required,uuid"`
	Lines      []InvoiceLineRequest `json:"lines" binding:"required,min=1,dive"`
	DueDate    *time.Time           `json:"due_date"`
	Notes      string               `json:"notes" binding:"max=2000"`
}

// UpdateInvoiceRequest represents a request to replace a draft invoice's lines
type UpdateInvoiceRequest struct {
	Lines           []InvoiceLineRequest `json:"lines" binding:"required,min=1,dive"`
	ExpectedVersion int                  `json:"expected_version" binding:"required,min=1"`
}

// CancelInvoiceRequest represents a request to cancel an invoice
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// RecordPaymentRequest represents a request to record a payment
type RecordPaymentRequest struct {
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Method    string  `json:"method" binding:"required,oneof=cash check bank_transfer card"`
	Reference string  `json:"reference" binding:"max=100"`
}

// ListInvoicesRequest represents invoice listing query parameters
type ListInvoicesRequest struct {
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	CustomerID    string `form:"customer_id" binding:"omitempty,uuid"`
	Status        string `form:"status" binding:"omitempty,oneof=draft sent paid cancelled"`
	PaymentStatus string `form:"payment_status" binding:"omitempty,oneof=pending partial paid overdue"`
	Search        string `form:"search"`
	DateFrom      string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo        string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
}

func toLineInputs(lines []InvoiceLineRequest) []billingapp.InvoiceLineInput {
	inputs := make([]billingapp.InvoiceLineInput, len(lines))
	for i, line := range lines {
		inputs[i] = billingapp.InvoiceLineInput{
			ProductID: uuid.MustParse(line.ProductID),
			Quantity:  line.Quantity,
		}
		if line.UnitPrice != nil {
			price := decimal.NewFromFloat(*line.UnitPrice)
			inputs[i].UnitPrice = &price
		}
	}
	return inputs
}

// Create creates a new draft invoice
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), billingapp.CreateInvoiceRequest{
		CustomerID: uuid.MustParse(req.CustomerID),
		Lines:      toLineInputs(req.Lines),
		DueDate:    req.DueDate,
		Notes:      req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, invoice)
}

// GetByID retrieves an invoice by ID
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// GetByNumber retrieves an invoice by its business number
func (h *InvoiceHandler) GetByNumber(c *gin.Context) {
	number := strings.TrimPrefix(c.Param("number"), "/")
	if number == "" {
		h.BadRequest(c, "Invoice number is required")
		return
	}

	invoice, err := h.invoiceService.GetInvoiceByNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// List retrieves a paginated invoice list
func (h *InvoiceHandler) List(c *gin.Context) {
	req := ListInvoicesRequest{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	query := billingapp.ListInvoicesQuery{
		Page:     req.Page,
		PageSize: req.PageSize,
		Search:   req.Search,
	}
	if req.CustomerID != "" {
		id := uuid.MustParse(req.CustomerID)
		query.CustomerID = &id
	}
	if req.Status != "" {
		status := billing.InvoiceStatus(req.Status)
		query.Status = &status
	}
	if req.PaymentStatus != "" {
		status := billing.PaymentStatus(req.PaymentStatus)
		query.PaymentStatus = &status
	}
	if req.DateFrom != "" {
		from, _ := time.Parse("2006-01-02", req.DateFrom)
		query.DateFrom = &from
	}
	if req.DateTo != "" {
		to, _ := time.Parse("2006-01-02", req.DateTo)
		query.DateTo = &to
	}

	page, err := h.invoiceService.ListInvoices(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Update replaces a draft invoice's lines
func (h *InvoiceHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), billingapp.UpdateInvoiceRequest{
		InvoiceID:       id,
		Lines:           toLineInputs(req.Lines),
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Send finalizes a draft invoice and assigns its invoice number
func (h *InvoiceHandler) Send(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	invoice, err := h.invoiceService.SendInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Cancel cancels an invoice
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req CancelInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.CancelInvoice(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Delete removes a draft invoice
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RecordPayment records a payment against an invoice
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.invoiceService.RecordPayment(c.Request.Context(), billingapp.RecordPaymentRequest{
		InvoiceID: id,
		Amount:    decimal.NewFromFloat(req.Amount),
		Method:    billing.PaymentMethod(req.Method),
		Reference: req.Reference,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ListPayments lists the payments recorded against an invoice
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	payments, err := h.invoiceService.ListInvoicePayments(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payments)
}

// ListAllPayments lists payments across all invoices
func (h *InvoiceHandler) ListAllPayments(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.invoiceService.ListPayments(c.Request.Context(), shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
