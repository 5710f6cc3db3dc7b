package handler

import (
	partnerapp "github.com/gescom/backend/internal/application/partner"
	"github.com/gescom/backend/internal/domain/partner"
	"github.com/gescom/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CustomerHandler handles customer API endpoints
type CustomerHandler struct {
	BaseHandler
	customerService *partnerapp.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *partnerapp.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// RegisterRoutes registers customer routes on the given group
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	customers := rg.Group("/customers")
	{
		customers.GET("", h.List)
		customers.GET("/:id", h.GetByID)
		customers.GET("/:id/debt", h.GetDebt)
		customers.GET("/debts", h.ListDebts)

		customers.POST("", middleware.RequireWrite(), h.Create)
		customers.PUT("/:id", middleware.RequireWrite(), h.Update)
		customers.POST("/:id/activate", middleware.RequireWrite(), h.Activate)
		customers.POST("/:id/deactivate", middleware.RequireWrite(), h.Deactivate)
		customers.POST("/:id/loyalty/add", middleware.RequireWrite(), h.AddPoints)
		customers.POST("/:id/loyalty/redeem", middleware.RequireWrite(), h.RedeemPoints)
		customers.DELETE("/:id", middleware.RequireManage(), h.Delete)
	}
}

// CreateCustomerRequest represents a request to create a customer
type CreateCustomerRequest struct {
	Code        string   `json:"code" binding:"required,min=1,max=50"`
	Name        string   `json:"name" binding:"required,min=1,max=200"`
	Type        string   `json:"type" binding:"required,oneof=individual company"`
	ContactName string   `json:"contact_name" binding:"max=100"`
	Phone       string   `json:"phone" binding:"max=50"`
	Email       string   `json:"email" binding:"omitempty,email,max=200"`
	Address     string   `json:"address" binding:"max=500"`
	Wilaya      string   `json:"wilaya" binding:"max=100"`
	Daira       string   `json:"daira" binding:"max=100"`
	Commune     string   `json:"commune" binding:"max=100"`
	NIF         string   `json:"nif" binding:"omitempty,nif"`
	NIS         string   `json:"nis" binding:"max=20"`
	RC          string   `json:"rc" binding:"max=30"`
	CreditLimit *float64 `json:"credit_limit" binding:"omitempty,gte=0"`
	Notes       string   `json:"notes" binding:"max=2000"`
}

// UpdateCustomerRequest represents a request to update a customer
type UpdateCustomerRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=200"`
	Type        string   `json:"type" binding:"required,oneof=individual company"`
	ContactName string   `json:"contact_name" binding:"max=100"`
	Phone       string   `json:"phone" binding:"max=50"`
	Email       string   `json:"email" binding:"omitempty,email,max=200"`
	Address     string   `json:"address" binding:"max=500"`
	Wilaya      string   `json:"wilaya" binding:"max=100"`
	Daira       string   `json:"daira" binding:"max=100"`
	Commune     string   `json:"commune" binding:"max=100"`
	NIF         string   `json:"nif" binding:"omitempty,nif"`
	NIS         string   `json:"nis" binding:"max=20"`
	RC          string   `json:"rc" binding:"max=30"`
	CreditLimit *float64 `json:"credit_limit" binding:"omitempty,gte=0"`
	Notes       *string  `json:"notes" binding:"omitempty,max=2000"`
}

// LoyaltyPointsRequest carries a loyalty point amount to add or redeem
type LoyaltyPointsRequest struct {
	Points int64 `json:"points" binding:"required,gt=0"`
}

// ListCustomersRequest represents customer listing query parameters
type ListCustomersRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
	Type     string `form:"type" binding:"omitempty,oneof=individual company"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive"`
	Wilaya   string `form:"wilaya"`
}

// Create creates a new customer
func (h *CustomerHandler) Create(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := partnerapp.CreateCustomerRequest{
		Code:        req.Code,
		Name:        req.Name,
		Type:        partner.CustomerType(req.Type),
		ContactName: req.ContactName,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
		Wilaya:      req.Wilaya,
		Daira:       req.Daira,
		Commune:     req.Commune,
		NIF:         req.NIF,
		NIS:         req.NIS,
		RC:          req.RC,
		Notes:       req.Notes,
	}
	if req.CreditLimit != nil {
		limit := decimal.NewFromFloat(*req.CreditLimit)
		appReq.CreditLimit = &limit
	}

	customer, err := h.customerService.CreateCustomer(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, customer)
}

// GetByID retrieves a customer by ID
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	customer, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, customer)
}

// List retrieves a paginated customer list
func (h *CustomerHandler) List(c *gin.Context) {
	req := ListCustomersRequest{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	query := partnerapp.ListCustomersQuery{
		Page:     req.Page,
		PageSize: req.PageSize,
		Search:   req.Search,
		Wilaya:   req.Wilaya,
	}
	if req.Type != "" {
		t := partner.CustomerType(req.Type)
		query.Type = &t
	}
	if req.Status != "" {
		s := partner.CustomerStatus(req.Status)
		query.Status = &s
	}

	page, err := h.customerService.ListCustomers(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Update updates a customer's details
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := partnerapp.UpdateCustomerRequest{
		CustomerID:  id,
		Name:        req.Name,
		Type:        partner.CustomerType(req.Type),
		ContactName: req.ContactName,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
		Wilaya:      req.Wilaya,
		Daira:       req.Daira,
		Commune:     req.Commune,
		NIF:         req.NIF,
		NIS:         req.NIS,
		RC:          req.RC,
		Notes:       req.Notes,
	}
	if req.CreditLimit != nil {
		limit := decimal.NewFromFloat(*req.CreditLimit)
		appReq.CreditLimit = &limit
	}

	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, customer)
}

// Activate reactivates a customer
func (h *CustomerHandler) Activate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	customer, err := h.customerService.ActivateCustomer(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, customer)
}

// Deactivate deactivates a customer
func (h *CustomerHandler) Deactivate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	customer, err := h.customerService.DeactivateCustomer(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, customer)
}

// Delete removes a customer without invoices
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	if err := h.customerService.DeleteCustomer(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// GetDebt returns a customer's outstanding debt summary
func (h *CustomerHandler) GetDebt(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	debt, err := h.customerService.GetCustomerDebt(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, debt)
}

// ListDebts returns all customers carrying outstanding debt
func (h *CustomerHandler) ListDebts(c *gin.Context) {
	debts, err := h.customerService.ListCustomersWithDebt(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, debts)
}

// AddPoints credits loyalty points to a customer
func (h *CustomerHandler) AddPoints(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	var req LoyaltyPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customer, err := h.customerService.AddLoyaltyPoints(c.Request.Context(), id, req.Points)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, customer)
}

// RedeemPoints redeems loyalty points for a customer
func (h *CustomerHandler) RedeemPoints(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	var req LoyaltyPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customer, err := h.customerService.RedeemLoyaltyPoints(c.Request.Context(), id, req.Points)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, customer)
}
