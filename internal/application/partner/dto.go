package partner

import (
	"time"

	"github.com/gescom/backend/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCustomerRequest is the input for customer creation
type CreateCustomerRequest struct {
	Code        string
	Name        string
	Type        partner.CustomerType
	ContactName string
	Phone       string
	Email       string
	Address     string
	Wilaya      string
	Daira       string
	Commune     string
	NIF         string
	NIS         string
	RC          string
	CreditLimit *decimal.Decimal
	Notes       string
}

// UpdateCustomerRequest is the input for customer updates
type UpdateCustomerRequest struct {
	CustomerID  uuid.UUID
	Name        string
	Type        partner.CustomerType
	ContactName string
	Phone       string
	Email       string
	Address     string
	Wilaya      string
	Daira       string
	Commune     string
	NIF         string
	NIS         string
	RC          string
	CreditLimit *decimal.Decimal
	Notes       *string
}

// ListCustomersQuery carries listing criteria from the transport layer
type ListCustomersQuery struct {
	Page     int
	PageSize int
	Search   string
	Type     *partner.CustomerType
	Status   *partner.CustomerStatus
	Wilaya   string
}

// CustomerResult is the service-level view of a customer
type CustomerResult struct {
	ID            uuid.UUID              `json:"id"`
	Code          string                 `json:"code"`
	Name          string                 `json:"name"`
	Type          partner.CustomerType   `json:"type"`
	Status        partner.CustomerStatus `json:"status"`
	ContactName   string                 `json:"contact_name,omitempty"`
	Phone         string                 `json:"phone,omitempty"`
	Email         string                 `json:"email,omitempty"`
	Address       string                 `json:"address,omitempty"`
	Wilaya        string                 `json:"wilaya,omitempty"`
	Daira         string                 `json:"daira,omitempty"`
	Commune       string                 `json:"commune,omitempty"`
	NIF           string                 `json:"nif,omitempty"`
	NIS           string                 `json:"nis,omitempty"`
	RC            string                 `json:"rc,omitempty"`
	CreditLimit   decimal.Decimal        `json:"credit_limit"`
	LoyaltyPoints int64                  `json:"loyalty_points"`
	LoyaltyTier   partner.LoyaltyTier    `json:"loyalty_tier"`
	Notes         string                 `json:"notes,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// CustomerDebtResult is the aggregated outstanding balance of one customer
type CustomerDebtResult struct {
	CustomerID   uuid.UUID       `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	TotalDebt    decimal.Decimal `json:"total_debt"`
	InvoiceCount int64           `json:"invoice_count"`
	CreditLimit  decimal.Decimal `json:"credit_limit"`
	OverLimit    bool            `json:"over_limit"`
}

func toCustomerResult(c *partner.Customer) *CustomerResult {
	return &CustomerResult{
		ID:            c.ID,
		Code:          c.Code,
		Name:          c.Name,
		Type:          c.Type,
		Status:        c.Status,
		ContactName:   c.ContactName,
		Phone:         c.Phone,
		Email:         c.Email,
		Address:       c.Address,
		Wilaya:        c.Wilaya,
		Daira:         c.Daira,
		Commune:       c.Commune,
		NIF:           c.NIF,
		NIS:           c.NIS,
		RC:            c.RC,
		CreditLimit:   c.CreditLimit,
		LoyaltyPoints: c.LoyaltyPoints,
		LoyaltyTier:   c.Tier(),
		Notes:         c.Notes,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
