package billing

import (
	"time"

	"github.com/gescom/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceLineInput is one requested invoice line. UnitPrice is optional:
// when nil the product's current sale price is snapshotted.
type InvoiceLineInput struct {
	ProductID uuid.UUID
	Quantity  int64
	UnitPrice *decimal.Decimal
}

// CreateInvoiceRequest is the input for invoice creation
type CreateInvoiceRequest struct {
	CustomerID uuid.UUID
	Lines      []InvoiceLineInput
	DueDate    *time.Time
	Notes      string
}

// UpdateInvoiceRequest is the input for replacing an invoice's lines.
// ExpectedVersion carries the version the caller last read; the update is
// rejected when another writer has modified the invoice since.
type UpdateInvoiceRequest struct {
	InvoiceID       uuid.UUID
	CustomerID      uuid.UUID
	Lines           []InvoiceLineInput
	ExpectedVersion int
}

// RecordPaymentRequest is the input for payment recording
type RecordPaymentRequest struct {
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
	Method    billing.PaymentMethod
	Reference string
}

// ListInvoicesQuery carries listing criteria from the transport layer
type ListInvoicesQuery struct {
	Page          int
	PageSize      int
	CustomerID    *uuid.UUID
	Status        *billing.InvoiceStatus
	PaymentStatus *billing.PaymentStatus
	Search        string
	DateFrom      *time.Time
	DateTo        *time.Time
}

// InvoiceResult is the service-level view of an invoice. PaymentStatus is
// the effective status with overdue derived at read time.
type InvoiceResult struct {
	ID            uuid.UUID            `json:"id"`
	InvoiceNumber string               `json:"invoice_number"`
	CustomerID    uuid.UUID            `json:"customer_id"`
	CustomerName  string               `json:"customer_name"`
	Items         []InvoiceItemResult  `json:"items"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	TVAAmount     decimal.Decimal      `json:"tva_amount"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	PaidAmount    decimal.Decimal      `json:"paid_amount"`
	Outstanding   decimal.Decimal      `json:"outstanding_amount"`
	Status        billing.InvoiceStatus `json:"status"`
	PaymentStatus billing.PaymentStatus `json:"payment_status"`
	DueDate       *time.Time           `json:"due_date,omitempty"`
	Notes         string               `json:"notes,omitempty"`
	SentAt        *time.Time           `json:"sent_at,omitempty"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
	CancelledAt   *time.Time           `json:"cancelled_at,omitempty"`
	CancelReason  string               `json:"cancel_reason,omitempty"`
	Version       int                  `json:"version"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// InvoiceItemResult is one line of an InvoiceResult
type InvoiceItemResult struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// PaymentResult is the service-level view of a ledger entry
type PaymentResult struct {
	ID            uuid.UUID             `json:"id"`
	PaymentNumber string                `json:"payment_number"`
	InvoiceID     uuid.UUID             `json:"invoice_id"`
	InvoiceNumber string                `json:"invoice_number"`
	CustomerID    uuid.UUID             `json:"customer_id"`
	Amount        decimal.Decimal       `json:"amount"`
	Method        billing.PaymentMethod `json:"method"`
	Reference     string                `json:"reference,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// RecordPaymentResult bundles the ledger entry with the invoice it updated
type RecordPaymentResult struct {
	Payment *PaymentResult `json:"payment"`
	Invoice *InvoiceResult `json:"invoice"`
}

func toInvoiceResult(inv *billing.Invoice, now time.Time) *InvoiceResult {
	items := make([]InvoiceItemResult, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = InvoiceItemResult{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		}
	}
	return &InvoiceResult{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerID:    inv.CustomerID,
		CustomerName:  inv.CustomerName,
		Items:         items,
		Subtotal:      inv.Subtotal,
		TVAAmount:     inv.TVAAmount,
		TotalAmount:   inv.TotalAmount,
		PaidAmount:    inv.PaidAmount,
		Outstanding:   inv.OutstandingAmount(),
		Status:        inv.Status,
		PaymentStatus: inv.EffectivePaymentStatus(now),
		DueDate:       inv.DueDate,
		Notes:         inv.Notes,
		SentAt:        inv.SentAt,
		PaidAt:        inv.PaidAt,
		CancelledAt:   inv.CancelledAt,
		CancelReason:  inv.CancelReason,
		Version:       inv.Version,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

func toPaymentResult(p *billing.Payment) *PaymentResult {
	return &PaymentResult{
		ID:            p.ID,
		PaymentNumber: p.PaymentNumber,
		InvoiceID:     p.InvoiceID,
		InvoiceNumber: p.InvoiceNumber,
		CustomerID:    p.CustomerID,
		Amount:        p.Amount,
		Method:        p.Method,
		Reference:     p.Reference,
		CreatedAt:     p.CreatedAt,
	}
}
