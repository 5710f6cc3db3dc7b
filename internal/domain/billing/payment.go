package billing

import (
	"fmt"

	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents the method of payment
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCard         PaymentMethod = "card"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodBankTransfer, PaymentMethodCard:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// Payment is an immutable record of money received against an invoice.
// Payments form an append-only ledger: they are created through payment
// recording and never updated or deleted afterwards.
type Payment struct {
	shared.BaseEntity
	PaymentNumber string
	InvoiceID     uuid.UUID
	InvoiceNumber string
	CustomerID    uuid.UUID
	Amount        decimal.Decimal
	Method        PaymentMethod
	Reference     string
}

// NewPayment creates a new payment record against an invoice. The payment
// number is allocated by the repository, P<year>/<sequence>, so it follows
// the same yearly numbering as invoices. CustomerID is denormalized from
// the invoice at recording time.
func NewPayment(paymentNumber string, invoiceID uuid.UUID, invoiceNumber string, customerID uuid.UUID, amount valueobject.Money, method PaymentMethod, reference string) (*Payment, error) {
	if paymentNumber == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %q", method))
	}

	return &Payment{
		BaseEntity:    shared.NewBaseEntity(),
		PaymentNumber: paymentNumber,
		InvoiceID:     invoiceID,
		InvoiceNumber: invoiceNumber,
		CustomerID:    customerID,
		Amount:        amount.Amount(),
		Method:        method,
		Reference:     reference,
	}, nil
}

// GetAmountMoney returns the amount as Money value object
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyDZD(p.Amount)
}
