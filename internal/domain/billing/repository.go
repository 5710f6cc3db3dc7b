package billing

import (
	"context"
	"time"

	"github.com/gescom/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceFilter carries the query criteria for invoice listings
type InvoiceFilter struct {
	shared.Filter
	CustomerID    *uuid.UUID
	Status        *InvoiceStatus
	PaymentStatus *PaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
}

// CustomerOutstanding is a per-customer aggregation over unpaid invoices
type CustomerOutstanding struct {
	CustomerID   uuid.UUID
	TotalDebt    decimal.Decimal
	InvoiceCount int64
}

// InvoiceRepository defines the persistence contract for invoices
type InvoiceRepository interface {
	// Save persists the invoice and its line items
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock persists the invoice only if the stored version matches
	// the version the aggregate was loaded at. Returns
	// shared.ErrConcurrencyConflict when another writer got there first.
	SaveWithLock(ctx context.Context, invoice *Invoice, expectedVersion int) error

	// FindByID loads an invoice with its line items
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByNumber loads an invoice by its business number
	FindByNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)

	// FindAll returns a filtered, paginated invoice page
	FindAll(ctx context.Context, filter InvoiceFilter) (*shared.Paginated[*Invoice], error)

	// FindByCustomer returns all invoices of one customer, newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[*Invoice], error)

	// FindUnpaidByCustomer returns the customer's invoices that still carry
	// an outstanding balance (pending or partial, cancelled excluded)
	FindUnpaidByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Invoice, error)

	// SumOutstandingByCustomer aggregates total debt and unpaid invoice
	// count for one customer
	SumOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) (*CustomerOutstanding, error)

	// SumOutstandingGrouped aggregates debt per customer across all
	// customers that have unpaid invoices
	SumOutstandingGrouped(ctx context.Context) ([]CustomerOutstanding, error)

	// CountByCustomer counts invoices belonging to a customer, any status
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)

	// ExistsByNumber reports whether an invoice number is already taken
	ExistsByNumber(ctx context.Context, invoiceNumber string) (bool, error)

	// NextInvoiceNumber allocates the next sequential number for the year,
	// formatted as F<year>/<zero-padded sequence>
	NextInvoiceNumber(ctx context.Context, year int) (string, error)

	// Delete removes a draft invoice and its items
	Delete(ctx context.Context, id uuid.UUID) error
}

// PaymentRepository defines the persistence contract for the payment ledger.
// Payments are append-only: there is no update or delete.
type PaymentRepository interface {
	// Save appends a payment to the ledger
	Save(ctx context.Context, payment *Payment) error

	// FindByID loads a single payment
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByInvoice returns the payments of one invoice in recording order
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error)

	// FindByCustomer returns a customer's payments, newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[*Payment], error)

	// FindAll returns a paginated payment page
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*Payment], error)

	// SumByInvoice returns the ledger total recorded against an invoice
	SumByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)

	// NextPaymentNumber allocates the next sequential number for the year,
	// formatted as P<year>/<zero-padded sequence>
	NextPaymentNumber(ctx context.Context, year int) (string, error)
}
