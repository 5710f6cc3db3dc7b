package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/gescom/backend/internal/domain/billing"
	"github.com/gescom/backend/internal/domain/catalog"
	"github.com/gescom/backend/internal/domain/partner"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Loyalty points accrue at one point per 100 DZD of fully collected invoice
// total.
const loyaltyPointsPerDZD = 100

// InvoiceService coordinates the invoice lifecycle: creation, edits,
// lifecycle transitions and payment recording.
type InvoiceService struct {
	invoiceRepo  billing.InvoiceRepository
	paymentRepo  billing.PaymentRepository
	customerRepo partner.CustomerRepository
	productRepo  catalog.ProductRepository
	txScope      TransactionScope
	events       shared.EventPublisher
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	customerRepo partner.CustomerRepository,
	productRepo catalog.ProductRepository,
	txScope TransactionScope,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:  invoiceRepo,
		paymentRepo:  paymentRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		txScope:      txScope,
	}
}

// SetEventPublisher wires the bus the service publishes domain events to.
// Without one, events are dropped.
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.events = publisher
}

// CreateInvoice creates a new draft invoice. Product names and prices are
// snapshotted from the catalog at creation time; the invoice number is
// allocated from the yearly sequence.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResult, error) {
	customer, err := s.customerRepo.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	if customer == nil {
		return nil, shared.NewDomainError("CUSTOMER_NOT_FOUND", "Customer not found")
	}
	if !customer.IsActive() {
		return nil, shared.NewDomainError("CUSTOMER_INACTIVE", "Cannot invoice an inactive customer")
	}

	lines, err := s.resolveLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	number, err := s.invoiceRepo.NextInvoiceNumber(ctx, time.Now().Year())
	if err != nil {
		return nil, fmt.Errorf("failed to allocate invoice number: %w", err)
	}

	invoice, err := billing.NewInvoice(number, customer.ID, customer.Name, lines, req.DueDate)
	if err != nil {
		return nil, err
	}
	if req.Notes != "" {
		invoice.SetNotes(req.Notes)
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}
	shared.PublishEvents(ctx, s.events, invoice)

	return toInvoiceResult(invoice, time.Now()), nil
}

// resolveLines turns line inputs into domain lines, snapshotting product
// name and sale price from the catalog
func (s *InvoiceService) resolveLines(ctx context.Context, inputs []InvoiceLineInput) ([]billing.InvoiceLine, error) {
	if len(inputs) == 0 {
		return nil, shared.NewDomainError("EMPTY_ITEMS", "Invoice must contain at least one line item")
	}

	ids := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]billing.InvoiceLine, 0, len(inputs))
	for _, in := range inputs {
		product, ok := byID[in.ProductID]
		if !ok {
			return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", fmt.Sprintf("Product %s not found", in.ProductID))
		}
		if !product.IsActive() {
			return nil, shared.NewDomainError("PRODUCT_INACTIVE", fmt.Sprintf("Product %s is inactive", product.SKU))
		}
		unitPrice := product.SalePrice
		if in.UnitPrice != nil {
			unitPrice = *in.UnitPrice
		}
		lines = append(lines, billing.InvoiceLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    in.Quantity,
			UnitPrice:   unitPrice,
		})
	}
	return lines, nil
}

// GetInvoice returns one invoice by ID
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResult, error) {
	invoice, err := s.findInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResult(invoice, time.Now()), nil
}

// GetInvoiceByNumber returns one invoice by its business number
func (s *InvoiceService) GetInvoiceByNumber(ctx context.Context, number string) (*InvoiceResult, error) {
	invoice, err := s.invoiceRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	if invoice == nil {
		return nil, shared.ErrNotFound
	}
	return toInvoiceResult(invoice, time.Now()), nil
}

// ListInvoices returns a filtered, paginated invoice page
func (s *InvoiceService) ListInvoices(ctx context.Context, query ListInvoicesQuery) (*shared.Paginated[*InvoiceResult], error) {
	filter := billing.InvoiceFilter{
		Filter:        shared.DefaultFilter(),
		CustomerID:    query.CustomerID,
		Status:        query.Status,
		PaymentStatus: query.PaymentStatus,
		DateFrom:      query.DateFrom,
		DateTo:        query.DateTo,
	}
	if query.Page > 0 {
		filter.Page = query.Page
	}
	if query.PageSize > 0 {
		filter.PageSize = query.PageSize
	}
	filter.Search = query.Search

	page, err := s.invoiceRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	now := time.Now()
	results := make([]*InvoiceResult, len(page.Items))
	for i, inv := range page.Items {
		results[i] = toInvoiceResult(inv, now)
	}
	out := shared.NewPaginated(results, page.Total, page.Page, page.PageSize)
	return &out, nil
}

// UpdateInvoice replaces the invoice's line items. The write is guarded by
// optimistic locking: when ExpectedVersion no longer matches the stored
// row, the update fails with a concurrency conflict and no state changes.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, req UpdateInvoiceRequest) (*InvoiceResult, error) {
	invoice, err := s.findInvoice(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	if req.ExpectedVersion != 0 && invoice.Version != req.ExpectedVersion {
		return nil, shared.ErrConcurrencyConflict
	}
	expectedVersion := invoice.Version

	customerID := req.CustomerID
	customerName := invoice.CustomerName
	if customerID == uuid.Nil {
		customerID = invoice.CustomerID
	}
	if customerID != invoice.CustomerID {
		customer, err := s.customerRepo.FindByID(ctx, customerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get customer: %w", err)
		}
		if customer == nil {
			return nil, shared.NewDomainError("CUSTOMER_NOT_FOUND", "Customer not found")
		}
		customerName = customer.Name
	}

	lines, err := s.resolveLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	if err := invoice.ReplaceItems(customerID, customerName, lines); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, invoice, expectedVersion); err != nil {
		return nil, err
	}
	shared.PublishEvents(ctx, s.events, invoice)

	return toInvoiceResult(invoice, time.Now()), nil
}

// SendInvoice transitions a draft invoice to sent
func (s *InvoiceService) SendInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResult, error) {
	invoice, err := s.findInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	expectedVersion := invoice.Version

	if err := invoice.MarkSent(); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice, expectedVersion); err != nil {
		return nil, err
	}
	shared.PublishEvents(ctx, s.events, invoice)

	return toInvoiceResult(invoice, time.Now()), nil
}

// CancelInvoice voids an invoice that has no recorded payments
func (s *InvoiceService) CancelInvoice(ctx context.Context, id uuid.UUID, reason string) (*InvoiceResult, error) {
	invoice, err := s.findInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	expectedVersion := invoice.Version

	if err := invoice.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice, expectedVersion); err != nil {
		return nil, err
	}
	shared.PublishEvents(ctx, s.events, invoice)

	return toInvoiceResult(invoice, time.Now()), nil
}

// DeleteInvoice removes a draft invoice. Invoices that left the draft
// state are part of the books and can only be cancelled.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	invoice, err := s.findInvoice(ctx, id)
	if err != nil {
		return err
	}
	if invoice.Status != billing.InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft invoices can be deleted")
	}
	if err := s.invoiceRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	return nil
}

// RecordPayment appends a payment to the ledger and applies it to the
// invoice in one transaction. The invoice write uses optimistic locking so
// two concurrent payments can never overshoot the total: the loser of the
// race fails with a concurrency conflict and leaves no ledger entry.
// Loyalty points accrue to the customer when the invoice becomes fully
// paid.
func (s *InvoiceService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*RecordPaymentResult, error) {
	var result *RecordPaymentResult
	var paid *billing.Invoice

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByID(ctx, req.InvoiceID)
		if err != nil {
			return fmt.Errorf("failed to get invoice: %w", err)
		}
		if invoice == nil {
			return shared.ErrNotFound
		}
		expectedVersion := invoice.Version

		amount := valueobject.NewMoneyDZD(req.Amount)
		if err := invoice.ApplyPayment(amount); err != nil {
			return err
		}

		number, err := repos.PaymentRepo().NextPaymentNumber(ctx, time.Now().Year())
		if err != nil {
			return fmt.Errorf("failed to allocate payment number: %w", err)
		}
		payment, err := billing.NewPayment(number, invoice.ID, invoice.InvoiceNumber, invoice.CustomerID, amount, req.Method, req.Reference)
		if err != nil {
			return err
		}

		if err := repos.InvoiceRepo().SaveWithLock(ctx, invoice, expectedVersion); err != nil {
			return err
		}
		if err := repos.PaymentRepo().Save(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		if invoice.PaymentStatus == billing.PaymentStatusPaid {
			if err := s.accrueLoyaltyPoints(ctx, repos.CustomerRepo(), invoice); err != nil {
				return err
			}
		}

		result = &RecordPaymentResult{
			Payment: toPaymentResult(payment),
			Invoice: toInvoiceResult(invoice, time.Now()),
		}
		paid = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	// events go out only once the transaction has committed
	shared.PublishEvents(ctx, s.events, paid)
	return result, nil
}

// accrueLoyaltyPoints credits the customer for a fully collected invoice
func (s *InvoiceService) accrueLoyaltyPoints(ctx context.Context, customerRepo partner.CustomerRepository, invoice *billing.Invoice) error {
	points := invoice.TotalAmount.IntPart() / loyaltyPointsPerDZD
	if points <= 0 {
		return nil
	}

	customer, err := customerRepo.FindByID(ctx, invoice.CustomerID)
	if err != nil {
		return fmt.Errorf("failed to get customer: %w", err)
	}
	if customer == nil {
		return nil
	}
	if err := customer.AddLoyaltyPoints(points); err != nil {
		return err
	}
	if err := customerRepo.Save(ctx, customer); err != nil {
		return fmt.Errorf("failed to save customer: %w", err)
	}
	return nil
}

// ListInvoicePayments returns the ledger entries of one invoice in
// recording order
func (s *InvoiceService) ListInvoicePayments(ctx context.Context, invoiceID uuid.UUID) ([]*PaymentResult, error) {
	if _, err := s.findInvoice(ctx, invoiceID); err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.FindByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	results := make([]*PaymentResult, len(payments))
	for i, p := range payments {
		results[i] = toPaymentResult(p)
	}
	return results, nil
}

// ListPayments returns a paginated view over the whole ledger
func (s *InvoiceService) ListPayments(ctx context.Context, filter shared.Filter) (*shared.Paginated[*PaymentResult], error) {
	page, err := s.paymentRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	results := make([]*PaymentResult, len(page.Items))
	for i, p := range page.Items {
		results[i] = toPaymentResult(p)
	}
	out := shared.NewPaginated(results, page.Total, page.Page, page.PageSize)
	return &out, nil
}

func (s *InvoiceService) findInvoice(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	if invoice == nil {
		return nil, shared.ErrNotFound
	}
	return invoice, nil
}
