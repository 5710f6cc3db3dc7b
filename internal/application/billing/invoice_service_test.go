package billing

import (
	"context"
	"testing"

	"github.com/gescom/backend/internal/domain/billing"
	"github.com/gescom/backend/internal/domain/catalog"
	"github.com/gescom/backend/internal/domain/partner"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type serviceFixture struct {
	invoiceRepo  *MockInvoiceRepository
	paymentRepo  *MockPaymentRepository
	customerRepo *MockCustomerRepository
	productRepo  *MockProductRepository
	service      *InvoiceService
}

func newFixture() *serviceFixture {
	f := &serviceFixture{
		invoiceRepo:  new(MockInvoiceRepository),
		paymentRepo:  new(MockPaymentRepository),
		customerRepo: new(MockCustomerRepository),
		productRepo:  new(MockProductRepository),
	}
	txScope := NewNoOpTransactionScope(f.invoiceRepo, f.paymentRepo, f.customerRepo)
	f.service = NewInvoiceService(f.invoiceRepo, f.paymentRepo, f.customerRepo, f.productRepo, txScope)
	return f
}

func fixtureCustomer(t *testing.T) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer("CLI-001", "SARL Benali Construction", partner.CustomerTypeCompany)
	require.NoError(t, err)
	return c
}

func fixtureProduct(t *testing.T, sku, name, price string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, name, dec(price))
	require.NoError(t, err)
	return p
}

func fixtureInvoice(t *testing.T, customerID uuid.UUID) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice("F2026/00001", customerID, "SARL Benali Construction", []billing.InvoiceLine{
		{ProductID: uuid.New(), ProductName: "Sac de ciment 50kg", Quantity: 2, UnitPrice: dec("1000")},
		{ProductID: uuid.New(), ProductName: "Brique rouge", Quantity: 1, UnitPrice: dec("500")},
	}, nil)
	require.NoError(t, err)
	return inv
}

func TestInvoiceService_CreateInvoice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	customer := fixtureCustomer(t)
	ciment := fixtureProduct(t, "CIM-50", "Sac de ciment 50kg", "1000")
	brique := fixtureProduct(t, "BRQ-R", "Brique rouge", "500")

	f.customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	f.productRepo.On("FindByIDs", ctx, mock.Anything).Return([]*catalog.Product{ciment, brique}, nil)
	f.invoiceRepo.On("NextInvoiceNumber", ctx, mock.AnythingOfType("int")).Return("F2026/00042", nil)
	f.invoiceRepo.On("Save", ctx, mock.AnythingOfType("*billing.Invoice")).Return(nil)

	result, err := f.service.CreateInvoice(ctx, CreateInvoiceRequest{
		CustomerID: customer.ID,
		Lines: []InvoiceLineInput{
			{ProductID: ciment.ID, Quantity: 2},
			{ProductID: brique.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "F2026/00042", result.InvoiceNumber)
	assert.Equal(t, customer.Name, result.CustomerName)
	assert.True(t, dec("2500").Equal(result.Subtotal), "subtotal = %s", result.Subtotal)
	assert.True(t, dec("475").Equal(result.TVAAmount), "tva = %s", result.TVAAmount)
	assert.True(t, dec("2975").Equal(result.TotalAmount), "total = %s", result.TotalAmount)
	assert.Equal(t, billing.InvoiceStatusDraft, result.Status)
	assert.Equal(t, billing.PaymentStatusPending, result.PaymentStatus)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, "Sac de ciment 50kg", result.Items[0].ProductName, "name snapshotted from catalog")

	f.invoiceRepo.AssertExpectations(t)
}

func TestInvoiceService_CreateInvoice_CustomerNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	customerID := uuid.New()

	f.customerRepo.On("FindByID", ctx, customerID).Return(nil, nil)

	_, err := f.service.CreateInvoice(ctx, CreateInvoiceRequest{
		CustomerID: customerID,
		Lines:      []InvoiceLineInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "CUSTOMER_NOT_FOUND", derr.Code)
}

func TestInvoiceService_CreateInvoice_InactiveCustomer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	customer := fixtureCustomer(t)
	require.NoError(t, customer.Deactivate())
	f.customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)

	_, err := f.service.CreateInvoice(ctx, CreateInvoiceRequest{
		CustomerID: customer.ID,
		Lines:      []InvoiceLineInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "CUSTOMER_INACTIVE", derr.Code)
}

func TestInvoiceService_CreateInvoice_UnknownProduct(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	customer := fixtureCustomer(t)
	f.customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	f.productRepo.On("FindByIDs", ctx, mock.Anything).Return([]*catalog.Product{}, nil)

	_, err := f.service.CreateInvoice(ctx, CreateInvoiceRequest{
		CustomerID: customer.ID,
		Lines:      []InvoiceLineInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "PRODUCT_NOT_FOUND", derr.Code)
}

func TestInvoiceService_RecordPayment_Partial(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	customer := fixtureCustomer(t)
	invoice := fixtureInvoice(t, customer.ID)

	f.invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
	f.invoiceRepo.On("SaveWithLock", ctx, invoice, 1).Return(nil)
	f.paymentRepo.On("NextPaymentNumber", ctx, mock.AnythingOfType("int")).Return("P2026/00001", nil)
	f.paymentRepo.On("Save", ctx, mock.AnythingOfType("*billing.Payment")).Return(nil)

	result, err := f.service.RecordPayment(ctx, RecordPaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    dec("1000"),
		Method:    billing.PaymentMethodCash,
	})
	require.NoError(t, err)

	assert.Equal(t, "P2026/00001", result.Payment.PaymentNumber)
	assert.True(t, dec("1000").Equal(result.Payment.Amount))
	assert.Equal(t, billing.PaymentStatusPartial, result.Invoice.PaymentStatus)
	assert.True(t, dec("1975").Equal(result.Invoice.Outstanding))

	f.customerRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	f.invoiceRepo.AssertExpectations(t)
	f.paymentRepo.AssertExpectations(t)
}

func TestInvoiceService_RecordPayment_FullAccruesLoyaltyPoints(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	customer := fixtureCustomer(t)
	invoice := fixtureInvoice(t, customer.ID)

	f.invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
	f.invoiceRepo.On("SaveWithLock", ctx, invoice, 1).Return(nil)
	f.paymentRepo.On("NextPaymentNumber", ctx, mock.AnythingOfType("int")).Return("P2026/00002", nil)
	f.paymentRepo.On("Save", ctx, mock.AnythingOfType("*billing.Payment")).Return(nil)
	f.customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	f.customerRepo.On("Save", ctx, customer).Return(nil)

	result, err := f.service.RecordPayment(ctx, RecordPaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    dec("2975"),
		Method:    billing.PaymentMethodBankTransfer,
		Reference: "VIR-2026-113",
	})
	require.NoError(t, err)

	assert.Equal(t, billing.PaymentStatusPaid, result.Invoice.PaymentStatus)
	assert.True(t, result.Invoice.Outstanding.IsZero())
	// 2975 DZD collected -> 29 points
	assert.Equal(t, int64(29), customer.LoyaltyPoints)

	f.customerRepo.AssertExpectations(t)
}

func TestInvoiceService_RecordPayment_PublishesInvoicePaid(t *testing.T) {
	f := newFixture()
	pub := &recordingPublisher{}
	f.service.SetEventPublisher(pub)
	ctx := context.Background()

	customer := fixtureCustomer(t)
	invoice := fixtureInvoice(t, customer.ID)
	invoice.ClearDomainEvents()

	f.invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
	f.invoiceRepo.On("SaveWithLock", ctx, invoice, 1).Return(nil)
	f.paymentRepo.On("NextPaymentNumber", ctx, mock.AnythingOfType("int")).Return("P2026/00004", nil)
	f.paymentRepo.On("Save", ctx, mock.AnythingOfType("*billing.Payment")).Return(nil)
	f.customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	f.customerRepo.On("Save", ctx, customer).Return(nil)

	_, err := f.service.RecordPayment(ctx, RecordPaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    dec("2975"),
		Method:    billing.PaymentMethodCash,
	})
	require.NoError(t, err)

	types := make([]string, len(pub.events))
	for i, e := range pub.events {
		types[i] = e.EventType()
	}
	assert.Contains(t, types, "InvoicePaid")
	assert.Empty(t, invoice.GetDomainEvents())
}

func TestInvoiceService_RecordPayment_Overpayment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	invoice := fixtureInvoice(t, uuid.New())
	f.invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)

	_, err := f.service.RecordPayment(ctx, RecordPaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    dec("5000"),
		Method:    billing.PaymentMethodCash,
	})
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "EXCEEDS_OUTSTANDING", derr.Code)

	f.invoiceRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything, mock.Anything)
	f.paymentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestInvoiceService_RecordPayment_ConcurrencyConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	invoice := fixtureInvoice(t, uuid.New())
	f.invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
	f.paymentRepo.On("NextPaymentNumber", ctx, mock.AnythingOfType("int")).Return("P2026/00003", nil)
	f.invoiceRepo.On("SaveWithLock", ctx, invoice, 1).Return(shared.ErrConcurrencyConflict)

	_, err := f.service.RecordPayment(ctx, RecordPaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    dec("1000"),
		Method:    billing.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	f.paymentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestInvoiceService_UpdateInvoice_StaleVersion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	invoice := fixtureInvoice(t, uuid.New())
	invoice.IncrementVersion() // now at version 2
	f.invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)

	_, err := f.service.UpdateInvoice(ctx, UpdateInvoiceRequest{
		InvoiceID:       invoice.ID,
		Lines:           []InvoiceLineInput{{ProductID: uuid.New(), Quantity: 1}},
		ExpectedVersion: 1,
	})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestInvoiceService_SendAndCancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	invoice := fixtureInvoice(t, uuid.New())
	f.invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
	f.invoiceRepo.On("SaveWithLock", ctx, invoice, mock.AnythingOfType("int")).Return(nil)

	sent, err := f.service.SendInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusSent, sent.Status)

	cancelled, err := f.service.CancelInvoice(ctx, invoice.ID, "commande annulee")
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusCancelled, cancelled.Status)
}

func TestInvoiceService_DeleteInvoice_OnlyDrafts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	invoice := fixtureInvoice(t, uuid.New())
	require.NoError(t, invoice.MarkSent())
	f.invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)

	err := f.service.DeleteInvoice(ctx, invoice.ID)
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_STATE", derr.Code)

	f.invoiceRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestInvoiceService_GetInvoice_NotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := uuid.New()

	f.invoiceRepo.On("FindByID", ctx, id).Return(nil, nil)

	_, err := f.service.GetInvoice(ctx, id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
