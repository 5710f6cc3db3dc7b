package shipping

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gescom/backend/internal/domain/billing"
	"github.com/gescom/backend/internal/domain/partner"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/shipping"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type deliveryFixture struct {
	deliveryRepo *MockDeliveryRepository
	customerRepo *MockCustomerRepository
	invoiceRepo  *MockInvoiceRepository
	service      *DeliveryService
}

func newDeliveryFixture() *deliveryFixture {
	deliveryRepo := new(MockDeliveryRepository)
	customerRepo := new(MockCustomerRepository)
	invoiceRepo := new(MockInvoiceRepository)
	return &deliveryFixture{
		deliveryRepo: deliveryRepo,
		customerRepo: customerRepo,
		invoiceRepo:  invoiceRepo,
		service:      NewDeliveryService(deliveryRepo, customerRepo, invoiceRepo),
	}
}

func testCustomer(t *testing.T) *partner.Customer {
	t.Helper()
	customer, err := partner.NewCustomer("CLI-001", "SARL Atlas", partner.CustomerTypeCompany)
	require.NoError(t, err)
	require.NoError(t, customer.SetAddress("12 Rue Didouche Mourad", "Alger", "Sidi M'Hamed", "Alger Centre"))
	return customer
}

func testInvoiceFor(t *testing.T, customerID uuid.UUID) *billing.Invoice {
	t.Helper()
	lines := []billing.InvoiceLine{
		{ProductID: uuid.New(), ProductName: "Sucre 1kg", Quantity: 2, UnitPrice: decimal.NewFromInt(1000)},
	}
	invoice, err := billing.NewInvoice("F2026/00007", customerID, "SARL Atlas", lines, nil)
	require.NoError(t, err)
	return invoice
}

func TestDeliveryService_CreateDelivery(t *testing.T) {
	f := newDeliveryFixture()
	ctx := context.Background()
	customer := testCustomer(t)

	f.customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	f.deliveryRepo.On("NextDeliveryNumber", ctx, time.Now().Year()).Return("BL2026/00015", nil)
	f.deliveryRepo.On("Save", ctx, mock.AnythingOfType("*shipping.Delivery")).Return(nil)

	result, err := f.service.CreateDelivery(ctx, CreateDeliveryRequest{
		CustomerID: customer.ID,
		Address:    "Zone industrielle, Rouiba",
		Wilaya:     "Alger",
		Phone:      "0550123456",
	})

	require.NoError(t, err)
	assert.Equal(t, "BL2026/00015", result.DeliveryNumber)
	assert.Equal(t, "SARL Atlas", result.CustomerName)
	assert.Equal(t, "Zone industrielle, Rouiba", result.Address)
	assert.Equal(t, shipping.DeliveryStatusPending, result.Status)
	require.Len(t, result.History, 1)
	assert.Equal(t, shipping.DeliveryStatusPending, result.History[0].ToStatus)
	f.deliveryRepo.AssertExpectations(t)
}

func TestDeliveryService_CreateDelivery_DefaultsAddressFromCustomer(t *testing.T) {
	f := newDeliveryFixture()
	ctx := context.Background()
	customer := testCustomer(t)

	f.customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	f.deliveryRepo.On("NextDeliveryNumber", ctx, mock.Anything).Return("BL2026/00016", nil)
	f.deliveryRepo.On("Save", ctx, mock.AnythingOfType("*shipping.Delivery")).Return(nil)

	result, err := f.service.CreateDelivery(ctx, CreateDeliveryRequest{CustomerID: customer.ID})

	require.NoError(t, err)
	assert.Equal(t, "12 Rue Didouche Mourad", result.Address)
	assert.Equal(t, "Alger", result.Wilaya)
}

func TestDeliveryService_CreateDelivery_CustomerNotFound(t *testing.T) {
	f := newDeliveryFixture()
	ctx := context.Background()
	customerID := uuid.New()

	f.customerRepo.On("FindByID", ctx, customerID).Return(nil, nil)

	_, err := f.service.CreateDelivery(ctx, CreateDeliveryRequest{CustomerID: customerID})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CUSTOMER_NOT_FOUND", domainErr.Code)
	f.deliveryRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestDeliveryService_CreateDelivery_LinksInvoice(t *testing.T) {
	f := newDeliveryFixture()
	ctx := context.Background()
	customer := testCustomer(t)
	invoice := testInvoiceFor(t, customer.ID)

	f.customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	f.deliveryRepo.On("NextDeliveryNumber", ctx, mock.Anything).Return("BL2026/00017", nil)
	f.invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
	f.deliveryRepo.On("Save", ctx, mock.AnythingOfType("*shipping.Delivery")).Return(nil)

	result, err := f.service.CreateDelivery(ctx, CreateDeliveryRequest{
		CustomerID: customer.ID,
		InvoiceID:  &invoice.ID,
	})

	require.NoError(t, err)
	require.NotNil(t, result.InvoiceID)
	assert.Equal(t, invoice.ID, *result.InvoiceID)
}

func TestDeliveryService_CreateDelivery_InvoiceOfAnotherCustomer(t *testing.T) {
	f := newDeliveryFixture()
	ctx := context.Background()
	customer := testCustomer(t)
	invoice := testInvoiceFor(t, uuid.New())

	f.customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	f.deliveryRepo.On("NextDeliveryNumber", ctx, mock.Anything).Return("BL2026/00018", nil)
	f.invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)

	_, err := f.service.CreateDelivery(ctx, CreateDeliveryRequest{
		CustomerID: customer.ID,
		InvoiceID:  &invoice.ID,
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVOICE_MISMATCH", domainErr.Code)
	f.deliveryRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestDeliveryService_StartTransitAndDeliver(t *testing.T) {
	f := newDeliveryFixture()
	ctx := context.Background()
	delivery, err := shipping.NewDelivery("BL2026/00020", uuid.New(), "SARL Atlas", "Rue de la Liberté", "Oran")
	require.NoError(t, err)

	f.deliveryRepo.On("FindByID", ctx, delivery.ID).Return(delivery, nil)
	f.deliveryRepo.On("Save", ctx, delivery).Return(nil)

	result, err := f.service.StartTransit(ctx, delivery.ID, "chargé sur camion 3")
	require.NoError(t, err)
	assert.Equal(t, shipping.DeliveryStatusInTransit, result.Status)

	result, err = f.service.MarkDelivered(ctx, delivery.ID, "")
	require.NoError(t, err)
	assert.Equal(t, shipping.DeliveryStatusDelivered, result.Status)
	require.NotNil(t, result.DeliveredAt)
	assert.Len(t, result.History, 3)
}

func TestDeliveryService_MarkDelivered_FromPendingRejected(t *testing.T) {
	f := newDeliveryFixture()
	ctx := context.Background()
	delivery, err := shipping.NewDelivery("BL2026/00021", uuid.New(), "SARL Atlas", "Rue de la Liberté", "Oran")
	require.NoError(t, err)

	f.deliveryRepo.On("FindByID", ctx, delivery.ID).Return(delivery, nil)

	_, err = f.service.MarkDelivered(ctx, delivery.ID, "")

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
	f.deliveryRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestDeliveryService_CancelDelivery_RequiresNote(t *testing.T) {
	f := newDeliveryFixture()
	ctx := context.Background()
	delivery, err := shipping.NewDelivery("BL2026/00022", uuid.New(), "SARL Atlas", "Rue de la Liberté", "Oran")
	require.NoError(t, err)

	f.deliveryRepo.On("FindByID", ctx, delivery.ID).Return(delivery, nil)

	_, err = f.service.CancelDelivery(ctx, delivery.ID, "")

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_REASON", domainErr.Code)
}

func TestDeliveryService_AssignDriver(t *testing.T) {
	f := newDeliveryFixture()
	ctx := context.Background()
	delivery, err := shipping.NewDelivery("BL2026/00023", uuid.New(), "SARL Atlas", "Rue de la Liberté", "Oran")
	require.NoError(t, err)

	f.deliveryRepo.On("FindByID", ctx, delivery.ID).Return(delivery, nil)
	f.deliveryRepo.On("Save", ctx, delivery).Return(nil)

	result, err := f.service.AssignDriver(ctx, delivery.ID, "Karim B.")

	require.NoError(t, err)
	assert.Equal(t, "Karim B.", result.DriverName)
}

func TestDeliveryService_TrackDelivery(t *testing.T) {
	f := newDeliveryFixture()
	ctx := context.Background()
	delivery, err := shipping.NewDelivery("BL2026/00030", uuid.New(), "SARL Atlas", "Rue de la Liberté", "Oran")
	require.NoError(t, err)
	require.NoError(t, delivery.StartTransit("chargé sur camion 1"))

	f.deliveryRepo.On("FindByNumber", ctx, "BL2026/00030").Return(delivery, nil)

	tracking, err := f.service.TrackDelivery(ctx, "BL2026/00030")
	require.NoError(t, err)

	assert.Equal(t, "BL2026/00030", tracking.DeliveryNumber)
	assert.Equal(t, shipping.DeliveryStatusInTransit, tracking.Status)
	assert.Equal(t, "Oran", tracking.Wilaya)
	require.Len(t, tracking.History, 2)
	// the tracking view never exposes internal notes
	for _, h := range tracking.History {
		assert.Empty(t, h.Note)
	}
}

func TestDeliveryService_TrackDelivery_NotFound(t *testing.T) {
	f := newDeliveryFixture()
	ctx := context.Background()

	f.deliveryRepo.On("FindByNumber", ctx, "BL2026/99999").Return(nil, nil)

	_, err := f.service.TrackDelivery(ctx, "BL2026/99999")

	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestDeliveryService_GetDelivery_NotFound(t *testing.T) {
	f := newDeliveryFixture()
	ctx := context.Background()
	id := uuid.New()

	f.deliveryRepo.On("FindByID", ctx, id).Return(nil, nil)

	_, err := f.service.GetDelivery(ctx, id)

	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
