package partner

import (
	"context"
	"testing"

	"github.com/gescom/backend/internal/domain/billing"
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

// =============================================================================
// Mock Repositories
// =============================================================================

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByCode(ctx context.Context, code string) (*partner.Customer, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByNIF(ctx context.Context, nif string) (*partner.Customer, error) {
	args := m.Called(ctx, nif)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, filter partner.CustomerFilter) (*shared.Paginated[*partner.Customer], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*partner.Customer]), args.Error(1)
}

func (m *MockCustomerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*partner.Customer, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCustomerRepository) Count(ctx context.Context, filter partner.CustomerFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerRepository) ExistsByNIF(ctx context.Context, nif string) (bool, error) {
	args := m.Called(ctx, nif)
	return args.Bool(0), args.Error(1)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice, expectedVersion int) error {
	args := m.Called(ctx, invoice, expectedVersion)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, invoiceNumber string) (*billing.Invoice, error) {
	args := m.Called(ctx, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, filter billing.InvoiceFilter) (*shared.Paginated[*billing.Invoice], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*billing.Invoice]), args.Error(1)
}

func (m *MockInvoiceRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[*billing.Invoice], error) {
	args := m.Called(ctx, customerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*billing.Invoice]), args.Error(1)
}

func (m *MockInvoiceRepository) FindUnpaidByCustomer(ctx context.Context, customerID uuid.UUID) ([]*billing.Invoice, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) SumOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) (*billing.CustomerOutstanding, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CustomerOutstanding), args.Error(1)
}

func (m *MockInvoiceRepository) SumOutstandingGrouped(ctx context.Context) ([]billing.CustomerOutstanding, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.CustomerOutstanding), args.Error(1)
}

func (m *MockInvoiceRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) ExistsByNumber(ctx context.Context, invoiceNumber string) (bool, error) {
	args := m.Called(ctx, invoiceNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) NextInvoiceNumber(ctx context.Context, year int) (string, error) {
	args := m.Called(ctx, year)
	return args.String(0), args.Error(1)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ partner.CustomerRepository = (*MockCustomerRepository)(nil)
var _ billing.InvoiceRepository = (*MockInvoiceRepository)(nil)

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

// =============================================================================
// Tests
// =============================================================================

func newService() (*CustomerService, *MockCustomerRepository, *MockInvoiceRepository) {
	customerRepo := new(MockCustomerRepository)
	invoiceRepo := new(MockInvoiceRepository)
	return NewCustomerService(customerRepo, invoiceRepo), customerRepo, invoiceRepo
}

func fixtureCustomer(t *testing.T) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer("CLI-001", "SARL Benali Construction", partner.CustomerTypeCompany)
	require.NoError(t, err)
	return c
}

func TestCustomerService_CreateCustomer(t *testing.T) {
	svc, customerRepo, _ := newService()
	ctx := context.Background()

	customerRepo.On("ExistsByCode", ctx, "CLI-001").Return(false, nil)
	customerRepo.On("Save", ctx, mock.AnythingOfType("*partner.Customer")).Return(nil)

	limit := dec("100000")
	result, err := svc.CreateCustomer(ctx, CreateCustomerRequest{
		Code:        "CLI-001",
		Name:        "SARL Benali Construction",
		Type:        partner.CustomerTypeCompany,
		Phone:       "+213 550 12 34 56",
		Wilaya:      "Alger",
		NIF:         "000016001234567",
		CreditLimit: &limit,
	})
	require.NoError(t, err)

	assert.Equal(t, "CLI-001", result.Code)
	assert.Equal(t, partner.LoyaltyTierBronze, result.LoyaltyTier)
	assert.True(t, dec("100000").Equal(result.CreditLimit))

	customerRepo.AssertExpectations(t)
}

func TestCustomerService_CreateCustomer_PublishesEvents(t *testing.T) {
	svc, customerRepo, _ := newService()
	pub := &recordingPublisher{}
	svc.SetEventPublisher(pub)
	ctx := context.Background()

	customerRepo.On("ExistsByCode", ctx, "CLI-002").Return(false, nil)
	customerRepo.On("Save", ctx, mock.AnythingOfType("*partner.Customer")).Return(nil)

	_, err := svc.CreateCustomer(ctx, CreateCustomerRequest{
		Code: "CLI-002",
		Name: "EURL Numidia",
		Type: partner.CustomerTypeCompany,
	})
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "CustomerCreated", pub.events[0].EventType())
}

func TestCustomerService_CreateCustomer_DuplicateCode(t *testing.T) {
	svc, customerRepo, _ := newService()
	ctx := context.Background()

	customerRepo.On("ExistsByCode", ctx, "CLI-001").Return(true, nil)

	_, err := svc.CreateCustomer(ctx, CreateCustomerRequest{
		Code: "CLI-001",
		Name: "Client",
		Type: partner.CustomerTypeIndividual,
	})
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "CODE_TAKEN", derr.Code)

	customerRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCustomerService_GetCustomerDebt(t *testing.T) {
	svc, customerRepo, invoiceRepo := newService()
	ctx := context.Background()

	customer := fixtureCustomer(t)
	require.NoError(t, customer.SetCreditLimit(dec("1000")))

	customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	invoiceRepo.On("SumOutstandingByCustomer", ctx, customer.ID).Return(&billing.CustomerOutstanding{
		CustomerID:   customer.ID,
		TotalDebt:    dec("1700"),
		InvoiceCount: 2,
	}, nil)

	result, err := svc.GetCustomerDebt(ctx, customer.ID)
	require.NoError(t, err)

	assert.True(t, dec("1700").Equal(result.TotalDebt), "debt = %s", result.TotalDebt)
	assert.Equal(t, int64(2), result.InvoiceCount)
	assert.True(t, result.OverLimit, "1700 outstanding against a 1000 limit")
}

func TestCustomerService_GetCustomerDebt_NoUnpaidInvoices(t *testing.T) {
	svc, customerRepo, invoiceRepo := newService()
	ctx := context.Background()

	customer := fixtureCustomer(t)
	customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	invoiceRepo.On("SumOutstandingByCustomer", ctx, customer.ID).Return(&billing.CustomerOutstanding{
		CustomerID: customer.ID,
	}, nil)

	result, err := svc.GetCustomerDebt(ctx, customer.ID)
	require.NoError(t, err)

	assert.True(t, result.TotalDebt.IsZero())
	assert.Equal(t, int64(0), result.InvoiceCount)
	assert.False(t, result.OverLimit)
}

func TestCustomerService_ListCustomersWithDebt(t *testing.T) {
	svc, customerRepo, invoiceRepo := newService()
	ctx := context.Background()

	c1 := fixtureCustomer(t)
	c2, err := partner.NewCustomer("CLI-002", "EURL Khelifi", partner.CustomerTypeCompany)
	require.NoError(t, err)

	invoiceRepo.On("SumOutstandingGrouped", ctx).Return([]billing.CustomerOutstanding{
		{CustomerID: c1.ID, TotalDebt: dec("5000"), InvoiceCount: 3},
		{CustomerID: c2.ID, TotalDebt: dec("1200"), InvoiceCount: 1},
	}, nil)
	customerRepo.On("FindByIDs", ctx, mock.Anything).Return([]*partner.Customer{c1, c2}, nil)

	results, err := svc.ListCustomersWithDebt(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "SARL Benali Construction", results[0].CustomerName)
	assert.True(t, dec("5000").Equal(results[0].TotalDebt))
	assert.Equal(t, "EURL Khelifi", results[1].CustomerName)
}

func TestCustomerService_DeleteCustomer_BlockedByInvoices(t *testing.T) {
	svc, customerRepo, invoiceRepo := newService()
	ctx := context.Background()

	customer := fixtureCustomer(t)
	customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	invoiceRepo.On("CountByCustomer", ctx, customer.ID).Return(int64(4), nil)

	err := svc.DeleteCustomer(ctx, customer.ID)
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "HAS_INVOICES", derr.Code)

	customerRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCustomerService_DeleteCustomer_NoInvoices(t *testing.T) {
	svc, customerRepo, invoiceRepo := newService()
	ctx := context.Background()

	customer := fixtureCustomer(t)
	customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	invoiceRepo.On("CountByCustomer", ctx, customer.ID).Return(int64(0), nil)
	customerRepo.On("Delete", ctx, customer.ID).Return(nil)

	require.NoError(t, svc.DeleteCustomer(ctx, customer.ID))
	customerRepo.AssertExpectations(t)
}

func TestCustomerService_DeactivateCustomer_BlockedByUnpaidInvoices(t *testing.T) {
	svc, customerRepo, invoiceRepo := newService()
	ctx := context.Background()

	customer := fixtureCustomer(t)
	customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	invoiceRepo.On("SumOutstandingByCustomer", ctx, customer.ID).Return(&billing.CustomerOutstanding{
		CustomerID:   customer.ID,
		TotalDebt:    dec("12500"),
		InvoiceCount: 1,
	}, nil)

	_, err := svc.DeactivateCustomer(ctx, customer.ID)
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "HAS_UNPAID_INVOICES", derr.Code)

	assert.Equal(t, partner.CustomerStatusActive, customer.Status)
	customerRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCustomerService_DeactivateCustomer_NoDebt(t *testing.T) {
	svc, customerRepo, invoiceRepo := newService()
	ctx := context.Background()

	customer := fixtureCustomer(t)
	customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	invoiceRepo.On("SumOutstandingByCustomer", ctx, customer.ID).Return(&billing.CustomerOutstanding{
		CustomerID: customer.ID,
		TotalDebt:  decimal.Zero,
	}, nil)
	customerRepo.On("Save", ctx, customer).Return(nil)

	result, err := svc.DeactivateCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, partner.CustomerStatusInactive, result.Status)
	customerRepo.AssertExpectations(t)
}

func TestCustomerService_AddLoyaltyPoints(t *testing.T) {
	svc, customerRepo, _ := newService()
	ctx := context.Background()

	customer := fixtureCustomer(t)
	customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	customerRepo.On("Save", ctx, customer).Return(nil)

	result, err := svc.AddLoyaltyPoints(ctx, customer.ID, 750)
	require.NoError(t, err)
	assert.Equal(t, int64(750), result.LoyaltyPoints)
	assert.Equal(t, partner.LoyaltyTierSilver, result.LoyaltyTier)
}

func TestCustomerService_RedeemLoyaltyPoints(t *testing.T) {
	svc, customerRepo, _ := newService()
	ctx := context.Background()

	customer := fixtureCustomer(t)
	require.NoError(t, customer.AddLoyaltyPoints(600))
	customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	customerRepo.On("Save", ctx, customer).Return(nil)

	result, err := svc.RedeemLoyaltyPoints(ctx, customer.ID, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(400), result.LoyaltyPoints)
	assert.Equal(t, partner.LoyaltyTierBronze, result.LoyaltyTier)
}

func TestCustomerService_RedeemLoyaltyPoints_Insufficient(t *testing.T) {
	svc, customerRepo, _ := newService()
	ctx := context.Background()

	customer := fixtureCustomer(t)
	customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)

	_, err := svc.RedeemLoyaltyPoints(ctx, customer.ID, 200)
	assert.ErrorIs(t, err, shared.ErrInsufficientPoints)
	customerRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCustomerService_GetCustomer_NotFound(t *testing.T) {
	svc, customerRepo, _ := newService()
	ctx := context.Background()
	id := uuid.New()

	customerRepo.On("FindByID", ctx, id).Return(nil, nil)

	_, err := svc.GetCustomer(ctx, id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
