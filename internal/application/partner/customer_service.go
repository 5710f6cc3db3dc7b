package partner

import (
	"context"
	"fmt"

	"github.com/gescom/backend/internal/domain/billing"
	"github.com/gescom/backend/internal/domain/partner"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerService coordinates customer management and the per-customer
// debt view over unpaid invoices.
type CustomerService struct {
	customerRepo partner.CustomerRepository
	invoiceRepo  billing.InvoiceRepository
	events       shared.EventPublisher
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo partner.CustomerRepository, invoiceRepo billing.InvoiceRepository) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		invoiceRepo:  invoiceRepo,
	}
}

// SetEventPublisher wires the bus the service publishes domain events to.
// Without one, events are dropped.
func (s *CustomerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.events = publisher
}

// CreateCustomer creates a new customer
func (s *CustomerService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*CustomerResult, error) {
	exists, err := s.customerRepo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check customer code: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError("CODE_TAKEN", fmt.Sprintf("Customer code %s is already in use", req.Code))
	}

	customer, err := partner.NewCustomer(req.Code, req.Name, req.Type)
	if err != nil {
		return nil, err
	}
	if err := s.applyDetails(customer, customerDetails{
		ContactName: req.ContactName, Phone: req.Phone, Email: req.Email,
		Address: req.Address, Wilaya: req.Wilaya, Daira: req.Daira, Commune: req.Commune,
		NIF: req.NIF, NIS: req.NIS, RC: req.RC,
	}); err != nil {
		return nil, err
	}
	if req.CreditLimit != nil {
		if err := customer.SetCreditLimit(*req.CreditLimit); err != nil {
			return nil, err
		}
	}
	if req.Notes != "" {
		customer.SetNotes(req.Notes)
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}
	shared.PublishEvents(ctx, s.events, customer)

	return toCustomerResult(customer), nil
}

type customerDetails struct {
	ContactName, Phone, Email       string
	Address, Wilaya, Daira, Commune string
	NIF, NIS, RC                    string
}

func (s *CustomerService) applyDetails(customer *partner.Customer, d customerDetails) error {
	if d.ContactName != "" || d.Phone != "" || d.Email != "" {
		if err := customer.SetContact(d.ContactName, d.Phone, d.Email); err != nil {
			return err
		}
	}
	if d.Address != "" || d.Wilaya != "" || d.Daira != "" || d.Commune != "" {
		if err := customer.SetAddress(d.Address, d.Wilaya, d.Daira, d.Commune); err != nil {
			return err
		}
	}
	if d.NIF != "" || d.NIS != "" || d.RC != "" {
		if err := customer.SetFiscalIdentifiers(d.NIF, d.NIS, d.RC); err != nil {
			return err
		}
	}
	return nil
}

// GetCustomer returns one customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*CustomerResult, error) {
	customer, err := s.findCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCustomerResult(customer), nil
}

// ListCustomers returns a filtered, paginated customer page
func (s *CustomerService) ListCustomers(ctx context.Context, query ListCustomersQuery) (*shared.Paginated[*CustomerResult], error) {
	filter := partner.CustomerFilter{
		Filter: shared.DefaultFilter(),
		Type:   query.Type,
		Status: query.Status,
		Wilaya: query.Wilaya,
	}
	if query.Page > 0 {
		filter.Page = query.Page
	}
	if query.PageSize > 0 {
		filter.PageSize = query.PageSize
	}
	filter.Search = query.Search

	page, err := s.customerRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	results := make([]*CustomerResult, len(page.Items))
	for i, c := range page.Items {
		results[i] = toCustomerResult(c)
	}
	out := shared.NewPaginated(results, page.Total, page.Page, page.PageSize)
	return &out, nil
}

// UpdateCustomer updates a customer's details
func (s *CustomerService) UpdateCustomer(ctx context.Context, req UpdateCustomerRequest) (*CustomerResult, error) {
	customer, err := s.findCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	if err := customer.Update(req.Name, req.Type); err != nil {
		return nil, err
	}
	if err := s.applyDetails(customer, customerDetails{
		ContactName: req.ContactName, Phone: req.Phone, Email: req.Email,
		Address: req.Address, Wilaya: req.Wilaya, Daira: req.Daira, Commune: req.Commune,
		NIF: req.NIF, NIS: req.NIS, RC: req.RC,
	}); err != nil {
		return nil, err
	}
	if req.CreditLimit != nil {
		if err := customer.SetCreditLimit(*req.CreditLimit); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		customer.SetNotes(*req.Notes)
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}

	return toCustomerResult(customer), nil
}

// DeactivateCustomer deactivates a customer without touching its history.
// Deactivation is blocked while the customer still owes money; the debt has
// to be collected or the invoices cancelled first.
func (s *CustomerService) DeactivateCustomer(ctx context.Context, id uuid.UUID) (*CustomerResult, error) {
	customer, err := s.findCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	outstanding, err := s.invoiceRepo.SumOutstandingByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum outstanding: %w", err)
	}
	if outstanding.InvoiceCount > 0 {
		return nil, shared.NewDomainError("HAS_UNPAID_INVOICES", "Cannot deactivate a customer with unpaid invoices")
	}

	if err := customer.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}
	shared.PublishEvents(ctx, s.events, customer)
	return toCustomerResult(customer), nil
}

// ActivateCustomer reactivates a customer
func (s *CustomerService) ActivateCustomer(ctx context.Context, id uuid.UUID) (*CustomerResult, error) {
	customer, err := s.findCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := customer.Activate(); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}
	shared.PublishEvents(ctx, s.events, customer)
	return toCustomerResult(customer), nil
}

// DeleteCustomer removes a customer. Deletion is blocked while the customer
// has invoices on the books.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	customer, err := s.findCustomer(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.invoiceRepo.CountByCustomer(ctx, customer.ID)
	if err != nil {
		return fmt.Errorf("failed to count invoices: %w", err)
	}
	if count > 0 {
		return shared.NewDomainError("HAS_INVOICES", "Cannot delete a customer with invoices; deactivate instead")
	}

	if err := s.customerRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}

// GetCustomerDebt aggregates the customer's outstanding balance over
// pending, partial and overdue invoices. Cancelled and paid invoices
// contribute nothing.
func (s *CustomerService) GetCustomerDebt(ctx context.Context, id uuid.UUID) (*CustomerDebtResult, error) {
	customer, err := s.findCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	outstanding, err := s.invoiceRepo.SumOutstandingByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum outstanding: %w", err)
	}

	result := &CustomerDebtResult{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		CreditLimit:  customer.CreditLimit,
	}
	if outstanding != nil {
		result.TotalDebt = outstanding.TotalDebt
		result.InvoiceCount = outstanding.InvoiceCount
		result.OverLimit = customer.HasCreditLimit() && outstanding.TotalDebt.GreaterThan(customer.CreditLimit)
	}
	return result, nil
}

// ListCustomersWithDebt returns the debt view for every customer carrying
// an outstanding balance, largest debt first.
func (s *CustomerService) ListCustomersWithDebt(ctx context.Context) ([]*CustomerDebtResult, error) {
	grouped, err := s.invoiceRepo.SumOutstandingGrouped(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum outstanding: %w", err)
	}
	if len(grouped) == 0 {
		return []*CustomerDebtResult{}, nil
	}

	ids := make([]uuid.UUID, len(grouped))
	for i, g := range grouped {
		ids[i] = g.CustomerID
	}
	customers, err := s.customerRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get customers: %w", err)
	}
	byID := make(map[uuid.UUID]*partner.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}

	results := make([]*CustomerDebtResult, 0, len(grouped))
	for _, g := range grouped {
		r := &CustomerDebtResult{
			CustomerID:   g.CustomerID,
			TotalDebt:    g.TotalDebt,
			InvoiceCount: g.InvoiceCount,
		}
		if c, ok := byID[g.CustomerID]; ok {
			r.CustomerName = c.Name
			r.CreditLimit = c.CreditLimit
			r.OverLimit = c.HasCreditLimit() && g.TotalDebt.GreaterThan(c.CreditLimit)
		}
		results = append(results, r)
	}
	return results, nil
}

// AddLoyaltyPoints credits points outside the payment flow, for manual
// adjustments and promotions.
func (s *CustomerService) AddLoyaltyPoints(ctx context.Context, id uuid.UUID, points int64) (*CustomerResult, error) {
	customer, err := s.findCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := customer.AddLoyaltyPoints(points); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}
	shared.PublishEvents(ctx, s.events, customer)
	return toCustomerResult(customer), nil
}

// RedeemLoyaltyPoints deducts points from the customer's balance
func (s *CustomerService) RedeemLoyaltyPoints(ctx context.Context, id uuid.UUID, points int64) (*CustomerResult, error) {
	customer, err := s.findCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := customer.RedeemLoyaltyPoints(points); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}
	shared.PublishEvents(ctx, s.events, customer)
	return toCustomerResult(customer), nil
}

func (s *CustomerService) findCustomer(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	if customer == nil {
		return nil, shared.ErrNotFound
	}
	return customer, nil
}
