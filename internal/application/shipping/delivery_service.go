package shipping

import (
	"context"
	"fmt"
	"time"

	"github.com/gescom/backend/internal/domain/billing"
	"github.com/gescom/backend/internal/domain/partner"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/shipping"
	"github.com/google/uuid"
)

// CreateDeliveryRequest is the input for delivery creation. When Address or
// Wilaya are empty they default to the customer's registered address.
type CreateDeliveryRequest struct {
	CustomerID    uuid.UUID
	InvoiceID     *uuid.UUID
	Address       string
	Wilaya        string
	Phone         string
	DriverName    string
	ScheduledDate *time.Time
	Notes         string
}

// ListDeliveriesQuery carries listing criteria from the transport layer
type ListDeliveriesQuery struct {
	Page       int
	PageSize   int
	Search     string
	CustomerID *uuid.UUID
	Status     *shipping.DeliveryStatus
	Wilaya     string
}

// StatusChangeResult is one history entry in a DeliveryResult
type StatusChangeResult struct {
	FromStatus shipping.DeliveryStatus `json:"from_status,omitempty"`
	ToStatus   shipping.DeliveryStatus `json:"to_status"`
	Note       string                  `json:"note,omitempty"`
	ChangedAt  time.Time               `json:"changed_at"`
}

// DeliveryResult is the service-level view of a delivery
type DeliveryResult struct {
	ID             uuid.UUID               `json:"id"`
	DeliveryNumber string                  `json:"delivery_number"`
	InvoiceID      *uuid.UUID              `json:"invoice_id,omitempty"`
	CustomerID     uuid.UUID               `json:"customer_id"`
	CustomerName   string                  `json:"customer_name"`
	Address        string                  `json:"address"`
	Wilaya         string                  `json:"wilaya,omitempty"`
	Phone          string                  `json:"phone,omitempty"`
	DriverName     string                  `json:"driver_name,omitempty"`
	Status         shipping.DeliveryStatus `json:"status"`
	History        []StatusChangeResult    `json:"history"`
	ScheduledDate  *time.Time              `json:"scheduled_date,omitempty"`
	DeliveredAt    *time.Time              `json:"delivered_at,omitempty"`
	Notes          string                  `json:"notes,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

func toDeliveryResult(d *shipping.Delivery) *DeliveryResult {
	history := make([]StatusChangeResult, len(d.History))
	for i, h := range d.History {
		history[i] = StatusChangeResult{
			FromStatus: h.FromStatus,
			ToStatus:   h.ToStatus,
			Note:       h.Note,
			ChangedAt:  h.ChangedAt,
		}
	}
	return &DeliveryResult{
		ID:             d.ID,
		DeliveryNumber: d.DeliveryNumber,
		InvoiceID:      d.InvoiceID,
		CustomerID:     d.CustomerID,
		CustomerName:   d.CustomerName,
		Address:        d.Address,
		Wilaya:         d.Wilaya,
		Phone:          d.Phone,
		DriverName:     d.DriverName,
		Status:         d.Status,
		History:        history,
		ScheduledDate:  d.ScheduledDate,
		DeliveredAt:    d.DeliveredAt,
		Notes:          d.Notes,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// DeliveryService coordinates delivery management
type DeliveryService struct {
	deliveryRepo shipping.DeliveryRepository
	customerRepo partner.CustomerRepository
	invoiceRepo  billing.InvoiceRepository
	events       shared.EventPublisher
}

// NewDeliveryService creates a new DeliveryService
func NewDeliveryService(
	deliveryRepo shipping.DeliveryRepository,
	customerRepo partner.CustomerRepository,
	invoiceRepo billing.InvoiceRepository,
) *DeliveryService {
	return &DeliveryService{
		deliveryRepo: deliveryRepo,
		customerRepo: customerRepo,
		invoiceRepo:  invoiceRepo,
	}
}

// SetEventPublisher wires the bus the service publishes domain events to.
// Without one, events are dropped.
func (s *DeliveryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.events = publisher
}

// CreateDelivery creates a new pending delivery
func (s *DeliveryService) CreateDelivery(ctx context.Context, req CreateDeliveryRequest) (*DeliveryResult, error) {
	customer, err := s.customerRepo.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	if customer == nil {
		return nil, shared.NewDomainError("CUSTOMER_NOT_FOUND", "Customer not found")
	}

	address := req.Address
	if address == "" {
		address = customer.Address
	}
	wilaya := req.Wilaya
	if wilaya == "" {
		wilaya = customer.Wilaya
	}

	number, err := s.deliveryRepo.NextDeliveryNumber(ctx, time.Now().Year())
	if err != nil {
		return nil, fmt.Errorf("failed to allocate delivery number: %w", err)
	}

	delivery, err := shipping.NewDelivery(number, customer.ID, customer.Name, address, wilaya)
	if err != nil {
		return nil, err
	}
	delivery.Phone = req.Phone

	if req.InvoiceID != nil {
		invoice, err := s.invoiceRepo.FindByID(ctx, *req.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("failed to get invoice: %w", err)
		}
		if invoice == nil {
			return nil, shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
		}
		if invoice.CustomerID != customer.ID {
			return nil, shared.NewDomainError("INVOICE_MISMATCH", "Invoice belongs to a different customer")
		}
		if err := delivery.LinkInvoice(invoice.ID); err != nil {
			return nil, err
		}
	}
	if req.DriverName != "" {
		if err := delivery.AssignDriver(req.DriverName); err != nil {
			return nil, err
		}
	}
	if req.ScheduledDate != nil {
		if err := delivery.Schedule(*req.ScheduledDate); err != nil {
			return nil, err
		}
	}
	if req.Notes != "" {
		delivery.SetNotes(req.Notes)
	}

	if err := s.deliveryRepo.Save(ctx, delivery); err != nil {
		return nil, fmt.Errorf("failed to save delivery: %w", err)
	}
	shared.PublishEvents(ctx, s.events, delivery)

	return toDeliveryResult(delivery), nil
}

// GetDelivery returns one delivery with its status history
func (s *DeliveryService) GetDelivery(ctx context.Context, id uuid.UUID) (*DeliveryResult, error) {
	delivery, err := s.findDelivery(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDeliveryResult(delivery), nil
}

// TrackingResult is the public view of a delivery. It carries no address,
// phone or customer identifiers; anyone holding the delivery number may
// query it.
type TrackingResult struct {
	DeliveryNumber string                  `json:"delivery_number"`
	Status         shipping.DeliveryStatus `json:"status"`
	Wilaya         string                  `json:"wilaya,omitempty"`
	History        []StatusChangeResult    `json:"history"`
	ScheduledDate  *time.Time              `json:"scheduled_date,omitempty"`
	DeliveredAt    *time.Time              `json:"delivered_at,omitempty"`
}

// TrackDelivery resolves a delivery number to its tracking view
func (s *DeliveryService) TrackDelivery(ctx context.Context, deliveryNumber string) (*TrackingResult, error) {
	delivery, err := s.deliveryRepo.FindByNumber(ctx, deliveryNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}
	if delivery == nil {
		return nil, shared.ErrNotFound
	}

	// internal notes stay off the public view
	history := make([]StatusChangeResult, len(delivery.History))
	for i, h := range delivery.History {
		history[i] = StatusChangeResult{
			FromStatus: h.FromStatus,
			ToStatus:   h.ToStatus,
			ChangedAt:  h.ChangedAt,
		}
	}
	return &TrackingResult{
		DeliveryNumber: delivery.DeliveryNumber,
		Status:         delivery.Status,
		Wilaya:         delivery.Wilaya,
		History:        history,
		ScheduledDate:  delivery.ScheduledDate,
		DeliveredAt:    delivery.DeliveredAt,
	}, nil
}

// ListDeliveries returns a filtered, paginated delivery page
func (s *DeliveryService) ListDeliveries(ctx context.Context, query ListDeliveriesQuery) (*shared.Paginated[*DeliveryResult], error) {
	filter := shipping.DeliveryFilter{
		Filter:     shared.DefaultFilter(),
		CustomerID: query.CustomerID,
		Status:     query.Status,
		Wilaya:     query.Wilaya,
	}
	if query.Page > 0 {
		filter.Page = query.Page
	}
	if query.PageSize > 0 {
		filter.PageSize = query.PageSize
	}
	filter.Search = query.Search

	page, err := s.deliveryRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}

	results := make([]*DeliveryResult, len(page.Items))
	for i, d := range page.Items {
		results[i] = toDeliveryResult(d)
	}
	out := shared.NewPaginated(results, page.Total, page.Page, page.PageSize)
	return &out, nil
}

// StartTransit moves a pending delivery onto the road
func (s *DeliveryService) StartTransit(ctx context.Context, id uuid.UUID, note string) (*DeliveryResult, error) {
	return s.applyTransition(ctx, id, func(d *shipping.Delivery) error {
		return d.StartTransit(note)
	})
}

// MarkDelivered completes a delivery
func (s *DeliveryService) MarkDelivered(ctx context.Context, id uuid.UUID, note string) (*DeliveryResult, error) {
	return s.applyTransition(ctx, id, func(d *shipping.Delivery) error {
		return d.MarkDelivered(note)
	})
}

// CancelDelivery voids a delivery that has not been completed
func (s *DeliveryService) CancelDelivery(ctx context.Context, id uuid.UUID, note string) (*DeliveryResult, error) {
	return s.applyTransition(ctx, id, func(d *shipping.Delivery) error {
		return d.Cancel(note)
	})
}

// AssignDriver sets the driver on a non-terminal delivery
func (s *DeliveryService) AssignDriver(ctx context.Context, id uuid.UUID, driverName string) (*DeliveryResult, error) {
	return s.applyTransition(ctx, id, func(d *shipping.Delivery) error {
		return d.AssignDriver(driverName)
	})
}

func (s *DeliveryService) applyTransition(ctx context.Context, id uuid.UUID, fn func(*shipping.Delivery) error) (*DeliveryResult, error) {
	delivery, err := s.findDelivery(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(delivery); err != nil {
		return nil, err
	}
	if err := s.deliveryRepo.Save(ctx, delivery); err != nil {
		return nil, fmt.Errorf("failed to save delivery: %w", err)
	}
	shared.PublishEvents(ctx, s.events, delivery)
	return toDeliveryResult(delivery), nil
}

func (s *DeliveryService) findDelivery(ctx context.Context, id uuid.UUID) (*shipping.Delivery, error) {
	delivery, err := s.deliveryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}
	if delivery == nil {
		return nil, shared.ErrNotFound
	}
	return delivery, nil
}
