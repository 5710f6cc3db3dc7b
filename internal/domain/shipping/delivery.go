package shipping

import (
	"fmt"
	"time"

	"github.com/gescom/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DeliveryStatus represents the status of a delivery
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusInTransit DeliveryStatus = "in_transit"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusCancelled DeliveryStatus = "cancelled"
)

// IsValid checks if the status is a valid DeliveryStatus
func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryStatusPending, DeliveryStatusInTransit, DeliveryStatusDelivered, DeliveryStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of DeliveryStatus
func (s DeliveryStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the delivery has reached a final state
func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryStatusDelivered || s == DeliveryStatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s DeliveryStatus) CanTransitionTo(target DeliveryStatus) bool {
	switch s {
	case DeliveryStatusPending:
		return target == DeliveryStatusInTransit || target == DeliveryStatusCancelled
	case DeliveryStatusInTransit:
		return target == DeliveryStatusDelivered || target == DeliveryStatusCancelled
	case DeliveryStatusDelivered, DeliveryStatusCancelled:
		return false
	}
	return false
}

// StatusChange is one entry in a delivery's append-only status history
type StatusChange struct {
	ID         uuid.UUID
	DeliveryID uuid.UUID
	FromStatus DeliveryStatus
	ToStatus   DeliveryStatus
	Note       string
	ChangedAt  time.Time
}

// Delivery represents a shipment of goods to a customer address.
// Every status transition is recorded in the history; entries are never
// rewritten.
type Delivery struct {
	shared.BaseAggregateRoot
	DeliveryNumber string
	InvoiceID      *uuid.UUID
	CustomerID     uuid.UUID
	CustomerName   string
	Address        string
	Wilaya         string
	Phone          string
	DriverName     string
	Status         DeliveryStatus
	History        []StatusChange
	ScheduledDate  *time.Time
	DeliveredAt    *time.Time
	Notes          string
}

// NewDelivery creates a new pending delivery
func NewDelivery(deliveryNumber string, customerID uuid.UUID, customerName, address, wilaya string) (*Delivery, error) {
	if deliveryNumber == "" {
		return nil, shared.NewDomainError("INVALID_DELIVERY_NUMBER", "Delivery number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if address == "" {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Delivery address cannot be empty")
	}

	d := &Delivery{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DeliveryNumber:    deliveryNumber,
		CustomerID:        customerID,
		CustomerName:      customerName,
		Address:           address,
		Wilaya:            wilaya,
		Status:            DeliveryStatusPending,
	}
	d.recordStatusChange("", DeliveryStatusPending, "created")

	d.AddDomainEvent(NewDeliveryCreatedEvent(d))

	return d, nil
}

// LinkInvoice associates the delivery with the invoice being fulfilled
func (d *Delivery) LinkInvoice(invoiceID uuid.UUID) error {
	if invoiceID == uuid.Nil {
		return shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}

	d.InvoiceID = &invoiceID
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return nil
}

// AssignDriver sets the driver responsible for the delivery
func (d *Delivery) AssignDriver(driverName string) error {
	if d.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot assign a driver to a %s delivery", d.Status))
	}
	if driverName == "" {
		return shared.NewDomainError("INVALID_DRIVER", "Driver name cannot be empty")
	}

	d.DriverName = driverName
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return nil
}

// Schedule sets the planned delivery date
func (d *Delivery) Schedule(date time.Time) error {
	if d.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot schedule a %s delivery", d.Status))
	}

	d.ScheduledDate = &date
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return nil
}

// StartTransit moves the delivery from pending to in transit
func (d *Delivery) StartTransit(note string) error {
	return d.transition(DeliveryStatusInTransit, note, func() {
		d.AddDomainEvent(NewDeliveryStatusChangedEvent(d, DeliveryStatusPending))
	})
}

// MarkDelivered completes the delivery
func (d *Delivery) MarkDelivered(note string) error {
	from := d.Status
	return d.transition(DeliveryStatusDelivered, note, func() {
		now := time.Now()
		d.DeliveredAt = &now
		d.AddDomainEvent(NewDeliveryStatusChangedEvent(d, from))
	})
}

// Cancel voids the delivery. Requires a note explaining the cancellation.
func (d *Delivery) Cancel(note string) error {
	if note == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel note is required")
	}
	from := d.Status
	return d.transition(DeliveryStatusCancelled, note, func() {
		d.AddDomainEvent(NewDeliveryStatusChangedEvent(d, from))
	})
}

func (d *Delivery) transition(target DeliveryStatus, note string, after func()) error {
	if !d.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot transition delivery from %s to %s", d.Status, target))
	}

	from := d.Status
	d.Status = target
	d.recordStatusChange(from, target, note)
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	if after != nil {
		after()
	}

	return nil
}

func (d *Delivery) recordStatusChange(from, to DeliveryStatus, note string) {
	d.History = append(d.History, StatusChange{
		ID:         uuid.New(),
		DeliveryID: d.ID,
		FromStatus: from,
		ToStatus:   to,
		Note:       note,
		ChangedAt:  time.Now(),
	})
}

// SetNotes sets the free-text notes
func (d *Delivery) SetNotes(notes string) {
	d.Notes = notes
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
}

// IsPending returns true while the delivery has not left the warehouse
func (d *Delivery) IsPending() bool {
	return d.Status == DeliveryStatusPending
}

// IsCompleted returns true once the goods reached the customer
func (d *Delivery) IsCompleted() bool {
	return d.Status == DeliveryStatusDelivered
}
