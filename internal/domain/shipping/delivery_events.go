package shipping

import (
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DeliveryCreatedEvent is raised when a new delivery is created
type DeliveryCreatedEvent struct {
	shared.BaseDomainEvent
	DeliveryID     uuid.UUID `json:"delivery_id"`
	DeliveryNumber string    `json:"delivery_number"`
	CustomerID     uuid.UUID `json:"customer_id"`
	Wilaya         string    `json:"wilaya"`
}

// NewDeliveryCreatedEvent creates a new DeliveryCreatedEvent
func NewDeliveryCreatedEvent(d *Delivery) *DeliveryCreatedEvent {
	return &DeliveryCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DeliveryCreated", "Delivery", d.ID),
		DeliveryID:      d.ID,
		DeliveryNumber:  d.DeliveryNumber,
		CustomerID:      d.CustomerID,
		Wilaya:          d.Wilaya,
	}
}

// DeliveryStatusChangedEvent is raised on every status transition
type DeliveryStatusChangedEvent struct {
	shared.BaseDomainEvent
	DeliveryID     uuid.UUID      `json:"delivery_id"`
	DeliveryNumber string         `json:"delivery_number"`
	FromStatus     DeliveryStatus `json:"from_status"`
	ToStatus       DeliveryStatus `json:"to_status"`
}

// NewDeliveryStatusChangedEvent creates a new DeliveryStatusChangedEvent
func NewDeliveryStatusChangedEvent(d *Delivery, from DeliveryStatus) *DeliveryStatusChangedEvent {
	return &DeliveryStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DeliveryStatusChanged", "Delivery", d.ID),
		DeliveryID:      d.ID,
		DeliveryNumber:  d.DeliveryNumber,
		FromStatus:      from,
		ToStatus:        d.Status,
	}
}
