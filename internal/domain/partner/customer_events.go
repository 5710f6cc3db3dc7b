package partner

import (
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerCreatedEvent is raised when a new customer is created
type CustomerCreatedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID    `json:"customer_id"`
	Code       string       `json:"code"`
	Name       string       `json:"name"`
	Type       CustomerType `json:"type"`
}

// NewCustomerCreatedEvent creates a new CustomerCreatedEvent
func NewCustomerCreatedEvent(c *Customer) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CustomerCreated", "Customer", c.ID),
		CustomerID:      c.ID,
		Code:            c.Code,
		Name:            c.Name,
		Type:            c.Type,
	}
}

// CustomerUpdatedEvent is raised when customer information changes
type CustomerUpdatedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
}

// NewCustomerUpdatedEvent creates a new CustomerUpdatedEvent
func NewCustomerUpdatedEvent(c *Customer) *CustomerUpdatedEvent {
	return &CustomerUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CustomerUpdated", "Customer", c.ID),
		CustomerID:      c.ID,
		Code:            c.Code,
		Name:            c.Name,
	}
}

// CustomerStatusChangedEvent is raised on activation or deactivation
type CustomerStatusChangedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID      `json:"customer_id"`
	OldStatus  CustomerStatus `json:"old_status"`
	NewStatus  CustomerStatus `json:"new_status"`
}

// NewCustomerStatusChangedEvent creates a new CustomerStatusChangedEvent
func NewCustomerStatusChangedEvent(c *Customer, oldStatus, newStatus CustomerStatus) *CustomerStatusChangedEvent {
	return &CustomerStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CustomerStatusChanged", "Customer", c.ID),
		CustomerID:      c.ID,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// CustomerTierChangedEvent is raised when the loyalty tier crosses a
// threshold in either direction
type CustomerTierChangedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID   `json:"customer_id"`
	OldTier    LoyaltyTier `json:"old_tier"`
	NewTier    LoyaltyTier `json:"new_tier"`
	Points     int64       `json:"points"`
}

// NewCustomerTierChangedEvent creates a new CustomerTierChangedEvent
func NewCustomerTierChangedEvent(c *Customer, oldTier, newTier LoyaltyTier) *CustomerTierChangedEvent {
	return &CustomerTierChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CustomerTierChanged", "Customer", c.ID),
		CustomerID:      c.ID,
		OldTier:         oldTier,
		NewTier:         newTier,
		Points:          c.LoyaltyPoints,
	}
}
