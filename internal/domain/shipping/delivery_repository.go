package shipping

import (
	"context"

	"github.com/gescom/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DeliveryFilter carries the query criteria for delivery listings
type DeliveryFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Status     *DeliveryStatus
	Wilaya     string
}

// DeliveryRepository defines the interface for delivery persistence
type DeliveryRepository interface {
	// FindByID loads a delivery with its status history
	FindByID(ctx context.Context, id uuid.UUID) (*Delivery, error)

	// FindByNumber loads a delivery by its business number
	FindByNumber(ctx context.Context, deliveryNumber string) (*Delivery, error)

	// FindByInvoice returns the deliveries fulfilling an invoice
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*Delivery, error)

	// FindAll returns a filtered, paginated delivery page
	FindAll(ctx context.Context, filter DeliveryFilter) (*shared.Paginated[*Delivery], error)

	// Save persists the delivery and appends new history entries
	Save(ctx context.Context, delivery *Delivery) error

	// Delete removes a pending delivery
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts deliveries matching the filter
	Count(ctx context.Context, filter DeliveryFilter) (int64, error)

	// NextDeliveryNumber allocates the next sequential number for the
	// year, formatted as BL<year>/<zero-padded sequence>
	NextDeliveryNumber(ctx context.Context, year int) (string, error)
}
