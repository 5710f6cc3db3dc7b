package partner

import (
	"context"

	"github.com/gescom/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerFilter carries the query criteria for customer listings
type CustomerFilter struct {
	shared.Filter
	Type   *CustomerType
	Status *CustomerStatus
	Wilaya string
}

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByID finds a customer by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByCode finds a customer by its code
	FindByCode(ctx context.Context, code string) (*Customer, error)

	// FindByNIF finds a customer by its fiscal identification number
	FindByNIF(ctx context.Context, nif string) (*Customer, error)

	// FindAll returns a filtered, paginated customer page
	FindAll(ctx context.Context, filter CustomerFilter) (*shared.Paginated[*Customer], error)

	// FindByIDs finds multiple customers by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Customer, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error

	// Delete removes a customer
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts customers matching the filter
	Count(ctx context.Context, filter CustomerFilter) (int64, error)

	// ExistsByCode checks if a customer with the given code exists
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// ExistsByNIF checks if a customer with the given NIF exists
	ExistsByNIF(ctx context.Context, nif string) (bool, error)
}
