package catalog

import (
	"context"
	"time"

	"github.com/gescom/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductFilter carries the query criteria for product listings
type ProductFilter struct {
	shared.Filter
	Category string
	Status   *ProductStatus
	LowStock bool // only products at or below their minimum stock level
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindBySKU finds a product by its SKU
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// FindByBarcode finds a product by its barcode
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)

	// FindAll returns a filtered, paginated product page
	FindAll(ctx context.Context, filter ProductFilter) (*shared.Paginated[*Product], error)

	// FindByIDs finds multiple products by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Product, error)

	// FindExpiring returns active products whose expiry date falls on or
	// before the given cutoff, soonest first. Products without an expiry
	// date are not returned.
	FindExpiring(ctx context.Context, cutoff time.Time) ([]*Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// SaveWithLock saves a product only if the stored version matches.
	// Returns shared.ErrConcurrencyConflict on a stale version.
	SaveWithLock(ctx context.Context, product *Product, expectedVersion int) error

	// Delete removes a product
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts products matching the filter
	Count(ctx context.Context, filter ProductFilter) (int64, error)

	// ExistsBySKU checks if a product with the given SKU exists
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
}
