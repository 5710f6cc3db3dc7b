package catalog

import (
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductCreatedEvent is raised when a new product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	SalePrice decimal.Decimal `json:"sale_price"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ProductCreated", "Product", p.ID),
		ProductID:       p.ID,
		SKU:             p.SKU,
		Name:            p.Name,
		SalePrice:       p.SalePrice,
	}
}

// ProductStockChangedEvent is raised on every stock movement.
// Delta is positive for additions and negative for removals.
type ProductStockChangedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID   `json:"product_id"`
	SKU         string      `json:"sku"`
	Delta       int64       `json:"delta"`
	NewQuantity int64       `json:"new_quantity"`
	StockStatus StockStatus `json:"stock_status"`
}

// NewProductStockChangedEvent creates a new ProductStockChangedEvent
func NewProductStockChangedEvent(p *Product, delta int64) *ProductStockChangedEvent {
	return &ProductStockChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ProductStockChanged", "Product", p.ID),
		ProductID:       p.ID,
		SKU:             p.SKU,
		Delta:           delta,
		NewQuantity:     p.StockQuantity,
		StockStatus:     p.StockStatus(),
	}
}
