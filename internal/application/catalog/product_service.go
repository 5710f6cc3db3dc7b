package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/gescom/backend/internal/domain/catalog"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest is the input for product creation
type CreateProductRequest struct {
	SKU           string
	Name          string
	Description   string
	Category      string
	Barcode       string
	Unit          string
	CostPrice     *decimal.Decimal
	SalePrice     decimal.Decimal
	InitialStock  int64
	MinStockLevel int64
	ExpiryDate    *time.Time
}

// UpdateProductRequest is the input for product updates
type UpdateProductRequest struct {
	ProductID     uuid.UUID
	Name          string
	Description   string
	Category      string
	Barcode       string
	Unit          string
	CostPrice     *decimal.Decimal
	SalePrice     *decimal.Decimal
	MinStockLevel *int64
	ExpiryDate    *time.Time
}

// AdjustStockRequest is the input for a stock movement.
// Positive Delta adds stock, negative Delta removes it.
type AdjustStockRequest struct {
	ProductID uuid.UUID
	Delta     int64
}

// ListProductsQuery carries listing criteria from the transport layer
type ListProductsQuery struct {
	Page     int
	PageSize int
	Search   string
	Category string
	Status   *catalog.ProductStatus
	LowStock bool
}

// ProductResult is the service-level view of a product
type ProductResult struct {
	ID            uuid.UUID              `json:"id"`
	SKU           string                 `json:"sku"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description,omitempty"`
	Category      string                 `json:"category,omitempty"`
	Barcode       string                 `json:"barcode,omitempty"`
	Unit          string                 `json:"unit"`
	CostPrice     decimal.Decimal        `json:"cost_price"`
	SalePrice     decimal.Decimal        `json:"sale_price"`
	StockQuantity int64                  `json:"stock_quantity"`
	MinStockLevel int64                  `json:"min_stock_level"`
	StockStatus   catalog.StockStatus    `json:"stock_status"`
	ExpiryDate    *time.Time             `json:"expiry_date,omitempty"`
	Status        catalog.ProductStatus  `json:"status"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func toProductResult(p *catalog.Product) *ProductResult {
	return &ProductResult{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Barcode:       p.Barcode,
		Unit:          p.Unit,
		CostPrice:     p.CostPrice,
		SalePrice:     p.SalePrice,
		StockQuantity: p.StockQuantity,
		MinStockLevel: p.MinStockLevel,
		StockStatus:   p.StockStatus(),
		ExpiryDate:    p.ExpiryDate,
		Status:        p.Status,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// ProductService coordinates catalog management and stock movements
type ProductService struct {
	productRepo catalog.ProductRepository
	events      shared.EventPublisher
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// SetEventPublisher wires the bus the service publishes domain events to.
// Without one, events are dropped.
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.events = publisher
}

// CreateProduct creates a new product
func (s *ProductService) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResult, error) {
	exists, err := s.productRepo.ExistsBySKU(ctx, req.SKU)
	if err != nil {
		return nil, fmt.Errorf("failed to check SKU: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError("SKU_TAKEN", fmt.Sprintf("SKU %s is already in use", req.SKU))
	}

	product, err := catalog.NewProduct(req.SKU, req.Name, req.SalePrice)
	if err != nil {
		return nil, err
	}
	if req.Description != "" || req.Category != "" {
		if err := product.Update(req.Name, req.Description, req.Category); err != nil {
			return nil, err
		}
	}
	if req.Barcode != "" {
		if err := product.SetBarcode(req.Barcode); err != nil {
			return nil, err
		}
	}
	if req.Unit != "" {
		if err := product.SetUnit(req.Unit); err != nil {
			return nil, err
		}
	}
	if req.CostPrice != nil {
		if err := product.SetPrices(*req.CostPrice, req.SalePrice); err != nil {
			return nil, err
		}
	}
	if req.MinStockLevel > 0 {
		if err := product.SetMinStockLevel(req.MinStockLevel); err != nil {
			return nil, err
		}
	}
	if req.ExpiryDate != nil {
		product.SetExpiryDate(req.ExpiryDate)
	}
	if req.InitialStock > 0 {
		if err := product.AddStock(req.InitialStock); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	shared.PublishEvents(ctx, s.events, product)

	return toProductResult(product), nil
}

// GetProduct returns one product by ID
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductResult, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductResult(product), nil
}

// GetProductBySKU returns one product by SKU
func (s *ProductService) GetProductBySKU(ctx context.Context, sku string) (*ProductResult, error) {
	product, err := s.productRepo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, shared.ErrNotFound
	}
	return toProductResult(product), nil
}

// GetProductByBarcode returns the product carrying the given barcode
func (s *ProductService) GetProductByBarcode(ctx context.Context, barcode string) (*ProductResult, error) {
	product, err := s.productRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, shared.ErrNotFound
	}
	return toProductResult(product), nil
}

// defaultExpiryWindowDays is the look-ahead used when no window is given
const defaultExpiryWindowDays = 30

// ListExpiringProducts returns active products whose expiry date falls
// within the next withinDays days, including those already expired,
// soonest first
func (s *ProductService) ListExpiringProducts(ctx context.Context, withinDays int) ([]*ProductResult, error) {
	if withinDays <= 0 {
		withinDays = defaultExpiryWindowDays
	}
	cutoff := time.Now().AddDate(0, 0, withinDays)

	products, err := s.productRepo.FindExpiring(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring products: %w", err)
	}

	results := make([]*ProductResult, len(products))
	for i, p := range products {
		results[i] = toProductResult(p)
	}
	return results, nil
}

// ListProducts returns a filtered, paginated product page
func (s *ProductService) ListProducts(ctx context.Context, query ListProductsQuery) (*shared.Paginated[*ProductResult], error) {
	filter := catalog.ProductFilter{
		Filter:   shared.DefaultFilter(),
		Category: query.Category,
		Status:   query.Status,
		LowStock: query.LowStock,
	}
	if query.Page > 0 {
		filter.Page = query.Page
	}
	if query.PageSize > 0 {
		filter.PageSize = query.PageSize
	}
	filter.Search = query.Search

	page, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	results := make([]*ProductResult, len(page.Items))
	for i, p := range page.Items {
		results[i] = toProductResult(p)
	}
	out := shared.NewPaginated(results, page.Total, page.Page, page.PageSize)
	return &out, nil
}

// UpdateProduct updates a product's details
func (s *ProductService) UpdateProduct(ctx context.Context, req UpdateProductRequest) (*ProductResult, error) {
	product, err := s.findProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	if err := product.Update(req.Name, req.Description, req.Category); err != nil {
		return nil, err
	}
	if req.Barcode != "" {
		if err := product.SetBarcode(req.Barcode); err != nil {
			return nil, err
		}
	}
	if req.Unit != "" {
		if err := product.SetUnit(req.Unit); err != nil {
			return nil, err
		}
	}
	if req.CostPrice != nil || req.SalePrice != nil {
		cost := product.CostPrice
		sale := product.SalePrice
		if req.CostPrice != nil {
			cost = *req.CostPrice
		}
		if req.SalePrice != nil {
			sale = *req.SalePrice
		}
		if err := product.SetPrices(cost, sale); err != nil {
			return nil, err
		}
	}
	if req.MinStockLevel != nil {
		if err := product.SetMinStockLevel(*req.MinStockLevel); err != nil {
			return nil, err
		}
	}
	if req.ExpiryDate != nil {
		product.SetExpiryDate(req.ExpiryDate)
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	shared.PublishEvents(ctx, s.events, product)

	return toProductResult(product), nil
}

// AdjustStock applies a stock movement with optimistic locking so two
// concurrent adjustments cannot lose an update or drive stock negative.
func (s *ProductService) AdjustStock(ctx context.Context, req AdjustStockRequest) (*ProductResult, error) {
	if req.Delta == 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Stock delta cannot be zero")
	}

	product, err := s.findProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	expectedVersion := product.Version

	if req.Delta > 0 {
		err = product.AddStock(req.Delta)
	} else {
		err = product.RemoveStock(-req.Delta)
	}
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.SaveWithLock(ctx, product, expectedVersion); err != nil {
		return nil, err
	}
	shared.PublishEvents(ctx, s.events, product)

	return toProductResult(product), nil
}

// DeactivateProduct removes the product from sale without deleting it
func (s *ProductService) DeactivateProduct(ctx context.Context, id uuid.UUID) (*ProductResult, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	shared.PublishEvents(ctx, s.events, product)
	return toProductResult(product), nil
}

// ActivateProduct returns the product to sale
func (s *ProductService) ActivateProduct(ctx context.Context, id uuid.UUID) (*ProductResult, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.Activate(); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	shared.PublishEvents(ctx, s.events, product)
	return toProductResult(product), nil
}

// DeleteProduct removes a product from the catalog
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findProduct(ctx, id); err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func (s *ProductService) findProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, shared.ErrNotFound
	}
	return product, nil
}
