package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/shipping"
	"github.com/gescom/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDeliveryRepository implements DeliveryRepository using GORM
type GormDeliveryRepository struct {
	db *gorm.DB
}

// NewGormDeliveryRepository creates a new GormDeliveryRepository
func NewGormDeliveryRepository(db *gorm.DB) *GormDeliveryRepository {
	return &GormDeliveryRepository{db: db}
}

var _ shipping.DeliveryRepository = (*GormDeliveryRepository)(nil)

// FindByID loads a delivery with its status history
func (r *GormDeliveryRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.Delivery, error) {
	var model models.DeliveryModel
	if err := r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("changed_at ASC") }).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber loads a delivery by its business number
func (r *GormDeliveryRepository) FindByNumber(ctx context.Context, deliveryNumber string) (*shipping.Delivery, error) {
	var model models.DeliveryModel
	if err := r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("changed_at ASC") }).
		Where("delivery_number = ?", deliveryNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoice returns the deliveries fulfilling an invoice
func (r *GormDeliveryRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*shipping.Delivery, error) {
	var deliveryModels []models.DeliveryModel
	if err := r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("changed_at ASC") }).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&deliveryModels).Error; err != nil {
		return nil, err
	}
	return toDeliveries(deliveryModels), nil
}

// FindAll returns a filtered, paginated delivery page
func (r *GormDeliveryRepository) FindAll(ctx context.Context, filter shipping.DeliveryFilter) (*shared.Paginated[*shipping.Delivery], error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DeliveryModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var deliveryModels []models.DeliveryModel
	if err := query.
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("changed_at ASC") }).
		Order(orderClause(filter.Filter, deliverySortFields)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&deliveryModels).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(toDeliveries(deliveryModels), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Save persists the delivery and appends new history entries. History rows
// are immutable, so existing entries are skipped on conflict.
func (r *GormDeliveryRepository) Save(ctx context.Context, delivery *shipping.Delivery) error {
	model := models.DeliveryModelFromDomain(delivery)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("History").Clauses(clause.OnConflict{UpdateAll: true}).Create(model).Error; err != nil {
			return err
		}
		if len(model.History) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.History).Error
	})
}

// Delete removes a pending delivery and its history
func (r *GormDeliveryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("delivery_id = ?", id).Delete(&models.DeliveryStatusChangeModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.DeliveryModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Count counts deliveries matching the filter
func (r *GormDeliveryRepository) Count(ctx context.Context, filter shipping.DeliveryFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.DeliveryModel{}), filter).
		Count(&count).Error
	return count, err
}

// NextDeliveryNumber allocates the next BL<year>/<seq> number, restarting
// at 1 each year
func (r *GormDeliveryRepository) NextDeliveryNumber(ctx context.Context, year int) (string, error) {
	prefix := fmt.Sprintf("BL%d/", year)

	var last *string
	err := r.db.WithContext(ctx).Model(&models.DeliveryModel{}).
		Select("MAX(delivery_number)").
		Where("delivery_number LIKE ?", prefix+"%").
		Scan(&last).Error
	if err != nil {
		return "", err
	}

	seq := 1
	if last != nil && *last != "" {
		parsed, err := strconv.Atoi(strings.TrimPrefix(*last, prefix))
		if err != nil {
			return "", fmt.Errorf("malformed delivery number %q: %w", *last, err)
		}
		seq = parsed + 1
	}
	return fmt.Sprintf("%s%05d", prefix, seq), nil
}

func (r *GormDeliveryRepository) applyFilter(query *gorm.DB, filter shipping.DeliveryFilter) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Wilaya != "" {
		query = query.Where("wilaya = ?", filter.Wilaya)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("delivery_number ILIKE ? OR customer_name ILIKE ? OR driver_name ILIKE ?", search, search, search)
	}
	return query
}

func toDeliveries(deliveryModels []models.DeliveryModel) []*shipping.Delivery {
	deliveries := make([]*shipping.Delivery, len(deliveryModels))
	for i := range deliveryModels {
		deliveries[i] = deliveryModels[i].ToDomain()
	}
	return deliveries
}
