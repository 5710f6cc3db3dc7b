package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gescom/backend/internal/domain/billing"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM.
// The ledger is append-only; there is no update path.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)

// Save appends a payment to the ledger
func (r *GormPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	return r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(payment)).Error
}

// FindByID loads a single payment
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoice returns the payments of one invoice in recording order
func (r *GormPaymentRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*billing.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	return toPayments(paymentModels), nil
}

// FindByCustomer returns a customer's payments, newest first
func (r *GormPaymentRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[*billing.Payment], error) {
	return r.findPage(ctx, filter, r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("customer_id = ?", customerID))
}

// FindAll returns a paginated payment page
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*billing.Payment], error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{})
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("payment_number ILIKE ? OR invoice_number ILIKE ?", search, search)
	}
	return r.findPage(ctx, filter, query)
}

// SumByInvoice returns the ledger total recorded against an invoice
func (r *GormPaymentRepository) SumByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("invoice_id = ?", invoiceID).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// NextPaymentNumber allocates the next P<year>/<seq> number. The sequence
// restarts at 1 each year; zero padding keeps lexicographic and numeric
// order aligned so MAX() is safe.
func (r *GormPaymentRepository) NextPaymentNumber(ctx context.Context, year int) (string, error) {
	prefix := fmt.Sprintf("P%d/", year)

	var last *string
	err := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Select("MAX(payment_number)").
		Where("payment_number LIKE ?", prefix+"%").
		Scan(&last).Error
	if err != nil {
		return "", err
	}

	seq := 1
	if last != nil && *last != "" {
		parsed, err := strconv.Atoi(strings.TrimPrefix(*last, prefix))
		if err != nil {
			return "", fmt.Errorf("malformed payment number %q: %w", *last, err)
		}
		seq = parsed + 1
	}
	return fmt.Sprintf("%s%05d", prefix, seq), nil
}

func (r *GormPaymentRepository) findPage(ctx context.Context, filter shared.Filter, query *gorm.DB) (*shared.Paginated[*billing.Payment], error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var paymentModels []models.PaymentModel
	if err := query.
		Order(orderClause(filter, paymentSortFields)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(toPayments(paymentModels), total, filter.Page, filter.PageSize)
	return &page, nil
}

func toPayments(paymentModels []models.PaymentModel) []*billing.Payment {
	payments := make([]*billing.Payment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = paymentModels[i].ToDomain()
	}
	return payments
}
