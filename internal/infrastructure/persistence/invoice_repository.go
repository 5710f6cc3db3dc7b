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
	"gorm.io/gorm/clause"
)

// unpaidStatuses are the stored payment statuses that carry outstanding debt
var unpaidStatuses = []billing.PaymentStatus{
	billing.PaymentStatusPending,
	billing.PaymentStatusPartial,
}

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)

// Save persists the invoice and fully replaces its line items
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(model).Error
	})
}

// SaveWithLock persists the invoice only if the stored version still matches
// expectedVersion. Line items are replaced in the same transaction.
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice, expectedVersion int) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.InvoiceModel{}).
			Where("id = ? AND version = ?", invoice.ID, expectedVersion).
			Updates(map[string]interface{}{
				"customer_name":  model.CustomerName,
				"subtotal":       model.Subtotal,
				"tva_amount":     model.TVAAmount,
				"total_amount":   model.TotalAmount,
				"paid_amount":    model.PaidAmount,
				"status":         model.Status,
				"payment_status": model.PaymentStatus,
				"due_date":       model.DueDate,
				"notes":          model.Notes,
				"sent_at":        model.SentAt,
				"paid_at":        model.PaidAt,
				"cancelled_at":   model.CancelledAt,
				"cancel_reason":  model.CancelReason,
				"version":        model.Version,
				"updated_at":     model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID loads an invoice with its line items
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).Preload("Items").First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber loads an invoice by its business number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, invoiceNumber string) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("invoice_number = ?", invoiceNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns a filtered, paginated invoice page
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter billing.InvoiceFilter) (*shared.Paginated[*billing.Invoice], error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{})

	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filter.PaymentStatus)
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at <= ?", *filter.DateTo)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("invoice_number ILIKE ? OR customer_name ILIKE ?", search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var invoiceModels []models.InvoiceModel
	if err := query.Preload("Items").
		Order(orderClause(filter.Filter, invoiceSortFields)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]*billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = invoiceModels[i].ToDomain()
	}
	page := shared.NewPaginated(invoices, total, filter.Page, filter.PageSize)
	return &page, nil
}

// FindByCustomer returns one customer's invoices, newest first
func (r *GormInvoiceRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[*billing.Invoice], error) {
	invoiceFilter := billing.InvoiceFilter{Filter: filter, CustomerID: &customerID}
	return r.FindAll(ctx, invoiceFilter)
}

// FindUnpaidByCustomer returns the customer's invoices with an outstanding
// balance, oldest first
func (r *GormInvoiceRepository) FindUnpaidByCustomer(ctx context.Context, customerID uuid.UUID) ([]*billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("customer_id = ? AND payment_status IN ? AND status <> ?",
			customerID, unpaidStatuses, billing.InvoiceStatusCancelled).
		Order("created_at ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]*billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = invoiceModels[i].ToDomain()
	}
	return invoices, nil
}

// SumOutstandingByCustomer aggregates debt over the customer's unpaid invoices
func (r *GormInvoiceRepository) SumOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) (*billing.CustomerOutstanding, error) {
	var row struct {
		TotalDebt    decimal.NullDecimal
		InvoiceCount int64
	}
	err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Select("COALESCE(SUM(total_amount - paid_amount), 0) AS total_debt, COUNT(*) AS invoice_count").
		Where("customer_id = ? AND payment_status IN ? AND status <> ?",
			customerID, unpaidStatuses, billing.InvoiceStatusCancelled).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	out := &billing.CustomerOutstanding{CustomerID: customerID, InvoiceCount: row.InvoiceCount}
	if row.TotalDebt.Valid {
		out.TotalDebt = row.TotalDebt.Decimal
	}
	return out, nil
}

// SumOutstandingGrouped aggregates debt per customer across all customers
// that currently owe money, largest debt first
func (r *GormInvoiceRepository) SumOutstandingGrouped(ctx context.Context) ([]billing.CustomerOutstanding, error) {
	var rows []billing.CustomerOutstanding
	err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Select("customer_id, COALESCE(SUM(total_amount - paid_amount), 0) AS total_debt, COUNT(*) AS invoice_count").
		Where("payment_status IN ? AND status <> ?", unpaidStatuses, billing.InvoiceStatusCancelled).
		Group("customer_id").
		Order("total_debt DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByCustomer counts a customer's invoices regardless of status
func (r *GormInvoiceRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	return count, err
}

// ExistsByNumber reports whether an invoice number is already taken
func (r *GormInvoiceRepository) ExistsByNumber(ctx context.Context, invoiceNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("invoice_number = ?", invoiceNumber).
		Count(&count).Error
	return count > 0, err
}

// NextInvoiceNumber allocates the next F<year>/<seq> number. The sequence
// restarts at 1 each year; zero padding keeps lexicographic and numeric
// order aligned so MAX() is safe.
func (r *GormInvoiceRepository) NextInvoiceNumber(ctx context.Context, year int) (string, error) {
	prefix := fmt.Sprintf("F%d/", year)

	var last *string
	err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Select("MAX(invoice_number)").
		Where("invoice_number LIKE ?", prefix+"%").
		Scan(&last).Error
	if err != nil {
		return "", err
	}

	seq := 1
	if last != nil && *last != "" {
		parsed, err := strconv.Atoi(strings.TrimPrefix(*last, prefix))
		if err != nil {
			return "", fmt.Errorf("malformed invoice number %q: %w", *last, err)
		}
		seq = parsed + 1
	}
	return fmt.Sprintf("%s%05d", prefix, seq), nil
}

// Delete removes an invoice and its items. The service layer only allows
// this for drafts.
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.InvoiceModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}
