package persistence

import (
	"fmt"
	"strings"

	"github.com/gescom/backend/internal/domain/shared"
)

// ValidateSortOrder normalizes the sort direction to ASC or DESC,
// defaulting to DESC for anything invalid
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist.
// Returns defaultField when the input is empty or not whitelisted.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return defaultField
	}
	return trimmed
}

// orderClause builds a safe ORDER BY clause from a shared.Filter
func orderClause(filter shared.Filter, allowedFields map[string]bool) string {
	field := ValidateSortField(filter.OrderBy, allowedFields, "created_at")
	return fmt.Sprintf("%s %s", field, ValidateSortOrder(filter.OrderDir))
}

// invoiceSortFields contains allowed sort fields for invoices
var invoiceSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"invoice_number": true,
	"total_amount":   true,
	"due_date":       true,
	"status":         true,
	"payment_status": true,
}

// paymentSortFields contains allowed sort fields for payments
var paymentSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"payment_number": true,
	"amount":         true,
	"method":         true,
}

// customerSortFields contains allowed sort fields for customers
var customerSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"code":           true,
	"name":           true,
	"wilaya":         true,
	"loyalty_points": true,
	"status":         true,
}

// productSortFields contains allowed sort fields for products
var productSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"sku":            true,
	"name":           true,
	"category":       true,
	"sale_price":     true,
	"stock_quantity": true,
	"status":         true,
}

// deliverySortFields contains allowed sort fields for deliveries
var deliverySortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"delivery_number": true,
	"scheduled_date":  true,
	"status":          true,
	"wilaya":          true,
}

// userSortFields contains allowed sort fields for users
var userSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"username":      true,
	"email":         true,
	"status":        true,
	"last_login_at": true,
}
