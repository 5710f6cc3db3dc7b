package billing

import (
	"fmt"
	"time"

	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice is in a terminal lifecycle state
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusSent || target == InvoiceStatusPaid || target == InvoiceStatusCancelled
	case InvoiceStatusSent:
		return target == InvoiceStatusPaid || target == InvoiceStatusCancelled
	case InvoiceStatusPaid, InvoiceStatusCancelled:
		return false
	}
	return false
}

// PaymentStatus reflects how much of the invoice total has been collected.
// It evolves independently of the lifecycle status and is driven exclusively
// by payment recording. The "overdue" value is derived at read time and
// never stored.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPartial, PaymentStatusPaid, PaymentStatusOverdue:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsUnpaid returns true if the invoice still has an outstanding balance
func (s PaymentStatus) IsUnpaid() bool {
	return s == PaymentStatusPending || s == PaymentStatusPartial || s == PaymentStatusOverdue
}

// InvoiceLine is the caller-supplied input for one invoice line
type InvoiceLine struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int64
	UnitPrice   decimal.Decimal
}

// InvoiceItem represents a line item owned by an invoice.
// ProductName and UnitPrice are snapshots taken at invoice creation time.
type InvoiceItem struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int64
	UnitPrice   decimal.Decimal
	TVARate     decimal.Decimal
	Amount      decimal.Decimal // Quantity * UnitPrice
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewInvoiceItem creates a new invoice line item
func NewInvoiceItem(invoiceID uuid.UUID, line InvoiceLine, tvaRate decimal.Decimal) (*InvoiceItem, error) {
	if line.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if line.ProductName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if line.Quantity < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if line.UnitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	return &InvoiceItem{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		ProductID:   line.ProductID,
		ProductName: line.ProductName,
		Quantity:    line.Quantity,
		UnitPrice:   line.UnitPrice,
		TVARate:     tvaRate,
		Amount:      line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// GetAmountMoney returns the line amount as Money value object
func (i *InvoiceItem) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyDZD(i.Amount)
}

// Invoice represents an invoice aggregate root.
// It owns its line items and guards the amount and lifecycle invariants:
// TotalAmount == Subtotal + TVAAmount, Subtotal == sum of line amounts,
// and a fully paid invoice is frozen to line-item edits.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber string
	CustomerID    uuid.UUID
	CustomerName  string
	Items         []InvoiceItem
	Subtotal      decimal.Decimal
	TVAAmount     decimal.Decimal
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal
	Status        InvoiceStatus
	PaymentStatus PaymentStatus
	DueDate       *time.Time
	Notes         string
	SentAt        *time.Time
	PaidAt        *time.Time
	CancelledAt   *time.Time
	CancelReason  string
}

// NewInvoice creates a new invoice from caller-supplied lines.
// The invoice number is assigned by the caller (repository sequence) and is
// immutable afterwards. Totals are derived via ComputeTotals with the flat
// TVA rate; PaidAmount starts at zero with payment status pending.
func NewInvoice(invoiceNumber string, customerID uuid.UUID, customerName string, lines []InvoiceLine, dueDate *time.Time) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(invoiceNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_ITEMS", "Invoice must contain at least one line item")
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		CustomerID:        customerID,
		CustomerName:      customerName,
		PaidAmount:        decimal.Zero,
		Status:            InvoiceStatusDraft,
		PaymentStatus:     PaymentStatusPending,
		DueDate:           dueDate,
	}

	if err := inv.buildItems(lines); err != nil {
		return nil, err
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// buildItems replaces the item set from caller lines and recomputes totals
func (inv *Invoice) buildItems(lines []InvoiceLine) error {
	items := make([]InvoiceItem, 0, len(lines))
	for _, line := range lines {
		item, err := NewInvoiceItem(inv.ID, line, DefaultTVARate)
		if err != nil {
			return err
		}
		items = append(items, *item)
	}
	inv.Items = items
	inv.recalculateTotals()
	return nil
}

// recalculateTotals re-derives subtotal, TVA and total from the current items
func (inv *Invoice) recalculateTotals() {
	lines := make([]LineAmount, len(inv.Items))
	for i, item := range inv.Items {
		lines[i] = LineAmount{Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}
	totals := ComputeTotals(lines, DefaultTVARate)
	inv.Subtotal = totals.Subtotal
	inv.TVAAmount = totals.TVAAmount
	inv.TotalAmount = totals.TotalAmount
}

// ReplaceItems atomically replaces the entire line-item set and recomputes
// totals. PaidAmount and PaymentStatus are preserved.
// Fails when the invoice is fully paid or cancelled, and when the recomputed
// total would drop below the amount already collected (no clamping).
func (inv *Invoice) ReplaceItems(customerID uuid.UUID, customerName string, lines []InvoiceLine) error {
	if inv.PaymentStatus == PaymentStatusPaid {
		return shared.NewDomainError("ALREADY_PAID", "Cannot edit a fully paid invoice")
	}
	if inv.Status == InvoiceStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot edit a cancelled invoice")
	}
	if customerID == uuid.Nil {
		return shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if len(lines) == 0 {
		return shared.NewDomainError("EMPTY_ITEMS", "Invoice must contain at least one line item")
	}

	// Dry-run the totals before touching state so a rejected edit leaves
	// the aggregate untouched.
	amounts := make([]LineAmount, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
		}
		if line.UnitPrice.IsNegative() {
			return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
		}
		amounts = append(amounts, LineAmount{Quantity: line.Quantity, UnitPrice: line.UnitPrice})
	}
	totals := ComputeTotals(amounts, DefaultTVARate)
	if totals.TotalAmount.LessThan(inv.PaidAmount) {
		return shared.NewDomainError("EXCEEDS_PAID", fmt.Sprintf(
			"New total %.2f is below the amount already paid %.2f",
			totals.TotalAmount.InexactFloat64(), inv.PaidAmount.InexactFloat64()))
	}

	if err := inv.buildItems(lines); err != nil {
		return err
	}
	inv.CustomerID = customerID
	if customerName != "" {
		inv.CustomerName = customerName
	}

	// A partial payment may now cover the full total exactly.
	inv.refreshPaymentStatus()

	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceItemsReplacedEvent(inv))

	return nil
}

// ApplyPayment increases the paid amount and recomputes the payment status.
// This is the only path that can set PaymentStatus to paid, which in turn
// freezes the invoice from further edits.
func (inv *Invoice) ApplyPayment(amount valueobject.Money) error {
	if inv.Status == InvoiceStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot record a payment on a cancelled invoice")
	}
	if inv.PaymentStatus == PaymentStatusPaid {
		return shared.NewDomainError("ALREADY_PAID", "Invoice is already fully paid")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	outstanding := inv.TotalAmount.Sub(inv.PaidAmount)
	if amount.Amount().GreaterThan(outstanding) {
		return shared.NewDomainError("EXCEEDS_OUTSTANDING", fmt.Sprintf(
			"Payment amount %.2f exceeds outstanding amount %.2f",
			amount.Amount().InexactFloat64(), outstanding.InexactFloat64()))
	}

	inv.PaidAmount = inv.PaidAmount.Add(amount.Amount())
	inv.refreshPaymentStatus()

	if inv.PaymentStatus == PaymentStatusPaid {
		now := time.Now()
		inv.PaidAt = &now
		inv.Status = InvoiceStatusPaid
		inv.AddDomainEvent(NewInvoicePaidEvent(inv))
	} else {
		inv.AddDomainEvent(NewInvoicePartiallyPaidEvent(inv, amount.Amount()))
	}

	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// refreshPaymentStatus re-derives the stored payment status from amounts
func (inv *Invoice) refreshPaymentStatus() {
	switch {
	case inv.PaidAmount.GreaterThanOrEqual(inv.TotalAmount):
		inv.PaymentStatus = PaymentStatusPaid
	case inv.PaidAmount.IsPositive():
		inv.PaymentStatus = PaymentStatusPartial
	default:
		inv.PaymentStatus = PaymentStatusPending
	}
}

// MarkSent transitions the invoice from draft to sent
func (inv *Invoice) MarkSent() error {
	if !inv.Status.CanTransitionTo(InvoiceStatusSent) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot send invoice in %s status", inv.Status))
	}

	now := time.Now()
	inv.Status = InvoiceStatusSent
	inv.SentAt = &now
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceSentEvent(inv))

	return nil
}

// Cancel voids the invoice. Allowed only while no payment has been collected.
func (inv *Invoice) Cancel(reason string) error {
	if inv.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel invoice in %s status", inv.Status))
	}
	if inv.PaidAmount.IsPositive() {
		return shared.NewDomainError("HAS_PAYMENTS", "Cannot cancel an invoice with recorded payments")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	inv.Status = InvoiceStatusCancelled
	inv.CancelledAt = &now
	inv.CancelReason = reason
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceCancelledEvent(inv))

	return nil
}

// SetNotes sets the free-text notes
func (inv *Invoice) SetNotes(notes string) {
	inv.Notes = notes
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
}

// OutstandingAmount returns the remaining balance due
func (inv *Invoice) OutstandingAmount() decimal.Decimal {
	return inv.TotalAmount.Sub(inv.PaidAmount)
}

// GetTotalAmountMoney returns the total as Money
func (inv *Invoice) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyDZD(inv.TotalAmount)
}

// GetPaidAmountMoney returns the paid amount as Money
func (inv *Invoice) GetPaidAmountMoney() valueobject.Money {
	return valueobject.NewMoneyDZD(inv.PaidAmount)
}

// IsEditable returns true if line items may still be replaced
func (inv *Invoice) IsEditable() bool {
	return inv.PaymentStatus != PaymentStatusPaid && inv.Status != InvoiceStatusCancelled
}

// IsOverdue returns true if the invoice is unpaid and past its due date
func (inv *Invoice) IsOverdue(now time.Time) bool {
	if !inv.PaymentStatus.IsUnpaid() {
		return false
	}
	if inv.Status == InvoiceStatusCancelled || inv.DueDate == nil {
		return false
	}
	return now.After(*inv.DueDate)
}

// EffectivePaymentStatus returns the payment status as seen by readers,
// substituting overdue for pending/partial when past the due date.
// The stored status is never mutated by due-date passage.
func (inv *Invoice) EffectivePaymentStatus(now time.Time) PaymentStatus {
	if inv.IsOverdue(now) {
		return PaymentStatusOverdue
	}
	return inv.PaymentStatus
}

// ItemCount returns the number of line items
func (inv *Invoice) ItemCount() int {
	return len(inv.Items)
}
