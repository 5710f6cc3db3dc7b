package billing

import (
	"testing"

	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayment(t *testing.T) {
	invoiceID := uuid.New()
	customerID := uuid.New()

	p, err := NewPayment("P2026/00001", invoiceID, "F2026/00001", customerID, valueobject.NewMoneyDZD(dec("1000")), PaymentMethodCash, "")
	require.NoError(t, err)

	assert.Equal(t, "P2026/00001", p.PaymentNumber)
	assert.Equal(t, invoiceID, p.InvoiceID)
	assert.Equal(t, "F2026/00001", p.InvoiceNumber)
	assert.Equal(t, customerID, p.CustomerID)
	assert.True(t, dec("1000").Equal(p.Amount))
	assert.Equal(t, PaymentMethodCash, p.Method)
	assert.NotEqual(t, uuid.Nil, p.ID)
}

func TestNewPayment_Validation(t *testing.T) {
	invoiceID := uuid.New()
	customerID := uuid.New()
	var derr *shared.DomainError

	_, err := NewPayment("", invoiceID, "F2026/00001", customerID, valueobject.NewMoneyDZD(dec("100")), PaymentMethodCash, "")
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_PAYMENT_NUMBER", derr.Code)

	_, err = NewPayment("P2026/00001", uuid.Nil, "F2026/00001", customerID, valueobject.NewMoneyDZD(dec("100")), PaymentMethodCash, "")
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_INVOICE", derr.Code)

	_, err = NewPayment("P2026/00001", invoiceID, "F2026/00001", uuid.Nil, valueobject.NewMoneyDZD(dec("100")), PaymentMethodCash, "")
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_CUSTOMER", derr.Code)

	_, err = NewPayment("P2026/00001", invoiceID, "F2026/00001", customerID, valueobject.ZeroDZD(), PaymentMethodCash, "")
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_AMOUNT", derr.Code)

	_, err = NewPayment("P2026/00001", invoiceID, "F2026/00001", customerID, valueobject.NewMoneyDZD(dec("-50")), PaymentMethodCash, "")
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_AMOUNT", derr.Code)

	_, err = NewPayment("P2026/00001", invoiceID, "F2026/00001", customerID, valueobject.NewMoneyDZD(dec("100")), PaymentMethod("crypto"), "")
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_PAYMENT_METHOD", derr.Code)
}
