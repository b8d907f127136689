package entity_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xausdorf/qris-hub/internal/domain/entity"
)

func TestNewTransaction(t *testing.T) {
	domainID := uuid.New()

	txn, err := entity.NewTransaction(domainID, 150000, entity.Buyer{Name: "Budi", Email: "budi@example.com"})
	require.NoError(t, err)

	assert.Equal(t, domainID, txn.DomainID())
	assert.Equal(t, int64(150000), txn.Amount())
	assert.Equal(t, entity.StatusPending, txn.Status())
	assert.Equal(t, entity.PaymentMethodQRIS, txn.PaymentMethod())
	assert.Regexp(t, regexp.MustCompile(`^TRX-\d{8}-[0-9A-F]{8}$`), txn.Code())
	assert.Empty(t, txn.QRISData())
	assert.Nil(t, txn.VerifiedAt())

	txn.AttachQRIS("000201")
	assert.Equal(t, "000201", txn.QRISData())
}

func TestNewTransaction_Validation(t *testing.T) {
	_, err := entity.NewTransaction(uuid.New(), 0, entity.Buyer{Name: "Budi"})
	assert.ErrorIs(t, err, entity.ErrNegativeAmount)

	_, err = entity.NewTransaction(uuid.New(), -10, entity.Buyer{Name: "Budi"})
	assert.ErrorIs(t, err, entity.ErrNegativeAmount)

	_, err = entity.NewTransaction(uuid.New(), 10, entity.Buyer{Name: "  "})
	assert.ErrorIs(t, err, entity.ErrMissingBuyer)
}

func TestParseStatus(t *testing.T) {
	s, err := entity.ParseStatus(" Paid ")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, s)

	_, err = entity.ParseStatus("refunded")
	assert.ErrorIs(t, err, entity.ErrInvalidStatus)
}

func TestTransactionStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to entity.TransactionStatus
		allowed  bool
	}{
		{entity.StatusPending, entity.StatusPaid, true},
		{entity.StatusPending, entity.StatusCancelled, true},
		{entity.StatusPending, entity.StatusFailed, true},
		{entity.StatusPending, entity.StatusVerified, false},
		{entity.StatusPaid, entity.StatusVerified, true},
		{entity.StatusPaid, entity.StatusPending, false},
		{entity.StatusVerified, entity.StatusCompleted, true},
		{entity.StatusCompleted, entity.StatusFailed, false},
		{entity.StatusCancelled, entity.StatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, entity.StatusCompleted.IsTerminal())
	assert.True(t, entity.StatusFailed.IsTerminal())
	assert.False(t, entity.StatusPaid.IsTerminal())
}

func TestTransaction_ChangeStatus(t *testing.T) {
	txn, err := entity.NewTransaction(uuid.New(), 1000, entity.Buyer{Name: "Sari"})
	require.NoError(t, err)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, txn.ChangeStatus(entity.StatusPaid, "", at))
	assert.Equal(t, entity.StatusPaid, txn.Status())
	assert.Equal(t, at, txn.UpdatedAt())

	err = txn.ChangeStatus(entity.StatusVerified, "", at)
	assert.ErrorIs(t, err, entity.ErrVerifierRequired)
	assert.Equal(t, entity.StatusPaid, txn.Status())

	require.NoError(t, txn.ChangeStatus(entity.StatusVerified, "admin@example.com", at))
	assert.Equal(t, "admin@example.com", txn.VerifiedBy())
	require.NotNil(t, txn.VerifiedAt())
	assert.Equal(t, at, *txn.VerifiedAt())

	err = txn.ChangeStatus(entity.StatusPending, "", at)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
}
