package repository_test

import (
	"testing"

	"crowdvest/internal/models"
	"crowdvest/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletePaymentIsSingleShot(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewTransactionRepository(db)
	txn := &models.Transaction{
		UserID:      "user-1",
		Type:        models.TransactionTypeInvestment,
		AmountCents: 1000,
		Status:      models.TransactionStatusPending,
	}
	require.NoError(t, repo.Create(txn))

	done, err := repo.CompletePayment(txn.ID, "pi_once_1")
	require.NoError(t, err)
	assert.True(t, done)

	done, err = repo.CompletePayment(txn.ID, "pi_once_1")
	require.NoError(t, err)
	assert.False(t, done)

	done, err = repo.FailPayment(txn.ID, "pi_once_1", "late failure")
	require.NoError(t, err)
	assert.False(t, done)

	got, err := repo.GetByID(txn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, got.Status)
	assert.Empty(t, got.Notes)
}

func TestSettlePaymentClaimsReconciliationOnce(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewTransactionRepository(db)
	txn := &models.Transaction{
		UserID:      "user-1",
		Type:        models.TransactionTypeInvestment,
		AmountCents: 1000,
		Status:      models.TransactionStatusPending,
	}
	require.NoError(t, repo.Create(txn))

	// CompletePayment (confirm path) does not claim reconciliation, so a
	// later settle still wins exactly once.
	done, err := repo.CompletePayment(txn.ID, "pi_settle_1")
	require.NoError(t, err)
	require.True(t, done)

	done, err = repo.SettlePayment(txn.ID, "pi_settle_1")
	require.NoError(t, err)
	assert.True(t, done)

	done, err = repo.SettlePayment(txn.ID, "pi_settle_1")
	require.NoError(t, err)
	assert.False(t, done)

	got, err := repo.GetByID(txn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, got.Status)
	assert.NotNil(t, got.ReconciledAt)
}

func TestSettlePaymentNeverResurrectsFailedTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewTransactionRepository(db)
	txn := &models.Transaction{
		UserID:      "user-1",
		Type:        models.TransactionTypeInvestment,
		AmountCents: 1000,
		Status:      models.TransactionStatusPending,
	}
	require.NoError(t, repo.Create(txn))

	done, err := repo.FailPayment(txn.ID, "pi_settle_2", "Payment failed")
	require.NoError(t, err)
	require.True(t, done)

	done, err = repo.SettlePayment(txn.ID, "pi_settle_2")
	require.NoError(t, err)
	assert.False(t, done)

	got, err := repo.GetByID(txn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, got.Status)
	assert.Nil(t, got.ReconciledAt)
}

func TestFailPayoutLeavesStatusPendingAndPaidWins(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewTransactionRepository(db)
	txn := &models.Transaction{
		UserID:      "user-1",
		Type:        models.TransactionTypePayout,
		AmountCents: 1000,
		Status:      models.TransactionStatusPending,
	}
	require.NoError(t, repo.Create(txn))
	require.NoError(t, repo.SetPayoutRef(txn.ID, "po_1", "pending"))

	done, err := repo.FailPayout(txn.ID, "Payout failed")
	require.NoError(t, err)
	assert.True(t, done)

	got, err := repo.GetByID(txn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, got.Status)
	assert.Equal(t, models.PayoutStatusFailed, got.PayoutStatus)

	done, err = repo.CompletePayout(txn.ID)
	require.NoError(t, err)
	assert.True(t, done)

	done, err = repo.FailPayout(txn.ID, "late failure")
	require.NoError(t, err)
	assert.False(t, done)

	got, err = repo.GetByID(txn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusPaid, got.PayoutStatus)
	assert.Equal(t, models.TransactionStatusCompleted, got.Status)
}
