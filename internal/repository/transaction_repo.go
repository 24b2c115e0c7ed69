package repository

import (
	"time"

	"crowdvest/internal/models"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction so
// reconciliation mutations share one commit.
func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

func (r *TransactionRepository) Create(t *models.Transaction) error {
	return r.db.Create(t).Error
}

func (r *TransactionRepository) GetByID(id uint) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByPaymentIntentID locates the transaction carrying the given provider
// payment reference. gorm.ErrRecordNotFound is expected for events outside
// this ledger and must not be escalated by callers.
func (r *TransactionRepository) GetByPaymentIntentID(ref string) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.Where("stripe_payment_intent_id = ?", ref).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) GetByPayoutID(ref string) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.Where("stripe_payout_id = ?", ref).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) ListByUserID(userID string, limit, offset int) ([]models.Transaction, error) {
	var list []models.Transaction
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *TransactionRepository) SetPaymentIntentID(id uint, ref string) error {
	return r.db.Model(&models.Transaction{}).Where("id = ?", id).
		Updates(map[string]interface{}{"stripe_payment_intent_id": ref, "updated_at": time.Now()}).Error
}

func (r *TransactionRepository) SetPayoutRef(id uint, ref, payoutStatus string) error {
	return r.db.Model(&models.Transaction{}).Where("id = ?", id).
		Updates(map[string]interface{}{"stripe_payout_id": ref, "payout_status": payoutStatus, "updated_at": time.Now()}).Error
}

// SettlePayment claims webhook reconciliation for a payment and completes
// the transaction. The reconciled_at guard keeps the aggregate side effects
// single-shot across redeliveries, and keeps them applicable when the
// synchronous confirm path already moved the row to completed. A failed
// transaction is never resurrected.
func (r *TransactionRepository) SettlePayment(id uint, ref string) (bool, error) {
	now := time.Now()
	res := r.db.Model(&models.Transaction{}).
		Where("id = ? AND status <> ? AND reconciled_at IS NULL", id, models.TransactionStatusFailed).
		Updates(map[string]interface{}{
			"status":                   models.TransactionStatusCompleted,
			"stripe_payment_intent_id": ref,
			"completed_at":             now,
			"reconciled_at":            now,
			"updated_at":               now,
		})
	return res.RowsAffected > 0, res.Error
}

// CompletePayment moves a pending transaction to completed without claiming
// reconciliation; the confirm endpoint uses it so the webhook still applies
// the side effects afterwards. Returns false when the row was already
// terminal.
func (r *TransactionRepository) CompletePayment(id uint, ref string) (bool, error) {
	now := time.Now()
	res := r.db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.TransactionStatusPending).
		Updates(map[string]interface{}{
			"status":                   models.TransactionStatusCompleted,
			"stripe_payment_intent_id": ref,
			"completed_at":             now,
			"updated_at":               now,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *TransactionRepository) FailPayment(id uint, ref, note string) (bool, error) {
	res := r.db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.TransactionStatusPending).
		Updates(map[string]interface{}{
			"status":                   models.TransactionStatusFailed,
			"stripe_payment_intent_id": ref,
			"notes":                    note,
			"updated_at":               time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *TransactionRepository) CompletePayout(id uint) (bool, error) {
	now := time.Now()
	res := r.db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.TransactionStatusPending).
		Updates(map[string]interface{}{
			"status":        models.TransactionStatusCompleted,
			"payout_status": models.PayoutStatusPaid,
			"completed_at":  now,
			"updated_at":    now,
		})
	return res.RowsAffected > 0, res.Error
}

// FailPayout only flips the payout sub-status; the transaction itself stays
// pending so the payout can be re-issued. A payout already paid is never
// regressed by a late failure event.
func (r *TransactionRepository) FailPayout(id uint, note string) (bool, error) {
	res := r.db.Model(&models.Transaction{}).
		Where("id = ? AND payout_status <> ?", id, models.PayoutStatusPaid).
		Updates(map[string]interface{}{
			"payout_status": models.PayoutStatusFailed,
			"notes":         note,
			"updated_at":    time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}
