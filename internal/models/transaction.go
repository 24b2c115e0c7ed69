package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"

	TransactionTypeInvestment    = "investment"
	TransactionTypeSharePurchase = "share_purchase"
	TransactionTypePayout        = "profit_distribution"

	PayoutStatusPaid   = "paid"
	PayoutStatusFailed = "failed"
)

// Transaction records one payment or payout attempt. The Stripe reference
// ids are written at creation time and used by the webhook reconciler to
// find the row; status only ever moves pending -> completed|failed.
// ReconciledAt is set once by the webhook reconciler when it applies the
// aggregate side effects; the synchronous confirm path never sets it.
type Transaction struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	UserID                string         `gorm:"size:128;not null;index" json:"user_id"`
	Type                  string         `gorm:"size:30;not null;index" json:"type"`
	AmountCents           int64          `gorm:"not null" json:"amount_cents"`
	Currency              string         `gorm:"size:3;default:'PKR'" json:"currency"`
	Status                string         `gorm:"size:20;not null;index" json:"status"`
	StripePaymentIntentID string         `gorm:"size:255;index" json:"stripe_payment_intent_id"`
	StripePayoutID        string         `gorm:"size:255;index" json:"stripe_payout_id"`
	PayoutStatus          string         `gorm:"size:20" json:"payout_status"`
	InvestmentID          *uint          `gorm:"index" json:"investment_id"`
	VehicleID             *uint          `gorm:"index" json:"vehicle_id"`
	Notes                 string         `gorm:"size:255" json:"notes"`
	Description           string         `gorm:"size:255" json:"description"`
	CompletedAt           *time.Time     `json:"completed_at"`
	ReconciledAt          *time.Time     `json:"reconciled_at"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Transaction) TableName() string {
	return "investment_transactions"
}
