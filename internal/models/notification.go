package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	NotificationPaymentSuccess = "payment_success"
	NotificationPaymentFailed  = "payment_failed"
	NotificationPayoutSuccess  = "payout_success"
	NotificationPayoutFailed   = "payout_failed"
)

// Notification is an append-only, delivery-agnostic record. Unread until
// ReadAt is set. Redelivered webhook events may produce duplicates.
type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    string         `gorm:"size:128;not null;index" json:"user_id"`
	Type      string         `gorm:"size:50;not null;index" json:"type"`
	Title     string         `gorm:"size:255" json:"title"`
	Message   string         `gorm:"type:text" json:"message"`
	RelatedID uint           `gorm:"index" json:"related_id"`
	ReadAt    *time.Time     `json:"read_at"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Notification) TableName() string {
	return "investment_notifications"
}
