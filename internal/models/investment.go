package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	InvestmentStatusPending = "pending"
	InvestmentStatusActive  = "active"
)

// Investment is a user's stake in a funding vehicle. It activates when the
// funding payment succeeds, and changes owner on a marketplace share sale.
type Investment struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      string         `gorm:"size:128;not null;index" json:"user_id"`
	VehicleID   uint           `gorm:"not null;index" json:"vehicle_id"`
	AmountCents int64          `gorm:"not null" json:"amount_cents"`
	Status      string         `gorm:"size:20;not null;index" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Investment) TableName() string {
	return "investments"
}
