package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ListingStatusActive = "active"
	ListingStatusSold   = "sold"
)

// MarketplaceListing is a resale offer of an investment stake. At most one
// active listing exists per investment; sold is terminal.
type MarketplaceListing struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	InvestmentID uint           `gorm:"not null;index" json:"investment_id"`
	SellerUserID string         `gorm:"size:128;not null;index" json:"seller_user_id"`
	PriceCents   int64          `gorm:"not null" json:"price_cents"`
	Status       string         `gorm:"size:20;not null;index" json:"status"`
	BuyerUserID  string         `gorm:"size:128" json:"buyer_user_id"`
	SoldAt       *time.Time     `json:"sold_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (MarketplaceListing) TableName() string {
	return "share_marketplace"
}
