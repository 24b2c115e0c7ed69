package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	FundingStatusOpen   = "open"
	FundingStatusFunded = "funded"
)

// InvestmentVehicle pools contributions toward a funding goal. Totals are
// stored in major currency units as decimals; webhook amounts arrive in the
// smallest unit and are divided by 100 before crediting. Once funded, the
// status never goes back to open.
type InvestmentVehicle struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	Name                string          `gorm:"size:255;not null" json:"name"`
	CurrentInvestment   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"current_investment"`
	TotalInvestmentGoal decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_investment_goal"`
	FundingProgress     decimal.Decimal `gorm:"type:decimal(9,4);not null;default:0" json:"funding_progress"`
	FundingStatus       string          `gorm:"size:20;not null;index" json:"funding_status"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	DeletedAt           gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (InvestmentVehicle) TableName() string {
	return "investment_vehicles"
}
