package repository

import (
	"log"
	"time"

	"crowdvest/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type VehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

func (r *VehicleRepository) WithTx(tx *gorm.DB) *VehicleRepository {
	return &VehicleRepository{db: tx}
}

func (r *VehicleRepository) Create(v *models.InvestmentVehicle) error {
	return r.db.Create(v).Error
}

func (r *VehicleRepository) GetByID(id uint) (*models.InvestmentVehicle, error) {
	var v models.InvestmentVehicle
	if err := r.db.First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VehicleRepository) List(limit, offset int) ([]models.InvestmentVehicle, error) {
	var list []models.InvestmentVehicle
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// CreditFunds adds amount (major units) to the vehicle's running total,
// recomputes funding progress and flips open -> funded once the goal is
// reached. The increment runs as a SQL expression so concurrent
// contributions serialize on the row instead of overwriting each other;
// the funded flip is guarded so it can never be unset.
func (r *VehicleRepository) CreditFunds(id uint, amount decimal.Decimal) error {
	res := r.db.Model(&models.InvestmentVehicle{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_investment": gorm.Expr("current_investment + ?", amount),
			"updated_at":         time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	v, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if !v.TotalInvestmentGoal.IsPositive() {
		log.Printf("[Vehicle] vehicle %d has non-positive funding goal, skipping progress update", id)
		return nil
	}
	progress := v.CurrentInvestment.Div(v.TotalInvestmentGoal).Mul(decimal.NewFromInt(100))
	if err := r.db.Model(&models.InvestmentVehicle{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"funding_progress": progress,
			"updated_at":       time.Now(),
		}).Error; err != nil {
		return err
	}
	if v.CurrentInvestment.GreaterThanOrEqual(v.TotalInvestmentGoal) {
		return r.db.Model(&models.InvestmentVehicle{}).
			Where("id = ? AND funding_status = ?", id, models.FundingStatusOpen).
			Updates(map[string]interface{}{
				"funding_status": models.FundingStatusFunded,
				"updated_at":     time.Now(),
			}).Error
	}
	return nil
}
