package repository

import (
	"time"

	"crowdvest/internal/models"

	"gorm.io/gorm"
)

type InvestmentRepository struct {
	db *gorm.DB
}

func NewInvestmentRepository(db *gorm.DB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

func (r *InvestmentRepository) WithTx(tx *gorm.DB) *InvestmentRepository {
	return &InvestmentRepository{db: tx}
}

func (r *InvestmentRepository) Create(i *models.Investment) error {
	return r.db.Create(i).Error
}

func (r *InvestmentRepository) GetByID(id uint) (*models.Investment, error) {
	var i models.Investment
	if err := r.db.First(&i, id).Error; err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *InvestmentRepository) ListByUserID(userID string, limit, offset int) ([]models.Investment, error) {
	var list []models.Investment
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// Activate moves a pending investment to active. Already-active rows are
// left alone so a redelivered funding event cannot double-activate.
func (r *InvestmentRepository) Activate(id uint) (bool, error) {
	res := r.db.Model(&models.Investment{}).
		Where("id = ? AND status = ?", id, models.InvestmentStatusPending).
		Updates(map[string]interface{}{
			"status":     models.InvestmentStatusActive,
			"updated_at": time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

// TransferOwnership reassigns the stake to the buyer on a share purchase.
func (r *InvestmentRepository) TransferOwnership(id uint, buyerUserID string) error {
	return r.db.Model(&models.Investment{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"user_id":    buyerUserID,
			"updated_at": time.Now(),
		}).Error
}
