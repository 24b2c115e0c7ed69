package repository

import (
	"time"

	"crowdvest/internal/models"

	"gorm.io/gorm"
)

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) WithTx(tx *gorm.DB) *ListingRepository {
	return &ListingRepository{db: tx}
}

func (r *ListingRepository) Create(l *models.MarketplaceListing) error {
	return r.db.Create(l).Error
}

func (r *ListingRepository) ListActive(limit, offset int) ([]models.MarketplaceListing, error) {
	var list []models.MarketplaceListing
	err := r.db.Where("status = ?", models.ListingStatusActive).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// MarkSold closes the active listing for the investment. The status guard
// makes the transition terminal: a second delivery finds no active row and
// reports false without touching the sold record.
func (r *ListingRepository) MarkSold(investmentID uint, buyerUserID string) (bool, error) {
	now := time.Now()
	res := r.db.Model(&models.MarketplaceListing{}).
		Where("investment_id = ? AND status = ?", investmentID, models.ListingStatusActive).
		Updates(map[string]interface{}{
			"status":        models.ListingStatusSold,
			"buyer_user_id": buyerUserID,
			"sold_at":       now,
			"updated_at":    now,
		})
	return res.RowsAffected > 0, res.Error
}
