package service

import (
	"fmt"

	"crowdvest/internal/models"
	"crowdvest/internal/repository"

	"gorm.io/gorm"
)

// NotificationService appends delivery-agnostic notification records.
// Duplicates from redelivered webhook events are accepted.
type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// WithTx binds the service to an open transaction so the notification
// commits together with the reconciliation mutations.
func (s *NotificationService) WithTx(tx *gorm.DB) *NotificationService {
	return &NotificationService{repo: s.repo.WithTx(tx)}
}

func (s *NotificationService) Notify(userID, kind, title, message string, relatedID uint) error {
	return s.repo.Create(&models.Notification{
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
	})
}

func (s *NotificationService) NotifyPaymentSuccess(userID string, amountCents int64, transactionID uint) error {
	msg := fmt.Sprintf("Your payment of %.2f has been processed successfully.", float64(amountCents)/100)
	return s.Notify(userID, models.NotificationPaymentSuccess, "Payment Successful", msg, transactionID)
}

func (s *NotificationService) NotifyPaymentFailed(userID string, transactionID uint) error {
	return s.Notify(userID, models.NotificationPaymentFailed, "Payment Failed",
		"Your payment could not be processed. Please try again.", transactionID)
}

func (s *NotificationService) NotifyPayoutSuccess(userID string, transactionID uint) error {
	return s.Notify(userID, models.NotificationPayoutSuccess, "Payout Successful",
		"Your profit payout has been processed successfully.", transactionID)
}

func (s *NotificationService) NotifyPayoutFailed(userID string, transactionID uint) error {
	return s.Notify(userID, models.NotificationPayoutFailed, "Payout Failed",
		"Your profit payout could not be processed. Please contact support.", transactionID)
}
