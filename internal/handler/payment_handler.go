package handler

import (
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"

	"crowdvest/config"
	"crowdvest/internal/middleware"
	"crowdvest/internal/models"
	"crowdvest/internal/repository"
	"crowdvest/pkg/payments"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PaymentHandler exposes the creation-side collaborators. Every response is
// 200 with a success flag; callers branch on the field rather than on
// status codes, so user-facing validation failures and provider failures
// share one envelope.
type PaymentHandler struct {
	provider  payments.Provider
	txRepo    *repository.TransactionRepository
	auditRepo *repository.AuditLogRepository
	cfg       *config.Config
}

func NewPaymentHandler(provider payments.Provider, txRepo *repository.TransactionRepository, auditRepo *repository.AuditLogRepository, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{provider: provider, txRepo: txRepo, auditRepo: auditRepo, cfg: cfg}
}

func softFail(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"success": false, "error": msg})
}

type createIntentRequest struct {
	Amount        float64 `json:"amount"` // major currency units
	Currency      string  `json:"currency"`
	UserID        string  `json:"user_id"`
	VehicleID     *uint   `json:"vehicle_id"`
	InvestmentID  *uint   `json:"investment_id"`
	TransactionID *uint   `json:"transaction_id"`
	Type          string  `json:"type"`
	Description   string  `json:"description"`
}

// CreateIntent validates the caller, records a pending transaction and asks
// the provider for a payment intent. The tracking metadata written here is
// what the webhook reconciler reads back later.
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req createIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		softFail(c, "invalid request body")
		return
	}
	if req.Amount <= 0 {
		softFail(c, "Invalid amount")
		return
	}
	if middleware.GetUserID(c) != req.UserID {
		softFail(c, "User ID mismatch")
		return
	}
	if req.Type == "" {
		req.Type = models.TransactionTypeInvestment
	}
	currency := req.Currency
	if currency == "" {
		currency = h.cfg.Stripe.Currency
	}
	amountCents := int64(math.Round(req.Amount * 100))

	txn, err := h.resolveTransaction(&req, amountCents, currency)
	if err != nil {
		softFail(c, err.Error())
		return
	}

	metadata := map[string]string{
		"userId":        req.UserID,
		"type":          req.Type,
		"transactionId": strconv.FormatUint(uint64(txn.ID), 10),
	}
	if req.InvestmentID != nil {
		metadata["investmentId"] = strconv.FormatUint(uint64(*req.InvestmentID), 10)
	}
	if req.VehicleID != nil {
		metadata["vehicleId"] = strconv.FormatUint(uint64(*req.VehicleID), 10)
	}
	description := req.Description
	if description == "" {
		description = "Payment for " + req.Type
	}

	intent, err := h.provider.CreateIntent(c.Request.Context(), payments.IntentParams{
		AmountCents: amountCents,
		Currency:    currency,
		Description: description,
		Metadata:    metadata,
	})
	if err != nil {
		log.Printf("[Payments] create intent failed: %v", err)
		softFail(c, "Failed to create payment intent")
		return
	}
	if err := h.txRepo.SetPaymentIntentID(txn.ID, intent.ID); err != nil {
		log.Printf("[Payments] storing intent id on transaction %d failed: %v", txn.ID, err)
		softFail(c, "Failed to create payment intent")
		return
	}
	_ = h.auditRepo.Create(&models.AuditLog{
		UserID:     req.UserID,
		Action:     "payment_intent_created",
		Resource:   "transaction",
		ResourceID: strconv.FormatUint(uint64(txn.ID), 10),
		Metadata:   intent.ID,
	})
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"client_secret":  intent.ClientSecret,
		"transaction_id": txn.ID,
	})
}

// resolveTransaction reuses the caller's pending transaction when an id was
// given and creates one otherwise.
func (h *PaymentHandler) resolveTransaction(req *createIntentRequest, amountCents int64, currency string) (*models.Transaction, error) {
	if req.TransactionID != nil {
		txn, err := h.txRepo.GetByID(*req.TransactionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("Transaction not found")
		}
		if err != nil {
			return nil, errors.New("Failed to load transaction")
		}
		if txn.UserID != req.UserID {
			return nil, errors.New("Transaction ownership mismatch")
		}
		return txn, nil
	}
	txn := &models.Transaction{
		UserID:       req.UserID,
		Type:         req.Type,
		AmountCents:  amountCents,
		Currency:     currency,
		Status:       models.TransactionStatusPending,
		InvestmentID: req.InvestmentID,
		VehicleID:    req.VehicleID,
		Description:  req.Description,
	}
	if err := h.txRepo.Create(txn); err != nil {
		return nil, errors.New("Failed to create transaction")
	}
	return txn, nil
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
	TransactionID   uint   `json:"transaction_id"`
	UserID          string `json:"user_id"`
}

// ConfirmPayment settles the transaction status from the intent's current
// provider state. It never claims reconciliation: the webhook remains the
// source of truth for the aggregate side effects and still applies them
// when it arrives after a synchronous confirm.
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		softFail(c, "invalid request body")
		return
	}
	if middleware.GetUserID(c) != req.UserID {
		softFail(c, "User ID mismatch")
		return
	}
	txn, err := h.txRepo.GetByID(req.TransactionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		softFail(c, "Transaction not found")
		return
	}
	if err != nil {
		softFail(c, "Failed to load transaction")
		return
	}
	if txn.UserID != req.UserID {
		softFail(c, "Transaction ownership mismatch")
		return
	}
	intent, err := h.provider.RetrieveIntent(c.Request.Context(), req.PaymentIntentID)
	if err != nil {
		log.Printf("[Payments] retrieve intent %s failed: %v", req.PaymentIntentID, err)
		softFail(c, "Failed to confirm payment")
		return
	}
	switch intent.Status {
	case payments.IntentStatusSucceeded:
		if _, err := h.txRepo.CompletePayment(txn.ID, intent.ID); err != nil {
			softFail(c, "Failed to update transaction")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	case payments.IntentStatusRequiresPaymentMethod, payments.IntentStatusCanceled:
		if _, err := h.txRepo.FailPayment(txn.ID, intent.ID, "Payment failed: "+intent.Status); err != nil {
			softFail(c, "Failed to update transaction")
			return
		}
		softFail(c, "Payment "+intent.Status)
	default:
		// requires_confirmation, requires_action, processing, requires_capture
		softFail(c, "Payment status: "+intent.Status)
	}
}

type createPayoutRequest struct {
	Amount        float64 `json:"amount"` // major currency units
	Currency      string  `json:"currency"`
	UserID        string  `json:"user_id"`
	TransactionID uint    `json:"transaction_id"`
	VehicleID     uint    `json:"vehicle_id"`
	InvestmentID  *uint   `json:"investment_id"`
	Description   string  `json:"description"`
}

// CreatePayout issues a provider payout for a profit distribution. The
// route requires the ADMIN role; on top of that the target transaction
// must belong to the stated user.
func (h *PaymentHandler) CreatePayout(c *gin.Context) {
	var req createPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		softFail(c, "invalid request body")
		return
	}
	if req.Amount <= 0 {
		softFail(c, "Invalid amount")
		return
	}
	txn, err := h.txRepo.GetByID(req.TransactionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		softFail(c, "Transaction not found")
		return
	}
	if err != nil {
		softFail(c, "Failed to load transaction")
		return
	}
	if txn.UserID != req.UserID {
		softFail(c, "Unauthorized")
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = h.cfg.Stripe.Currency
	}
	metadata := map[string]string{
		"userId":        req.UserID,
		"type":          models.TransactionTypePayout,
		"transactionId": strconv.FormatUint(uint64(txn.ID), 10),
		"vehicleId":     strconv.FormatUint(uint64(req.VehicleID), 10),
	}
	if req.InvestmentID != nil {
		metadata["investmentId"] = strconv.FormatUint(uint64(*req.InvestmentID), 10)
	}
	description := req.Description
	if description == "" {
		description = "Profit distribution payout"
	}
	payout, err := h.provider.CreatePayout(c.Request.Context(), payments.PayoutParams{
		AmountCents: int64(math.Round(req.Amount * 100)),
		Currency:    currency,
		Description: description,
		Metadata:    metadata,
	})
	if err != nil {
		log.Printf("[Payments] create payout failed: %v", err)
		softFail(c, "Failed to create payout")
		return
	}
	if err := h.txRepo.SetPayoutRef(txn.ID, payout.ID, payout.Status); err != nil {
		log.Printf("[Payments] storing payout id on transaction %d failed: %v", txn.ID, err)
		softFail(c, "Failed to create payout")
		return
	}
	_ = h.auditRepo.Create(&models.AuditLog{
		UserID:     middleware.GetUserID(c),
		Action:     "payout_created",
		Resource:   "transaction",
		ResourceID: strconv.FormatUint(uint64(txn.ID), 10),
		Metadata:   payout.ID,
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "payout_id": payout.ID})
}
