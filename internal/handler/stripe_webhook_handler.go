package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"crowdvest/config"
	"crowdvest/internal/models"
	"crowdvest/internal/repository"
	"crowdvest/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"
)

// StripeWebhookHandler reconciles provider lifecycle events against the
// transaction ledger. Events are at-least-once and may arrive out of order,
// so every mutation is guarded by the current row state and all side
// effects of one event commit in a single database transaction.
type StripeWebhookHandler struct {
	db          *gorm.DB
	txRepo      *repository.TransactionRepository
	investRepo  *repository.InvestmentRepository
	vehicleRepo *repository.VehicleRepository
	listingRepo *repository.ListingRepository
	auditRepo   *repository.AuditLogRepository
	notifSvc    *service.NotificationService
	cfg         *config.Config
}

func NewStripeWebhookHandler(
	db *gorm.DB,
	txRepo *repository.TransactionRepository,
	investRepo *repository.InvestmentRepository,
	vehicleRepo *repository.VehicleRepository,
	listingRepo *repository.ListingRepository,
	auditRepo *repository.AuditLogRepository,
	notifSvc *service.NotificationService,
	cfg *config.Config,
) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		db:          db,
		txRepo:      txRepo,
		investRepo:  investRepo,
		vehicleRepo: vehicleRepo,
		listingRepo: listingRepo,
		auditRepo:   auditRepo,
		notifSvc:    notifSvc,
		cfg:         cfg,
	}
}

// eventMetadata is the typed view of the tracking metadata attached at
// intent/payout creation time. Ids are decimal strings on the wire.
type eventMetadata struct {
	UserID       string
	Type         string
	InvestmentID uint
	VehicleID    uint
}

func parseEventMetadata(m map[string]string) eventMetadata {
	meta := eventMetadata{
		UserID: m["userId"],
		Type:   m["type"],
	}
	if v, err := strconv.ParseUint(m["investmentId"], 10, 64); err == nil {
		meta.InvestmentID = uint(v)
	}
	if v, err := strconv.ParseUint(m["vehicleId"], 10, 64); err == nil {
		meta.VehicleID = uint(v)
	}
	return meta
}

// Handle verifies the event signature against the raw request bytes and
// dispatches to the event kind's reconciler. Unknown event types are
// acknowledged so the provider does not retry them; reconciler errors
// return 500 so the provider redelivers.
func (h *StripeWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	sig := c.GetHeader("Stripe-Signature")
	if sig == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing signature"})
		return
	}
	event, err := webhook.ConstructEventWithOptions(body, sig, h.cfg.Stripe.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		log.Printf("[Stripe webhook] signature verification failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
		return
	}

	var handleErr error
	switch string(event.Type) {
	case "payment_intent.succeeded":
		handleErr = h.withPaymentIntent(&event, h.handlePaymentSucceeded)
	case "payment_intent.payment_failed":
		handleErr = h.withPaymentIntent(&event, h.handlePaymentFailed)
	case "payment_intent.canceled":
		handleErr = h.withPaymentIntent(&event, h.handlePaymentCanceled)
	case "payout.paid":
		handleErr = h.withPayout(&event, h.handlePayoutPaid)
	case "payout.failed":
		handleErr = h.withPayout(&event, h.handlePayoutFailed)
	default:
		log.Printf("[Stripe webhook] unhandled event type: %s", event.Type)
	}
	if handleErr != nil {
		log.Printf("[Stripe webhook] error handling %s: %v", event.Type, handleErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook handler error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// withPaymentIntent decodes the nested payload once at the dispatch
// boundary, so reconcilers work with typed objects.
func (h *StripeWebhookHandler) withPaymentIntent(event *stripe.Event, fn func(*stripe.PaymentIntent, eventMetadata) error) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return err
	}
	return fn(&pi, parseEventMetadata(pi.Metadata))
}

func (h *StripeWebhookHandler) withPayout(event *stripe.Event, fn func(*stripe.Payout, eventMetadata) error) error {
	var po stripe.Payout
	if err := json.Unmarshal(event.Data.Raw, &po); err != nil {
		return err
	}
	return fn(&po, parseEventMetadata(po.Metadata))
}

func (h *StripeWebhookHandler) handlePaymentSucceeded(pi *stripe.PaymentIntent, meta eventMetadata) error {
	txn, err := h.txRepo.GetByPaymentIntentID(pi.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[Stripe webhook] no transaction for payment intent %s", pi.ID)
		return nil
	}
	if err != nil {
		return err
	}
	return h.db.Transaction(func(tx *gorm.DB) error {
		done, err := h.txRepo.WithTx(tx).SettlePayment(txn.ID, pi.ID)
		if err != nil {
			return err
		}
		if !done {
			log.Printf("[Stripe webhook] transaction %d already reconciled, ignoring %s", txn.ID, pi.ID)
			return nil
		}

		switch meta.Type {
		case models.TransactionTypeInvestment:
			if meta.InvestmentID != 0 {
				if _, err := h.investRepo.WithTx(tx).Activate(meta.InvestmentID); err != nil {
					return err
				}
				if meta.VehicleID != 0 {
					amount := decimal.NewFromInt(pi.Amount).Div(decimal.NewFromInt(100))
					err := h.vehicleRepo.WithTx(tx).CreditFunds(meta.VehicleID, amount)
					if errors.Is(err, gorm.ErrRecordNotFound) {
						log.Printf("[Stripe webhook] vehicle %d not found for payment intent %s", meta.VehicleID, pi.ID)
					} else if err != nil {
						return err
					}
				}
			}
		case models.TransactionTypeSharePurchase:
			if meta.InvestmentID != 0 {
				if err := h.investRepo.WithTx(tx).TransferOwnership(meta.InvestmentID, meta.UserID); err != nil {
					return err
				}
				if _, err := h.listingRepo.WithTx(tx).MarkSold(meta.InvestmentID, meta.UserID); err != nil {
					return err
				}
			}
		}

		if meta.UserID != "" {
			if err := h.notifSvc.WithTx(tx).NotifyPaymentSuccess(meta.UserID, pi.Amount, txn.ID); err != nil {
				return err
			}
		}
		return h.audit(tx, meta.UserID, "payment_succeeded", txn.ID, pi.ID)
	})
}

func (h *StripeWebhookHandler) handlePaymentFailed(pi *stripe.PaymentIntent, meta eventMetadata) error {
	txn, err := h.txRepo.GetByPaymentIntentID(pi.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[Stripe webhook] no transaction for payment intent %s", pi.ID)
		return nil
	}
	if err != nil {
		return err
	}
	return h.db.Transaction(func(tx *gorm.DB) error {
		done, err := h.txRepo.WithTx(tx).FailPayment(txn.ID, pi.ID, "Payment failed")
		if err != nil {
			return err
		}
		if !done {
			log.Printf("[Stripe webhook] transaction %d already terminal, ignoring failed event for %s", txn.ID, pi.ID)
			return nil
		}
		if meta.UserID != "" {
			if err := h.notifSvc.WithTx(tx).NotifyPaymentFailed(meta.UserID, txn.ID); err != nil {
				return err
			}
		}
		return h.audit(tx, meta.UserID, "payment_failed", txn.ID, pi.ID)
	})
}

// Canceled intents fail the transaction but notify no one; the user
// canceled it themselves.
func (h *StripeWebhookHandler) handlePaymentCanceled(pi *stripe.PaymentIntent, meta eventMetadata) error {
	txn, err := h.txRepo.GetByPaymentIntentID(pi.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[Stripe webhook] no transaction for payment intent %s", pi.ID)
		return nil
	}
	if err != nil {
		return err
	}
	return h.db.Transaction(func(tx *gorm.DB) error {
		done, err := h.txRepo.WithTx(tx).FailPayment(txn.ID, pi.ID, "Payment canceled")
		if err != nil {
			return err
		}
		if !done {
			return nil
		}
		return h.audit(tx, meta.UserID, "payment_canceled", txn.ID, pi.ID)
	})
}

func (h *StripeWebhookHandler) handlePayoutPaid(po *stripe.Payout, meta eventMetadata) error {
	txn, err := h.txRepo.GetByPayoutID(po.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[Stripe webhook] no transaction for payout %s", po.ID)
		return nil
	}
	if err != nil {
		return err
	}
	return h.db.Transaction(func(tx *gorm.DB) error {
		done, err := h.txRepo.WithTx(tx).CompletePayout(txn.ID)
		if err != nil {
			return err
		}
		if !done {
			log.Printf("[Stripe webhook] transaction %d already terminal, ignoring payout %s", txn.ID, po.ID)
			return nil
		}
		if meta.UserID != "" {
			if err := h.notifSvc.WithTx(tx).NotifyPayoutSuccess(meta.UserID, txn.ID); err != nil {
				return err
			}
		}
		return h.audit(tx, meta.UserID, "payout_paid", txn.ID, po.ID)
	})
}

func (h *StripeWebhookHandler) handlePayoutFailed(po *stripe.Payout, meta eventMetadata) error {
	txn, err := h.txRepo.GetByPayoutID(po.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[Stripe webhook] no transaction for payout %s", po.ID)
		return nil
	}
	if err != nil {
		return err
	}
	return h.db.Transaction(func(tx *gorm.DB) error {
		done, err := h.txRepo.WithTx(tx).FailPayout(txn.ID, "Payout failed")
		if err != nil {
			return err
		}
		if !done {
			return nil
		}
		if meta.UserID != "" {
			if err := h.notifSvc.WithTx(tx).NotifyPayoutFailed(meta.UserID, txn.ID); err != nil {
				return err
			}
		}
		return h.audit(tx, meta.UserID, "payout_failed", txn.ID, po.ID)
	})
}

func (h *StripeWebhookHandler) audit(tx *gorm.DB, userID, action string, transactionID uint, providerRef string) error {
	return h.auditRepo.WithTx(tx).Create(&models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   "transaction",
		ResourceID: strconv.FormatUint(uint64(transactionID), 10),
		Metadata:   providerRef,
	})
}
