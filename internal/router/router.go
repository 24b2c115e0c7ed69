package router

import (
	"log"
	"net/http"
	"time"

	"crowdvest/config"
	"crowdvest/internal/handler"
	"crowdvest/internal/middleware"
	"crowdvest/internal/repository"
	"crowdvest/internal/service"
	"crowdvest/pkg/payments"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, provider payments.Provider) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	txRepo := repository.NewTransactionRepository(db)
	investRepo := repository.NewInvestmentRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	listingRepo := repository.NewListingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Services
	notifSvc := service.NewNotificationService(notificationRepo)

	// Handlers
	webhookHandler := handler.NewStripeWebhookHandler(db, txRepo, investRepo, vehicleRepo, listingRepo, auditRepo, notifSvc, cfg)
	paymentHandler := handler.NewPaymentHandler(provider, txRepo, auditRepo, cfg)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	portfolioHandler := handler.NewPortfolioHandler(vehicleRepo, investRepo, txRepo, listingRepo)

	if cfg.Stripe.WebhookSecret == "" {
		log.Printf("[Stripe] STRIPE_WEBHOOK_SECRET not set; webhook signature verification will reject all events")
	}

	authMw := middleware.AuthRequired(&cfg.JWT)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		// Provider callbacks authenticate by signature, not by bearer token.
		api.POST("/webhooks/stripe", webhookHandler.Handle)

		paymentsGroup := api.Group("/payments")
		paymentsGroup.Use(authMw)
		{
			paymentsGroup.POST("/intent", paymentHandler.CreateIntent)
			paymentsGroup.POST("/confirm", paymentHandler.ConfirmPayment)
			paymentsGroup.POST("/payout", middleware.RequireRole("ADMIN"), paymentHandler.CreatePayout)
		}

		api.GET("/vehicles", authMw, portfolioHandler.ListVehicles)
		api.GET("/vehicles/:id", authMw, portfolioHandler.GetVehicle)
		api.GET("/marketplace", authMw, portfolioHandler.ListMarketplace)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/investments", portfolioHandler.ListMyInvestments)
			me.GET("/transactions", portfolioHandler.ListMyTransactions)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}
	}

	return r
}
