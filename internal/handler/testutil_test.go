package handler_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crowdvest/config"
	"crowdvest/internal/auth"
	"crowdvest/internal/database"
	"crowdvest/internal/models"
	"crowdvest/internal/router"
	"crowdvest/pkg/payments"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testWebhookSecret = "whsec_test_secret"

type testEnv struct {
	db       *gorm.DB
	cfg      *config.Config
	engine   *gin.Engine
	provider *payments.StubProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	cfg := &config.Config{
		Server: config.ServerConfig{Env: "test"},
		JWT:    config.JWTConfig{AccessSecret: "test-secret", Issuer: "crowdvest-test"},
		Stripe: config.StripeConfig{WebhookSecret: testWebhookSecret, Currency: "pkr"},
	}
	provider := payments.NewStubProvider()
	return &testEnv{
		db:       db,
		cfg:      cfg,
		engine:   router.Setup(cfg, db, provider),
		provider: provider,
	}
}

func (e *testEnv) token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := auth.GenerateAccessToken(&e.cfg.JWT, userID, userID+"@example.com", role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) postJSON(t *testing.T, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

// signPayload produces a Stripe v1 signature header over the raw bytes.
func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func eventBody(t *testing.T, eventType string, object map[string]interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"id":     "evt_test_1",
		"object": "event",
		"type":   eventType,
		"data":   map[string]interface{}{"object": object},
	})
	require.NoError(t, err)
	return raw
}

// deliver posts a signed event to the webhook endpoint.
func (e *testEnv) deliver(t *testing.T, eventType string, object map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body := eventBody(t, eventType, object)
	return e.deliverRaw(t, body, signPayload(body, testWebhookSecret))
}

func (e *testEnv) deliverRaw(t *testing.T, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

// Fixtures

func (e *testEnv) createVehicle(t *testing.T, current, goal int64) *models.InvestmentVehicle {
	t.Helper()
	progress := decimal.Zero
	if goal > 0 {
		progress = decimal.NewFromInt(current).Div(decimal.NewFromInt(goal)).Mul(decimal.NewFromInt(100))
	}
	v := &models.InvestmentVehicle{
		Name:                "Test Vehicle",
		CurrentInvestment:   decimal.NewFromInt(current),
		TotalInvestmentGoal: decimal.NewFromInt(goal),
		FundingProgress:     progress,
		FundingStatus:       models.FundingStatusOpen,
	}
	require.NoError(t, e.db.Create(v).Error)
	return v
}

func (e *testEnv) createInvestment(t *testing.T, userID string, vehicleID uint, status string) *models.Investment {
	t.Helper()
	i := &models.Investment{
		UserID:      userID,
		VehicleID:   vehicleID,
		AmountCents: 10000,
		Status:      status,
	}
	require.NoError(t, e.db.Create(i).Error)
	return i
}

func (e *testEnv) createTransaction(t *testing.T, txn *models.Transaction) *models.Transaction {
	t.Helper()
	if txn.Status == "" {
		txn.Status = models.TransactionStatusPending
	}
	if txn.Type == "" {
		txn.Type = models.TransactionTypeInvestment
	}
	require.NoError(t, e.db.Create(txn).Error)
	return txn
}

func (e *testEnv) reloadTransaction(t *testing.T, id uint) *models.Transaction {
	t.Helper()
	var txn models.Transaction
	require.NoError(t, e.db.First(&txn, id).Error)
	return &txn
}

func (e *testEnv) reloadVehicle(t *testing.T, id uint) *models.InvestmentVehicle {
	t.Helper()
	var v models.InvestmentVehicle
	require.NoError(t, e.db.First(&v, id).Error)
	return &v
}

func (e *testEnv) reloadInvestment(t *testing.T, id uint) *models.Investment {
	t.Helper()
	var i models.Investment
	require.NoError(t, e.db.First(&i, id).Error)
	return &i
}

func (e *testEnv) notificationCount(t *testing.T, userID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.Notification{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}
