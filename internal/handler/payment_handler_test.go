package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"crowdvest/internal/models"
	"crowdvest/pkg/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCreateIntentRecordsPendingTransaction(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "user-1", "USER")

	w := env.postJSON(t, "/api/v1/payments/intent", tok, map[string]interface{}{
		"amount":  150.0,
		"user_id": "user-1",
		"type":    "investment",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	require.Equal(t, true, resp["success"])
	assert.NotEmpty(t, resp["client_secret"])

	var txn models.Transaction
	require.NoError(t, env.db.First(&txn, uint(resp["transaction_id"].(float64))).Error)
	assert.Equal(t, models.TransactionStatusPending, txn.Status)
	assert.EqualValues(t, 15000, txn.AmountCents)
	assert.NotEmpty(t, txn.StripePaymentIntentID)
}

func TestCreateIntentRejectsNonPositiveAmount(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "user-1", "USER")

	w := env.postJSON(t, "/api/v1/payments/intent", tok, map[string]interface{}{
		"amount":  0.0,
		"user_id": "user-1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Invalid amount", resp["error"])
}

func TestCreateIntentRejectsUserMismatch(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "user-1", "USER")

	w := env.postJSON(t, "/api/v1/payments/intent", tok, map[string]interface{}{
		"amount":  50.0,
		"user_id": "user-2",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "User ID mismatch", resp["error"])
}

func TestCreateIntentRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	w := env.postJSON(t, "/api/v1/payments/intent", "", map[string]interface{}{
		"amount":  50.0,
		"user_id": "user-1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateIntentReusesExistingTransaction(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "user-1", "USER")
	txn := env.createTransaction(t, &models.Transaction{
		UserID:      "user-1",
		AmountCents: 5000,
	})

	w := env.postJSON(t, "/api/v1/payments/intent", tok, map[string]interface{}{
		"amount":         50.0,
		"user_id":        "user-1",
		"transaction_id": txn.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	require.Equal(t, true, resp["success"])
	assert.EqualValues(t, txn.ID, resp["transaction_id"].(float64))

	var count int64
	require.NoError(t, env.db.Model(&models.Transaction{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateIntentRejectsForeignTransaction(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "user-1", "USER")
	txn := env.createTransaction(t, &models.Transaction{
		UserID:      "user-2",
		AmountCents: 5000,
	})

	w := env.postJSON(t, "/api/v1/payments/intent", tok, map[string]interface{}{
		"amount":         50.0,
		"user_id":        "user-1",
		"transaction_id": txn.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Transaction ownership mismatch", resp["error"])
}

func TestConfirmPaymentSucceeded(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "user-1", "USER")
	txn := env.createTransaction(t, &models.Transaction{
		UserID:                "user-1",
		AmountCents:           5000,
		StripePaymentIntentID: "pi_confirm_1",
	})
	env.provider.SetIntentStatus("pi_confirm_1", payments.IntentStatusSucceeded)

	w := env.postJSON(t, "/api/v1/payments/confirm", tok, map[string]interface{}{
		"payment_intent_id": "pi_confirm_1",
		"transaction_id":    txn.ID,
		"user_id":           "user-1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, models.TransactionStatusCompleted, env.reloadTransaction(t, txn.ID).Status)
}

func TestConfirmPaymentRequiresPaymentMethod(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "user-1", "USER")
	txn := env.createTransaction(t, &models.Transaction{
		UserID:                "user-1",
		AmountCents:           5000,
		StripePaymentIntentID: "pi_confirm_2",
	})
	env.provider.SetIntentStatus("pi_confirm_2", payments.IntentStatusRequiresPaymentMethod)

	w := env.postJSON(t, "/api/v1/payments/confirm", tok, map[string]interface{}{
		"payment_intent_id": "pi_confirm_2",
		"transaction_id":    txn.ID,
		"user_id":           "user-1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, false, resp["success"])

	got := env.reloadTransaction(t, txn.ID)
	assert.Equal(t, models.TransactionStatusFailed, got.Status)
}

func TestConfirmPaymentInFlightStatusLeavesTransactionPending(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "user-1", "USER")
	txn := env.createTransaction(t, &models.Transaction{
		UserID:                "user-1",
		AmountCents:           5000,
		StripePaymentIntentID: "pi_confirm_3",
	})
	env.provider.SetIntentStatus("pi_confirm_3", "processing")

	w := env.postJSON(t, "/api/v1/payments/confirm", tok, map[string]interface{}{
		"payment_intent_id": "pi_confirm_3",
		"transaction_id":    txn.ID,
		"user_id":           "user-1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Payment status: processing", resp["error"])
	assert.Equal(t, models.TransactionStatusPending, env.reloadTransaction(t, txn.ID).Status)
}

func TestConfirmPaymentUnknownIntentLeavesTransactionPending(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "user-1", "USER")
	txn := env.createTransaction(t, &models.Transaction{
		UserID:      "user-1",
		AmountCents: 5000,
	})

	w := env.postJSON(t, "/api/v1/payments/confirm", tok, map[string]interface{}{
		"payment_intent_id": "pi_never_created",
		"transaction_id":    txn.ID,
		"user_id":           "user-1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Failed to confirm payment", resp["error"])
	assert.Equal(t, models.TransactionStatusPending, env.reloadTransaction(t, txn.ID).Status)
}

func TestConfirmPaymentRejectsForeignTransaction(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "user-1", "USER")
	txn := env.createTransaction(t, &models.Transaction{
		UserID:      "user-2",
		AmountCents: 5000,
	})

	w := env.postJSON(t, "/api/v1/payments/confirm", tok, map[string]interface{}{
		"payment_intent_id": "pi_foreign_1",
		"transaction_id":    txn.ID,
		"user_id":           "user-2",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "User ID mismatch", resp["error"])
}

func TestCreatePayoutRequiresAdminRole(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "user-1", "USER")

	w := env.postJSON(t, "/api/v1/payments/payout", tok, map[string]interface{}{
		"amount":         300.0,
		"user_id":        "user-1",
		"transaction_id": 1,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreatePayoutStoresProviderReference(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, "admin-1", "ADMIN")
	txn := env.createTransaction(t, &models.Transaction{
		UserID:      "user-1",
		Type:        models.TransactionTypePayout,
		AmountCents: 30000,
	})

	w := env.postJSON(t, "/api/v1/payments/payout", admin, map[string]interface{}{
		"amount":         300.0,
		"user_id":        "user-1",
		"transaction_id": txn.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	require.Equal(t, true, resp["success"])
	assert.NotEmpty(t, resp["payout_id"])

	got := env.reloadTransaction(t, txn.ID)
	assert.NotEmpty(t, got.StripePayoutID)
	assert.Equal(t, "pending", got.PayoutStatus)
	assert.Equal(t, models.TransactionStatusPending, got.Status)
}

func TestCreatePayoutRejectsOwnershipMismatch(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, "admin-1", "ADMIN")
	txn := env.createTransaction(t, &models.Transaction{
		UserID:      "user-1",
		Type:        models.TransactionTypePayout,
		AmountCents: 30000,
	})

	w := env.postJSON(t, "/api/v1/payments/payout", admin, map[string]interface{}{
		"amount":         300.0,
		"user_id":        "user-2",
		"transaction_id": txn.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Unauthorized", resp["error"])
}
