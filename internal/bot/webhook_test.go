package bot

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postPayment(t *testing.T, b *TelegramBot, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/payment", strings.NewReader(body))
	rr := httptest.NewRecorder()
	b.HandlePaymentWebhook(rr, req)
	return rr
}

func TestPaymentWebhookMarksUserPaid(t *testing.T) {
	b, f := newTestBot(t)
	b.serverKey = "shared-secret"
	register(t, b)
	require.False(t, getUser(t, b).Paid)

	rr := postPayment(t, b, `{"key":"shared-secret","user_id":"7","status":"paid"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, getUser(t, b).Paid)
	assert.Equal(t, msgPaidThanks, f.lastText())
}

func TestPaymentWebhookAcceptsSuccessAndCompleted(t *testing.T) {
	for _, status := range []string{"SUCCESS", "completed"} {
		b, _ := newTestBot(t)
		b.serverKey = "k"
		register(t, b)

		rr := postPayment(t, b, `{"key":"k","user_id":"7","status":"`+status+`"}`)
		assert.Equal(t, http.StatusOK, rr.Code, status)
		assert.True(t, getUser(t, b).Paid, status)
	}
}

func TestPaymentWebhookRejectsBadKey(t *testing.T) {
	b, _ := newTestBot(t)
	b.serverKey = "shared-secret"
	register(t, b)

	rr := postPayment(t, b, `{"key":"wrong","user_id":"7","status":"paid"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, getUser(t, b).Paid)
}

func TestPaymentWebhookRejectsAllWhenKeyUnconfigured(t *testing.T) {
	b, _ := newTestBot(t)
	register(t, b)

	rr := postPayment(t, b, `{"key":"","user_id":"7","status":"paid"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, getUser(t, b).Paid)
}

func TestPaymentWebhookIgnoresNonPaidStatus(t *testing.T) {
	b, _ := newTestBot(t)
	b.serverKey = "k"
	register(t, b)

	rr := postPayment(t, b, `{"key":"k","user_id":"7","status":"pending"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, getUser(t, b).Paid)
}

func TestPaymentWebhookUnknownUserIsAcknowledged(t *testing.T) {
	b, _ := newTestBot(t)
	b.serverKey = "k"

	rr := postPayment(t, b, `{"key":"k","user_id":"999","status":"paid"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestPaymentWebhookUpdatesPlan(t *testing.T) {
	b, _ := newTestBot(t)
	b.serverKey = "k"
	register(t, b)

	postPayment(t, b, `{"key":"k","user_id":"7","status":"paid","plan":"family"}`)
	assert.Equal(t, "family", getUser(t, b).Plan)
}

func TestPaymentWebhookBadPayload(t *testing.T) {
	b, _ := newTestBot(t)
	b.serverKey = "k"

	rr := postPayment(t, b, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/webhook/payment", nil)
	rr = httptest.NewRecorder()
	b.HandlePaymentWebhook(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
