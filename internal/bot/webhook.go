// internal/bot/webhook.go
package bot

import (
	"encoding/json"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"medibot/internal/payment"
)

// WebhookPath is the secret Telegram update route, keyed by the bot token.
func (t *TelegramBot) WebhookPath() string {
	return "/webhook/" + t.token
}

// RegisterWebhook (re)registers the webhook URL with Telegram.
func (t *TelegramBot) RegisterWebhook() error {
	wh, err := tgbotapi.NewWebhook(strings.TrimRight(t.webhookBase, "/") + t.WebhookPath())
	if err != nil {
		return err
	}
	_, err = t.tg.Request(wh)
	return err
}

// HandleTelegramWebhook receives transport update payloads in webhook mode.
func (t *TelegramBot) HandleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	update, err := t.tg.HandleUpdate(r)
	if err != nil {
		t.logger.Error("Failed to parse webhook update", "error", err)
		http.Error(w, "Bad update payload", http.StatusBadRequest)
		return
	}

	t.ProcessUpdate(*update)
	w.WriteHeader(http.StatusOK)
}

// HandleRegisterWebhook lets an operator re-register the webhook URL.
func (t *TelegramBot) HandleRegisterWebhook(w http.ResponseWriter, r *http.Request) {
	if err := t.RegisterWebhook(); err != nil {
		t.logger.Error("Failed to register webhook", "error", err)
		http.Error(w, "Failed to register webhook", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// paymentCallback is the payment provider's notification payload. The shared
// server key rides in the body and is compared for exact equality.
type paymentCallback struct {
	Key    string `json:"key"`
	UserID string `json:"user_id"`
	Status string `json:"status"`
	Plan   string `json:"plan,omitempty"`
}

// HandlePaymentWebhook marks a user paid when the provider reports a
// completed transaction.
func (t *TelegramBot) HandlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cb paymentCallback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		http.Error(w, "Bad payload", http.StatusBadRequest)
		return
	}

	if !payment.VerifyCallback(t.serverKey, cb.Key) {
		t.logger.Error("Rejected payment callback with bad server key", "user_id", cb.UserID)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	status := strings.ToLower(cb.Status)
	if status != "paid" && status != "success" && status != "completed" {
		t.logger.Info("Ignoring payment callback", "user_id", cb.UserID, "status", cb.Status)
		w.WriteHeader(http.StatusOK)
		return
	}

	rec, ok := t.store.Get(cb.UserID)
	if !ok {
		t.logger.Error("Payment callback for unknown user", "user_id", cb.UserID)
		w.WriteHeader(http.StatusOK)
		return
	}

	rec.Paid = true
	if cb.Plan != "" {
		rec.Plan = cb.Plan
	}
	t.persist(rec)
	t.send(rec.ChatID, msgPaidThanks)

	t.logger.Info("Payment confirmed", "user_id", cb.UserID, "plan", rec.Plan)
	w.WriteHeader(http.StatusOK)
}
