// internal/bot/telegram.go
package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"medibot/config"
	"medibot/internal/models"
	"medibot/internal/scheduler"
	"medibot/internal/speech"
	"medibot/internal/store"
	"medibot/pkg/logger"
)

// api is the slice of *tgbotapi.BotAPI the bot actually sends through.
// Tests substitute a fake to capture outbound messages.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type TelegramBot struct {
	api         api
	tg          *tgbotapi.BotAPI
	store       *store.Store
	sched       *scheduler.Scheduler
	speech      *speech.Client // nil when voice reminders are not configured
	logger      *logger.Logger
	token       string
	webhookBase string
	serverKey   string // payment callback secret; empty enables self-reported confirmation
}

func New(cfg *config.Config, st *store.Store, sp *speech.Client, l *logger.Logger) (*TelegramBot, error) {
	tg, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	l.Info("Authorized on Telegram", "username", tg.Self.UserName)

	return &TelegramBot{
		api:         tg,
		tg:          tg,
		store:       st,
		speech:      sp,
		logger:      l,
		token:       cfg.Telegram.Token,
		webhookBase: cfg.Telegram.WebhookBase,
		serverKey:   cfg.Payment.ServerKey,
	}, nil
}

// UseScheduler attaches the reminder scheduler. Set once during startup,
// after the scheduler is built around this bot's Fire.
func (t *TelegramBot) UseScheduler(s *scheduler.Scheduler) { t.sched = s }

// StartPolling removes any webhook and begins long-polling for updates.
func (t *TelegramBot) StartPolling(ctx context.Context) error {
	_, err := t.tg.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: false})
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := t.tg.GetUpdatesChan(updateConfig)

	t.logger.Info("Started receiving Telegram updates")
	go t.handleUpdates(ctx, updates)
	return nil
}

// handleUpdates processes updates one at a time, so each user's conversation
// step is handled to completion before the next inbound message.
func (t *TelegramBot) handleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.ProcessUpdate(update)
		}
	}
}

// ProcessUpdate dispatches one inbound update. Shared by the polling loop and
// the webhook route.
func (t *TelegramBot) ProcessUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("Recovered from panic while processing update", "update_id", update.UpdateID, "panic", r)
		}
	}()

	switch {
	case update.Message != nil:
		if update.Message.IsCommand() {
			t.handleCommand(update.Message)
		} else {
			t.handleText(update.Message)
		}
	case update.CallbackQuery != nil:
		t.handleCallback(update.CallbackQuery)
	}
}

// Stop shuts down update reception.
func (t *TelegramBot) Stop(ctx context.Context) error {
	t.tg.StopReceivingUpdates()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(500 * time.Millisecond):
		return nil
	}
}

func (t *TelegramBot) send(chatID int64, text string) {
	if _, err := t.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		t.logger.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
}

func (t *TelegramBot) sendKB(chatID int64, text string, kb interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := t.api.Send(msg); err != nil {
		t.logger.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
}

// persist writes the record through the store. Persistence failures are
// logged and tolerated; the in-memory state keeps going.
func (t *TelegramBot) persist(rec *models.UserRecord) {
	if err := t.store.Upsert(rec); err != nil {
		t.logger.Error("Failed to persist user record", "user_id", rec.ID, "error", err)
	}
}
