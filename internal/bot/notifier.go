// internal/bot/notifier.go
package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Fire is the reminder dispatcher, called by the scheduler when a trigger
// fires. It re-reads the current record rather than using a snapshot: if the
// user or the medicine has been deleted since scheduling, the firing is a
// silent no-op. Transport failures are logged and never propagate into the
// scheduler goroutine.
func (t *TelegramBot) Fire(userID, medicineID string) {
	rec, ok := t.store.Get(userID)
	if !ok {
		return
	}
	med := rec.FindMedicine(medicineID)
	if med == nil {
		return
	}

	now := time.Now().Format("15:04")
	text := fmt.Sprintf(msgReminderTmpl, med.Name, med.Dosage, now)
	if _, err := t.api.Send(tgbotapi.NewMessage(rec.ChatID, text)); err != nil {
		t.logger.Error("Failed to send reminder", "user_id", userID, "medicine_id", medicineID, "error", err)
		return
	}

	if t.speech == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	audio, err := t.speech.Synthesize(ctx, fmt.Sprintf(voiceTmpl, med.Name, med.Dosage))
	if err != nil {
		t.logger.Error("Failed to synthesize voice reminder", "user_id", userID, "error", err)
		return
	}
	voice := tgbotapi.NewVoice(rec.ChatID, tgbotapi.FileBytes{Name: "reminder.mp3", Bytes: audio})
	if _, err := t.api.Send(voice); err != nil {
		t.logger.Error("Failed to send voice reminder", "user_id", userID, "error", err)
	}
}
