// internal/bot/flow.go
package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"medibot/internal/models"
	"medibot/internal/payment"
)

func (t *TelegramBot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		t.handleStart(msg)
	default:
		t.send(msg.Chat.ID, msgUseStart)
	}
}

// handleStart resets the conversation to the name prompt. An existing record
// keeps its medicines and paid flag; only the step and any in-progress scratch
// object are reset.
func (t *TelegramBot) handleStart(msg *tgbotapi.Message) {
	uid := strconv.FormatInt(msg.From.ID, 10)

	rec, ok := t.store.Get(uid)
	if !ok {
		rec = &models.UserRecord{
			ID:        uid,
			ChatID:    msg.Chat.ID,
			Medicines: []models.MedicineRecord{},
			CreatedAt: time.Now().Unix(),
		}
	}
	rec.ChatID = msg.Chat.ID
	rec.Step = models.StepName
	rec.Pending = nil
	t.persist(rec)

	t.send(rec.ChatID, msgWelcome)
}

// handleText is the conversation state machine: one inbound text payload,
// interpreted by the user's current step. Invalid input re-prompts and leaves
// both the step and the record untouched.
func (t *TelegramBot) handleText(msg *tgbotapi.Message) {
	uid := strconv.FormatInt(msg.From.ID, 10)
	txt := strings.TrimSpace(msg.Text)

	rec, ok := t.store.Get(uid)
	if !ok {
		t.send(msg.Chat.ID, msgUseStart)
		return
	}
	chatID := rec.ChatID

	switch rec.Step {

	// ── registration ────────────────────────────────────────────────

	case models.StepName:
		rec.Name = txt
		rec.Step = models.StepCountry
		t.persist(rec)
		t.send(chatID, fmt.Sprintf(msgGreeting, txt))
		t.sendKB(chatID, msgAskCountry, countryKeyboard())

	case models.StepCountry:
		country, ok := countryByButton(txt)
		if !ok {
			t.sendKB(chatID, msgBadCountry, countryKeyboard())
			return
		}
		rec.Country = country
		rec.Step = models.StepPhone
		t.persist(rec)
		t.sendKB(chatID, msgAskPhone, tgbotapi.NewRemoveKeyboard(true))

	case models.StepPhone:
		if !validPhone(txt) {
			t.send(chatID, msgBadPhone)
			return
		}
		rec.Phone = txt
		// A recognized calling code overrides the menu choice.
		if c := payment.DetectCountry(txt); c != payment.CountryDefault {
			rec.Country = c
		}
		rec.Step = models.StepAge
		t.persist(rec)
		t.send(chatID, msgAskAge)

	case models.StepAge:
		age, ok := parseAge(txt)
		if !ok {
			t.send(chatID, msgBadAge)
			return
		}
		rec.Age = age
		rec.Step = models.StepEmail
		t.persist(rec)
		t.send(chatID, msgAskEmail)

	case models.StepEmail:
		if !strings.Contains(txt, "@") || !strings.Contains(txt, ".") {
			t.send(chatID, msgBadEmail)
			return
		}
		rec.Email = txt
		rec.Step = models.StepPlan
		t.persist(rec)
		t.sendKB(chatID, msgAskPlan, planKeyboard())

	case models.StepPlan:
		var plan string
		switch txt {
		case btnPlanIndividual:
			plan = "individual"
		case btnPlanFamily:
			plan = "family"
		default:
			t.sendKB(chatID, msgBadPlan, planKeyboard())
			return
		}
		rec.Plan = plan
		rec.Step = models.StepMenu
		t.persist(rec)
		t.sendPaymentDetails(rec, plan)
		t.sendKB(chatID, msgMenu, mainMenuKeyboard())

	// ── main menu ───────────────────────────────────────────────────

	case models.StepMenu:
		t.handleMenu(rec, txt)

	// ── add medicine ────────────────────────────────────────────────

	case models.StepMedName:
		if rec.Pending == nil {
			t.resetToMenu(rec, msgMenu)
			return
		}
		rec.Pending.Name = txt
		rec.Step = models.StepMedDose
		t.persist(rec)
		t.send(chatID, msgAskDose)

	case models.StepMedDose:
		if rec.Pending == nil {
			t.resetToMenu(rec, msgMenu)
			return
		}
		rec.Pending.Dosage = txt
		rec.Step = models.StepMedTimesCount
		t.persist(rec)
		t.sendKB(chatID, msgAskTimes, timesCountKeyboard())

	case models.StepMedTimesCount:
		t.handleTimesCount(rec, txt, models.StepMedTime)

	case models.StepMedTime:
		t.handleTimeInput(rec, txt, models.StepMedPeriod)

	case models.StepMedPeriod:
		t.handlePeriod(rec, txt, models.StepMedTime, func() {
			rec.Step = models.StepMedDays
			t.persist(rec)
			t.sendKB(chatID, msgAskDays, daysKeyboard())
		})

	case models.StepMedDays:
		t.handleDays(rec, txt)

	// ── edit medicine ───────────────────────────────────────────────

	case models.StepEditChoose:
		if txt == btnBack {
			t.resetToMenu(rec, msgBackToMenu)
			return
		}
		med := rec.FindMedicineByName(txt)
		if med == nil {
			t.send(chatID, msgNotFound)
			return
		}
		rec.Pending = &models.PendingMedicine{EditID: med.ID}
		rec.Step = models.StepEditField
		t.persist(rec)
		t.sendKB(chatID, msgChooseField, editFieldKeyboard())

	case models.StepEditField:
		switch txt {
		case btnBack:
			t.resetToMenu(rec, msgBackToMenu)
		case btnFieldName:
			rec.Step = models.StepEditName
			t.persist(rec)
			t.sendKB(chatID, msgAskNewName, tgbotapi.NewRemoveKeyboard(true))
		case btnFieldDose:
			rec.Step = models.StepEditDose
			t.persist(rec)
			t.sendKB(chatID, msgAskNewDose, tgbotapi.NewRemoveKeyboard(true))
		case btnFieldTimes:
			rec.Step = models.StepEditTimesCount
			t.persist(rec)
			t.sendKB(chatID, msgAskTimes, timesCountKeyboard())
		default:
			t.sendKB(chatID, msgChooseField, editFieldKeyboard())
		}

	case models.StepEditName:
		t.handleEditField(rec, func(med *models.MedicineRecord) { med.Name = txt })

	case models.StepEditDose:
		t.handleEditField(rec, func(med *models.MedicineRecord) { med.Dosage = txt })

	case models.StepEditTimesCount:
		t.handleTimesCount(rec, txt, models.StepEditTime)

	case models.StepEditTime:
		t.handleTimeInput(rec, txt, models.StepEditPeriod)

	case models.StepEditPeriod:
		t.handlePeriod(rec, txt, models.StepEditTime, func() {
			t.commitEditTimes(rec)
		})

	// ── delete medicine ─────────────────────────────────────────────

	case models.StepDeleteChoose:
		if txt == btnBack {
			t.resetToMenu(rec, msgBackToMenu)
			return
		}
		med := rec.FindMedicineByName(txt)
		if med == nil {
			t.send(chatID, msgNotFound)
			return
		}
		medID := med.ID
		kept := rec.Medicines[:0]
		for _, m := range rec.Medicines {
			if m.ID != medID {
				kept = append(kept, m)
			}
		}
		rec.Medicines = kept
		rec.Step = models.StepMenu
		t.persist(rec)
		t.sched.UnscheduleMedicine(rec.ID, medID)
		t.sendKB(chatID, msgDeleted, mainMenuKeyboard())

	default:
		t.resetToMenu(rec, msgMenu)
	}
}

func (t *TelegramBot) handleMenu(rec *models.UserRecord, txt string) {
	chatID := rec.ChatID

	switch txt {
	case btnAddMed:
		rec.Pending = &models.PendingMedicine{}
		rec.Step = models.StepMedName
		t.persist(rec)
		t.sendKB(chatID, msgAskMedName, tgbotapi.NewRemoveKeyboard(true))

	case btnListMed:
		if len(rec.Medicines) == 0 {
			t.send(chatID, msgNoMeds)
			return
		}
		var sb strings.Builder
		sb.WriteString("📋 قائمة الأدوية:\n")
		for _, m := range rec.Medicines {
			sb.WriteString("- " + m.Name + " (" + strings.Join(m.Schedule.Times, ", ") + ")")
			if len(m.Schedule.Weekdays) > 0 {
				labels := make([]string, len(m.Schedule.Weekdays))
				for i, wd := range m.Schedule.Weekdays {
					labels[i] = weekdayLabel(wd)
				}
				sb.WriteString(" — " + strings.Join(labels, "، "))
			}
			sb.WriteString("\n")
		}
		t.send(chatID, sb.String())

	case btnEditMed:
		if len(rec.Medicines) == 0 {
			t.send(chatID, msgNoMedsEdit)
			return
		}
		rec.Step = models.StepEditChoose
		t.persist(rec)
		t.sendKB(chatID, msgChooseEdit, medicineKeyboard(rec.Medicines))

	case btnDelMed:
		if len(rec.Medicines) == 0 {
			t.send(chatID, msgNoMedsDelete)
			return
		}
		rec.Step = models.StepDeleteChoose
		t.persist(rec)
		t.sendKB(chatID, msgChooseDelete, medicineKeyboard(rec.Medicines))

	default:
		t.sendKB(chatID, msgMenu, mainMenuKeyboard())
	}
}

// handleTimesCount accepts the per-day dose count; only 1..4 are allowed.
func (t *TelegramBot) handleTimesCount(rec *models.UserRecord, txt string, next models.Step) {
	if rec.Pending == nil {
		t.resetToMenu(rec, msgMenu)
		return
	}
	if txt != "1" && txt != "2" && txt != "3" && txt != "4" {
		t.sendKB(rec.ChatID, msgBadTimes, timesCountKeyboard())
		return
	}
	n, _ := strconv.Atoi(txt)
	rec.Pending.TimesLeft = n
	rec.Pending.Times = nil
	rec.Step = next
	t.persist(rec)
	t.sendKB(rec.ChatID, msgAskTime, tgbotapi.NewRemoveKeyboard(true))
}

// handleTimeInput validates one "HH:MM" entry and parks it until its period
// (morning/evening) arrives.
func (t *TelegramBot) handleTimeInput(rec *models.UserRecord, txt string, next models.Step) {
	if rec.Pending == nil {
		t.resetToMenu(rec, msgMenu)
		return
	}
	hour, minute, err := models.ParseClock(txt)
	if err != nil {
		t.send(rec.ChatID, msgBadTime)
		return
	}
	rec.Pending.RawTime = models.FormatClock(hour, minute)
	rec.Step = next
	t.persist(rec)
	t.sendKB(rec.ChatID, msgAskPeriod, periodKeyboard())
}

// handlePeriod converts the parked time to 24-hour form: morning turns 12
// into 0, evening adds 12 to anything below 12. When more times are expected
// the flow loops back to timeStep, otherwise done runs.
func (t *TelegramBot) handlePeriod(rec *models.UserRecord, txt string, timeStep models.Step, done func()) {
	if rec.Pending == nil || rec.Pending.RawTime == "" {
		t.resetToMenu(rec, msgMenu)
		return
	}
	hour, minute, err := models.ParseClock(rec.Pending.RawTime)
	if err != nil {
		t.resetToMenu(rec, msgMenu)
		return
	}

	switch txt {
	case btnMorning:
		if hour == 12 {
			hour = 0
		}
	case btnEvening:
		if hour < 12 {
			hour += 12
		}
	default:
		t.sendKB(rec.ChatID, msgBadPeriod, periodKeyboard())
		return
	}

	rec.Pending.Times = append(rec.Pending.Times, models.FormatClock(hour, minute))
	rec.Pending.RawTime = ""
	rec.Pending.TimesLeft--

	if rec.Pending.TimesLeft > 0 {
		rec.Step = timeStep
		t.persist(rec)
		t.sendKB(rec.ChatID, msgAskNextTime, tgbotapi.NewRemoveKeyboard(true))
		return
	}
	done()
}

// handleDays collects the recurrence: every day, or an accumulated weekday
// set closed with the done button. Completion commits the scratch medicine.
func (t *TelegramBot) handleDays(rec *models.UserRecord, txt string) {
	if rec.Pending == nil {
		t.resetToMenu(rec, msgMenu)
		return
	}

	switch {
	case txt == btnEveryDay:
		rec.Pending.Weekdays = nil
		t.commitNewMedicine(rec)

	case txt == btnDaysDone:
		if len(rec.Pending.Weekdays) == 0 {
			t.sendKB(rec.ChatID, msgNeedDay, daysKeyboard())
			return
		}
		t.commitNewMedicine(rec)

	default:
		name, ok := weekdayByLabel(txt)
		if !ok {
			t.sendKB(rec.ChatID, msgAskDays, daysKeyboard())
			return
		}
		for _, existing := range rec.Pending.Weekdays {
			if existing == name {
				t.sendKB(rec.ChatID, msgMoreDays, daysKeyboard())
				return
			}
		}
		rec.Pending.Weekdays = append(rec.Pending.Weekdays, name)
		t.persist(rec)
		t.sendKB(rec.ChatID, msgMoreDays, daysKeyboard())
	}
}

// commitNewMedicine moves the scratch object into the medicine list, persists
// before replying, and registers the reminder jobs.
func (t *TelegramBot) commitNewMedicine(rec *models.UserRecord) {
	med := models.MedicineRecord{
		ID:     uuid.NewString(),
		Name:   rec.Pending.Name,
		Dosage: rec.Pending.Dosage,
		Schedule: models.Schedule{
			Times:    rec.Pending.Times,
			Weekdays: rec.Pending.Weekdays,
		},
	}
	rec.Medicines = append(rec.Medicines, med)
	rec.Pending = nil
	rec.Step = models.StepMenu
	t.persist(rec)
	t.sched.ScheduleMedicine(rec.ID, med)
	t.sendKB(rec.ChatID, msgMedAdded, mainMenuKeyboard())
}

// handleEditField applies a single-field edit to the medicine picked earlier.
func (t *TelegramBot) handleEditField(rec *models.UserRecord, apply func(*models.MedicineRecord)) {
	if rec.Pending == nil {
		t.resetToMenu(rec, msgMenu)
		return
	}
	med := rec.FindMedicine(rec.Pending.EditID)
	if med == nil {
		t.resetToMenu(rec, msgNotFound)
		return
	}
	apply(med)
	rec.Pending = nil
	rec.Step = models.StepMenu
	t.persist(rec)
	t.sendKB(rec.ChatID, msgEdited, mainMenuKeyboard())
}

// commitEditTimes replaces the medicine's whole time list (weekdays are kept
// as they were) and reschedules its jobs.
func (t *TelegramBot) commitEditTimes(rec *models.UserRecord) {
	med := rec.FindMedicine(rec.Pending.EditID)
	if med == nil {
		t.resetToMenu(rec, msgNotFound)
		return
	}
	med.Schedule.Times = rec.Pending.Times
	updated := med.Clone()
	rec.Pending = nil
	rec.Step = models.StepMenu
	t.persist(rec)
	t.sched.ScheduleMedicine(rec.ID, updated)
	t.sendKB(rec.ChatID, msgEdited, mainMenuKeyboard())
}

func (t *TelegramBot) resetToMenu(rec *models.UserRecord, text string) {
	rec.Pending = nil
	rec.Step = models.StepMenu
	t.persist(rec)
	t.sendKB(rec.ChatID, text, mainMenuKeyboard())
}

// sendPaymentDetails shows the fixed hosted-payment link of the chosen plan
// with the country bucket's prices. With no payment server key configured the
// message carries the original's self-reported confirmation button.
func (t *TelegramBot) sendPaymentDetails(rec *models.UserRecord, plan string) {
	links := payment.LinksFor(rec.Country)
	prices := payment.PricesFor(rec.Country)

	link, price := links.Individual, prices.Individual
	if plan == "family" {
		link, price = links.Family, prices.Family
	}

	note := msgPayAutomatic
	if t.serverKey == "" {
		note = msgPayManual
	}

	text := fmt.Sprintf("📱 رقمك: %s\n🌍 دولتك: %s\n\n%s\n\n💳 السعر: %s\nرابط الدفع: %s\n\n%s",
		rec.Phone, rec.Country, prices.Header, price, link, note)

	msg := tgbotapi.NewMessage(rec.ChatID, text)
	if t.serverKey == "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(btnPaidConfirm, cbPaidConfirm),
			),
		)
	}
	if _, err := t.api.Send(msg); err != nil {
		t.logger.Error("Failed to send payment details", "chat_id", rec.ChatID, "error", err)
	}
}

// handleCallback handles the self-reported payment confirmation button.
func (t *TelegramBot) handleCallback(cq *tgbotapi.CallbackQuery) {
	if _, err := t.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		t.logger.Error("Failed to answer callback", "error", err)
	}

	if cq.Data != cbPaidConfirm || t.serverKey != "" {
		return
	}

	uid := strconv.FormatInt(cq.From.ID, 10)
	rec, ok := t.store.Get(uid)
	if !ok {
		return
	}
	rec.Paid = true
	t.persist(rec)
	t.send(rec.ChatID, msgPaidThanks)
}

func countryByButton(txt string) (string, bool) {
	switch txt {
	case btnCountryEG:
		return payment.CountryEG, true
	case btnCountryGulf:
		return payment.CountrySA, true
	case btnCountryOther:
		return payment.CountryDefault, true
	}
	return "", false
}

// validPhone keeps the original's loose rule: a leading + or digit, nothing
// more.
func validPhone(txt string) bool {
	if txt == "" {
		return false
	}
	r := []rune(txt)[0]
	return r == '+' || unicode.IsDigit(r)
}

func parseAge(txt string) (int, bool) {
	if txt == "" {
		return 0, false
	}
	for _, r := range txt {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	age, err := strconv.Atoi(txt)
	if err != nil {
		return 0, false
	}
	return age, true
}
