package bot

import (
	"path/filepath"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibot/internal/models"
	"medibot/internal/payment"
	"medibot/internal/scheduler"
	"medibot/internal/store"
	"medibot/pkg/logger"
)

type fakeAPI struct {
	sent []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// lastText returns the text of the most recent outbound message.
func (f *fakeAPI) lastText() string {
	for i := len(f.sent) - 1; i >= 0; i-- {
		if mc, ok := f.sent[i].(tgbotapi.MessageConfig); ok {
			return mc.Text
		}
	}
	return ""
}

func newTestBot(t *testing.T) (*TelegramBot, *fakeAPI) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "data.json"), logger.NewNop())
	require.NoError(t, err)

	f := &fakeAPI{}
	b := &TelegramBot{api: f, store: st, logger: logger.NewNop()}

	sched, err := scheduler.New(logger.NewNop(), b.Fire)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Stop() })
	b.UseScheduler(sched)

	return b, f
}

const testUserID = "7"

func inbound(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: 7},
		Chat: &tgbotapi.Chat{ID: 7},
		Text: text,
	}
}

func getUser(t *testing.T, b *TelegramBot) *models.UserRecord {
	t.Helper()
	rec, ok := b.store.Get(testUserID)
	require.True(t, ok)
	return rec
}

func register(t *testing.T, b *TelegramBot) {
	t.Helper()
	b.handleStart(inbound("/start"))
	b.handleText(inbound("أحمد علي"))
	b.handleText(inbound(btnCountryEG))
	b.handleText(inbound("+20100000000"))
	b.handleText(inbound("30"))
	b.handleText(inbound("ahmed@example.com"))
	b.handleText(inbound(btnPlanIndividual))
	require.Equal(t, models.StepMenu, getUser(t, b).Step)
}

// addMedicine walks the add sub-flow: one medicine, the given raw time/period
// pairs, fired every day.
func addMedicine(t *testing.T, b *TelegramBot, name string, pairs ...[2]string) {
	t.Helper()
	b.handleText(inbound(btnAddMed))
	b.handleText(inbound(name))
	b.handleText(inbound("حبة واحدة"))
	b.handleText(inbound(string(rune('0' + len(pairs)))))
	for _, p := range pairs {
		b.handleText(inbound(p[0]))
		b.handleText(inbound(p[1]))
	}
	b.handleText(inbound(btnEveryDay))
}

func TestUnknownUserIsToldToStart(t *testing.T) {
	b, f := newTestBot(t)
	b.handleText(inbound("مرحبا"))
	assert.Equal(t, msgUseStart, f.lastText())
}

func TestRegistrationFlow(t *testing.T) {
	b, _ := newTestBot(t)
	register(t, b)

	rec := getUser(t, b)
	assert.Equal(t, "أحمد علي", rec.Name)
	assert.Equal(t, payment.CountryEG, rec.Country)
	assert.Equal(t, "+20100000000", rec.Phone)
	assert.Equal(t, 30, rec.Age)
	assert.Equal(t, "ahmed@example.com", rec.Email)
	assert.Equal(t, "individual", rec.Plan)
	assert.False(t, rec.Paid)
}

func TestPhonePrefixOverridesMenuCountry(t *testing.T) {
	b, _ := newTestBot(t)
	b.handleStart(inbound("/start"))
	b.handleText(inbound("سارة"))
	b.handleText(inbound(btnCountryOther))
	b.handleText(inbound("+966500000000"))

	assert.Equal(t, payment.CountrySA, getUser(t, b).Country)
}

func TestUnrecognizedPrefixKeepsMenuCountry(t *testing.T) {
	b, _ := newTestBot(t)
	b.handleStart(inbound("/start"))
	b.handleText(inbound("سارة"))
	b.handleText(inbound(btnCountryGulf))
	b.handleText(inbound("+15551234567"))

	assert.Equal(t, payment.CountrySA, getUser(t, b).Country)
}

func TestInvalidRegistrationInputsReprompt(t *testing.T) {
	b, f := newTestBot(t)
	b.handleStart(inbound("/start"))
	b.handleText(inbound("أحمد"))
	b.handleText(inbound(btnCountryEG))

	// Phone must start with + or a digit.
	b.handleText(inbound("abc"))
	assert.Equal(t, models.StepPhone, getUser(t, b).Step)
	assert.Equal(t, msgBadPhone, f.lastText())

	b.handleText(inbound("+20100000000"))

	// Age must be all digits.
	b.handleText(inbound("ثلاثون"))
	assert.Equal(t, models.StepAge, getUser(t, b).Step)
	assert.Zero(t, getUser(t, b).Age)

	b.handleText(inbound("30"))

	// Email must contain @ and a dot.
	b.handleText(inbound("ahmed-at-example"))
	assert.Equal(t, models.StepEmail, getUser(t, b).Step)
	assert.Empty(t, getUser(t, b).Email)
}

func TestTimesCountOnlyAcceptsOneToFour(t *testing.T) {
	b, f := newTestBot(t)
	register(t, b)

	b.handleText(inbound(btnAddMed))
	b.handleText(inbound("بنادول"))
	b.handleText(inbound("حبة واحدة"))

	b.handleText(inbound("5"))
	assert.Equal(t, models.StepMedTimesCount, getUser(t, b).Step)
	assert.Equal(t, msgBadTimes, f.lastText())

	b.handleText(inbound("2"))
	assert.Equal(t, models.StepMedTime, getUser(t, b).Step)
}

func TestInvalidTimeRepromptsWithoutAdvancing(t *testing.T) {
	b, f := newTestBot(t)
	register(t, b)

	b.handleText(inbound(btnAddMed))
	b.handleText(inbound("بنادول"))
	b.handleText(inbound("حبة واحدة"))
	b.handleText(inbound("1"))

	for _, bad := range []string{"25:00", "08:60", "0830", "صباحا"} {
		b.handleText(inbound(bad))
		assert.Equal(t, models.StepMedTime, getUser(t, b).Step, bad)
		assert.Equal(t, msgBadTime, f.lastText(), bad)
	}
}

func TestPeriodConversion(t *testing.T) {
	cases := []struct {
		raw    string
		period string
		want   string
	}{
		{"12:15", btnMorning, "00:15"},
		{"08:30", btnMorning, "08:30"},
		{"03:00", btnEvening, "15:00"},
		{"14:00", btnEvening, "14:00"},
	}
	for _, c := range cases {
		b, _ := newTestBot(t)
		register(t, b)
		addMedicine(t, b, "بنادول", [2]string{c.raw, c.period})

		rec := getUser(t, b)
		require.Len(t, rec.Medicines, 1)
		assert.Equal(t, []string{c.want}, rec.Medicines[0].Schedule.Times, c.raw+" "+c.period)
	}
}

func TestBadPeriodRepromptsAndKeepsParkedTime(t *testing.T) {
	b, f := newTestBot(t)
	register(t, b)

	b.handleText(inbound(btnAddMed))
	b.handleText(inbound("بنادول"))
	b.handleText(inbound("حبة واحدة"))
	b.handleText(inbound("1"))
	b.handleText(inbound("08:30"))

	b.handleText(inbound("ظهراً"))
	rec := getUser(t, b)
	assert.Equal(t, models.StepMedPeriod, rec.Step)
	assert.Equal(t, "08:30", rec.Pending.RawTime)
	assert.Equal(t, msgBadPeriod, f.lastText())
}

func TestAddMedicineCommitsAndSchedules(t *testing.T) {
	b, _ := newTestBot(t)
	register(t, b)

	addMedicine(t, b, "بنادول", [2]string{"08:30", btnMorning}, [2]string{"08:30", btnEvening})

	rec := getUser(t, b)
	require.Len(t, rec.Medicines, 1)
	med := rec.Medicines[0]
	assert.NotEmpty(t, med.ID)
	assert.Equal(t, "بنادول", med.Name)
	assert.Equal(t, []string{"08:30", "20:30"}, med.Schedule.Times)
	assert.Empty(t, med.Schedule.Weekdays)
	assert.Nil(t, rec.Pending)
	assert.Equal(t, models.StepMenu, rec.Step)
	assert.Equal(t, 2, b.sched.JobCount())
}

func TestAddWeeklyMedicine(t *testing.T) {
	b, _ := newTestBot(t)
	register(t, b)

	b.handleText(inbound(btnAddMed))
	b.handleText(inbound("فيتامين"))
	b.handleText(inbound("كبسولة"))
	b.handleText(inbound("1"))
	b.handleText(inbound("09:00"))
	b.handleText(inbound(btnMorning))
	b.handleText(inbound("السبت"))
	b.handleText(inbound("الثلاثاء"))
	b.handleText(inbound(btnDaysDone))

	rec := getUser(t, b)
	require.Len(t, rec.Medicines, 1)
	assert.Equal(t, []string{"saturday", "tuesday"}, rec.Medicines[0].Schedule.Weekdays)
	assert.Equal(t, 2, b.sched.JobCount())
}

func TestDoneWithoutDaysReprompts(t *testing.T) {
	b, f := newTestBot(t)
	register(t, b)

	b.handleText(inbound(btnAddMed))
	b.handleText(inbound("فيتامين"))
	b.handleText(inbound("كبسولة"))
	b.handleText(inbound("1"))
	b.handleText(inbound("09:00"))
	b.handleText(inbound(btnMorning))

	b.handleText(inbound(btnDaysDone))
	assert.Equal(t, models.StepMedDays, getUser(t, b).Step)
	assert.Equal(t, msgNeedDay, f.lastText())
}

func TestDeleteMedicineKeepsOtherJobs(t *testing.T) {
	b, _ := newTestBot(t)
	register(t, b)

	addMedicine(t, b, "بنادول", [2]string{"08:00", btnMorning})
	addMedicine(t, b, "فيتامين", [2]string{"09:00", btnMorning}, [2]string{"09:00", btnEvening})
	require.Equal(t, 3, b.sched.JobCount())

	b.handleText(inbound(btnDelMed))
	b.handleText(inbound("بنادول"))

	rec := getUser(t, b)
	require.Len(t, rec.Medicines, 1)
	assert.Equal(t, "فيتامين", rec.Medicines[0].Name)
	assert.Equal(t, 2, b.sched.JobCount())
}

func TestEditNameAndDosage(t *testing.T) {
	b, _ := newTestBot(t)
	register(t, b)
	addMedicine(t, b, "بنادول", [2]string{"08:00", btnMorning})

	b.handleText(inbound(btnEditMed))
	b.handleText(inbound("بنادول"))
	b.handleText(inbound(btnFieldName))
	b.handleText(inbound("باراسيتامول"))

	rec := getUser(t, b)
	assert.Equal(t, "باراسيتامول", rec.Medicines[0].Name)
	assert.Equal(t, models.StepMenu, rec.Step)

	b.handleText(inbound(btnEditMed))
	b.handleText(inbound("باراسيتامول"))
	b.handleText(inbound(btnFieldDose))
	b.handleText(inbound("حبتان"))

	assert.Equal(t, "حبتان", getUser(t, b).Medicines[0].Dosage)
}

func TestEditTimesReplacesWholeListAndReschedules(t *testing.T) {
	b, _ := newTestBot(t)
	register(t, b)
	addMedicine(t, b, "بنادول", [2]string{"08:00", btnMorning}, [2]string{"08:00", btnEvening})
	require.Equal(t, 2, b.sched.JobCount())

	b.handleText(inbound(btnEditMed))
	b.handleText(inbound("بنادول"))
	b.handleText(inbound(btnFieldTimes))
	b.handleText(inbound("1"))
	b.handleText(inbound("11:30"))
	b.handleText(inbound(btnMorning))

	rec := getUser(t, b)
	assert.Equal(t, []string{"11:30"}, rec.Medicines[0].Schedule.Times)
	assert.Equal(t, 1, b.sched.JobCount())
}

func TestStartPreservesMedicinesAndPaidFlag(t *testing.T) {
	b, _ := newTestBot(t)
	register(t, b)
	addMedicine(t, b, "بنادول", [2]string{"08:00", btnMorning})

	rec := getUser(t, b)
	rec.Paid = true
	require.NoError(t, b.store.Upsert(rec))

	b.handleStart(inbound("/start"))

	rec = getUser(t, b)
	assert.Equal(t, models.StepName, rec.Step)
	assert.Len(t, rec.Medicines, 1)
	assert.True(t, rec.Paid)
	assert.Nil(t, rec.Pending)
}

func TestSelfReportedPaymentConfirmation(t *testing.T) {
	b, f := newTestBot(t)
	register(t, b)

	b.handleCallback(&tgbotapi.CallbackQuery{
		ID:   "cb1",
		From: &tgbotapi.User{ID: 7},
		Data: cbPaidConfirm,
	})

	assert.True(t, getUser(t, b).Paid)
	assert.Equal(t, msgPaidThanks, f.lastText())
}

func TestSelfReportIgnoredWhenServerKeyConfigured(t *testing.T) {
	b, _ := newTestBot(t)
	b.serverKey = "shared-secret"
	register(t, b)

	b.handleCallback(&tgbotapi.CallbackQuery{
		ID:   "cb1",
		From: &tgbotapi.User{ID: 7},
		Data: cbPaidConfirm,
	})

	assert.False(t, getUser(t, b).Paid)
}

func TestReminderFireReadsCurrentData(t *testing.T) {
	b, f := newTestBot(t)
	register(t, b)
	addMedicine(t, b, "بنادول", [2]string{"08:00", btnMorning})

	med := getUser(t, b).Medicines[0]
	f.sent = nil

	b.Fire(testUserID, med.ID)
	require.NotEmpty(t, f.sent)
	assert.Contains(t, f.lastText(), "بنادول")
	assert.Contains(t, f.lastText(), "حبة واحدة")

	// A deleted medicine fires into a silent no-op.
	f.sent = nil
	b.Fire(testUserID, "gone")
	assert.Empty(t, f.sent)

	b.Fire("unknown-user", med.ID)
	assert.Empty(t, f.sent)
}
