// internal/bot/texts.go
package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"medibot/internal/models"
)

const (
	btnAddMed  = "➕ إضافة دواء"
	btnListMed = "📋 عرض الأدوية"
	btnEditMed = "✏️ تعديل دواء"
	btnDelMed  = "🗑️ حذف دواء"
	btnBack    = "رجوع"

	btnMorning = "صباحًا"
	btnEvening = "مساءً"

	btnEveryDay = "كل يوم"
	btnDaysDone = "تم"

	btnFieldName  = "اسم"
	btnFieldDose  = "جرعة"
	btnFieldTimes = "الأوقات"

	btnCountryEG    = "🇪🇬 مصر"
	btnCountryGulf  = "🇸🇦 السعودية والخليج"
	btnCountryOther = "🌍 دولة أخرى"

	btnPlanIndividual = "✨ الخطة الفردية"
	btnPlanFamily     = "👨‍👩‍👧 الخطة العائلية"

	btnPaidConfirm = "✅ تم الدفع"
	cbPaidConfirm  = "paid_confirm"
)

const (
	msgWelcome      = "مرحباً 👋\nمن فضلك أدخل اسمك الكامل:"
	msgGreeting     = "أهلاً %s 🌟"
	msgAskCountry   = "من أي دولة أنت؟"
	msgBadCountry   = "اختر دولتك من الأزرار."
	msgAskPhone     = "من فضلك أرسل رقم هاتفك مع كود الدولة.\nمثال:\n+201234567890\n+966512345678"
	msgBadPhone     = "❌ من فضلك أرسل رقم صحيح."
	msgAskAge       = "كم عمرك؟"
	msgBadAge       = "من فضلك أدخل عمرك بالأرقام فقط."
	msgAskEmail     = "ما بريدك الإلكتروني؟"
	msgBadEmail     = "البريد الإلكتروني غير صحيح. مثال: name@example.com"
	msgAskPlan      = "اختر خطة الاشتراك:"
	msgBadPlan      = "اختر خطة من الأزرار."
	msgMenu         = "اختر من القائمة:"
	msgUseStart     = "اكتب /start للبدء من جديد"
	msgPaidThanks   = "تم تأكيد اشتراكك، شكراً لك 🌟"
	msgPayManual    = "بعد الدفع اضغط زر التأكيد بالأسفل."
	msgPayAutomatic = "سيتم تفعيل اشتراكك تلقائياً بعد إتمام الدفع."

	msgAskMedName  = "ما اسم الدواء؟"
	msgAskDose     = "ما الجرعة؟ مثال: حبة واحدة"
	msgAskTimes    = "كم مرة في اليوم؟"
	msgBadTimes    = "اختر رقم 1 إلى 4"
	msgAskTime     = "أدخل الوقت مثل 08:30 أو 03:15"
	msgBadTime     = "تنسيق الوقت غير صحيح. مثال: 08:30"
	msgAskNextTime = "أدخل الوقت التالي:"
	msgAskPeriod   = "صباحًا أم مساءً؟"
	msgBadPeriod   = "اختر صباحًا أو مساءً"
	msgAskDays     = "في أي الأيام؟ اختر الأيام ثم اضغط \"تم\"، أو اختر \"كل يوم\""
	msgMoreDays    = "أضف المزيد من الأيام أو اضغط \"تم\""
	msgNeedDay     = "اختر يوماً واحداً على الأقل أو \"كل يوم\""
	msgMedAdded    = "تم إضافة الدواء بنجاح ✔️"

	msgNoMeds       = "لا توجد أدوية."
	msgNoMedsEdit   = "لا توجد أدوية للتعديل."
	msgNoMedsDelete = "لا توجد أدوية للحذف."
	msgChooseEdit   = "اختر دواء للتعديل:"
	msgChooseDelete = "اختر دواء للحذف:"
	msgChooseField  = "اختر ما تريد تعديله:"
	msgAskNewName   = "أدخل الاسم الجديد:"
	msgAskNewDose   = "أدخل الجرعة الجديدة:"
	msgEdited       = "تم التعديل ✔️"
	msgDeleted      = "تم الحذف ✔️"
	msgNotFound     = "غير موجود."
	msgBackToMenu   = "رجوع للقائمة."

	msgReminderTmpl = "⏰ تذكير الدواء\n💊 %s\n📝 الجرعة: %s\n🕒 الوقت: %s"
	voiceTmpl       = "حان وقت الدواء. %s. الجرعة: %s"
)

// weekdayButtons keeps the Arabic week order, Saturday first.
var weekdayButtons = []struct {
	label string
	name  string
}{
	{"السبت", "saturday"},
	{"الأحد", "sunday"},
	{"الاثنين", "monday"},
	{"الثلاثاء", "tuesday"},
	{"الأربعاء", "wednesday"},
	{"الخميس", "thursday"},
	{"الجمعة", "friday"},
}

func weekdayByLabel(label string) (string, bool) {
	for _, wd := range weekdayButtons {
		if wd.label == label {
			return wd.name, true
		}
	}
	return "", false
}

func weekdayLabel(name string) string {
	for _, wd := range weekdayButtons {
		if wd.name == name {
			return wd.label
		}
	}
	return name
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnAddMed),
			tgbotapi.NewKeyboardButton(btnListMed),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnEditMed),
			tgbotapi.NewKeyboardButton(btnDelMed),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func countryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCountryEG),
			tgbotapi.NewKeyboardButton(btnCountryGulf),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCountryOther),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func planKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnPlanIndividual),
			tgbotapi.NewKeyboardButton(btnPlanFamily),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func timesCountKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("1"),
			tgbotapi.NewKeyboardButton("2"),
			tgbotapi.NewKeyboardButton("3"),
			tgbotapi.NewKeyboardButton("4"),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func periodKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnMorning),
			tgbotapi.NewKeyboardButton(btnEvening),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func daysKeyboard() tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnEveryDay)),
	}
	for i := 0; i < len(weekdayButtons); i += 2 {
		row := []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(weekdayButtons[i].label)}
		if i+1 < len(weekdayButtons) {
			row = append(row, tgbotapi.NewKeyboardButton(weekdayButtons[i+1].label))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnDaysDone)))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

func medicineKeyboard(meds []models.MedicineRecord) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(meds)+1)
	for _, m := range meds {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(m.Name)))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnBack)))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

func editFieldKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnFieldName),
			tgbotapi.NewKeyboardButton(btnFieldDose),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnFieldTimes),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnBack),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}
