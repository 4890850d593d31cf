// internal/models/models.go
package models

import "encoding/json"

// Step marks where a user's conversation currently is.
type Step string

const (
	StepName    Step = "name"
	StepCountry Step = "country"
	StepPhone   Step = "phone"
	StepAge     Step = "age"
	StepEmail   Step = "email"
	StepPlan    Step = "plan"
	StepMenu    Step = "menu"

	StepMedName       Step = "med_name"
	StepMedDose       Step = "med_dose"
	StepMedTimesCount Step = "med_times_count"
	StepMedTime       Step = "med_time"
	StepMedPeriod     Step = "med_period"
	StepMedDays       Step = "med_days"

	StepEditChoose     Step = "edit_choose"
	StepEditField      Step = "edit_field"
	StepEditName       Step = "edit_name"
	StepEditDose       Step = "edit_dose"
	StepEditTimesCount Step = "edit_times_count"
	StepEditTime       Step = "edit_time"
	StepEditPeriod     Step = "edit_period"

	StepDeleteChoose Step = "delete_choose"
)

// UserRecord is one user's full state. Absence of a record means the user
// never started; records are never deleted.
type UserRecord struct {
	ID        string           `json:"id"`
	ChatID    int64            `json:"chat_id"`
	Name      string           `json:"name,omitempty"`
	Phone     string           `json:"phone,omitempty"`
	Age       int              `json:"age,omitempty"`
	Email     string           `json:"email,omitempty"`
	Country   string           `json:"country,omitempty"`
	Step      Step             `json:"step"`
	Paid      bool             `json:"paid"`
	Plan      string           `json:"plan,omitempty"`
	Medicines []MedicineRecord `json:"medicines"`
	Pending   *PendingMedicine `json:"pending,omitempty"`
	CreatedAt int64            `json:"created_at"`
}

// MedicineRecord is owned exclusively by one UserRecord.
type MedicineRecord struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Dosage   string   `json:"dosage"`
	Schedule Schedule `json:"schedule"`
}

// Schedule is the canonical recurrence rule: a shared time list that fires
// either every day (empty Weekdays) or only on the listed weekdays. Times are
// zero-padded "HH:MM"; weekdays are lowercase English names.
type Schedule struct {
	Times    []string `json:"times"`
	Weekdays []string `json:"weekdays,omitempty"`
}

// PendingMedicine is the scratch object of an in-progress add/edit sub-flow.
// EditID is set when the sub-flow edits an existing medicine.
type PendingMedicine struct {
	Name      string   `json:"name,omitempty"`
	Dosage    string   `json:"dosage,omitempty"`
	Times     []string `json:"times,omitempty"`
	Weekdays  []string `json:"weekdays,omitempty"`
	TimesLeft int      `json:"times_left,omitempty"`
	RawTime   string   `json:"raw_time,omitempty"` // HH:MM awaiting its period
	EditID    string   `json:"edit_id,omitempty"`
}

// FindMedicine returns the medicine with the given id, or nil.
func (u *UserRecord) FindMedicine(id string) *MedicineRecord {
	for i := range u.Medicines {
		if u.Medicines[i].ID == id {
			return &u.Medicines[i]
		}
	}
	return nil
}

// FindMedicineByName returns the first medicine with the given display name,
// or nil. Sub-flows select medicines by the name shown on the keyboard.
func (u *UserRecord) FindMedicineByName(name string) *MedicineRecord {
	for i := range u.Medicines {
		if u.Medicines[i].Name == name {
			return &u.Medicines[i]
		}
	}
	return nil
}

// Clone deep-copies the record so callers can mutate it freely.
func (u *UserRecord) Clone() *UserRecord {
	c := *u
	c.Medicines = make([]MedicineRecord, len(u.Medicines))
	for i, m := range u.Medicines {
		c.Medicines[i] = m.Clone()
	}
	if u.Pending != nil {
		p := *u.Pending
		p.Times = append([]string(nil), u.Pending.Times...)
		p.Weekdays = append([]string(nil), u.Pending.Weekdays...)
		c.Pending = &p
	}
	return &c
}

func (m MedicineRecord) Clone() MedicineRecord {
	c := m
	c.Schedule.Times = append([]string(nil), m.Schedule.Times...)
	c.Schedule.Weekdays = append([]string(nil), m.Schedule.Weekdays...)
	return c
}

// UnmarshalJSON accepts the canonical object shape plus the two legacy
// spellings found in old data files: a flat time array (daily) and a
// weekday-keyed map of time lists (weekly).
func (s *Schedule) UnmarshalJSON(data []byte) error {
	type canonical Schedule
	var c canonical
	if err := json.Unmarshal(data, &c); err == nil && (c.Times != nil || c.Weekdays != nil) {
		*s = Schedule(c)
		return nil
	}

	var flat []string
	if err := json.Unmarshal(data, &flat); err == nil {
		s.Times = flat
		s.Weekdays = nil
		return nil
	}

	var byDay map[string][]string
	if err := json.Unmarshal(data, &byDay); err != nil {
		return err
	}
	seen := make(map[string]bool)
	s.Times = nil
	s.Weekdays = nil
	for day, times := range byDay {
		s.Weekdays = append(s.Weekdays, day)
		for _, t := range times {
			if !seen[t] {
				seen[t] = true
				s.Times = append(s.Times, t)
			}
		}
	}
	return nil
}
