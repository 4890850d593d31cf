// internal/scheduler/scheduler.go
package scheduler

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"medibot/internal/models"
	"medibot/pkg/logger"
)

// ownerTag marks every job this subsystem registers, so a rebuild can clear
// its own jobs without touching foreign ones.
const ownerTag = "medibot"

// FireFunc is invoked when a reminder trigger fires.
type FireFunc func(userID, medicineID string)

// Scheduler translates medicine schedules into recurring gocron jobs. Job
// state lives only in memory; RebuildAll re-derives it from the store after a
// restart.
type Scheduler struct {
	mu     sync.Mutex
	cron   gocron.Scheduler
	jobs   map[string]uuid.UUID // deterministic job key -> gocron job id
	fire   FireFunc
	logger *logger.Logger
}

func New(l *logger.Logger, fire FireFunc) (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{
		cron:   cron,
		jobs:   make(map[string]uuid.UUID),
		fire:   fire,
		logger: l,
	}, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

func (s *Scheduler) Stop() error { return s.cron.Shutdown() }

// ScheduleMedicine registers one recurring job per (weekday?, time) pair of
// the medicine, replacing any jobs previously derived from it. A malformed
// time or weekday skips that single job; the rest still register.
func (s *Scheduler) ScheduleMedicine(userID string, med models.MedicineRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleLocked(userID, med)
}

func (s *Scheduler) scheduleLocked(userID string, med models.MedicineRecord) {
	s.unscheduleLocked(userID, med.ID)

	for _, t := range med.Schedule.Times {
		hour, minute, err := models.ParseClock(t)
		if err != nil {
			s.logger.Error("Skipping reminder with bad time", "user_id", userID, "medicine_id", med.ID, "time", t, "error", err)
			continue
		}
		at := gocron.NewAtTimes(gocron.NewAtTime(uint(hour), uint(minute), 0))
		hhmm := models.FormatClock(hour, minute)

		if len(med.Schedule.Weekdays) == 0 {
			s.addJobLocked(jobKey(userID, med.ID, "*", hhmm), gocron.DailyJob(1, at), userID, med.ID)
			continue
		}
		for _, name := range med.Schedule.Weekdays {
			wd, err := models.ParseWeekday(name)
			if err != nil {
				s.logger.Error("Skipping reminder with bad weekday", "user_id", userID, "medicine_id", med.ID, "weekday", name, "error", err)
				continue
			}
			s.addJobLocked(jobKey(userID, med.ID, name, hhmm), gocron.WeeklyJob(1, gocron.NewWeekdays(wd), at), userID, med.ID)
		}
	}
}

// UnscheduleMedicine removes every job derived from the medicine. Removing
// jobs that are already gone is not an error.
func (s *Scheduler) UnscheduleMedicine(userID, medicineID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unscheduleLocked(userID, medicineID)
}

// RebuildAll clears every job owned by this subsystem and re-derives the full
// set from a store snapshot. Called at process start.
func (s *Scheduler) RebuildAll(snapshot map[string]*models.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cron.RemoveByTags(ownerTag)
	s.jobs = make(map[string]uuid.UUID)

	total := 0
	for userID, u := range snapshot {
		for _, med := range u.Medicines {
			s.scheduleLocked(userID, med)
		}
		total += len(u.Medicines)
	}
	s.logger.Info("Rebuilt reminder jobs", "users", len(snapshot), "medicines", total, "jobs", len(s.jobs))
}

// JobCount reports the number of live jobs owned by this subsystem.
func (s *Scheduler) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *Scheduler) addJobLocked(key string, def gocron.JobDefinition, userID, medicineID string) {
	if old, ok := s.jobs[key]; ok {
		_ = s.cron.RemoveJob(old)
		delete(s.jobs, key)
	}

	job, err := s.cron.NewJob(
		def,
		gocron.NewTask(func(uid, mid string) {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("Recovered from panic in reminder task", "job", key, "panic", r)
				}
			}()
			s.fire(uid, mid)
		}, userID, medicineID),
		gocron.WithName(key),
		gocron.WithTags(ownerTag, medTag(userID, medicineID)),
	)
	if err != nil {
		s.logger.Error("Failed to register reminder job", "job", key, "error", err)
		return
	}
	s.jobs[key] = job.ID()
}

func (s *Scheduler) unscheduleLocked(userID, medicineID string) {
	prefix := medTag(userID, medicineID) + ":"
	for key, id := range s.jobs {
		if strings.HasPrefix(key, prefix) {
			_ = s.cron.RemoveJob(id)
			delete(s.jobs, key)
		}
	}
}

func medTag(userID, medicineID string) string {
	return "med:" + userID + ":" + medicineID
}

func jobKey(userID, medicineID, weekday, hhmm string) string {
	return medTag(userID, medicineID) + ":" + weekday + ":" + hhmm
}
