// Package scheduler runs the app's recurring background jobs: daily study
// reminders and the periodic sync flush against the shared backing store.
package scheduler

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/mishnahbot/internal/calendar"
	"github.com/example/mishnahbot/internal/database"
	"github.com/example/mishnahbot/pkg/models"
)

// Default local-time window for sending reminders.
const (
	DefaultReminderStartHour = 8
	DefaultReminderEndHour   = 21
)

const syncFlushInterval = 15 * time.Minute

// Notifier delivers a study reminder for one track.
type Notifier interface {
	SendReminder(userID string, track models.Track, dueCount int) error
}

// Puller downlinks a user's remotely-mutated rows into the local replica.
type Puller interface {
	PullRemote(ctx context.Context, userID string, since time.Time) (int, error)
}

// Scheduler manages scheduled tasks for the application.
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	puller    Puller
	tracks    *database.TrackRepository
	sched     *database.ScheduleRepository
	logs      *database.StudyLogRepository
	logger    *log.Logger
	now       func() time.Time

	lastPull time.Time
}

// New creates a scheduler over the given store. puller may be nil when the
// deployment runs without a shared backing store.
func New(store *database.Store, notifier Notifier, puller Puller, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.New(os.Stderr, "[scheduler] ", log.LstdFlags)
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
		puller:    puller,
		tracks:    database.NewTrackRepository(store),
		sched:     database.NewScheduleRepository(store),
		logs:      database.NewStudyLogRepository(store),
		logger:    logger,
		now:       time.Now,
		lastPull:  time.Now().Add(-24 * time.Hour),
	}
}

// Start begins running all scheduled tasks in the background.
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders)
	if s.puller != nil {
		s.scheduler.Every(syncFlushInterval).Do(s.flushSync)
	}
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// checkAndSendReminders notifies every user whose tracks still have
// uncompleted assignments for today, inside the configured hour window.
func (s *Scheduler) checkAndSendReminders() {
	currentHour := s.now().Hour()
	startHour := hourFromEnv("REMINDER_START_HOUR", DefaultReminderStartHour)
	endHour := hourFromEnv("REMINDER_END_HOUR", DefaultReminderEndHour)

	if currentHour < startHour || currentHour > endHour {
		s.logger.Printf("Current hour %d is outside reminder hours (%d-%d), skipping",
			currentHour, startHour, endHour)
		return
	}

	userIDs, err := s.tracks.ActiveUserIDs()
	if err != nil {
		s.logger.Printf("Error getting active users: %v", err)
		return
	}
	for _, userID := range userIDs {
		if err := s.remindUser(userID); err != nil {
			s.logger.Printf("Error reminding user %s: %v", userID, err)
		}
	}
}

func (s *Scheduler) remindUser(userID string) error {
	tracks, err := s.tracks.GetActiveByUser(userID)
	if err != nil {
		return err
	}
	today := calendar.FormatDate(s.now())

	for _, track := range tracks {
		entries, err := s.sched.EntriesForDate(track.ID, today)
		if err != nil {
			return err
		}
		due := 0
		for _, e := range entries {
			if e.NodeType == models.NodeLearn {
				due++
			}
		}
		if due == 0 {
			continue
		}

		rec, err := s.logs.Get(models.StudyLogKey{UserID: userID, TrackID: track.ID, StudyDate: today})
		if err != nil {
			return err
		}
		if rec != nil && rec.IsCompleted {
			continue
		}

		if err := s.notifier.SendReminder(userID, track, due); err != nil {
			s.logger.Printf("Error sending reminder for track %s: %v", track.ID, err)
		}
	}
	return nil
}

// flushSync pulls remote mutations for every active user since the last
// successful flush.
func (s *Scheduler) flushSync() {
	userIDs, err := s.tracks.ActiveUserIDs()
	if err != nil {
		s.logger.Printf("Error getting active users for sync: %v", err)
		return
	}

	since := s.lastPull
	started := s.now()
	for _, userID := range userIDs {
		n, err := s.puller.PullRemote(context.Background(), userID, since)
		if err != nil {
			// Leave lastPull alone so the next flush retries this span.
			s.logger.Printf("Sync pull for user %s failed: %v", userID, err)
			return
		}
		if n > 0 {
			s.logger.Printf("Applied %d remote rows for user %s", n, userID)
		}
	}
	s.lastPull = started
}

func hourFromEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			return h
		}
	}
	return fallback
}
