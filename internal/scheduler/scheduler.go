// Package scheduler drives all time-based notification work from a single
// once-per-minute ticker: daily schedule digests at each user's configured
// delivery time and match-start reminders for followed players.
//
// Per-user failures are logged and skipped; a bad record never aborts the
// remaining users in a tick.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fernkoch/tennis-tracker/internal/notify"
	"github.com/fernkoch/tennis-tracker/internal/store"
	"github.com/fernkoch/tennis-tracker/internal/tennis"
)

const tickInterval = time.Minute

// Scheduler owns the minute ticker and the per-user evaluation loop.
type Scheduler struct {
	users      *store.UserStore
	dispatcher *notify.Dispatcher
	source     tennis.Source
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
}

// New creates a Scheduler.
func New(users *store.UserStore, dispatcher *notify.Dispatcher, source tennis.Source, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		users:      users,
		dispatcher: dispatcher,
		source:     source,
		logger:     logger,
	}
}

// Start launches the ticker loop in the background. Calling Start on a
// running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	s.logger.Info("Scheduler started", "interval", tickInterval)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			s.Tick(ctx, now)
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		}
	}
}

// Tick runs one evaluation pass at the given wall-clock time. Exported so
// the CLI can force a pass and tests can drive fixed times.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	ids, err := s.users.ListIDs()
	if err != nil {
		s.logger.Error("list users failed", "error", err)
		return
	}

	// The day's matches are fetched at most once per tick, and only when
	// some user actually needs reminders.
	var matches []tennis.Match
	matchesFetched := false

	for _, id := range ids {
		prefs, err := s.users.Get(id)
		if err != nil {
			s.logger.Warn("skipping user: unreadable preferences", "user_id", id, "error", err)
			continue
		}
		if prefs == nil {
			continue
		}

		s.processDaily(ctx, prefs, now)

		if !s.wantsReminders(prefs) {
			continue
		}
		if !matchesFetched {
			matchesFetched = true
			matches, err = s.source.DailySchedule(ctx, now)
			if err != nil {
				s.logger.Error("fetch schedule for reminders failed", "error", err)
				matches = nil
			}
		}
		s.processReminders(ctx, prefs, matches, now)
	}
}

// processDaily sends the daily digest when the user's delivery time matches
// the current minute and quiet hours allow it.
func (s *Scheduler) processDaily(ctx context.Context, prefs *store.Preferences, now time.Time) {
	if prefs.Email == "" && prefs.PushoverKey == "" {
		return
	}

	due, err := DueForDaily(prefs, now)
	if err != nil {
		s.logger.Warn("skipping user: malformed schedule time",
			"user_id", prefs.UserID, "error", err)
		return
	}
	if !due {
		if quiet, qerr := InQuietHours(prefs.QuietHours, now); qerr == nil && quiet && s.atDailyTime(prefs, now) {
			s.logger.Info("daily schedule suppressed by quiet hours",
				"user_id", prefs.UserID, "email", prefs.Email)
		}
		return
	}

	if err := s.dispatcher.SendDailySchedule(ctx, prefs); err != nil {
		s.logger.Error("daily schedule send failed",
			"user_id", prefs.UserID, "error", err)
		return
	}
	s.logger.Info("daily schedule sent", "user_id", prefs.UserID)
}

func (s *Scheduler) atDailyTime(prefs *store.Preferences, now time.Time) bool {
	hour, minute, err := store.ParseClock(prefs.DailyScheduleTime)
	return err == nil && now.Hour() == hour && now.Minute() == minute
}

func (s *Scheduler) wantsReminders(prefs *store.Preferences) bool {
	if !prefs.MatchStartReminders || len(prefs.FavoritePlayerIDs) == 0 {
		return false
	}
	if prefs.Email == "" && prefs.PushoverKey == "" {
		return false
	}
	if setting, ok := prefs.NotificationTypes[notify.TypeMatchStart]; ok && !setting.Enabled {
		return false
	}
	return true
}

// processReminders sends a reminder for each favorite's match starting in
// exactly the user's configured lead time.
func (s *Scheduler) processReminders(ctx context.Context, prefs *store.Preferences, matches []tennis.Match, now time.Time) {
	if len(matches) == 0 {
		return
	}
	if quiet, err := InQuietHours(prefs.QuietHours, now); err != nil || quiet {
		return
	}

	for _, m := range matches {
		if !tennis.InvolvesFavorite(m, prefs.FavoritePlayerIDs) {
			continue
		}
		if !DueForReminder(m.ScheduledTime, now, prefs.ReminderTime) {
			continue
		}
		if err := s.dispatcher.SendMatchReminder(ctx, prefs, m); err != nil {
			s.logger.Error("match reminder send failed",
				"user_id", prefs.UserID, "match_id", m.ID, "error", err)
			continue
		}
		s.logger.Info("match reminder sent",
			"user_id", prefs.UserID, "match_id", m.ID)
	}
}
