package scheduler

import (
	"time"

	"github.com/fernkoch/tennis-tracker/internal/store"
)

// InQuietHours reports whether now falls inside the user's quiet window.
// The window may wrap midnight: when start > end it spans end-of-day, so
// now >= start OR now <= end counts as inside. Otherwise start <= now <= end.
func InQuietHours(q store.QuietHours, now time.Time) (bool, error) {
	if !q.Enabled {
		return false, nil
	}
	startH, startM, err := store.ParseClock(q.Start)
	if err != nil {
		return false, err
	}
	endH, endM, err := store.ParseClock(q.End)
	if err != nil {
		return false, err
	}

	cur := now.Hour()*60 + now.Minute()
	start := startH*60 + startM
	end := endH*60 + endM

	if start > end {
		return cur >= start || cur <= end, nil
	}
	return cur >= start && cur <= end, nil
}

// DueForDaily reports whether the daily digest should fire at now: the
// configured delivery time matches to the minute and quiet hours do not
// suppress it. A malformed time field is an error; the caller skips the
// user for this tick.
func DueForDaily(p *store.Preferences, now time.Time) (bool, error) {
	if !p.DailySchedule {
		return false, nil
	}
	hour, minute, err := store.ParseClock(p.DailyScheduleTime)
	if err != nil {
		return false, err
	}
	if now.Hour() != hour || now.Minute() != minute {
		return false, nil
	}

	quiet, err := InQuietHours(p.QuietHours, now)
	if err != nil {
		return false, err
	}
	return !quiet, nil
}

// DueForReminder reports whether a match-start reminder is due: the match
// begins in exactly lead minutes (minute granularity, truncated).
func DueForReminder(matchTime, now time.Time, lead int) bool {
	if matchTime.IsZero() {
		return false
	}
	until := matchTime.Sub(now)
	if until < 0 {
		return false
	}
	return int(until.Minutes()) == lead
}
