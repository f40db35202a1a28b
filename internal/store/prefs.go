// Package store provides file-backed persistence for user preferences,
// credentials, and the notification history log.
//
// Layout under the data directory:
//
//	users/<user-id>/preferences.json  — whole-record overwrite per save
//	users/<user-id>/credentials.json  — bcrypt hash + remember token
//	notifications.json                — single append-only log, newest last
package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Reminder lead time bounds in minutes.
const (
	MinReminderLead = 5
	MaxReminderLead = 60
)

// ChannelType selects the delivery channel for a user.
type ChannelType string

const (
	ChannelEmail    ChannelType = "email"
	ChannelPushover ChannelType = "pushover"
)

// TypeSetting is the per-notification-type enable/priority pair.
// Priority uses the Pushover range (-2..2).
type TypeSetting struct {
	Enabled  bool `json:"enabled"`
	Priority int  `json:"priority"`
}

// QuietHours is a suppression window. Start/End are "HH:mm"; Start > End
// means the window wraps midnight.
type QuietHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// Preferences is the whole-record unit of read/write for one user.
// Exactly one record exists per user id; callers merge updates before Save.
type Preferences struct {
	UserID              string                 `json:"userId"`
	Username            string                 `json:"username"`
	Email               string                 `json:"email"`
	HasPassword         bool                   `json:"hasPassword"`
	NotificationType    ChannelType            `json:"notificationType"`
	PushoverKey         string                 `json:"pushoverKey"`
	MatchStartReminders bool                   `json:"matchStartReminders"`
	DailySchedule       bool                   `json:"dailySchedule"`
	FavoritePlayersOnly bool                   `json:"favoritePlayersOnly"`
	ReminderTime        int                    `json:"reminderTime"`      // minutes before match
	DailyScheduleTime   string                 `json:"dailyScheduleTime"` // "HH:mm"
	FavoritePlayerIDs   []string               `json:"favoritePlayerIds"`
	NotificationTypes   map[string]TypeSetting `json:"notificationTypes"`
	QuietHours          QuietHours             `json:"quietHours"`
}

// DefaultPreferences returns the signup-time record for a new user.
func DefaultPreferences(userID, username string) *Preferences {
	return &Preferences{
		UserID:              userID,
		Username:            username,
		Email:               "",
		HasPassword:         false,
		NotificationType:    ChannelEmail,
		PushoverKey:         "",
		MatchStartReminders: true,
		DailySchedule:       true,
		FavoritePlayersOnly: true,
		ReminderTime:        15,
		DailyScheduleTime:   "08:00",
		FavoritePlayerIDs:   []string{},
		NotificationTypes: map[string]TypeSetting{
			"match_start":  {Enabled: true, Priority: 1},
			"match_end":    {Enabled: true, Priority: 0},
			"set_start":    {Enabled: false, Priority: 0},
			"set_end":      {Enabled: true, Priority: 0},
			"tiebreak":     {Enabled: true, Priority: 1},
			"break_point":  {Enabled: true, Priority: 1},
			"match_point":  {Enabled: true, Priority: 1},
			"score_update": {Enabled: false, Priority: 0},
		},
		QuietHours: QuietHours{Enabled: true, Start: "23:00", End: "07:00"},
	}
}

// normalize clamps bounded fields before the record is written.
func (p *Preferences) normalize() {
	if p.ReminderTime < MinReminderLead {
		p.ReminderTime = MinReminderLead
	}
	if p.ReminderTime > MaxReminderLead {
		p.ReminderTime = MaxReminderLead
	}
	if p.NotificationType == "" {
		p.NotificationType = ChannelEmail
	}
}

// ParseClock parses an "HH:mm" field into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed clock time %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed clock time %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed clock time %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock time %q out of range", s)
	}
	return hour, minute, nil
}
