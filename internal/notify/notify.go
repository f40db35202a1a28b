// Package notify delivers formatted messages through the configured
// channel (Pushover push or SMTP email) and records every attempt in the
// notification history.
//
// Flow: build message → append pending history entry → deliver → mark
// sent/failed. Delivery failures never propagate past the dispatcher; they
// are recorded and logged so remaining users keep processing.
package notify

// Notification types the channels deliver.
const (
	TypeMatchStart    = "match_start"
	TypeMatchEnd      = "match_end"
	TypeSetStart      = "set_start"
	TypeSetEnd        = "set_end"
	TypeTiebreak      = "tiebreak"
	TypeBreakPoint    = "break_point"
	TypeMatchPoint    = "match_point"
	TypeScoreUpdate   = "score_update"
	TypeDailySchedule = "daily_schedule"
)

const (
	defaultTitle = "Tennis Updates"
	defaultSound = "gamelan"
)
