package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fernkoch/tennis-tracker/internal/store"
	"github.com/fernkoch/tennis-tracker/internal/tennis"
)

// Dispatcher routes messages to a user's configured channel and records
// every attempt in the history log.
type Dispatcher struct {
	source  tennis.Source
	history *store.NotificationStore
	push    *PushoverClient
	mailer  *Mailer
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher. mailer may be nil (email disabled).
func NewDispatcher(source tennis.Source, history *store.NotificationStore, push *PushoverClient, mailer *Mailer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		source:  source,
		history: history,
		push:    push,
		mailer:  mailer,
		logger:  logger,
	}
}

// SendDailySchedule builds and delivers the daily digest for one user.
// Upstream schedule failure propagates; delivery failure is recorded and
// returned after the history entry is finalized.
func (d *Dispatcher) SendDailySchedule(ctx context.Context, prefs *store.Preferences) error {
	matches, err := d.source.DailySchedule(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("fetch daily schedule: %w", err)
	}

	insights := BuildInsights(ctx, d.source, matches)
	text := DigestText(insights, prefs.FavoritePlayerIDs)

	n := store.Notification{
		Type:      TypeDailySchedule,
		Message:   text,
		Timestamp: time.Now(),
		Priority:  0,
	}

	if prefs.NotificationType == store.ChannelPushover && prefs.PushoverKey != "" {
		return d.deliverPush(ctx, n, prefs.PushoverKey, "Today's Tennis Schedule")
	}
	html := DigestHTML(insights, prefs.FavoritePlayerIDs)
	return d.deliverEmail(n, prefs.Email, DigestSubject(time.Now()), html)
}

// SendMatchReminder delivers a match-start reminder for one user.
func (d *Dispatcher) SendMatchReminder(ctx context.Context, prefs *store.Preferences, m tennis.Match) error {
	priority := 1
	if setting, ok := prefs.NotificationTypes[TypeMatchStart]; ok {
		priority = setting.Priority
	}

	n := store.Notification{
		Type:      TypeMatchStart,
		MatchID:   m.ID,
		Message:   ReminderMessage(m, prefs.ReminderTime),
		Timestamp: time.Now(),
		Priority:  priority,
	}

	if prefs.PushoverKey != "" {
		return d.deliverPush(ctx, n, prefs.PushoverKey, "🎾 Match Reminder")
	}
	return d.deliverEmail(n, prefs.Email, "🎾 Match Reminder", "")
}

// Send delivers an arbitrary notification payload on the user's channel.
// Used by the notifications API and the CLI test command.
func (d *Dispatcher) Send(ctx context.Context, prefs *store.Preferences, n store.Notification) error {
	title := fmt.Sprintf("Tennis Match Update: %s", n.Type)
	if prefs.NotificationType == store.ChannelPushover && prefs.PushoverKey != "" {
		return d.deliverPush(ctx, n, prefs.PushoverKey, title)
	}
	return d.deliverEmail(n, prefs.Email, title, "")
}

// --------------------------------------------------------------------------
// Delivery with history bookkeeping
// --------------------------------------------------------------------------

// begin appends the pending history entry for an attempt.
func (d *Dispatcher) begin(n store.Notification) store.HistoryEntry {
	entry := store.HistoryEntry{
		ID:           uuid.NewString(),
		Notification: n,
		Status:       store.StatusPending,
		CreatedAt:    time.Now(),
	}
	if err := d.history.Add(entry); err != nil {
		d.logger.Warn("record pending notification failed", "error", err)
	}
	return entry
}

// finish moves the entry to its terminal state.
func (d *Dispatcher) finish(entry store.HistoryEntry, deliveryErr error) {
	if deliveryErr != nil {
		if err := d.history.MarkFailed(entry.ID, deliveryErr.Error()); err != nil {
			d.logger.Warn("record failed notification failed", "error", err)
		}
		return
	}
	if err := d.history.MarkSent(entry.ID, time.Now()); err != nil {
		d.logger.Warn("record sent notification failed", "error", err)
	}
}

func (d *Dispatcher) deliverPush(ctx context.Context, n store.Notification, userKey, title string) error {
	entry := d.begin(n)
	err := d.push.Send(ctx, PushMessage{
		UserKey:  userKey,
		Message:  n.Message,
		Title:    title,
		Priority: n.Priority,
	})
	d.finish(entry, err)
	return err
}

func (d *Dispatcher) deliverEmail(n store.Notification, to, subject, htmlBody string) error {
	entry := d.begin(n)
	var err error
	if to == "" {
		err = fmt.Errorf("no email address on record")
	} else {
		err = d.mailer.Send(to, subject, n.Message, htmlBody)
	}
	d.finish(entry, err)
	return err
}
