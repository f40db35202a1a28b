package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// maxHistoryEntries bounds the on-disk log; oldest entries drop first.
const maxHistoryEntries = 100

// Status is the delivery lifecycle of a history entry.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Notification is the payload embedded in each history entry.
type Notification struct {
	Type      string    `json:"type"`
	MatchID   string    `json:"matchId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Priority  int       `json:"priority"`
}

// HistoryEntry is one delivery attempt. Created pending, updated to a
// terminal state after the delivery call returns.
type HistoryEntry struct {
	ID           string       `json:"id"`
	Notification Notification `json:"notification"`
	Status       Status       `json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
	DeliveredAt  *time.Time   `json:"deliveredAt,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// NotificationStore is the append-only history log. Every read-modify-write
// cycle holds the mutex so concurrent deliveries cannot lose entries.
type NotificationStore struct {
	mu   sync.Mutex
	path string
}

// NewNotificationStore creates the store backed by <dataDir>/notifications.json.
func NewNotificationStore(dataDir string) (*NotificationStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &NotificationStore{path: filepath.Join(dataDir, "notifications.json")}, nil
}

// load reads the full log. A missing file initializes an empty log.
// Caller must hold mu.
func (s *NotificationStore) load() ([]HistoryEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read notification history: %w", err)
	}
	var entries []HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode notification history: %w", err)
	}
	return entries, nil
}

// write persists the log. Caller must hold mu.
func (s *NotificationStore) write(entries []HistoryEntry) error {
	if entries == nil {
		entries = []HistoryEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode notification history: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write notification history: %w", err)
	}
	return nil
}

// Add appends an entry and truncates the log to the most recent
// maxHistoryEntries, dropping the oldest first.
func (s *NotificationStore) Add(e HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	entries = append(entries, e)
	if len(entries) > maxHistoryEntries {
		entries = entries[len(entries)-maxHistoryEntries:]
	}
	return s.write(entries)
}

// MarkSent moves a pending entry to sent and stamps the delivery time.
func (s *NotificationStore) MarkSent(id string, deliveredAt time.Time) error {
	return s.update(id, func(e *HistoryEntry) {
		e.Status = StatusSent
		e.DeliveredAt = &deliveredAt
		e.Error = ""
	})
}

// MarkFailed moves a pending entry to failed with the delivery error text.
func (s *NotificationStore) MarkFailed(id, reason string) error {
	return s.update(id, func(e *HistoryEntry) {
		e.Status = StatusFailed
		e.Error = reason
	})
}

func (s *NotificationStore) update(id string, fn func(*HistoryEntry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].ID == id {
			fn(&entries[i])
			return s.write(entries)
		}
	}
	// Entry may have been truncated away between create and update.
	return nil
}

// List returns the full remaining log, oldest first.
func (s *NotificationStore) List() ([]HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// ByMatch returns entries whose notification targets the given match.
func (s *NotificationStore) ByMatch(matchID string) ([]HistoryEntry, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	var out []HistoryEntry
	for _, e := range entries {
		if e.Notification.MatchID == matchID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Recent returns the newest n entries, oldest first.
func (s *NotificationStore) Recent(n int) ([]HistoryEntry, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	if n <= 0 || n >= len(entries) {
		return entries, nil
	}
	return entries[len(entries)-n:], nil
}

// PruneOlderThan drops entries created before the cutoff and reports how
// many were removed.
func (s *NotificationStore) PruneOlderThan(age time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-age)
	kept := entries[:0]
	for _, e := range entries {
		if e.CreatedAt.After(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := len(entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, s.write(kept)
}
