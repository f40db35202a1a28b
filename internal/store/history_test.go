package store

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func newHistoryStore(t *testing.T) *NotificationStore {
	t.Helper()
	s, err := NewNotificationStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewNotificationStore: %v", err)
	}
	return s
}

func entryWithID(id string) HistoryEntry {
	return HistoryEntry{
		ID: id,
		Notification: Notification{
			Type:      "match_start",
			Message:   "test",
			Timestamp: time.Now(),
		},
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
}

func TestHistoryEmptyWithoutFile(t *testing.T) {
	s := newHistoryStore(t)
	entries, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty history, got %d entries", len(entries))
	}
}

func TestHistoryTruncatesOldestAtCap(t *testing.T) {
	s := newHistoryStore(t)

	for i := 0; i < maxHistoryEntries+1; i++ {
		if err := s.Add(entryWithID(fmt.Sprintf("n%d", i))); err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
	}

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != maxHistoryEntries {
		t.Fatalf("got %d entries, want %d", len(entries), maxHistoryEntries)
	}
	// n0 dropped; n1 is now the oldest and n100 the newest.
	if entries[0].ID != "n1" {
		t.Errorf("oldest entry = %s, want n1", entries[0].ID)
	}
	if entries[len(entries)-1].ID != fmt.Sprintf("n%d", maxHistoryEntries) {
		t.Errorf("newest entry = %s", entries[len(entries)-1].ID)
	}
}

func TestHistoryLifecycle(t *testing.T) {
	s := newHistoryStore(t)

	if err := s.Add(entryWithID("a")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(entryWithID("b")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	delivered := time.Now()
	if err := s.MarkSent("a", delivered); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if err := s.MarkFailed("b", "smtp timeout"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	entries, _ := s.List()
	byID := map[string]HistoryEntry{}
	for _, e := range entries {
		byID[e.ID] = e
	}

	a := byID["a"]
	if a.Status != StatusSent || a.DeliveredAt == nil {
		t.Errorf("entry a = %+v, want sent with delivery time", a)
	}
	b := byID["b"]
	if b.Status != StatusFailed || b.Error != "smtp timeout" {
		t.Errorf("entry b = %+v, want failed with reason", b)
	}
}

func TestHistoryUpdateMissingEntryIsNoop(t *testing.T) {
	s := newHistoryStore(t)
	if err := s.MarkSent("gone", time.Now()); err != nil {
		t.Fatalf("MarkSent on missing entry: %v", err)
	}
}

func TestHistoryByMatch(t *testing.T) {
	s := newHistoryStore(t)

	e1 := entryWithID("a")
	e1.Notification.MatchID = "m1"
	e2 := entryWithID("b")
	e2.Notification.MatchID = "m2"
	e3 := entryWithID("c")
	e3.Notification.MatchID = "m1"
	for _, e := range []HistoryEntry{e1, e2, e3} {
		if err := s.Add(e); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	entries, err := s.ByMatch("m1")
	if err != nil {
		t.Fatalf("ByMatch: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries for m1, want 2", len(entries))
	}
}

func TestHistoryRecent(t *testing.T) {
	s := newHistoryStore(t)
	for i := 0; i < 5; i++ {
		if err := s.Add(entryWithID(fmt.Sprintf("n%d", i))); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	entries, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "n3" || entries[1].ID != "n4" {
		t.Fatalf("Recent(2) = %v", entries)
	}

	entries, _ = s.Recent(0)
	if len(entries) != 5 {
		t.Fatalf("Recent(0) = %d entries, want all 5", len(entries))
	}
}

func TestHistoryPruneOlderThan(t *testing.T) {
	s := newHistoryStore(t)

	old := entryWithID("old")
	old.CreatedAt = time.Now().Add(-40 * 24 * time.Hour)
	fresh := entryWithID("fresh")
	for _, e := range []HistoryEntry{old, fresh} {
		if err := s.Add(e); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	removed, err := s.PruneOlderThan(30 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("PruneOlderThan: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	entries, _ := s.List()
	if len(entries) != 1 || entries[0].ID != "fresh" {
		t.Fatalf("after prune: %v", entries)
	}
}

func TestHistoryConcurrentAdds(t *testing.T) {
	s := newHistoryStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.Add(entryWithID(fmt.Sprintf("c%d", i))); err != nil {
				t.Errorf("Add: %v", err)
			}
		}(i)
	}
	wg.Wait()

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 20 {
		t.Fatalf("got %d entries, want 20 (lost writes)", len(entries))
	}
}
