package auth

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestMagicLinkIssueAndVerify(t *testing.T) {
	s := NewMagicLinkStore(slog.New(slog.NewTextHandler(io.Discard, nil)))

	token := s.Issue("anna@example.com")
	if token == "" {
		t.Fatal("empty token")
	}

	email, ok := s.Verify(token)
	if !ok {
		t.Fatal("fresh token rejected")
	}
	if email != "anna@example.com" {
		t.Errorf("email = %q", email)
	}
}

func TestMagicLinkIsSingleUse(t *testing.T) {
	s := NewMagicLinkStore(slog.New(slog.NewTextHandler(io.Discard, nil)))

	token := s.Issue("anna@example.com")
	if _, ok := s.Verify(token); !ok {
		t.Fatal("first use rejected")
	}
	if _, ok := s.Verify(token); ok {
		t.Fatal("token verified twice")
	}
}

func TestMagicLinkUnknownToken(t *testing.T) {
	s := NewMagicLinkStore(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, ok := s.Verify("never-issued"); ok {
		t.Fatal("unknown token verified")
	}
}

func TestMagicLinkExpiredTokenConsumed(t *testing.T) {
	s := NewMagicLinkStore(slog.New(slog.NewTextHandler(io.Discard, nil)))

	token := s.Issue("anna@example.com")
	s.mu.Lock()
	link := s.links[token]
	link.expires = time.Now().Add(-time.Minute)
	s.links[token] = link
	s.mu.Unlock()

	if _, ok := s.Verify(token); ok {
		t.Fatal("expired token verified")
	}
}

func TestMagicLinkSweepDropsExpired(t *testing.T) {
	s := NewMagicLinkStore(slog.New(slog.NewTextHandler(io.Discard, nil)))

	keep := s.Issue("keep@example.com")
	drop := s.Issue("drop@example.com")
	s.mu.Lock()
	link := s.links[drop]
	link.expires = time.Now().Add(-time.Minute)
	s.links[drop] = link
	s.mu.Unlock()

	if n := s.sweep(); n != 1 {
		t.Fatalf("sweep removed %d, want 1", n)
	}
	if _, ok := s.Verify(keep); !ok {
		t.Fatal("live token swept away")
	}
}
