// Package auth provides the magic-link sign-in token store.
//
// Tokens live in one process-wide store created at service start, never
// rebuilt per request. They expire after 15 minutes, are single-use, and
// are cleared by a periodic expiry sweep.
package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	tokenTTL      = 15 * time.Minute
	sweepInterval = 5 * time.Minute
)

type magicLink struct {
	email   string
	expires time.Time
}

// MagicLinkStore issues and verifies single-use sign-in tokens.
type MagicLinkStore struct {
	mu     sync.Mutex
	links  map[string]magicLink
	logger *slog.Logger
}

// NewMagicLinkStore creates an empty store.
func NewMagicLinkStore(logger *slog.Logger) *MagicLinkStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MagicLinkStore{
		links:  make(map[string]magicLink),
		logger: logger,
	}
}

// Issue creates a token for the given email, valid for 15 minutes.
func (s *MagicLinkStore) Issue(email string) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.links[token] = magicLink{email: email, expires: time.Now().Add(tokenTTL)}
	s.mu.Unlock()
	return token
}

// Verify consumes a token. A valid token is removed and its email returned;
// expired or unknown tokens fail.
func (s *MagicLinkStore) Verify(token string) (email string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, exists := s.links[token]
	if !exists {
		return "", false
	}
	delete(s.links, token)
	if time.Now().After(link.expires) {
		return "", false
	}
	return link.email, true
}

// StartSweep runs the expiry sweep until ctx is cancelled. Intended to be
// called with `go`.
func (s *MagicLinkStore) StartSweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				s.logger.Info("expired magic links cleared", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *MagicLinkStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for token, link := range s.links {
		if now.After(link.expires) {
			delete(s.links, token)
			removed++
		}
	}
	return removed
}
