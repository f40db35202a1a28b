package tennis

import (
	"context"
	"time"

	"github.com/fernkoch/tennis-tracker/internal/cache"
)

// Source is the schedule/stats surface consumed by the dispatcher and the
// matches API. *Client and *CachedSource both satisfy it.
type Source interface {
	DailySchedule(ctx context.Context, date time.Time) ([]Match, error)
	HeadToHead(ctx context.Context, firstPlayer, secondPlayer string) (*H2HStats, error)
}

// CachedSource wraps a Client with a freshness-window cache so repeated
// schedule reads within the TTL hit the upstream only once.
type CachedSource struct {
	client   *Client
	schedule *cache.Cache[[]Match]
	h2h      *cache.Cache[*H2HStats]
	rankings *cache.Cache[[]RankingEntry]
	draws    *cache.Cache[[]DrawRound]
	ttl      time.Duration
}

// NewCachedSource creates a caching wrapper around client.
func NewCachedSource(client *Client, enabled bool, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = cache.TTLSchedule
	}
	return &CachedSource{
		client:   client,
		schedule: cache.New[[]Match](enabled),
		h2h:      cache.New[*H2HStats](enabled),
		rankings: cache.New[[]RankingEntry](enabled),
		draws:    cache.New[[]DrawRound](enabled),
		ttl:      ttl,
	}
}

// DailySchedule returns the cached match list for the date when fresh,
// otherwise fetches and caches it. Fetch errors propagate and leave any
// stale entry untouched.
func (s *CachedSource) DailySchedule(ctx context.Context, date time.Time) ([]Match, error) {
	key := date.Format("2006-01-02")
	if matches, ok := s.schedule.Get(key); ok {
		return matches, nil
	}
	matches, err := s.client.DailySchedule(ctx, date)
	if err != nil {
		return nil, err
	}
	s.schedule.Set(key, matches, s.ttl)
	return matches, nil
}

// HeadToHead caches per player pair. Unavailable results (nil) are not
// cached so a later read can retry.
func (s *CachedSource) HeadToHead(ctx context.Context, firstPlayer, secondPlayer string) (*H2HStats, error) {
	key := firstPlayer + "|" + secondPlayer
	if stats, ok := s.h2h.Get(key); ok {
		return stats, nil
	}
	stats, err := s.client.HeadToHead(ctx, firstPlayer, secondPlayer)
	if err != nil || stats == nil {
		return stats, err
	}
	s.h2h.Set(key, stats, cache.TTLH2H)
	return stats, nil
}

// TournamentDraw returns the bracket for a tournament, cached for the
// schedule window. Unavailable draws (nil) are not cached.
func (s *CachedSource) TournamentDraw(ctx context.Context, tournamentID string) ([]DrawRound, error) {
	key := "draw|" + tournamentID
	if rounds, ok := s.draws.Get(key); ok {
		return rounds, nil
	}
	rounds, err := s.client.TournamentDraw(ctx, tournamentID)
	if err != nil || rounds == nil {
		return rounds, err
	}
	s.draws.Set(key, rounds, s.ttl)
	return rounds, nil
}

// Rankings returns the standings table for a tour, cached for a day.
func (s *CachedSource) Rankings(ctx context.Context, tour string) ([]RankingEntry, error) {
	key := "rankings|" + tour
	if entries, ok := s.rankings.Get(key); ok {
		return entries, nil
	}
	entries, err := s.client.Rankings(ctx, tour)
	if err != nil {
		return nil, err
	}
	s.rankings.Set(key, entries, cache.TTLRankings)
	return entries, nil
}

// Stats exposes schedule-cache statistics for the health endpoint.
func (s *CachedSource) Stats() map[string]interface{} {
	return s.schedule.Stats()
}
