package tennis

import (
	"sort"
	"strings"
)

// Tournament category keywords that mark a match as major.
var majorCategories = []string{"ATP", "WTA", "Grand Slam", "Masters"}

// Curated list of players whose matches always count as major.
var topPlayers = []string{
	"Alcaraz", "Zverev", "Sinner", "Medvedev",
	"Djokovic", "Swiatek", "Sabalenka", "Gauff",
}

// IsMajorMatch reports whether a match belongs to a major tournament
// category or involves one of the curated top players. Player matching is a
// case-insensitive substring test.
func IsMajorMatch(m Match) bool {
	for _, cat := range majorCategories {
		if strings.Contains(m.Tournament.Category, cat) {
			return true
		}
	}
	return isTopPlayer(m.HomePlayer.Name) || isTopPlayer(m.AwayPlayer.Name)
}

func isTopPlayer(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range topPlayers {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// MatchFavorite returns which side is favored: by betting odds when present
// (lower win price wins), otherwise by ranking (lower rank number wins).
// Ties are even.
func MatchFavorite(m Match) Side {
	if m.Odds != nil {
		switch {
		case m.Odds.HomeWin < m.Odds.AwayWin:
			return SideHome
		case m.Odds.AwayWin < m.Odds.HomeWin:
			return SideAway
		default:
			return SideEven
		}
	}
	switch {
	case m.HomePlayer.Ranking < m.AwayPlayer.Ranking:
		return SideHome
	case m.AwayPlayer.Ranking < m.HomePlayer.Ranking:
		return SideAway
	default:
		return SideEven
	}
}

// PotentialNextOpponent returns the same-tournament, same-round match whose
// best-ranked player has the lowest ranking number — the likely next
// opponent for the winner of current. Returns nil when no candidate exists.
func PotentialNextOpponent(matches []Match, current Match) *Match {
	var likely *Match
	for i := range matches {
		m := &matches[i]
		if m.ID == current.ID ||
			m.Tournament.Name != current.Tournament.Name ||
			m.Round != current.Round {
			continue
		}
		if likely == nil || bestRanking(*m) < bestRanking(*likely) {
			likely = m
		}
	}
	if likely == nil {
		return nil
	}
	out := *likely
	return &out
}

func bestRanking(m Match) int {
	if m.HomePlayer.Ranking < m.AwayPlayer.Ranking {
		return m.HomePlayer.Ranking
	}
	return m.AwayPlayer.Ranking
}

// InvolvesFavorite reports whether either player matches one of the user's
// favorite identifiers, by case-insensitive substring.
func InvolvesFavorite(m Match, favorites []string) bool {
	home := strings.ToLower(m.HomePlayer.Name)
	away := strings.ToLower(m.AwayPlayer.Name)
	for _, f := range favorites {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if strings.Contains(home, f) || strings.Contains(away, f) {
			return true
		}
	}
	return false
}

// SortSchedule orders matches major-first, then by scheduled time. Used by
// the matches endpoint and the digest builder.
func SortSchedule(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		aMajor, bMajor := IsMajorMatch(a), IsMajorMatch(b)
		if aMajor != bMajor {
			return aMajor
		}
		return a.ScheduledTime.Before(b.ScheduledTime)
	})
}
