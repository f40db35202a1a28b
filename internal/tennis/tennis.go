// Package tennis provides the API-Tennis client and match classification
// helpers used by the scheduler and the matches API.
//
// The upstream exposes method-style endpoints (get_fixtures, get_H2H,
// get_tournament_draw, get_standings) with query-parameter key auth.
package tennis

import "time"

// Side identifies which side of a match is favored.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
	SideEven Side = "even"
)

// Tournament describes the event a match belongs to.
type Tournament struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Surface  string `json:"surface"`
}

// Player is one side of a match. Ranking 0 means unranked/unknown.
type Player struct {
	Name    string `json:"name"`
	Ranking int    `json:"ranking"`
}

// Odds are decimal win prices; lower price means stronger favorite.
type Odds struct {
	HomeWin float64 `json:"homeWin"`
	AwayWin float64 `json:"awayWin"`
}

// Match is a single scheduled match for a day. Immutable once fetched.
type Match struct {
	ID            string     `json:"id"`
	Tournament    Tournament `json:"tournament"`
	HomePlayer    Player     `json:"homePlayer"`
	AwayPlayer    Player     `json:"awayPlayer"`
	ScheduledTime time.Time  `json:"scheduledTime"`
	Round         string     `json:"round"`
	Odds          *Odds      `json:"odds,omitempty"`
}

// H2HStats summarizes the historical series between two players.
type H2HStats struct {
	Matches   int        `json:"matches"`
	HomeWins  int        `json:"homeWins"`
	AwayWins  int        `json:"awayWins"`
	LastMatch *LastMatch `json:"lastMatch,omitempty"`
}

// LastMatch is the most recent meeting in a head-to-head series.
type LastMatch struct {
	Date    string `json:"date"`
	Winner  string `json:"winner"`
	Score   string `json:"score"`
	Surface string `json:"surface"`
}

// DrawRound is one round of a tournament draw.
type DrawRound struct {
	Round   string  `json:"round"`
	Matches []Match `json:"matches"`
}

// RankingEntry is one row of an ATP/WTA standings table.
type RankingEntry struct {
	Rank     int    `json:"rank"`
	Player   string `json:"player"`
	Country  string `json:"country"`
	Points   int    `json:"points"`
	Movement string `json:"movement"`
}
