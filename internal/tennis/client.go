package tennis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Client is the HTTP client for the API-Tennis endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates an API-Tennis client with rate limiting.
func NewClient(baseURL, apiKey string, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// envelope is the common API-Tennis response wrapper. A zero success flag
// with a populated error string is an application-level failure.
type envelope struct {
	Success int             `json:"success"`
	Error   string          `json:"error"`
	Result  json.RawMessage `json:"result"`
}

// get performs a rate-limited GET for one API method.
func (c *Client) get(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("method", method)
	params.Set("APIkey", c.apiKey)

	u := c.baseURL + "/?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api-tennis %s returned %d: %s", method, resp.StatusCode, truncate(body, 200))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if env.Success == 0 {
		msg := env.Error
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("api-tennis %s: %s", method, msg)
	}
	return env.Result, nil
}

// --------------------------------------------------------------------------
// Wire types
// --------------------------------------------------------------------------

type apiFixture struct {
	EventKey            json.Number `json:"event_key"`
	TournamentName      string      `json:"tournament_name"`
	EventTypeType       string      `json:"event_type_type"`
	TournamentSurface   string      `json:"tournament_surface"`
	EventFirstPlayer    string      `json:"event_first_player"`
	FirstPlayerRanking  json.Number `json:"first_player_ranking"`
	EventSecondPlayer   string      `json:"event_second_player"`
	SecondPlayerRanking json.Number `json:"second_player_ranking"`
	EventDate           string      `json:"event_date"`
	EventTime           string      `json:"event_time"`
	TournamentRound     string      `json:"tournament_round"`
	Odds                *struct {
		HomeWin json.Number `json:"home_win"`
		AwayWin json.Number `json:"away_win"`
	} `json:"odds"`
}

func (f *apiFixture) toMatch() Match {
	m := Match{
		ID: f.EventKey.String(),
		Tournament: Tournament{
			Name:     f.TournamentName,
			Category: f.EventTypeType,
			Surface:  orDefault(f.TournamentSurface, "Unknown"),
		},
		HomePlayer: Player{Name: f.EventFirstPlayer, Ranking: numInt(f.FirstPlayerRanking)},
		AwayPlayer: Player{Name: f.EventSecondPlayer, Ranking: numInt(f.SecondPlayerRanking)},
		Round:      orDefault(f.TournamentRound, "Unknown"),
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", f.EventDate+" "+f.EventTime, time.Local); err == nil {
		m.ScheduledTime = t
	}
	if f.Odds != nil {
		m.Odds = &Odds{
			HomeWin: numFloat(f.Odds.HomeWin),
			AwayWin: numFloat(f.Odds.AwayWin),
		}
	}
	return m
}

// --------------------------------------------------------------------------
// Operations
// --------------------------------------------------------------------------

// DailySchedule fetches all matches scheduled on the given calendar date
// (server-local). Future dates are clamped to today — the upstream never
// serves schedules past "now". Upstream failures propagate to the caller.
func (c *Client) DailySchedule(ctx context.Context, date time.Time) ([]Match, error) {
	if today := time.Now(); date.After(today) {
		date = today
	}
	day := date.Format("2006-01-02")

	params := url.Values{}
	params.Set("date_start", day)
	params.Set("date_stop", day)

	raw, err := c.get(ctx, "get_fixtures", params)
	if err != nil {
		return nil, err
	}

	var fixtures []apiFixture
	if err := json.Unmarshal(raw, &fixtures); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	matches := make([]Match, 0, len(fixtures))
	for i := range fixtures {
		matches = append(matches, fixtures[i].toMatch())
	}
	return matches, nil
}

// HeadToHead fetches the historical series between two players. Failures are
// reported as unavailable (nil, nil) — this is supplementary display data and
// must never break schedule delivery.
func (c *Client) HeadToHead(ctx context.Context, firstPlayer, secondPlayer string) (*H2HStats, error) {
	params := url.Values{}
	params.Set("first_player_key", firstPlayer)
	params.Set("second_player_key", secondPlayer)

	raw, err := c.get(ctx, "get_H2H", params)
	if err != nil {
		c.logger.Warn("head-to-head unavailable",
			"first", firstPlayer, "second", secondPlayer, "error", err)
		return nil, nil
	}

	var wire struct {
		TotalMatches json.Number `json:"total_matches"`
		Player1Wins  json.Number `json:"player1_wins"`
		Player2Wins  json.Number `json:"player2_wins"`
		LastMatch    *struct {
			Date    string `json:"date"`
			Winner  string `json:"winner"`
			Score   string `json:"score"`
			Surface string `json:"surface"`
		} `json:"last_match"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		c.logger.Warn("head-to-head decode failed", "error", err)
		return nil, nil
	}

	stats := &H2HStats{
		Matches:  numInt(wire.TotalMatches),
		HomeWins: numInt(wire.Player1Wins),
		AwayWins: numInt(wire.Player2Wins),
	}
	if wire.LastMatch != nil {
		stats.LastMatch = &LastMatch{
			Date:    wire.LastMatch.Date,
			Winner:  wire.LastMatch.Winner,
			Score:   wire.LastMatch.Score,
			Surface: wire.LastMatch.Surface,
		}
	}
	return stats, nil
}

// TournamentDraw fetches the bracket for a tournament. Failures yield an
// empty slice — draw data is supplementary.
func (c *Client) TournamentDraw(ctx context.Context, tournamentID string) ([]DrawRound, error) {
	params := url.Values{}
	params.Set("tournament_id", tournamentID)

	raw, err := c.get(ctx, "get_tournament_draw", params)
	if err != nil {
		c.logger.Warn("tournament draw unavailable", "tournament", tournamentID, "error", err)
		return nil, nil
	}

	var wire struct {
		Rounds []struct {
			Name    string       `json:"name"`
			Matches []apiFixture `json:"matches"`
		} `json:"rounds"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		c.logger.Warn("tournament draw decode failed", "error", err)
		return nil, nil
	}

	rounds := make([]DrawRound, 0, len(wire.Rounds))
	for _, r := range wire.Rounds {
		round := DrawRound{Round: r.Name}
		for i := range r.Matches {
			round.Matches = append(round.Matches, r.Matches[i].toMatch())
		}
		rounds = append(rounds, round)
	}
	return rounds, nil
}

// Rankings fetches the current standings for a tour ("ATP" or "WTA").
func (c *Client) Rankings(ctx context.Context, tour string) ([]RankingEntry, error) {
	params := url.Values{}
	params.Set("event_type", tour)

	raw, err := c.get(ctx, "get_standings", params)
	if err != nil {
		return nil, err
	}

	var wire []struct {
		Place    json.Number `json:"place"`
		Player   string      `json:"player"`
		Country  string      `json:"country"`
		Points   json.Number `json:"points"`
		Movement string      `json:"movement"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode standings: %w", err)
	}

	entries := make([]RankingEntry, 0, len(wire))
	for _, row := range wire {
		entries = append(entries, RankingEntry{
			Rank:     numInt(row.Place),
			Player:   row.Player,
			Country:  row.Country,
			Points:   numInt(row.Points),
			Movement: row.Movement,
		})
	}
	return entries, nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func numInt(n json.Number) int {
	i, err := strconv.Atoi(n.String())
	if err != nil {
		return 0
	}
	return i
}

func numFloat(n json.Number) float64 {
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return f
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
