package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fernkoch/tennis-tracker/internal/api/handler"
	"github.com/fernkoch/tennis-tracker/internal/auth"
	"github.com/fernkoch/tennis-tracker/internal/config"
	"github.com/fernkoch/tennis-tracker/internal/notify"
	"github.com/fernkoch/tennis-tracker/internal/store"
	"github.com/fernkoch/tennis-tracker/internal/tennis"
)

// fakeSource satisfies both the dispatcher's and the handlers' upstream
// surfaces with canned data.
type fakeSource struct {
	matches  []tennis.Match
	rankings []tennis.RankingEntry
	draws    []tennis.DrawRound
}

func (f *fakeSource) DailySchedule(ctx context.Context, date time.Time) ([]tennis.Match, error) {
	return f.matches, nil
}

func (f *fakeSource) HeadToHead(ctx context.Context, firstPlayer, secondPlayer string) (*tennis.H2HStats, error) {
	return nil, nil
}

func (f *fakeSource) TournamentDraw(ctx context.Context, tournamentID string) ([]tennis.DrawRound, error) {
	return f.draws, nil
}

func (f *fakeSource) Rankings(ctx context.Context, tour string) ([]tennis.RankingEntry, error) {
	return f.rankings, nil
}

func (f *fakeSource) Stats() map[string]interface{} {
	return map[string]interface{}{"enabled": true}
}

type testAPI struct {
	srv    *httptest.Server
	users  *store.UserStore
	magic  *auth.MagicLinkStore
	source *fakeSource
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	users, err := store.NewUserStore(dir)
	if err != nil {
		t.Fatalf("NewUserStore: %v", err)
	}
	history, err := store.NewNotificationStore(dir)
	if err != nil {
		t.Fatalf("NewNotificationStore: %v", err)
	}

	push := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":1}`))
	}))
	t.Cleanup(push.Close)

	source := &fakeSource{}
	dispatcher := notify.NewDispatcher(source, history, notify.NewPushoverClient(push.URL, "app-token", logger), nil, logger)
	magic := auth.NewMagicLinkStore(logger)

	cfg := &config.Config{
		CORSAllowOrigins: []string{"http://localhost:3000"},
		PublicBaseURL:    "http://localhost:3000",
	}

	router := NewRouter(handler.Deps{
		Users:      users,
		History:    history,
		Dispatcher: dispatcher,
		Source:     source,
		MagicLinks: magic,
		Mailer:     nil,
		Cfg:        cfg,
		Logger:     logger,
	}, cfg)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testAPI{srv: srv, users: users, magic: magic, source: source}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, a.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "userId" {
			return c
		}
	}
	t.Fatal("no userId cookie set")
	return nil
}

func TestHealthEndpoints(t *testing.T) {
	a := newTestAPI(t)

	resp := a.do(t, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /health = %d", resp.StatusCode)
	}

	resp = a.do(t, http.MethodGet, "/health/cache", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /health/cache = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Process-Time") == "" {
		t.Error("timing middleware header missing")
	}
}

func TestSignupAndPreferencesFlow(t *testing.T) {
	a := newTestAPI(t)

	resp := a.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"username": "anna",
		"email":    "anna@example.com",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup = %d", resp.StatusCode)
	}
	cookie := sessionCookie(t, resp)
	created := decode[store.Preferences](t, resp)
	if created.Username != "anna" || created.Email != "anna@example.com" {
		t.Fatalf("created record = %+v", created)
	}
	if created.DailyScheduleTime != "08:00" {
		t.Errorf("defaults not applied: %+v", created)
	}

	// Anonymous access is rejected.
	resp = a.do(t, http.MethodGet, "/api/v1/preferences", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous preferences = %d, want 401", resp.StatusCode)
	}

	// The cookie grants access to the record.
	resp = a.do(t, http.MethodGet, "/api/v1/preferences", nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("preferences = %d", resp.StatusCode)
	}

	// A partial patch changes only the named fields.
	resp = a.do(t, http.MethodPatch, "/api/v1/preferences", map[string]interface{}{
		"reminderTime":      30,
		"favoritePlayerIds": []string{"sinner"},
	}, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch = %d", resp.StatusCode)
	}
	updated := decode[store.Preferences](t, resp)
	if updated.ReminderTime != 30 {
		t.Errorf("reminderTime = %d, want 30", updated.ReminderTime)
	}
	if len(updated.FavoritePlayerIDs) != 1 || updated.FavoritePlayerIDs[0] != "sinner" {
		t.Errorf("favorites = %v", updated.FavoritePlayerIDs)
	}
	if updated.DailyScheduleTime != "08:00" {
		t.Errorf("untouched field changed: %+v", updated)
	}
	if updated.UserID != created.UserID {
		t.Errorf("user id drifted: %q vs %q", updated.UserID, created.UserID)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	a := newTestAPI(t)

	body := map[string]string{"username": "anna", "email": "anna@example.com"}
	if resp := a.do(t, http.MethodPost, "/api/v1/auth/signup", body); resp.StatusCode != http.StatusCreated {
		t.Fatalf("first signup = %d", resp.StatusCode)
	}
	resp := a.do(t, http.MethodPost, "/api/v1/auth/signup", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate signup = %d, want 400", resp.StatusCode)
	}
}

func TestSigninWithPassword(t *testing.T) {
	a := newTestAPI(t)

	resp := a.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"username": "anna",
		"email":    "anna@example.com",
		"password": "correct horse",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup = %d", resp.StatusCode)
	}

	resp = a.do(t, http.MethodPost, "/api/v1/auth/signin", map[string]string{
		"email":    "anna@example.com",
		"password": "correct horse",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signin = %d", resp.StatusCode)
	}
	sessionCookie(t, resp)

	resp = a.do(t, http.MethodPost, "/api/v1/auth/signin", map[string]string{
		"email":    "anna@example.com",
		"password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password signin = %d, want 401", resp.StatusCode)
	}
}

func TestMagicLinkVerify(t *testing.T) {
	a := newTestAPI(t)

	resp := a.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"username": "anna",
		"email":    "anna@example.com",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup = %d", resp.StatusCode)
	}

	token := a.magic.Issue("anna@example.com")
	resp = a.do(t, http.MethodGet, "/api/v1/auth/verify?token="+token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify = %d", resp.StatusCode)
	}
	sessionCookie(t, resp)

	// Single use: the same token fails the second time.
	resp = a.do(t, http.MethodGet, "/api/v1/auth/verify?token="+token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("reused token = %d, want 401", resp.StatusCode)
	}
}

func TestMagicLinkRequestUnknownEmail(t *testing.T) {
	a := newTestAPI(t)
	resp := a.do(t, http.MethodPost, "/api/v1/auth/magic-link", map[string]string{
		"email": "ghost@example.com",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("magic link for unknown email = %d, want 404", resp.StatusCode)
	}
}

func TestGetMatchesSorted(t *testing.T) {
	a := newTestAPI(t)
	base := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)
	a.source.matches = []tennis.Match{
		{ID: "minor", Tournament: tennis.Tournament{Category: "ITF"}, ScheduledTime: base},
		{ID: "major", Tournament: tennis.Tournament{Category: "ATP"}, ScheduledTime: base.Add(time.Hour)},
	}

	resp := a.do(t, http.MethodGet, "/api/v1/matches", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("matches = %d", resp.StatusCode)
	}
	matches := decode[[]tennis.Match](t, resp)
	if len(matches) != 2 || matches[0].ID != "major" {
		t.Fatalf("order = %v, want major first", matches)
	}
}

func TestGetRankingsValidatesTour(t *testing.T) {
	a := newTestAPI(t)
	a.source.rankings = []tennis.RankingEntry{{Rank: 1, Player: "J. Sinner"}}

	resp := a.do(t, http.MethodGet, "/api/v1/rankings/atp", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rankings = %d", resp.StatusCode)
	}

	resp = a.do(t, http.MethodGet, "/api/v1/rankings/nhl", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid tour = %d, want 400", resp.StatusCode)
	}
}

func TestGetTournamentDraw(t *testing.T) {
	a := newTestAPI(t)
	a.source.draws = []tennis.DrawRound{{Round: "Final", Matches: []tennis.Match{{ID: "f1"}}}}

	resp := a.do(t, http.MethodGet, "/api/v1/tournaments/t1/draw", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("draw = %d", resp.StatusCode)
	}
	rounds := decode[[]tennis.DrawRound](t, resp)
	if len(rounds) != 1 || rounds[0].Round != "Final" {
		t.Fatalf("rounds = %v", rounds)
	}
}

func TestSessionRestoredFromRememberToken(t *testing.T) {
	a := newTestAPI(t)

	resp := a.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"username": "anna",
		"email":    "anna@example.com",
		"password": "correct horse",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup = %d", resp.StatusCode)
	}

	resp = a.do(t, http.MethodPost, "/api/v1/auth/signin", map[string]interface{}{
		"email":      "anna@example.com",
		"password":   "correct horse",
		"rememberMe": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signin = %d", resp.StatusCode)
	}
	var rememberUser, rememberToken *http.Cookie
	for _, c := range resp.Cookies() {
		switch c.Name {
		case "rememberUser":
			rememberUser = c
		case "rememberToken":
			rememberToken = c
		}
	}
	if rememberUser == nil || rememberToken == nil {
		t.Fatal("remember cookies not set")
	}

	// Session restores from the remember pair alone, no userId cookie.
	resp = a.do(t, http.MethodGet, "/api/v1/auth/session", nil, rememberUser, rememberToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("session restore = %d", resp.StatusCode)
	}
	sessionCookie(t, resp)
	prefs := decode[store.Preferences](t, resp)
	if prefs.Email != "anna@example.com" {
		t.Fatalf("restored record = %+v", prefs)
	}

	// A bogus token does not restore anything.
	bad := *rememberToken
	bad.Value = "bogus"
	resp = a.do(t, http.MethodGet, "/api/v1/auth/session", nil, rememberUser, &bad)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("session with bogus token = %d, want 401", resp.StatusCode)
	}
}

func TestSendNotificationAndHistory(t *testing.T) {
	a := newTestAPI(t)

	resp := a.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"username":    "anna",
		"email":       "anna@example.com",
		"pushoverKey": "user-key",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup = %d", resp.StatusCode)
	}
	cookie := sessionCookie(t, resp)

	resp = a.do(t, http.MethodPost, "/api/v1/notifications/send", map[string]interface{}{
		"type":    "match_point",
		"matchId": "m1",
		"message": "match point!",
	}, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("send = %d", resp.StatusCode)
	}

	resp = a.do(t, http.MethodGet, "/api/v1/notifications/history?matchId=m1", nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history = %d", resp.StatusCode)
	}
	entries := decode[[]store.HistoryEntry](t, resp)
	if len(entries) != 1 || entries[0].Status != store.StatusSent {
		t.Fatalf("history = %v", entries)
	}

	// Missing message is rejected before anything is recorded.
	resp = a.do(t, http.MethodPost, "/api/v1/notifications/send", map[string]string{"matchId": "m1"}, cookie)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty message = %d, want 400", resp.StatusCode)
	}
}

func TestErrorShape(t *testing.T) {
	a := newTestAPI(t)
	resp := a.do(t, http.MethodGet, "/api/v1/preferences", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error.Code != "UNAUTHORIZED" || !strings.Contains(body.Error.Message, "authenticated") {
		t.Fatalf("error body = %+v", body)
	}
}
