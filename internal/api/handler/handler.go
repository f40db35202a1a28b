// Package handler provides HTTP handlers for all API endpoints.
// Handlers work directly against the file stores and the dispatcher — no
// service layer.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fernkoch/tennis-tracker/internal/api/respond"
	"github.com/fernkoch/tennis-tracker/internal/auth"
	"github.com/fernkoch/tennis-tracker/internal/config"
	"github.com/fernkoch/tennis-tracker/internal/notify"
	"github.com/fernkoch/tennis-tracker/internal/store"
	"github.com/fernkoch/tennis-tracker/internal/tennis"
)

// MatchSource is the upstream surface the match endpoints need.
type MatchSource interface {
	DailySchedule(ctx context.Context, date time.Time) ([]tennis.Match, error)
	HeadToHead(ctx context.Context, firstPlayer, secondPlayer string) (*tennis.H2HStats, error)
	TournamentDraw(ctx context.Context, tournamentID string) ([]tennis.DrawRound, error)
	Rankings(ctx context.Context, tour string) ([]tennis.RankingEntry, error)
	Stats() map[string]interface{}
}

// Deps holds shared dependencies for all endpoint handlers.
type Deps struct {
	Users      *store.UserStore
	History    *store.NotificationStore
	Dispatcher *notify.Dispatcher
	Source     MatchSource
	MagicLinks *auth.MagicLinkStore
	Mailer     *notify.Mailer
	Cfg        *config.Config
	Logger     *slog.Logger
}

// Handler serves every API endpoint.
type Handler struct {
	Deps
}

// New creates a Handler with shared dependencies.
func New(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Handler{Deps: deps}
}

// Cookie names. userId is the session; the remember pair survives it.
const (
	userIDCookie        = "userId"
	rememberUserCookie  = "rememberUser"
	rememberTokenCookie = "rememberToken"
)

// authedUserID extracts the signed-in user id, or "" when anonymous.
func authedUserID(r *http.Request) string {
	c, err := r.Cookie(userIDCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func setUserCookie(w http.ResponseWriter, userID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     userIDCookie,
		Value:    userID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
	})
}

func setRememberCookies(w http.ResponseWriter, userID, token string) {
	maxAge := int((30 * 24 * time.Hour).Seconds())
	for name, value := range map[string]string{
		rememberUserCookie:  userID,
		rememberTokenCookie: token,
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   maxAge,
		})
	}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "Tennis Tracker API",
		"version": "1.0.0",
		"status":  "running",
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns schedule-cache statistics.
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.Source.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
