package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fernkoch/tennis-tracker/internal/api/respond"
	"github.com/fernkoch/tennis-tracker/internal/tennis"
)

// GetMatches returns today's schedule, major matches first, then by time.
func (h *Handler) GetMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.Source.DailySchedule(r.Context(), time.Now())
	if err != nil {
		h.Logger.Error("fetch matches failed", "error", err)
		respond.WriteError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to fetch matches")
		return
	}
	tennis.SortSchedule(matches)
	respond.WriteJSON(w, http.StatusOK, matches)
}

// GetHeadToHead returns the historical series between two players, or null
// when the upstream has nothing.
func (h *Handler) GetHeadToHead(w http.ResponseWriter, r *http.Request) {
	first := r.URL.Query().Get("first")
	second := r.URL.Query().Get("second")
	if first == "" || second == "" {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "first and second players are required")
		return
	}
	stats, _ := h.Source.HeadToHead(r.Context(), first, second)
	respond.WriteJSON(w, http.StatusOK, stats)
}

// GetTournamentDraw returns the bracket for a tournament, or null when the
// upstream has nothing.
func (h *Handler) GetTournamentDraw(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	rounds, _ := h.Source.TournamentDraw(r.Context(), tournamentID)
	respond.WriteJSON(w, http.StatusOK, rounds)
}

// GetRankings returns the standings table for a tour (ATP or WTA).
func (h *Handler) GetRankings(w http.ResponseWriter, r *http.Request) {
	tour := strings.ToUpper(chi.URLParam(r, "tour"))
	if tour != "ATP" && tour != "WTA" {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "tour must be ATP or WTA")
		return
	}
	entries, err := h.Source.Rankings(r.Context(), tour)
	if err != nil {
		h.Logger.Error("fetch rankings failed", "tour", tour, "error", err)
		respond.WriteError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to fetch rankings")
		return
	}
	respond.WriteJSON(w, http.StatusOK, entries)
}
