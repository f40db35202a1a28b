package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fernkoch/tennis-tracker/internal/api/respond"
	"github.com/fernkoch/tennis-tracker/internal/store"
)

type sendNotificationRequest struct {
	Type     string `json:"type"`
	MatchID  string `json:"matchId"`
	Message  string `json:"message"`
	Priority int    `json:"priority"`
}

// SendNotification delivers an ad-hoc notification on the signed-in user's
// channel. The attempt lands in history whether or not delivery succeeds.
func (h *Handler) SendNotification(w http.ResponseWriter, r *http.Request) {
	userID := authedUserID(r)
	if userID == "" {
		respond.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated")
		return
	}

	var req sendNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid notification payload")
		return
	}
	if req.Message == "" {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "message is required")
		return
	}
	if req.Type == "" {
		req.Type = "match_update"
	}

	prefs, err := h.Users.Get(userID)
	if err != nil {
		h.Logger.Error("read preferences failed", "user_id", userID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to fetch preferences")
		return
	}
	if prefs == nil {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}

	n := store.Notification{
		Type:      req.Type,
		MatchID:   req.MatchID,
		Message:   req.Message,
		Timestamp: time.Now(),
		Priority:  req.Priority,
	}
	if err := h.Dispatcher.Send(r.Context(), prefs, n); err != nil {
		h.Logger.Error("notification delivery failed", "user_id", userID, "error", err)
		respond.WriteErrorDetail(w, http.StatusBadGateway, "DELIVERY_FAILED", "Failed to deliver notification", err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// GetNotificationHistory returns delivery history, optionally filtered by
// match (?matchId=) or limited to the newest n entries (?limit=).
func (h *Handler) GetNotificationHistory(w http.ResponseWriter, r *http.Request) {
	var (
		entries []store.HistoryEntry
		err     error
	)
	if matchID := r.URL.Query().Get("matchId"); matchID != "" {
		entries, err = h.History.ByMatch(matchID)
	} else if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, convErr := strconv.Atoi(raw)
		if convErr != nil || limit < 1 {
			respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "limit must be a positive integer")
			return
		}
		entries, err = h.History.Recent(limit)
	} else {
		entries, err = h.History.List()
	}
	if err != nil {
		h.Logger.Error("read notification history failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to read history")
		return
	}
	if entries == nil {
		entries = []store.HistoryEntry{}
	}
	respond.WriteJSON(w, http.StatusOK, entries)
}

// PruneNotificationHistory drops history entries older than ?days= (default 30).
func (h *Handler) PruneNotificationHistory(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "days must be a positive integer")
			return
		}
		days = v
	}

	removed, err := h.History.PruneOlderThan(time.Duration(days) * 24 * time.Hour)
	if err != nil {
		h.Logger.Error("prune notification history failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to prune history")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"removed": removed})
}
