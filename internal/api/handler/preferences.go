package handler

import (
	"encoding/json"
	"net/http"

	"github.com/fernkoch/tennis-tracker/internal/api/respond"
)

// GetPreferences returns the signed-in user's preference record.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := authedUserID(r)
	if userID == "" {
		respond.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated")
		return
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
	respond.WriteJSON(w, http.StatusOK, prefs)
}

// PatchPreferences merges a partial update into the current record and
// saves the whole record. Merging happens here; the store only overwrites.
func (h *Handler) PatchPreferences(w http.ResponseWriter, r *http.Request) {
	userID := authedUserID(r)
	if userID == "" {
		respond.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated")
		return
	}

	current, err := h.Users.Get(userID)
	if err != nil {
		h.Logger.Error("read preferences failed", "user_id", userID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to fetch preferences")
		return
	}
	if current == nil {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}

	// Decoding into the existing record leaves absent fields untouched.
	if err := json.NewDecoder(r.Body).Decode(current); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid preferences payload")
		return
	}
	current.UserID = userID // identity is never client-writable

	if err := h.Users.Save(current); err != nil {
		h.Logger.Error("save preferences failed", "user_id", userID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to save preferences")
		return
	}
	respond.WriteJSON(w, http.StatusOK, current)
}
