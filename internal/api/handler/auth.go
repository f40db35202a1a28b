package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fernkoch/tennis-tracker/internal/api/respond"
	"github.com/fernkoch/tennis-tracker/internal/store"
)

type signupRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PushoverKey string `json:"pushoverKey"`
}

type signinRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type magicLinkRequest struct {
	Email string `json:"email"`
}

type setPasswordRequest struct {
	Password string `json:"password"`
}

// Signup creates a user with default preferences, optionally sets a
// password, and signs the new user in.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid signup payload")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Username == "" {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "username and email are required")
		return
	}

	existing, err := h.Users.GetByEmail(req.Email)
	if err != nil {
		h.Logger.Error("lookup by email failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to create account")
		return
	}
	if existing != nil {
		respond.WriteError(w, http.StatusBadRequest, "EMAIL_TAKEN", "An account with this email already exists")
		return
	}

	userID := uuid.NewString()
	prefs, err := h.Users.CreateDefaults(userID, req.Username)
	if err != nil {
		h.Logger.Error("create user failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to create account")
		return
	}
	prefs.Email = req.Email
	if req.PushoverKey != "" {
		prefs.PushoverKey = req.PushoverKey
		prefs.NotificationType = store.ChannelPushover
	}
	if err := h.Users.Save(prefs); err != nil {
		h.Logger.Error("save user failed", "user_id", userID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to create account")
		return
	}

	if req.Password != "" {
		if err := h.Users.SetPassword(userID, req.Password); err != nil {
			h.Logger.Error("set password failed", "user_id", userID, "error", err)
			respond.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to create account")
			return
		}
		prefs.HasPassword = true
	}

	// Welcome mail is best effort; the account exists either way.
	if err := h.Mailer.Send(req.Email, "Welcome to Tennis Tracker",
		fmt.Sprintf("Hi %s,\n\nYour account is ready. Set your favorite players and you'll start getting match updates.\n", req.Username), ""); err != nil {
		h.Logger.Warn("welcome email failed", "user_id", userID, "error", err)
	}

	setUserCookie(w, userID)
	respond.WriteJSON(w, http.StatusCreated, prefs)
}

// Signin authenticates with email and password and sets the session cookie.
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid signin payload")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "email and password are required")
		return
	}

	prefs, err := h.Users.GetByEmail(req.Email)
	if err != nil {
		h.Logger.Error("lookup by email failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to sign in")
		return
	}
	if prefs == nil {
		respond.WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	ok, err := h.Users.VerifyPassword(prefs.UserID, req.Password)
	if err != nil {
		h.Logger.Error("verify password failed", "user_id", prefs.UserID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to sign in")
		return
	}
	if !ok {
		respond.WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	if req.RememberMe {
		token, err := h.Users.SetRememberToken(prefs.UserID)
		if err != nil {
			h.Logger.Warn("issue remember token failed", "user_id", prefs.UserID, "error", err)
		} else {
			setRememberCookies(w, prefs.UserID, token)
		}
	}
	setUserCookie(w, prefs.UserID)
	respond.WriteJSON(w, http.StatusOK, prefs)
}

// Session returns the signed-in user's record. A lapsed session is restored
// from the remember-me cookies when the stored token still verifies.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	userID := authedUserID(r)
	if userID == "" {
		uc, uErr := r.Cookie(rememberUserCookie)
		tc, tErr := r.Cookie(rememberTokenCookie)
		if uErr == nil && tErr == nil {
			ok, err := h.Users.VerifyRememberToken(uc.Value, tc.Value)
			if err != nil {
				h.Logger.Warn("verify remember token failed", "error", err)
			}
			if ok {
				userID = uc.Value
				setUserCookie(w, userID)
			}
		}
	}
	if userID == "" {
		respond.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated")
		return
	}

	prefs, err := h.Users.Get(userID)
	if err != nil {
		h.Logger.Error("read preferences failed", "user_id", userID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to load session")
		return
	}
	if prefs == nil {
		respond.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Account no longer exists")
		return
	}
	respond.WriteJSON(w, http.StatusOK, prefs)
}

// Signout clears the session and remember-me cookies.
func (h *Handler) Signout(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{userIDCookie, rememberUserCookie, rememberTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// RequestMagicLink issues a sign-in token and mails it to a known account.
func (h *Handler) RequestMagicLink(w http.ResponseWriter, r *http.Request) {
	var req magicLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid payload")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "email is required")
		return
	}

	prefs, err := h.Users.GetByEmail(req.Email)
	if err != nil {
		h.Logger.Error("lookup by email failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to send sign-in link")
		return
	}
	if prefs == nil {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "No account with this email")
		return
	}

	token := h.MagicLinks.Issue(req.Email)
	link := fmt.Sprintf("%s/auth/verify?token=%s", strings.TrimRight(h.Cfg.PublicBaseURL, "/"), token)
	body := fmt.Sprintf("Hi %s,\n\nClick to sign in to Tennis Tracker:\n\n%s\n\nThe link is valid for 15 minutes and works once.\n", prefs.Username, link)
	if err := h.Mailer.Send(req.Email, "Your Tennis Tracker sign-in link", body, ""); err != nil {
		h.Logger.Error("magic link email failed", "error", err)
		respond.WriteError(w, http.StatusBadGateway, "DELIVERY_FAILED", "Failed to send sign-in link")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// VerifyMagicLink consumes a sign-in token and sets the session cookie.
func (h *Handler) VerifyMagicLink(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "token is required")
		return
	}

	email, ok := h.MagicLinks.Verify(token)
	if !ok {
		respond.WriteError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Sign-in link is invalid or expired")
		return
	}

	prefs, err := h.Users.GetByEmail(email)
	if err != nil {
		h.Logger.Error("lookup by email failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to sign in")
		return
	}
	if prefs == nil {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Account no longer exists")
		return
	}

	setUserCookie(w, prefs.UserID)
	respond.WriteJSON(w, http.StatusOK, prefs)
}

// SetPassword sets or replaces the signed-in user's password.
func (h *Handler) SetPassword(w http.ResponseWriter, r *http.Request) {
	userID := authedUserID(r)
	if userID == "" {
		respond.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated")
		return
	}

	var req setPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid payload")
		return
	}
	if len(req.Password) < 8 {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "password must be at least 8 characters")
		return
	}

	prefs, err := h.Users.Get(userID)
	if err != nil {
		h.Logger.Error("read preferences failed", "user_id", userID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to set password")
		return
	}
	if prefs == nil {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}

	if err := h.Users.SetPassword(userID, req.Password); err != nil {
		h.Logger.Error("set password failed", "user_id", userID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to set password")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
