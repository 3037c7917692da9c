package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/finwell/finwell/internal/auth"
	"github.com/finwell/finwell/internal/handler/dto"
	"github.com/finwell/finwell/internal/middleware"
	"github.com/finwell/finwell/internal/model"
)

// AuthHandler handles account registration and login.
type AuthHandler struct {
	svc    *auth.Service
	secure bool
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. secure controls the
// session cookie's Secure flag and should be true in production.
func NewAuthHandler(svc *auth.Service, secure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, secure: secure, logger: logger}
}

// Register handles POST /api/v1/auth/register. The account adopts the
// current session as its owner key, so records created before signup
// stay attached.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	sess := auth.MustSessionFromContext(r.Context())
	rec, err := h.svc.Register(r.Context(), sess.SessionID, req.Username, req.Email, req.Password, sess.Lang)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	user := rec.Payload.(*model.User)
	h.logger.Info("user_registered", "username", user.Username)
	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user))
}

// Login handles POST /api/v1/auth/login. On success the session cookie
// is rebound to the account's owner key so the user's records follow
// them across devices.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	rec, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	user := rec.Payload.(*model.User)
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    rec.OwnerKey,
		Path:     "/",
		MaxAge:   int(middleware.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("user_logged_in", "username", user.Username)
	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

func (h *AuthHandler) handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "USERNAME_TAKEN", "Username already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
	case errors.Is(err, auth.ErrMissingUsername), errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	default:
		handleFlowError(w, h.logger, err)
	}
}
