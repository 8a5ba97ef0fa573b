package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/varangian-core/mind-place/internal/auth"
)

// AuthHandler exchanges the server's shared password for a JWT.
//
// The token is returned in the body for header-based clients (the CLI) and
// set as an HttpOnly cookie for the browser in the same response.
type AuthHandler struct {
	tokens       *auth.TokenService
	passwords    *auth.PasswordService
	passwordHash string
	logger       *slog.Logger
}

// NewAuthHandler creates an AuthHandler. passwordHash is the bcrypt hash of
// the shared password, taken from configuration.
func NewAuthHandler(tokens *auth.TokenService, passwords *auth.PasswordService, passwordHash string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		tokens:       tokens,
		passwords:    passwords,
		passwordHash: passwordHash,
		logger:       logger,
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// HandleLogin verifies the shared password and issues a token.
//
// HTTP: POST /api/auth/login
// BODY: {"password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	if err := h.passwords.Verify(h.passwordHash, req.Password); err != nil {
		h.logger.Warn("login rejected", slog.String("remote", r.RemoteAddr))
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "invalid password",
		})
		return
	}

	token, err := h.tokens.Generate("owner")
	if err != nil {
		h.logger.Error("token generation failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}
