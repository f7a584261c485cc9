// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package auth

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/validation"
)

// RoleAdmin is the only role Specula issues. The dashboard has a single
// configured account.
const RoleAdmin = "admin"

// Handlers serves the login endpoints.
type Handlers struct {
	jwtManager *JWTManager
	verifier   *PasswordVerifier
	lockout    *LockoutManager
}

// NewHandlers creates the auth handlers. The lockout manager may be nil,
// which disables brute-force tracking.
func NewHandlers(jwtManager *JWTManager, verifier *PasswordVerifier, lockout *LockoutManager) *Handlers {
	return &Handlers{
		jwtManager: jwtManager,
		verifier:   verifier,
		lockout:    lockout,
	}
}

// LoginRequest is the POST body for /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the session token and its expiry.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
}

// Login authenticates the configured account and issues a session token.
// The token is returned in the body and also set as an HTTP-only cookie so
// the browser dashboard can authenticate asset and stream requests.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4096)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		writeAuthError(w, http.StatusBadRequest, verr.ToAPIError().Message)
		return
	}

	ctx := r.Context()
	ip := clientIP(r)

	if h.lockout != nil {
		for _, identifier := range []string{req.Username, "ip:" + ip} {
			locked, remaining, err := h.lockout.CheckLocked(ctx, identifier)
			if err != nil {
				logging.Error().Err(err).Str("identifier", identifier).Msg("Lockout check failed")
				continue
			}
			if locked {
				WriteLockoutResponse(w, remaining)
				return
			}
		}
	}

	if err := h.verifier.Verify(req.Username, req.Password); err != nil {
		logging.Warn().Str("username", req.Username).Str("ip", ip).Msg("Failed login attempt")

		if h.lockout != nil {
			locked, remaining, lerr := h.lockout.RecordFailedAttempt(ctx, req.Username, ip)
			if lerr != nil {
				logging.Error().Err(lerr).Msg("Failed to record login attempt")
			} else if locked {
				WriteLockoutResponse(w, remaining)
				return
			}
		}
		writeAuthError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if h.lockout != nil {
		if err := h.lockout.RecordSuccessfulLogin(ctx, req.Username); err != nil {
			logging.Error().Err(err).Msg("Failed to clear lockout state")
		}
	}

	token, err := h.jwtManager.GenerateToken(req.Username, RoleAdmin)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to generate session token")
		writeAuthError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	expiresAt := time.Now().Add(h.jwtManager.SessionTimeout())

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	logging.Info().Str("username", req.Username).Str("ip", ip).Msg("Successful login")
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Username:  req.Username,
		Role:      RoleAdmin,
	})
}

// Logout clears the session cookie. The token itself stays valid until it
// expires; there is no server-side session state to revoke.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// UserInfo returns the identity behind the current session token.
func (h *Handlers) UserInfo(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaims(r.Context())
	if !ok {
		writeAuthError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"username":   claims.Username,
		"role":       claims.Role,
		"expires_at": claims.ExpiresAt.Time,
	})
}

// writeJSON sends a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}
