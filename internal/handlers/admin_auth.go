package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"portfolio-backend/internal/auth"
	"portfolio-backend/internal/httpx"
	"portfolio-backend/internal/transport"
)

const refreshCookiePath = "/api"

type AdminLoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

type AdminLoginResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	AccessToken string `json:"accessToken,omitempty"`
	ExpiresIn   int    `json:"expiresIn,omitempty"`
}

func (s *Server) AdminLogin(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req AdminLoginRequest
	if err := httpx.DecodeJSON(http.MaxBytesReader(w, r.Body, httpx.MaxBodyBytes), &req); err != nil {
		log.Warn("admin login: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("admin login: validation error")
		transport.WriteError(w, http.StatusBadRequest, "Please correct the highlighted fields.", s.Val.Details(err))
		return
	}

	if !s.Creds.Configured() || s.Tokens == nil {
		log.Warn("admin login: not configured")
		transport.WriteError(w, http.StatusServiceUnavailable, "Admin sign-in is not configured.", nil)
		return
	}

	if err := s.Creds.Check(req.Username, req.Password); err != nil {
		log.Warn("admin login: invalid credentials", slog.String("username", req.Username))
		transport.WriteError(w, http.StatusUnauthorized, "Invalid username or password.", nil)
		return
	}

	access, ok := s.issueTokens(w, req.Username)
	if !ok {
		log.Error("admin login: token error")
		transport.WriteError(w, http.StatusInternalServerError, "Could not sign you in. Please try again.", nil)
		return
	}

	log.Info("admin login: ok", slog.String("username", req.Username))
	transport.WriteJSON(w, http.StatusOK, AdminLoginResponse{
		Success:     true,
		Message:     "Signed in.",
		AccessToken: access,
		ExpiresIn:   int(s.Tokens.AccessTTL.Seconds()),
	})
}

func (s *Server) AdminRefresh(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	if s.Tokens == nil {
		log.Warn("admin refresh: not configured")
		transport.WriteError(w, http.StatusServiceUnavailable, "Admin sign-in is not configured.", nil)
		return
	}

	refreshCookie, err := r.Cookie(auth.RefreshCookie)
	if err != nil || refreshCookie.Value == "" {
		log.Warn("admin refresh: missing refresh token")
		transport.WriteError(w, http.StatusUnauthorized, "Unauthorized. Please sign in again.", nil)
		return
	}

	claims, err := s.Tokens.ParseRefresh(refreshCookie.Value)
	if err != nil || claims.Role != auth.RoleAdmin {
		log.Warn("admin refresh: invalid refresh token")
		clearAuthCookies(w, s.Cfg.CookieSecure)
		transport.WriteError(w, http.StatusUnauthorized, "Unauthorized. Please sign in again.", nil)
		return
	}

	access, ok := s.issueTokens(w, claims.Subject)
	if !ok {
		transport.WriteError(w, http.StatusInternalServerError, "Could not refresh the session.", nil)
		return
	}

	log.Info("admin refresh: ok", slog.String("username", claims.Subject))
	transport.WriteJSON(w, http.StatusOK, AdminLoginResponse{
		Success:     true,
		Message:     "Session refreshed.",
		AccessToken: access,
		ExpiresIn:   int(s.Tokens.AccessTTL.Seconds()),
	})
}

func (s *Server) AdminLogout(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	clearAuthCookies(w, s.Cfg.CookieSecure)
	log.Info("admin logout: ok")
	transport.WriteMessage(w, http.StatusOK, "Signed out.")
}

func (s *Server) issueTokens(w http.ResponseWriter, subject string) (string, bool) {
	access, err := s.Tokens.NewAccessToken(subject)
	if err != nil {
		return "", false
	}
	refresh, err := s.Tokens.NewRefreshToken(subject)
	if err != nil {
		return "", false
	}
	setAuthCookies(w, access, refresh, s.Tokens.AccessTTL, s.Tokens.RefreshTTL, s.Cfg.CookieSecure)
	return access, true
}

func setAuthCookies(w http.ResponseWriter, access, refresh string, accessTTL, refreshTTL time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessCookie,
		Value:    access,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(accessTTL.Seconds()),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     auth.RefreshCookie,
		Value:    refresh,
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(refreshTTL.Seconds()),
	})
}

func clearAuthCookies(w http.ResponseWriter, secure bool) {
	expire := time.Now().Add(-1 * time.Hour)
	for _, c := range []struct{ name, path string }{
		{auth.AccessCookie, "/"},
		{auth.RefreshCookie, refreshCookiePath},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    "",
			Path:     c.path,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
			Expires:  expire,
			MaxAge:   -1,
		})
	}
}
