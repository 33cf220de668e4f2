package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"portfolio-backend/internal/auth"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/validation"
)

// Pinger reports whether the submission backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server hosts the endpoints that sit outside the submissions package:
// operator sign-in, health and the slot catalogue.
type Server struct {
	Cfg    *config.Config
	Val    *validation.Validator
	Log    *slog.Logger
	Tokens *auth.Manager
	Creds  auth.Credentials
	Store  Pinger
}

func (s *Server) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return s.Log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return s.Log.With(slog.String("request_id", id))
	}
	return s.Log
}
