package middleware

import (
	"log/slog"
	"net/http"

	"portfolio-backend/internal/auth"
	"portfolio-backend/internal/transport"
)

const msgUnauthorized = "Unauthorized. Please sign in again."

// AdminAuth rejects any request the gate cannot verify before it reaches
// the store. An unconfigured gate rejects everything.
func AdminAuth(gate *auth.Gate, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := gate.Verify(r)
			if !ok {
				if log != nil {
					log.Warn("admin auth: rejected",
						slog.String("request_id", RequestIDFromContext(r.Context())),
						slog.String("path", r.URL.Path),
						slog.Bool("configured", gate.Configured()),
					)
				}
				transport.WriteError(w, http.StatusUnauthorized, msgUnauthorized, nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}
