package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"portfolio-backend/internal/schedule"
	"portfolio-backend/internal/transport"
)

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.Store != nil {
		if err := s.Store.Ping(ctx); err != nil {
			s.logWithRequest(r).Error("health: store unreachable", slog.String("error", err.Error()))
			transport.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Backend: s.Cfg.StoreBackend})
			return
		}
	}
	transport.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Backend: s.Cfg.StoreBackend})
}

type slotsResponse struct {
	Success     bool     `json:"success"`
	Slots       []string `json:"slots"`
	SlotMinutes int      `json:"slotMinutes"`
	Timezone    string   `json:"timezone"`
}

// Slots lists the bookable half-hour starts. The set is the same every day.
func (s *Server) Slots(w http.ResponseWriter, r *http.Request) {
	tz := "UTC"
	if s.Cfg.Timezone != nil {
		tz = s.Cfg.Timezone.String()
	}
	transport.WriteJSON(w, http.StatusOK, slotsResponse{
		Success:     true,
		Slots:       schedule.Slots(),
		SlotMinutes: schedule.SlotMinutes,
		Timezone:    tz,
	})
}
