package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"portfolio-backend/internal/bootstrap"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/logging"
	"portfolio-backend/internal/submissions"
	"portfolio-backend/internal/validation"
)

type seedMessage struct {
	Name    string
	Email   string
	Subject string
	Body    string
	Plan    string
}

type seedBooking struct {
	Name    string
	Email   string
	Company string
	InDays  int
	Time    string
	Plan    string
	Notes   string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.New(cfg)

	if cfg.StoreBackend == config.StoreMemory {
		logger.Error("seed: refusing to seed the in-memory store, set MONGO_URI or REDIS_URL")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backend, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer backend.Close()

	service := submissions.NewService(backend.Store, validation.New(cfg.Timezone),
		submissions.WithCache(backend.Cache, time.Minute))

	messages := []seedMessage{
		{Name: "Jo Lee", Email: "jo@example.com", Subject: "Hello there", Body: "I would like to discuss a project with you.", Plan: "Starter"},
		{Name: "Sam Carter", Email: "sam@example.com", Subject: "Portfolio redesign", Body: "Our studio site needs a refresh before the spring launch."},
		{Name: "Priya Nair", Email: "priya@example.com", Subject: "Maintenance retainer", Body: "Do you offer monthly maintenance for an existing site?", Plan: "Growth"},
	}
	bookings := []seedBooking{
		{Name: "Ada Lovelace", Email: "ada@example.com", Company: "Analytical Engines", InDays: 2, Time: "10:00", Plan: "Growth", Notes: "Scope a documentation portal."},
		{Name: "Grace Hopper", Email: "grace@example.com", InDays: 5, Time: "14:30", Plan: "Starter"},
		{Name: "Alan Turing", Email: "alan@example.com", Company: "Bletchley Ltd", InDays: 9, Time: "16:30", Plan: "Enterprise"},
	}

	for _, m := range messages {
		receipt, err := service.SubmitMessage(ctx, submissions.MessageRequest{
			FullName: m.Name,
			Email:    m.Email,
			Subject:  m.Subject,
			Body:     m.Body,
			Plan:     m.Plan,
		})
		if err != nil {
			log.Fatalf("seed message %s: %v", m.Email, err)
		}
		logger.Info("seed: message created", slog.String("submission_id", receipt.ID))
	}

	today := time.Now().In(cfg.Timezone)
	for _, b := range bookings {
		receipt, err := service.SubmitBooking(ctx, submissions.BookingRequest{
			FullName: b.Name,
			Email:    b.Email,
			Company:  b.Company,
			Date:     today.AddDate(0, 0, b.InDays).Format("2006-01-02"),
			Time:     b.Time,
			Notes:    b.Notes,
			Plan:     b.Plan,
		})
		if err != nil {
			log.Fatalf("seed booking %s: %v", b.Email, err)
		}
		logger.Info("seed: booking created", slog.String("submission_id", receipt.ID))
	}

	logger.Info("seed: done", slog.Int("messages", len(messages)), slog.Int("bookings", len(bookings)))
}
