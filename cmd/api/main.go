package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-backend/internal/auth"
	"portfolio-backend/internal/bootstrap"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/logging"
	"portfolio-backend/internal/metrics"
	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/notifications"
	"portfolio-backend/internal/submissions"
	"portfolio-backend/internal/validation"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	backend, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("store open failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer backend.Close()
	logger.Info("store ready", slog.String("backend", backend.Name))

	var tokens *auth.Manager
	if cfg.JWTSecret != "" {
		tokens = auth.NewManager(
			cfg.JWTSecret,
			time.Duration(cfg.AccessTTLMinutes)*time.Minute,
			time.Duration(cfg.RefreshTTLMinutes)*time.Minute,
			"portfolio-backend",
		)
	}
	gate := &auth.Gate{AdminKey: cfg.AdminAPIKey, Tokens: tokens}
	if !gate.Configured() {
		logger.Warn("admin auth not configured, admin routes will reject every request")
	}

	notifier := notifications.FromConfig(cfg)
	if notifier == nil {
		logger.Info("operator notifications disabled")
	} else {
		logger.Info("operator notifications enabled", slog.String("to", cfg.NotifyEmail))
	}

	m := metrics.New()
	val := validation.New(cfg.Timezone)

	opts := []submissions.Option{
		submissions.WithCache(backend.Cache, time.Duration(cfg.CacheTTLSeconds)*time.Second),
		submissions.WithMetrics(m),
	}
	if notifier != nil {
		opts = append(opts, submissions.WithNotifier(notifier))
	}
	service := submissions.NewService(backend.Store, val, opts...)
	submissionHandler := submissions.NewHandler(service, logger, !cfg.IsProduction())

	server := &handlers.Server{
		Cfg:    cfg,
		Val:    val,
		Log:    logger,
		Tokens: tokens,
		Creds: auth.Credentials{
			User:     cfg.AdminUser,
			Password: cfg.AdminPassword,
			Hash:     cfg.AdminPasswordHash,
		},
		Store: service,
	}

	loginGuard := middleware.NewLoginGuard(
		cfg.LoginMaxAttempts,
		time.Duration(cfg.LoginWindowSec)*time.Second,
		time.Duration(cfg.LoginLockoutSec)*time.Second,
	)
	if backend.Redis != nil {
		loginGuard.WithRedis(backend.Redis, "portfolio:login:")
	}
	submit := http.HandlerFunc(submissionHandler.Create)
	var submitHandler http.Handler = submit
	if cfg.SubmissionThrottle {
		submitHandler = middleware.NewThrottle(cfg.SubmissionRatePerMin, cfg.SubmissionBurst).Middleware(submit)
		logger.Info("submission throttle enabled", slog.Int("per_min", cfg.SubmissionRatePerMin), slog.Int("burst", cfg.SubmissionBurst))
	}

	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger, m))
	r.Use(middleware.CORS(cfg.FrontendOrigins))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", server.Health)
	r.Handle("/metrics", m.Handler())

	registerRoutes := func(api chi.Router) {
		api.Method(http.MethodPost, "/submissions", submitHandler)
		api.Get("/submissions/schema", submissionHandler.Schema)
		api.Get("/slots", server.Slots)

		api.Route("/admin", func(admin chi.Router) {
			admin.With(loginGuard.Middleware).Post("/login", server.AdminLogin)
			admin.Post("/refresh", server.AdminRefresh)
			admin.Post("/logout", server.AdminLogout)

			admin.Group(func(protected chi.Router) {
				protected.Use(middleware.AdminAuth(gate, logger))
				protected.Get("/submissions", submissionHandler.AdminList)
				protected.Get("/submissions/{id}", submissionHandler.AdminGet)
				protected.Patch("/submissions", submissionHandler.AdminPatch)
				protected.Patch("/submissions/{id}", submissionHandler.AdminPatch)
			})
		})
	}

	r.Route("/api", registerRoutes)
	r.Route("/api/v1", registerRoutes)

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}
