package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopboard/shopboard-backend/internal/auth"
	"github.com/shopboard/shopboard-backend/internal/board/events"
	"github.com/shopboard/shopboard-backend/internal/board/handler"
	"github.com/shopboard/shopboard-backend/internal/board/repository"
	"github.com/shopboard/shopboard-backend/internal/board/service"
	"github.com/shopboard/shopboard-backend/pkg/config"
	"github.com/shopboard/shopboard-backend/pkg/database"
	"github.com/shopboard/shopboard-backend/pkg/httputil"
	"github.com/shopboard/shopboard-backend/pkg/logger"
	"github.com/shopboard/shopboard-backend/pkg/messaging"
	"github.com/shopboard/shopboard-backend/pkg/principal"
	"github.com/shopboard/shopboard-backend/pkg/ratelimit"
)

func main() {
	// Load and validate configuration; refuse to start on weak secrets
	cfg, err := config.LoadWithValidation("board-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("board-service", cfg.Server.Environment)
	log.Info().Msg("starting Board Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ when configured; an empty URL runs the service
	// without event publishing.
	publisher := events.Disabled(log)
	var rmq *messaging.RabbitMQ
	if cfg.RabbitMQ.URL != "" {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewBoardEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	} else {
		log.Warn().Msg("RabbitMQ URL not set, event publishing disabled")
	}

	// Shop timezone for day windows; validated at config load
	dayBoundary, err := time.LoadLocation(cfg.Board.DayBoundaryTZ)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid day boundary timezone")
	}

	// Initialize repository
	appointmentRepo := repository.NewAppointmentRepository(db, dayBoundary, cfg.Board.ServiceSummaryMaxLen)

	// Per-actor move rate limiter
	moveLimiter := ratelimit.New(cfg.RateLimit.MoveBurst, cfg.RateLimit.MoveSustained)

	// Initialize service
	boardService := service.NewBoardService(appointmentRepo, publisher, moveLimiter, dayBoundary, log)

	// Initialize handlers
	boardHandler := handler.NewBoardHandler(boardService, log)
	dashboardHandler := handler.NewDashboardHandler(boardService, log)
	appointmentHandler := handler.NewAppointmentHandler(boardService, log)

	// Credential verification
	authManager := auth.NewManager(&cfg.JWT)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(httputil.RequestDeadline(cfg.Server.RequestDeadline()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Tenant-Id", "X-Request-Id", "X-CSRF-Token"},
		ExposedHeaders:   []string{"ETag", "Retry-After", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Liveness probe: no auth, no tenant, no envelope
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Readiness with dependency detail
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		health := map[string]interface{}{
			"status":   "healthy",
			"service":  "board-service",
			"database": db.Health(req.Context()),
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, req, http.StatusOK, health)
	})

	staffRoles := []principal.Role{
		principal.RoleOwner,
		principal.RoleAdvisor,
		principal.RoleTechnician,
		principal.RoleAccountant,
	}
	moveRoles := []principal.Role{
		principal.RoleOwner,
		principal.RoleAdvisor,
		principal.RoleTechnician,
	}

	// Tenant-scoped API
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authManager.Authenticator)
		r.Use(auth.ResolveTenant)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(staffRoles...))

			r.Get("/appointments/board", boardHandler.GetBoard)
			r.Get("/dashboard/stats", dashboardHandler.GetStats)
			r.Get("/appointments", appointmentHandler.List)
			r.Get("/appointments/{id}", appointmentHandler.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(moveRoles...))

			r.Patch("/appointments/{id}/move", appointmentHandler.Move)
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
