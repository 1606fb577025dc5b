package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/legphel-eats/fnb-dashboard/internal/auth"
	"github.com/legphel-eats/fnb-dashboard/internal/config"
	"github.com/legphel-eats/fnb-dashboard/internal/dashboard"
	"github.com/legphel-eats/fnb-dashboard/internal/handler"
	mw "github.com/legphel-eats/fnb-dashboard/internal/middleware"
	"github.com/legphel-eats/fnb-dashboard/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, dash *dashboard.Dashboard, hub *ws.Hub, operators []auth.Operator, gatherer prometheus.Gatherer) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(cfg.JWTSecret, operators...)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	billsHandler := handler.NewBillsHandler(dash, dashboard.NewConfirmations(dashboard.DefaultConfirmTTL))

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(mw.DashboardRoles...))

			billsHandler.RegisterRoutes(r)

			analyticsHandler := handler.NewAnalyticsHandler(dash)
			r.Route("/analytics", analyticsHandler.RegisterRoutes)

			exportHandler := handler.NewExportHandler(dash, hub)
			r.Route("/export", exportHandler.RegisterRoutes)
		})

		// Owner-only destructive routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireOwner)
			billsHandler.RegisterDeleteRoutes(r)
		})
	})

	slog.Info("Router initialized with all handlers")
	return r
}
