package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/alertbridge/internal/api/alerts"
	"github.com/good-yellow-bee/alertbridge/internal/api/auth"
	"github.com/good-yellow-bee/alertbridge/internal/api/middleware"
	"github.com/good-yellow-bee/alertbridge/internal/api/phones"
	"github.com/good-yellow-bee/alertbridge/internal/api/respond"
	"github.com/good-yellow-bee/alertbridge/internal/api/whatsapp"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Create JWT service
	jwtService := auth.NewJWTService(s.config.JWTSecret, s.config.AccessTokenTTL)

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.PrometheusMiddleware)

	authHandler := auth.NewHandler(auth.Credentials{
		Username: s.config.Username,
		Password: s.config.Password,
	}, jwtService)
	alertHandler := alerts.NewHandler(s.processor, s.alertLog, s.config.Development)
	gatewayHandler := whatsapp.NewHandler(s.gateway, s.config.Development)
	phoneHandler := phones.NewHandler(s.directory)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", authHandler.Login)

		// Alert ingestion stays open: the monitoring system posts
		// without a session.
		r.Route("/alerta", func(r chi.Router) {
			r.Post("/", alertHandler.Create)
			r.Get("/", alertHandler.List)
		})
		r.Get("/logs", alertHandler.Logs)

		r.Route("/whatsapp", func(r chi.Router) {
			r.Get("/status", gatewayHandler.Status)

			// Pairing and direct sends are dashboard operations.
			r.Group(func(r chi.Router) {
				r.Use(middleware.JWTAuth(jwtService))
				r.Get("/qr", gatewayHandler.QR)
				r.Post("/send", gatewayHandler.Send)
			})
		})

		r.Route("/phones", func(r chi.Router) {
			r.Get("/", phoneHandler.List)

			// Mutations require the dashboard JWT.
			r.Group(func(r chi.Router) {
				r.Use(middleware.JWTAuth(jwtService))
				r.Post("/", phoneHandler.Add)
				r.Delete("/{severity}/{phone}", phoneHandler.Remove)
			})
		})
	})

	// Health check (public)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.OK(w, map[string]string{"status": "ok"})
	})

	return r
}
