package api

import (
	"net/http"

	"github.com/dom/account-market/internal/api/handlers"
	"github.com/dom/account-market/internal/api/middleware"
	"github.com/dom/account-market/internal/config"
	"github.com/dom/account-market/internal/logger"
	"github.com/dom/account-market/internal/repository"
	"github.com/dom/account-market/internal/service"
	"github.com/dom/account-market/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(services *service.Services, hub *websocket.Hub, store repository.Pinger, cfg *config.Config, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(logger.RequestLogger(log.With(zap.String("component", "http"))))
	r.Use(chiMiddleware.Recoverer)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(store, log)
	authHandler := handlers.NewAuthHandler(services.Auth, cfg, log)
	listingHandler := handlers.NewListingHandler(services.Listing, log)
	feedHandler := handlers.NewFeedHandler(hub, log)

	requireSession := middleware.Auth(services.Auth, cfg.SessionCookieName, cfg.LoginPage, log)

	r.Get("/health", healthHandler.Check)

	// Public auth routes
	r.Post("/login", authHandler.Login)

	// Protected auth routes
	r.Group(func(r chi.Router) {
		r.Use(requireSession)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// Listing routes, guarded unless the deployment opts out
	r.Group(func(r chi.Router) {
		if cfg.RequireAuth {
			r.Use(requireSession)
		}

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", listingHandler.List)
			r.Post("/", listingHandler.Create)
			r.Delete("/{id}", listingHandler.Delete)
		})

		r.Get("/ws/listings", feedHandler.Handle)
	})

	return r
}
