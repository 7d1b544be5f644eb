package router

import (
	"net/http"

	"carsapp-api/internal/handler"
	"carsapp-api/internal/metrics"
	"carsapp-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler        *handler.Handler
	UserHandler    *handler.UserHandler
	CarHandler     *handler.CarHandler
	AdminHandler   *handler.AdminHandler
	AuthMiddleware func(http.Handler) http.Handler
	LoginLimiter   *middleware.RateLimiter
	Metrics        *metrics.Metrics
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Login-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authed := func(h http.HandlerFunc) http.Handler {
		if cfg.AuthMiddleware == nil {
			return h
		}
		return cfg.AuthMiddleware(h)
	}
	limited := func(h http.HandlerFunc) http.Handler {
		if cfg.LoginLimiter == nil {
			return h
		}
		return cfg.LoginLimiter.Middleware(h)
	}

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
		r.Get("/health", cfg.Handler.Health)
		r.Get("/ready", cfg.Handler.Ready)
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	if cfg.UserHandler != nil {
		r.Get("/users", cfg.UserHandler.List)
		r.Method(http.MethodPost, "/users/register", limited(cfg.UserHandler.Register))
		r.Method(http.MethodPost, "/users/login", limited(cfg.UserHandler.Login))
		r.Post("/logout", cfg.UserHandler.Logout)

		r.Method(http.MethodGet, "/user/profile", authed(cfg.UserHandler.Profile))
		r.Method(http.MethodGet, "/user/selling-cars", authed(cfg.UserHandler.SellingCars))
	}

	if cfg.CarHandler != nil {
		r.Route("/cars", func(r chi.Router) {
			r.Get("/", cfg.CarHandler.List)
			// Static segment wins over {id} in chi regardless of order.
			r.Get("/search", cfg.CarHandler.Search)
			r.Method(http.MethodPost, "/", authed(cfg.CarHandler.Create))
			r.Method(http.MethodGet, "/{id}", authed(cfg.CarHandler.Get))
			r.Method(http.MethodDelete, "/{id}", authed(cfg.CarHandler.Delete))
		})

		r.Method(http.MethodPost, "/users/favorites", authed(cfg.CarHandler.AddFavorite))
		r.Method(http.MethodGet, "/users/favoriteCars", authed(cfg.CarHandler.Favorites))
		r.Method(http.MethodDelete, "/users/favorites/{id}", authed(cfg.CarHandler.RemoveFavorite))
	}

	// Admin endpoints
	if cfg.AdminHandler != nil {
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(cfg.AdminHandler.RequireLoginKey)
			r.Get("/stats", cfg.AdminHandler.GetStats)
		})
	}

	return r
}
