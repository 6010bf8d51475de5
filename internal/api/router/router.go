package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/AliShamas2000/codelance-web-v2-sub000/internal/http/handlers"
	httpmiddleware "github.com/AliShamas2000/codelance-web-v2-sub000/internal/http/middleware"
	"github.com/AliShamas2000/codelance-web-v2-sub000/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger *logging.Logger

	// The three surface families share one handler implementation and
	// differ only in seeding and auth.
	PublicBooking *handlers.BookingHandler
	AdminBooking  *handlers.BookingHandler
	BarberBooking *handlers.BookingHandler

	AdminJWTSecret  string
	BarberJWTSecret string

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// PublicRateLimit caps anonymous booking traffic; zero disables.
	PublicRateLimit      float64
	PublicRateLimitBurst int
}

// New creates a new Chi router with all routes configured
func New(ctx context.Context, cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Public booking surface
	if cfg.PublicBooking != nil {
		r.Group(func(public chi.Router) {
			if cfg.PublicRateLimit > 0 {
				public.Use(httpmiddleware.RateLimit(ctx, cfg.PublicRateLimit, cfg.PublicRateLimitBurst))
			}
			public.Mount("/bookings", cfg.PublicBooking.Routes())
		})
	}

	// Admin surfaces (new slot + edit appointment)
	if cfg.AdminBooking != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))
			admin.Mount("/bookings", cfg.AdminBooking.Routes())
		})
	}

	// Staff self-service surface
	if cfg.BarberBooking != nil {
		r.Route("/barber", func(barber chi.Router) {
			barber.Use(httpmiddleware.BarberJWT(cfg.BarberJWTSecret))
			barber.Mount("/bookings", cfg.BarberBooking.Routes())
		})
	}

	return r
}
