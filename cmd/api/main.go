package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/AliShamas2000/codelance-web-v2-sub000/internal/api/router"
	"github.com/AliShamas2000/codelance-web-v2-sub000/internal/appointments"
	"github.com/AliShamas2000/codelance-web-v2-sub000/internal/availability"
	"github.com/AliShamas2000/codelance-web-v2-sub000/internal/booking"
	appconfig "github.com/AliShamas2000/codelance-web-v2-sub000/internal/config"
	"github.com/AliShamas2000/codelance-web-v2-sub000/internal/http/handlers"
	"github.com/AliShamas2000/codelance-web-v2-sub000/internal/observability/metrics"
	"github.com/AliShamas2000/codelance-web-v2-sub000/internal/session"
	"github.com/AliShamas2000/codelance-web-v2-sub000/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"booking_api", cfg.BookingAPIBaseURL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)

	// One gateway per endpoint family; admin and barber credentials are
	// injected here, never read from ambient state at call time.
	gatewayOpts := []availability.Option{
		availability.WithDays(cfg.AvailabilityDays),
		availability.WithTimeout(cfg.BookingAPITimeout),
	}
	publicGateway := availability.NewClient(cfg.BookingAPIBaseURL, logger, gatewayOpts...)
	adminGateway := availability.NewAdminClient(cfg.BookingAPIBaseURL, cfg.BookingAPIAdminToken, logger, gatewayOpts...)
	barberGateway := availability.NewBarberClient(cfg.BookingAPIBaseURL, cfg.BookingAPIBarberToken, logger, gatewayOpts...)

	// The availability cache is optional; without Redis the gateways are
	// hit directly.
	var publicDates booking.Gateway = publicGateway
	var adminDates booking.Gateway = adminGateway
	var barberDates booking.Gateway = barberGateway
	if cfg.CacheEnabled {
		redisOpts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		rdb := redis.NewClient(redisOpts)
		publicDates = availability.NewCache(publicGateway, rdb, "public", cfg.CacheTTL, logger)
		adminDates = availability.NewCache(adminGateway, rdb, "admin", cfg.CacheTTL, logger)
		barberDates = availability.NewCache(barberGateway, rdb, "barber", cfg.CacheTTL, logger)
		logger.Info("availability cache enabled", "ttl", cfg.CacheTTL)
	}

	publicSubmit := appointments.NewClient(cfg.BookingAPIBaseURL, logger)
	adminSubmit := appointments.NewAdminClient(cfg.BookingAPIBaseURL, cfg.BookingAPIAdminToken, logger)
	barberSubmit := appointments.NewBarberClient(cfg.BookingAPIBaseURL, cfg.BookingAPIBarberToken, logger)

	sessions := session.NewStore(cfg.SessionIdleTTL, logger)
	sessions.StartJanitor(ctx, cfg.SessionSweepInt)

	publicBooking := handlers.NewBookingHandler(handlers.SurfacePublic, handlers.BookingDeps{
		Sessions:  sessions,
		Gateway:   publicDates,
		Catalog:   publicGateway,
		Submitter: publicSubmit,
		Logger:    logger,
		Metrics:   bookingMetrics,
	})
	adminBooking := handlers.NewBookingHandler(handlers.SurfaceAdmin, handlers.BookingDeps{
		Sessions:  sessions,
		Gateway:   adminDates,
		Catalog:   adminGateway,
		Submitter: adminSubmit,
		Records:   adminSubmit,
		Logger:    logger,
		Metrics:   bookingMetrics,
	})
	barberBooking := handlers.NewBookingHandler(handlers.SurfaceBarber, handlers.BookingDeps{
		Sessions:  sessions,
		Gateway:   barberDates,
		Catalog:   barberGateway,
		Submitter: barberSubmit,
		Logger:    logger,
		Metrics:   bookingMetrics,
	})

	r := router.New(ctx, &router.Config{
		Logger:               logger,
		PublicBooking:        publicBooking,
		AdminBooking:         adminBooking,
		BarberBooking:        barberBooking,
		AdminJWTSecret:       cfg.AdminJWTSecret,
		BarberJWTSecret:      cfg.BarberJWTSecret,
		MetricsHandler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		PublicRateLimit:      5,
		PublicRateLimitBurst: 20,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
