package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	// Booking collaborator (availability + appointment endpoints)
	BookingAPIBaseURL     string
	BookingAPITimeout     time.Duration
	BookingAPIAdminToken  string
	BookingAPIBarberToken string
	AvailabilityDays      int

	// Auth for the admin and barber endpoint families
	AdminJWTSecret  string
	BarberJWTSecret string

	// Availability response cache
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	CacheTTL      time.Duration
	CacheEnabled  bool

	// Booking session lifecycle
	SessionIdleTTL  time.Duration
	SessionSweepInt time.Duration

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		BookingAPIBaseURL:     getEnv("BOOKING_API_BASE_URL", "http://localhost:8000/api"),
		BookingAPITimeout:     getEnvAsDuration("BOOKING_API_TIMEOUT", 20*time.Second),
		BookingAPIAdminToken:  getEnv("BOOKING_API_ADMIN_TOKEN", ""),
		BookingAPIBarberToken: getEnv("BOOKING_API_BARBER_TOKEN", ""),
		AvailabilityDays:      getEnvAsInt("AVAILABILITY_DAYS", 60),

		AdminJWTSecret:  getEnv("ADMIN_JWT_SECRET", ""),
		BarberJWTSecret: getEnv("BARBER_JWT_SECRET", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		CacheTTL:      getEnvAsDuration("AVAILABILITY_CACHE_TTL", 30*time.Second),
		CacheEnabled:  getEnvAsBool("AVAILABILITY_CACHE_ENABLED", false),

		SessionIdleTTL:  getEnvAsDuration("BOOKING_SESSION_IDLE_TTL", 30*time.Minute),
		SessionSweepInt: getEnvAsDuration("BOOKING_SESSION_SWEEP_INTERVAL", 5*time.Minute),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
