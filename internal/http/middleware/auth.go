package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	adminClaimsKey  contextKey = "adminClaims"
	barberClaimsKey contextKey = "barberClaims"
)

// BarberClaims carries the authenticated barber's identity. The staff
// surface pins its bookings to this id.
type BarberClaims struct {
	BarberID int `json:"barber_id"`
	jwt.RegisteredClaims
}

// AdminJWT enforces a simple HMAC-signed JWT for the admin endpoint family.
func AdminJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "admin auth disabled", http.StatusUnauthorized)
				return
			}
			tokenString, ok := bearerToken(r)
			if !ok {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			claims := jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, hmacKeyFunc(secret))
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), adminClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BarberJWT enforces an HMAC-signed JWT carrying a barber_id claim for the
// staff endpoint family.
func BarberJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "barber auth disabled", http.StatusUnauthorized)
				return
			}
			tokenString, ok := bearerToken(r)
			if !ok {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			claims := BarberClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, hmacKeyFunc(secret))
			if err != nil || !token.Valid || claims.BarberID <= 0 {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), barberClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminClaimsFromContext returns admin JWT claims if present.
func AdminClaimsFromContext(ctx context.Context) (jwt.RegisteredClaims, bool) {
	claims, ok := ctx.Value(adminClaimsKey).(jwt.RegisteredClaims)
	return claims, ok
}

// WithBarberID injects a barber identity directly, bypassing the JWT layer.
// Used by tests and in-process callers that already know who they are.
func WithBarberID(ctx context.Context, barberID int) context.Context {
	return context.WithValue(ctx, barberClaimsKey, BarberClaims{BarberID: barberID})
}

// BarberIDFromContext returns the authenticated barber id, or 0.
func BarberIDFromContext(ctx context.Context) int {
	claims, ok := ctx.Value(barberClaimsKey).(BarberClaims)
	if !ok {
		return 0
	}
	return claims.BarberID
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(auth, "Bearer "), true
}

func hmacKeyFunc(secret string) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}
}
