package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Dias221467/Saviya_Learn/internal/authz"
	jwtutil "github.com/Dias221467/Saviya_Learn/pkg/jwt"
	"github.com/sirupsen/logrus"
)

type contextKey string

// UserContextKey holds the *jwtutil.Claims of the authenticated caller.
const UserContextKey contextKey = "user"

// WithUser returns a copy of ctx carrying claims.
func WithUser(ctx context.Context, claims *jwtutil.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// GetUserFromContext returns the caller's claims, or nil for anonymous
// requests.
func GetUserFromContext(ctx context.Context) *jwtutil.Claims {
	claims, _ := ctx.Value(UserContextKey).(*jwtutil.Claims)
	return claims
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "No token provided.")
				return
			}
			claims, err := jwtutil.ValidateToken(token, secret)
			if err != nil {
				logrus.WithField("path", r.URL.Path).Debug("Rejected invalid token")
				writeError(w, http.StatusUnauthorized, "Invalid token.")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims)))
		})
	}
}

// OptionalAuth attaches the caller's claims when a valid bearer token is
// present and lets anonymous requests through.
func OptionalAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				if claims, err := jwtutil.ValidateToken(token, secret); err == nil {
					r = r.WithContext(WithUser(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCapability allows only callers whose platform role holds c.
// It must run after AuthMiddleware.
func RequireCapability(c authz.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r.Context())
			if claims == nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if !authz.Can(claims.Role, c) {
				writeError(w, http.StatusForbidden, "Admin access required.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is the admin gate: admin and superadmin pass.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireCapability(authz.AccessAdmin)
}
