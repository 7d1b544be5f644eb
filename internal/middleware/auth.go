package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"carsapp-api/internal/metrics"
	"carsapp-api/internal/model"
	"carsapp-api/internal/service"
	"carsapp-api/pkg/apierror"
	"carsapp-api/pkg/response"
)

// IdentityKey is the key for storing the caller's identity in request context.
const IdentityKey contextKey = "identity"

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(token string) (model.Identity, error)
}

// RevocationChecker reports whether a token has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Tokens      TokenVerifier
	Revocations RevocationChecker
	Metrics     *metrics.Metrics
}

// NewAuthMiddleware creates the access guard for protected routes.
//
// No Authorization header is a 401. A header that does not carry a bearer
// token, a token that fails verification, and a revoked token are all 403.
// If the revocation list cannot be consulted the request is refused.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				cfg.Metrics.GuardDecision(metrics.GuardMissingHeader)
				response.Error(w, apierror.Unauthorized("Authentication required"))
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				cfg.Metrics.GuardDecision(metrics.GuardMalformedHeader)
				response.Error(w, apierror.Forbidden("Invalid or expired token"))
				return
			}

			identity, err := cfg.Tokens.Verify(token)
			if err != nil {
				cfg.Metrics.GuardDecision(metrics.GuardInvalidToken)
				response.Error(w, apierror.Forbidden("Invalid or expired token"))
				return
			}

			revoked, err := cfg.Revocations.IsRevoked(r.Context(), token)
			if err != nil {
				log.Printf("[AuthMiddleware] Revocation check failed (request_id=%s): %v", GetRequestID(r.Context()), err)
				cfg.Metrics.GuardDecision(metrics.GuardError)
				response.Error(w, apierror.InternalError(""))
				return
			}
			if revoked {
				cfg.Metrics.GuardDecision(metrics.GuardRevoked)
				response.Error(w, apierror.Forbidden("Invalid or expired token"))
				return
			}

			cfg.Metrics.GuardDecision(metrics.GuardAllowed)
			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// GetIdentityFromContext retrieves the caller's identity from request context.
func GetIdentityFromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(model.Identity)
	return id, ok
}

// Ensure the concrete services satisfy the guard's interfaces.
var (
	_ TokenVerifier     = (*service.TokenService)(nil)
	_ RevocationChecker = (*service.RevocationList)(nil)
)
