// Package middleware provides HTTP middleware for the coordinator API.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/luchenqun/lucky-dog/pkg/coordinator/api/handlers"
)

// TokenHeader is the dedicated single-token header, accepted
// identically to "Authorization: Bearer <token>".
const TokenHeader = "X-Api-Token"

// extractToken pulls the presented secret from either the Bearer
// Authorization header or the dedicated token header.
func extractToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1], true
		}
	}
	if token := r.Header.Get(TokenHeader); token != "" {
		return token, true
	}
	return "", false
}

// TokenAuth guards mutating endpoints with the shared API secret.
//
// Fail-closed: when no secret is configured every request is rejected
// with an explicit diagnostic rather than silently allowed. A missing
// token is 401, a mismatched one 403.
func TokenAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				handlers.Unauthorized(w, "token required but not configured")
				return
			}

			presented, ok := extractToken(r)
			if !ok {
				handlers.Unauthorized(w, "authorization token required")
				return
			}

			if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
				handlers.Forbidden(w, "invalid token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
