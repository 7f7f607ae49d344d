package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{}

var userIDKey contextKey

// UserID returns the authenticated user id stored in the request context, or
// 0 when the request was not authenticated.
func UserID(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

// WithUserID returns a context carrying the authenticated user id. Exposed
// for handler tests.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Middleware rejects requests without a valid bearer token and stores the
// token's user id in the request context.
func Middleware(tokens *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, `{"error":"missing or malformed authorization header"}`, http.StatusUnauthorized)
				return
			}
			userID, err := tokens.Verify(token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
