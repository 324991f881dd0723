package auth

import (
	"context"
	"net/http"
)

// Session validation lives in the upstream gateway; by the time a request
// reaches this service the caller's identity has been resolved into the
// X-User-ID header.

const userIDHeader = "X-User-ID"

type ctxKey struct{}

// Middleware rejects requests without a resolved identity and stores the
// user id in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userIDHeader)
		if userID == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID returns the authenticated user id, or "" when absent.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(ctxKey{}).(string)
	return userID
}
