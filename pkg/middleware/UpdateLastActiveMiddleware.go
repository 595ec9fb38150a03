package middleware

import (
	"context"
	"net/http"
)

// ActivityTracker records when a user was last seen.
type ActivityTracker interface {
	UpdateLastActive(ctx context.Context, userID string) error
}

func UpdateLastActiveMiddleware(tracker ActivityTracker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r.Context())
			if claims != nil {
				_ = tracker.UpdateLastActive(r.Context(), claims.UserID)
			}
			next.ServeHTTP(w, r)
		})
	}
}
