package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	jwtutil "github.com/n8nhub/community_hub/pkg/jwt"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/sirupsen/logrus"
)

type contextKey string

const userContextKey contextKey = "user"

// AuthMiddleware rejects requests without a valid bearer token and stores
// the token claims in the request context.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
				writeError(w, http.StatusUnauthorized, "Sessão inválida. Faça login novamente.")
				return
			}

			claims, err := jwtutil.ValidateToken(strings.TrimSpace(header[7:]), jwtSecret)
			if err != nil {
				logger.Log.WithError(err).Warn("Invalid token")
				writeError(w, http.StatusUnauthorized, "Sessão inválida. Faça login novamente.")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims)))
		})
	}
}

// WithUser returns a copy of ctx carrying claims.
func WithUser(ctx context.Context, claims *jwtutil.Claims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

// GetUserFromContext returns the claims stored by AuthMiddleware, or nil.
func GetUserFromContext(ctx context.Context) *jwtutil.Claims {
	claims, _ := ctx.Value(userContextKey).(*jwtutil.Claims)
	return claims
}

// RoleChecker answers whether a user holds a role.
type RoleChecker interface {
	HasAnyRole(ctx context.Context, userID string, roles ...string) (bool, error)
}

// RequireRole lets the request through when the user holds any of roles.
func RequireRole(checker RoleChecker, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r.Context())
			if claims == nil {
				writeError(w, http.StatusUnauthorized, "Sessão inválida. Faça login novamente.")
				return
			}

			ok, err := checker.HasAnyRole(r.Context(), claims.UserID, roles...)
			if err != nil {
				logger.Log.WithError(err).WithField("user_id", claims.UserID).Error("Role check failed")
				writeError(w, http.StatusInternalServerError, "Não foi possível verificar suas permissões.")
				return
			}
			if !ok {
				logger.Log.WithFields(logrus.Fields{
					"user_id": claims.UserID,
					"roles":   roles,
				}).Warn("Forbidden: missing role")
				writeError(w, http.StatusForbidden, "Você não tem permissão para esta ação.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
