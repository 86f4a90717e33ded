package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
	"github.com/lifecompass/finance-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type contextKey string

const userIDKey contextKey = "userID"

// JWTAuthMiddleware validates Bearer tokens and injects the user ID into context.
// The token subject must match the {userId} URL parameter.
func JWTAuthMiddleware(authSvc *service.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			claims, err := authSvc.ValidateAccessToken(tokenString)
			if err != nil {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				handleServiceError(w, err, logger)
				return
			}

			if userID := chi.URLParam(r, "userId"); userID != claims.Subject {
				handleServiceError(w, &domain.ErrForbidden{Action: "access records of another user"}, logger)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}
