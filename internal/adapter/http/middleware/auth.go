package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/finlay-davidson/flog-it/internal/adapter/auth"
	"github.com/finlay-davidson/flog-it/internal/listing/domain"
	"github.com/finlay-davidson/flog-it/internal/platform/logger"
)

// TokenVerifier resolves a bearer token to the caller's identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}

// Auth rejects requests without a valid "Authorization: Bearer <token>"
// header and stores the caller's identity in the request context.
func Auth(verifier TokenVerifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, http.StatusUnauthorized, "Missing auth header")
				return
			}

			parts := strings.Fields(header)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				log.Debug("Auth: malformed authorization header", zap.String("path", r.URL.Path))
				unauthorized(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			identity, err := verifier.Verify(r.Context(), parts[1])
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					log.Debug("Auth: token rejected", zap.String("path", r.URL.Path), zap.Error(err))
					unauthorized(w, http.StatusUnauthorized, "Invalid token")
					return
				}
				log.Error("Auth: token verification failed", zap.String("path", r.URL.Path), zap.Error(err))
				unauthorized(w, http.StatusInternalServerError, "Failed to verify token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func unauthorized(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
