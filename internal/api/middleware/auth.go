package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
)

const bearerPrefix = "Bearer "

type TokenVerifier interface {
	VerifyToken(token string) (uuid.UUID, error)
}

// Auth rejects requests without an Authorization header with 403 and
// requests carrying an invalid token with 401. The verified user id is
// stored in the request context.
func Auth(verifier TokenVerifier, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("Authorization")
			if token == "" {
				deny(w, http.StatusForbidden, "Access denied")
				return
			}

			if strings.HasPrefix(token, bearerPrefix) {
				token = strings.TrimLeft(token[len(bearerPrefix):], " ")
			}

			userID, err := verifier.VerifyToken(token)
			if err != nil {
				log.WithError(err).Warn("ERROR [middleware.Auth] token validation failed")
				deny(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// WithUserID returns ctx carrying userID, as Auth would store it.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func deny(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
