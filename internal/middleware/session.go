package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/friendgraph/backend/internal/auth"
	"github.com/friendgraph/backend/internal/logging"
)

// TokenVerifier resolves a bearer access token to the user it was issued to.
type TokenVerifier interface {
	Verify(ctx context.Context, accessToken string) (string, error)
}

// RequireSession rejects requests without a valid bearer token and records
// the authenticated caller on the request context.
func RequireSession(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			if verifier == nil {
				logger.Error("token verifier unavailable")
				writeAuthError(w, http.StatusInternalServerError, "authentication unavailable")
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			userID, err := verifier.Verify(ctx, token)
			if err != nil {
				logger.Warn("rejected access token", "error", err)
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx = auth.WithUserID(ctx, userID)
			ctx = logging.With(ctx, "user_id", userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="friendgraph"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
