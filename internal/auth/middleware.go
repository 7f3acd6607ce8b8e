package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/aegis-auth/aegis/internal/platform/httpx"
	"github.com/aegis-auth/aegis/internal/shared"
)

// Middleware wires bearer token verification for HTTP handlers.
type Middleware struct {
	Tokens *TokenIssuer
	Logger *slog.Logger
}

// RequireAuth verifies the Authorization bearer token and stores the caller
// identity in the request context. All failures respond 401 with the same
// problem body.
func (m Middleware) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
				return
			}
			claims, err := m.Tokens.Parse(raw)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Debug("reject bearer token", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid bearer token")
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid bearer token")
				return
			}
			identity := shared.Identity{UserID: userID, Email: claims.Email}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", false
	}
	return token, true
}
