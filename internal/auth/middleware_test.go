package auth_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aegis-auth/aegis/internal/auth"
	"github.com/aegis-auth/aegis/internal/shared"
	"github.com/aegis-auth/aegis/internal/users"
	_ "github.com/aegis-auth/aegis/testing"
)

func newProtectedRouter(t *testing.T) (http.Handler, *auth.TokenIssuer) {
	t.Helper()
	issuer, err := auth.NewTokenIssuer(handlerTestSecret, time.Hour)
	if err != nil {
		t.Fatalf("token issuer: %v", err)
	}
	mw := auth.Middleware{Tokens: issuer}

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuth())
		r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
			identity, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				t.Fatalf("identity missing from context")
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(strconv.FormatInt(identity.UserID, 10) + " " + identity.Email))
		})
	})
	return r, issuer
}

func getWithToken(router http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	router, issuer := newProtectedRouter(t)

	token, err := issuer.Issue(&users.User{ID: 9, Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	res := getWithToken(router, token)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if res.Body.String() != "9 alice@example.com" {
		t.Fatalf("unexpected identity echo %q", res.Body.String())
	}
}

func TestRequireAuthMissingHeader(t *testing.T) {
	router, _ := newProtectedRouter(t)

	res := getWithToken(router, "")
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestRequireAuthRejectsWrongScheme(t *testing.T) {
	router, _ := newProtectedRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestRequireAuthRejectsGarbageToken(t *testing.T) {
	router, _ := newProtectedRouter(t)

	res := getWithToken(router, "not-a-jwt")
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	router, _ := newProtectedRouter(t)

	expiredIssuer, err := auth.NewTokenIssuer(handlerTestSecret, time.Nanosecond)
	if err != nil {
		t.Fatalf("token issuer: %v", err)
	}
	token, err := expiredIssuer.Issue(&users.User{ID: 1, Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	res := getWithToken(router, token)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}
