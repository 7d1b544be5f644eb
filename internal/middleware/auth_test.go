package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carsapp-api/internal/cache"
	"carsapp-api/internal/model"
	"carsapp-api/internal/service"
)

type stubVerifier struct {
	err error
}

func (v stubVerifier) Verify(string) (model.Identity, error) {
	return model.Identity{}, v.err
}

type failingRevocations struct{}

func (failingRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("store down")
}

func newGuard(t *testing.T) (*service.TokenService, *service.RevocationList, http.Handler, *model.Identity) {
	t.Helper()

	tokens, err := service.NewTokenService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	revocations := service.NewRevocationList(tokens, cache.NewMemoryCache())

	seen := &model.Identity{}
	guard := NewAuthMiddleware(AuthConfig{Tokens: tokens, Revocations: revocations})
	h := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetIdentityFromContext(r.Context())
		if !ok {
			t.Error("identity missing from context")
		}
		*seen = id
		w.WriteHeader(http.StatusOK)
	}))
	return tokens, revocations, h, seen
}

func serve(h http.Handler, authorization string) int {
	req := httptest.NewRequest(http.MethodGet, "/user/profile", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestAuthMiddleware(t *testing.T) {
	tokens, _, h, _ := newGuard(t)
	valid, err := tokens.Issue("abc123")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"garbage token", "Bearer garbage", http.StatusForbidden},
		{"missing token segment", "Bearer", http.StatusForbidden},
		{"wrong scheme", "Basic " + valid, http.StatusForbidden},
		{"extra segment", "Bearer " + valid + " extra", http.StatusForbidden},
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "bearer " + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serve(h, tt.header); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAuthMiddleware_AttachesIdentity(t *testing.T) {
	tokens, _, h, seen := newGuard(t)
	token, _ := tokens.Issue("abc123")

	if got := serve(h, "Bearer "+token); got != http.StatusOK {
		t.Fatalf("status = %d", got)
	}
	if seen.UserID != "abc123" {
		t.Errorf("downstream saw userId %q, want abc123", seen.UserID)
	}
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	tokens, revocations, h, _ := newGuard(t)
	token, _ := tokens.Issue("abc123")

	if got := serve(h, "Bearer "+token); got != http.StatusOK {
		t.Fatalf("before logout: status = %d", got)
	}
	if err := revocations.Revoke(context.Background(), token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if got := serve(h, "Bearer "+token); got != http.StatusForbidden {
		t.Errorf("after logout: status = %d, want 403", got)
	}
}

func TestAuthMiddleware_ExpiredAndForgedLookTheSame(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	for _, err := range []error{service.ErrInvalidToken, errors.New("signature is invalid")} {
		guard := NewAuthMiddleware(AuthConfig{
			Tokens:      stubVerifier{err: err},
			Revocations: failingRevocations{},
		})
		if got := serve(guard(next), "Bearer whatever"); got != http.StatusForbidden {
			t.Errorf("status = %d, want 403", got)
		}
	}
	if called {
		t.Error("next handler should not run")
	}
}

func TestAuthMiddleware_RevocationStoreFailure(t *testing.T) {
	tokens, err := service.NewTokenService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	token, _ := tokens.Issue("abc123")

	guard := NewAuthMiddleware(AuthConfig{Tokens: tokens, Revocations: failingRevocations{}})
	h := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not run")
	}))

	if got := serve(h, "Bearer "+token); got != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", got)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Bearer", "", false},
		{"abc", "", false},
		{"Token abc", "", false},
	}
	for _, tt := range tests {
		token, ok := bearerToken(tt.header)
		if token != tt.token || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, token, ok, tt.token, tt.ok)
		}
	}
}
