package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpggio/scopeguard/internal/repository"
	"github.com/stretchr/testify/require"
)

type testResolver struct {
	tokenToUser map[string]string
	err         error
}

func (r *testResolver) ResolveUser(_ context.Context, token string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	user, ok := r.tokenToUser[token]
	if !ok {
		return "", ErrUnauthorized
	}
	return user, nil
}

func TestAuthMiddleware(t *testing.T) {
	resolver := &testResolver{tokenToUser: map[string]string{"token": "user1"}}

	handler := AuthMiddleware(resolver, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "user1", userID)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		resolver *testResolver
	}{
		{name: "missing header", header: "", resolver: &testResolver{}},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", resolver: &testResolver{}},
		{name: "empty token", header: "Bearer   ", resolver: &testResolver{}},
		{name: "unknown token", header: "Bearer nope", resolver: &testResolver{tokenToUser: map[string]string{}}},
		{name: "revoked token", header: "Bearer token", resolver: &testResolver{err: fmt.Errorf("lookup: %w", repository.ErrNotFound)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := AuthMiddleware(tt.resolver, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.False(t, called)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			var body ErrorBody
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			require.Equal(t, "UNAUTHORIZED", body.Code)
		})
	}
}

func TestAuthMiddleware_StoreFailureIsInternal(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	resolver := &testResolver{err: errors.New("database is locked")}

	called := false
	handler := AuthMiddleware(resolver, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.False(t, called)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "INTERNAL", body.Code)
	require.NotContains(t, body.Error, "locked")
	require.Contains(t, logs.String(), "database is locked")
}

func TestStaticUserMiddleware(t *testing.T) {
	handler := StaticUserMiddleware("local")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "local", userID)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestUserFromContext_Empty(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	require.False(t, ok)

	_, ok = UserFromContext(WithUser(context.Background(), ""))
	require.False(t, ok)
}
