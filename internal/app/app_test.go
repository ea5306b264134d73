package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redops/internal/config"
	"redops/internal/domain"
)

func TestOpenRestoresSessionAndLoadsStores(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Authorization", "Bearer "+token)
		_ = json.NewEncoder(w).Encode(domain.User{ID: "u-1", Username: "alice", Role: domain.RoleAdmin})
	})
	list := func(v any) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(v)
		}
	}
	mux.HandleFunc("GET /operations", list([]domain.Operation{{ID: "op-1"}}))
	mux.HandleFunc("GET /tasks", list([]domain.Task{{ID: "t-1"}, {ID: "t-2"}}))
	mux.HandleFunc("GET /tools", list([]domain.Tool{}))
	mux.HandleFunc("GET /users", list([]domain.User{{ID: "u-1"}}))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.Default()
	cfg.API.URL = srv.URL
	workspace := t.TempDir()
	ctx := context.Background()

	first, err := Open(ctx, workspace, cfg, nil)
	require.NoError(t, err)
	_, err = first.Session.Login(ctx, domain.Credentials{Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(ctx, workspace, cfg, nil)
	require.NoError(t, err)
	defer second.Close()
	require.True(t, second.Session.IsAuthenticated())

	require.NoError(t, second.LoadAll(ctx))
	assert.Len(t, second.Operations.State().Items, 1)
	assert.Len(t, second.Tasks.State().Items, 2)
	assert.Len(t, second.Users.State().Items, 1)
	assert.Empty(t, second.Tools.State().Items)
}

func TestLoadAllKeepsFailuresPerStore(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"insufficient role"}`))
	})
	mux.HandleFunc("GET /operations", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_ = json.NewEncoder(w).Encode([]domain.Operation{{ID: "op-1"}})
	})
	mux.HandleFunc("GET /tasks", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]domain.Task{{ID: "t-1"}})
	})
	mux.HandleFunc("GET /tools", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]domain.Tool{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.Default()
	cfg.API.URL = srv.URL
	a, err := Open(context.Background(), t.TempDir(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	err = a.LoadAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient role")

	ops := a.Operations.State()
	assert.Empty(t, ops.Err)
	assert.Len(t, ops.Items, 1)
	assert.Empty(t, a.Tasks.State().Err)
	assert.Len(t, a.Tasks.State().Items, 1)
	assert.Contains(t, a.Users.State().Err, "insufficient role")
}
