package redopssdk

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redops/internal/domain"
)

type memTokens struct {
	token string
}

func (m *memTokens) Token() string         { return m.token }
func (m *memTokens) SetToken(token string) { m.token = token }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestDoAttachesBearerAndStoresRefreshedToken(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		w.Header().Set("Authorization", "Bearer refreshed")
		writeJSON(w, http.StatusOK, []domain.Operation{{ID: "op-1", Name: "Falcon"}})
	}))
	defer srv.Close()

	tokens := &memTokens{token: "original"}
	c := New(srv.URL)
	c.Tokens = tokens

	ops, err := c.Operations().List(context.Background())
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "Bearer original", seen)
	assert.Equal(t, "refreshed", tokens.Token())
}

func TestDoMapsErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Operations().Create(context.Background(), domain.OperationDraft{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "name is required", apiErr.Message)
}

func TestUnauthorizedInvokesHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	}))
	defer srv.Close()

	var calls int32
	c := New(srv.URL)
	c.Tokens = &memTokens{token: "stale"}
	c.OnUnauthorized = func() { atomic.AddInt32(&calls, 1) }

	_, err := c.Tasks().List(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTimeoutIsANetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL)
	c.Timeout = 50 * time.Millisecond

	_, err := c.Users().List(context.Background())
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestConnectionRefusedIsNetworkError(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = New("http://" + addr).Tools().List(context.Background())
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	var timeoutErr *TimeoutError
	assert.False(t, errors.As(err, &timeoutErr))
}

func TestDeleteEscapesIdentifier(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL+"/api/").Tools().Delete(context.Background(), "a/b"))
	assert.Equal(t, "/api/tools/a%2Fb", path)
}

func TestLogin(t *testing.T) {
	principal := domain.User{ID: "u-1", Username: "alice", Email: "alice@example.com", Role: domain.RoleAdmin}

	t.Run("returns principal and token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			w.Header().Set("Authorization", "Bearer tok-123")
			writeJSON(w, http.StatusOK, principal)
		}))
		defer srv.Close()

		c := New(srv.URL)
		c.Tokens = &memTokens{token: "old"}
		user, token, err := c.Login(context.Background(), domain.Credentials{Email: "alice@example.com", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, "tok-123", token)
		assert.Equal(t, principal.ID, user.ID)
		assert.Equal(t, "old", c.Tokens.Token())
	})

	t.Run("missing header", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, principal)
		}))
		defer srv.Close()

		_, _, err := New(srv.URL).Login(context.Background(), domain.Credentials{Email: "a", Password: "b"})
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("missing body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Authorization", "Bearer tok")
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		_, _, err := New(srv.URL).Login(context.Background(), domain.Credentials{Email: "a", Password: "b"})
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("rejected credentials skip the hook", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		}))
		defer srv.Close()

		c := New(srv.URL)
		c.OnUnauthorized = func() { t.Fatal("hook must not run for login") }
		_, _, err := c.Login(context.Background(), domain.Credentials{Email: "a", Password: "b"})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "invalid credentials", apiErr.Message)
	})
}

func TestStripBearer(t *testing.T) {
	assert.Equal(t, "abc", StripBearer("Bearer abc"))
	assert.Equal(t, "abc", StripBearer("bearer  abc "))
	assert.Equal(t, "abc", StripBearer("abc"))
	assert.Equal(t, "", StripBearer(""))
}
