package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-portal/internal/config"
	"github.com/spec-kit/ticket-portal/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.BackendConfig{BaseURL: srv.URL + "/", TimeoutSeconds: 2}, zap.NewNop(), nil)
}

func TestClient_Login(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathLogin, r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, "pw", body["password"])

		_, _ = w.Write([]byte(`{"token":"t1","role":"admin","hasProfile":true,"isTemporaryPassword":false}`))
	})

	resp, err := client.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, &LoginResponse{Token: "t1", Role: domain.RoleAdmin, HasProfile: true}, resp)
}

func TestClient_LoginFailureMessage(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{body: `{"error":"usuário ou senha inválidos"}`, want: "usuário ou senha inválidos"},
		{body: `{"message":"locked"}`, want: "locked"},
		{body: `{"error":{"code":"X","message":"nested"}}`, want: "nested"},
		{body: `not json`, want: ""},
	}

	for _, tc := range cases {
		body, want := tc.body, tc.want
		t.Run(body, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(body))
			})

			_, err := client.Login(context.Background(), "alice", "bad")
			require.Error(t, err)
			assert.True(t, IsUnauthorized(err))
			assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
			if want == "" {
				assert.Equal(t, "fallback", MessageOf(err, "fallback"))
			} else {
				assert.Equal(t, want, MessageOf(err, "fallback"))
			}
		})
	}
}

func TestClient_LoginWithoutToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"role":"user"}`))
	})

	_, err := client.Login(context.Background(), "alice", "pw")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
}

func TestClient_ValidateToken(t *testing.T) {
	t.Run("sends bearer and accepts any body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer t1", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`ok`))
		})

		v, err := client.ValidateToken(context.Background(), "t1")
		require.NoError(t, err)
		assert.True(t, v.Patch().Empty())
	})

	t.Run("echoed flags become a patch", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"valid":true,"isTemporaryPassword":true}`))
		})

		v, err := client.ValidateToken(context.Background(), "t1")
		require.NoError(t, err)
		patch := v.Patch()
		require.NotNil(t, patch.IsTemporaryPassword)
		assert.True(t, *patch.IsTemporaryPassword)
		assert.Nil(t, patch.Role)
	})

	t.Run("401 is unauthorized", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := client.ValidateToken(context.Background(), "t1")
		assert.True(t, IsUnauthorized(err))
	})
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	client := NewClient(config.BackendConfig{BaseURL: srv.URL}, zap.NewNop(), nil)

	_, err := client.ValidateToken(context.Background(), "t1")
	require.Error(t, err)
	assert.Equal(t, 0, StatusOf(err))
	assert.False(t, IsUnauthorized(err))
}

func TestClient_ChangePasswordAndGet(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathChangePassword:
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "old", body["oldPassword"])
			assert.Equal(t, "new-password", body["newPassword"])
			_, _ = w.Write([]byte(`{"token":"t2"}`))
		case "/api/tickets/list":
			_, _ = w.Write([]byte(`[{"id":"1"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	resp, err := client.ChangePassword(context.Background(), "t1", "old", "new-password")
	require.NoError(t, err)
	assert.Equal(t, "t2", resp.Token)

	data, err := client.Get(context.Background(), "t1", "/api/tickets/list")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"}]`, string(data))

	_, err = client.Get(context.Background(), "t1", "/api/nope")
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
}

func TestClient_GetRejectsNonJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/empty":
			w.WriteHeader(http.StatusNoContent)
		default:
			_, _ = w.Write([]byte(`<html>`))
		}
	})

	data, err := client.Get(context.Background(), "t1", "/api/empty")
	require.NoError(t, err)
	assert.Nil(t, data)

	_, err = client.Post(context.Background(), "t1", "/api/html", nil)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
}
