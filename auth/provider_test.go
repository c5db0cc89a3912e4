package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper to create a mock auth provider
func createMockProvider(t *testing.T, handler http.HandlerFunc) (*ProviderClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewProviderClient(server.URL, "anon-key", 5*time.Second), server
}

func TestProviderClient_SignIn(t *testing.T) {
	t.Run("returns session on success", func(t *testing.T) {
		client, _ := createMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/auth/v1/token", r.URL.Path)
			assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
			assert.Equal(t, "anon-key", r.Header.Get("apikey"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "u1@x.com", body["email"])
			assert.Equal(t, "secret", body["password"])

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600,"user":{"id":"u1","email":"u1@x.com"}}`))
		})

		session, err := client.SignIn(context.Background(), "u1@x.com", "secret")
		require.NoError(t, err)
		assert.Equal(t, "tok", session.AccessToken)
		assert.Equal(t, 3600, session.ExpiresIn)
		assert.Equal(t, "u1", session.User.ID)
	})

	t.Run("maps 400 to invalid credentials", func(t *testing.T) {
		client, _ := createMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
		})

		_, err := client.SignIn(context.Background(), "u1@x.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("server error is not a credentials error", func(t *testing.T) {
		client, _ := createMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.SignIn(context.Background(), "u1@x.com", "secret")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("missing access token", func(t *testing.T) {
		client, _ := createMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"token_type":"bearer"}`))
		})

		_, err := client.SignIn(context.Background(), "u1@x.com", "secret")
		assert.Error(t, err)
	})

	t.Run("not configured", func(t *testing.T) {
		client := NewProviderClient("", "", 0)
		_, err := client.SignIn(context.Background(), "u1@x.com", "secret")
		assert.ErrorIs(t, err, ErrProviderNotConfigured)
	})
}

func TestProviderClient_SignUp(t *testing.T) {
	t.Run("sends metadata and accepts bare user", func(t *testing.T) {
		client, _ := createMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/v1/signup", r.URL.Path)

			var body struct {
				Email string            `json:"email"`
				Data  map[string]string `json:"data"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "new@x.com", body.Email)
			assert.Equal(t, "Ada", body.Data["first_name"])
			assert.Equal(t, "Lovelace", body.Data["last_name"])
			assert.Equal(t, "+100", body.Data["phone"])

			_, _ = w.Write([]byte(`{"id":"u2","email":"new@x.com"}`))
		})

		user, err := client.SignUp(context.Background(), SignUpRequest{
			Email:     "new@x.com",
			Password:  "secret1",
			FirstName: "Ada",
			LastName:  "Lovelace",
			Phone:     "+100",
		})
		require.NoError(t, err)
		assert.Equal(t, "u2", user.ID)
	})

	t.Run("accepts session-wrapped user", func(t *testing.T) {
		client, _ := createMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"access_token":"tok","user":{"id":"u3","email":"c@x.com"}}`))
		})

		user, err := client.SignUp(context.Background(), SignUpRequest{Email: "c@x.com", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, "u3", user.ID)
		assert.Equal(t, "c@x.com", user.Email)
	})

	t.Run("surfaces provider message", func(t *testing.T) {
		client, _ := createMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"code":422,"msg":"User already registered"}`))
		})

		_, err := client.SignUp(context.Background(), SignUpRequest{Email: "dup@x.com", Password: "secret1"})
		var perr *ProviderError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, http.StatusUnprocessableEntity, perr.Status)
		assert.Equal(t, "User already registered", perr.Msg)
	})
}

func TestProviderMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"msg":"a"}`, "a"},
		{`{"message":"b"}`, "b"},
		{`{"error_description":"c","error":"d"}`, "c"},
		{`{"error":"d"}`, "d"},
		{`{}`, "request rejected"},
		{`<html>`, "request rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			assert.Equal(t, tt.want, providerMessage([]byte(tt.body)))
		})
	}
}
