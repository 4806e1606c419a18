package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/rockbridge/pkg/api"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:5000/")

	assert.Equal(t, "http://localhost:5000", client.BaseURL())
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_Login(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var req api.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, api.LoginRequest{Email: "admin@rockbridge.store", Password: "Secret123!"}, req)

		writeJSON(w, http.StatusOK, api.SessionResponse{
			Message:     "Login successful",
			AccessToken: "token-1",
			User:        api.User{ID: "user-1", Name: "Admin", Email: "admin@rockbridge.store"},
		})
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Login(context.Background(), api.LoginRequest{Email: "admin@rockbridge.store", Password: "Secret123!"})

	require.NoError(t, err)
	assert.Equal(t, "token-1", resp.AccessToken)
	assert.Equal(t, "user-1", resp.User.ID)
}

func TestClient_TokenRequests(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.Method + " " + r.URL.Path
		switch r.URL.Path {
		case "/api/v1/auth/relogin":
			writeJSON(w, http.StatusOK, api.SessionResponse{Message: "Token refreshed", AccessToken: "token-2"})
		case "/api/v1/auth/logout":
			writeJSON(w, http.StatusOK, api.MessageResponse{Message: "Logged out"})
		case "/api/v1/auth/me":
			writeJSON(w, http.StatusOK, api.MeResponse{User: api.User{ID: "user-1", Name: "Admin"}})
		case "/api/v1/quotes":
			writeJSON(w, http.StatusOK, []api.Quote{{ID: "q-1", Name: "Sara"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	ctx := context.Background()
	client := NewClient(server.URL)

	session, err := client.Relogin(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, "token-2", session.AccessToken)
	assert.Equal(t, "Bearer token-1", gotAuth)
	assert.Equal(t, "POST /api/v1/auth/relogin", gotPath)

	me, err := client.Me(ctx, "token-2")
	require.NoError(t, err)
	assert.Equal(t, "Admin", me.User.Name)
	assert.Equal(t, "GET /api/v1/auth/me", gotPath)

	quotes, err := client.ListQuotes(ctx, "token-2")
	require.NoError(t, err)
	assert.Equal(t, []api.Quote{{ID: "q-1", Name: "Sara"}}, quotes)

	require.NoError(t, client.Logout(ctx, "token-2"))
	assert.Equal(t, "Bearer token-2", gotAuth)
	assert.Equal(t, "POST /api/v1/auth/logout", gotPath)
}

func TestClient_PasswordReset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/forgot":
			var req api.ForgotPasswordRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "admin@rockbridge.store", req.Email)
			writeJSON(w, http.StatusOK, api.MessageResponse{Message: "Reset instructions sent to email"})
		case "/api/v1/auth/reset":
			var req api.ResetPasswordRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, api.ResetPasswordRequest{Email: "admin@rockbridge.store", OTP: "123456", NewPassword: "NewPass1!"}, req)
			writeJSON(w, http.StatusOK, api.MessageResponse{Message: "Password reset successful"})
		}
	}))
	defer server.Close()

	ctx := context.Background()
	client := NewClient(server.URL)

	forgot, err := client.ForgotPassword(ctx, api.ForgotPasswordRequest{Email: "admin@rockbridge.store"})
	require.NoError(t, err)
	assert.Equal(t, "Reset instructions sent to email", forgot.Message)

	reset, err := client.ResetPassword(ctx, api.ResetPasswordRequest{Email: "admin@rockbridge.store", OTP: "123456", NewPassword: "NewPass1!"})
	require.NoError(t, err)
	assert.Equal(t, "Password reset successful", reset.Message)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name           string
		statusCode     int
		body           string
		expectedErrMsg string
	}{
		{
			name:           "json error",
			statusCode:     http.StatusUnauthorized,
			body:           `{"error":"Unauthorized","message":"Invalid credentials"}`,
			expectedErrMsg: "login request failed: server error (401): Invalid credentials",
		},
		{
			name:           "plain text error",
			statusCode:     http.StatusBadGateway,
			body:           "upstream unavailable\n",
			expectedErrMsg: "login request failed: server error (502): upstream unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			resp, err := NewClient(server.URL).Login(context.Background(), api.LoginRequest{Email: "a@b.c", Password: "x"})

			assert.Nil(t, resp)
			assert.EqualError(t, err, tt.expectedErrMsg)
			assert.True(t, IsStatus(err, tt.statusCode))
		})
	}
}

func TestClient_InvalidJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Me(context.Background(), "token")

	assert.ErrorContains(t, err, "failed to decode response")
	assert.False(t, IsStatus(err, http.StatusOK))
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.MessageResponse{})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewClient(server.URL).Logout(ctx, "token")
	assert.ErrorIs(t, err, context.Canceled)
}
