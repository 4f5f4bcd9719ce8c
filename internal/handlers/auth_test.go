package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/paisa/internal/models"
	"github.com/example/paisa/internal/services"
)

func setupAuthRoutes(env *testEnv, smsURL string) {
	handler := NewAuthHandler(env.db, env.cfg, env.sessions, services.NewSMSClient(smsURL, "test-key"))

	env.app.Post("/auth/register", handler.Register)
	env.app.Post("/auth/login", handler.Login)
	env.app.Post("/auth/refresh", handler.Refresh)
	env.app.Post("/auth/resend-confirmation", handler.ResendConfirmation)

	protected := env.protected()
	protected.Get("/auth/session", handler.Session)
	protected.Post("/auth/logout", handler.Logout)
}

func newSMSServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"return": true})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRegisterLoginLogoutFlow(t *testing.T) {
	var smsCalls int32
	env := newTestEnv(t)
	setupAuthRoutes(env, newSMSServer(t, &smsCalls).URL)

	resp := env.request(http.MethodPost, "/auth/register", "", map[string]string{
		"email":      "ravi@example.com",
		"password":   "secret123",
		"first_name": "Ravi",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	registered := decodeBody(t, resp)
	require.NotEmpty(t, registered["token"])

	// No phone was supplied, so no confirmation SMS goes out.
	assert.EqualValues(t, 0, atomic.LoadInt32(&smsCalls))

	// An empty profile scaffold exists from the moment of sign-up.
	var profile models.Profile
	require.NoError(t, env.db.First(&profile, "first_name = ?", "Ravi").Error)

	resp = env.request(http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "ravi@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loggedIn := decodeBody(t, resp)
	token := loggedIn["token"].(string)

	resp = env.request(http.MethodGet, "/auth/session", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The token is now a valid signature over a dead session.
	resp = env.request(http.MethodGet, "/auth/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	var smsCalls int32
	env := newTestEnv(t)
	setupAuthRoutes(env, newSMSServer(t, &smsCalls).URL)

	payload := map[string]string{"email": "ravi@example.com", "password": "secret123"}
	resp := env.request(http.MethodPost, "/auth/register", "", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.request(http.MethodPost, "/auth/register", "", payload)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRegisterWithPhoneSendsConfirmation(t *testing.T) {
	var smsCalls int32
	env := newTestEnv(t)
	setupAuthRoutes(env, newSMSServer(t, &smsCalls).URL)

	resp := env.request(http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "ravi@example.com",
		"phone":    "9876543210",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(&smsCalls))

	var confirmation models.SignupConfirmation
	require.NoError(t, env.db.First(&confirmation).Error)
	assert.Len(t, confirmation.Code, 6)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	var smsCalls int32
	env := newTestEnv(t)
	setupAuthRoutes(env, newSMSServer(t, &smsCalls).URL)

	resp := env.request(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "ravi@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.request(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ravi@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshRotatesSession(t *testing.T) {
	var smsCalls int32
	env := newTestEnv(t)
	setupAuthRoutes(env, newSMSServer(t, &smsCalls).URL)

	resp := env.request(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "ravi@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	registered := decodeBody(t, resp)
	oldToken := registered["token"].(string)
	refreshToken := registered["refresh_token"].(string)

	resp = env.request(http.MethodPost, "/auth/refresh", "", map[string]string{
		"refresh_token": refreshToken,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	refreshed := decodeBody(t, resp)
	newToken := refreshed["token"].(string)
	assert.NotEqual(t, refreshToken, refreshed["refresh_token"])

	// The old session died with the refresh; the new token works.
	resp = env.request(http.MethodGet, "/auth/session", oldToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = env.request(http.MethodGet, "/auth/session", newToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A refresh token is single-use.
	resp = env.request(http.MethodPost, "/auth/refresh", "", map[string]string{
		"refresh_token": refreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestResendConfirmation(t *testing.T) {
	var smsCalls int32
	env := newTestEnv(t)
	setupAuthRoutes(env, newSMSServer(t, &smsCalls).URL)

	resp := env.request(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "ravi@example.com", "phone": "9876543210", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.request(http.MethodPost, "/auth/resend-confirmation", "", map[string]string{
		"email": "ravi@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, atomic.LoadInt32(&smsCalls))

	resp = env.request(http.MethodPost, "/auth/resend-confirmation", "", map[string]string{
		"email": "nobody@example.com",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
