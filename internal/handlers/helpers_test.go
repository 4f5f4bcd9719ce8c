package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v7"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/paisa/internal/config"
	"github.com/example/paisa/internal/database"
	"github.com/example/paisa/internal/middleware"
	"github.com/example/paisa/internal/session"
	"github.com/example/paisa/internal/utils"
)

// testEnv wires a handler under test to an in-memory row store, a miniredis
// session store and the real auth middleware.
type testEnv struct {
	t        *testing.T
	db       *gorm.DB
	cfg      *config.Config
	sessions *session.Store
	app      *fiber.App
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := &testEnv{
		t:        t,
		db:       db,
		cfg:      &config.Config{JWTSecret: "test-secret", TokenExpires: time.Hour},
		sessions: session.NewStore(client, time.Hour),
		app:      fiber.New(),
	}
	return env
}

// protected returns a route group behind the real auth middleware.
func (e *testEnv) protected() fiber.Router {
	return e.app.Group("", middleware.AuthMiddleware(e.cfg, e.sessions))
}

// signIn opens a session for a fresh user and returns its bearer token.
func (e *testEnv) signIn() (uuid.UUID, string) {
	e.t.Helper()

	userID := uuid.New()
	sess, err := e.sessions.Create(userID)
	require.NoError(e.t, err)

	token, err := utils.GenerateToken(e.cfg.JWTSecret, userID, sess.ID, e.cfg.TokenExpires)
	require.NoError(e.t, err)

	return userID, token
}

func (e *testEnv) request(method, path, token string, body interface{}) *http.Response {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	defer resp.Body.Close()
	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return decoded
}

// readBody returns the raw response body. fiber's default error handler
// renders fiber.NewError responses as plain text, not JSON.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}
