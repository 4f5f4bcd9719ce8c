package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/paisa/internal/database"
)

func TestListCategoriesReturnsSeededDefaults(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, database.SeedCategories(env.db))

	handler := NewCategoryHandler(env.db)
	env.protected().Get("/categories", handler.ListCategories)
	_, token := env.signIn()

	resp := env.request(http.MethodGet, "/categories", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	data := body["data"].([]interface{})
	require.Len(t, data, 6)

	names := make([]string, 0, len(data))
	for _, entry := range data {
		names = append(names, entry.(map[string]interface{})["name"].(string))
	}
	assert.Contains(t, names, "Food")
	assert.Contains(t, names, "Others")

	// Seeding again does not duplicate the defaults.
	require.NoError(t, database.SeedCategories(env.db))
	resp = env.request(http.MethodGet, "/categories", token, nil)
	body = decodeBody(t, resp)
	assert.Len(t, body["data"].([]interface{}), 6)
}
