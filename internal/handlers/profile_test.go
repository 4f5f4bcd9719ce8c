package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/paisa/internal/models"
	"github.com/example/paisa/internal/services"
)

func setupProfileRoutes(env *testEnv, geocodeURL string) {
	handler := NewProfileHandler(env.db, services.NewGeocodeClient(geocodeURL), env.t.TempDir())

	protected := env.protected()
	protected.Get("/profile", handler.GetProfile)
	protected.Put("/profile", handler.UpdateProfile)
	protected.Post("/profile/location", handler.SetLocation)
}

func validProfilePayload() map[string]interface{} {
	return map[string]interface{}{
		"first_name":     "Ravi",
		"last_name":      "Sharma",
		"phone_number":   "9876543210",
		"aadhaar_number": "123456789012",
		"bio":            "student",
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	env := newTestEnv(t)
	setupProfileRoutes(env, "http://geocode.invalid")
	userID, token := env.signIn()

	tests := []struct {
		name  string
		mut   func(payload map[string]interface{})
		field string
	}{
		{"missing first name", func(p map[string]interface{}) { p["first_name"] = "" }, "first_name"},
		{"missing last name", func(p map[string]interface{}) { p["last_name"] = "" }, "last_name"},
		{"short phone", func(p map[string]interface{}) { p["phone_number"] = "12345" }, "phone_number"},
		{"alpha phone", func(p map[string]interface{}) { p["phone_number"] = "98765abcde" }, "phone_number"},
		{"short aadhaar", func(p map[string]interface{}) { p["aadhaar_number"] = "12345" }, "aadhaar_number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := validProfilePayload()
			tt.mut(payload)

			resp := env.request(http.MethodPut, "/profile", token, payload)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			body := decodeBody(t, resp)
			fieldErrors := body["errors"].(map[string]interface{})
			assert.Contains(t, fieldErrors, tt.field)
		})
	}

	// Nothing was persisted by the rejected submissions.
	var count int64
	require.NoError(t, env.db.Model(&models.Profile{}).Where("id = ?", userID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestUpdateProfileSanitizesNames(t *testing.T) {
	env := newTestEnv(t)
	setupProfileRoutes(env, "http://geocode.invalid")
	userID, token := env.signIn()

	payload := validProfilePayload()
	payload["first_name"] = "Ravi4 Kumar!"
	payload["last_name"] = "Subramaniananthapuram"

	resp := env.request(http.MethodPut, "/profile", token, payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile models.Profile
	require.NoError(t, env.db.First(&profile, "id = ?", userID).Error)
	assert.Equal(t, "RaviKumar", profile.FirstName)
	assert.Len(t, profile.LastName, 15)
}

func TestSocialLinksFullReplace(t *testing.T) {
	env := newTestEnv(t)
	setupProfileRoutes(env, "http://geocode.invalid")
	userID, token := env.signIn()

	existing := []models.SocialLink{
		{UserID: userID, Platform: "twitter", URL: "https://twitter.com/ravi"},
		{UserID: userID, Platform: "github", URL: "https://github.com/ravi"},
	}
	require.NoError(t, env.db.Create(&existing).Error)

	payload := validProfilePayload()
	payload["social_links"] = []map[string]string{
		{"platform": "github", "url": "https://github.com/ravi"},
		{"platform": "linkedin", "url": "https://linkedin.com/in/ravi"},
	}

	resp := env.request(http.MethodPut, "/profile", token, payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stored []models.SocialLink
	require.NoError(t, env.db.Where("user_id = ?", userID).Order("platform asc").Find(&stored).Error)
	require.Len(t, stored, 2)
	assert.Equal(t, "github", stored[0].Platform)
	assert.Equal(t, "linkedin", stored[1].Platform)
}

func TestLinkSaveFailureReportsPartialSuccess(t *testing.T) {
	env := newTestEnv(t)
	setupProfileRoutes(env, "http://geocode.invalid")
	userID, token := env.signIn()

	require.NoError(t, env.db.Migrator().DropTable(&models.SocialLink{}))

	payload := validProfilePayload()
	payload["social_links"] = []map[string]string{
		{"platform": "github", "url": "https://github.com/ravi"},
	}

	resp := env.request(http.MethodPut, "/profile", token, payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, linkSaveWarning, body["warning"])

	// The profile upsert happened before the link step failed.
	var profile models.Profile
	require.NoError(t, env.db.First(&profile, "id = ?", userID).Error)
	assert.Equal(t, "Ravi", profile.FirstName)
}

func TestGetProfileReturnsLinks(t *testing.T) {
	env := newTestEnv(t)
	setupProfileRoutes(env, "http://geocode.invalid")
	userID, token := env.signIn()

	require.NoError(t, env.db.Create(&models.Profile{ID: userID, FirstName: "Ravi"}).Error)
	require.NoError(t, env.db.Create(&models.SocialLink{
		UserID: userID, Platform: "github", URL: "https://github.com/ravi",
	}).Error)

	resp := env.request(http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Ravi", data["first_name"])
	links := body["social_links"].([]interface{})
	assert.Len(t, links, 1)
}

func TestSetLocationFillsProfileField(t *testing.T) {
	geocodeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"address": map[string]string{
				"city":    "Pune",
				"state":   "Maharashtra",
				"country": "India",
			},
		})
	}))
	defer geocodeSrv.Close()

	env := newTestEnv(t)
	setupProfileRoutes(env, geocodeSrv.URL)
	userID, token := env.signIn()
	require.NoError(t, env.db.Create(&models.Profile{ID: userID}).Error)

	resp := env.request(http.MethodPost, "/profile/location", token, map[string]float64{
		"latitude":  18.52,
		"longitude": 73.85,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile models.Profile
	require.NoError(t, env.db.First(&profile, "id = ?", userID).Error)
	assert.Equal(t, "Pune, Maharashtra, India", profile.Location)
}

func TestSetLocationFailureLeavesFieldUnchanged(t *testing.T) {
	geocodeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer geocodeSrv.Close()

	env := newTestEnv(t)
	setupProfileRoutes(env, geocodeSrv.URL)
	userID, token := env.signIn()
	require.NoError(t, env.db.Create(&models.Profile{ID: userID, Location: "Mumbai, India"}).Error)

	resp := env.request(http.MethodPost, "/profile/location", token, map[string]float64{
		"latitude":  18.52,
		"longitude": 73.85,
	})
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var profile models.Profile
	require.NoError(t, env.db.First(&profile, "id = ?", userID).Error)
	assert.Equal(t, "Mumbai, India", profile.Location)
}

func TestProfileRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	setupProfileRoutes(env, "http://geocode.invalid")

	resp := env.request(http.MethodGet, "/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
